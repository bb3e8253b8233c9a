package caldav

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable indicates the gateway is not configured (missing endpoint or
// credentials). Callers treat this as a disabled feature, never a failure of
// task CRUD.
var ErrUnavailable = errors.New("calendar gateway unavailable")

// Kind classifies gateway failures so the orchestrator can decide between
// log-only and surfaced-warning handling without string matching.
type Kind string

const (
	// KindUnavailable means the gateway was invoked without configuration
	KindUnavailable Kind = "unavailable"
	// KindAuth means the remote store rejected the credentials
	KindAuth Kind = "auth"
	// KindNetwork covers transport failures and unexpected remote responses
	KindNetwork Kind = "network"
)

// GatewayError is the error type returned by all gateway operations
type GatewayError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("caldav %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsUnavailable checks if an error means the gateway is not configured
func IsUnavailable(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var gwErr *GatewayError
	return errors.As(err, &gwErr) && gwErr.Kind == KindUnavailable
}

// IsAuthError checks if an error is a remote authentication failure
func IsAuthError(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr) && gwErr.Kind == KindAuth
}

// wrapErr classifies err and wraps it with the operation name. The WebDAV
// client surfaces HTTP status failures as plain errors, so auth detection
// falls back to inspecting the message.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	kind := KindNetwork
	msg := err.Error()
	if strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(strings.ToLower(msg), "unauthorized") ||
		strings.Contains(strings.ToLower(msg), "forbidden") {
		kind = KindAuth
	}

	return &GatewayError{Kind: kind, Op: op, Err: err}
}
