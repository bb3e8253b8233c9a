package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/plannerd/taskplanner/internal/database"
	"github.com/plannerd/taskplanner/internal/request"
)

// AuthConfig holds the token secret and the defaults applied when a token's
// subject is seen for the first time.
type AuthConfig struct {
	Secret           []byte
	DefaultTimezone  string
	DefaultRemindMin int
}

// Auth creates authentication middleware validating HMAC-signed bearer
// tokens. The token subject is the numeric user id; unknown subjects are
// created lazily with deployment defaults.
func Auth(cfg AuthConfig, users database.UserRepositoryInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			token, err := jwt.Parse([]byte(parts[1]),
				jwt.WithKey(jwa.HS256, cfg.Secret),
				jwt.WithValidate(true),
			)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			userID, err := strconv.ParseInt(token.Subject(), 10, 64)
			if err != nil || userID <= 0 {
				respondError(w, http.StatusUnauthorized, "Invalid token subject")
				return
			}

			ctx := r.Context()
			if err := users.Ensure(ctx, userID, cfg.DefaultTimezone, cfg.DefaultRemindMin); err != nil {
				log.Printf("Failed to ensure user %d: %v", userID, err)
				respondError(w, http.StatusInternalServerError, "Database error")
				return
			}

			user, err := users.GetByID(ctx, userID)
			if err != nil {
				log.Printf("Failed to load user %d: %v", userID, err)
				respondError(w, http.StatusInternalServerError, "Database error")
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
