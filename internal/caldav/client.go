// Package caldav is the remote calendar gateway. Every operation performs
// real network I/O against a CalDAV store and must be invoked off the
// request and reminder-delivery paths; the sync worker is the intended
// caller. The gateway is optional infrastructure: task CRUD never depends
// on it succeeding.
package caldav

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	webdavcal "github.com/emersion/go-webdav/caldav"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/google/uuid"
	"github.com/plannerd/taskplanner/internal/models"
	"go.uber.org/zap"
)

const (
	// hrefRetryAttempts bounds the fallback search when a write returns no
	// retrievable location handle
	hrefRetryAttempts = 3
	hrefRetryBackoff  = time.Second
)

// Config holds the connection settings for one calendar account.
type Config struct {
	Endpoint     string
	Username     string
	Password     string
	CalendarName string
}

// Client talks to a single CalDAV calendar, located by display name on first
// use. All operations are independently retryable.
type Client struct {
	cfg    Config
	logger *zap.Logger

	// backoff is replaceable in tests
	backoff func(time.Duration)

	mu           sync.Mutex
	dav          *webdavcal.Client
	calendarPath string
}

// New creates a gateway client. It does not connect; the first operation
// does.
func New(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:     cfg,
		logger:  logger,
		backoff: time.Sleep,
	}
}

// Available reports whether the gateway is configured. Callers must check
// this before invoking other operations and skip the mirror when false.
func (c *Client) Available() bool {
	return c.cfg.Endpoint != "" && c.cfg.Username != "" && c.cfg.Password != ""
}

// connect dials the server and resolves the target calendar's path by
// display name. Idempotent; the resolved path is cached.
func (c *Client) connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dav != nil && c.calendarPath != "" {
		return nil
	}

	if !c.Available() {
		return &GatewayError{Kind: KindUnavailable, Op: "connect", Err: ErrUnavailable}
	}

	httpClient := webdav.HTTPClientWithBasicAuth(
		&http.Client{Timeout: 30 * time.Second},
		c.cfg.Username,
		c.cfg.Password,
	)
	dav, err := webdavcal.NewClient(httpClient, c.cfg.Endpoint)
	if err != nil {
		return wrapErr("connect", err)
	}

	principal, err := dav.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return wrapErr("connect", err)
	}

	homeSet, err := dav.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return wrapErr("connect", err)
	}

	calendars, err := dav.FindCalendars(ctx, homeSet)
	if err != nil {
		return wrapErr("connect", err)
	}

	for _, cal := range calendars {
		if cal.Name == c.cfg.CalendarName {
			c.dav = dav
			c.calendarPath = collectionPath(cal.Path)
			c.logger.Info("caldav_connected",
				zap.String("calendar", c.cfg.CalendarName),
				zap.String("path", cal.Path),
			)
			return nil
		}
	}

	return wrapErr("connect", fmt.Errorf("calendar %q not found on server", c.cfg.CalendarName))
}

// collectionPath normalizes a collection path so object names can be appended
// directly; servers are not guaranteed to report a trailing slash.
func collectionPath(p string) string {
	return strings.TrimSuffix(p, "/") + "/"
}

// CreateEvent writes a new event and returns its location handle and a fresh
// synchronization key. If the write succeeds but the server yields no
// retrievable handle, a bounded window search runs; an empty handle is
// returned (not an error) if it stays unfound, and the sync key remains the
// durable correlation id.
func (c *Client) CreateEvent(ctx context.Context, title string, startLocal, endLocal time.Time, alarmMinutes int) (string, string, error) {
	if err := c.connect(ctx); err != nil {
		return "", "", err
	}

	uid := uuid.New().String()
	cal := encodeEvent(uid, title, startLocal, endLocal, alarmMinutes)
	path := c.calendarPath + uid + ".ics"

	obj, err := c.dav.PutCalendarObject(ctx, path, cal)
	if err != nil {
		return "", "", wrapErr("create", err)
	}

	href := ""
	if obj != nil {
		href = obj.Path
	}
	if href == "" {
		href = c.searchHref(ctx, uid, startLocal, endLocal)
	}

	if href != "" {
		c.logger.Info("caldav_event_created", zap.String("title", title), zap.String("href", href))
	} else {
		c.logger.Info("caldav_event_created_without_href", zap.String("title", title), zap.String("uid", uid))
	}
	return href, uid, nil
}

// UpdateEvent overwrites the title, time window and alarm of the event whose
// UID equals syncKey. It reports whether the event was found and never
// creates a new event on a miss.
func (c *Client) UpdateEvent(ctx context.Context, syncKey, title string, startLocal, endLocal time.Time, alarmMinutes int) (bool, error) {
	if err := c.connect(ctx); err != nil {
		return false, err
	}

	obj, err := c.findByUID(ctx, syncKey, startLocal, endLocal)
	if err != nil {
		return false, err
	}
	if obj == nil {
		return false, nil
	}

	cal := encodeEvent(syncKey, title, startLocal, endLocal, alarmMinutes)
	if _, err := c.dav.PutCalendarObject(ctx, obj.Path, cal); err != nil {
		return false, wrapErr("update", err)
	}

	c.logger.Info("caldav_event_updated", zap.String("uid", syncKey))
	return true, nil
}

// DeleteEvent removes the event whose UID equals syncKey, reporting whether
// one was found.
func (c *Client) DeleteEvent(ctx context.Context, syncKey string, startLocal, endLocal time.Time) (bool, error) {
	if err := c.connect(ctx); err != nil {
		return false, err
	}

	obj, err := c.findByUID(ctx, syncKey, startLocal, endLocal)
	if err != nil {
		return false, err
	}
	if obj == nil {
		return false, nil
	}

	if err := c.dav.RemoveAll(ctx, obj.Path); err != nil {
		return false, wrapErr("delete", err)
	}

	c.logger.Info("caldav_event_deleted", zap.String("uid", syncKey))
	return true, nil
}

// ListEvents returns the events within the window. Diagnostic/bulk read.
func (c *Client) ListEvents(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error) {
	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	objects, err := c.query(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var out []models.CalendarEvent
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		out = append(out, decodeEvents(obj.Data)...)
	}
	return out, nil
}

// ListCalendars returns the display names of all calendars in the account's
// home set. Diagnostic.
func (c *Client) ListCalendars(ctx context.Context) ([]string, error) {
	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	principal, err := c.dav.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, wrapErr("list_calendars", err)
	}
	homeSet, err := c.dav.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, wrapErr("list_calendars", err)
	}
	calendars, err := c.dav.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, wrapErr("list_calendars", err)
	}

	names := make([]string, 0, len(calendars))
	for _, cal := range calendars {
		names = append(names, cal.Name)
	}
	return names, nil
}

// query runs a date-ranged VEVENT report against the calendar.
func (c *Client) query(ctx context.Context, from, to time.Time) ([]webdavcal.CalendarObject, error) {
	q := &webdavcal.CalendarQuery{
		CompRequest: webdavcal.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			Comps: []webdavcal.CalendarCompRequest{{
				Name:     ical.CompEvent,
				AllProps: true,
			}},
		},
		CompFilter: webdavcal.CompFilter{
			Name: ical.CompCalendar,
			Comps: []webdavcal.CompFilter{{
				Name:  ical.CompEvent,
				Start: from.UTC(),
				End:   to.UTC(),
			}},
		},
	}

	objects, err := c.dav.QueryCalendar(ctx, c.calendarPath, q)
	if err != nil {
		return nil, wrapErr("query", err)
	}
	return objects, nil
}

// findByUID resolves an event by its sync key inside the padded window. A
// miss is (nil, nil), not an error.
func (c *Client) findByUID(ctx context.Context, uid string, startLocal, endLocal time.Time) (*webdavcal.CalendarObject, error) {
	from, to := searchWindow(startLocal, endLocal)
	objects, err := c.query(ctx, from, to)
	if err != nil {
		return nil, err
	}

	for i := range objects {
		if objects[i].Data == nil {
			continue
		}
		if calendarHasUID(objects[i].Data, uid) {
			return &objects[i], nil
		}
	}
	return nil, nil
}

// searchHref retries the window search a fixed number of times to resolve
// the location handle of a just-written event; the server may lag indexing.
// Returns "" if still unfound.
func (c *Client) searchHref(ctx context.Context, uid string, startLocal, endLocal time.Time) string {
	for attempt := 1; attempt <= hrefRetryAttempts; attempt++ {
		obj, err := c.findByUID(ctx, uid, startLocal, endLocal)
		if err != nil {
			c.logger.Warn("caldav_href_search_failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		} else if obj != nil {
			return obj.Path
		}
		c.backoff(hrefRetryBackoff)
	}
	return ""
}
