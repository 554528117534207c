package audit

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventLoginSuccess    EventType = "login_success"
	EventLoginFailure    EventType = "login_failure"
	EventLogout          EventType = "logout"
	EventReferralCreate  EventType = "referral_create"
	EventReferralFailure EventType = "referral_create_failure"
)

type Event struct {
	Type      EventType
	Slug      string
	RequestID string
	IP        string
	UserAgent string
	Details   map[string]any
}

// Log writes an admin audit record. Failed gate checks are not audited.
func Log(_ context.Context, event Event) {
	logger := log.With().
		Str("audit", "admin").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.Slug != "" {
		logger = logger.With().Str("slug", event.Slug).Logger()
	}
	if event.RequestID != "" {
		logger = logger.With().Str("request_id", event.RequestID).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("admin audit event")
}

func addField(e *zerolog.Event, key string, value any) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case []int64:
		return e.Ints64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}

// LogFromRequest fills in the caller's address, user agent and request id.
// RemoteAddr is already rewritten by chi's RealIP middleware.
func LogFromRequest(r *http.Request, event Event) {
	event.IP = r.RemoteAddr
	event.UserAgent = r.UserAgent()
	event.RequestID = chimiddleware.GetReqID(r.Context())
	Log(r.Context(), event)
}
