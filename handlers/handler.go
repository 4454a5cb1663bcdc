package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"
	"go.uber.org/zap"

	"ticket-admin/internal/backend"
	"ticket-admin/internal/status"
	"ticket-admin/services"
)

// LoginPath is where the dashboard sends users whose session is gone.
const LoginPath = "/admin/login"

const (
	sessionCookie = "admin_session"
	ctxSession    = "session"
	ctxSessionID  = "session_id"
	ctxRequestID  = "request_id"
)

type Sessions interface {
	Login(ctx context.Context, email, password string) (string, *backend.Session, error)
	Get(ctx context.Context, id string) (*backend.Session, error)
	Logout(ctx context.Context, id string) error
	Invalidate(ctx context.Context, id string)
}

// base carries what every handler needs to answer errors.
type base struct {
	sessions Sessions
}

func session(c echo.Context) *backend.Session {
	sess, _ := c.Get(ctxSession).(*backend.Session)
	return sess
}

func idParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.PathParam(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func badID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid id"})
}

// fail writes the JSON error response for err. A backend 401/403 also drops the
// caller's session, since its token is no longer accepted.
func (b *base) fail(c echo.Context, err error) error {
	var (
		berr  *backend.Error
		verr  *status.ValidationError
		cerr  *status.ConfirmationRequiredError
		logFn = zap.L().Warn
	)

	code, body := http.StatusInternalServerError, map[string]any{"error": "Internal error"}
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		code, body = http.StatusUnauthorized, map[string]any{"error": "Session expired", "redirect": LoginPath}
	case errors.Is(err, services.ErrAccessDenied):
		code, body = http.StatusForbidden, map[string]any{"error": services.AccessDeniedMessage}
	case errors.Is(err, services.ErrTicketNotFound):
		code, body = http.StatusNotFound, map[string]any{"error": "Ticket not found"}
	case errors.As(err, &cerr):
		code, body = http.StatusConflict, map[string]any{"error": "Confirmation required", "prompt": cerr.Prompt, "confirm_required": true}
	case errors.As(err, &verr):
		code, body = http.StatusUnprocessableEntity, map[string]any{"error": "Invalid data", "fields": verr.Fields}
	case errors.Is(err, status.ErrNotAllowed):
		code, body = http.StatusConflict, map[string]any{"error": "Transition not allowed"}
	case errors.Is(err, status.ErrInFlight):
		code, body = http.StatusConflict, map[string]any{"error": "An update for this ticket is already in progress"}
	case errors.Is(err, status.ErrDeclined):
		code, body = http.StatusConflict, map[string]any{"error": "Transition cancelled"}
	case errors.As(err, &berr):
		switch berr.Kind {
		case backend.KindUnauthorized:
			if id, _ := c.Get(ctxSessionID).(string); id != "" && b.sessions != nil {
				b.sessions.Invalidate(c.Request().Context(), id)
			}
			clearSessionCookie(c)
			code, body = http.StatusUnauthorized, map[string]any{"error": backend.Message(err), "redirect": LoginPath}
		case backend.KindValidation:
			code, body = http.StatusUnprocessableEntity, map[string]any{"error": backend.Message(err), "fields": berr.Fields}
		case backend.KindNetwork:
			code, body = http.StatusServiceUnavailable, map[string]any{"error": backend.NetworkErrorMessage}
			logFn = zap.L().Error
		default:
			code = http.StatusBadGateway
			if berr.Status == http.StatusNotFound || berr.Status == http.StatusBadRequest {
				code = berr.Status
			}
			body = map[string]any{"error": backend.Message(err)}
			if len(berr.Fields) > 0 {
				body["fields"] = berr.Fields
			}
		}
	default:
		logFn = zap.L().Error
	}

	logFn("request failed",
		zap.String("request_id", requestID(c)),
		zap.String("path", c.Path()),
		zap.Int("status", code),
		zap.Error(err),
	)
	return c.JSON(code, body)
}
