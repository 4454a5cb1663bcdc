package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"go.uber.org/zap"

	"ticket-admin/services"
)

// RequestLogger tags each request with an id and logs it once it completes.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(ctxRequestID, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			start := time.Now()
			err := next(c)

			zap.L().Info("http request",
				zap.String("request_id", id),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
			)
			return err
		}
	}
}

func requestID(c echo.Context) string {
	id, _ := c.Get(ctxRequestID).(string)
	return id
}

// RequireSession resolves the caller's session from the bearer token or the
// session cookie. Requests without a live superuser session get 401.
func RequireSession(sessions Sessions) echo.MiddlewareFunc {
	b := &base{sessions: sessions}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := sessionID(c)
			if id == "" {
				return b.fail(c, services.ErrSessionNotFound)
			}

			sess, err := sessions.Get(c.Request().Context(), id)
			if err != nil {
				if errors.Is(err, services.ErrSessionNotFound) {
					clearSessionCookie(c)
				}
				return b.fail(c, err)
			}
			if !sess.IsSuperuser {
				return b.fail(c, services.ErrAccessDenied)
			}

			c.Set(ctxSessionID, id)
			c.Set(ctxSession, sess)
			return next(c)
		}
	}
}

func sessionID(c echo.Context) string {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func setSessionCookie(c echo.Context, id string, ttl time.Duration, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
