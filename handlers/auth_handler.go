package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
)

type AuthHandler struct {
	base
	ttl    time.Duration
	secure bool
}

func NewAuthHandler(sessions Sessions, ttl time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{base: base{sessions: sessions}, ttl: ttl, secure: secureCookie}
}

// Login - exchange admin credentials for a dashboard session
func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	id, sess, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}

	setSessionCookie(c, id, h.ttl, h.secure)
	return c.JSON(http.StatusOK, map[string]any{
		"session_id":   id,
		"email":        sess.Email,
		"is_superuser": sess.IsSuperuser,
		"is_staff":     sess.IsStaff,
	})
}

// Logout - drop the current session
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessions.Logout(c.Request().Context(), sessionID(c)); err != nil {
		return h.fail(c, err)
	}
	clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me - the signed-in admin
func (h *AuthHandler) Me(c echo.Context) error {
	sess := session(c)
	return c.JSON(http.StatusOK, map[string]any{
		"email":        sess.Email,
		"is_superuser": sess.IsSuperuser,
		"is_staff":     sess.IsStaff,
	})
}
