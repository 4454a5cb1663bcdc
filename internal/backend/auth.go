package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ticket-admin/models"
)

// Session is the authenticated admin. It is created once at login and passed to
// every call; the client never reads credentials from anywhere else.
type Session struct {
	Token       string `json:"token"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"is_superuser"`
	IsStaff     bool   `json:"is_staff"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// profilePaths are tried in order when the login reply carries no role flags.
var profilePaths = []string{"auth/me/", "user/profile/"}

// Login authenticates against the backend. The token is read from access_token,
// token or access; the user from the "user" object or the reply itself. When the
// reply has no role flags they are fetched from the profile endpoints, and a failed
// fetch leaves the reply's user as is.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, models.Profile, error) {
	const op = "Login"

	payload, err := json.Marshal(creds)
	if err != nil {
		return nil, models.Profile{}, fmt.Errorf("backend: %s: json.Marshal: %w", op, err)
	}

	r, err := c.send(ctx, nil, call{
		op:          op,
		method:      http.MethodPost,
		path:        "auth/login/",
		body:        bytes.NewReader(payload),
		contentType: "application/json",
		fallback:    "Authentication failed",
	})
	if err != nil {
		return nil, models.Profile{}, err
	}

	var reply map[string]json.RawMessage
	if err := decodeInto(op, r.body, &reply); err != nil {
		return nil, models.Profile{}, err
	}

	token := firstString(reply, "access_token", "token", "access")
	if token == "" {
		return nil, models.Profile{}, &Error{Kind: KindStatus, Op: op, Status: r.status, Message: "Authentication failed"}
	}

	userRaw := json.RawMessage(r.body)
	if raw, ok := reply["user"]; ok && len(bytes.TrimSpace(raw)) > 0 && bytes.TrimSpace(raw)[0] == '{' {
		userRaw = raw
	}
	var profile models.Profile
	if err := json.Unmarshal(userRaw, &profile); err != nil {
		return nil, models.Profile{}, fmt.Errorf("backend: %s: decode user: %w", op, err)
	}

	sess := &Session{Token: token}
	if !profile.HasRoleFlags() {
		me, err := c.Me(ctx, sess)
		switch {
		case err == nil:
			profile = me
		case ctx.Err() != nil:
			return nil, models.Profile{}, ctx.Err()
		}
	}

	sess.Email = profile.Email
	if sess.Email == "" {
		sess.Email = creds.Email
	}
	sess.IsSuperuser = profile.Superuser()
	sess.IsStaff = profile.Staff()
	return sess, profile, nil
}

// Me fetches the current user from auth/me/, falling back to user/profile/.
func (c *Client) Me(ctx context.Context, sess *Session) (models.Profile, error) {
	var lastErr error
	for _, path := range profilePaths {
		var profile models.Profile
		err := c.doJSON(ctx, sess, "Me", http.MethodGet, path, nil, &profile)
		if err == nil {
			return profile, nil
		}
		if ctx.Err() != nil || IsUnauthorized(err) {
			return models.Profile{}, err
		}
		lastErr = err
	}
	return models.Profile{}, lastErr
}

func firstString(m map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		raw, ok := m[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}
