package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_TokenKeys(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"access_token", `{"access_token": "abc", "user": {"email": "root@x.com", "is_superuser": true, "is_staff": true}}`},
		{"token", `{"token": "abc", "email": "root@x.com", "is_superuser": true}`},
		{"access", `{"access": "abc", "refresh": "r", "user": {"email": "root@x.com", "is_superuser": true}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/api/auth/login/", r.URL.Path)
				require.Empty(t, r.Header.Get("Authorization"))

				var creds Credentials
				require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
				assert.Equal(t, Credentials{Email: "root@x.com", Password: "pw"}, creds)

				w.Write([]byte(tt.reply))
			})

			s, profile, err := c.Login(context.Background(), Credentials{Email: "root@x.com", Password: "pw"})

			require.NoError(t, err)
			assert.Equal(t, "abc", s.Token)
			assert.Equal(t, "root@x.com", s.Email)
			assert.True(t, s.IsSuperuser)
			assert.True(t, profile.Superuser())
		})
	}
}

func TestLogin_FetchesFlagsWhenMissing(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login/":
			w.Write([]byte(`{"access_token": "abc", "user": {"email": "staff@x.com"}}`))
		case "/api/auth/me/":
			w.WriteHeader(http.StatusNotFound)
		case "/api/user/profile/":
			assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
			w.Write([]byte(`{"email": "staff@x.com", "is_superuser": false, "is_staff": true}`))
		}
	})

	s, profile, err := c.Login(context.Background(), Credentials{Email: "staff@x.com", Password: "pw"})

	require.NoError(t, err)
	assert.False(t, s.IsSuperuser)
	assert.True(t, s.IsStaff)
	require.NotNil(t, profile.IsSuperuser)
}

func TestLogin_ProfileFailureKeepsReply(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/login/" {
			w.Write([]byte(`{"token": "abc"}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	s, _, err := c.Login(context.Background(), Credentials{Email: "who@x.com", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, "who@x.com", s.Email)
	assert.False(t, s.IsSuperuser)
}

func TestLogin_Rejected(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"non_field_errors": ["Invalid credentials"]}`))
	})

	_, _, err := c.Login(context.Background(), Credentials{Email: "x@x.com", Password: "bad"})

	assert.Equal(t, KindStatus, KindOf(err))
	assert.Equal(t, "non_field_errors: Invalid credentials", Message(err))
}

func TestLogin_NoToken(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user": {"is_superuser": true}}`))
	})

	_, _, err := c.Login(context.Background(), Credentials{Email: "x@x.com", Password: "pw"})

	assert.Equal(t, "Authentication failed", Message(err))
}
