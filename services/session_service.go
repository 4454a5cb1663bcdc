package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ticket-admin/internal/backend"
	"ticket-admin/models"
	"ticket-admin/utils"
)

// SessionKeyPrefix namespaces admin sessions in Redis.
const SessionKeyPrefix = "admin:session:"

// AccessDeniedMessage is shown when a non-superuser logs in.
const AccessDeniedMessage = "Access denied. Super admin privileges required."

var (
	ErrAccessDenied    = errors.New("session: super admin privileges required")
	ErrSessionNotFound = errors.New("session: not found or expired")
)

type Authenticator interface {
	Login(ctx context.Context, creds backend.Credentials) (*backend.Session, models.Profile, error)
}

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionService logs admins in against the backend and keeps their sessions in
// Redis, keyed by an opaque random id handed to the browser.
type SessionService struct {
	redis redis.Cmdable
	auth  Authenticator
	ttl   time.Duration
	newID func() (string, error)
}

func NewSessionService(redisClient redis.Cmdable, auth Authenticator, ttl time.Duration) *SessionService {
	return &SessionService{
		redis: redisClient,
		auth:  auth,
		ttl:   ttl,
		newID: func() (string, error) { return utils.GenerateCode(32) },
	}
}

// Login returns the new session id. Only superusers get a session.
func (s *SessionService) Login(ctx context.Context, email, password string) (string, *backend.Session, error) {
	form := loginForm{Email: strings.TrimSpace(email), Password: password}
	if err := validateForm("Login", form); err != nil {
		return "", nil, err
	}

	sess, _, err := s.auth.Login(ctx, backend.Credentials{Email: form.Email, Password: form.Password})
	if err != nil {
		return "", nil, err
	}
	if !sess.IsSuperuser {
		zap.L().Info("admin login denied", zap.String("email", sess.Email), zap.Bool("is_staff", sess.IsStaff))
		return "", nil, ErrAccessDenied
	}

	id, err := s.newID()
	if err != nil {
		return "", nil, fmt.Errorf("session: generate id: %w", err)
	}

	if err := s.Save(ctx, id, sess); err != nil {
		return "", nil, err
	}

	zap.L().Info("admin logged in", zap.String("email", sess.Email))
	return id, sess, nil
}

// Save stores sess under id for the configured TTL. The hash and its expiry go out in
// one MULTI/EXEC so a session never outlives the TTL.
func (s *SessionService) Save(ctx context.Context, id string, sess *backend.Session) error {
	key := SessionKeyPrefix + id
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"token", sess.Token,
			"email", sess.Email,
			"is_superuser", strconv.FormatBool(sess.IsSuperuser),
			"is_staff", strconv.FormatBool(sess.IsStaff),
		)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: redis.TxPipelined: %w", err)
	}
	return nil
}

func (s *SessionService) Get(ctx context.Context, id string) (*backend.Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	fields, err := s.redis.HGetAll(ctx, SessionKeyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("session: redis.HGetAll: %w", err)
	}
	if len(fields) == 0 || fields["token"] == "" {
		return nil, ErrSessionNotFound
	}

	superuser, _ := strconv.ParseBool(fields["is_superuser"])
	staff, _ := strconv.ParseBool(fields["is_staff"])
	return &backend.Session{
		Token:       fields["token"],
		Email:       fields["email"],
		IsSuperuser: superuser,
		IsStaff:     staff,
	}, nil
}

// Logout deletes the session. Deleting a missing session is not an error.
func (s *SessionService) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.redis.Del(ctx, SessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session: redis.Del: %w", err)
	}
	return nil
}

// Invalidate drops a session the backend rejected.
func (s *SessionService) Invalidate(ctx context.Context, id string) {
	if err := s.Logout(ctx, id); err != nil {
		zap.L().Warn("session invalidate failed", zap.Error(err))
	}
}
