package auth

import (
	"context"
	"strings"
	"time"

	"unified-console/config"
	"unified-console/core/store"
	"unified-console/core/utils"

	"github.com/gofrs/uuid/v5"
)

// SessionManager issues, validates and revokes opaque bearer tokens
// backed by the sessions table.
type SessionManager struct {
	users    store.UsersStore
	sessions store.SessionsStore
	cfg      *config.AppConfig
	logger   *utils.Logger
}

func NewSessionManager(users store.UsersStore, sessions store.SessionsStore, cfg *config.AppConfig, logger *utils.Logger) *SessionManager {
	return &SessionManager{users: users, sessions: sessions, cfg: cfg, logger: logger}
}

// Authenticate verifies credentials and issues a new session. Unknown
// user, wrong password and inactive account all fail identically.
func (m *SessionManager) Authenticate(ctx context.Context, username, password string) (*store.SessionRecord, *store.User, error) {
	user, err := m.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !user.IsActive {
		// Burn a hash anyway to keep timing close to the real path.
		_, _ = HashPassword(password, m.pepper())
		return nil, nil, ErrInvalidCredentials
	}
	ph, err := ParsePasswordHash(user.PasswordHash, user.Salt)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	ok, err := VerifyPassword(password, m.pepper(), ph)
	if err != nil || !ok {
		return nil, nil, ErrInvalidCredentials
	}
	sess, err := m.issue(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return sess, user, nil
}

func (m *SessionManager) issue(ctx context.Context, userID string) (*store.SessionRecord, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &store.SessionRecord{
		Token:     token,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl()),
	}
	if err := m.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Validate resolves a bearer token into a Principal. Expired, revoked
// and unknown tokens all come back as ErrUnauthenticated.
func (m *SessionManager) Validate(ctx context.Context, token string) (*Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}
	sess, err := m.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrUnauthenticated
	}
	user, err := m.users.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		_ = m.sessions.Delete(ctx, token)
		return nil, ErrUnauthenticated
	}
	return &Principal{User: user, Session: sess}, nil
}

// Revoke is idempotent: revoking an unknown token is not an error.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	return m.sessions.Delete(ctx, token)
}

func (m *SessionManager) RevokeAllForUser(ctx context.Context, userID string) error {
	return m.sessions.DeleteAllForUser(ctx, userID)
}

// ChangePassword rotates the credential and destroys every session of
// the user, the calling one included. The hash update and the session
// purge commit in one transaction.
func (m *SessionManager) ChangePassword(ctx context.Context, p *Principal, current, next string) error {
	if p == nil || p.User == nil {
		return ErrUnauthenticated
	}
	ph, err := ParsePasswordHash(p.User.PasswordHash, p.User.Salt)
	if err != nil {
		return ErrInvalidCredentials
	}
	ok, err := VerifyPassword(current, m.pepper(), ph)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	if err := utils.ValidatePassword(next); err != nil {
		return ErrWeakPassword
	}
	nph, err := HashPassword(next, m.pepper())
	if err != nil {
		return err
	}
	return m.users.UpdatePassword(ctx, p.User.ID, nph.Hash, nph.Salt)
}

func (m *SessionManager) ttl() time.Duration {
	return m.cfg.EffectiveSessionTTL()
}

func (m *SessionManager) pepper() string {
	if m.cfg == nil {
		return ""
	}
	return m.cfg.Pepper
}

func newToken() (string, error) {
	rnd, err := utils.RandString(32)
	if err != nil {
		return "", err
	}
	return uuid.Must(uuid.NewV4()).String() + "." + rnd, nil
}
