package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"unified-console/config"
	"unified-console/core/store"
	"unified-console/core/utils"
)

func newTestManager(t *testing.T) (*SessionManager, store.UsersStore, store.SessionsStore, *config.AppConfig) {
	t.Helper()
	cfg := &config.AppConfig{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
		Pepper:   "test-pepper",
	}
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	users := store.NewUsersStore(db)
	sessions := store.NewSessionsStore(db)
	return NewSessionManager(users, sessions, cfg, logger), users, sessions, cfg
}

func createTestUser(t *testing.T, users store.UsersStore, cfg *config.AppConfig, username, password string, active bool) *store.User {
	t.Helper()
	ph, err := HashPassword(password, cfg.Pepper)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &store.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: ph.Hash,
		Salt:         ph.Salt,
		IsActive:     active,
		ModuleAccess: []string{"XDR"},
	}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestAuthenticateIssuesSession(t *testing.T) {
	m, users, _, cfg := newTestManager(t)
	createTestUser(t, users, cfg, "alice", "s3cret", true)

	sess, user, err := m.Authenticate(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if sess.Token == "" || user.Username != "alice" {
		t.Fatalf("sess = %+v user = %+v", sess, user)
	}
	if remaining := time.Until(sess.ExpiresAt); remaining < 23*time.Hour || remaining > 25*time.Hour {
		t.Fatalf("default ttl off: expires in %s", remaining)
	}

	p, err := m.Validate(context.Background(), sess.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if p.User.ID != user.ID {
		t.Fatalf("wrong principal: %+v", p.User)
	}
}

func TestAuthenticateFailuresAreUniform(t *testing.T) {
	m, users, _, cfg := newTestManager(t)
	createTestUser(t, users, cfg, "alice", "s3cret", true)
	createTestUser(t, users, cfg, "bob", "s3cret", false)

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "nobody", "s3cret"},
		{"wrong password", "alice", "wrong"},
		{"inactive account", "bob", "s3cret"},
	}
	for _, tc := range cases {
		if _, _, err := m.Authenticate(context.Background(), tc.username, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%s: err = %v, want ErrInvalidCredentials", tc.name, err)
		}
	}
}

func TestMultipleSessionsPerUser(t *testing.T) {
	m, users, _, cfg := newTestManager(t)
	createTestUser(t, users, cfg, "alice", "s3cret", true)

	s1, _, err := m.Authenticate(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	s2, _, err := m.Authenticate(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if s1.Token == s2.Token {
		t.Fatalf("tokens must be distinct")
	}
	for _, tok := range []string{s1.Token, s2.Token} {
		if _, err := m.Validate(context.Background(), tok); err != nil {
			t.Fatalf("validate %q: %v", tok, err)
		}
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	m, users, _, cfg := newTestManager(t)
	createTestUser(t, users, cfg, "alice", "s3cret", true)
	sess, _, err := m.Authenticate(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := m.Revoke(context.Background(), sess.Token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := m.Revoke(context.Background(), sess.Token); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if _, err := m.Validate(context.Background(), sess.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("validate after revoke: err = %v", err)
	}
}

func TestExpiredSessionRejectedLazily(t *testing.T) {
	m, users, sessions, cfg := newTestManager(t)
	u := createTestUser(t, users, cfg, "alice", "s3cret", true)

	expired := &store.SessionRecord{
		Token:     "expired-token",
		UserID:    u.ID,
		IssuedAt:  time.Now().Add(-48 * time.Hour),
		ExpiresAt: time.Now().Add(-24 * time.Hour),
	}
	if err := sessions.Save(context.Background(), expired); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := m.Validate(context.Background(), expired.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	// The expired row is deleted on read.
	if got, err := sessions.Get(context.Background(), expired.Token); err != nil || got != nil {
		t.Fatalf("expired row should be gone: %+v %v", got, err)
	}
}

func TestDeactivationKillsLiveSessions(t *testing.T) {
	m, users, _, cfg := newTestManager(t)
	u := createTestUser(t, users, cfg, "alice", "s3cret", true)
	sess, _, err := m.Authenticate(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := users.SetActive(context.Background(), u.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := m.Validate(context.Background(), sess.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestChangePasswordRevokesEverySession(t *testing.T) {
	m, users, _, cfg := newTestManager(t)
	createTestUser(t, users, cfg, "alice", "s3cret", true)

	s1, _, _ := m.Authenticate(context.Background(), "alice", "s3cret")
	s2, _, _ := m.Authenticate(context.Background(), "alice", "s3cret")

	p, err := m.Validate(context.Background(), s1.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := m.ChangePassword(context.Background(), p, "s3cret", "n3wpass"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	for _, tok := range []string{s1.Token, s2.Token} {
		if _, err := m.Validate(context.Background(), tok); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("token %q survived password change: err = %v", tok, err)
		}
	}
	if _, _, err := m.Authenticate(context.Background(), "alice", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still works: err = %v", err)
	}
	if _, _, err := m.Authenticate(context.Background(), "alice", "n3wpass"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestChangePasswordGuards(t *testing.T) {
	m, users, _, cfg := newTestManager(t)
	createTestUser(t, users, cfg, "alice", "s3cret", true)
	s1, _, _ := m.Authenticate(context.Background(), "alice", "s3cret")
	p, err := m.Validate(context.Background(), s1.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	if err := m.ChangePassword(context.Background(), p, "wrong", "n3wpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong current: err = %v", err)
	}
	if err := m.ChangePassword(context.Background(), p, "s3cret", "abc"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("weak new: err = %v", err)
	}
	// Failed attempts must not touch the session.
	if _, err := m.Validate(context.Background(), s1.Token); err != nil {
		t.Fatalf("session lost after failed change: %v", err)
	}
}
