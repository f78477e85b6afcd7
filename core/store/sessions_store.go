package store

import (
	"context"
	"database/sql"
	"time"
)

type SessionsStore interface {
	Save(ctx context.Context, sess *SessionRecord) error
	// Get returns nil, nil for unknown and expired tokens; expired rows are
	// deleted lazily on read.
	Get(ctx context.Context, token string) (*SessionRecord, error)
	Delete(ctx context.Context, token string) error
	DeleteAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountActive(ctx context.Context, now time.Time) (int, error)
}

type sessionsStore struct {
	db *sql.DB
}

func NewSessionsStore(db *sql.DB) SessionsStore {
	return &sessionsStore{db: db}
}

func (s *sessionsStore) Save(ctx context.Context, sess *SessionRecord) error {
	if sess.IssuedAt.IsZero() {
		sess.IssuedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO sessions(token, user_id, issued_at, expires_at) VALUES(?,?,?,?)`,
		sess.Token, sess.UserID, sess.IssuedAt, sess.ExpiresAt)
	return err
}

func (s *sessionsStore) Get(ctx context.Context, token string) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT token, user_id, issued_at, expires_at FROM sessions WHERE token=?`, token)
	var sr SessionRecord
	if err := row.Scan(&sr.Token, &sr.UserID, &sr.IssuedAt, &sr.ExpiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if time.Now().After(sr.ExpiresAt) {
		_ = s.Delete(ctx, token)
		return nil, nil
	}
	return &sr, nil
}

func (s *sessionsStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token=?`, token)
	return err
}

func (s *sessionsStore) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id=?`, userID)
	return err
}

func (s *sessionsStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *sessionsStore) CountActive(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sessions WHERE expires_at > ?`, now).Scan(&n)
	return n, err
}
