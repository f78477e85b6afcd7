package store

import (
	"context"
	"database/sql"
	"time"
)

type DashboardStore interface {
	Stats(ctx context.Context) (*DashboardStats, error)
}

type dashboardStore struct {
	db *sql.DB
}

func NewDashboardStore(db *sql.DB) DashboardStore {
	return &dashboardStore{db: db}
}

func (s *dashboardStore) Stats(ctx context.Context) (*DashboardStats, error) {
	st := &DashboardStats{ModuleStats: map[string]int{}}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM applications`).Scan(&st.TotalApplications); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&st.TotalUsers); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM roles`).Scan(&st.TotalRoles); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sessions WHERE expires_at > ?`, time.Now().UTC()).Scan(&st.ActiveSessions); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT module, COUNT(1) FROM applications GROUP BY module`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var module string
		var n int
		if err := rows.Scan(&module, &n); err != nil {
			return nil, err
		}
		st.ModuleStats[module] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// No aggregate here: the sqlite driver hands MAX() back as text,
	// a plain column select scans as a timestamp on both dialects.
	var last sql.NullTime
	err = s.db.QueryRowContext(ctx, `SELECT last_role_sync FROM applications WHERE last_role_sync IS NOT NULL ORDER BY last_role_sync DESC LIMIT 1`).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if err == nil && last.Valid {
		st.LastRoleSync = &last.Time
	}
	return st, nil
}
