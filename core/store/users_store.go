package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid/v5"
)

type UsersStore interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	Get(ctx context.Context, userID string) (*User, error)
	Create(ctx context.Context, user *User) error
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user *User) error
	SetActive(ctx context.Context, userID string, active bool) error
	// UpdatePassword replaces the stored hash and destroys every session of
	// the user in the same transaction.
	UpdatePassword(ctx context.Context, userID, hash, salt string) error
	Count(ctx context.Context) (int, error)
}

type usersStore struct {
	db *sql.DB
}

func NewUsersStore(db *sql.DB) UsersStore {
	return &usersStore{db: db}
}

const userColumns = `id, username, email, first_name, last_name, password_hash, salt, is_admin, is_active, module_access, roles, created_at, updated_at`

func (s *usersStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=?`, username)
	return scanUser(row)
}

func (s *usersStore) Get(ctx context.Context, userID string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, userID)
	return scanUser(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	u := User{}
	var isAdmin, isActive int
	var accessRaw, rolesRaw string
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.Salt, &isAdmin, &isActive, &accessRaw, &rolesRaw,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	u.IsAdmin = isAdmin == 1
	u.IsActive = isActive == 1
	if accessRaw != "" {
		_ = json.Unmarshal([]byte(accessRaw), &u.ModuleAccess)
	}
	if rolesRaw != "" {
		_ = json.Unmarshal([]byte(rolesRaw), &u.Roles)
	}
	return &u, nil
}

func (s *usersStore) Create(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.Must(uuid.NewV4()).String()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users(id, username, email, first_name, last_name, password_hash, salt, is_admin, is_active, module_access, roles, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName,
		user.PasswordHash, user.Salt, boolToInt(user.IsAdmin), boolToInt(user.IsActive),
		listToJSON(user.ModuleAccess), listToJSON(user.Roles), now, now)
	return err
}

func (s *usersStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

func (s *usersStore) Update(ctx context.Context, user *User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email=?, first_name=?, last_name=?, is_admin=?, is_active=?, module_access=?, roles=?, updated_at=?
		WHERE id=?`,
		user.Email, user.FirstName, user.LastName, boolToInt(user.IsAdmin), boolToInt(user.IsActive),
		listToJSON(user.ModuleAccess), listToJSON(user.Roles), time.Now().UTC(), user.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *usersStore) SetActive(ctx context.Context, userID string, active bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET is_active=?, updated_at=? WHERE id=?`,
		boolToInt(active), time.Now().UTC(), userID)
	return err
}

func (s *usersStore) UpdatePassword(ctx context.Context, userID, hash, salt string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE users SET password_hash=?, salt=?, updated_at=? WHERE id=?`, hash, salt, now, userID); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id=?`, userID); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *usersStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&n)
	return n, err
}
