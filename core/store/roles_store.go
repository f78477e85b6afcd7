package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid/v5"
)

type RolesStore interface {
	List(ctx context.Context) ([]Role, error)
	ListByAppType(ctx context.Context, appType string) ([]Role, error)
	// FindByName looks up a role within its app_type scope; an empty
	// appType addresses system roles.
	FindByName(ctx context.Context, name, appType string) (*Role, error)
	FindByID(ctx context.Context, id string) (*Role, error)
	Create(ctx context.Context, role *Role) error
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, id string) error
	// ApplySyncPlan inserts and updates synced roles in one transaction.
	ApplySyncPlan(ctx context.Context, inserts, updates []Role) error
	EnsureBuiltIn(ctx context.Context, roles []Role) error
	Count(ctx context.Context) (int, error)
}

type rolesStore struct {
	db *sql.DB
}

func NewRolesStore(db *sql.DB) RolesStore {
	return &rolesStore{db: db}
}

const roleColumns = `id, name, description, permissions, app_type, external_id, is_synced, created_at, updated_at`

func (s *rolesStore) List(ctx context.Context) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY app_type, name`)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

func (s *rolesStore) ListByAppType(ctx context.Context, appType string) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE app_type=? ORDER BY name`, appType)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

func collectRoles(rows *sql.Rows) ([]Role, error) {
	defer rows.Close()
	var res []Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *r)
	}
	return res, rows.Err()
}

func scanRole(row rowScanner) (*Role, error) {
	var r Role
	var permsRaw string
	var isSynced int
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &permsRaw, &r.AppType, &r.ExternalID, &isSynced, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	_ = json.Unmarshal([]byte(permsRaw), &r.Permissions)
	r.IsSynced = isSynced == 1
	return &r, nil
}

func (s *rolesStore) FindByName(ctx context.Context, name, appType string) (*Role, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE name=? AND app_type=?`, name, appType)
	return scanRole(row)
}

func (s *rolesStore) FindByID(ctx context.Context, id string) (*Role, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE id=?`, id)
	return scanRole(row)
}

func (s *rolesStore) Create(ctx context.Context, role *Role) error {
	now := time.Now().UTC()
	if role.ID == "" {
		role.ID = uuid.Must(uuid.NewV4()).String()
	}
	role.CreatedAt = now
	role.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `INSERT INTO roles(id, name, description, permissions, app_type, external_id, is_synced, created_at, updated_at) VALUES(?,?,?,?,?,?,?,?,?)`,
		role.ID, role.Name, role.Description, listToJSON(role.Permissions), role.AppType, role.ExternalID, boolToInt(role.IsSynced), now, now)
	return err
}

func (s *rolesStore) Update(ctx context.Context, role *Role) error {
	res, err := s.db.ExecContext(ctx, `UPDATE roles SET description=?, permissions=?, external_id=?, updated_at=? WHERE id=?`,
		role.Description, listToJSON(role.Permissions), role.ExternalID, time.Now().UTC(), role.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *rolesStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM roles WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *rolesStore) ApplySyncPlan(ctx context.Context, inserts, updates []Role) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, r := range inserts {
		id := r.ID
		if id == "" {
			id = uuid.Must(uuid.NewV4()).String()
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO roles(id, name, description, permissions, app_type, external_id, is_synced, created_at, updated_at) VALUES(?,?,?,?,?,?,1,?,?)`,
			id, r.Name, r.Description, listToJSON(r.Permissions), r.AppType, r.ExternalID, now, now); err != nil {
			tx.Rollback()
			return err
		}
	}
	for _, r := range updates {
		if _, err := tx.ExecContext(ctx, `UPDATE roles SET description=?, permissions=?, external_id=?, updated_at=? WHERE id=? AND is_synced=1`,
			r.Description, listToJSON(r.Permissions), r.ExternalID, now, r.ID); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *rolesStore) EnsureBuiltIn(ctx context.Context, roles []Role) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, r := range roles {
		var id string
		err := tx.QueryRowContext(ctx, `SELECT id FROM roles WHERE name=? AND app_type=?`, r.Name, r.AppType).Scan(&id)
		if err != nil {
			if err == sql.ErrNoRows {
				now := time.Now().UTC()
				if _, err := tx.ExecContext(ctx, `INSERT INTO roles(id, name, description, permissions, app_type, external_id, is_synced, created_at, updated_at) VALUES(?,?,?,?,?,?,0,?,?)`,
					uuid.Must(uuid.NewV4()).String(), r.Name, r.Description, listToJSON(r.Permissions), r.AppType, r.ExternalID, now, now); err != nil {
					tx.Rollback()
					return err
				}
				continue
			}
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *rolesStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM roles`).Scan(&n)
	return n, err
}
