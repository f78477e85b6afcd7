package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofrs/uuid/v5"
)

type ApplicationsStore interface {
	Create(ctx context.Context, app *Application) error
	Get(ctx context.Context, id string) (*Application, error)
	List(ctx context.Context) ([]Application, error)
	ListByModule(ctx context.Context, module string) ([]Application, error)
	Update(ctx context.Context, app *Application) error
	Delete(ctx context.Context, id string) error
	SetLastRoleSync(ctx context.Context, id string, ts time.Time) error
}

type applicationsStore struct {
	db *sql.DB
}

func NewApplicationsStore(db *sql.DB) ApplicationsStore {
	return &applicationsStore{db: db}
}

const appColumns = `id, app_name, app_type, module, redirect_url, description, ip, default_port, username, password_enc, api_key_enc, sync_roles, is_active, last_role_sync, created_at, updated_at`

func (s *applicationsStore) Create(ctx context.Context, app *Application) error {
	now := time.Now().UTC()
	if app.ID == "" {
		app.ID = uuid.Must(uuid.NewV4()).String()
	}
	app.CreatedAt = now
	app.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications(id, app_name, app_type, module, redirect_url, description, ip, default_port, username, password_enc, api_key_enc, sync_roles, is_active, last_role_sync, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		app.ID, app.AppName, app.AppType, app.Module, app.RedirectURL, app.Description,
		app.IP, app.DefaultPort, app.Username, app.PasswordEnc, app.APIKeyEnc,
		boolToInt(app.SyncRoles), boolToInt(app.IsActive), nullableTime(app.LastRoleSync), now, now)
	return err
}

func (s *applicationsStore) Get(ctx context.Context, id string) (*Application, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+appColumns+` FROM applications WHERE id=?`, id)
	return scanApplication(row)
}

func scanApplication(row rowScanner) (*Application, error) {
	a := Application{}
	var syncRoles, isActive int
	var lastSync sql.NullTime
	if err := row.Scan(
		&a.ID, &a.AppName, &a.AppType, &a.Module, &a.RedirectURL, &a.Description,
		&a.IP, &a.DefaultPort, &a.Username, &a.PasswordEnc, &a.APIKeyEnc,
		&syncRoles, &isActive, &lastSync, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	a.SyncRoles = syncRoles == 1
	a.IsActive = isActive == 1
	a.HasPassword = len(a.PasswordEnc) > 0
	a.HasAPIKey = len(a.APIKeyEnc) > 0
	if lastSync.Valid {
		a.LastRoleSync = &lastSync.Time
	}
	return &a, nil
}

func (s *applicationsStore) List(ctx context.Context) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+appColumns+` FROM applications ORDER BY app_name`)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

func (s *applicationsStore) ListByModule(ctx context.Context, module string) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+appColumns+` FROM applications WHERE module=? ORDER BY app_name`, module)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

func collectApplications(rows *sql.Rows) ([]Application, error) {
	defer rows.Close()
	var res []Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *a)
	}
	return res, rows.Err()
}

func (s *applicationsStore) Update(ctx context.Context, app *Application) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE applications
		SET app_name=?, app_type=?, module=?, redirect_url=?, description=?, ip=?, default_port=?, username=?, password_enc=?, api_key_enc=?, sync_roles=?, is_active=?, updated_at=?
		WHERE id=?`,
		app.AppName, app.AppType, app.Module, app.RedirectURL, app.Description,
		app.IP, app.DefaultPort, app.Username, app.PasswordEnc, app.APIKeyEnc,
		boolToInt(app.SyncRoles), boolToInt(app.IsActive), time.Now().UTC(), app.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the registration only. Synced roles outlive the
// application on purpose.
func (s *applicationsStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM applications WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *applicationsStore) SetLastRoleSync(ctx context.Context, id string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE applications SET last_role_sync=?, updated_at=? WHERE id=?`, ts, ts, id)
	return err
}
