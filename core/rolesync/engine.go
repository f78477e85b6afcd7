package rolesync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"unified-console/config"
	"unified-console/core/netguard"
	"unified-console/core/store"
	"unified-console/core/utils"
)

// Result summarizes one completed sync run. SyncedRoles is the number
// of roles the run actually wrote, created plus updated.
type Result struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	SyncedRoles int    `json:"synced_roles"`
	Created     int    `json:"created"`
	Updated     int    `json:"updated"`
	Skipped     int    `json:"skipped"`
}

// Engine runs role synchronization against integrated applications.
// At most one run per application is in flight at any time.
type Engine struct {
	apps       store.ApplicationsStore
	roles      store.RolesStore
	audit      store.AuditStore
	encryptor  *utils.Encryptor
	cfg        *config.AppConfig
	logger     *utils.Logger
	client     *http.Client
	adapterFor func(appType string, client *http.Client, policy netguard.Policy) RoleLister
	metrics    *metrics

	mu       sync.Mutex
	inflight map[string]bool
}

func NewEngine(apps store.ApplicationsStore, roles store.RolesStore, audit store.AuditStore, enc *utils.Encryptor, cfg *config.AppConfig, logger *utils.Logger) *Engine {
	return &Engine{
		apps:       apps,
		roles:      roles,
		audit:      audit,
		encryptor:  enc,
		cfg:        cfg,
		logger:     logger,
		client:     &http.Client{},
		adapterFor: AdapterFor,
		metrics:    newMetrics(),
		inflight:   make(map[string]bool),
	}
}

// Sync pulls roles for one application and merges them into the role
// table. actor is recorded in the audit trail.
func (e *Engine) Sync(ctx context.Context, appID, actor string) (*Result, error) {
	if !e.acquire(appID) {
		return nil, ErrSyncInProgress
	}
	defer e.release(appID)

	app, err := e.apps.Get(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound
	}
	if !app.SyncRoles || !app.IsActive {
		return nil, ErrSyncNotPermitted
	}
	adapter := e.adapterFor(app.AppType, e.client, e.upstreamPolicy())
	if adapter == nil {
		return nil, fmt.Errorf("%w: %s has no role source", ErrSyncNotPermitted, app.AppType)
	}

	creds, err := e.decryptCredentials(app)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	res, err := e.run(ctx, app, adapter, creds)
	e.metrics.duration.Observe(time.Since(started).Seconds())
	if err != nil {
		e.metrics.runs.WithLabelValues(app.AppType, "failure").Inc()
		e.auditLog(ctx, actor, "role_sync_failed", fmt.Sprintf("app=%s error=%v", app.AppName, err))
		return nil, err
	}
	e.metrics.runs.WithLabelValues(app.AppType, "success").Inc()
	e.metrics.rolesUp.WithLabelValues("created").Add(float64(res.Created))
	e.metrics.rolesUp.WithLabelValues("updated").Add(float64(res.Updated))
	e.metrics.rolesUp.WithLabelValues("skipped").Add(float64(res.Skipped))
	e.auditLog(ctx, actor, "role_sync", fmt.Sprintf("app=%s created=%d updated=%d skipped=%d", app.AppName, res.Created, res.Updated, res.Skipped))
	return res, nil
}

func (e *Engine) run(ctx context.Context, app *store.Application, adapter RoleLister, creds Credentials) (*Result, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.EffectiveSyncTimeout())
	defer cancel()

	external, err := adapter.ListRoles(fetchCtx, app, creds)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrSyncTimeout
		}
		return nil, err
	}

	existing, err := e.roles.ListByAppType(ctx, app.AppType)
	if err != nil {
		return nil, err
	}
	plan := PlanMerge(existing, app.AppType, external)
	if err := e.roles.ApplySyncPlan(ctx, plan.Inserts, plan.Updates); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := e.apps.SetLastRoleSync(ctx, app.ID, now); err != nil {
		return nil, err
	}
	return &Result{
		Success:     true,
		Message:     fmt.Sprintf("synchronized %d roles from %s", len(external), app.AppName),
		SyncedRoles: len(plan.Inserts) + len(plan.Updates),
		Created:     len(plan.Inserts),
		Updated:     len(plan.Updates),
		Skipped:     len(plan.Skipped),
	}, nil
}

// directory resolves an application to its user-provisioning adapter.
// Unlike Sync it does not require the sync_roles flag, only an active
// application whose adapter can manage accounts.
func (e *Engine) directory(ctx context.Context, appID string) (*store.Application, UserDirectory, Credentials, error) {
	app, err := e.apps.Get(ctx, appID)
	if err != nil {
		return nil, nil, Credentials{}, err
	}
	if app == nil {
		return nil, nil, Credentials{}, ErrNotFound
	}
	if !app.IsActive {
		return nil, nil, Credentials{}, ErrAppInactive
	}
	adapter := e.adapterFor(app.AppType, e.client, e.upstreamPolicy())
	dir, ok := adapter.(UserDirectory)
	if adapter == nil || !ok {
		return nil, nil, Credentials{}, fmt.Errorf("%w: %s", ErrUnsupported, app.AppType)
	}
	creds, err := e.decryptCredentials(app)
	if err != nil {
		return nil, nil, Credentials{}, err
	}
	return app, dir, creds, nil
}

// ListExternalUsers proxies the account list of an integrated
// application.
func (e *Engine) ListExternalUsers(ctx context.Context, appID string) ([]ExternalUser, error) {
	app, dir, creds, err := e.directory(ctx, appID)
	if err != nil {
		return nil, err
	}
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.EffectiveSyncTimeout())
	defer cancel()
	users, err := dir.ListUsers(fetchCtx, app, creds)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, ErrSyncTimeout
	}
	return users, err
}

// CreateExternalUser provisions an account inside an integrated
// application and records the actor in the audit trail.
func (e *Engine) CreateExternalUser(ctx context.Context, appID, actor string, nu NewExternalUser) (*ExternalUser, error) {
	app, dir, creds, err := e.directory(ctx, appID)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.EffectiveSyncTimeout())
	defer cancel()
	created, err := dir.CreateUser(callCtx, app, creds, nu)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrSyncTimeout
		}
		return nil, err
	}
	e.auditLog(ctx, actor, "external_user_created", fmt.Sprintf("app=%s username=%s", app.AppName, created.Username))
	return created, nil
}

// AssignExternalRole grants an upstream role to an upstream account.
func (e *Engine) AssignExternalRole(ctx context.Context, appID, actor string, userID int, roleExternalID string) error {
	app, dir, creds, err := e.directory(ctx, appID)
	if err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.EffectiveSyncTimeout())
	defer cancel()
	if err := dir.AssignRole(callCtx, app, creds, userID, roleExternalID); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrSyncTimeout
		}
		return err
	}
	e.auditLog(ctx, actor, "external_role_assigned", fmt.Sprintf("app=%s user=%d role=%s", app.AppName, userID, roleExternalID))
	return nil
}

func (e *Engine) decryptCredentials(app *store.Application) (Credentials, error) {
	var creds Credentials
	creds.Username = app.Username
	if len(app.PasswordEnc) > 0 {
		pw, err := e.encryptor.DecryptBlob(app.PasswordEnc)
		if err != nil {
			return creds, fmt.Errorf("decrypt application password: %w", err)
		}
		creds.Password = string(pw)
	}
	if len(app.APIKeyEnc) > 0 {
		key, err := e.encryptor.DecryptBlob(app.APIKeyEnc)
		if err != nil {
			return creds, fmt.Errorf("decrypt application api key: %w", err)
		}
		creds.APIKey = string(key)
	}
	return creds, nil
}

func (e *Engine) upstreamPolicy() netguard.Policy {
	return netguard.Policy{
		AllowPrivate:  e.cfg.Security.AllowPrivateUpstreams,
		AllowLoopback: e.cfg.Security.AllowLoopbackUpstreams,
	}
}

func (e *Engine) acquire(appID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight[appID] {
		return false
	}
	e.inflight[appID] = true
	return true
}

func (e *Engine) release(appID string) {
	e.mu.Lock()
	delete(e.inflight, appID)
	e.mu.Unlock()
}

func (e *Engine) auditLog(ctx context.Context, actor, action, details string) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Log(ctx, actor, action, details); err != nil && e.logger != nil {
		e.logger.Errorf("audit write failed: %v", err)
	}
}
