package rolesync

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"unified-console/config"
	"unified-console/core/netguard"
	"unified-console/core/store"
	"unified-console/core/utils"
)

func newTestEngine(t *testing.T) (*Engine, store.ApplicationsStore, store.RolesStore) {
	t.Helper()
	cfg := &config.AppConfig{
		DBDriver:      "sqlite",
		DBPath:        filepath.Join(t.TempDir(), "test.db"),
		Pepper:        "test-pepper",
		EncryptionKey: "0123456789abcdef0123456789abcdef",
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
	apps := store.NewApplicationsStore(db)
	roles := store.NewRolesStore(db)
	audit := store.NewAuditStore(db)
	enc, err := utils.NewEncryptorFromString(cfg.EncryptionKey)
	if err != nil {
		t.Fatalf("encryptor: %v", err)
	}
	return NewEngine(apps, roles, audit, enc, cfg, logger), apps, roles
}

func newTestApp(t *testing.T, apps store.ApplicationsStore, syncRoles, active bool) *store.Application {
	t.Helper()
	app := &store.Application{
		AppName:     "dojo",
		AppType:     "DefectDojo",
		Module:      "XDR",
		RedirectURL: "http://dojo.local:8080",
		SyncRoles:   syncRoles,
		IsActive:    active,
	}
	if err := apps.Create(context.Background(), app); err != nil {
		t.Fatalf("create app: %v", err)
	}
	return app
}

type fakeAdapter struct {
	roles []ExternalRole
	err   error
	block chan struct{}
}

func (f *fakeAdapter) ListRoles(ctx context.Context, app *store.Application, creds Credentials) ([]ExternalRole, error) {
	if f.block != nil {
		<-f.block
	}
	return f.roles, f.err
}

func useAdapter(e *Engine, a RoleLister) {
	e.adapterFor = func(string, *http.Client, netguard.Policy) RoleLister { return a }
}

func TestSyncUnknownApplication(t *testing.T) {
	e, _, _ := newTestEngine(t)
	if _, err := e.Sync(context.Background(), "no-such-id", "tester"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSyncNotPermitted(t *testing.T) {
	e, apps, _ := newTestEngine(t)
	useAdapter(e, &fakeAdapter{})

	noSync := newTestApp(t, apps, false, true)
	if _, err := e.Sync(context.Background(), noSync.ID, "tester"); !errors.Is(err, ErrSyncNotPermitted) {
		t.Fatalf("sync_roles=false: err = %v, want ErrSyncNotPermitted", err)
	}

	inactive := &store.Application{AppName: "dojo2", AppType: "DefectDojo", Module: "XDR", RedirectURL: "http://x.local", SyncRoles: true, IsActive: false}
	if err := apps.Create(context.Background(), inactive); err != nil {
		t.Fatalf("create app: %v", err)
	}
	if _, err := e.Sync(context.Background(), inactive.ID, "tester"); !errors.Is(err, ErrSyncNotPermitted) {
		t.Fatalf("inactive: err = %v, want ErrSyncNotPermitted", err)
	}
}

func TestSyncNoAdapterForAppType(t *testing.T) {
	e, apps, _ := newTestEngine(t)
	app := &store.Application{AppName: "hive", AppType: "TheHive", Module: "XDR", RedirectURL: "http://hive.local", SyncRoles: true, IsActive: true}
	if err := apps.Create(context.Background(), app); err != nil {
		t.Fatalf("create app: %v", err)
	}
	if _, err := e.Sync(context.Background(), app.ID, "tester"); !errors.Is(err, ErrSyncNotPermitted) {
		t.Fatalf("err = %v, want ErrSyncNotPermitted", err)
	}
}

func TestSyncSingleFlightPerApplication(t *testing.T) {
	e, apps, _ := newTestEngine(t)
	app := newTestApp(t, apps, true, true)

	block := make(chan struct{})
	useAdapter(e, &fakeAdapter{block: block})

	done := make(chan error, 1)
	go func() {
		_, err := e.Sync(context.Background(), app.ID, "tester")
		done <- err
	}()

	// Wait for the first run to take the slot.
	for {
		e.mu.Lock()
		taken := e.inflight[app.ID]
		e.mu.Unlock()
		if taken {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := e.Sync(context.Background(), app.ID, "tester"); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("concurrent sync: err = %v, want ErrSyncInProgress", err)
	}
	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first sync: %v", err)
	}

	// The slot is free again after completion.
	if _, err := e.Sync(context.Background(), app.ID, "tester"); err != nil {
		t.Fatalf("follow-up sync: %v", err)
	}
}

func TestSyncTimeoutMapping(t *testing.T) {
	e, apps, _ := newTestEngine(t)
	app := newTestApp(t, apps, true, true)
	useAdapter(e, &fakeAdapter{err: context.DeadlineExceeded})

	_, err := e.Sync(context.Background(), app.ID, "tester")
	if !errors.Is(err, ErrSyncTimeout) {
		t.Fatalf("err = %v, want ErrSyncTimeout", err)
	}

	got, err := apps.Get(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("get app: %v", err)
	}
	if got.LastRoleSync != nil {
		t.Fatalf("last_role_sync must stay unset after a failed run")
	}
}

func TestSyncMergesAndStampsSuccess(t *testing.T) {
	e, apps, roles := newTestEngine(t)
	app := newTestApp(t, apps, true, true)

	manual := &store.Role{Name: "Reader", AppType: "DefectDojo", Description: "hand made", IsSynced: false}
	if err := roles.Create(context.Background(), manual); err != nil {
		t.Fatalf("create manual role: %v", err)
	}

	useAdapter(e, &fakeAdapter{roles: []ExternalRole{
		{ExternalID: "1", Name: "Reader", Description: "from upstream"},
		{ExternalID: "2", Name: "Maintainer", Description: "from upstream"},
	}})

	res, err := e.Sync(context.Background(), app.ID, "tester")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Created != 1 || res.Updated != 0 || res.Skipped != 1 {
		t.Fatalf("result = %+v", res)
	}
	if res.SyncedRoles != res.Created+res.Updated {
		t.Fatalf("synced_roles = %d, want %d", res.SyncedRoles, res.Created+res.Updated)
	}

	kept, err := roles.FindByName(context.Background(), "Reader", "DefectDojo")
	if err != nil {
		t.Fatalf("find manual role: %v", err)
	}
	if kept.Description != "hand made" || kept.IsSynced {
		t.Fatalf("manual role was overwritten: %+v", kept)
	}

	added, err := roles.FindByName(context.Background(), "Maintainer", "DefectDojo")
	if err != nil {
		t.Fatalf("find synced role: %v", err)
	}
	if added == nil || !added.IsSynced {
		t.Fatalf("synced role missing or unmarked: %+v", added)
	}

	got, err := apps.Get(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("get app: %v", err)
	}
	if got.LastRoleSync == nil {
		t.Fatalf("last_role_sync not stamped on success")
	}
}

type fakeDirectory struct {
	fakeAdapter
	users    []ExternalUser
	created  []NewExternalUser
	assigned []string
}

func (f *fakeDirectory) ListUsers(ctx context.Context, app *store.Application, creds Credentials) ([]ExternalUser, error) {
	return f.users, f.err
}

func (f *fakeDirectory) CreateUser(ctx context.Context, app *store.Application, creds Credentials, nu NewExternalUser) (*ExternalUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, nu)
	return &ExternalUser{ExternalID: 42, Username: nu.Username, Email: nu.Email, IsActive: true}, nil
}

func (f *fakeDirectory) AssignRole(ctx context.Context, app *store.Application, creds Credentials, userID int, roleExternalID string) error {
	if f.err != nil {
		return f.err
	}
	f.assigned = append(f.assigned, roleExternalID)
	return nil
}

func TestExternalUsersRequireActiveSupportedApp(t *testing.T) {
	e, apps, _ := newTestEngine(t)
	useAdapter(e, &fakeDirectory{})

	if _, err := e.ListExternalUsers(context.Background(), "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown app: err = %v, want ErrNotFound", err)
	}

	inactive := newTestApp(t, apps, false, false)
	if _, err := e.ListExternalUsers(context.Background(), inactive.ID); !errors.Is(err, ErrAppInactive) {
		t.Fatalf("inactive app: err = %v, want ErrAppInactive", err)
	}

	// An adapter without account management cannot serve user calls.
	rolesOnly := &store.Application{AppName: "dojo3", AppType: "DefectDojo", Module: "XDR", RedirectURL: "http://x.local", IsActive: true}
	if err := apps.Create(context.Background(), rolesOnly); err != nil {
		t.Fatalf("create app: %v", err)
	}
	useAdapter(e, &fakeAdapter{})
	if _, err := e.ListExternalUsers(context.Background(), rolesOnly.ID); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("roles-only adapter: err = %v, want ErrUnsupported", err)
	}
}

func TestExternalUserProvisioning(t *testing.T) {
	e, apps, _ := newTestEngine(t)
	app := newTestApp(t, apps, false, true)
	dir := &fakeDirectory{users: []ExternalUser{{ExternalID: 7, Username: "analyst"}}}
	useAdapter(e, dir)

	users, err := e.ListExternalUsers(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].Username != "analyst" {
		t.Fatalf("users = %+v", users)
	}

	created, err := e.CreateExternalUser(context.Background(), app.ID, "tester", NewExternalUser{Username: "newbie", Email: "n@x.local"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.ExternalID != 42 || created.Username != "newbie" {
		t.Fatalf("created = %+v", created)
	}

	if err := e.AssignExternalRole(context.Background(), app.ID, "tester", created.ExternalID, "3"); err != nil {
		t.Fatalf("assign role: %v", err)
	}
	if len(dir.assigned) != 1 || dir.assigned[0] != "3" {
		t.Fatalf("assigned = %v", dir.assigned)
	}
}

func TestExternalUserTimeoutMapping(t *testing.T) {
	e, apps, _ := newTestEngine(t)
	app := newTestApp(t, apps, false, true)
	useAdapter(e, &fakeDirectory{fakeAdapter: fakeAdapter{err: context.DeadlineExceeded}})

	if _, err := e.ListExternalUsers(context.Background(), app.ID); !errors.Is(err, ErrSyncTimeout) {
		t.Fatalf("err = %v, want ErrSyncTimeout", err)
	}
}
