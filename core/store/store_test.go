package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"unified-console/config"
	"unified-console/core/utils"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.AppConfig{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
	}
	logger := utils.NewLogger()
	db, err := NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := ApplyMigrations(context.Background(), db, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return db
}

func TestUsersRoundTrip(t *testing.T) {
	db := newTestDB(t)
	users := NewUsersStore(db)
	ctx := context.Background()

	u := &User{
		Username:     "alice",
		Email:        "alice@example.com",
		FirstName:    "Alice",
		LastName:     "Smith",
		PasswordHash: "hash",
		Salt:         "salt",
		IsAdmin:      true,
		IsActive:     true,
		ModuleAccess: []string{"XDR", "GSOS"},
		Roles:        []string{"Admin"},
	}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("no id assigned")
	}

	got, err := users.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || got.ID != u.ID || !got.IsAdmin || !got.IsActive {
		t.Fatalf("got = %+v", got)
	}
	if !reflect.DeepEqual(got.ModuleAccess, []string{"XDR", "GSOS"}) {
		t.Fatalf("module access = %v", got.ModuleAccess)
	}

	if missing, err := users.FindByUsername(ctx, "nobody"); err != nil || missing != nil {
		t.Fatalf("unknown user: %+v %v", missing, err)
	}
}

func TestUsersDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	users := NewUsersStore(db)
	ctx := context.Background()

	a := &User{Username: "alice", PasswordHash: "h", Salt: "s", IsActive: true}
	if err := users.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	b := &User{Username: "alice", PasswordHash: "h", Salt: "s", IsActive: true}
	if err := users.Create(ctx, b); err == nil {
		t.Fatalf("duplicate username accepted")
	}
}

func TestUsersUpdateDoesNotTouchCredentials(t *testing.T) {
	db := newTestDB(t)
	users := NewUsersStore(db)
	ctx := context.Background()

	u := &User{Username: "alice", PasswordHash: "h1", Salt: "s1", IsActive: true}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	u.Email = "new@example.com"
	u.PasswordHash = "tampered"
	if err := users.Update(ctx, u); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := users.Get(ctx, u.ID)
	if got.Email != "new@example.com" {
		t.Fatalf("email not updated: %+v", got)
	}
	if got.PasswordHash != "h1" {
		t.Fatalf("password hash changed through Update")
	}
}

func TestUpdatePasswordRevokesSessions(t *testing.T) {
	db := newTestDB(t)
	users := NewUsersStore(db)
	sessions := NewSessionsStore(db)
	ctx := context.Background()

	u := &User{Username: "alice", PasswordHash: "h1", Salt: "s1", IsActive: true}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	now := time.Now().UTC()
	for _, tok := range []string{"t1", "t2"} {
		if err := sessions.Save(ctx, &SessionRecord{Token: tok, UserID: u.ID, IssuedAt: now, ExpiresAt: now.Add(time.Hour)}); err != nil {
			t.Fatalf("save session: %v", err)
		}
	}

	if err := users.UpdatePassword(ctx, u.ID, "h2", "s2"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	for _, tok := range []string{"t1", "t2"} {
		if got, err := sessions.Get(ctx, tok); err != nil || got != nil {
			t.Fatalf("session %q survived: %+v %v", tok, got, err)
		}
	}
	got, _ := users.Get(ctx, u.ID)
	if got.PasswordHash != "h2" || got.Salt != "s2" {
		t.Fatalf("credentials not rotated: %+v", got)
	}
}

func TestSessionsExpiry(t *testing.T) {
	db := newTestDB(t)
	users := NewUsersStore(db)
	sessions := NewSessionsStore(db)
	ctx := context.Background()

	u := &User{Username: "alice", PasswordHash: "h", Salt: "s", IsActive: true}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	now := time.Now().UTC()
	live := &SessionRecord{Token: "live", UserID: u.ID, IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
	dead := &SessionRecord{Token: "dead", UserID: u.ID, IssuedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	for _, s := range []*SessionRecord{live, dead} {
		if err := sessions.Save(ctx, s); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	if got, err := sessions.Get(ctx, "dead"); err != nil || got != nil {
		t.Fatalf("expired session returned: %+v %v", got, err)
	}
	if got, err := sessions.Get(ctx, "live"); err != nil || got == nil {
		t.Fatalf("live session missing: %v", err)
	}
	if n, err := sessions.CountActive(ctx, now); err != nil || n != 1 {
		t.Fatalf("active count = %d, %v", n, err)
	}

	n, err := sessions.DeleteExpired(ctx, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept %d rows, want 1", n)
	}
}

func TestApplicationsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	apps := NewApplicationsStore(db)
	ctx := context.Background()

	app := &Application{
		AppName:     "dojo",
		AppType:     "DefectDojo",
		Module:      "XDR",
		RedirectURL: "https://dojo.local:8443",
		Username:    "svc",
		PasswordEnc: []byte{1, 2, 3},
		APIKeyEnc:   []byte{4, 5, 6},
		SyncRoles:   true,
		IsActive:    true,
	}
	if err := apps.Create(ctx, app); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := apps.Get(ctx, app.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AppName != "dojo" || !got.SyncRoles || got.LastRoleSync != nil {
		t.Fatalf("got = %+v", got)
	}
	if !reflect.DeepEqual(got.PasswordEnc, []byte{1, 2, 3}) || !reflect.DeepEqual(got.APIKeyEnc, []byte{4, 5, 6}) {
		t.Fatalf("blobs mangled: %+v", got)
	}

	byModule, err := apps.ListByModule(ctx, "XDR")
	if err != nil || len(byModule) != 1 {
		t.Fatalf("by module: %d %v", len(byModule), err)
	}
	if empty, err := apps.ListByModule(ctx, "GSOS"); err != nil || len(empty) != 0 {
		t.Fatalf("unexpected GSOS apps: %d %v", len(empty), err)
	}

	ts := time.Now().UTC().Truncate(time.Second)
	if err := apps.SetLastRoleSync(ctx, app.ID, ts); err != nil {
		t.Fatalf("set last sync: %v", err)
	}
	got, _ = apps.Get(ctx, app.ID)
	if got.LastRoleSync == nil || !got.LastRoleSync.Equal(ts) {
		t.Fatalf("last sync = %v", got.LastRoleSync)
	}
}

func TestApplicationDeleteLeavesRoles(t *testing.T) {
	db := newTestDB(t)
	apps := NewApplicationsStore(db)
	roles := NewRolesStore(db)
	ctx := context.Background()

	app := &Application{AppName: "dojo", AppType: "DefectDojo", Module: "XDR", RedirectURL: "http://d.local", IsActive: true}
	if err := apps.Create(ctx, app); err != nil {
		t.Fatalf("create app: %v", err)
	}
	if err := roles.Create(ctx, &Role{Name: "Reader", AppType: "DefectDojo", IsSynced: true}); err != nil {
		t.Fatalf("create role: %v", err)
	}

	if err := apps.Delete(ctx, app.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, err := apps.Get(ctx, app.ID); err != nil || got != nil {
		t.Fatalf("app still there: %+v %v", got, err)
	}
	kept, err := roles.FindByName(ctx, "Reader", "DefectDojo")
	if err != nil || kept == nil {
		t.Fatalf("synced role disappeared with its application: %v", err)
	}

	if err := apps.Delete(ctx, app.ID); err != sql.ErrNoRows {
		t.Fatalf("second delete: err = %v, want sql.ErrNoRows", err)
	}
}

func TestRolesEnsureBuiltInIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	roles := NewRolesStore(db)
	ctx := context.Background()

	seed := []Role{{Name: "Admin", Description: "original"}}
	if err := roles.EnsureBuiltIn(ctx, seed); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	got, _ := roles.FindByName(ctx, "Admin", "")
	if got == nil {
		t.Fatalf("seed missing")
	}
	got.Description = "edited by operator"
	if err := roles.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := roles.EnsureBuiltIn(ctx, seed); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	after, _ := roles.FindByName(ctx, "Admin", "")
	if after.Description != "edited by operator" {
		t.Fatalf("seeding overwrote an existing role: %+v", after)
	}
}

func TestApplySyncPlanNeverUpdatesManualRoles(t *testing.T) {
	db := newTestDB(t)
	roles := NewRolesStore(db)
	ctx := context.Background()

	manual := &Role{Name: "Reader", AppType: "DefectDojo", Description: "manual", IsSynced: false}
	if err := roles.Create(ctx, manual); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Even a buggy plan carrying the manual role's id bounces off the
	// is_synced guard.
	tampered := *manual
	tampered.Description = "overwritten"
	if err := roles.ApplySyncPlan(ctx, nil, []Role{tampered}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, _ := roles.FindByID(ctx, manual.ID)
	if got.Description != "manual" {
		t.Fatalf("manual role updated by sync plan: %+v", got)
	}
}

func TestAuditLog(t *testing.T) {
	db := newTestDB(t)
	audit := NewAuditStore(db)
	ctx := context.Background()

	if err := audit.Log(ctx, "alice", "login", ""); err != nil {
		t.Fatalf("log: %v", err)
	}
	if err := audit.Log(ctx, "alice", "role_sync", "app=dojo created=2"); err != nil {
		t.Fatalf("log: %v", err)
	}
	records, err := audit.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}
}

func TestDashboardStats(t *testing.T) {
	db := newTestDB(t)
	users := NewUsersStore(db)
	apps := NewApplicationsStore(db)
	roles := NewRolesStore(db)
	sessions := NewSessionsStore(db)
	dashboard := NewDashboardStore(db)
	ctx := context.Background()

	u := &User{Username: "alice", PasswordHash: "h", Salt: "s", IsActive: true}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	now := time.Now().UTC()
	if err := sessions.Save(ctx, &SessionRecord{Token: "t", UserID: u.ID, IssuedAt: now, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	var lastApp *Application
	for i, module := range []string{"XDR", "XDR", "GSOS"} {
		app := &Application{AppName: fmt.Sprintf("app-%d-%s", i, module), AppType: "Custom", Module: module, RedirectURL: "http://x.local", IsActive: true}
		if err := apps.Create(ctx, app); err != nil {
			t.Fatalf("create app: %v", err)
		}
		lastApp = app
	}
	if err := roles.Create(ctx, &Role{Name: "Reader"}); err != nil {
		t.Fatalf("create role: %v", err)
	}

	stats, err := dashboard.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalApplications != 3 || stats.TotalUsers != 1 || stats.TotalRoles != 1 || stats.ActiveSessions != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.ModuleStats["XDR"] != 2 || stats.ModuleStats["GSOS"] != 1 {
		t.Fatalf("module stats = %v", stats.ModuleStats)
	}
	if stats.LastRoleSync != nil {
		t.Fatalf("last sync should be unset before any run, got %v", stats.LastRoleSync)
	}

	// Stats must keep working once a sync timestamp exists.
	stamp := now.Truncate(time.Second)
	if err := apps.SetLastRoleSync(ctx, lastApp.ID, stamp); err != nil {
		t.Fatalf("set last sync: %v", err)
	}
	stats, err = dashboard.Stats(ctx)
	if err != nil {
		t.Fatalf("stats after sync stamp: %v", err)
	}
	if stats.LastRoleSync == nil || !stats.LastRoleSync.Equal(stamp) {
		t.Fatalf("last sync = %v, want %v", stats.LastRoleSync, stamp)
	}
}
