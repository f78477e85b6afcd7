package bootstrap

import (
	"context"
	"os"
	"strings"

	"unified-console/config"
	"unified-console/core/auth"
	"unified-console/core/catalog"
	"unified-console/core/store"
	"unified-console/core/utils"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin"
)

// EnsureDefaultAdmin creates the built-in admin account and the system
// roles on first start. Existing rows are left untouched.
func EnsureDefaultAdmin(ctx context.Context, users store.UsersStore, roles store.RolesStore, cfg *config.AppConfig, logger *utils.Logger) error {
	if err := roles.EnsureBuiltIn(ctx, builtInRoles()); err != nil {
		return err
	}

	existing, err := users.FindByUsername(ctx, defaultAdminUsername)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	password := strings.TrimSpace(os.Getenv("CONSOLE_ADMIN_PASSWORD"))
	if password == "" {
		password = defaultAdminPassword
		logger.Printf("default admin created with the built-in password, change it immediately")
	}
	ph, err := auth.HashPassword(password, cfg.Pepper)
	if err != nil {
		return err
	}

	modules := make([]string, 0, len(catalog.Modules()))
	for _, m := range catalog.Modules() {
		modules = append(modules, string(m))
	}
	admin := &store.User{
		Username:     defaultAdminUsername,
		Email:        "admin@localhost",
		FirstName:    "Default",
		LastName:     "Administrator",
		PasswordHash: ph.Hash,
		Salt:         ph.Salt,
		IsAdmin:      true,
		IsActive:     true,
		ModuleAccess: modules,
		Roles:        []string{"Admin"},
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	logger.Printf("bootstrap: created default admin user %q", defaultAdminUsername)
	return nil
}

func builtInRoles() []store.Role {
	return []store.Role{
		{Name: "Admin", Description: "Full control over the console", Permissions: []string{"*"}},
		{Name: "User", Description: "Regular console user", Permissions: []string{"view", "launch"}},
		{Name: "Viewer", Description: "Read-only access", Permissions: []string{"view"}},
	}
}
