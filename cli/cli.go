// Package cli implements the administrative subcommands of the server
// binary.
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"unified-console/config"
	"unified-console/core/auth"
	"unified-console/core/catalog"
	"unified-console/core/store"
	"unified-console/core/utils"
)

func Run(ctx context.Context, args []string, cfg *config.AppConfig, users store.UsersStore, logger *utils.Logger) {
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	switch args[0] {
	case "create-user":
		createUser(ctx, args[1:], cfg, users, logger)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  unified-console                    run the server
  unified-console create-user ...    create a user account`)
}

func createUser(ctx context.Context, args []string, cfg *config.AppConfig, users store.UsersStore, logger *utils.Logger) {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	username := fs.String("username", "", "login name")
	password := fs.String("password", "", "initial password")
	email := fs.String("email", "", "email address")
	admin := fs.Bool("admin", false, "grant administrator rights")
	modules := fs.String("modules", "", "comma separated module access, e.g. XDR,GSOS")
	fs.Parse(args)

	if err := utils.ValidateUsername(*username); err != nil {
		logger.Fatalf("create-user: %v", err)
	}
	if err := utils.ValidatePassword(*password); err != nil {
		logger.Fatalf("create-user: %v", err)
	}
	var access []string
	for _, m := range strings.Split(*modules, ",") {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, err := catalog.ParseModule(m); err != nil {
			logger.Fatalf("create-user: %v", err)
		}
		access = append(access, m)
	}

	existing, err := users.FindByUsername(ctx, *username)
	if err != nil {
		logger.Fatalf("create-user: %v", err)
	}
	if existing != nil {
		logger.Fatalf("create-user: username %q already taken", *username)
	}

	ph, err := auth.HashPassword(*password, cfg.Pepper)
	if err != nil {
		logger.Fatalf("create-user: %v", err)
	}
	user := &store.User{
		Username:     *username,
		Email:        *email,
		PasswordHash: ph.Hash,
		Salt:         ph.Salt,
		IsAdmin:      *admin,
		IsActive:     true,
		ModuleAccess: access,
	}
	if err := users.Create(ctx, user); err != nil {
		logger.Fatalf("create-user: %v", err)
	}
	logger.Printf("created user %q (admin=%v)", user.Username, user.IsAdmin)
}
