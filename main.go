package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"unified-console/api"
	"unified-console/cli"
	"unified-console/config"
	"unified-console/core/auth"
	"unified-console/core/bootstrap"
	"unified-console/core/rolesync"
	"unified-console/core/store"
	"unified-console/core/utils"
	"unified-console/tasks"
)

func main() {
	logger := utils.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	db, err := store.NewDB(cfg, logger.Named("store"))
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.ApplyMigrations(ctx, db, logger.Named("migrate")); err != nil {
		logger.Fatalf("migrations: %v", err)
	}

	users := store.NewUsersStore(db)
	sessions := store.NewSessionsStore(db)
	apps := store.NewApplicationsStore(db)
	roles := store.NewRolesStore(db)
	audit := store.NewAuditStore(db)
	dashboard := store.NewDashboardStore(db)

	if len(os.Args) > 1 {
		cli.Run(ctx, os.Args[1:], cfg, users, logger)
		return
	}

	if err := bootstrap.EnsureDefaultAdmin(ctx, users, roles, cfg, logger); err != nil {
		logger.Fatalf("bootstrap: %v", err)
	}

	encryptor, err := utils.NewEncryptorFromString(cfg.EncryptionKey)
	if err != nil {
		logger.Fatalf("encryption key: %v", err)
	}

	sessionManager := auth.NewSessionManager(users, sessions, cfg, logger.Named("auth"))
	engine := rolesync.NewEngine(apps, roles, audit, encryptor, cfg, logger.Named("rolesync"))

	sweeper := tasks.NewSweeper(sessions, cfg, logger.Named("tasks"))
	if err := sweeper.Start(); err != nil {
		logger.Fatalf("sweeper: %v", err)
	}
	defer sweeper.Stop()

	server := api.NewServer(api.Deps{
		Config:    cfg,
		Logger:    logger.Named("api"),
		Sessions:  sessionManager,
		Users:     users,
		SessStore: sessions,
		Apps:      apps,
		Roles:     roles,
		Audit:     audit,
		Dashboard: dashboard,
		Engine:    engine,
		Encryptor: encryptor,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatalf("server: %v", err)
		}
	case sig := <-sigCh:
		logger.Printf("received %s, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			logger.Errorf("shutdown: %v", err)
		}
	}
}
