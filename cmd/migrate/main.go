// Command migrate applies pending database migrations and exits.
package main

import (
	"context"

	"unified-console/config"
	"unified-console/core/store"
	"unified-console/core/utils"
)

func main() {
	logger := utils.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(context.Background(), db, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}
	logger.Printf("migrations applied")
}
