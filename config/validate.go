package config

import (
	"fmt"
	"strings"
)

const (
	defaultPepper        = "kP4wVrH1h8Nmp_uGLCTiAXEB2k72_G2Ch1Q7HOM0zIo"
	defaultEncryptionKey = "2f7d0c35c87c92c9dfe05f4251de8ad18fcb363d4be33bcc5394fb013dc22daf"
)

func Validate(cfg *AppConfig) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if driver == "" {
		driver = "postgres"
	}
	switch driver {
	case "postgres", "pg":
		if strings.TrimSpace(cfg.DBURL) == "" {
			return fmt.Errorf("db_url must be set for postgres driver")
		}
	case "sqlite":
		// Test runtime only; enforced by store.NewDB.
	default:
		return fmt.Errorf("unsupported db_driver: %s", cfg.DBDriver)
	}
	pep := strings.TrimSpace(cfg.Pepper)
	encKey := strings.TrimSpace(cfg.EncryptionKey)
	if pep == "" || encKey == "" {
		return fmt.Errorf("pepper and encryption_key must be set via env")
	}
	switch cfg.AuthMode {
	case AuthModeLocal, AuthModeDelegated:
	default:
		return fmt.Errorf("unsupported auth_mode: %s", cfg.AuthMode)
	}
	appEnv := strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	if appEnv != "dev" {
		if isDefaultSecret(pep) || isDefaultSecret(encKey) {
			return fmt.Errorf("default secrets are not allowed outside APP_ENV=dev")
		}
	}
	return nil
}

func isDefaultSecret(val string) bool {
	switch val {
	case defaultPepper, defaultEncryptionKey:
		return true
	default:
		return false
	}
}
