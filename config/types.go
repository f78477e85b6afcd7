package config

import "time"

type AppConfig struct {
	DBDriver   string        `yaml:"db_driver" env:"CONSOLE_DB_DRIVER"`
	DBURL      string        `yaml:"db_url" env:"CONSOLE_DB_URL"`
	DBPath     string        `yaml:"db_path" env:"CONSOLE_DB_PATH"`
	ListenAddr string        `yaml:"listen_addr" env:"CONSOLE_LISTEN_ADDR" env-default:"0.0.0.0:8080"`
	SessionTTL time.Duration `yaml:"session_ttl" env:"CONSOLE_SESSION_TTL"`
	AppEnv     string        `yaml:"app_env" env:"CONSOLE_APP_ENV"`
	AuthMode   string        `yaml:"auth_mode" env:"CONSOLE_AUTH_MODE"`
	Pepper     string        `yaml:"pepper" env:"CONSOLE_PEPPER"`
	// Key for at-rest encryption of stored application credentials.
	EncryptionKey string              `yaml:"encryption_key" env:"CONSOLE_ENCRYPTION_KEY"`
	Sync          SyncConfig          `yaml:"sync"`
	Security      SecurityConfig      `yaml:"security"`
	Observability ObservabilityConfig `yaml:"observability"`
	Sweeper       SweeperConfig       `yaml:"sweeper"`
}

type SyncConfig struct {
	TimeoutSec int `yaml:"timeout_sec" env:"CONSOLE_SYNC_TIMEOUT_SEC"`
}

type SecurityConfig struct {
	TrustedProxies []string `yaml:"trusted_proxies" env:"CONSOLE_TRUSTED_PROXIES"`
	// Integrated applications usually live on private networks.
	AllowPrivateUpstreams  bool `yaml:"allow_private_upstreams" env:"CONSOLE_ALLOW_PRIVATE_UPSTREAMS" env-default:"true"`
	AllowLoopbackUpstreams bool `yaml:"allow_loopback_upstreams" env:"CONSOLE_ALLOW_LOOPBACK_UPSTREAMS"`
}

type ObservabilityConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled" env:"CONSOLE_METRICS_ENABLED"`
	MetricsToken   string `yaml:"metrics_token" env:"CONSOLE_METRICS_TOKEN"`
}

type SweeperConfig struct {
	Enabled  bool   `yaml:"enabled" env:"CONSOLE_SWEEPER_ENABLED" env-default:"true"`
	Schedule string `yaml:"schedule" env:"CONSOLE_SWEEPER_SCHEDULE"`
}

const (
	AuthModeLocal     = "local"
	AuthModeDelegated = "delegated"
)

func (c *AppConfig) EffectiveSessionTTL() time.Duration {
	if c == nil || c.SessionTTL <= 0 {
		return 24 * time.Hour
	}
	return c.SessionTTL
}

// EffectiveSyncTimeout clamps the adapter timeout into the 10..30s window.
func (c *AppConfig) EffectiveSyncTimeout() time.Duration {
	sec := 15
	if c != nil && c.Sync.TimeoutSec > 0 {
		sec = c.Sync.TimeoutSec
	}
	if sec < 10 {
		sec = 10
	}
	if sec > 30 {
		sec = 30
	}
	return time.Duration(sec) * time.Second
}
