package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Cron      CronConfig      `mapstructure:"cron"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Vault     VaultConfig     `mapstructure:"vault"`
	Providers ProvidersConfig `mapstructure:"providers"`
	// Connections is the static connection list used without a vault,
	// mainly in dev.
	Connections []ConnectionConfig `mapstructure:"connections"`
}

type AppConfig struct {
	Env           string `mapstructure:"env"`
	ApplicationID string `mapstructure:"application_id"`
	APIToken      string `mapstructure:"api_token"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type SyncConfig struct {
	PageSize          int           `mapstructure:"page_size"`
	MaxPagesPerObject int           `mapstructure:"max_pages_per_object"`
	ProviderTimeout   time.Duration `mapstructure:"provider_timeout"`
	DestinationSchema string        `mapstructure:"destination_schema"`
}

type VaultConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ProvidersConfig overrides API hosts per provider, for sandboxes and tests.
type ProvidersConfig struct {
	BaseURLs map[string]string `mapstructure:"base_urls"`
}

type ConnectionConfig struct {
	CustomerID   string `mapstructure:"customer_id"`
	ProviderName string `mapstructure:"provider_name"`
	AccessToken  string `mapstructure:"access_token"`
	InstanceURL  string `mapstructure:"instance_url"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("US")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.application_id", "default-app")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.schedule", "@every 15m")
	v.SetDefault("sync.page_size", 100)
	v.SetDefault("sync.max_pages_per_object", 1000)
	v.SetDefault("sync.provider_timeout", "30s")
	v.SetDefault("sync.destination_schema", "")
	v.SetDefault("vault.base_url", "")
	v.SetDefault("vault.timeout", "10s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
