package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Cron    CronConfig    `mapstructure:"cron"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	Indexer IndexerConfig `mapstructure:"indexer"`
	Relay   RelayConfig   `mapstructure:"relay"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Source  SourceConfig  `mapstructure:"source"`
	Metrics MetricsConfig `mapstructure:"metrics"`

	Reconcile ReconcileConfig `mapstructure:"reconcile"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
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
	Enabled          bool   `mapstructure:"enabled"`
	SourceRefresh    string `mapstructure:"source_refresh"`
	GatewayReconcile string `mapstructure:"gateway_reconcile"`
}

// WebhookConfig carries the shared secret the payment gateway signs
// deliveries with. An empty secret rejects every delivery.
type WebhookConfig struct {
	Secret string `mapstructure:"secret"`
}

type IndexerConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	StatsConcurrency int           `mapstructure:"stats_concurrency"`
	MaxProjects      int           `mapstructure:"max_projects"`
}

type RelayConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	URLs           []string      `mapstructure:"urls"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	EnrichDeadline time.Duration `mapstructure:"enrich_deadline"`
	Concurrency    int           `mapstructure:"concurrency"`
}

type GatewayConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	StoreID    string        `mapstructure:"store_id"`
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type SourceConfig struct {
	TierTimeout  time.Duration `mapstructure:"tier_timeout"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	CacheMaxMB   int           `mapstructure:"cache_max_mb"`
	FallbackPath string        `mapstructure:"fallback_path"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ReconcileConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	MinAge    time.Duration `mapstructure:"min_age"`
	BatchSize int           `mapstructure:"batch_size"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
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
	v.SetDefault("cron.source_refresh", "@every 10m")
	v.SetDefault("cron.gateway_reconcile", "@every 30m")
	v.SetDefault("webhook.secret", "")
	v.SetDefault("indexer.base_url", "https://btc.indexer.angor.io")
	v.SetDefault("indexer.timeout", "15s")
	v.SetDefault("indexer.stats_concurrency", 8)
	v.SetDefault("indexer.max_projects", 200)
	v.SetDefault("relay.enabled", true)
	v.SetDefault("relay.urls", []string{"wss://relay.angor.io", "wss://nos.lol"})
	v.SetDefault("relay.fetch_timeout", "5s")
	v.SetDefault("relay.enrich_deadline", "10s")
	v.SetDefault("relay.concurrency", 4)
	v.SetDefault("gateway.base_url", "")
	v.SetDefault("gateway.timeout", "15s")
	v.SetDefault("source.tier_timeout", "20s")
	v.SetDefault("source.cache_ttl", "60s")
	v.SetDefault("source.cache_max_mb", 32)
	v.SetDefault("metrics.enabled", true)

	// Reconciliation stays off until a gateway API key is provisioned.
	v.SetDefault("reconcile.enabled", false)
	v.SetDefault("reconcile.min_age", "1h")
	v.SetDefault("reconcile.batch_size", 50)

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
