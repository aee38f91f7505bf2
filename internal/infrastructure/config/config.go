package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Sync        SyncConfig
	WooCommerce WooCommerceConfig
	Telemetry   TelemetryConfig
}

// AppConfig describes the running application.
type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string
	Format string
}

// HTTPConfig controls the HTTP server.
type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// SyncConfig controls the periodic order sync.
type SyncConfig struct {
	Enabled         bool
	IntervalMinutes int
	AccountID       string
	InitialWindow   time.Duration
	PageSize        int
	BatchPause      time.Duration
}

// WooCommerceConfig holds store API credentials.
type WooCommerceConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
}

// TelemetryConfig controls tracing instrumentation.
type TelemetryConfig struct {
	DBTraceEnabled      bool
	DBTraceQueryParams  bool
	DBTraceRowsAffected bool
}

// Load reads configuration from config.toml and environment variables.
// Environment variables use the GESCOM prefix, e.g. GESCOM_DATABASE_HOST.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("GESCOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No file found; environment variables alone can carry the config.
	}

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("app.name"),
			Environment: v.GetString("app.environment"),
			Version:     v.GetString("app.version"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.ssl_mode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		HTTP: HTTPConfig{
			Host:            v.GetString("http.host"),
			Port:            v.GetInt("http.port"),
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
		Sync: SyncConfig{
			Enabled:         v.GetBool("sync.enabled"),
			IntervalMinutes: v.GetInt("sync.interval_minutes"),
			AccountID:       v.GetString("sync.account_id"),
			InitialWindow:   v.GetDuration("sync.initial_window"),
			PageSize:        v.GetInt("sync.page_size"),
			BatchPause:      v.GetDuration("sync.batch_pause"),
		},
		WooCommerce: WooCommerceConfig{
			BaseURL:        v.GetString("woocommerce.base_url"),
			ConsumerKey:    v.GetString("woocommerce.consumer_key"),
			ConsumerSecret: v.GetString("woocommerce.consumer_secret"),
			Timeout:        v.GetDuration("woocommerce.timeout"),
		},
		Telemetry: TelemetryConfig{
			DBTraceEnabled:      v.GetBool("telemetry.db_trace_enabled"),
			DBTraceQueryParams:  v.GetBool("telemetry.db_trace_query_params"),
			DBTraceRowsAffected: v.GetBool("telemetry.db_trace_rows_affected"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "gescom"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "dev"
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "gescom"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 5 * time.Minute
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Sync.IntervalMinutes == 0 {
		cfg.Sync.IntervalMinutes = 15
	}
	if cfg.Sync.InitialWindow == 0 {
		cfg.Sync.InitialWindow = 30 * 24 * time.Hour
	}
	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = 50
	}
	if cfg.Sync.BatchPause == 0 {
		cfg.Sync.BatchPause = 500 * time.Millisecond
	}

	if cfg.WooCommerce.Timeout == 0 {
		cfg.WooCommerce.Timeout = 30 * time.Second
	}
}

func (c *Config) validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment %q", c.App.Environment)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port %d", c.Database.Port)
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTP.Port)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	if c.Sync.IntervalMinutes < 1 {
		return fmt.Errorf("sync interval must be at least 1 minute, got %d", c.Sync.IntervalMinutes)
	}
	if c.Sync.PageSize < 1 || c.Sync.PageSize > 100 {
		return fmt.Errorf("sync page size must be between 1 and 100, got %d", c.Sync.PageSize)
	}

	if c.IsProduction() {
		if c.Database.Password == "" {
			return fmt.Errorf("database password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database ssl must be enabled in production")
		}
		if c.Sync.Enabled && c.Sync.AccountID == "" {
			return fmt.Errorf("sync account_id is required when sync is enabled")
		}
	}

	if c.Sync.Enabled {
		if c.WooCommerce.BaseURL == "" {
			return fmt.Errorf("woocommerce base_url is required when sync is enabled")
		}
		if c.WooCommerce.ConsumerKey == "" || c.WooCommerce.ConsumerSecret == "" {
			return fmt.Errorf("woocommerce credentials are required when sync is enabled")
		}
	}

	return nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// DSN builds the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the listen address for the HTTP server.
func (h *HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}
