package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/costiq/backend/internal/application/analysis"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Storage  StorageConfig
	Rules    RulesConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings. Driver selects
// between postgres and an embedded sqlite file for local development.
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxUploadSize    int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// StorageConfig holds raw upload archiving settings. Provider "none"
// disables archiving entirely.
type StorageConfig struct {
	Provider        string // none, s3
	Endpoint        string // custom endpoint for S3-compatible stores
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// RulesConfig exposes the rule evaluator cutoffs as plain numbers so
// they can be tuned per deployment in the config file.
type RulesConfig struct {
	PriceVarianceRatio     float64
	PriceVarianceHighPct   float64
	PriceVarianceMediumPct float64
	ContractHighPct        float64
	ContractMediumPct      float64
	OverstockDays          float64
	OverstockHighDays      float64
	OverstockMediumDays    float64
	OptimalStockDays       float64
	ExpiryWindowDays       int
	ExpiryHighDays         int
	ExpiryMediumDays       int
	ExpiryValueCutoff      float64
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with COSTIQ_ prefix (e.g., COSTIQ_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("COSTIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxUploadSize:    v.GetInt64("http.max_upload_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Storage: StorageConfig{
			Provider:        v.GetString("storage.provider"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
		},
		Rules: RulesConfig{
			PriceVarianceRatio:     v.GetFloat64("rules.price_variance_ratio"),
			PriceVarianceHighPct:   v.GetFloat64("rules.price_variance_high_pct"),
			PriceVarianceMediumPct: v.GetFloat64("rules.price_variance_medium_pct"),
			ContractHighPct:        v.GetFloat64("rules.contract_high_pct"),
			ContractMediumPct:      v.GetFloat64("rules.contract_medium_pct"),
			OverstockDays:          v.GetFloat64("rules.overstock_days"),
			OverstockHighDays:      v.GetFloat64("rules.overstock_high_days"),
			OverstockMediumDays:    v.GetFloat64("rules.overstock_medium_days"),
			OptimalStockDays:       v.GetFloat64("rules.optimal_stock_days"),
			ExpiryWindowDays:       v.GetInt("rules.expiry_window_days"),
			ExpiryHighDays:         v.GetInt("rules.expiry_high_days"),
			ExpiryMediumDays:       v.GetInt("rules.expiry_medium_days"),
			ExpiryValueCutoff:      v.GetFloat64("rules.expiry_value_cutoff"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "costiq-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
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
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "costiq"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "costiq.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxUploadSize == 0 {
		cfg.HTTP.MaxUploadSize = 25 << 20 // 25MB
	}
	// CORS origins get no wildcard fallback. An empty list means no
	// cross-origin requests are allowed until explicitly configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = "none"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}

	if cfg.Rules.PriceVarianceRatio == 0 {
		cfg.Rules.PriceVarianceRatio = 0.10
	}
	if cfg.Rules.PriceVarianceHighPct == 0 {
		cfg.Rules.PriceVarianceHighPct = 25
	}
	if cfg.Rules.PriceVarianceMediumPct == 0 {
		cfg.Rules.PriceVarianceMediumPct = 15
	}
	if cfg.Rules.ContractHighPct == 0 {
		cfg.Rules.ContractHighPct = 20
	}
	if cfg.Rules.ContractMediumPct == 0 {
		cfg.Rules.ContractMediumPct = 10
	}
	if cfg.Rules.OverstockDays == 0 {
		cfg.Rules.OverstockDays = 90
	}
	if cfg.Rules.OverstockHighDays == 0 {
		cfg.Rules.OverstockHighDays = 180
	}
	if cfg.Rules.OverstockMediumDays == 0 {
		cfg.Rules.OverstockMediumDays = 120
	}
	if cfg.Rules.OptimalStockDays == 0 {
		cfg.Rules.OptimalStockDays = 45
	}
	if cfg.Rules.ExpiryWindowDays == 0 {
		cfg.Rules.ExpiryWindowDays = 30
	}
	if cfg.Rules.ExpiryHighDays == 0 {
		cfg.Rules.ExpiryHighDays = 7
	}
	if cfg.Rules.ExpiryMediumDays == 0 {
		cfg.Rules.ExpiryMediumDays = 14
	}
	if cfg.Rules.ExpiryValueCutoff == 0 {
		cfg.Rules.ExpiryValueCutoff = 1000
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be 'postgres' or 'sqlite', got %q", c.Database.Driver)
	}

	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Storage.Provider {
	case "none", "s3":
	default:
		return fmt.Errorf("storage.provider must be 'none' or 's3', got %q", c.Storage.Provider)
	}
	if c.Storage.Provider == "s3" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage.provider is 's3'")
	}

	if c.Rules.PriceVarianceRatio < 0 {
		return fmt.Errorf("rules.price_variance_ratio cannot be negative")
	}
	if c.Rules.ExpiryHighDays > c.Rules.ExpiryWindowDays {
		return fmt.Errorf("rules.expiry_high_days (%d) cannot exceed rules.expiry_window_days (%d)",
			c.Rules.ExpiryHighDays, c.Rules.ExpiryWindowDays)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// Thresholds converts the rule settings into the evaluator threshold set.
func (r *RulesConfig) Thresholds() analysis.Thresholds {
	return analysis.Thresholds{
		PriceVarianceRatio:     decimal.NewFromFloat(r.PriceVarianceRatio),
		PriceVarianceHighPct:   decimal.NewFromFloat(r.PriceVarianceHighPct),
		PriceVarianceMediumPct: decimal.NewFromFloat(r.PriceVarianceMediumPct),
		ContractHighPct:        decimal.NewFromFloat(r.ContractHighPct),
		ContractMediumPct:      decimal.NewFromFloat(r.ContractMediumPct),
		OverstockDays:          decimal.NewFromFloat(r.OverstockDays),
		OverstockHighDays:      decimal.NewFromFloat(r.OverstockHighDays),
		OverstockMediumDays:    decimal.NewFromFloat(r.OverstockMediumDays),
		OptimalStockDays:       decimal.NewFromFloat(r.OptimalStockDays),
		ExpiryWindowDays:       r.ExpiryWindowDays,
		ExpiryHighDays:         r.ExpiryHighDays,
		ExpiryMediumDays:       r.ExpiryMediumDays,
		ExpiryValueCutoff:      decimal.NewFromFloat(r.ExpiryValueCutoff),
	}
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
