package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Log          LogConfig          `mapstructure:"log"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Acceptance   AcceptanceConfig   `mapstructure:"acceptance"`
	Deduction    DeductionConfig    `mapstructure:"deduction"`
	Notification NotificationConfig `mapstructure:"notification"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// RedisConfig points at the Redis holding idempotency claims
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig holds settings for validating bearer tokens of internal callers
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type HTTPConfig struct {
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	MaxBodySize       int64         `mapstructure:"max_body_size"`
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	CORSAllowOrigins  []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods  []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders  []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies    []string      `mapstructure:"trusted_proxies"`
	SwaggerEnabled    bool          `mapstructure:"swagger_enabled"` // serves /swagger, never in production
}

// AcceptanceConfig holds settings for the public acceptance links
type AcceptanceConfig struct {
	TokenTTLDays      int           `mapstructure:"token_ttl_days"`
	PublicBaseURL     string        `mapstructure:"public_base_url"`      // prefix of the link sent to customers
	PublicRateLimit   int           `mapstructure:"public_rate_limit"`    // per client IP per window
	PublicRateWindow  time.Duration `mapstructure:"public_rate_window"`
	CompensationLimit time.Duration `mapstructure:"compensation_timeout"` // bound for reverting a failed acceptance
	LinkAuditDisabled bool          `mapstructure:"link_audit_disabled"`
	LinkAuditInterval time.Duration `mapstructure:"link_audit_interval"`
	LinkAuditGrace    time.Duration `mapstructure:"link_audit_grace"` // younger acceptances are still in flight
}

// DeductionConfig holds the ROT deduction parameters
type DeductionConfig struct {
	LaborShare float64 `mapstructure:"labor_share"`
	Rate       float64 `mapstructure:"rate"`
	Cap        float64 `mapstructure:"cap"`
}

// NotificationConfig selects and configures the notification gateway
type NotificationConfig struct {
	Driver      string        `mapstructure:"driver"` // amqp or log
	AMQPURL     string        `mapstructure:"amqp_url"`
	Exchange    string        `mapstructure:"exchange"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
	DedupTTL    time.Duration `mapstructure:"dedup_ttl"`
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"` // OTLP gRPC, e.g. localhost:4317
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"` // plaintext gRPC, development only
	LogsEnabled       bool          `mapstructure:"logs_enabled"` // export zap entries over OTLP as well
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"` // logs bound values, never in production
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
}

// defaults registers every key. Keys without a default still need an entry
// so that AutomaticEnv picks them up during Unmarshal.
var defaults = map[string]any{
	"app.name": "quoteflow",
	"app.env":  "development",
	"app.port": "8080",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "quoteflow",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret": "",
	"jwt.issuer": "quoteflow",

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":        15 * time.Second,
	"http.write_timeout":       15 * time.Second,
	"http.idle_timeout":        60 * time.Second,
	"http.max_header_bytes":    1 << 20,
	"http.max_body_size":       1 << 20,
	"http.rate_limit_enabled":  false,
	"http.rate_limit_requests": 100,
	"http.rate_limit_window":   time.Minute,
	"http.cors_allow_origins":  []string{}, // no cross-origin callers until configured
	"http.cors_allow_methods":  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	"http.cors_allow_headers":  []string{"Content-Type", "Authorization", "X-Request-ID", "X-Tenant-ID"},
	"http.trusted_proxies":     []string{},
	"http.swagger_enabled":     true,

	"acceptance.token_ttl_days":       30,
	"acceptance.public_base_url":      "",
	"acceptance.public_rate_limit":    20,
	"acceptance.public_rate_window":   time.Minute,
	"acceptance.compensation_timeout": 10 * time.Second,
	"acceptance.link_audit_disabled":  false,
	"acceptance.link_audit_interval":  15 * time.Minute,
	"acceptance.link_audit_grace":     5 * time.Minute,

	"deduction.labor_share": 0.70,
	"deduction.rate":        0.50,
	"deduction.cap":         50000.0,

	"notification.driver":       "log",
	"notification.amqp_url":     "",
	"notification.exchange":     "quoteflow.notifications",
	"notification.send_timeout": 5 * time.Second,
	"notification.dedup_ttl":    24 * time.Hour,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "quoteflow",
	"telemetry.insecure":                false,
	"telemetry.logs_enabled":            true,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
}

// Load reads config.toml from the working directory or /app, then lets
// QUOTEFLOW_* environment variables override it, e.g.
// QUOTEFLOW_DATABASE_PASSWORD for database.password.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return loadFrom(v)
}

func loadFrom(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("QUOTEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
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

	if c.Acceptance.TokenTTLDays < 0 {
		return fmt.Errorf("acceptance.token_ttl_days cannot be negative")
	}
	if c.Acceptance.PublicBaseURL != "" {
		u, err := url.Parse(c.Acceptance.PublicBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("acceptance.public_base_url must be an absolute URL, got %q", c.Acceptance.PublicBaseURL)
		}
	}

	if c.Deduction.LaborShare < 0 || c.Deduction.LaborShare > 1 {
		return fmt.Errorf("deduction.labor_share must be between 0 and 1, got %f", c.Deduction.LaborShare)
	}
	if c.Deduction.Rate < 0 || c.Deduction.Rate > 1 {
		return fmt.Errorf("deduction.rate must be between 0 and 1, got %f", c.Deduction.Rate)
	}
	if c.Deduction.Cap < 0 {
		return fmt.Errorf("deduction.cap cannot be negative")
	}

	switch c.Notification.Driver {
	case "log":
	case "amqp":
		if c.Notification.AMQPURL == "" {
			return fmt.Errorf("notification.amqp_url is required when notification.driver is amqp")
		}
	default:
		return fmt.Errorf("notification.driver must be amqp or log, got %q", c.Notification.Driver)
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Acceptance.PublicBaseURL == "" {
			return fmt.Errorf("acceptance.public_base_url is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.HTTP.SwaggerEnabled {
			return fmt.Errorf("http.swagger_enabled must be false in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns host:port for the Redis client
func (r *RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}
