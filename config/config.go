package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"storefront/cart"
	"storefront/session"
	"storefront/store"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Pricing  PricingConfig
	Checkout CheckoutConfig
	Log      LogConfig
	HTTP     HTTPConfig
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	AutoMigrate     bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig selects where carts are kept and how the cookie looks.
type SessionConfig struct {
	Backend      string // cookie, redis, memory
	CookieName   string // cart cookie (cookie backend)
	IDCookieName string // session id cookie (redis and memory backends)
	Path         string
	Domain       string
	Secure       bool
	HTTPOnly     bool
	SameSite     string // strict, lax, none
	TTL          time.Duration
}

// PricingConfig holds the order total rules. Amounts are in minor units.
type PricingConfig struct {
	FreeShippingThreshold int64
	FlatShippingFee       int64
	TaxRate               string
}

// CheckoutConfig holds checkout settings
type CheckoutConfig struct {
	PaymentMethods []string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server settings
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderBytes  int
	MaxBodySize     int64
}

// Load reads configuration from config.toml and STOREFRONT_ environment
// variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// zero is a meaningful value for these, so they are not left to applyDefaults
	v.SetDefault("pricing.free_shipping_threshold", 100000)
	v.SetDefault("pricing.flat_shipping_fee", 15000)
	v.SetDefault("pricing.tax_rate", "0.1")
	v.SetDefault("session.http_only", true)
	v.SetDefault("database.auto_migrate", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Session: SessionConfig{
			Backend:      v.GetString("session.backend"),
			CookieName:   v.GetString("session.cookie_name"),
			IDCookieName: v.GetString("session.id_cookie_name"),
			Path:         v.GetString("session.path"),
			Domain:       v.GetString("session.domain"),
			Secure:       v.GetBool("session.secure"),
			HTTPOnly:     v.GetBool("session.http_only"),
			SameSite:     v.GetString("session.same_site"),
			TTL:          v.GetDuration("session.ttl"),
		},
		Pricing: PricingConfig{
			FreeShippingThreshold: v.GetInt64("pricing.free_shipping_threshold"),
			FlatShippingFee:       v.GetInt64("pricing.flat_shipping_fee"),
			TaxRate:               v.GetString("pricing.tax_rate"),
		},
		Checkout: CheckoutConfig{
			PaymentMethods: v.GetStringSlice("checkout.payment_methods"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:  v.GetInt("http.max_header_bytes"),
			MaxBodySize:     v.GetInt64("http.max_body_size"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8082"
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
		cfg.Database.DBName = "storefront"
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
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "cookie"
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "cart"
	}
	if cfg.Session.IDCookieName == "" {
		cfg.Session.IDCookieName = "cart_sid"
	}
	if cfg.Session.Path == "" {
		cfg.Session.Path = "/"
	}
	if cfg.Session.SameSite == "" {
		cfg.Session.SameSite = "lax"
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 7 * 24 * time.Hour
	}
	if len(cfg.Checkout.PaymentMethods) == 0 {
		cfg.Checkout.PaymentMethods = []string{"PayPal", "Stripe", "CashOnDelivery"}
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
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
}

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

	switch c.Session.Backend {
	case "cookie", "redis", "memory":
	default:
		return fmt.Errorf("session.backend must be one of cookie, redis, memory, got %q", c.Session.Backend)
	}
	if c.Session.SameSite == "none" && !c.Session.Secure {
		return fmt.Errorf("session.same_site=none requires session.secure=true")
	}

	if c.Pricing.FreeShippingThreshold < 0 {
		return fmt.Errorf("pricing.free_shipping_threshold cannot be negative")
	}
	if c.Pricing.FlatShippingFee < 0 {
		return fmt.Errorf("pricing.flat_shipping_fee cannot be negative")
	}
	rate, err := decimal.NewFromString(c.Pricing.TaxRate)
	if err != nil {
		return fmt.Errorf("pricing.tax_rate %q is not a number: %w", c.Pricing.TaxRate, err)
	}
	if rate.IsNegative() {
		return fmt.Errorf("pricing.tax_rate cannot be negative")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if !c.Session.Secure {
			return fmt.Errorf("session.secure must be true in production (HTTPS required for secure cookies)")
		}
		if c.Session.Backend == "memory" {
			return fmt.Errorf("session.backend=memory is not allowed in production")
		}
	}

	return nil
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

// Pool converts the pool settings, given in minutes, for the store.
func (d *DatabaseConfig) Pool() store.PoolConfig {
	return store.PoolConfig{
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: time.Duration(d.ConnMaxLifetime) * time.Minute,
		ConnMaxIdleTime: time.Duration(d.ConnMaxIdleTime) * time.Minute,
	}
}

// Addr returns host:port for the Redis client.
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// Rules converts the pricing settings into calculator input. The tax rate
// was checked by validate, so a parse failure falls back to the defaults.
func (p PricingConfig) Rules() cart.Pricing {
	rate, err := decimal.NewFromString(p.TaxRate)
	if err != nil {
		return cart.DefaultPricing()
	}
	return cart.Pricing{
		FreeShippingThreshold: p.FreeShippingThreshold,
		FlatShippingFee:       p.FlatShippingFee,
		TaxRate:               rate,
	}
}

// Cookie returns the attributes of the cookie the backend writes.
func (s SessionConfig) Cookie() session.CookieOptions {
	name := s.IDCookieName
	if s.Backend == "cookie" {
		name = s.CookieName
	}
	return session.CookieOptions{
		Name:     name,
		Path:     s.Path,
		Domain:   s.Domain,
		Secure:   s.Secure,
		HTTPOnly: s.HTTPOnly,
		SameSite: s.SameSite,
	}
}
