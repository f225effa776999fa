package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported token transports.
const (
	TransportHeader = "header"
	TransportCookie = "cookie"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Logger   LoggerConfig   `yaml:"logger"`
	Auth     AuthConfig     `yaml:"auth"`
	CORS     CORSConfig     `yaml:"cors"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `yaml:"name"`
	Env                   string `yaml:"env"`
	Host                  string `yaml:"host"`
	Port                  string `yaml:"port"`
	Version               string `yaml:"version"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// DatabaseConfig selects the credential store backend.
type DatabaseConfig struct {
	Driver         string `yaml:"driver"`
	DSN            string `yaml:"dsn"`
	SQLitePath     string `yaml:"sqlite_path"`
	MaxConns       int32  `yaml:"max_conns"`
	MinConns       int32  `yaml:"min_conns"`
	RunMigrations  bool   `yaml:"run_migrations"`
	ConnMaxIdleSec int32  `yaml:"conn_max_idle_seconds"`
	ConnMaxLifeSec int32  `yaml:"conn_max_life_seconds"`
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string `yaml:"jwt_secret"`
	AccessTokenTTLMinutes int    `yaml:"access_token_ttl_minutes"`
	Issuer                string `yaml:"issuer"`
	Audience              string `yaml:"audience"`
	BcryptCost            int    `yaml:"bcrypt_cost"`
	TokenTransport        string `yaml:"token_transport"`
	CookieName            string `yaml:"cookie_name"`
	LoginMaxAttempts      int    `yaml:"login_max_attempts"`
	LoginWindowSeconds    int    `yaml:"login_window_seconds"`
}

// CORSConfig names the single browser origin allowed to call the API.
type CORSConfig struct {
	AllowedOrigin string `yaml:"allowed_origin"`
}

// Defaults returns the configuration used when neither a file nor the environment
// provides a value.
func Defaults() Config {
	return Config{
		App: AppConfig{
			Name:                  "shop-service",
			Env:                   "development",
			Host:                  "0.0.0.0",
			Port:                  "8000",
			Version:               "dev",
			RequestTimeoutSeconds: 30,
		},
		Database: DatabaseConfig{
			Driver:         DriverPostgres,
			SQLitePath:     "shop.db",
			MaxConns:       10,
			MinConns:       2,
			RunMigrations:  true,
			ConnMaxIdleSec: 30,
			ConnMaxLifeSec: 300,
		},
		Logger: LoggerConfig{Level: "info"},
		Auth: AuthConfig{
			AccessTokenTTLMinutes: 14 * 24 * 60,
			Issuer:                "shop-service",
			Audience:              "shop-service-api",
			BcryptCost:            12,
			TokenTransport:        TransportHeader,
			CookieName:            "jwt",
			LoginMaxAttempts:      10,
			LoginWindowSeconds:    300,
		},
		CORS: CORSConfig{AllowedOrigin: "http://localhost:5173"},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
// Environment variables win over the file, the file wins over defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", strconv.Itoa(cfg.Redis.DB)))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.App = AppConfig{
		Name:                  getEnv("APP_NAME", cfg.App.Name),
		Env:                   getEnv("APP_ENV", cfg.App.Env),
		Host:                  getEnv("APP_HOST", cfg.App.Host),
		Port:                  getEnv("APP_PORT", cfg.App.Port),
		Version:               getEnv("APP_VERSION", cfg.App.Version),
		RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", cfg.App.RequestTimeoutSeconds),
	}
	cfg.Database = DatabaseConfig{
		Driver:         strings.ToLower(getEnv("DB_DRIVER", cfg.Database.Driver)),
		DSN:            getEnv("POSTGRES_DSN", cfg.Database.DSN),
		SQLitePath:     getEnv("SQLITE_PATH", cfg.Database.SQLitePath),
		MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", int(cfg.Database.MaxConns))),
		MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", int(cfg.Database.MinConns))),
		RunMigrations:  getEnvAsBool("DB_RUN_MIGRATIONS", cfg.Database.RunMigrations),
		ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", int(cfg.Database.ConnMaxIdleSec))),
		ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", int(cfg.Database.ConnMaxLifeSec))),
	}
	cfg.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", cfg.Redis.Addr),
		Password: getEnv("REDIS_PASSWORD", cfg.Redis.Password),
		DB:       redisDB,
	}
	cfg.Logger = LoggerConfig{Level: getEnv("LOG_LEVEL", cfg.Logger.Level)}
	cfg.Auth = AuthConfig{
		JWTSecret:             getEnv("AUTH_JWT_SECRET", cfg.Auth.JWTSecret),
		AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", cfg.Auth.AccessTokenTTLMinutes),
		Issuer:                getEnv("AUTH_TOKEN_ISSUER", cfg.Auth.Issuer),
		Audience:              getEnv("AUTH_TOKEN_AUDIENCE", cfg.Auth.Audience),
		BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", cfg.Auth.BcryptCost),
		TokenTransport:        strings.ToLower(getEnv("AUTH_TOKEN_TRANSPORT", cfg.Auth.TokenTransport)),
		CookieName:            getEnv("AUTH_COOKIE_NAME", cfg.Auth.CookieName),
		LoginMaxAttempts:      getEnvAsInt("AUTH_LOGIN_MAX_ATTEMPTS", cfg.Auth.LoginMaxAttempts),
		LoginWindowSeconds:    getEnvAsInt("AUTH_LOGIN_WINDOW_SECONDS", cfg.Auth.LoginWindowSeconds),
	}
	cfg.CORS = CORSConfig{AllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", cfg.CORS.AllowedOrigin)}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	switch c.Auth.TokenTransport {
	case TransportHeader, TransportCookie:
	default:
		errs = append(errs, fmt.Errorf("unsupported AUTH_TOKEN_TRANSPORT %q", c.Auth.TokenTransport))
	}
	if c.Auth.LoginMaxAttempts > 0 && c.Auth.LoginWindowSeconds <= 0 {
		errs = append(errs, errors.New("AUTH_LOGIN_WINDOW_SECONDS must be positive when login throttling is enabled"))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the lifetime of issued tokens.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// LoginWindow returns the login throttling window.
func (a AuthConfig) LoginWindow() time.Duration {
	return time.Duration(a.LoginWindowSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
