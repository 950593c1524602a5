package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"climate-api/pkg/database"
	"climate-api/pkg/logging"
)

// Config is the process configuration shared by the server and the tools
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Host            string        `validate:"required"`
	Port            int           `validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	IdleTimeout     time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// DatabaseConfig selects and tunes the dataset backend
type DatabaseConfig struct {
	Driver string `validate:"oneof=sqlite postgres"`

	Path string `validate:"required_if=Driver sqlite"`

	Host     string `validate:"required_if=Driver postgres"`
	Port     int    `validate:"min=0,max=65535"`
	User     string
	Password string
	Database string `validate:"required_if=Driver postgres"`
	SSLMode  string `validate:"oneof=disable allow prefer require verify-ca verify-full"`

	MaxOpenConns    int           `validate:"min=1"`
	MaxIdleConns    int           `validate:"min=0,ltefield=MaxOpenConns"`
	ConnMaxLifetime time.Duration `validate:"gte=0"`
	ConnMaxIdleTime time.Duration `validate:"gte=0"`
	ConnectRetries  int           `validate:"min=0,max=20"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn warning error"`
	Format string `validate:"oneof=json text"`
}

var validate = validator.New()

// LoadConfig reads the configuration from the environment. Values from an
// optional .env file (or the file named by ENV_FILE) are applied first
// without overriding variables that are already set.
func LoadConfig() (*Config, error) {
	envFile := getenvDefault("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	var (
		cfg Config
		err error
	)

	cfg.Server.Host = getenvDefault("SERVER_HOST", "0.0.0.0")
	if cfg.Server.Port, err = getenvInt("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = getenvDuration("SERVER_READ_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getenvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getenvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.ShutdownTimeout, err = getenvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	cfg.Database.Driver = strings.ToLower(getenvDefault("DB_DRIVER", database.DriverSQLite))
	cfg.Database.Path = getenvDefault("DB_PATH", "Resources/hawaii.sqlite")
	cfg.Database.Host = getenvDefault("DB_HOST", "localhost")
	if cfg.Database.Port, err = getenvInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	cfg.Database.User = getenvDefault("DB_USER", "postgres")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.Database = getenvDefault("DB_NAME", "hawaii")
	cfg.Database.SSLMode = getenvDefault("DB_SSLMODE", "disable")
	if cfg.Database.MaxOpenConns, err = getenvInt("DB_MAX_OPEN_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.Database.MaxIdleConns, err = getenvInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}
	if cfg.Database.ConnMaxLifetime, err = getenvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Database.ConnMaxIdleTime, err = getenvDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Database.ConnectRetries, err = getenvInt("DB_CONNECT_RETRIES", 5); err != nil {
		return nil, err
	}

	cfg.Logging.Level = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))
	cfg.Logging.Format = strings.ToLower(getenvDefault("LOG_FORMAT", "json"))

	return &cfg, nil
}

// Validate checks field constraints and cross-field rules
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// DatabaseSettings translates the settings for pkg/database. The HTTP server
// opens SQLite files read-only.
func (c *Config) DatabaseSettings(readOnly bool) *database.Config {
	return &database.Config{
		Driver:          c.Database.Driver,
		Path:            c.Database.Path,
		ReadOnly:        readOnly,
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		User:            c.Database.User,
		Password:        c.Database.Password,
		Database:        c.Database.Database,
		SSLMode:         c.Database.SSLMode,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		ConnMaxIdleTime: c.Database.ConnMaxIdleTime,
		ConnectRetries:  c.Database.ConnectRetries,
	}
}

// Logger builds the structured logger described by the logging section
func (c *Config) Logger(service, version string) *logging.StructuredLogger {
	return logging.NewStructuredLogger(service, version, logging.ParseLevel(c.Logging.Level), logging.Format(c.Logging.Format))
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
