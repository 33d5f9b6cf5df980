package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable read by LoadConfig.
const EnvPrefix = "MULEARN_"

// insecureJWTSecret is the placeholder shipped in configs/config.yaml
const insecureJWTSecret = "change-me"

// Config is the root application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" env:", prefix=SERVER_"`
	Database DatabaseConfig `yaml:"database" env:", prefix=DB_"`
	JWT      JWTConfig      `yaml:"jwt" env:", prefix=JWT_"`
	Logging  LoggingConfig  `yaml:"logging" env:", prefix=LOG_"`
	NATS     NATSConfig     `yaml:"nats" env:", prefix=NATS_"`
	KKEM     KKEMConfig     `yaml:"kkem" env:", prefix=KKEM_"`
	Circles  CirclesConfig  `yaml:"circles" env:", prefix=CIRCLES_"`
	Rollbar  RollbarConfig  `yaml:"rollbar" env:", prefix=ROLLBAR_"`
	Metrics  MetricsConfig  `yaml:"metrics" env:", prefix=METRICS_"`
	Discord  DiscordConfig  `yaml:"discord" env:", prefix=DISCORD_"`
	Seed     SeedConfig     `yaml:"seed" env:", prefix=SEED_"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string   `yaml:"port" env:"PORT"`
	Mode            string   `yaml:"mode" env:"MODE"`
	ShutdownTimeout string   `yaml:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string `yaml:"allowedOrigins" env:"ALLOWED_ORIGINS"`
	AutoMigrate     bool     `yaml:"autoMigrate" env:"AUTO_MIGRATE"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string `yaml:"host" env:"HOST"`
	Port            int    `yaml:"port" env:"PORT"`
	User            string `yaml:"user" env:"USER"`
	Password        string `yaml:"password" env:"PASSWORD"`
	Name            string `yaml:"name" env:"NAME"`
	SSLMode         string `yaml:"sslMode" env:"SSL_MODE"`
	MaxOpenConns    int    `yaml:"maxOpenConns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int    `yaml:"maxIdleConns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime string `yaml:"connMaxLifetime" env:"CONN_MAX_LIFETIME"`
}

// JWTConfig holds token signing settings
type JWTConfig struct {
	Secret                 string `yaml:"secret" env:"SECRET"`
	AccessTokenExpiration  string `yaml:"accessTokenExpiration" env:"ACCESS_TOKEN_EXPIRATION"`
	RefreshTokenExpiration string `yaml:"refreshTokenExpiration" env:"REFRESH_TOKEN_EXPIRATION"`
	Issuer                 string `yaml:"issuer" env:"ISSUER"`
}

// LoggingConfig holds logger settings. Format is "text" or "json".
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// NATSConfig holds event bus settings. When disabled an in-process bus is used.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	URL     string `yaml:"url" env:"URL"`
	Stream  string `yaml:"stream" env:"STREAM"`
}

// KKEMConfig holds the shared secret used to decrypt KKEM payloads
type KKEMConfig struct {
	SecretKey  string `yaml:"secretKey" env:"SECRET_KEY"`
	Salt       string `yaml:"salt" env:"SALT"`
	Iterations int    `yaml:"iterations" env:"ITERATIONS"`
}

// CirclesConfig holds learning circle rules
type CirclesConfig struct {
	MaxMembers         int    `yaml:"maxMembers" env:"MAX_MEMBERS"`
	MaxMeetingsPerWeek int    `yaml:"maxMeetingsPerWeek" env:"MAX_MEETINGS_PER_WEEK"`
	Timezone           string `yaml:"timezone" env:"TIMEZONE"`
	MeetReportHashtag  string `yaml:"meetReportHashtag" env:"MEET_REPORT_HASHTAG"`
}

// RollbarConfig enables panic reporting when Token is set
type RollbarConfig struct {
	Token       string `yaml:"token" env:"TOKEN"`
	Environment string `yaml:"environment" env:"ENVIRONMENT"`
}

// MetricsConfig selects the OpenTelemetry exporter: none, console or otlp
type MetricsConfig struct {
	Exporter     string `yaml:"exporter" env:"EXPORTER"`
	OTLPEndpoint string `yaml:"otlpEndpoint" env:"OTLP_ENDPOINT"`
	Interval     string `yaml:"interval" env:"INTERVAL"`
}

// DiscordConfig holds settings for Discord account linking
type DiscordConfig struct {
	RequestTimeout string `yaml:"requestTimeout" env:"REQUEST_TIMEOUT"`
}

// SeedConfig describes the administrator created on first start. Nothing
// is seeded while AdminEmail is empty.
type SeedConfig struct {
	AdminName     string `yaml:"adminName" env:"ADMIN_NAME"`
	AdminEmail    string `yaml:"adminEmail" env:"ADMIN_EMAIL"`
	AdminPassword string `yaml:"adminPassword" env:"ADMIN_PASSWORD"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Mode:            "development",
			ShutdownTimeout: "15s",
			AllowedOrigins:  []string{"*"},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "mulearn",
			Name:            "mulearn",
			SSLMode:         "disable",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: "30m",
		},
		JWT: JWTConfig{
			AccessTokenExpiration:  "1h",
			RefreshTokenExpiration: "720h",
			Issuer:                 "mulearn",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		NATS:    NATSConfig{URL: "nats://localhost:4222", Stream: "MULEARN"},
		KKEM:    KKEMConfig{Iterations: 65536},
		Circles: CirclesConfig{
			MaxMembers:         10,
			MaxMeetingsPerWeek: 5,
			Timezone:           "Asia/Kolkata",
			MeetReportHashtag:  "#lcmeetreport",
		},
		Metrics: MetricsConfig{Exporter: "none", Interval: "30s"},
		Discord: DiscordConfig{RequestTimeout: "10s"},
	}
}

// LoadConfig reads the YAML file at path (a missing file is not an error),
// loads a .env file from the working directory if one exists and finally
// applies MULEARN_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := applyEnv(context.Background(), cfg, envconfig.OsLookuper()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(ctx context.Context, cfg *Config, lookuper envconfig.Lookuper) error {
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           cfg,
		Lookuper:         envconfig.PrefixLookuper(EnvPrefix, lookuper),
		DefaultOverwrite: true,
	})
	if err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// Validate checks settings that cannot be defaulted
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server.port must be numeric: %w", err)
	}
	if c.Circles.MaxMembers < 2 {
		return errors.New("circles.maxMembers must be at least 2")
	}
	if c.Circles.MaxMeetingsPerWeek < 1 {
		return errors.New("circles.maxMeetingsPerWeek must be at least 1")
	}
	if c.KKEM.Iterations < 1 {
		return errors.New("kkem.iterations must be positive")
	}
	switch c.Metrics.Exporter {
	case "none", "console", "otlp":
	default:
		return fmt.Errorf("unknown metrics exporter %q", c.Metrics.Exporter)
	}
	for _, origin := range c.Server.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("server.allowedOrigins entry %q must be * or an http(s) origin", origin)
		}
	}
	if c.IsProduction() {
		if c.JWT.Secret == "" || c.JWT.Secret == insecureJWTSecret {
			return errors.New("jwt.secret must be set to a private value in production")
		}
		if c.KKEM.SecretKey == "" || c.KKEM.Salt == "" {
			return errors.New("kkem.secretKey and kkem.salt are required in production")
		}
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Mode == "production"
}

// GetPostgresConnectionString builds a pgx connection URL
func (c *Config) GetPostgresConnectionString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Database.User, c.Database.Password),
		Host:   fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:   c.Database.Name,
	}
	q := u.Query()
	q.Set("sslmode", c.Database.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
