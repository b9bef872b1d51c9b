package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	sharedConfig "github.com/blink-inc/blink/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Auth      sharedConfig.AuthConfig      `mapstructure:"auth"`
	Cookie    sharedConfig.CookieConfig    `mapstructure:"cookie"`
	WebAuthn  sharedConfig.WebAuthnConfig  `mapstructure:"webauthn"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	RateLimit sharedConfig.RateLimitConfig `mapstructure:"rate_limit"`
}

// Load builds the process configuration from an optional .env file, the YAML
// config file and BLINK_* environment variables, in increasing precedence.
// The returned value is meant to be constructed once and passed down explicitly.
func Load(env, configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("BLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the authentication core cannot run with.
func (c *Config) Validate() error {
	if c.Auth.JWT.Secret == "" {
		return fmt.Errorf("auth.jwt.secret is required")
	}
	if c.Auth.JWT.Issuer == "" {
		return fmt.Errorf("auth.jwt.issuer is required")
	}
	if c.Auth.JWT.ExpDays <= 0 {
		return fmt.Errorf("auth.jwt.exp_days must be positive")
	}
	if len(c.Auth.JWT.Audience) == 0 {
		return fmt.Errorf("auth.jwt.audience must not be empty")
	}
	if !c.WebAuthn.IsConfigured() {
		return fmt.Errorf("webauthn is not configured: rp_id, rp_name, and rp_origins are required")
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "blink_dev")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("auth.password.bcrypt_cost", 12)
	v.SetDefault("auth.jwt.secret", "change-me-in-production")
	v.SetDefault("auth.jwt.issuer", "blink")
	v.SetDefault("auth.jwt.exp_days", 35)
	v.SetDefault("auth.jwt.audience", []string{"core:user", "core:admin"})

	v.SetDefault("cookie.domain", "")
	v.SetDefault("cookie.path", "/")
	v.SetDefault("cookie.secure", false)
	v.SetDefault("cookie.same_site", "Strict")

	v.SetDefault("webauthn.rp_id", "localhost")
	v.SetDefault("webauthn.rp_name", "Blink")
	v.SetDefault("webauthn.rp_origins", []string{"http://localhost:3000"})
	v.SetDefault("webauthn.timeout", 300000)
	v.SetDefault("webauthn.challenge_ttl_seconds", 300)
	v.SetDefault("webauthn.challenge_store", "redis")
	v.SetDefault("webauthn.challenge_store_capacity", 10000)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.metadata_db", 1)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.limit", 30)
	v.SetDefault("rate_limit.window_seconds", 60)
}
