package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// Driver selects the gorm dialect: "mysql" or "sqlite".
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	if d.Driver == "sqlite" {
		return d.Database
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC&clientFoundRows=true",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type PasswordConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
	// ExpDays is the fixed session lifetime counted from issuance.
	ExpDays int `mapstructure:"exp_days"`
	// Audience lists the scopes a token must carry at least one of.
	Audience []string `mapstructure:"audience"`
}

// Expiration returns the session token lifetime.
func (j *JWTConfig) Expiration() time.Duration {
	return time.Duration(j.ExpDays) * 24 * time.Hour
}

type AuthConfig struct {
	Password PasswordConfig `mapstructure:"password"`
	JWT      JWTConfig      `mapstructure:"jwt"`
}

type CookieConfig struct {
	Domain   string `mapstructure:"domain"`
	Path     string `mapstructure:"path"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
}

type WebAuthnConfig struct {
	RPID      string   `mapstructure:"rp_id"`
	RPName    string   `mapstructure:"rp_name"`
	RPOrigins []string `mapstructure:"rp_origins"`
	// Timeout is the ceremony timeout handed to the authenticator, in milliseconds.
	Timeout             int `mapstructure:"timeout"`
	ChallengeTTLSeconds int `mapstructure:"challenge_ttl_seconds"`
	// ChallengeStore is "redis" (default) or "memory".
	ChallengeStore string `mapstructure:"challenge_store"`
	// ChallengeStoreCapacity bounds live ceremonies in the memory store.
	ChallengeStoreCapacity int `mapstructure:"challenge_store_capacity"`
}

// IsConfigured reports whether the relying-party identity is complete.
func (w *WebAuthnConfig) IsConfigured() bool {
	return w.RPID != "" && w.RPName != "" && len(w.RPOrigins) > 0
}

// ChallengeTTL returns how long an unconsumed challenge stays readable.
func (w *WebAuthnConfig) ChallengeTTL() time.Duration {
	if w.ChallengeTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(w.ChallengeTTLSeconds) * time.Second
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// MetadataDB is the logical database holding the AAGUID table.
	MetadataDB int `mapstructure:"metadata_db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type RateLimitConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	Limit         int  `mapstructure:"limit"`
	WindowSeconds int  `mapstructure:"window_seconds"`
}
