package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Lookup   LookupConfig
	Session  SessionConfig
}

type ServerConfig struct {
	Port         string
	CORSOrigins  []string
	QueryTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
}

// JWTConfig holds the bearer token secret; an empty secret disables auth
type JWTConfig struct {
	Secret string
}

type LookupConfig struct {
	CacheTTL time.Duration
}

type SessionConfig struct {
	IdleTTL     time.Duration
	MaxSessions int
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "20002")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("QUERY_TIMEOUT", "60s")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_NAME", "ai_banker")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("LOOKUP_CACHE_TTL", "5m")
	v.SetDefault("SESSION_IDLE_TTL", "30m")
	v.SetDefault("MAX_SESSIONS", 1000)
}

// Load resolves configuration from the environment
func Load() (*Config, error) {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("PORT"),
			CORSOrigins:  splitList(v.GetString("CORS_ORIGINS")),
			QueryTimeout: v.GetDuration("QUERY_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Database: v.GetString("DB_NAME"),
			Username: v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		Lookup: LookupConfig{
			CacheTTL: v.GetDuration("LOOKUP_CACHE_TTL"),
		},
		Session: SessionConfig{
			IdleTTL:     v.GetDuration("SESSION_IDLE_TTL"),
			MaxSessions: v.GetInt("MAX_SESSIONS"),
		},
	}

	if cfg.Server.Port == "" {
		return nil, fmt.Errorf("PORT must not be empty")
	}
	if cfg.Session.IdleTTL <= 0 {
		return nil, fmt.Errorf("SESSION_IDLE_TTL must be positive, got %q", v.GetString("SESSION_IDLE_TTL"))
	}
	if cfg.Server.QueryTimeout <= 0 {
		return nil, fmt.Errorf("QUERY_TIMEOUT must be positive, got %q", v.GetString("QUERY_TIMEOUT"))
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
