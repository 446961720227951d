// Package config reads the service settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	HTTPAddr        string
	Store           string
	PostgresDSN     string
	MongoURI        string
	MongoDB         string
	RedisAddr       string
	SecretKey       string
	TokenTTL        time.Duration
	LogLevel        string
	SummaryCacheTTL time.Duration
	DefaultAvatar   string
}

var (
	ErrNoSecret = errors.New("config: SECRET_KEY is required")
	ErrBadTTL   = errors.New("config: TOKEN_TTL and SUMMARY_CACHE_TTL must be positive durations")
)

func defaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("STORE", StoreMongo)
	v.SetDefault("POSTGRES_DSN", "postgresql://localhost/blog?sslmode=disable")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DB", "blog")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("TOKEN_TTL", "168h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SUMMARY_CACHE_TTL", "10m")
	v.SetDefault("DEFAULT_AVATAR", "https://cdn.pixabay.com/photo/2015/10/05/22/37/blank-profile-picture-973460_1280.png")
}

// Load reads .env files (if any) into the process environment and
// builds the config from it.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is fine, the environment may already be set.
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		Store:           v.GetString("STORE"),
		PostgresDSN:     v.GetString("POSTGRES_DSN"),
		MongoURI:        v.GetString("MONGODB_URI"),
		MongoDB:         v.GetString("MONGODB_DB"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		SecretKey:       v.GetString("SECRET_KEY"),
		TokenTTL:        v.GetDuration("TOKEN_TTL"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		SummaryCacheTTL: v.GetDuration("SUMMARY_CACHE_TTL"),
		DefaultAvatar:   v.GetString("DEFAULT_AVATAR"),
	}
	if cfg.SecretKey == "" {
		return nil, ErrNoSecret
	}
	if cfg.TokenTTL <= 0 || cfg.SummaryCacheTTL <= 0 {
		return nil, ErrBadTTL
	}
	if cfg.Store != StoreMongo && cfg.Store != StoreMemory {
		return nil, errors.New("config: STORE must be mongo or memory")
	}
	return cfg, nil
}
