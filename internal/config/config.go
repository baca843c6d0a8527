package config

import (
	"errors"
	"os"
	"strings"
)

type Config struct {
	DBDSN    string
	HTTPAddr string
	LogLevel string
	RedisDSN string

	// raw secrets kept in-memory only; never log these
	ClerkSecretKey     string
	ClerkWebhookSecret string

	CORSOrigins []string

	// avatar mirror bucket; mirroring is disabled when the bucket is unset
	AvatarBucket    string
	AvatarEndpoint  string
	AvatarPublicURL string
	AvatarRegion    string
}

func Load() (Config, error) {
	cfg := Config{
		DBDSN:              os.Getenv("DB_DSN"),
		HTTPAddr:           getenvDefault("HTTP_ADDR", ":8080"),
		LogLevel:           getenvDefault("LOG_LEVEL", "info"),
		RedisDSN:           getenvDefault("REDIS_DSN", "redis://localhost:6379/0"),
		ClerkSecretKey:     os.Getenv("CLERK_SECRET_KEY"),
		ClerkWebhookSecret: os.Getenv("CLERK_WEBHOOK_SECRET"),
		AvatarBucket:       getenvDefault("AVATAR_BUCKET", ""),
		AvatarEndpoint:     getenvDefault("AVATAR_ENDPOINT", ""),
		AvatarPublicURL:    getenvDefault("AVATAR_PUBLIC_URL", ""),
		AvatarRegion:       getenvDefault("AVATAR_REGION", "auto"),
	}

	if cfg.DBDSN == "" {
		return Config{}, errors.New("missing DB_DSN")
	}

	// CLERK_WEBHOOK_SECRET is deliberately not required here: the webhook
	// handler fails closed with a config error when it is unset, and the
	// rest of the API still runs.

	corsOrigins := getenvDefault("CORS_ORIGINS", "")
	if corsOrigins != "" {
		cfg.CORSOrigins = strings.Split(corsOrigins, ",")
		for i := range cfg.CORSOrigins {
			cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
		}
	} else {
		cfg.CORSOrigins = []string{"http://localhost:3000"} // default
	}

	return cfg, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
