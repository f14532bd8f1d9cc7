package config

import (
	"log"
	"os"
	"time"
)

// Config collects every env-backed setting in one place. Values come
// from the environment (a .env file is loaded by main before this runs).
type Config struct {
	Port          string
	DatabaseURL   string
	SessionSecret string
	JWTSecret     string
	RedisAddr     string

	// How long after creation a post/comment stays editable and
	// deletable by its author.
	PostEditWindow    time.Duration
	CommentEditWindow time.Duration
}

const defaultEditWindow = 10 * time.Minute

func Load() *Config {
	cfg := &Config{
		Port:              getenv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SessionSecret:     getenv("SESSION_SECRET", "secret_key_change_me"),
		JWTSecret:         getenv("JWT_SECRET", "jwt_secret_change_me"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		PostEditWindow:    getDuration("POST_EDIT_WINDOW", defaultEditWindow),
		CommentEditWindow: getDuration("COMMENT_EDIT_WINDOW", defaultEditWindow),
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid duration in %s: %q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}
