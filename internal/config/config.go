package config

import (
	"fmt"
	"os"
	"time"
)

// DefaultVoteCooldown is the window between successive upvotes by the same
// user on the same bot.
const DefaultVoteCooldown = 6 * time.Hour

type Config struct {
	AppEnv              string
	Port                string
	DatabaseURL         string
	RedisURL            string
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string
	DiscordBotToken     string
	SessionSecret       string
	SiteAdminID         string
	VoteCooldown        time.Duration
	LogLevel            string
	LogFormat           string
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		DiscordClientID:     getEnv("DISCORD_CLIENT_ID", ""),
		DiscordClientSecret: getEnv("DISCORD_CLIENT_SECRET", ""),
		DiscordRedirectURI:  getEnv("DISCORD_REDIRECT_URI", ""),
		DiscordBotToken:     getEnv("DISCORD_BOT_TOKEN", ""),
		SessionSecret:       getEnv("SESSION_SECRET", ""),
		SiteAdminID:         getEnv("SITE_ADMIN_ID", ""),
		VoteCooldown:        DefaultVoteCooldown,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.DiscordClientID == "" {
		return nil, fmt.Errorf("DISCORD_CLIENT_ID is required")
	}
	if cfg.DiscordClientSecret == "" {
		return nil, fmt.Errorf("DISCORD_CLIENT_SECRET is required")
	}
	if cfg.DiscordRedirectURI == "" {
		return nil, fmt.Errorf("DISCORD_REDIRECT_URI is required")
	}
	if cfg.DiscordBotToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	if raw := os.Getenv("VOTE_COOLDOWN"); raw != "" {
		window, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("VOTE_COOLDOWN must be a valid duration: %w", err)
		}
		if window <= 0 {
			return nil, fmt.Errorf("VOTE_COOLDOWN must be positive, got %s", window)
		}
		cfg.VoteCooldown = window
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
