package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/botboard/botboard/internal/authz"
	"github.com/botboard/botboard/internal/config"
	"github.com/botboard/botboard/internal/database"
	"github.com/botboard/botboard/internal/discord"
	"github.com/botboard/botboard/internal/domain"
	"github.com/botboard/botboard/internal/logging"
	"github.com/botboard/botboard/internal/metrics"
	"github.com/botboard/botboard/internal/redis"
	"github.com/botboard/botboard/internal/server"
	"github.com/botboard/botboard/internal/version"
	"github.com/botboard/botboard/internal/vote"
)

const evictionInterval = 10 * time.Minute

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return db
}

// setupCooldown picks the cooldown backend. With REDIS_URL set the window is
// shared across instances and survives restarts; without it a process-local
// tracker with periodic eviction is used.
func setupCooldown(cfg *config.Config, clock clockwork.Clock) (domain.CooldownTracker, *goredis.Client, func()) {
	if cfg.RedisURL == "" {
		slog.Info("Using in-memory vote cooldown tracker", "window", cfg.VoteCooldown)
		tracker := vote.NewTracker(cfg.VoteCooldown, clock)
		stopEviction := tracker.StartEvictionTimer(evictionInterval)
		return tracker, nil, stopEviction
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	slog.Info("Using Redis vote cooldown store", "window", cfg.VoteCooldown)
	return redis.NewCooldownStore(client, cfg.VoteCooldown), client, func() { _ = client.Close() }
}

func runGracefulShutdown(srv *server.Server, cleanups ...func()) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		for _, cleanup := range cleanups {
			cleanup()
		}

		close(done)
	}()

	return done
}

func main() {
	_ = godotenv.Load()

	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	info := version.Get()
	metrics.BuildInfo.WithLabelValues(info.Version, info.Commit, info.BuildTime, info.GoVersion).Set(1)

	pool := setupDB(cfg)
	defer pool.Close()

	cooldown, redisClient, stopCooldown := setupCooldown(cfg, clock)

	botRepo := database.NewBotRepo(pool)
	userRepo := database.NewUserRepo(pool)

	policy := authz.NewPolicy(cfg.SiteAdminID)
	if cfg.SiteAdminID == "" {
		slog.Warn("SITE_ADMIN_ID not set, admin features disabled")
	}

	oauthClient := discord.NewOAuthClient(cfg.DiscordClientID, cfg.DiscordClientSecret, cfg.DiscordRedirectURI)
	botInfoClient := discord.NewClient(cfg.DiscordBotToken)

	srv, err := server.NewServer(cfg, botRepo, userRepo, cooldown, policy, oauthClient, botInfoClient, pool, redisClient)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, stopCooldown)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
