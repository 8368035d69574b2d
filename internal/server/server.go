package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/botboard/botboard/internal/authz"
	"github.com/botboard/botboard/internal/config"
	"github.com/botboard/botboard/internal/discord"
	"github.com/botboard/botboard/internal/domain"
	apperrors "github.com/botboard/botboard/internal/errors"
	"github.com/botboard/botboard/web"
)

const sessionMaxAgeDays = 7

type Server struct {
	echo         *echo.Echo
	config       *config.Config
	bots         domain.BotRepository
	users        domain.UserRepository
	cooldown     domain.CooldownTracker
	policy       *authz.Policy
	oauthClient  discord.OAuthClient
	botInfo      discord.BotInfoFetcher
	sessionStore *sessions.CookieStore
	templates    *template.Template
	markdown     goldmark.Markdown
	db           *pgxpool.Pool
	redisClient  *goredis.Client
	startTime    time.Time
}

// NewServer wires the HTTP layer. redisClient may be nil when the in-memory
// cooldown tracker is used; the readiness probe then skips the Redis check.
func NewServer(
	cfg *config.Config,
	bots domain.BotRepository,
	users domain.UserRepository,
	cooldown domain.CooldownTracker,
	policy *authz.Policy,
	oauthClient discord.OAuthClient,
	botInfo discord.BotInfoFetcher,
	db *pgxpool.Pool,
	redisClient *goredis.Client,
) (*Server, error) {
	templates, err := template.ParseFS(web.TemplateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(correlationMiddleware)
	e.Use(apperrors.Middleware())

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * sessionMaxAgeDays,
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	srv := &Server{
		echo:         e,
		config:       cfg,
		bots:         bots,
		users:        users,
		cooldown:     cooldown,
		policy:       policy,
		oauthClient:  oauthClient,
		botInfo:      botInfo,
		sessionStore: sessionStore,
		templates:    templates,
		markdown:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		db:           db,
		redisClient:  redisClient,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
