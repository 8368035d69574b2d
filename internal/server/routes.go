package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Public listing pages (session read is optional)
	s.echo.GET("/", s.handleIndex, s.withUser)
	s.echo.GET("/bots/:id", s.handleBotDetail, s.withUser)

	// Auth routes (logout requires CSRF, others don't)
	s.echo.GET("/auth/login", s.handleLogin)
	s.echo.GET("/auth/callback", s.handleOAuthCallback)
	s.echo.POST("/auth/logout", s.handleLogout, s.requireAuth, s.csrfMiddleware())

	// Listing management (authenticated + CSRF protected)
	s.echo.GET("/bots/new", s.handleNewBotForm, s.requireAuth, s.csrfMiddleware())
	s.echo.POST("/bots/new", s.handleCreateBot, s.requireAuth, s.csrfMiddleware())
	s.echo.GET("/bots/:id/edit", s.handleEditBotForm, s.requireAuth, s.csrfMiddleware())
	s.echo.POST("/bots/:id/edit", s.handleUpdateBot, s.requireAuth, s.csrfMiddleware())
	s.echo.POST("/bots/:id/delete", s.handleDeleteBot, s.requireAuth, s.csrfMiddleware())

	// JSON API (authenticated, rate limited per IP)
	api := s.echo.Group("/api", s.requireAuthAPI, newRateLimiter(5, 10))
	api.POST("/bots/:id/upvote", s.handleUpvote)
	api.GET("/fetch-bot-info/:id", s.handleFetchBotInfo)
}
