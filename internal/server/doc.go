// Package server implements the HTTP server using Echo framework.
//
// Routes: listing pages (browse/detail/submit/edit), auth (Discord OAuth),
// JSON API (upvote, bot info lookup), and observability endpoints.
// Handlers split by concern: handlers_auth.go, handlers_bots.go,
// handlers_api.go, handlers_health.go.
package server
