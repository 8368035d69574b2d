package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/botboard/botboard/internal/correlation"
	apperrors "github.com/botboard/botboard/internal/errors"
)

// Session keys
const (
	sessionName          = "botboard-session"
	sessionKeyUserID     = "user_id"
	sessionKeyOAuthState = "oauth_state"
)

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// sessionUserID extracts the authenticated user's UUID from the session,
// returning uuid.Nil when there is no valid session.
func (s *Server) sessionUserID(c echo.Context) uuid.UUID {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return uuid.Nil
	}

	raw, ok := session.Values[sessionKeyUserID]
	if !ok {
		return uuid.Nil
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil
	}
	userUUID, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil
	}
	return userUUID
}

// requireAuth guards browser routes: unauthenticated requests are redirected
// to the login flow.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userUUID := s.sessionUserID(c)
		if userUUID == uuid.Nil {
			return c.Redirect(http.StatusFound, "/auth/login")
		}
		c.Set("userID", userUUID)
		return next(c)
	}
}

// requireAuthAPI guards JSON routes: unauthenticated requests get 401.
func (s *Server) requireAuthAPI(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userUUID := s.sessionUserID(c)
		if userUUID == uuid.Nil {
			return apperrors.UnauthenticatedError("Login required")
		}
		c.Set("userID", userUUID)
		return next(c)
	}
}

// withUser resolves the session user for public pages without requiring
// one. Handlers see a nil user for anonymous visitors.
func (s *Server) withUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if userUUID := s.sessionUserID(c); userUUID != uuid.Nil {
			c.Set("userID", userUUID)
		}
		return next(c)
	}
}

func (s *Server) csrfMiddleware() echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:csrf,header:X-CSRF-Token",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   s.config.AppEnv == "production",
		CookieSameSite: http.SameSiteLaxMode,
	})
}
