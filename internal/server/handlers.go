package server

import (
	"bytes"
	"html/template"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/botboard/botboard/internal/domain"
	apperrors "github.com/botboard/botboard/internal/errors"
)

// renderPage renders a named template to a buffer first to prevent partial
// HTML from being sent if template execution fails.
func (s *Server) renderPage(c echo.Context, name string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	if token, ok := c.Get("csrf").(string); ok {
		data["CSRFToken"] = token
	}
	data["Flashes"] = s.takeFlashes(c)

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return apperrors.InternalError("failed to render page", err).
			WithContext("template", name)
	}
	return c.HTMLBlob(200, buf.Bytes())
}

// renderMarkdown converts a listing description to HTML for the detail page.
func (s *Server) renderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(source), &buf); err != nil {
		slog.Warn("Failed to render markdown", "error", err)
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(buf.String())
}

// currentUser loads the session user, or nil for anonymous visitors.
func (s *Server) currentUser(c echo.Context) *domain.User {
	userUUID, ok := c.Get("userID").(uuid.UUID)
	if !ok {
		return nil
	}
	user, err := s.users.GetByID(c.Request().Context(), userUUID)
	if err != nil {
		slog.Warn("Failed to load session user", "user_id", userUUID, "error", err)
		return nil
	}
	return user
}

// addFlash queues a one-shot message shown on the next rendered page.
func (s *Server) addFlash(c echo.Context, kind, message string) {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return
	}
	session.AddFlash(kind + ":" + message)
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Warn("Failed to save flash", "error", err)
	}
}

type flash struct {
	Kind    string
	Message string
}

func (s *Server) takeFlashes(c echo.Context) []flash {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return nil
	}
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Warn("Failed to clear flashes", "error", err)
	}

	flashes := make([]flash, 0, len(raw))
	for _, entry := range raw {
		str, ok := entry.(string)
		if !ok {
			continue
		}
		kind, message := "info", str
		for i := 0; i < len(str); i++ {
			if str[i] == ':' {
				kind, message = str[:i], str[i+1:]
				break
			}
		}
		flashes = append(flashes, flash{Kind: kind, Message: message})
	}
	return flashes
}
