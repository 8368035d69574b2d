package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/botboard/botboard/internal/discord"
	"github.com/botboard/botboard/internal/domain"
	apperrors "github.com/botboard/botboard/internal/errors"
	"github.com/botboard/botboard/internal/metrics"
	"github.com/botboard/botboard/internal/vote"
)

const (
	maxShortDescriptionLen = 150
	maxDescriptionLen      = 10000
)

func (s *Server) handleIndex(c echo.Context) error {
	filter := domain.BotListFilter{
		Search: strings.TrimSpace(c.QueryParam("q")),
		Tag:    c.QueryParam("tag"),
		Sort:   c.QueryParam("sort"),
	}

	bots, err := s.bots.List(c.Request().Context(), filter)
	if err != nil {
		return apperrors.InternalError("failed to list bots", err)
	}

	return s.renderPage(c, "index.html", map[string]any{
		"User":   s.currentUser(c),
		"Bots":   bots,
		"Tags":   domain.PredefinedTags,
		"Filter": filter,
	})
}

func (s *Server) handleBotDetail(c echo.Context) error {
	ctx := c.Request().Context()

	bot, err := s.bots.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrBotNotFound) {
			return apperrors.NotFoundError("Bot not found")
		}
		return apperrors.InternalError("failed to load bot", err)
	}

	user := s.currentUser(c)

	// UI hint only; the authoritative cooldown check happens on the vote
	// endpoint itself.
	cooldownHint := ""
	if user != nil {
		remaining, active, err := s.cooldown.Remaining(ctx, user.DiscordUserID, bot.ID)
		if err != nil {
			slog.Warn("Failed to read vote cooldown", "bot_id", bot.ID, "error", err)
		} else if active {
			cooldownHint = vote.FormatRemaining(remaining)
		}
	}

	return s.renderPage(c, "bot_detail.html", map[string]any{
		"User":            user,
		"Bot":             bot,
		"DescriptionHTML": s.renderMarkdown(bot.Description),
		"CanEdit":         s.policy.CanEdit(bot, user),
		"CanDelete":       s.policy.CanDelete(bot, user),
		"CanVote":         user != nil && cooldownHint == "",
		"CooldownHint":    cooldownHint,
	})
}

func (s *Server) handleNewBotForm(c echo.Context) error {
	return s.renderPage(c, "add_bot.html", map[string]any{
		"User": s.currentUser(c),
		"Tags": domain.PredefinedTags,
	})
}

func (s *Server) handleCreateBot(c echo.Context) error {
	ctx := c.Request().Context()

	user := s.currentUser(c)
	if user == nil {
		return apperrors.UnauthenticatedError("Login required")
	}

	botID := strings.TrimSpace(c.FormValue("bot_id"))
	if botID == "" {
		return apperrors.ValidationError("Bot id is required")
	}

	update, err := listingFormValues(c)
	if err != nil {
		return err
	}

	info, err := s.botInfo.FetchBotInfo(ctx, botID)
	if err != nil {
		switch {
		case errors.Is(err, discord.ErrBotNotFound):
			return apperrors.NotFoundError("No Discord account with that id")
		case errors.Is(err, discord.ErrNotABot):
			return apperrors.ValidationError("That account is not a bot")
		default:
			return apperrors.ExternalError("Discord lookup failed", err)
		}
	}

	bot := &domain.Bot{
		ID:               info.ID,
		Name:             info.Username,
		AvatarURL:        info.AvatarURL,
		BannerURL:        info.BannerURL,
		Description:      update.Description,
		ShortDescription: update.ShortDescription,
		Prefix:           update.Prefix,
		Website:          update.Website,
		SupportServer:    update.SupportServer,
		InviteLink:       update.InviteLink,
		Tags:             update.Tags,
		OwnerID:          user.DiscordUserID,
		OwnerName:        user.Username,
		AddedAt:          time.Now(),
	}

	if err := s.bots.Create(ctx, bot); err != nil {
		if errors.Is(err, domain.ErrBotExists) {
			return apperrors.ConflictError("That bot is already listed")
		}
		return apperrors.InternalError("failed to create listing", err)
	}

	metrics.ListingsCreated.Inc()
	slog.Info("Listing created", "bot_id", bot.ID, "owner_id", user.DiscordUserID)

	s.addFlash(c, "success", "Bot added successfully!")
	return c.Redirect(http.StatusFound, "/bots/"+bot.ID)
}

func (s *Server) handleEditBotForm(c echo.Context) error {
	bot, user, err := s.loadBotForEdit(c)
	if err != nil {
		return err
	}

	return s.renderPage(c, "edit_bot.html", map[string]any{
		"User":         user,
		"Bot":          bot,
		"Tags":         domain.PredefinedTags,
		"SelectedTags": bot.Tags,
		"IsAdmin":      s.policy.IsAdmin(user),
	})
}

func (s *Server) handleUpdateBot(c echo.Context) error {
	ctx := c.Request().Context()

	bot, user, err := s.loadBotForEdit(c)
	if err != nil {
		return err
	}

	update, err := listingFormValues(c)
	if err != nil {
		return err
	}

	if err := s.bots.Update(ctx, bot.ID, *update); err != nil {
		if errors.Is(err, domain.ErrBotNotFound) {
			return apperrors.NotFoundError("Bot not found")
		}
		return apperrors.InternalError("failed to update listing", err)
	}

	// Certification and server count are trusted metadata that only the
	// site admin may change. Owner submissions silently ignore these fields.
	if s.policy.IsAdmin(user) {
		certified := c.FormValue("certified") == "on"
		serverCount := bot.ServerCount
		if raw := strings.TrimSpace(c.FormValue("server_count")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return apperrors.ValidationError("Server count must be a non-negative number")
			}
			serverCount = n
		}
		if err := s.bots.SetAdminFields(ctx, bot.ID, certified, serverCount); err != nil {
			return apperrors.InternalError("failed to update admin fields", err)
		}
	}

	slog.Info("Listing updated", "bot_id", bot.ID, "user_id", user.DiscordUserID)

	s.addFlash(c, "success", "Bot updated successfully!")
	return c.Redirect(http.StatusFound, "/bots/"+bot.ID)
}

func (s *Server) handleDeleteBot(c echo.Context) error {
	ctx := c.Request().Context()

	bot, user, err := s.loadBotForEdit(c)
	if err != nil {
		return err
	}

	if err := s.bots.Delete(ctx, bot.ID); err != nil {
		if errors.Is(err, domain.ErrBotNotFound) {
			return apperrors.NotFoundError("Bot not found")
		}
		return apperrors.InternalError("failed to delete listing", err)
	}

	metrics.ListingsDeleted.Inc()
	slog.Info("Listing deleted", "bot_id", bot.ID, "user_id", user.DiscordUserID)

	s.addFlash(c, "success", "Bot deleted.")
	return c.Redirect(http.StatusFound, "/")
}

// loadBotForEdit resolves the target listing and enforces the edit policy.
// Edit and delete share the same rule, so both flows go through here.
func (s *Server) loadBotForEdit(c echo.Context) (*domain.Bot, *domain.User, error) {
	bot, err := s.bots.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrBotNotFound) {
			return nil, nil, apperrors.NotFoundError("Bot not found")
		}
		return nil, nil, apperrors.InternalError("failed to load bot", err)
	}

	user := s.currentUser(c)
	if user == nil {
		return nil, nil, apperrors.UnauthenticatedError("Login required")
	}
	if !s.policy.CanEdit(bot, user) {
		return nil, nil, apperrors.ForbiddenError("You don't own this bot")
	}

	return bot, user, nil
}

// listingFormValues parses and validates the owner-editable listing fields
// from a submit or edit form.
func listingFormValues(c echo.Context) (*domain.BotUpdate, error) {
	if err := c.Request().ParseForm(); err != nil {
		return nil, apperrors.ValidationError("Malformed form data")
	}

	update := &domain.BotUpdate{
		Description:      strings.TrimSpace(c.FormValue("description")),
		ShortDescription: strings.TrimSpace(c.FormValue("short_description")),
		Prefix:           strings.TrimSpace(c.FormValue("prefix")),
		Website:          strings.TrimSpace(c.FormValue("website")),
		SupportServer:    strings.TrimSpace(c.FormValue("support_server")),
		InviteLink:       strings.TrimSpace(c.FormValue("invite_link")),
		Tags:             selectedTags(c.Request().Form["tags"]),
	}

	if update.ShortDescription == "" {
		return nil, apperrors.ValidationError("Short description is required")
	}
	if len(update.ShortDescription) > maxShortDescriptionLen {
		return nil, apperrors.ValidationError("Short description is too long")
	}
	if update.Description == "" {
		return nil, apperrors.ValidationError("Description is required")
	}
	if len(update.Description) > maxDescriptionLen {
		return nil, apperrors.ValidationError("Description is too long")
	}
	if update.Prefix == "" {
		return nil, apperrors.ValidationError("Prefix is required")
	}

	return update, nil
}

// selectedTags keeps submitted tags that appear in the predefined catalogue,
// preserving catalogue order and dropping duplicates.
func selectedTags(submitted []string) []string {
	chosen := make(map[string]bool, len(submitted))
	for _, tag := range submitted {
		chosen[tag] = true
	}

	tags := make([]string, 0, len(chosen))
	for _, tag := range domain.PredefinedTags {
		if chosen[tag] {
			tags = append(tags, tag)
		}
	}
	return tags
}
