package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/botboard/botboard/internal/discord"
	"github.com/botboard/botboard/internal/domain"
	apperrors "github.com/botboard/botboard/internal/errors"
	"github.com/botboard/botboard/internal/metrics"
)

// handleUpvote records a vote for a listing. The cooldown check and the
// timestamp write happen atomically in the tracker, so two concurrent
// requests from the same user admit at most one vote.
func (s *Server) handleUpvote(c echo.Context) error {
	ctx := c.Request().Context()

	userUUID := c.Get("userID").(uuid.UUID)
	user, err := s.users.GetByID(ctx, userUUID)
	if err != nil {
		return apperrors.InternalError("failed to load user", err)
	}

	bot, err := s.bots.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrBotNotFound) {
			return apperrors.NotFoundError("Bot not found")
		}
		return apperrors.InternalError("failed to load bot", err)
	}

	decision, err := s.cooldown.TryRecord(ctx, user.DiscordUserID, bot.ID)
	if err != nil {
		metrics.VotesTotal.WithLabelValues("error").Inc()
		return apperrors.ExternalError("vote service unavailable", err)
	}
	if !decision.Allowed {
		metrics.VotesTotal.WithLabelValues("cooldown").Inc()
		return apperrors.CooldownError(decision.Remaining)
	}

	upvotes, err := s.bots.IncrementUpvotes(ctx, bot.ID)
	if err != nil {
		return apperrors.InternalError("failed to record vote", err)
	}

	metrics.VotesTotal.WithLabelValues("admitted").Inc()
	slog.Info("Vote recorded", "user_id", user.DiscordUserID, "bot_id", bot.ID)

	return c.JSON(http.StatusOK, map[string]any{
		"upvotes": upvotes,
	})
}

// handleFetchBotInfo proxies a Discord account lookup so the submit form can
// prefill name and avatar from a snowflake id.
func (s *Server) handleFetchBotInfo(c echo.Context) error {
	botID := c.Param("id")
	if botID == "" {
		return apperrors.ValidationError("Bot id is required")
	}

	info, err := s.botInfo.FetchBotInfo(c.Request().Context(), botID)
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

	return c.JSON(http.StatusOK, map[string]any{
		"id":         info.ID,
		"username":   info.Username,
		"avatar_url": info.AvatarURL,
		"banner_url": info.BannerURL,
	})
}
