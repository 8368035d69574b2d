package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/botboard/botboard/internal/metrics"
	"github.com/botboard/botboard/internal/retry"
)

const (
	apiBaseURL       = "https://discord.com/api/v10"
	cdnBaseURL       = "https://cdn.discordapp.com"
	defaultAvatarURL = cdnBaseURL + "/embed/avatars/0.png"
)

// ErrNotABot is returned when the looked-up account belongs to a regular
// user rather than a bot.
var ErrNotABot = errors.New("account is not a bot")

// ErrBotNotFound is returned when Discord does not know the account id.
var ErrBotNotFound = errors.New("bot account not found")

// BotInfo is the subset of a Discord bot account used to seed a listing.
type BotInfo struct {
	ID        string
	Username  string
	AvatarURL string
	BannerURL string
}

// BotInfoFetcher looks up bot accounts by snowflake id.
type BotInfoFetcher interface {
	FetchBotInfo(ctx context.Context, botID string) (*BotInfo, error)
}

// Client performs authenticated Discord API calls using the site's bot token.
type Client struct {
	botToken   string
	httpClient *http.Client
	retry      retry.Policy
}

func NewClient(botToken string) *Client {
	return &Client{
		botToken:   botToken,
		httpClient: &http.Client{Timeout: callTimeout},
		retry: retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   200 * time.Millisecond,
			RateLimitBackoff: 2 * time.Second,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Warn("Retrying Discord API call", "attempt", attempt, "backoff", backoff, "error", err)
			},
		},
	}
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("discord returned status %d", e.code)
}

func classify(err error) retry.Action {
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.code == http.StatusTooManyRequests:
			return retry.After
		case se.code >= 500:
			return retry.Retry
		default:
			return retry.Stop
		}
	}
	if errors.Is(err, ErrBotNotFound) || errors.Is(err, ErrNotABot) {
		return retry.Stop
	}
	// Network-level failures are worth retrying.
	return retry.Retry
}

// FetchBotInfo fetches the account for botID and verifies it is a bot.
// Transient Discord failures are retried; 404 and non-bot accounts are
// permanent.
func (c *Client) FetchBotInfo(ctx context.Context, botID string) (*BotInfo, error) {
	info, err := retry.Do(ctx, c.retry, classify, func() (*BotInfo, error) {
		return c.fetchBotInfo(ctx, botID)
	})

	var permanent *retry.PermanentError
	if errors.As(err, &permanent) {
		return nil, permanent.Err
	}
	return info, err
}

func (c *Client) fetchBotInfo(ctx context.Context, botID string) (*BotInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/users/%s", apiBaseURL, botID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot info request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.botToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.DiscordAPIRequests.WithLabelValues("users", "error").Inc()
		return nil, fmt.Errorf("failed to execute bot info request: %w", err)
	}
	defer resp.Body.Close()
	metrics.DiscordAPIRequests.WithLabelValues("users", fmt.Sprint(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrBotNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}

	var userResp struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Avatar   string `json:"avatar"`
		Banner   string `json:"banner"`
		Bot      bool   `json:"bot"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userResp); err != nil {
		return nil, fmt.Errorf("failed to decode bot info response: %w", err)
	}

	if !userResp.Bot {
		return nil, ErrNotABot
	}

	return &BotInfo{
		ID:        userResp.ID,
		Username:  userResp.Username,
		AvatarURL: AvatarURL(userResp.ID, userResp.Avatar),
		BannerURL: BannerURL(userResp.ID, userResp.Banner),
	}, nil
}

// AvatarURL builds the CDN avatar URL, falling back to the default embed
// avatar when the account has none.
func AvatarURL(userID, avatarHash string) string {
	if avatarHash == "" {
		return defaultAvatarURL
	}
	return fmt.Sprintf("%s/avatars/%s/%s.png", cdnBaseURL, userID, avatarHash)
}

// BannerURL builds the CDN banner URL; empty when the account has no banner.
func BannerURL(userID, bannerHash string) string {
	if bannerHash == "" {
		return ""
	}
	return fmt.Sprintf("%s/banners/%s/%s.png", cdnBaseURL, userID, bannerHash)
}
