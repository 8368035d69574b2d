package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botboard/botboard/internal/discord"
	"github.com/botboard/botboard/internal/domain"
)

// --- handleUpvote tests ---

func TestHandleUpvote_Success(t *testing.T) {
	userID := uuid.New()
	user := testUser(userID, "voter-1")
	bot := &domain.Bot{ID: "bot-1", Name: "TestBot", OwnerID: "owner-1", Upvotes: 41}

	var recordedActor, recordedBot string
	cooldown := &mockCooldown{
		tryRecordFn: func(_ context.Context, actorID, botID string) (domain.Decision, error) {
			recordedActor, recordedBot = actorID, botID
			return domain.Decision{Allowed: true}, nil
		},
	}
	bots := botRepoReturning(bot)
	bots.incrementUpvotesFn = func(_ context.Context, botID string) (int, error) {
		require.Equal(t, "bot-1", botID)
		return 42, nil
	}

	srv := newTestServer(t, withBots(bots), withUsers(userRepoReturning(user)), withCooldown(cooldown))

	req := httptest.NewRequest(http.MethodPost, "/api/bots/bot-1/upvote", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("bot-1")
	c.Set("userID", userID)

	err := srv.handleUpvote(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(42), resp["upvotes"])

	// The cooldown is keyed by Discord id, not the session UUID.
	assert.Equal(t, "voter-1", recordedActor)
	assert.Equal(t, "bot-1", recordedBot)
}

func TestHandleUpvote_CooldownActive(t *testing.T) {
	userID := uuid.New()
	user := testUser(userID, "voter-1")
	bot := &domain.Bot{ID: "bot-1", OwnerID: "owner-1"}

	incremented := false
	bots := botRepoReturning(bot)
	bots.incrementUpvotesFn = func(_ context.Context, _ string) (int, error) {
		incremented = true
		return 0, nil
	}
	cooldown := &mockCooldown{
		tryRecordFn: func(_ context.Context, _, _ string) (domain.Decision, error) {
			return domain.Decision{Remaining: 5*time.Hour + 59*time.Minute}, nil
		},
	}

	srv := newTestServer(t, withBots(bots), withUsers(userRepoReturning(user)), withCooldown(cooldown))

	req := httptest.NewRequest(http.MethodPost, "/api/bots/bot-1/upvote", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("bot-1")
	c.Set("userID", userID)

	_ = callHandler(srv.handleUpvote, c)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Cooldown: next vote in 5h 59m", resp["error"])
	assert.Equal(t, "5h 59m", resp["context"].(map[string]any)["retry_in"])

	assert.False(t, incremented, "Rejected vote must not change the counter")
}

func TestHandleUpvote_TrackerErrorFailsClosed(t *testing.T) {
	userID := uuid.New()
	user := testUser(userID, "voter-1")
	bot := &domain.Bot{ID: "bot-1", OwnerID: "owner-1"}

	incremented := false
	bots := botRepoReturning(bot)
	bots.incrementUpvotesFn = func(_ context.Context, _ string) (int, error) {
		incremented = true
		return 0, nil
	}
	cooldown := &mockCooldown{
		tryRecordFn: func(_ context.Context, _, _ string) (domain.Decision, error) {
			return domain.Decision{}, errors.New("redis connection refused")
		},
	}

	srv := newTestServer(t, withBots(bots), withUsers(userRepoReturning(user)), withCooldown(cooldown))

	req := httptest.NewRequest(http.MethodPost, "/api/bots/bot-1/upvote", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("bot-1")
	c.Set("userID", userID)

	_ = callHandler(srv.handleUpvote, c)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, incremented, "A broken tracker must never admit a vote")
}

func TestHandleUpvote_BotNotFound(t *testing.T) {
	userID := uuid.New()
	user := testUser(userID, "voter-1")

	srv := newTestServer(t, withUsers(userRepoReturning(user)))

	req := httptest.NewRequest(http.MethodPost, "/api/bots/missing/upvote", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")
	c.Set("userID", userID)

	_ = callHandler(srv.handleUpvote, c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleUpvote_Unauthenticated(t *testing.T) {
	srv := newTestServer(t)

	// Through the full router: no session cookie means the API auth
	// middleware rejects before the handler runs.
	req := httptest.NewRequest(http.MethodPost, "/api/bots/bot-1/upvote", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// --- handleFetchBotInfo tests ---

func TestHandleFetchBotInfo_Success(t *testing.T) {
	fetcher := &mockBotInfoFetcher{
		fetchBotInfoFn: func(_ context.Context, botID string) (*discord.BotInfo, error) {
			require.Equal(t, "12345", botID)
			return &discord.BotInfo{
				ID:        "12345",
				Username:  "HelperBot",
				AvatarURL: "https://cdn.discordapp.com/avatars/12345/abc.png",
			}, nil
		},
	}
	srv := newTestServer(t, withBotInfoFetcher(fetcher))

	req := httptest.NewRequest(http.MethodGet, "/api/fetch-bot-info/12345", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("12345")
	c.Set("userID", uuid.New())

	err := srv.handleFetchBotInfo(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "HelperBot", resp["username"])
}

func TestHandleFetchBotInfo_NotFound(t *testing.T) {
	fetcher := &mockBotInfoFetcher{
		fetchBotInfoFn: func(_ context.Context, _ string) (*discord.BotInfo, error) {
			return nil, discord.ErrBotNotFound
		},
	}
	srv := newTestServer(t, withBotInfoFetcher(fetcher))

	req := httptest.NewRequest(http.MethodGet, "/api/fetch-bot-info/999", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")
	c.Set("userID", uuid.New())

	_ = callHandler(srv.handleFetchBotInfo, c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleFetchBotInfo_NotABot(t *testing.T) {
	fetcher := &mockBotInfoFetcher{
		fetchBotInfoFn: func(_ context.Context, _ string) (*discord.BotInfo, error) {
			return nil, discord.ErrNotABot
		},
	}
	srv := newTestServer(t, withBotInfoFetcher(fetcher))

	req := httptest.NewRequest(http.MethodGet, "/api/fetch-bot-info/555", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("555")
	c.Set("userID", uuid.New())

	_ = callHandler(srv.handleFetchBotInfo, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleFetchBotInfo_DiscordDown(t *testing.T) {
	fetcher := &mockBotInfoFetcher{
		fetchBotInfoFn: func(_ context.Context, _ string) (*discord.BotInfo, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
	srv := newTestServer(t, withBotInfoFetcher(fetcher))

	req := httptest.NewRequest(http.MethodGet, "/api/fetch-bot-info/555", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("555")
	c.Set("userID", uuid.New())

	_ = callHandler(srv.handleFetchBotInfo, c)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
