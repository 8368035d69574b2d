package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"

	"github.com/botboard/botboard/internal/authz"
	"github.com/botboard/botboard/internal/config"
	"github.com/botboard/botboard/internal/discord"
	"github.com/botboard/botboard/internal/domain"
	apperrors "github.com/botboard/botboard/internal/errors"
)

// --- Mock implementations ---

type mockBotRepo struct {
	listFn             func(ctx context.Context, filter domain.BotListFilter) ([]domain.Bot, error)
	getByIDFn          func(ctx context.Context, botID string) (*domain.Bot, error)
	createFn           func(ctx context.Context, bot *domain.Bot) error
	updateFn           func(ctx context.Context, botID string, update domain.BotUpdate) error
	setAdminFieldsFn   func(ctx context.Context, botID string, certified bool, serverCount int) error
	deleteFn           func(ctx context.Context, botID string) error
	incrementUpvotesFn func(ctx context.Context, botID string) (int, error)
}

func (m *mockBotRepo) List(ctx context.Context, filter domain.BotListFilter) ([]domain.Bot, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockBotRepo) GetByID(ctx context.Context, botID string) (*domain.Bot, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, botID)
	}
	return nil, domain.ErrBotNotFound
}

func (m *mockBotRepo) Create(ctx context.Context, bot *domain.Bot) error {
	if m.createFn != nil {
		return m.createFn(ctx, bot)
	}
	return nil
}

func (m *mockBotRepo) Update(ctx context.Context, botID string, update domain.BotUpdate) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, botID, update)
	}
	return nil
}

func (m *mockBotRepo) SetAdminFields(ctx context.Context, botID string, certified bool, serverCount int) error {
	if m.setAdminFieldsFn != nil {
		return m.setAdminFieldsFn(ctx, botID, certified, serverCount)
	}
	return nil
}

func (m *mockBotRepo) Delete(ctx context.Context, botID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, botID)
	}
	return nil
}

func (m *mockBotRepo) IncrementUpvotes(ctx context.Context, botID string) (int, error) {
	if m.incrementUpvotesFn != nil {
		return m.incrementUpvotesFn(ctx, botID)
	}
	return 1, nil
}

type mockUserRepo struct {
	getByIDFn func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	upsertFn  func(ctx context.Context, discordUserID, username, avatarURL string) (*domain.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, userID)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) Upsert(ctx context.Context, discordUserID, username, avatarURL string) (*domain.User, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, discordUserID, username, avatarURL)
	}
	return nil, errors.New("not implemented")
}

type mockCooldown struct {
	tryRecordFn func(ctx context.Context, actorID, botID string) (domain.Decision, error)
	remainingFn func(ctx context.Context, actorID, botID string) (time.Duration, bool, error)
}

func (m *mockCooldown) TryRecord(ctx context.Context, actorID, botID string) (domain.Decision, error) {
	if m.tryRecordFn != nil {
		return m.tryRecordFn(ctx, actorID, botID)
	}
	return domain.Decision{Allowed: true}, nil
}

func (m *mockCooldown) Remaining(ctx context.Context, actorID, botID string) (time.Duration, bool, error) {
	if m.remainingFn != nil {
		return m.remainingFn(ctx, actorID, botID)
	}
	return 0, false, nil
}

type mockOAuthClient struct {
	authorizeURLFn        func(state string) string
	exchangeCodeForUserFn func(ctx context.Context, code string) (*discord.AuthResult, error)
}

func (m *mockOAuthClient) AuthorizeURL(state string) string {
	if m.authorizeURLFn != nil {
		return m.authorizeURLFn(state)
	}
	return "https://discord.com/oauth2/authorize?state=" + state
}

func (m *mockOAuthClient) ExchangeCodeForUser(ctx context.Context, code string) (*discord.AuthResult, error) {
	if m.exchangeCodeForUserFn != nil {
		return m.exchangeCodeForUserFn(ctx, code)
	}
	return nil, errors.New("not implemented")
}

type mockBotInfoFetcher struct {
	fetchBotInfoFn func(ctx context.Context, botID string) (*discord.BotInfo, error)
}

func (m *mockBotInfoFetcher) FetchBotInfo(ctx context.Context, botID string) (*discord.BotInfo, error) {
	if m.fetchBotInfoFn != nil {
		return m.fetchBotInfoFn(ctx, botID)
	}
	return nil, errors.New("not implemented")
}

// --- Test helpers ---

const testAdminID = "admin-discord-id"

func newTestServer(t *testing.T, opts ...func(*Server)) *Server {
	t.Helper()

	tmpl := template.Must(template.New("index.html").Parse(`Index {{len .Bots}}`))
	template.Must(tmpl.New("bot_detail.html").Parse(`Bot {{.Bot.Name}} edit={{.CanEdit}} vote={{.CanVote}} hint={{.CooldownHint}}`))
	template.Must(tmpl.New("add_bot.html").Parse(`AddBot`))
	template.Must(tmpl.New("edit_bot.html").Parse(`EditBot {{.Bot.Name}} admin={{.IsAdmin}}`))

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	e := echo.New()
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:         e,
		config:       &config.Config{AppEnv: "test", VoteCooldown: 6 * time.Hour},
		bots:         &mockBotRepo{},
		users:        &mockUserRepo{},
		cooldown:     &mockCooldown{},
		policy:       authz.NewPolicy(testAdminID),
		oauthClient:  &mockOAuthClient{},
		botInfo:      &mockBotInfoFetcher{},
		sessionStore: store,
		templates:    tmpl,
		markdown:     goldmark.New(),
		startTime:    time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv
}

func withBots(bots domain.BotRepository) func(*Server) {
	return func(s *Server) { s.bots = bots }
}

func withUsers(users domain.UserRepository) func(*Server) {
	return func(s *Server) { s.users = users }
}

func withCooldown(cooldown domain.CooldownTracker) func(*Server) {
	return func(s *Server) { s.cooldown = cooldown }
}

func withOAuthClient(oauth discord.OAuthClient) func(*Server) {
	return func(s *Server) { s.oauthClient = oauth }
}

func withBotInfoFetcher(fetcher discord.BotInfoFetcher) func(*Server) {
	return func(s *Server) { s.botInfo = fetcher }
}

// callHandler wraps a handler with the error middleware, matching production
// behavior.
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return apperrors.Middleware()(handler)(c)
}

func testUser(id uuid.UUID, discordID string) *domain.User {
	return &domain.User{ID: id, DiscordUserID: discordID, Username: "tester"}
}

func userRepoReturning(user *domain.User) *mockUserRepo {
	return &mockUserRepo{
		getByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.User, error) {
			return user, nil
		},
	}
}

func botRepoReturning(bot *domain.Bot) *mockBotRepo {
	return &mockBotRepo{
		getByIDFn: func(_ context.Context, _ string) (*domain.Bot, error) {
			return bot, nil
		},
	}
}

func setSessionUserID(t *testing.T, srv *Server, req *http.Request, userID uuid.UUID) {
	t.Helper()
	rec := httptest.NewRecorder()
	session, err := srv.sessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyUserID] = userID.String()
	require.NoError(t, session.Save(req, rec))
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
}
