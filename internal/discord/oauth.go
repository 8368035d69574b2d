// Package discord talks to the Discord HTTP API: the OAuth2 authorization
// code flow for login and bot account lookups for listing submissions.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/botboard/botboard/internal/metrics"
)

const (
	authURL     = "https://discord.com/api/oauth2/authorize"
	tokenURL    = "https://discord.com/api/oauth2/token"
	selfURL     = "https://discord.com/api/users/@me"
	oauthScope  = "identify"
	callTimeout = 10 * time.Second
)

// OAuthClient handles the Discord OAuth consent redirect, token exchange,
// and user info fetch.
type OAuthClient interface {
	AuthorizeURL(state string) string
	ExchangeCodeForUser(ctx context.Context, code string) (*AuthResult, error)
}

// AuthResult holds the authenticated Discord identity after a completed
// token exchange.
type AuthResult struct {
	UserID    string
	Username  string
	AvatarURL string
}

// OAuthHTTPClient is the production implementation using the Discord HTTP API.
type OAuthHTTPClient struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
}

func NewOAuthClient(clientID, clientSecret, redirectURI string) *OAuthHTTPClient {
	return &OAuthHTTPClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient:   &http.Client{Timeout: callTimeout},
	}
}

// AuthorizeURL builds the Discord consent page URL for the given CSRF state.
func (c *OAuthHTTPClient) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("redirect_uri", c.redirectURI)
	params.Set("response_type", "code")
	params.Set("scope", oauthScope)
	params.Set("state", state)
	return authURL + "?" + params.Encode()
}

func (c *OAuthHTTPClient) ExchangeCodeForUser(ctx context.Context, code string) (*AuthResult, error) {
	accessToken, err := c.exchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	result, err := c.fetchSelf(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("user info fetch failed: %w", err)
	}

	return result, nil
}

func (c *OAuthHTTPClient) exchangeCode(ctx context.Context, code string) (string, error) {
	data := url.Values{}
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", c.redirectURI)

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.DiscordAPIRequests.WithLabelValues("token", "error").Inc()
		return "", fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()
	metrics.DiscordAPIRequests.WithLabelValues("token", fmt.Sprint(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("discord returned status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	return tokenResp.AccessToken, nil
}

func (c *OAuthHTTPClient) fetchSelf(ctx context.Context, accessToken string) (*AuthResult, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", selfURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.DiscordAPIRequests.WithLabelValues("users_me", "error").Inc()
		return nil, fmt.Errorf("failed to execute user request: %w", err)
	}
	defer resp.Body.Close()
	metrics.DiscordAPIRequests.WithLabelValues("users_me", fmt.Sprint(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord user API returned status %d", resp.StatusCode)
	}

	var userResp struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
		Avatar     string `json:"avatar"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userResp); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}
	if userResp.ID == "" {
		return nil, fmt.Errorf("no user data returned")
	}

	username := userResp.GlobalName
	if username == "" {
		username = userResp.Username
	}

	return &AuthResult{
		UserID:    userResp.ID,
		Username:  username,
		AvatarURL: AvatarURL(userResp.ID, userResp.Avatar),
	}, nil
}
