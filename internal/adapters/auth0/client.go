package auth0

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/emiliopalmerini/onboardtrack/internal/adapters/httpapi"
	"github.com/emiliopalmerini/onboardtrack/internal/ports"
	"github.com/emiliopalmerini/onboardtrack/internal/util"
)

const (
	usersPerPage = 100
	// tokens are refreshed this long before they expire
	tokenLeeway = 5 * time.Minute
)

// Config holds Management API credentials.
type Config struct {
	Domain       string
	ClientID     string
	ClientSecret string
	Apps         ClientIDs
	// RequestsPerSecond paces device-credential lookups.
	RequestsPerSecond float64
	// BaseURL overrides https://<Domain>; used by tests.
	BaseURL string
}

// Client talks to the Auth0 Management API.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	limiter *rate.Limiter
	now     func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewClient creates a Management API client.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = "https://" + cfg.Domain
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		cfg:     cfg,
		baseURL: base,
		http:    httpapi.NewHTTPClient(20 * time.Second),
		breaker: httpapi.NewBreaker("auth0"),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		now:     time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns a cached client-credentials token, refreshing it near expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiry.Add(-tokenLeeway)) {
		return c.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
		"audience":      "https://" + c.cfg.Domain + "/api/v2/",
		"grant_type":    "client_credentials",
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := httpapi.Do(c.http, c.breaker, req)
	if err != nil {
		c.token = ""
		return "", fmt.Errorf("failed to obtain auth0 token: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tr.ExpiresIn <= 0 {
		tr.ExpiresIn = 3600
	}
	c.token = tr.AccessToken
	c.expiry = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	return c.token, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return httpapi.Do(c.http, c.breaker, req)
}

type apiUser struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// ListUsersCreatedSince pages through users created at or after since, oldest first.
func (c *Client) ListUsersCreatedSince(ctx context.Context, since time.Time) ([]ports.IdentityUser, error) {
	var users []ports.IdentityUser
	for page := 0; ; page++ {
		q := url.Values{}
		q.Set("q", fmt.Sprintf("created_at:[%s TO *]", since.UTC().Format("2006-01-02T15:04:05.000Z")))
		q.Set("sort", "created_at:1")
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(usersPerPage))
		q.Set("search_engine", "v3")

		body, err := c.get(ctx, "/api/v2/users", q)
		if err != nil {
			return nil, fmt.Errorf("failed to list auth0 users page %d: %w", page, err)
		}
		var batch []apiUser
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("decoding auth0 users: %w", err)
		}
		for _, u := range batch {
			users = append(users, ports.IdentityUser{ID: u.UserID, Email: u.Email, CreatedAt: util.ParseTimestamp(u.CreatedAt)})
		}
		if len(batch) < usersPerPage {
			return users, nil
		}
	}
}

// DeviceCredentials returns the device credentials registered for an Auth0 user.
func (c *Client) DeviceCredentials(ctx context.Context, userID string) ([]Credential, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, err := c.get(ctx, "/api/v2/device-credentials", url.Values{"user_id": {userID}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch device credentials: %w", err)
	}
	var creds []Credential
	if err := json.Unmarshal(body, &creds); err != nil {
		return nil, fmt.Errorf("decoding device credentials: %w", err)
	}
	return creds, nil
}

// DeviceOS resolves the operating systems a user signed in from.
func (c *Client) DeviceOS(ctx context.Context, userID string) ([]string, error) {
	creds, err := c.DeviceCredentials(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c.cfg.Apps.ParseDeviceOS(creds), nil
}
