// Package stripe lists subscriptions from the Stripe REST API.
package stripe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/emiliopalmerini/onboardtrack/internal/adapters/httpapi"
	"github.com/emiliopalmerini/onboardtrack/internal/logging"
	"github.com/emiliopalmerini/onboardtrack/internal/ports"
)

const (
	defaultBaseURL = "https://api.stripe.com"
	pageSize       = 100
	// MaxSubscriptions caps a single listing.
	MaxSubscriptions = 10000
)

// Client is a minimal Stripe API client.
type Client struct {
	key     string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a client authenticated with a secret key. An empty
// baseURL selects the live API.
func NewClient(secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		key:     secretKey,
		baseURL: baseURL,
		http:    httpapi.NewHTTPClient(30 * time.Second),
		breaker: httpapi.NewBreaker("stripe"),
	}
}

type customer struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Deleted bool   `json:"deleted"`
}

type subscription struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Created  int64           `json:"created"`
	Customer json.RawMessage `json:"customer"`
}

type listResponse struct {
	Data    []subscription `json:"data"`
	HasMore bool           `json:"has_more"`
}

// ListSubscriptionsCreatedSince pages through subscriptions created at or after
// since with their customers expanded. Subscriptions whose customer is missing
// or deleted are skipped.
func (c *Client) ListSubscriptionsCreatedSince(ctx context.Context, since time.Time) ([]ports.Subscription, error) {
	var (
		out           []ports.Subscription
		fetched       int
		startingAfter string
	)
	for {
		page, err := c.list(ctx, since, startingAfter)
		if err != nil {
			return nil, err
		}
		if len(page.Data) == 0 {
			break
		}
		fetched += len(page.Data)
		for _, s := range page.Data {
			cust, ok := decodeCustomer(s.Customer)
			if !ok {
				logging.Warn().Str("subscription", s.ID).Msg("subscription has missing or deleted customer")
				continue
			}
			out = append(out, ports.Subscription{
				ID:            s.ID,
				CustomerID:    cust.ID,
				CustomerEmail: cust.Email,
				Status:        s.Status,
				CreatedAt:     time.Unix(s.Created, 0).UTC(),
			})
		}
		if !page.HasMore {
			break
		}
		if fetched > MaxSubscriptions {
			logging.Warn().Int("limit", MaxSubscriptions).Msg("stripe subscription fetch limit reached")
			break
		}
		startingAfter = page.Data[len(page.Data)-1].ID
	}
	logging.Info().Int("subscriptions", len(out)).Msg("fetched stripe subscriptions")
	return out, nil
}

func (c *Client) list(ctx context.Context, since time.Time, startingAfter string) (*listResponse, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(pageSize))
	q.Set("created[gte]", strconv.FormatInt(since.Unix(), 10))
	q.Add("expand[]", "data.customer")
	if startingAfter != "" {
		q.Set("starting_after", startingAfter)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/subscriptions?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)

	body, err := httpapi.Do(c.http, c.breaker, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list stripe subscriptions: %w", err)
	}
	var page listResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decoding subscriptions: %w", err)
	}
	return &page, nil
}

// decodeCustomer accepts only an expanded, live customer object.
func decodeCustomer(raw json.RawMessage) (customer, bool) {
	var cust customer
	if len(raw) == 0 || raw[0] != '{' {
		return cust, false
	}
	if err := json.Unmarshal(raw, &cust); err != nil || cust.Deleted || cust.ID == "" {
		return cust, false
	}
	return cust, true
}
