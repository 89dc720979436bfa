package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/emiliopalmerini/onboardtrack/internal/adapters/httpapi"
	"github.com/emiliopalmerini/onboardtrack/internal/logging"
)

// Cliq posts to a Zoho Cliq bot webhook. Consecutive messages are spaced one
// second apart so multi-part reports arrive in order.
type Cliq struct {
	webhook string
	apiKey  string
	channel string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	limiter *rate.Limiter
}

// NewCliq returns a Cliq notifier. Notify is a no-op unless webhook, apiKey
// and channel are all set.
func NewCliq(webhook, apiKey, channel string) *Cliq {
	return &Cliq{
		webhook: webhook,
		apiKey:  apiKey,
		channel: channel,
		http:    httpapi.NewHTTPClient(requestTimeout),
		breaker: httpapi.NewBreaker("cliq"),
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type cliqCard struct {
	Title string `json:"title"`
	Theme string `json:"theme"`
}

type cliqPayload struct {
	Message string   `json:"message"`
	Card    cliqCard `json:"card"`
	Channel string   `json:"channel"`
}

func (c *Cliq) configured() bool {
	return c.webhook != "" && c.apiKey != "" && c.channel != ""
}

func (c *Cliq) Notify(ctx context.Context, title, content string) error {
	if !c.configured() {
		logging.Warn().Msg("zoho cliq webhook, api key or channel missing, skipping message")
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u, err := url.Parse(c.webhook)
	if err != nil {
		return fmt.Errorf("parsing cliq webhook: %w", err)
	}
	q := u.Query()
	q.Set("zapikey", c.apiKey)
	u.RawQuery = q.Encode()

	body, err := json.Marshal(cliqPayload{
		Message: fmt.Sprintf("*%s*\n%s", title, content),
		Card:    cliqCard{Title: title, Theme: "modern-inline"},
		Channel: c.channel,
	})
	if err != nil {
		return err
	}
	if err := post(ctx, c.http, c.breaker, u.String(), body); err != nil {
		return fmt.Errorf("failed to post to cliq: %w", err)
	}
	logging.Info().Str("title", title).Str("channel", c.channel).Msg("posted cliq message")
	return nil
}
