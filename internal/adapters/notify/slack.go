// Package notify posts report messages to chat webhooks.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/emiliopalmerini/onboardtrack/internal/adapters/httpapi"
	"github.com/emiliopalmerini/onboardtrack/internal/logging"
)

const requestTimeout = 10 * time.Second

// Slack posts to an incoming webhook as a single attachment.
type Slack struct {
	webhook string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	now     func() time.Time
}

// NewSlack returns a Slack notifier. An empty webhook makes Notify a no-op.
func NewSlack(webhook string) *Slack {
	return &Slack{
		webhook: webhook,
		http:    httpapi.NewHTTPClient(requestTimeout),
		breaker: httpapi.NewBreaker("slack"),
		now:     time.Now,
	}
}

type slackAttachment struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	TS    int64  `json:"ts"`
}

type slackPayload struct {
	Attachments []slackAttachment `json:"attachments"`
}

func (s *Slack) Notify(ctx context.Context, title, content string) error {
	if s.webhook == "" {
		logging.Warn().Msg("slack webhook not configured, skipping message")
		return nil
	}

	body, err := json.Marshal(slackPayload{
		Attachments: []slackAttachment{{Title: title, Text: content, TS: s.now().Unix()}},
	})
	if err != nil {
		return err
	}
	if err := post(ctx, s.http, s.breaker, s.webhook, body); err != nil {
		return fmt.Errorf("failed to post to slack: %w", err)
	}
	logging.Info().Str("title", title).Msg("posted slack message")
	return nil
}

func post(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker[[]byte], url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = httpapi.Do(client, cb, req)
	return err
}
