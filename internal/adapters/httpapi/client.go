// Package httpapi holds the HTTP plumbing shared by the REST adapters:
// a circuit breaker per upstream and a request helper that reads the body
// and turns non-2xx responses into errors.
package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/emiliopalmerini/onboardtrack/internal/logging"
)

const maxBody = 16 << 20

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// NewHTTPClient returns a client with the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// NewBreaker returns a circuit breaker that opens after 5 consecutive failures
// and probes again after 30 seconds. Client errors other than 429 do not count.
func NewBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
}

// Do sends req through cb and returns the response body of a 2xx reply.
func Do(client *http.Client, cb *gobreaker.CircuitBreaker[[]byte], req *http.Request) ([]byte, error) {
	return cb.Execute(func() ([]byte, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
		}
		return body, nil
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
