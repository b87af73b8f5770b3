package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff between attempts.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff waits 500ms, then doubles up to 5s.
func DefaultBackoff(maxRetries int) BackoffConfig {
	return BackoffConfig{
		MaxRetries:      max(maxRetries, 0),
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// delay returns the wait before retry number attempt (zero based).
func (b BackoffConfig) delay(attempt int) time.Duration {
	d := b.InitialInterval << attempt
	if b.MaxInterval > 0 && (d > b.MaxInterval || d <= 0) {
		return b.MaxInterval
	}
	return d
}

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// upstream is a GET-only HTTP client that retries transient failures behind a
// circuit breaker. One breaker is shared by every endpoint of a provider.
type upstream struct {
	client  *http.Client
	backoff BackoffConfig
	breaker *gobreaker.CircuitBreaker
}

func newUpstream(name string, client *http.Client, backoff BackoffConfig) *upstream {
	if client == nil {
		client = http.DefaultClient
	}
	if backoff.InitialInterval <= 0 {
		backoff.InitialInterval = DefaultBackoff(0).InitialInterval
	}
	return &upstream{
		client:  client,
		backoff: backoff,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
	}
}

// get returns a response with a 2xx status; the caller closes its body.
func (u *upstream) get(ctx context.Context, rawURL string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := u.once(ctx, rawURL)
		if err == nil {
			return resp, nil
		}
		if attempt >= u.backoff.MaxRetries || !retryable(err) {
			return nil, err
		}

		timer := time.NewTimer(u.backoff.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (u *upstream) once(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	out, err := u.breaker.Execute(func() (interface{}, error) {
		resp, err := u.client.Do(req)
		if err != nil {
			return nil, err
		}
		if err := statusError(resp.StatusCode); err != nil {
			resp.Body.Close()
			return nil, err
		}
		return resp, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	return out.(*http.Response), nil
}

func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return errRateLimited
	case code >= 500:
		return fmt.Errorf("%w: %d", errServerError, code)
	default:
		return fmt.Errorf("%w: %d", errUnexpected, code)
	}
}

// retryable reports whether another attempt could succeed. Client errors other
// than rate limiting and an open breaker will not.
func retryable(err error) bool {
	return !errors.Is(err, errUnexpected) && !errors.Is(err, errCircuitOpen) && !errors.Is(err, context.Canceled)
}
