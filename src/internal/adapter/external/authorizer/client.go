package authorizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/api-sage/funds-transfer-service/src/internal/logger"
	"github.com/sony/gobreaker"
)

const approvedMessage = "Autorizado"

type decision struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Authorization bool `json:"authorization"`
	} `json:"data"`
}

// Client asks a remote authorization service whether a transfer may proceed.
// Transport failures, non-2xx answers and an open breaker are all reported as
// domain.ErrAuthorizationUnavailable. Only a well-formed answer can deny.
type Client struct {
	url        string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithBreakerSettings replaces the default breaker. Name is always overwritten.
func WithBreakerSettings(settings gobreaker.Settings) Option {
	return func(c *Client) {
		settings.Name = "authorizer"
		settings.OnStateChange = logStateChange
		c.breaker = gobreaker.NewCircuitBreaker(settings)
	}
}

func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        strings.TrimSpace(url),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "authorizer",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: logStateChange,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Authorize(ctx context.Context) (bool, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logger.WarnContext(ctx, "authorizer circuit rejected request", logger.Fields{
				"state": c.breaker.State().String(),
			})
		}
		return false, fmt.Errorf("%w: %w", domain.ErrAuthorizationUnavailable, err)
	}

	allowed := result.(bool)
	logger.InfoContext(ctx, "authorizer decision received", logger.Fields{
		"authorized": allowed,
	})
	return allowed, nil
}

func (c *Client) fetch(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("build authorization request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("call authorization service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, fmt.Errorf("read authorization response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return false, fmt.Errorf("authorization service returned status %d", resp.StatusCode)
	}

	var d decision
	if err := json.Unmarshal(body, &d); err != nil {
		return false, fmt.Errorf("decode authorization response: %w", err)
	}
	return d.Data.Authorization || strings.EqualFold(strings.TrimSpace(d.Message), approvedMessage), nil
}

func logStateChange(name string, from gobreaker.State, to gobreaker.State) {
	logger.Warn("circuit breaker state changed", logger.Fields{
		"breaker": name,
		"from":    from.String(),
		"to":      to.String(),
	})
}

var _ domain.Authorizer = (*Client)(nil)
