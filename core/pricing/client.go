package pricing

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "stackcost/internal/errors"
)

// Source issues a single price query against an external pricing
// source. A (nil, nil) return means no matching price exists, which is
// distinct from a transport error.
type Source interface {
	GetPrice(ctx context.Context, query Query) (*decimal.Decimal, error)
}

// Client resolves unit prices, consulting the Store before the Source
// and writing successful fetches back through it. A failed fetch falls
// back to a stale cached value when one exists.
type Client struct {
	source      Source
	store       *Store
	logger      *zap.Logger
	maxAttempts int

	initialBackoff time.Duration
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithClientLogger injects a logger
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithMaxAttempts overrides the retry cap
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) { c.maxAttempts = n }
}

// WithInitialBackoff overrides the first backoff interval
func WithInitialBackoff(d time.Duration) ClientOption {
	return func(c *Client) { c.initialBackoff = d }
}

// NewClient creates a lookup client over source and store
func NewClient(source Source, store *Store, opts ...ClientOption) *Client {
	c := &Client{
		source:         source,
		store:          store,
		logger:         zap.NewNop(),
		maxAttempts:    3,
		initialBackoff: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPrice resolves the unit price for query. A nil price with nil
// error means the source has no matching SKU; that outcome is cached
// like any other.
func (c *Client) GetPrice(ctx context.Context, query Query) (*decimal.Decimal, error) {
	key := CacheKey(query)

	cached, fresh, exists := c.store.Get(key)
	if exists && fresh {
		return cached, nil
	}

	price, err := c.fetchWithRetry(ctx, query)
	if err != nil {
		if exists {
			// Past TTL but still the best available value
			c.logger.Warn("price fetch failed, serving stale cache entry",
				zap.String("service_code", query.ServiceCode),
				zap.String("key", key),
				zap.Error(err))
			return cached, nil
		}
		return nil, apperrors.Lookup("price lookup failed for "+query.ServiceCode, err)
	}

	c.store.Put(key, price)
	return price, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, query Query) (*decimal.Decimal, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialBackoff
	bo.Reset()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		price, err := c.source.GetPrice(ctx, query)
		if err == nil {
			return price, nil
		}
		lastErr = err

		retryable, serverDelay := classifyRetry(err)
		if !retryable || attempt == c.maxAttempts {
			break
		}

		delay := bo.NextBackOff()
		if serverDelay > 0 {
			// The source told us when to come back
			delay = serverDelay
		}

		c.logger.Debug("retrying price lookup",
			zap.String("service_code", query.ServiceCode),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

// classifyRetry decides whether an error warrants another attempt and
// extracts a server-provided retry delay when one is present.
// Throttling and 5xx responses are retryable; everything else surfaces
// immediately to the caller.
func classifyRetry(err error) (retryable bool, serverDelay time.Duration) {
	var respErr *smithyhttp.ResponseError
	if stderrors.As(err, &respErr) {
		if after := respErr.Response.Header.Get("Retry-After"); after != "" {
			if secs, parseErr := strconv.Atoi(after); parseErr == nil && secs > 0 {
				serverDelay = time.Duration(secs) * time.Second
			}
		}
		if respErr.HTTPStatusCode() >= 500 {
			return true, serverDelay
		}
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "Throttling", "TooManyRequestsException", "RequestLimitExceeded":
			return true, serverDelay
		}
	}

	return false, serverDelay
}
