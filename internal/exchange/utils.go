// Package exchange provides venue connectors for top-of-book market data.
//
// This file contains the shared connector interface, configuration
// structure, and validation helpers used across all venue implementations.
// It provides a common foundation for configuration management and the
// retry/rate-limit envelope around public REST endpoints.
package exchange

import (
	"context"
	"errors"
	"net/http"
	"time"

	"arbscan/internal/model"
	"arbscan/internal/transport"
)

var (
	// ErrInvalidConfig indicates that the provided ExchangeConfig contains invalid values.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Connector fetches validated top-of-book snapshots from one venue.
//
// Implementations own their symbol translation, rate limiting, and retry
// behavior. Unsupported pairs and unparseable entries are skipped with a
// warning rather than failing the whole fetch; a returned error means the
// venue was unreachable for the cycle.
type Connector interface {
	// Venue returns the identifier of the venue this connector serves.
	Venue() model.Venue

	// FetchTickers fetches the current top-of-book for the given canonical
	// pairs. The result contains an entry per pair that could be fetched
	// and parsed; missing pairs are not an error.
	FetchTickers(ctx context.Context, pairs []model.CanonicalPair) (map[model.CanonicalPair]model.TopOfBook, error)
}

// ExchangeConfig provides common configuration parameters for all venue
// connectors.
type ExchangeConfig struct {
	// BaseURL is the HTTP endpoint of the venue's public API.
	BaseURL string

	// Timeout bounds each individual HTTP request.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt for
	// retryable failures (timeouts, connection errors, 5xx responses).
	MaxRetries int

	// MinRequestInterval spaces out consecutive requests to the venue.
	MinRequestInterval time.Duration

	// Backoff shapes the delay between retries.
	Backoff transport.BackoffPolicy
}

// validateConfig ensures all required configuration fields are present and
// valid, applying the venue's defaults for unset optional fields.
func validateConfig(cfg *ExchangeConfig, defaultCfg *ExchangeConfig) error {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultCfg.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCfg.Timeout
	}
	if cfg.MaxRetries < 0 {
		return ErrInvalidConfig
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultCfg.MaxRetries
	}
	if cfg.MinRequestInterval <= 0 {
		cfg.MinRequestInterval = defaultCfg.MinRequestInterval
	}
	if cfg.Backoff == (transport.BackoffPolicy{}) {
		cfg.Backoff = transport.DefaultBackoffPolicy
	}
	return nil
}

// retryable reports whether a fetch attempt should be retried: transport
// errors (timeouts, connection resets) and 5xx responses are retryable,
// anything the venue answered with a 4xx is not.
func retryable(err error, statusCode int) bool {
	if err != nil {
		return true
	}
	return statusCode >= http.StatusInternalServerError
}
