// Package exchange provides venue connectors for top-of-book market data.
//
// The Kraken connector polls Kraken's public REST Ticker endpoint and
// converts the venue-specific payload into validated TopOfBook snapshots.
// It handles Kraken's legacy symbol codes, batched ticker requests, and the
// venue's error envelope.
//
// Key features:
//   - Batched fetch: all requested pairs in a single Ticker request
//   - Input validation of the wire payload using struct tags and validator
//   - Financial precision using decimal.Decimal for price/size data
//   - Symbol translation between Kraken codes and canonical pairs
//   - Rate-limited, retrying requests with exponential backoff
package exchange

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"arbscan/internal/model"
	"arbscan/internal/transport"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const krakenTickerPath = "/0/public/Ticker"

var (
	// defaultKrakenConfig provides sensible default configuration values
	// for Kraken's public API, which allows roughly one request per second.
	defaultKrakenConfig = ExchangeConfig{
		BaseURL:            "https://api.kraken.com",
		Timeout:            10 * time.Second,
		MaxRetries:         3,
		MinRequestInterval: time.Second,
		Backoff:            transport.DefaultBackoffPolicy,
	}
)

// KrakenClient provides a Kraken-specific implementation of the Connector
// interface over the venue's public REST API.
type KrakenClient struct {
	config     ExchangeConfig
	httpClient *http.Client
	limiter    *transport.RateLimiter
	symbols    *SymbolTranslator
	validate   *validator.Validate
}

// krakenTicker is one entry of the Ticker response.
//
// Kraken encodes the ask as a = [price, whole lot volume, lot volume] and
// the bid as b with the same layout, all values as strings. Index 0 is the
// price, index 2 the size at that price.
type krakenTicker struct {
	Ask []string `json:"a" validate:"required,min=3,dive,required"`
	Bid []string `json:"b" validate:"required,min=3,dive,required"`
}

// krakenResponse is Kraken's standard response envelope: a list of error
// strings plus a result object keyed by venue symbol.
type krakenResponse struct {
	Error  []string                `json:"error"`
	Result map[string]krakenTicker `json:"result"`
}

// NewKrakenClient creates a new Kraken connector with the specified
// configuration. A nil configuration selects the defaults; a nil HTTP
// client selects the shared transport client.
func NewKrakenClient(cfg *ExchangeConfig, httpClient *http.Client) (*KrakenClient, error) {
	if cfg == nil {
		c := defaultKrakenConfig
		cfg = &c
	}
	if err := validateConfig(cfg, &defaultKrakenConfig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if httpClient == nil {
		httpClient = transport.NewHTTPClient()
	}

	limiter, err := transport.NewRateLimiter(cfg.MinRequestInterval)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &KrakenClient{
		config:     *cfg,
		httpClient: httpClient,
		limiter:    limiter,
		symbols:    KrakenSymbols(),
		validate:   validator.New(),
	}, nil
}

// Venue returns the connector's venue identifier.
func (kc *KrakenClient) Venue() model.Venue { return model.VenueKraken }

// FetchTickers fetches the current top-of-book for the given canonical
// pairs in a single batched Ticker request.
//
// Pairs without a Kraken symbol mapping are skipped with a warning, as are
// result entries that fail validation or violate book invariants. The
// returned map is keyed by canonical pair.
func (kc *KrakenClient) FetchTickers(ctx context.Context, pairs []model.CanonicalPair) (map[model.CanonicalPair]model.TopOfBook, error) {
	if len(pairs) == 0 {
		return map[model.CanonicalPair]model.TopOfBook{}, nil
	}

	symbols := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		sym, err := kc.symbols.ToVenueSymbol(pair)
		if err != nil {
			log.Warn().Str("pair", pair.String()).Msg("skipping unsupported canonical pair for Kraken")
			continue
		}
		symbols = append(symbols, sym)
	}
	if len(symbols) == 0 {
		return map[model.CanonicalPair]model.TopOfBook{}, nil
	}

	query := url.Values{"pair": {strings.Join(symbols, ",")}}
	reqURL := kc.config.BaseURL + krakenTickerPath + "?" + query.Encode()

	tsLocalMs := time.Now().UnixMilli()
	body, err := kc.doRequest(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("kraken ticker request: %w", err)
	}

	var resp krakenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("kraken ticker response: %w", err)
	}
	if len(resp.Error) > 0 {
		return nil, fmt.Errorf("kraken API error(s): %s", strings.Join(resp.Error, "; "))
	}

	return kc.parseTickers(resp.Result, tsLocalMs), nil
}

// parseTickers converts the Ticker result object into validated snapshots,
// skipping entries that fail validation with a warning.
func (kc *KrakenClient) parseTickers(result map[string]krakenTicker, tsLocalMs int64) map[model.CanonicalPair]model.TopOfBook {
	parsed := make(map[model.CanonicalPair]model.TopOfBook, len(result))

	for venueSymbol, ticker := range result {
		canonical, err := kc.symbols.ToCanonical(venueSymbol)
		if err != nil {
			log.Warn().Str("symbol", venueSymbol).Msg("skipping unknown Kraken symbol in ticker response")
			continue
		}

		if err := kc.validate.Struct(&ticker); err != nil {
			log.Warn().Err(err).Str("symbol", venueSymbol).Msg("Kraken ticker validation failed")
			continue
		}

		tob, err := tickerToTopOfBook(canonical, ticker, tsLocalMs)
		if err != nil {
			log.Warn().Err(err).Str("symbol", venueSymbol).Msg("skipping invalid Kraken ticker")
			continue
		}
		parsed[canonical] = tob
	}

	return parsed
}

func tickerToTopOfBook(pair model.CanonicalPair, t krakenTicker, tsLocalMs int64) (model.TopOfBook, error) {
	askPx, err := decimal.NewFromString(t.Ask[0])
	if err != nil {
		return model.TopOfBook{}, fmt.Errorf("ask price: %w", err)
	}
	askSz, err := decimal.NewFromString(t.Ask[2])
	if err != nil {
		return model.TopOfBook{}, fmt.Errorf("ask size: %w", err)
	}
	bidPx, err := decimal.NewFromString(t.Bid[0])
	if err != nil {
		return model.TopOfBook{}, fmt.Errorf("bid price: %w", err)
	}
	bidSz, err := decimal.NewFromString(t.Bid[2])
	if err != nil {
		return model.TopOfBook{}, fmt.Errorf("bid size: %w", err)
	}

	// Kraken's Ticker endpoint does not report an exchange timestamp.
	return model.NewTopOfBook(model.VenueKraken, pair, tsLocalMs, 0, bidPx, bidSz, askPx, askSz)
}

// doRequest performs one GET with the connector's rate-limit and retry
// envelope and returns the response body.
func (kc *KrakenClient) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= kc.config.MaxRetries; attempt++ {
		if err := kc.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		body, status, err := kc.attempt(ctx, reqURL)
		if err == nil && status < http.StatusBadRequest {
			return body, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("unexpected status %d", status)
		}

		if attempt >= kc.config.MaxRetries || !retryable(err, status) {
			return nil, lastErr
		}

		delay, derr := transport.ComputeDelay(attempt, kc.config.Backoff, nil)
		if derr != nil {
			return nil, derr
		}
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func (kc *KrakenClient) attempt(ctx context.Context, reqURL string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, kc.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := kc.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// sleepCtx waits for the given duration or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
