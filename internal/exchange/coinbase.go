// Package exchange provides venue connectors for top-of-book market data.
//
// The Coinbase connector polls the Advanced Trade public product_book
// endpoint, one request per pair, and converts the pricebook payload into
// validated TopOfBook snapshots including the exchange-reported timestamp.
package exchange

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"arbscan/internal/model"
	"arbscan/internal/transport"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const coinbaseProductBookPath = "/api/v3/brokerage/market/product_book"

var (
	// defaultCoinbaseConfig provides sensible defaults for the public
	// Advanced Trade API.
	defaultCoinbaseConfig = ExchangeConfig{
		BaseURL:            "https://api.coinbase.com",
		Timeout:            10 * time.Second,
		MaxRetries:         3,
		MinRequestInterval: 350 * time.Millisecond,
		Backoff:            transport.DefaultBackoffPolicy,
	}
)

// CoinbaseClient provides a Coinbase-specific implementation of the
// Connector interface over the public Advanced Trade REST API.
type CoinbaseClient struct {
	config     ExchangeConfig
	httpClient *http.Client
	limiter    *transport.RateLimiter
	symbols    *SymbolTranslator
	validate   *validator.Validate
}

// coinbaseLevel is one price level of the pricebook, with string-encoded
// numbers to preserve precision through JSON parsing.
type coinbaseLevel struct {
	Price string `json:"price" validate:"required,numeric"`
	Size  string `json:"size" validate:"required,numeric"`
}

// coinbasePricebook is the pricebook object of a product_book response.
type coinbasePricebook struct {
	ProductID string          `json:"product_id" validate:"required"`
	Bids      []coinbaseLevel `json:"bids" validate:"required,min=1,dive"`
	Asks      []coinbaseLevel `json:"asks" validate:"required,min=1,dive"`
	Time      string          `json:"time"`
}

// coinbaseBookResponse is the outer product_book response wrapper.
type coinbaseBookResponse struct {
	Pricebook *coinbasePricebook `json:"pricebook" validate:"required"`
	Error     string             `json:"error"`
	Message   string             `json:"message"`
}

// NewCoinbaseClient creates a new Coinbase connector with the specified
// configuration. A nil configuration selects the defaults; a nil HTTP
// client selects the shared transport client.
func NewCoinbaseClient(cfg *ExchangeConfig, httpClient *http.Client) (*CoinbaseClient, error) {
	if cfg == nil {
		c := defaultCoinbaseConfig
		cfg = &c
	}
	if err := validateConfig(cfg, &defaultCoinbaseConfig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if httpClient == nil {
		httpClient = transport.NewHTTPClient()
	}

	limiter, err := transport.NewRateLimiter(cfg.MinRequestInterval)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &CoinbaseClient{
		config:     *cfg,
		httpClient: httpClient,
		limiter:    limiter,
		symbols:    CoinbaseSymbols(),
		validate:   validator.New(),
	}, nil
}

// Venue returns the connector's venue identifier.
func (cc *CoinbaseClient) Venue() model.Venue { return model.VenueCoinbase }

// FetchTickers fetches the current top-of-book for the given canonical
// pairs, one product_book request per pair.
//
// Pairs without a Coinbase product mapping and pairs whose fetch or parse
// fails are skipped with a warning; a partial result is normal operation.
func (cc *CoinbaseClient) FetchTickers(ctx context.Context, pairs []model.CanonicalPair) (map[model.CanonicalPair]model.TopOfBook, error) {
	results := make(map[model.CanonicalPair]model.TopOfBook, len(pairs))

	for _, pair := range pairs {
		productID, err := cc.symbols.ToVenueSymbol(pair)
		if err != nil {
			log.Warn().Str("pair", pair.String()).Msg("skipping unsupported canonical pair for Coinbase")
			continue
		}

		tob, err := cc.fetchProductBook(ctx, pair, productID)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			log.Warn().Err(err).
				Str("pair", pair.String()).
				Str("product_id", productID).
				Msg("failed to fetch Coinbase ticker")
			continue
		}
		results[pair] = tob
	}

	return results, nil
}

// fetchProductBook fetches and parses the top level of one product book.
func (cc *CoinbaseClient) fetchProductBook(ctx context.Context, pair model.CanonicalPair, productID string) (model.TopOfBook, error) {
	query := url.Values{"product_id": {productID}, "limit": {"1"}}
	reqURL := cc.config.BaseURL + coinbaseProductBookPath + "?" + query.Encode()

	tsLocalMs := time.Now().UnixMilli()
	body, err := cc.doRequest(ctx, reqURL)
	if err != nil {
		return model.TopOfBook{}, err
	}

	var resp coinbaseBookResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.TopOfBook{}, fmt.Errorf("product_book response: %w", err)
	}
	if resp.Error != "" {
		return model.TopOfBook{}, fmt.Errorf("coinbase API error: %s: %s", resp.Error, resp.Message)
	}
	if err := cc.validate.Struct(&resp); err != nil {
		return model.TopOfBook{}, fmt.Errorf("product_book validation: %w", err)
	}

	pb := resp.Pricebook
	bidPx, err := decimal.NewFromString(pb.Bids[0].Price)
	if err != nil {
		return model.TopOfBook{}, fmt.Errorf("bid price: %w", err)
	}
	bidSz, err := decimal.NewFromString(pb.Bids[0].Size)
	if err != nil {
		return model.TopOfBook{}, fmt.Errorf("bid size: %w", err)
	}
	askPx, err := decimal.NewFromString(pb.Asks[0].Price)
	if err != nil {
		return model.TopOfBook{}, fmt.Errorf("ask price: %w", err)
	}
	askSz, err := decimal.NewFromString(pb.Asks[0].Size)
	if err != nil {
		return model.TopOfBook{}, fmt.Errorf("ask size: %w", err)
	}

	var tsExchangeMs int64
	if pb.Time != "" {
		if t, perr := time.Parse(time.RFC3339Nano, pb.Time); perr == nil {
			tsExchangeMs = t.UnixMilli()
		} else {
			log.Warn().Str("time", pb.Time).Msg("failed to parse Coinbase pricebook timestamp")
		}
	}

	return model.NewTopOfBook(model.VenueCoinbase, pair, tsLocalMs, tsExchangeMs, bidPx, bidSz, askPx, askSz)
}

// doRequest performs one GET with the connector's rate-limit and retry
// envelope and returns the response body.
func (cc *CoinbaseClient) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= cc.config.MaxRetries; attempt++ {
		if err := cc.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		body, status, err := cc.attempt(ctx, reqURL)
		if err == nil && status < http.StatusBadRequest {
			return body, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("unexpected status %d", status)
		}

		if attempt >= cc.config.MaxRetries || !retryable(err, status) {
			return nil, lastErr
		}

		delay, derr := transport.ComputeDelay(attempt, cc.config.Backoff, nil)
		if derr != nil {
			return nil, derr
		}
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func (cc *CoinbaseClient) attempt(ctx context.Context, reqURL string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, cc.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("cache-control", "no-cache")

	resp, err := cc.httpClient.Do(req)
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
