package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"arbscan/internal/config"
	"arbscan/internal/exchange"
	"arbscan/internal/feed"
	"arbscan/internal/metrics"
	"arbscan/internal/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serviceYAML = `
scanner:
  pairs: ["BTC/USD"]
  threshold: "0.0002"
  trade_amount: "0.1"
  max_staleness_ms: 5000
  interval_ms: 100
  bankroll: "1000000"

venues:
  kraken:
    enabled: true
    source: rest
    fees:
      buy_pct: "0.0001"
      sell_pct: "0.0001"
    accuracy:
      BTC/USD:
        min_order_size: "0.0001"
        tick_size: "0.1"
        lot_step: "0.0001"
  coinbase:
    enabled: true
    source: rest
    fees:
      buy_pct: "0.0001"
      sell_pct: "0.0001"
    accuracy:
      BTC/USD:
        min_order_size: "0.0001"
        tick_size: "0.01"
        lot_step: "0.0001"
`

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(serviceYAML), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

// stubConnector is a Connector returning canned snapshots or an error.
type stubConnector struct {
	venue model.Venue
	bid   string
	ask   string
	err   error
	calls int
}

func (s *stubConnector) Venue() model.Venue { return s.venue }

func (s *stubConnector) FetchTickers(ctx context.Context, pairs []model.CanonicalPair) (map[model.CanonicalPair]model.TopOfBook, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}

	out := make(map[model.CanonicalPair]model.TopOfBook, len(pairs))
	for _, pair := range pairs {
		tob, err := model.NewTopOfBook(s.venue, pair, time.Now().UnixMilli(), 0,
			decimal.RequireFromString(s.bid), decimal.NewFromInt(1),
			decimal.RequireFromString(s.ask), decimal.NewFromInt(1))
		if err != nil {
			return nil, err
		}
		out[pair] = tob
	}
	return out, nil
}

// Test_ScanService_RunCycle tests a full cycle selecting a trade
func Test_ScanService_RunCycle(t *testing.T) {
	cfg := loadConfig(t)
	m, _ := metrics.New()

	kraken := &stubConnector{venue: model.VenueKraken, bid: "69100", ask: "69113"}
	coinbase := &stubConnector{venue: model.VenueCoinbase, bid: "69200", ask: "69210"}

	svc, err := New(cfg, []exchange.Connector{kraken, coinbase}, nil, feed.NewBookStore(), m)
	require.NoError(t, err)

	results := svc.RunCycle(context.Background())
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, "BTC/USD", result.Pair.String())
	require.NotNil(t, result.Selected, "A spread above fees and threshold should select a trade")
	assert.Equal(t, model.VenueKraken, result.Selected.BuyVenue)
	assert.Equal(t, model.VenueCoinbase, result.Selected.SellVenue)

	assert.True(t, result.KellyAmount.IsPositive(), "A selected trade should be sized")
	assert.True(t, result.Position.IsPositive(), "The position should clear the minimum order size")

	assert.Equal(t, 1, kraken.calls)
	assert.Equal(t, 1, coinbase.calls)
}

// Test_ScanService_DegradedVenue tests that a failing venue disables the
// scan for that cycle without erroring
func Test_ScanService_DegradedVenue(t *testing.T) {
	cfg := loadConfig(t)
	m, _ := metrics.New()

	kraken := &stubConnector{venue: model.VenueKraken, bid: "69100", ask: "69113"}
	coinbase := &stubConnector{venue: model.VenueCoinbase, err: errors.New("venue down")}

	svc, err := New(cfg, []exchange.Connector{kraken, coinbase}, nil, feed.NewBookStore(), m)
	require.NoError(t, err)

	results := svc.RunCycle(context.Background())
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Selected, "One usable venue cannot produce an opportunity")
}

// Test_ScanService_NoSpread tests a cycle with no qualifying opportunity
func Test_ScanService_NoSpread(t *testing.T) {
	cfg := loadConfig(t)
	m, _ := metrics.New()

	kraken := &stubConnector{venue: model.VenueKraken, bid: "69100", ask: "69113"}
	coinbase := &stubConnector{venue: model.VenueCoinbase, bid: "69105", ask: "69115"}

	svc, err := New(cfg, []exchange.Connector{kraken, coinbase}, nil, feed.NewBookStore(), m)
	require.NoError(t, err)

	results := svc.RunCycle(context.Background())
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Selected, "A spread below fees and threshold selects nothing")
	assert.True(t, results[0].KellyAmount.IsZero())
}

// Test_ScanService_OpportunityCount tests that the opportunity counter only
// covers venues the pipeline can actually pair up
func Test_ScanService_OpportunityCount(t *testing.T) {
	cfg := loadConfig(t)
	m, _ := metrics.New()
	store := feed.NewBookStore()

	// A coinbase snapshot well past max_staleness_ms sits in the store.
	pair := model.CanonicalPair{Base: "BTC", Quote: "USD"}
	stale, err := model.NewTopOfBook(model.VenueCoinbase, pair, time.Now().UnixMilli()-60_000, 0,
		decimal.RequireFromString("69200"), decimal.NewFromInt(1),
		decimal.RequireFromString("69210"), decimal.NewFromInt(1))
	require.NoError(t, err)
	store.Put(stale)

	kraken := &stubConnector{venue: model.VenueKraken, bid: "69100", ask: "69113"}

	svc, err := New(cfg, []exchange.Connector{kraken}, nil, store, m)
	require.NoError(t, err)

	svc.RunCycle(context.Background())
	assert.Zero(t, testutil.ToFloat64(m.OpportunitiesFound),
		"A single fresh venue pairs with nothing")

	coinbase := &stubConnector{venue: model.VenueCoinbase, bid: "69200", ask: "69210"}
	svc, err = New(cfg, []exchange.Connector{kraken, coinbase}, nil, store, m)
	require.NoError(t, err)

	svc.RunCycle(context.Background())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OpportunitiesFound),
		"Two fresh venues produce two directional opportunities")
}

// Test_ScanService_WsStoreMerge tests that streamed snapshots participate
// in the scan alongside REST fetches
func Test_ScanService_WsStoreMerge(t *testing.T) {
	cfg := loadConfig(t)
	m, _ := metrics.New()
	store := feed.NewBookStore()

	// Coinbase arrives via the store, as a WebSocket feed would deliver it.
	pair := model.CanonicalPair{Base: "BTC", Quote: "USD"}
	tob, err := model.NewTopOfBook(model.VenueCoinbase, pair, time.Now().UnixMilli(), 0,
		decimal.RequireFromString("69200"), decimal.NewFromInt(1),
		decimal.RequireFromString("69210"), decimal.NewFromInt(1))
	require.NoError(t, err)
	store.Put(tob)

	kraken := &stubConnector{venue: model.VenueKraken, bid: "69100", ask: "69113"}

	svc, err := New(cfg, []exchange.Connector{kraken}, nil, store, m)
	require.NoError(t, err)

	results := svc.RunCycle(context.Background())
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Selected)
	assert.Equal(t, model.VenueCoinbase, results[0].Selected.SellVenue,
		"Streamed snapshots should merge with polled ones")
}
