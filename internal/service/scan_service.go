// Package service orchestrates scan cycles over the configured venues.
//
// ScanService owns the venue connectors, the latest-book store, and the
// per-pair fee schedules. Each cycle fans out REST snapshot fetches, merges
// them with whatever the streaming feeds have delivered, runs the detection
// pipeline per pair, and sizes the selected trade. A venue that fails to
// fetch degrades for that cycle; it never aborts the scan.
package service

import (
	"context"
	"fmt"
	"time"

	"arbscan/internal/calc"
	"arbscan/internal/config"
	"arbscan/internal/exchange"
	"arbscan/internal/feed"
	"arbscan/internal/metrics"
	"arbscan/internal/model"
	"arbscan/internal/scanner"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// BookFeed is a streaming snapshot source for one venue.
type BookFeed interface {
	Venue() model.Venue
	SubscribeToBooks(ctx context.Context, pairs []model.CanonicalPair) (<-chan model.TopOfBook, error)
}

// wsReconnectDelay is the pause between streaming feed reconnect attempts.
const wsReconnectDelay = 2 * time.Second

// Result is the outcome of one scan cycle for one pair.
type Result struct {
	Pair        model.CanonicalPair
	Selected    *model.Opportunity
	KellyAmount decimal.Decimal
	Position    decimal.Decimal
}

// ScanService runs the detection loop across all configured pairs.
type ScanService struct {
	cfg        *config.Config
	connectors []exchange.Connector
	feeds      []BookFeed
	store      *feed.BookStore
	metrics    *metrics.Metrics

	// feeSchedules is built once at startup, keyed by pair then venue.
	feeSchedules map[model.CanonicalPair]map[model.Venue]model.FeeSchedule
}

// New builds a ScanService, precomputing the fee schedules for every
// configured pair.
func New(cfg *config.Config, connectors []exchange.Connector, feeds []BookFeed,
	store *feed.BookStore, m *metrics.Metrics) (*ScanService, error) {

	schedules := make(map[model.CanonicalPair]map[model.Venue]model.FeeSchedule, len(cfg.Scanner.ParsedPairs))
	for _, pair := range cfg.Scanner.ParsedPairs {
		s, err := cfg.FeeSchedules(pair)
		if err != nil {
			return nil, fmt.Errorf("fee schedules for %s: %w", pair, err)
		}
		schedules[pair] = s
	}

	return &ScanService{
		cfg:          cfg,
		connectors:   connectors,
		feeds:        feeds,
		store:        store,
		metrics:      m,
		feeSchedules: schedules,
	}, nil
}

// StartFeeds launches the streaming feeds. Each feed gets a goroutine that
// pumps its snapshots into the store and reconnects after a disconnect
// until the context is cancelled.
func (s *ScanService) StartFeeds(ctx context.Context) {
	for _, f := range s.feeds {
		go s.runFeed(ctx, f)
	}
}

func (s *ScanService) runFeed(ctx context.Context, f BookFeed) {
	venue := f.Venue()
	for {
		books, err := f.SubscribeToBooks(ctx, s.cfg.Scanner.ParsedPairs)
		if err != nil {
			log.Error().Err(err).Str("venue", string(venue)).Msg("feed subscription failed")
		} else {
			for tob := range books {
				s.store.Put(tob)
			}
			log.Warn().Str("venue", string(venue)).Msg("feed disconnected")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wsReconnectDelay):
		}
		s.metrics.WsReconnects.WithLabelValues(string(venue)).Inc()
	}
}

// Run executes scan cycles at the configured interval until the context is
// cancelled. The first cycle runs immediately.
func (s *ScanService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Scanner.Interval())
	defer ticker.Stop()

	for {
		s.RunCycle(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle runs one scan cycle over every configured pair and returns the
// per-pair results.
func (s *ScanService) RunCycle(ctx context.Context) []Result {
	s.fetchREST(ctx)

	nowMs := time.Now().UnixMilli()
	results := make([]Result, 0, len(s.cfg.Scanner.ParsedPairs))
	for _, pair := range s.cfg.Scanner.ParsedPairs {
		results = append(results, s.scanPair(pair, nowMs))
	}

	s.metrics.ScanCycles.Inc()
	log.Debug().
		Int("pairs", len(results)).
		Int("books", s.store.Len()).
		Msg("scan cycle complete")
	return results
}

// fetchREST fans out FetchTickers across the REST connectors and merges
// the snapshots into the store. Individual venue failures are logged and
// counted, never propagated.
func (s *ScanService) fetchREST(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	for _, conn := range s.connectors {
		conn := conn
		g.Go(func() error {
			tobs, err := conn.FetchTickers(ctx, s.cfg.Scanner.ParsedPairs)
			if err != nil {
				log.Warn().Err(err).
					Str("venue", string(conn.Venue())).
					Msg("snapshot fetch failed, venue degraded for this cycle")
				s.metrics.FetchErrors.WithLabelValues(string(conn.Venue())).Inc()
				return nil
			}
			s.store.PutAll(tobs)
			return nil
		})
	}
	// Workers never return errors; Wait only orders the merge after the
	// last fetch.
	_ = g.Wait()
}

func (s *ScanService) scanPair(pair model.CanonicalPair, nowMs int64) Result {
	tobs := s.store.Snapshot(pair)
	for venue, tob := range tobs {
		s.metrics.BookStalenessMs.WithLabelValues(string(venue)).Set(float64(nowMs - tob.TsLocalMs))
	}

	fees := s.feeSchedules[pair]
	sc := s.cfg.Scanner

	// Count the directional opportunities the pipeline will evaluate:
	// fresh snapshots from venues that also have fee data.
	usable := 0
	for venue := range scanner.FilterValidExchanges(tobs, sc.MaxStalenessMs, nowMs) {
		if _, ok := fees[venue]; ok {
			usable++
		}
	}
	if opps := usable * (usable - 1); opps > 0 {
		s.metrics.OpportunitiesFound.Add(float64(opps))
	}

	selected := scanner.FindTradesToExecute(tobs, fees,
		sc.ThresholdDec, sc.TradeAmountDec, nowMs, sc.MaxStalenessMs)

	result := Result{Pair: pair, Selected: selected}
	if selected == nil {
		log.Debug().
			Str("pair", pair.String()).
			Int("venues", len(tobs)).
			Msg("no qualifying trade")
		s.metrics.BestNetReturn.WithLabelValues(pair.String()).Set(0)
		return result
	}

	s.metrics.TradesSelected.Inc()
	netReturn, _ := selected.ReturnNet.Float64()
	s.metrics.BestNetReturn.WithLabelValues(pair.String()).Set(netReturn)

	result.KellyAmount = calc.KellyAmount(sc.BankrollDec, selected.ReturnGross,
		sc.ThresholdDec, sc.ProbSuccessDec, sc.KellyMultiplierDec, sc.MaxFractionDec)

	accuracy := fees[selected.BuyVenue].Accuracy
	position, err := calc.PositionSize(result.KellyAmount, selected.BuyPrice, accuracy)
	if err != nil {
		log.Error().Err(err).
			Str("pair", pair.String()).
			Str("buy_venue", string(selected.BuyVenue)).
			Msg("position sizing failed")
	} else {
		result.Position = position
	}

	log.Info().
		Str("pair", pair.String()).
		Str("buy_venue", string(selected.BuyVenue)).
		Str("sell_venue", string(selected.SellVenue)).
		Str("buy_price", selected.BuyPrice.String()).
		Str("sell_price", selected.SellPrice.String()).
		Str("return_net", selected.ReturnNet.String()).
		Str("kelly_amount", result.KellyAmount.String()).
		Str("position", result.Position.String()).
		Msg("trade selected")

	return result
}
