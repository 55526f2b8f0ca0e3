// Package config loads and validates the scanner configuration.
//
// Configuration is YAML. All monetary and fee values are YAML strings
// parsed into decimals at load time so that money never passes through
// floating point. Load resolves defaults, validates every field against
// the venue registry, and precomputes the typed views the rest of the
// system consumes (parsed pairs, decimal parameters, fee schedules).
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"arbscan/internal/calc"
	"arbscan/internal/model"
	"arbscan/internal/utils"
	"arbscan/internal/venues"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig indicates a configuration that fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Snapshot sources for a venue.
const (
	SourceREST      = "rest"
	SourceWebsocket = "websocket"
)

// Config is the root configuration.
type Config struct {
	Logging LoggingConfig          `yaml:"logging"`
	Metrics MetricsConfig          `yaml:"metrics"`
	Scanner ScannerConfig          `yaml:"scanner"`
	Venues  map[string]VenueConfig `yaml:"venues"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// ScannerConfig holds the scan loop parameters. Monetary fields are
// strings parsed into decimals by Load.
type ScannerConfig struct {
	Pairs           []string `yaml:"pairs"`
	MaxPairs        int      `yaml:"max_pairs"`
	Threshold       string   `yaml:"threshold"`
	TradeAmount     string   `yaml:"trade_amount"`
	MaxStalenessMs  int64    `yaml:"max_staleness_ms"`
	IntervalMs      int64    `yaml:"interval_ms"`
	Bankroll        string   `yaml:"bankroll"`
	ProbSuccess     string   `yaml:"prob_success"`
	KellyMultiplier string   `yaml:"kelly_multiplier"`
	MaxFraction     string   `yaml:"max_fraction"`

	// Resolved by Load.
	ParsedPairs        []model.CanonicalPair `yaml:"-"`
	ThresholdDec       decimal.Decimal       `yaml:"-"`
	TradeAmountDec     decimal.Decimal       `yaml:"-"`
	BankrollDec        decimal.Decimal       `yaml:"-"`
	ProbSuccessDec     decimal.Decimal       `yaml:"-"`
	KellyMultiplierDec decimal.Decimal       `yaml:"-"`
	MaxFractionDec     decimal.Decimal       `yaml:"-"`
}

// Interval returns the scan interval as a duration.
func (s ScannerConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMs) * time.Millisecond
}

// VenueConfig is the per-venue section.
type VenueConfig struct {
	Enabled              bool                      `yaml:"enabled"`
	Source               string                    `yaml:"source"`
	BaseURL              string                    `yaml:"base_url"`
	MinRequestIntervalMs int64                     `yaml:"min_request_interval_ms"`
	TimeoutMs            int64                     `yaml:"timeout_ms"`
	MaxRetries           int                       `yaml:"max_retries"`
	Fees                 FeesConfig                `yaml:"fees"`
	Withdrawals          map[string]WithdrawalCfg  `yaml:"withdrawals"`
	Accuracy             map[string]AccuracyConfig `yaml:"accuracy"`
}

// FeesConfig holds per-side trading fees as decimal strings.
type FeesConfig struct {
	BuyPct  string `yaml:"buy_pct"`
	SellPct string `yaml:"sell_pct"`
	Flat    string `yaml:"flat"`
}

// WithdrawalCfg is a per-currency withdrawal fee.
type WithdrawalCfg struct {
	Flat string `yaml:"flat"`
	Pct  string `yaml:"pct"`
}

// AccuracyConfig holds per-pair precision constraints as decimal strings.
type AccuracyConfig struct {
	PriceDecimals int    `yaml:"price_decimals"`
	LotDecimals   int    `yaml:"lot_decimals"`
	MinOrderSize  string `yaml:"min_order_size"`
	MaxOrderSize  string `yaml:"max_order_size"` // empty = no maximum
	TickSize      string `yaml:"tick_size"`
	LotStep       string `yaml:"lot_step"`
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9101",
		},
		Scanner: ScannerConfig{
			MaxPairs:        16,
			Threshold:       "0.001",
			TradeAmount:     "0.1",
			MaxStalenessMs:  5000,
			IntervalMs:      2000,
			Bankroll:        "0",
			ProbSuccess:     calc.DefaultProbSuccess.String(),
			KellyMultiplier: calc.DefaultKellyMultiplier.String(),
			MaxFraction:     calc.MaxKellyFraction.String(),
		},
	}
}

// Load reads the YAML file at path over the built-in defaults, validates
// it, and resolves the typed views.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolve validates the raw config and fills the typed fields.
func (c *Config) resolve() error {
	if err := utils.ValidatePairs(c.Scanner.Pairs, c.Scanner.MaxPairs); err != nil {
		return fmt.Errorf("%w: scanner.pairs: %v", ErrInvalidConfig, err)
	}

	c.Scanner.ParsedPairs = make([]model.CanonicalPair, 0, len(c.Scanner.Pairs))
	for _, raw := range c.Scanner.Pairs {
		pair, err := model.ParsePair(raw)
		if err != nil {
			return fmt.Errorf("%w: scanner.pairs: %v", ErrInvalidConfig, err)
		}
		c.Scanner.ParsedPairs = append(c.Scanner.ParsedPairs, pair)
	}

	var err error
	if c.Scanner.ThresholdDec, err = parseDecimal("scanner.threshold", c.Scanner.Threshold); err != nil {
		return err
	}
	if c.Scanner.TradeAmountDec, err = parseDecimal("scanner.trade_amount", c.Scanner.TradeAmount); err != nil {
		return err
	}
	if !c.Scanner.TradeAmountDec.IsPositive() {
		return fmt.Errorf("%w: scanner.trade_amount must be positive", ErrInvalidConfig)
	}
	if c.Scanner.BankrollDec, err = parseDecimal("scanner.bankroll", c.Scanner.Bankroll); err != nil {
		return err
	}
	if c.Scanner.ProbSuccessDec, err = parseDecimal("scanner.prob_success", c.Scanner.ProbSuccess); err != nil {
		return err
	}
	if c.Scanner.KellyMultiplierDec, err = parseDecimal("scanner.kelly_multiplier", c.Scanner.KellyMultiplier); err != nil {
		return err
	}
	if c.Scanner.MaxFractionDec, err = parseDecimal("scanner.max_fraction", c.Scanner.MaxFraction); err != nil {
		return err
	}

	enabled := 0
	for name, vc := range c.Venues {
		if !vc.Enabled {
			continue
		}
		enabled++

		venue := model.Venue(name)
		if err := venues.CheckEligible(venue); err != nil {
			return fmt.Errorf("%w: venues.%s: %v (known venues: %v)", ErrInvalidConfig, name, err, venues.Known())
		}

		switch vc.Source {
		case "", SourceREST, SourceWebsocket:
		default:
			return fmt.Errorf("%w: venues.%s.source must be %q or %q", ErrInvalidConfig, name, SourceREST, SourceWebsocket)
		}

		if _, err := vc.feeSchedulePrototype(); err != nil {
			return fmt.Errorf("%w: venues.%s: %v", ErrInvalidConfig, name, err)
		}

		for _, pair := range c.Scanner.ParsedPairs {
			if _, ok := vc.Accuracy[pair.String()]; !ok {
				return fmt.Errorf("%w: venues.%s.accuracy missing entry for %s", ErrInvalidConfig, name, pair)
			}
			if _, err := vc.accuracyFor(venue, pair); err != nil {
				return fmt.Errorf("%w: venues.%s.accuracy[%s]: %v", ErrInvalidConfig, name, pair, err)
			}
		}
	}
	if enabled < 2 {
		return fmt.Errorf("%w: at least two enabled venues required, got %d", ErrInvalidConfig, enabled)
	}

	return nil
}

// EnabledVenues returns the enabled venue identifiers with their configs.
func (c *Config) EnabledVenues() map[model.Venue]VenueConfig {
	out := make(map[model.Venue]VenueConfig)
	for name, vc := range c.Venues {
		if vc.Enabled {
			out[model.Venue(name)] = vc
		}
	}
	return out
}

// FeeSchedules builds the complete fee schedule per enabled venue for one
// pair. Called once at startup per pair; resolve has already verified the
// decimals parse.
func (c *Config) FeeSchedules(pair model.CanonicalPair) (map[model.Venue]model.FeeSchedule, error) {
	out := make(map[model.Venue]model.FeeSchedule)
	for venue, vc := range c.EnabledVenues() {
		proto, err := vc.feeSchedulePrototype()
		if err != nil {
			return nil, fmt.Errorf("venue %s: %w", venue, err)
		}

		acc, err := vc.accuracyFor(venue, pair)
		if err != nil {
			return nil, fmt.Errorf("venue %s: %w", venue, err)
		}

		schedule := model.FeeSchedule{
			BuyFee:   model.FeeRate{Venue: venue, Action: model.Buy, PctFee: proto.buyPct, FlatFee: proto.flat},
			SellFee:  model.FeeRate{Venue: venue, Action: model.Sell, PctFee: proto.sellPct, FlatFee: proto.flat},
			Accuracy: acc,
		}

		if w, ok := vc.Withdrawals[pair.Base]; ok {
			wf, err := parseWithdrawal(venue, pair.Base, w)
			if err != nil {
				return nil, fmt.Errorf("venue %s: %w", venue, err)
			}
			schedule.BuyWithdrawal = &wf
		}
		if w, ok := vc.Withdrawals[pair.Quote]; ok {
			wf, err := parseWithdrawal(venue, pair.Quote, w)
			if err != nil {
				return nil, fmt.Errorf("venue %s: %w", venue, err)
			}
			schedule.SellWithdrawal = &wf
		}

		out[venue] = schedule
	}
	return out, nil
}

type feePrototype struct {
	buyPct  decimal.Decimal
	sellPct decimal.Decimal
	flat    decimal.Decimal
}

func (vc VenueConfig) feeSchedulePrototype() (feePrototype, error) {
	var p feePrototype
	var err error
	if p.buyPct, err = parseDecimal("fees.buy_pct", vc.Fees.BuyPct); err != nil {
		return p, err
	}
	if p.sellPct, err = parseDecimal("fees.sell_pct", vc.Fees.SellPct); err != nil {
		return p, err
	}
	if p.flat, err = parseDecimalDefault("fees.flat", vc.Fees.Flat, decimal.Zero); err != nil {
		return p, err
	}
	return p, nil
}

func (vc VenueConfig) accuracyFor(venue model.Venue, pair model.CanonicalPair) (model.TradingAccuracy, error) {
	ac, ok := vc.Accuracy[pair.String()]
	if !ok {
		return model.TradingAccuracy{}, fmt.Errorf("no accuracy entry for %s", pair)
	}

	acc := model.TradingAccuracy{
		Venue:         venue,
		Pair:          pair,
		PriceDecimals: ac.PriceDecimals,
		LotDecimals:   ac.LotDecimals,
	}

	var err error
	if acc.MinOrderSize, err = parseDecimal("min_order_size", ac.MinOrderSize); err != nil {
		return acc, err
	}
	if acc.TickSize, err = parseDecimal("tick_size", ac.TickSize); err != nil {
		return acc, err
	}
	if acc.LotStep, err = parseDecimal("lot_step", ac.LotStep); err != nil {
		return acc, err
	}
	if !acc.LotStep.IsPositive() {
		return acc, fmt.Errorf("lot_step must be positive")
	}
	if ac.MaxOrderSize != "" {
		maxSz, err := parseDecimal("max_order_size", ac.MaxOrderSize)
		if err != nil {
			return acc, err
		}
		acc.MaxOrderSize = &maxSz
	}
	return acc, nil
}

func parseWithdrawal(venue model.Venue, currency string, w WithdrawalCfg) (model.WithdrawalFee, error) {
	wf := model.WithdrawalFee{Venue: venue, Currency: currency}
	var err error
	if wf.FlatFee, err = parseDecimalDefault("withdrawals."+currency+".flat", w.Flat, decimal.Zero); err != nil {
		return wf, err
	}
	if wf.PctFee, err = parseDecimalDefault("withdrawals."+currency+".pct", w.Pct, decimal.Zero); err != nil {
		return wf, err
	}
	return wf, nil
}

func parseDecimal(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: %s is required", ErrInvalidConfig, field)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, field, err)
	}
	return d, nil
}

func parseDecimalDefault(field, raw string, def decimal.Decimal) (decimal.Decimal, error) {
	if raw == "" {
		return def, nil
	}
	return parseDecimal(field, raw)
}
