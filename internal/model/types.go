// Package model defines core data types for the arbitrage scanner.
//
// This package contains the fundamental data structures used throughout the
// system for representing market snapshots, fee schedules, and evaluated
// arbitrage opportunities. All types are immutable value objects: they are
// created via constructors at data boundaries (connector parsers, config
// loading) and trusted downstream by the calculation layer.
//
// All monetary values use decimal.Decimal for precise financial calculations
// to avoid floating-point precision issues common in financial applications.
package model

import (
	"github.com/shopspring/decimal"
)

// Venue identifies a cryptocurrency exchange (e.g. "kraken", "coinbase").
type Venue string

// Known venues.
const (
	VenueKraken   Venue = "kraken"
	VenueCoinbase Venue = "coinbase"
	VenueGemini   Venue = "gemini"
)

// Side identifies the direction of one trade leg.
type Side string

const (
	// Buy means acquiring market currency, paying base currency.
	Buy Side = "buy"

	// Sell means disposing of market currency, receiving base currency.
	Sell Side = "sell"
)

// FeeRate is a per-venue, per-side trading fee.
//
// PctFee is a fraction, not a percentage: Kraken's 0.26% taker fee is
// represented as decimal "0.0026". FlatFee is a fixed charge in base
// currency per trade, usually zero on spot venues.
type FeeRate struct {
	Venue   Venue
	Action  Side
	PctFee  decimal.Decimal // fraction, e.g. 0.0026
	FlatFee decimal.Decimal // base currency
}

// WithdrawalFee is a per-venue, per-currency withdrawal cost.
//
// Withdrawal fees are denominated in the currency being withdrawn: the
// market currency when moving crypto off the buy venue, the base currency
// when moving fiat or a stablecoin off the sell venue.
type WithdrawalFee struct {
	Venue    Venue
	Currency string          // "BTC", "USD", "USDC", ...
	FlatFee  decimal.Decimal // in the withdrawn currency
	PctFee   decimal.Decimal // usually zero for crypto withdrawals
}

// TradingAccuracy captures a venue's precision constraints for one pair.
//
// Order sizes produced by the position sizer are quantized against LotStep
// and checked against MinOrderSize/MaxOrderSize so that a proposed order is
// always acceptable to the venue.
type TradingAccuracy struct {
	Venue         Venue
	Pair          CanonicalPair
	PriceDecimals int
	LotDecimals   int
	MinOrderSize  decimal.Decimal
	MaxOrderSize  *decimal.Decimal // nil when the venue imposes no maximum
	TickSize      decimal.Decimal  // price step
	LotStep       decimal.Decimal  // volume step
}

// FeeSchedule bundles the complete fee context for one (venue, pair).
//
// Built once at startup from configuration and exchange metadata, then
// reused read-only for every scan cycle.
type FeeSchedule struct {
	BuyFee         FeeRate
	SellFee        FeeRate
	BuyWithdrawal  *WithdrawalFee // withdrawal from the buy venue; nil if not modelled
	SellWithdrawal *WithdrawalFee // withdrawal from the sell venue; nil if not modelled
	Accuracy       TradingAccuracy
}

// TradeLeg is one side of an arbitrage trade with its full fee breakdown.
//
// Legs are created per opportunity evaluation and discarded after use;
// they are never persisted.
type TradeLeg struct {
	Venue Venue
	Pair  CanonicalPair
	Side  Side

	// Price is the execution price: best ask for a buy leg, best bid for
	// a sell leg.
	Price decimal.Decimal

	MktCurrAmt  decimal.Decimal // market currency amount (e.g. BTC)
	BaseCurrAmt decimal.Decimal // base currency amount (e.g. USD)

	FeeRate        decimal.Decimal // the pct fee applied
	TradingFeeBase decimal.Decimal // absolute trading fee in base currency

	// WithdrawalFee is the absolute withdrawal fee in the withdrawn
	// currency: market currency for a buy leg, base currency for a sell leg.
	WithdrawalFee decimal.Decimal
}

// Opportunity is a fully evaluated cross-venue arbitrage opportunity.
//
// It carries returns at three levels (raw, gross, net), absolute profit at
// two levels, and both legs with their fee breakdowns. Opportunities are the
// unit ranked, filtered, and selected by the scanner.
type Opportunity struct {
	Pair      CanonicalPair
	BuyVenue  Venue
	SellVenue Venue

	BuyPrice  decimal.Decimal // best ask on the buy venue
	SellPrice decimal.Decimal // best bid on the sell venue

	ReturnRaw   decimal.Decimal // before any fees
	ReturnGross decimal.Decimal // after trading fees
	ReturnNet   decimal.Decimal // after trading and withdrawal fees

	ProfitGrossBase decimal.Decimal
	ProfitNetBase   decimal.Decimal

	BuyLeg  TradeLeg
	SellLeg TradeLeg

	MarketCurrency string // e.g. "BTC"
	BaseCurrency   string // e.g. "USD"

	TradeAmount    decimal.Decimal // reference market currency amount evaluated
	TsCalculatedMs int64
}
