// Package calc implements the pure calculation layer of the arbitrage
// scanner: fee-aware trade legs, returns at three levels, all-pairs
// opportunity generation, ranking/filtering, and Kelly position sizing.
//
// Every function in this package is a deterministic mapping from immutable
// inputs to a new immutable output. There is no I/O, no shared state, and no
// validation: inputs are validated once at the data boundary (connector
// parsers, config loading) and trusted here. All monetary arithmetic uses
// decimal.Decimal; binary floating point is never used for money.
//
// The fee flow per leg:
//
//	Buy side (buying market currency, paying base currency):
//	    baseCost    = amount * price
//	    tradingFee  = baseCost * feePct + flatFee     // increases cost
//
//	Sell side (selling market currency, receiving base currency):
//	    baseProceeds = amount * price
//	    tradingFee   = baseProceeds * feePct + flatFee // reduces proceeds
//
// The buy fee makes the cost HIGHER, the sell fee makes the proceeds LOWER.
// Both reduce profit.
package calc

import (
	"arbscan/internal/model"

	"github.com/shopspring/decimal"
)

// BuyLeg calculates the buy-side leg with its full fee breakdown.
//
// Price is the best ask on the buy venue (what you pay per unit), amount is
// the market currency amount to buy. The optional withdrawal fee models
// moving the bought market currency off the venue and is denominated in
// market currency: flat + amount * pct.
func BuyLeg(venue model.Venue, pair model.CanonicalPair, price, amount, feePct, flatFee decimal.Decimal,
	withdrawal *model.WithdrawalFee) model.TradeLeg {

	baseCost := amount.Mul(price)
	tradingFee := baseCost.Mul(feePct).Add(flatFee)

	wFee := decimal.Zero
	if withdrawal != nil {
		wFee = withdrawal.FlatFee.Add(amount.Mul(withdrawal.PctFee))
	}

	return model.TradeLeg{
		Venue:          venue,
		Pair:           pair,
		Side:           model.Buy,
		Price:          price,
		MktCurrAmt:     amount,
		BaseCurrAmt:    baseCost,
		FeeRate:        feePct,
		TradingFeeBase: tradingFee,
		WithdrawalFee:  wFee,
	}
}

// SellLeg calculates the sell-side leg with its full fee breakdown.
//
// Price is the best bid on the sell venue (what you receive per unit). The
// optional withdrawal fee models moving the base currency proceeds off the
// venue and is denominated in base currency: flat + baseProceeds * pct,
// charged on the raw proceeds before the trading fee.
func SellLeg(venue model.Venue, pair model.CanonicalPair, price, amount, feePct, flatFee decimal.Decimal,
	withdrawal *model.WithdrawalFee) model.TradeLeg {

	baseProceeds := amount.Mul(price)
	tradingFee := baseProceeds.Mul(feePct).Add(flatFee)

	wFee := decimal.Zero
	if withdrawal != nil {
		wFee = withdrawal.FlatFee.Add(baseProceeds.Mul(withdrawal.PctFee))
	}

	return model.TradeLeg{
		Venue:          venue,
		Pair:           pair,
		Side:           model.Sell,
		Price:          price,
		MktCurrAmt:     amount,
		BaseCurrAmt:    baseProceeds,
		FeeRate:        feePct,
		TradingFeeBase: tradingFee,
		WithdrawalFee:  wFee,
	}
}

// EffectiveBuyCost is the gross base currency cost of a buy leg: raw cost
// plus the trading fee. Withdrawal fees are not included.
func EffectiveBuyCost(leg model.TradeLeg) decimal.Decimal {
	return leg.BaseCurrAmt.Add(leg.TradingFeeBase)
}

// EffectiveSellProceeds is the gross base currency proceeds of a sell leg:
// raw proceeds minus the trading fee. Withdrawal fees are not included.
func EffectiveSellProceeds(leg model.TradeLeg) decimal.Decimal {
	return leg.BaseCurrAmt.Sub(leg.TradingFeeBase)
}

// TotalBuyCost is the buy leg cost including trading and withdrawal fees.
//
// The market currency withdrawal fee is converted to base currency at the
// leg's own execution price. This is an approximation, not a separate
// market rate.
func TotalBuyCost(leg model.TradeLeg) decimal.Decimal {
	withdrawalInBase := leg.WithdrawalFee.Mul(leg.Price)
	return EffectiveBuyCost(leg).Add(withdrawalInBase)
}

// NetSellProceeds is the sell leg proceeds after trading and withdrawal
// fees. The withdrawal fee is already in base currency, so no conversion
// is needed.
func NetSellProceeds(leg model.TradeLeg) decimal.Decimal {
	return EffectiveSellProceeds(leg).Sub(leg.WithdrawalFee)
}
