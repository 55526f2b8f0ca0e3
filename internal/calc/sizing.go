package calc

import (
	"arbscan/internal/model"

	"github.com/shopspring/decimal"
)

// Fractional-Kelly defaults. The 0.95 success probability is an empirical
// execution success rate; 0.25 is quarter Kelly, a deliberate conservative
// scaling below the full-Kelly optimum.
var (
	DefaultProbSuccess     = decimal.RequireFromString("0.95")
	DefaultKellyMultiplier = decimal.RequireFromString("0.25")

	// MaxKellyFraction is a hard safety ceiling: never risk more than this
	// fraction of bankroll on one trade, regardless of what Kelly says.
	MaxKellyFraction = decimal.RequireFromString("0.10")
)

// KellyFraction is the pure Kelly bet fraction: edge * probSuccess.
//
// The edge is the gross return above the configured threshold. A zero or
// negative edge returns zero: no negative or zero-edge bets, for any
// probability.
func KellyFraction(edge, probSuccess decimal.Decimal) decimal.Decimal {
	if !edge.IsPositive() {
		return decimal.Zero
	}
	return edge.Mul(probSuccess)
}

// KellyAmount computes the position size in base currency using fractional
// Kelly: KellyFraction(returnGross - threshold, probSuccess) * multiplier *
// bankroll, capped at maxFraction * bankroll.
//
// Example: bankroll 1000, returnGross 0.008, threshold 0.0055, prob 0.95,
// multiplier 0.25 → edge 0.0025, fraction 0.002375, amount 0.59375.
func KellyAmount(bankroll, returnGross, threshold, probSuccess, kellyMultiplier, maxFraction decimal.Decimal) decimal.Decimal {
	edge := returnGross.Sub(threshold)
	raw := KellyFraction(edge, probSuccess).Mul(kellyMultiplier).Mul(bankroll)

	ceiling := maxFraction.Mul(bankroll)
	if raw.GreaterThan(ceiling) {
		return ceiling
	}
	return raw
}

// PositionSize converts a base currency Kelly amount into an
// exchange-compliant order size in market currency units.
//
// The amount is divided by price, floored to the venue's lot step (round
// toward zero: never round up past what is actually affordable), then
// checked against the venue's order size limits:
//   - below the minimum order size → zero, no unexecutable dust orders
//   - above the maximum order size (when one exists) → re-floored at the
//     maximum to stay compliant
func PositionSize(kellyAmountBase, price decimal.Decimal, accuracy model.TradingAccuracy) (decimal.Decimal, error) {
	rawSize := kellyAmountBase.Div(price)

	floored, err := FloorToStep(rawSize, accuracy.LotStep)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if floored.LessThan(accuracy.MinOrderSize) {
		return decimal.Zero, nil
	}

	if accuracy.MaxOrderSize != nil && floored.GreaterThan(*accuracy.MaxOrderSize) {
		return FloorToStep(*accuracy.MaxOrderSize, accuracy.LotStep)
	}

	return floored, nil
}
