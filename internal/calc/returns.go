package calc

import (
	"github.com/shopspring/decimal"
)

// ReturnRaw is the return before any fees: (sell - buy) / buy.
//
// A positive raw return means the sell venue's bid is above the buy venue's
// ask, the precondition for profitable arbitrage. The buy price must be
// positive; this is guaranteed by boundary validation on snapshots and not
// re-checked here.
func ReturnRaw(buyPrice, sellPrice decimal.Decimal) decimal.Decimal {
	return sellPrice.Sub(buyPrice).Div(buyPrice)
}

// ReturnGross is the return after trading fees, before withdrawal fees:
// (sellProceeds - buyCost) / buyCost over the gross cost/proceeds levels.
func ReturnGross(buyCostBase, sellProceedsBase decimal.Decimal) decimal.Decimal {
	return sellProceedsBase.Sub(buyCostBase).Div(buyCostBase)
}

// ReturnNet is the return after ALL fees (trading + withdrawal). This is the
// true profitability metric: a trade is only worth executing when the net
// return exceeds the configured threshold.
//
// For non-negative fees, ReturnNet <= ReturnGross <= ReturnRaw always holds;
// fees only ever reduce return.
func ReturnNet(buyTotalCost, sellNetProceeds decimal.Decimal) decimal.Decimal {
	return sellNetProceeds.Sub(buyTotalCost).Div(buyTotalCost)
}

// ProfitBase is the absolute profit in base currency at any fee level:
// proceeds - cost.
func ProfitBase(costBase, proceedsBase decimal.Decimal) decimal.Decimal {
	return proceedsBase.Sub(costBase)
}
