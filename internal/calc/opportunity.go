package calc

import (
	"sort"

	"arbscan/internal/model"

	"github.com/shopspring/decimal"
)

// Metric selects which return or profit field of an Opportunity is used for
// ranking and filtering.
type Metric int

const (
	// MetricReturnNet ranks by return after all fees. This is the default
	// and the metric the scanner selects trades on.
	MetricReturnNet Metric = iota

	// MetricReturnGross ranks by return after trading fees only.
	MetricReturnGross

	// MetricReturnRaw ranks by price spread alone.
	MetricReturnRaw

	// MetricProfitGross ranks by absolute gross profit in base currency.
	MetricProfitGross

	// MetricProfitNet ranks by absolute net profit in base currency.
	MetricProfitNet
)

// of extracts the metric's value from an opportunity.
func (m Metric) of(o model.Opportunity) decimal.Decimal {
	switch m {
	case MetricReturnGross:
		return o.ReturnGross
	case MetricReturnRaw:
		return o.ReturnRaw
	case MetricProfitGross:
		return o.ProfitGrossBase
	case MetricProfitNet:
		return o.ProfitNetBase
	default:
		return o.ReturnNet
	}
}

// EvalOpportunity evaluates a single directional arbitrage opportunity:
// buy market currency on buyTob's venue at the ask, sell on sellTob's venue
// at the bid.
//
// tradeAmount is a fixed reference amount in market currency used for the
// return calculation; it is an evaluation size, not a sizing decision.
// Actual position size is computed separately via KellyAmount/PositionSize
// once an opportunity has been selected.
func EvalOpportunity(buyTob, sellTob model.TopOfBook, buyFees, sellFees model.FeeSchedule,
	tradeAmount decimal.Decimal, tsCalculatedMs int64) model.Opportunity {

	buyPrice := buyTob.AskPx   // we buy at the ask
	sellPrice := sellTob.BidPx // we sell at the bid

	buyLeg := BuyLeg(buyTob.Venue, buyTob.Pair, buyPrice, tradeAmount,
		buyFees.BuyFee.PctFee, buyFees.BuyFee.FlatFee, buyFees.BuyWithdrawal)

	sellLeg := SellLeg(sellTob.Venue, sellTob.Pair, sellPrice, tradeAmount,
		sellFees.SellFee.PctFee, sellFees.SellFee.FlatFee, sellFees.SellWithdrawal)

	buyCostGrs := EffectiveBuyCost(buyLeg)
	sellProceedsGrs := EffectiveSellProceeds(sellLeg)

	buyCostNet := TotalBuyCost(buyLeg)
	sellProceedsNet := NetSellProceeds(sellLeg)

	return model.Opportunity{
		Pair:            buyTob.Pair,
		BuyVenue:        buyTob.Venue,
		SellVenue:       sellTob.Venue,
		BuyPrice:        buyPrice,
		SellPrice:       sellPrice,
		ReturnRaw:       ReturnRaw(buyPrice, sellPrice),
		ReturnGross:     ReturnGross(buyCostGrs, sellProceedsGrs),
		ReturnNet:       ReturnNet(buyCostNet, sellProceedsNet),
		ProfitGrossBase: ProfitBase(buyCostGrs, sellProceedsGrs),
		ProfitNetBase:   ProfitBase(buyCostNet, sellProceedsNet),
		BuyLeg:          buyLeg,
		SellLeg:         sellLeg,
		MarketCurrency:  buyTob.Pair.Base,
		BaseCurrency:    buyTob.Pair.Quote,
		TradeAmount:     tradeAmount,
		TsCalculatedMs:  tsCalculatedMs,
	}
}

// AllOpportunities generates every directional arbitrage opportunity for a
// single trading pair across the supplied venues.
//
// For N venues this produces N*(N-1) opportunities: each unordered venue
// pair is considered in both buy/sell directions. Venues are iterated in
// sorted order so the output sequence is deterministic. Fewer than two
// venues yield an empty result.
//
// Both maps must be keyed by the same venues; the scanner intersects them
// before calling.
func AllOpportunities(tobsByVenue map[model.Venue]model.TopOfBook,
	feesByVenue map[model.Venue]model.FeeSchedule,
	tradeAmount decimal.Decimal, tsCalculatedMs int64) []model.Opportunity {

	if len(tobsByVenue) < 2 {
		return nil
	}

	venues := make([]model.Venue, 0, len(tobsByVenue))
	for v := range tobsByVenue {
		venues = append(venues, v)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i] < venues[j] })

	opps := make([]model.Opportunity, 0, len(venues)*(len(venues)-1))
	for _, buyVenue := range venues {
		for _, sellVenue := range venues {
			if buyVenue == sellVenue {
				continue
			}
			opps = append(opps, EvalOpportunity(
				tobsByVenue[buyVenue], tobsByVenue[sellVenue],
				feesByVenue[buyVenue], feesByVenue[sellVenue],
				tradeAmount, tsCalculatedMs,
			))
		}
	}

	return opps
}

// SortOpportunities returns a new slice sorted by the given metric.
//
// The sort is stable and never mutates the input: opportunities with equal
// metric values keep their relative order, and the caller's slice is left
// untouched. Descending (highest first) is the usual direction.
func SortOpportunities(opps []model.Opportunity, metric Metric, descending bool) []model.Opportunity {
	out := make([]model.Opportunity, len(opps))
	copy(out, opps)

	sort.SliceStable(out, func(i, j int) bool {
		cmp := metric.of(out[i]).Cmp(metric.of(out[j]))
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})

	return out
}

// FilterProfitable returns the opportunities whose metric STRICTLY exceeds
// the threshold.
//
// The comparison is deliberately > and not >=: an opportunity exactly at
// the threshold has zero margin for execution slippage and is rejected.
func FilterProfitable(opps []model.Opportunity, threshold decimal.Decimal, metric Metric) []model.Opportunity {
	var out []model.Opportunity
	for _, o := range opps {
		if metric.of(o).GreaterThan(threshold) {
			out = append(out, o)
		}
	}
	return out
}
