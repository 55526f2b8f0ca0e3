package scanner

import (
	"arbscan/internal/calc"
	"arbscan/internal/model"

	"github.com/shopspring/decimal"
)

// PassesThreshold reports whether an opportunity's net return STRICTLY
// exceeds the threshold.
//
// Since ReturnNet <= ReturnGross <= ReturnRaw for non-negative fees, a net
// return above threshold implies the looser levels are too: checking only
// the net level is both simpler and more conservative. The comparison is >
// rather than >=: an opportunity exactly at threshold could easily slip
// below through timing or slippage.
func PassesThreshold(opp model.Opportunity, threshold decimal.Decimal) bool {
	return opp.ReturnNet.GreaterThan(threshold)
}

// SelectTrade picks the single best trade from a set of opportunities.
//
// Opportunities are filtered on net return against the threshold, ranked by
// net return descending, and the best one is returned. Returns nil when
// nothing qualifies or the input is empty.
func SelectTrade(opportunities []model.Opportunity, threshold decimal.Decimal) *model.Opportunity {
	var qualifying []model.Opportunity
	for _, o := range opportunities {
		if PassesThreshold(o, threshold) {
			qualifying = append(qualifying, o)
		}
	}
	if len(qualifying) == 0 {
		return nil
	}

	ranked := calc.SortOpportunities(qualifying, calc.MetricReturnNet, true)
	best := ranked[0]
	return &best
}
