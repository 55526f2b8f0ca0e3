// Package scanner composes the calculation layer into the top-level trade
// detection pipeline:
//
//	staleness filter -> fee intersection -> all opportunities -> rank -> select
//
// Everything here is pure and state-free: one call per scan cycle, no I/O,
// no validation (snapshots and fee schedules arrive boundary-validated), and
// concurrent cycles may run in parallel with no coordination.
package scanner

import (
	"arbscan/internal/calc"
	"arbscan/internal/model"

	"github.com/shopspring/decimal"
)

// FilterValidExchanges drops venues whose snapshot is too old to trade on.
//
// This is strategic filtering ("is this data fresh enough?"), not boundary
// validation: the snapshots are already valid, the question is whether they
// are recent enough to use. Age is nowMs - TsLocalMs, inclusive at the
// boundary: a snapshot exactly maxStalenessMs old is kept.
//
// Filtering is disabled (the input map is returned unchanged) when either
// maxStalenessMs or nowMs is non-positive. Failing open to "all venues
// usable" is the safer default: disabling staleness checks must never
// silently disable trading.
func FilterValidExchanges(tobsByVenue map[model.Venue]model.TopOfBook,
	maxStalenessMs, nowMs int64) map[model.Venue]model.TopOfBook {

	if maxStalenessMs <= 0 || nowMs <= 0 {
		return tobsByVenue
	}

	fresh := make(map[model.Venue]model.TopOfBook, len(tobsByVenue))
	for venue, tob := range tobsByVenue {
		if nowMs-tob.TsLocalMs <= maxStalenessMs {
			fresh[venue] = tob
		}
	}
	return fresh
}

// FindTradesToExecute runs one full scan cycle over a single pair and
// returns the single best opportunity worth executing, or nil.
//
// The pipeline:
//  1. FilterValidExchanges: remove stale snapshots (tsCalculatedMs doubles
//     as the staleness reference time)
//  2. intersect with the venues that have fee data, so a venue with market
//     data but no configured fees can never cause a lookup failure
//  3. calc.AllOpportunities: N*(N-1) directional opportunities
//  4. rank by net return, descending
//  5. SelectTrade: best strictly above threshold, or nil
//
// Fewer than two usable venues after steps 1–2 yield no opportunities and
// no trade, by construction.
func FindTradesToExecute(tobsByVenue map[model.Venue]model.TopOfBook,
	feesByVenue map[model.Venue]model.FeeSchedule,
	threshold, tradeAmount decimal.Decimal,
	tsCalculatedMs, maxStalenessMs int64) *model.Opportunity {

	fresh := FilterValidExchanges(tobsByVenue, maxStalenessMs, tsCalculatedMs)

	usableTobs := make(map[model.Venue]model.TopOfBook, len(fresh))
	usableFees := make(map[model.Venue]model.FeeSchedule, len(fresh))
	for venue, tob := range fresh {
		if fees, ok := feesByVenue[venue]; ok {
			usableTobs[venue] = tob
			usableFees[venue] = fees
		}
	}

	opps := calc.AllOpportunities(usableTobs, usableFees, tradeAmount, tsCalculatedMs)
	ranked := calc.SortOpportunities(opps, calc.MetricReturnNet, true)

	return SelectTrade(ranked, threshold)
}
