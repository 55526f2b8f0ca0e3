package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errors returned by NewTopOfBook for snapshots violating book invariants.
var (
	ErrMissingVenue = errors.New("venue is required")
	ErrCrossedBook  = errors.New("crossed or locked book")
	ErrNegativePx   = errors.New("prices and sizes must be >= 0")
)

// TopOfBook is the best bid and ask for one pair on one venue at one instant.
//
// Snapshots are constructed once per fetch at the data boundary via
// NewTopOfBook and are trusted immutable by everything downstream; the
// calculation layer performs no re-validation.
type TopOfBook struct {
	Venue Venue
	Pair  CanonicalPair

	// TsLocalMs is the local receive timestamp in ms since epoch. Staleness
	// filtering is computed against this clock, not the exchange's.
	TsLocalMs int64

	// TsExchangeMs is the exchange-reported timestamp in ms since epoch,
	// or 0 when the venue does not report one.
	TsExchangeMs int64

	BidPx decimal.Decimal
	BidSz decimal.Decimal
	AskPx decimal.Decimal
	AskSz decimal.Decimal
}

// NewTopOfBook constructs a validated snapshot.
//
// Invariants enforced here, once, at the boundary:
//   - venue and pair are present
//   - all prices and sizes are >= 0
//   - bid < ask when both sides are positive (no crossed or locked book)
func NewTopOfBook(venue Venue, pair CanonicalPair, tsLocalMs, tsExchangeMs int64,
	bidPx, bidSz, askPx, askSz decimal.Decimal) (TopOfBook, error) {

	if venue == "" {
		return TopOfBook{}, ErrMissingVenue
	}
	if pair.Base == "" || pair.Quote == "" {
		return TopOfBook{}, fmt.Errorf("%w: empty pair", ErrInvalidPair)
	}

	for _, f := range []struct {
		name string
		v    decimal.Decimal
	}{
		{"bid_px", bidPx},
		{"bid_sz", bidSz},
		{"ask_px", askPx},
		{"ask_sz", askSz},
	} {
		if f.v.IsNegative() {
			return TopOfBook{}, fmt.Errorf("%w: %s is %s", ErrNegativePx, f.name, f.v)
		}
	}

	if bidPx.IsPositive() && askPx.IsPositive() && bidPx.GreaterThanOrEqual(askPx) {
		return TopOfBook{}, fmt.Errorf("%w: bid %s >= ask %s", ErrCrossedBook, bidPx, askPx)
	}

	return TopOfBook{
		Venue:        venue,
		Pair:         pair,
		TsLocalMs:    tsLocalMs,
		TsExchangeMs: tsExchangeMs,
		BidPx:        bidPx,
		BidSz:        bidSz,
		AskPx:        askPx,
		AskSz:        askSz,
	}, nil
}
