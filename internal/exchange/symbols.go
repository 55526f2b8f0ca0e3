package exchange

import (
	"fmt"
	"sort"

	"arbscan/internal/model"
)

// SymbolTranslator maps canonical BASE/QUOTE pairs to venue-native symbols
// and back. One translator exists per venue; the maps are fixed at startup.
type SymbolTranslator struct {
	venue            model.Venue
	canonicalToVenue map[string]string
	venueToCanonical map[string]model.CanonicalPair
}

// NewSymbolTranslator builds a translator from a canonical→venue symbol
// map. Canonical keys that do not parse as BASE/QUOTE are an error.
func NewSymbolTranslator(venue model.Venue, canonicalToVenue map[string]string) (*SymbolTranslator, error) {
	reverse := make(map[string]model.CanonicalPair, len(canonicalToVenue))
	forward := make(map[string]string, len(canonicalToVenue))

	for canonical, venueSymbol := range canonicalToVenue {
		pair, err := model.ParsePair(canonical)
		if err != nil {
			return nil, fmt.Errorf("%s symbol map: %w", venue, err)
		}
		forward[pair.String()] = venueSymbol
		reverse[venueSymbol] = pair
	}

	return &SymbolTranslator{
		venue:            venue,
		canonicalToVenue: forward,
		venueToCanonical: reverse,
	}, nil
}

// ToVenueSymbol returns the venue-native symbol for a canonical pair.
func (t *SymbolTranslator) ToVenueSymbol(pair model.CanonicalPair) (string, error) {
	sym, ok := t.canonicalToVenue[pair.String()]
	if !ok {
		return "", fmt.Errorf("%s: no symbol mapping for %s", t.venue, pair)
	}
	return sym, nil
}

// ToCanonical returns the canonical pair for a venue-native symbol.
func (t *SymbolTranslator) ToCanonical(venueSymbol string) (model.CanonicalPair, error) {
	pair, ok := t.venueToCanonical[venueSymbol]
	if !ok {
		return model.CanonicalPair{}, fmt.Errorf("%s: no canonical pair for symbol %q", t.venue, venueSymbol)
	}
	return pair, nil
}

// SupportedPairs lists the canonical pairs the translator knows about, in
// sorted order.
func (t *SymbolTranslator) SupportedPairs() []string {
	out := make([]string, 0, len(t.canonicalToVenue))
	for canonical := range t.canonicalToVenue {
		out = append(out, canonical)
	}
	sort.Strings(out)
	return out
}

// krakenSymbolMap covers the pairs traded on Kraken's spot REST and
// WebSocket APIs. Kraken uses legacy X/Z-prefixed codes for older assets.
var krakenSymbolMap = map[string]string{
	"BTC/USD":  "XXBTZUSD",
	"BTC/USDC": "XBTUSDC",
	"LTC/USD":  "XLTCZUSD",
	"LTC/USDC": "LTCUSDC",
	"LTC/BTC":  "XLTCXXBT",
	"SOL/USD":  "SOLUSD",
	"SOL/USDC": "SOLUSDC",
	"SOL/BTC":  "SOLXBT",
}

// krakenWsSymbolMap covers the same pairs for the v2 WebSocket API, which
// uses plain BASE/QUOTE symbols with BTC spelled out.
var krakenWsSymbolMap = map[string]string{
	"BTC/USD":  "BTC/USD",
	"BTC/USDC": "BTC/USDC",
	"LTC/USD":  "LTC/USD",
	"LTC/USDC": "LTC/USDC",
	"LTC/BTC":  "LTC/BTC",
	"SOL/USD":  "SOL/USD",
	"SOL/USDC": "SOL/USDC",
	"SOL/BTC":  "SOL/BTC",
}

var coinbaseSymbolMap = map[string]string{
	"BTC/USD":  "BTC-USD",
	"BTC/USDC": "BTC-USDC",
	"LTC/USD":  "LTC-USD",
	"LTC/USDC": "LTC-USDC",
	"LTC/BTC":  "LTC-BTC",
	"SOL/USD":  "SOL-USD",
	"SOL/USDC": "SOL-USDC",
	"SOL/BTC":  "SOL-BTC",
}

// KrakenSymbols returns the REST symbol translator for Kraken.
func KrakenSymbols() *SymbolTranslator {
	t, _ := NewSymbolTranslator(model.VenueKraken, krakenSymbolMap)
	return t
}

// KrakenWsSymbols returns the v2 WebSocket symbol translator for Kraken.
func KrakenWsSymbols() *SymbolTranslator {
	t, _ := NewSymbolTranslator(model.VenueKraken, krakenWsSymbolMap)
	return t
}

// CoinbaseSymbols returns the symbol translator for Coinbase.
func CoinbaseSymbols() *SymbolTranslator {
	t, _ := NewSymbolTranslator(model.VenueCoinbase, coinbaseSymbolMap)
	return t
}
