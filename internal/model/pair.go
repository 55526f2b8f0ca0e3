package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPair indicates a pair string that does not parse as BASE/QUOTE.
var ErrInvalidPair = errors.New("invalid canonical pair")

// CanonicalPair is a normalized base/quote currency pair such as BTC/USD.
//
// Base is the market currency (the asset being traded), Quote is the base
// currency the asset is priced in. Both are uppercase. A CanonicalPair is
// only created through ParsePair and never mutated afterwards.
type CanonicalPair struct {
	Base  string
	Quote string
}

// ParsePair parses a canonical pair string like "SOL/USDC".
//
// Both components are trimmed and uppercased. An empty base or quote, or a
// missing separator, is an error.
func ParsePair(s string) (CanonicalPair, error) {
	if s == "" || !strings.Contains(s, "/") {
		return CanonicalPair{}, fmt.Errorf("%w: %q must look like BASE/QUOTE", ErrInvalidPair, s)
	}

	base, quote, _ := strings.Cut(s, "/")
	base = strings.ToUpper(strings.TrimSpace(base))
	quote = strings.ToUpper(strings.TrimSpace(quote))

	if base == "" || quote == "" {
		return CanonicalPair{}, fmt.Errorf("%w: %q must look like BASE/QUOTE", ErrInvalidPair, s)
	}

	return CanonicalPair{Base: base, Quote: quote}, nil
}

// String renders the pair in canonical BASE/QUOTE form.
func (p CanonicalPair) String() string {
	return p.Base + "/" + p.Quote
}
