// Package utils provides common utility functions for data validation.
//
// This package contains utilities for working with canonical trading pairs,
// including validating pair lists against the supported quote currencies.
package utils

import (
	"errors"
	"fmt"
	"strings"

	"arbscan/internal/model"
)

// Error definitions for validation functions
var (
	ErrNoPairs      = errors.New("zero pairs requested")
	ErrTooManyPairs = errors.New("too many pairs requested")
)

// QuoteCurrencySet contains the supported quote currencies for canonical
// pairs. This map is used for O(1) lookup when validating pairs.
var QuoteCurrencySet = map[string]bool{
	"USD":  true, // US dollar
	"USDT": true, // Tether USD
	"USDC": true, // USD Coin
	"EUR":  true, // Euro
}

// supportedQuotesCache is a pre-computed string of supported quote
// currencies to avoid rebuilding this string on every validation error.
var supportedQuotesCache = getSupportedQuotes(QuoteCurrencySet)

// ValidatePair validates that a canonical pair string parses and uses a
// supported quote currency.
//
// The expected format is "BASE/QUOTE" where:
//   - BASE is the market currency (e.g. "BTC", "ETH")
//   - QUOTE is the base currency and must be one of the supported quotes
//
// The validation is case-insensitive.
func ValidatePair(raw string) error {
	pair, err := model.ParsePair(raw)
	if err != nil {
		return err
	}

	if !QuoteCurrencySet[pair.Quote] {
		return fmt.Errorf("unsupported quote currency: %s (supported: %s)",
			pair.Quote, supportedQuotesCache)
	}

	return nil
}

// ValidatePairs validates a slice of canonical pair strings and enforces
// quantity limits.
//
// This function performs two types of validation:
//  1. Quantity validation: Ensures the number of pairs is within limits
//  2. Format validation: Validates each pair using ValidatePair
func ValidatePairs(pairs []string, maxAllowed int) error {
	if len(pairs) == 0 {
		return ErrNoPairs
	}

	if maxAllowed <= 0 {
		return fmt.Errorf("%w: max allowed must be positive, got %d",
			ErrTooManyPairs, maxAllowed)
	}

	if len(pairs) > maxAllowed {
		return fmt.Errorf("%w: requested %d pairs, maximum allowed %d",
			ErrTooManyPairs, len(pairs), maxAllowed)
	}

	for i, raw := range pairs {
		if err := ValidatePair(raw); err != nil {
			return fmt.Errorf("invalid pair at index %d (%q): %w", i, raw, err)
		}
	}

	return nil
}

// getSupportedQuotes builds a comma-separated string of supported quote
// currencies for user-facing error messages.
//
// Note: The order of currencies in the returned string is not guaranteed
// due to Go's map iteration order being unspecified.
func getSupportedQuotes(quoteCurrencySet map[string]bool) string {
	keys := make([]string, 0, len(quoteCurrencySet))
	for k := range quoteCurrencySet {
		keys = append(keys, k)
	}
	return strings.Join(keys, ", ")
}
