package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test_ParsePair tests canonical pair parsing with various inputs
func Test_ParsePair(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantBase    string
		wantQuote   string
		expectError bool
		description string
	}{
		{
			name:        "Valid BTC/USD",
			input:       "BTC/USD",
			wantBase:    "BTC",
			wantQuote:   "USD",
			description: "Should accept a canonical pair",
		},
		{
			name:        "Lowercase normalized",
			input:       "btc/usd",
			wantBase:    "BTC",
			wantQuote:   "USD",
			description: "Should uppercase both components",
		},
		{
			name:        "Whitespace trimmed",
			input:       " eth / usdc ",
			wantBase:    "ETH",
			wantQuote:   "USDC",
			description: "Should trim whitespace around components",
		},
		{
			name:        "Empty string",
			input:       "",
			expectError: true,
			description: "Should reject an empty string",
		},
		{
			name:        "Missing separator",
			input:       "BTCUSD",
			expectError: true,
			description: "Should reject a pair without a slash",
		},
		{
			name:        "Empty base",
			input:       "/USD",
			expectError: true,
			description: "Should reject an empty base",
		},
		{
			name:        "Empty quote",
			input:       "BTC/",
			expectError: true,
			description: "Should reject an empty quote",
		},
		{
			name:        "Only separator",
			input:       "/",
			expectError: true,
			description: "Should reject a bare slash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := ParsePair(tt.input)

			if tt.expectError {
				require.Error(t, err, tt.description)
				assert.ErrorIs(t, err, ErrInvalidPair, tt.description)
				return
			}

			require.NoError(t, err, tt.description)
			assert.Equal(t, tt.wantBase, pair.Base, tt.description)
			assert.Equal(t, tt.wantQuote, pair.Quote, tt.description)
		})
	}
}

// Test_CanonicalPair_String checks the round trip through String
func Test_CanonicalPair_String(t *testing.T) {
	pair, err := ParsePair("sol/usdc")
	require.NoError(t, err)
	assert.Equal(t, "SOL/USDC", pair.String())

	again, err := ParsePair(pair.String())
	require.NoError(t, err)
	assert.Equal(t, pair, again, "String output should parse back to the same pair")
}
