package calc

import (
	"testing"

	"arbscan/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var testPair = model.CanonicalPair{Base: "BTC", Quote: "USD"}

// Test_BuyLeg verifies the buy-side fee breakdown
func Test_BuyLeg(t *testing.T) {
	tests := []struct {
		name           string
		price          string
		amount         string
		feePct         string
		flatFee        string
		withdrawal     *model.WithdrawalFee
		wantBaseCost   string
		wantTradingFee string
		wantWithdrawal string
		description    string
	}{
		{
			name:           "Percentage fee only",
			price:          "69113",
			amount:         "0.1",
			feePct:         "0.0026",
			flatFee:        "0",
			wantBaseCost:   "6911.3",
			wantTradingFee: "17.96938",
			wantWithdrawal: "0",
			description:    "Trading fee should be baseCost times pct",
		},
		{
			name:           "Flat fee added on top of pct",
			price:          "100",
			amount:         "2",
			feePct:         "0.001",
			flatFee:        "0.5",
			wantBaseCost:   "200",
			wantTradingFee: "0.7",
			wantWithdrawal: "0",
			description:    "Flat fee should be additive, not multiplicative",
		},
		{
			name:    "Withdrawal fee in market currency",
			price:   "100",
			amount:  "2",
			feePct:  "0",
			flatFee: "0",
			withdrawal: &model.WithdrawalFee{
				Venue: model.VenueKraken, Currency: "BTC",
				FlatFee: d("0.0005"), PctFee: d("0.001"),
			},
			wantBaseCost:   "200",
			wantTradingFee: "0",
			wantWithdrawal: "0.0025",
			description:    "Withdrawal should be flat plus amount times pct, in market currency",
		},
		{
			name:           "Zero fees",
			price:          "100",
			amount:         "1",
			feePct:         "0",
			flatFee:        "0",
			wantBaseCost:   "100",
			wantTradingFee: "0",
			wantWithdrawal: "0",
			description:    "A fee-free venue should produce a zero-fee leg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leg := BuyLeg(model.VenueKraken, testPair, d(tt.price), d(tt.amount),
				d(tt.feePct), d(tt.flatFee), tt.withdrawal)

			assert.Equal(t, model.Buy, leg.Side)
			assert.Equal(t, model.VenueKraken, leg.Venue)
			assert.True(t, leg.BaseCurrAmt.Equal(d(tt.wantBaseCost)),
				"base cost: expected %s, got %s: %s", tt.wantBaseCost, leg.BaseCurrAmt, tt.description)
			assert.True(t, leg.TradingFeeBase.Equal(d(tt.wantTradingFee)),
				"trading fee: expected %s, got %s: %s", tt.wantTradingFee, leg.TradingFeeBase, tt.description)
			assert.True(t, leg.WithdrawalFee.Equal(d(tt.wantWithdrawal)),
				"withdrawal fee: expected %s, got %s: %s", tt.wantWithdrawal, leg.WithdrawalFee, tt.description)
		})
	}
}

// Test_SellLeg verifies the sell-side fee breakdown
func Test_SellLeg(t *testing.T) {
	tests := []struct {
		name           string
		price          string
		amount         string
		feePct         string
		flatFee        string
		withdrawal     *model.WithdrawalFee
		wantProceeds   string
		wantTradingFee string
		wantWithdrawal string
		description    string
	}{
		{
			name:           "Percentage fee only",
			price:          "69200",
			amount:         "0.1",
			feePct:         "0.0026",
			flatFee:        "0",
			wantProceeds:   "6920",
			wantTradingFee: "17.992",
			wantWithdrawal: "0",
			description:    "Trading fee should be proceeds times pct",
		},
		{
			name:    "Withdrawal pct charged on raw proceeds",
			price:   "100",
			amount:  "2",
			feePct:  "0.01",
			flatFee: "0",
			withdrawal: &model.WithdrawalFee{
				Venue: model.VenueCoinbase, Currency: "USD",
				FlatFee: d("1"), PctFee: d("0.001"),
			},
			wantProceeds:   "200",
			wantTradingFee: "2",
			wantWithdrawal: "1.2",
			description:    "Withdrawal pct applies to raw proceeds before the trading fee",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leg := SellLeg(model.VenueCoinbase, testPair, d(tt.price), d(tt.amount),
				d(tt.feePct), d(tt.flatFee), tt.withdrawal)

			assert.Equal(t, model.Sell, leg.Side)
			assert.True(t, leg.BaseCurrAmt.Equal(d(tt.wantProceeds)),
				"proceeds: expected %s, got %s: %s", tt.wantProceeds, leg.BaseCurrAmt, tt.description)
			assert.True(t, leg.TradingFeeBase.Equal(d(tt.wantTradingFee)),
				"trading fee: expected %s, got %s: %s", tt.wantTradingFee, leg.TradingFeeBase, tt.description)
			assert.True(t, leg.WithdrawalFee.Equal(d(tt.wantWithdrawal)),
				"withdrawal fee: expected %s, got %s: %s", tt.wantWithdrawal, leg.WithdrawalFee, tt.description)
		})
	}
}

// Test_FeeDirections verifies that buy fees raise cost and sell fees lower
// proceeds, so both always reduce profit
func Test_FeeDirections(t *testing.T) {
	buy := BuyLeg(model.VenueKraken, testPair, d("100"), d("1"), d("0.002"), d("0"), nil)
	sell := SellLeg(model.VenueCoinbase, testPair, d("100"), d("1"), d("0.002"), d("0"), nil)

	assert.True(t, EffectiveBuyCost(buy).GreaterThan(buy.BaseCurrAmt),
		"Buy fee should increase the effective cost above the raw cost")
	assert.True(t, EffectiveSellProceeds(sell).LessThan(sell.BaseCurrAmt),
		"Sell fee should decrease the effective proceeds below the raw proceeds")
}

// Test_TotalBuyCost verifies conversion of the market currency withdrawal
// fee at the leg's execution price
func Test_TotalBuyCost(t *testing.T) {
	withdrawal := &model.WithdrawalFee{
		Venue: model.VenueKraken, Currency: "BTC", FlatFee: d("0.0005"),
	}
	leg := BuyLeg(model.VenueKraken, testPair, d("50000"), d("0.1"), d("0.001"), d("0"), withdrawal)

	// raw cost 5000, trading fee 5, withdrawal 0.0005 BTC * 50000 = 25
	require.True(t, EffectiveBuyCost(leg).Equal(d("5005")))
	assert.True(t, TotalBuyCost(leg).Equal(d("5030")),
		"Total cost should include the withdrawal fee converted at the execution price, got %s", TotalBuyCost(leg))
}

// Test_NetSellProceeds verifies the base currency withdrawal fee needs no
// conversion
func Test_NetSellProceeds(t *testing.T) {
	withdrawal := &model.WithdrawalFee{
		Venue: model.VenueCoinbase, Currency: "USD", FlatFee: d("4"),
	}
	leg := SellLeg(model.VenueCoinbase, testPair, d("50000"), d("0.1"), d("0.001"), d("0"), withdrawal)

	// raw proceeds 5000, trading fee 5, withdrawal 4
	require.True(t, EffectiveSellProceeds(leg).Equal(d("4995")))
	assert.True(t, NetSellProceeds(leg).Equal(d("4991")),
		"Net proceeds should subtract the base currency withdrawal fee directly, got %s", NetSellProceeds(leg))
}
