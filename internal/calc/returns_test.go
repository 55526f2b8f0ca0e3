package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// Test_ReturnRaw checks the pre-fee return calculation
func Test_ReturnRaw(t *testing.T) {
	tests := []struct {
		name        string
		buyPrice    string
		sellPrice   string
		expected    string
		description string
	}{
		{
			name:        "Positive spread",
			buyPrice:    "69113",
			sellPrice:   "69200",
			expected:    "87",
			description: "Raw return should be the spread over the buy price",
		},
		{
			name:        "Negative spread",
			buyPrice:    "100",
			sellPrice:   "99",
			expected:    "-1",
			description: "A sell below the buy should give a negative return",
		},
		{
			name:        "Zero spread",
			buyPrice:    "100",
			sellPrice:   "100",
			expected:    "0",
			description: "Equal prices should give zero return",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReturnRaw(d(tt.buyPrice), d(tt.sellPrice))
			want := d(tt.expected).Div(d(tt.buyPrice))
			assert.True(t, got.Equal(want),
				"expected %s, got %s: %s", want, got, tt.description)
		})
	}
}

// Test_ReturnOrdering verifies net <= gross <= raw under non-negative fees
func Test_ReturnOrdering(t *testing.T) {
	buyPrice := d("69113")
	sellPrice := d("69200")
	amount := d("0.1")

	buy := BuyLeg("a", testPair, buyPrice, amount, d("0.0026"), decimal.Zero, nil)
	sell := SellLeg("b", testPair, sellPrice, amount, d("0.0026"), decimal.Zero, nil)

	raw := ReturnRaw(buyPrice, sellPrice)
	gross := ReturnGross(EffectiveBuyCost(buy), EffectiveSellProceeds(sell))
	net := ReturnNet(TotalBuyCost(buy), NetSellProceeds(sell))

	assert.True(t, gross.LessThanOrEqual(raw), "gross %s should not exceed raw %s", gross, raw)
	assert.True(t, net.LessThanOrEqual(gross), "net %s should not exceed gross %s", net, gross)
}

// Test_ProfitBase checks the absolute profit helper
func Test_ProfitBase(t *testing.T) {
	assert.True(t, ProfitBase(d("100"), d("103.5")).Equal(d("3.5")))
	assert.True(t, ProfitBase(d("100"), d("98")).Equal(d("-2")),
		"Profit should go negative when proceeds are below cost")
}
