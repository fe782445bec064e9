package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardTotal(t *testing.T) {
	tests := []struct {
		name string
		cash float64
		rate float64
		want float64
	}{
		{"reference case", 110.98, 3.5, 114.86},
		{"zero rate is identity", 110.98, 0, 110.98},
		{"zero cash", 0, 3.5, 0},
		{"whole dollars", 100, 3.5, 103.50},
		{"rounds half up", 100, 0.005, 100.01},
		{"small amount", 0.99, 3.5, 1.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CardTotal(tt.cash, tt.rate), 0.0001)
		})
	}
}

func TestCardTotalNeverBelowCash(t *testing.T) {
	for _, cash := range []float64{0, 0.01, 1, 19.99, 110.98, 1234.56, 99999.99} {
		for _, rate := range []float64{0, 0.5, 1, 2.9, 3.5, 4} {
			assert.GreaterOrEqual(t, CardTotal(cash, rate), Round2(cash),
				"cash=%v rate=%v", cash, rate)
		}
	}
}

func TestProcessingFee(t *testing.T) {
	assert.InDelta(t, 3.88, ProcessingFee(110.98, 3.5), 0.0001)
	assert.InDelta(t, 0, ProcessingFee(110.98, 0), 0.0001)
}

func TestCardUnitPrice(t *testing.T) {
	assert.InDelta(t, 51.75, CardUnitPrice(50.00, 3.5), 0.0001)
}

func TestQuoteSharesTaxBase(t *testing.T) {
	q := NewQuote(100, 3.5, 8.25)

	assert.InDelta(t, 100.00, q.CashSubtotal, 0.0001)
	assert.InDelta(t, 103.50, q.CardSubtotal, 0.0001)
	assert.InDelta(t, 8.25, q.TaxAmount, 0.0001)
	assert.InDelta(t, 108.25, q.CashTotal, 0.0001)
	assert.InDelta(t, 111.75, q.CardTotal, 0.0001)
	assert.InDelta(t, 3.50, q.ProcessingFee, 0.0001)

	// tax itself is never surcharged: the card/cash gap equals the fee,
	// before and after tax
	assert.InDelta(t, q.CardTotal-q.CashTotal, q.ProcessingFee, 0.0001)
	assert.InDelta(t, q.CardSubtotal-q.CashSubtotal, q.ProcessingFee, 0.0001)
}

func TestQuoteZeroRates(t *testing.T) {
	q := NewQuote(110.98, 0, 0)
	assert.InDelta(t, 110.98, q.CashTotal, 0.0001)
	assert.InDelta(t, 110.98, q.CardTotal, 0.0001)
	assert.InDelta(t, 0, q.ProcessingFee, 0.0001)
	assert.InDelta(t, 0, q.TaxAmount, 0.0001)
}

func TestOrderTotalIsCanonical(t *testing.T) {
	// Three lines whose individually rounded card amounts would drift from
	// the order-level card total. The order total from the cash sum is the
	// canonical value; per-line card prices are display only.
	lines := []float64{33.33, 33.33, 44.32}
	var cashSum, lineCardSum float64
	for _, l := range lines {
		cashSum += l
		lineCardSum += CardTotal(l, 3.5)
	}

	assert.InDelta(t, 110.98, cashSum, 0.0001)
	assert.InDelta(t, 114.86, CardTotal(cashSum, 3.5), 0.0001)
	// summing pre-rounded lines gives 34.50 + 34.50 + 45.87 = 114.87
	assert.InDelta(t, 114.87, lineCardSum, 0.0001)
}
