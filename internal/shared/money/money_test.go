package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProrate(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		num, den int64
		want     int64
	}{
		{"twenty of twentytwo days", 300_000_00, 20, 22, 272_727_27},
		{"full period", 300_000_00, 22, 22, 300_000_00},
		{"zero denominator", 300_000_00, 20, 0, 0},
		{"zero numerator", 300_000_00, 0, 22, 0},
		{"half cent rounds to even", 100_01, 1, 2, 50_00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Prorate(tt.amount, tt.num, tt.den))
		})
	}
}

func TestPercentOf(t *testing.T) {
	fifty := decimal.NewFromInt(50)

	assert.Equal(t, int64(136_363_64), PercentOf(272_727_27, fifty))

	// half-to-even on the half cent
	assert.Equal(t, int64(50), PercentOf(101, fifty))
	assert.Equal(t, int64(52), PercentOf(103, fifty))
}

func TestSplitEven(t *testing.T) {
	parts := SplitEven(100_000_01, 3)
	assert.Equal(t, []int64{33_333_35, 33_333_33, 33_333_33}, parts)

	var sum int64
	for _, p := range parts {
		sum += p
	}
	assert.Equal(t, int64(100_000_01), sum)

	assert.Equal(t, []int64{100}, SplitEven(100, 1))
	assert.Nil(t, SplitEven(100, 0))
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "2727.27", FormatCents(272_727))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "-12.50", FormatCents(-1250))
}
