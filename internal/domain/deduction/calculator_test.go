package deduction

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPolicy_Calculate(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name      string
		total     string
		deduction string
		net       string
	}{
		{"typical job", "10000", "3500", "6500"},
		{"capped job", "200000", "50000", "150000"},
		{"zero total", "0", "0", "0"},
		{"exactly at cap", "142857.14", "49999.999", "92857.141"},
		{"just above cap", "142857.15", "50000", "92857.15"},
		{"fractional total", "1234.56", "432.096", "802.464"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := dec(tt.total)
			d := p.Calculate(total)
			assert.True(t, d.Equal(dec(tt.deduction)), "deduction: got %s want %s", d, tt.deduction)
			net := NetPayable(total, d)
			assert.True(t, net.Equal(dec(tt.net)), "net: got %s want %s", net, tt.net)
		})
	}
}

func TestPolicy_Calculate_NegativeTotal(t *testing.T) {
	assert.True(t, DefaultPolicy().Calculate(dec("-500")).IsZero())
}

func TestPolicy_Calculate_MonotonicAndCapped(t *testing.T) {
	p := DefaultPolicy()
	prev := decimal.Zero
	for total := int64(0); total <= 300000; total += 2500 {
		d := p.Calculate(decimal.NewFromInt(total))
		assert.True(t, d.GreaterThanOrEqual(prev), "not monotonic at %d", total)
		assert.True(t, d.LessThanOrEqual(p.Cap), "cap exceeded at %d", total)

		expected := decimal.Min(decimal.NewFromInt(total).Mul(dec("0.35")), dec("50000"))
		assert.True(t, d.Equal(expected), "total %d: got %s want %s", total, d, expected)
		prev = d
	}
}

func TestCalculateDeduction_UsesDefaultPolicy(t *testing.T) {
	assert.True(t, CalculateDeduction(dec("10000")).Equal(dec("3500")))
}

func TestNewPolicy(t *testing.T) {
	t.Run("accepts configured values", func(t *testing.T) {
		p, err := NewPolicy(0.3, 0.3, 75000)
		require.NoError(t, err)
		assert.True(t, p.Calculate(dec("100000")).Equal(dec("9000")))
	})

	t.Run("rejects labor share above one", func(t *testing.T) {
		_, err := NewPolicy(1.5, 0.5, 50000)
		assert.Error(t, err)
	})

	t.Run("rejects negative cap", func(t *testing.T) {
		_, err := NewPolicy(0.7, 0.5, -1)
		assert.Error(t, err)
	})
}

func TestPolicy_Preview(t *testing.T) {
	p := DefaultPolicy()

	t.Run("below cap", func(t *testing.T) {
		b := p.Preview(dec("10000"))
		assert.True(t, b.LaborPortion.Equal(dec("7000")))
		assert.True(t, b.Deduction.Equal(dec("3500")))
		assert.True(t, b.NetPayable.Equal(dec("6500")))
		assert.False(t, b.Capped)
		assert.Equal(t, "SEK", b.Currency)
	})

	t.Run("above cap", func(t *testing.T) {
		b := p.Preview(dec("200000"))
		assert.True(t, b.Deduction.Equal(dec("50000")))
		assert.True(t, b.Capped)
	})

	t.Run("matches Calculate", func(t *testing.T) {
		for _, s := range []string{"0", "1", "99999.99", "500000"} {
			assert.True(t, p.Preview(dec(s)).Deduction.Equal(p.Calculate(dec(s))))
		}
	})

	t.Run("non positive total", func(t *testing.T) {
		b := p.Preview(dec("-10"))
		assert.True(t, b.Deduction.IsZero())
		assert.True(t, b.LaborPortion.IsZero())
		assert.False(t, b.Capped)
	})
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "12,50 kr", FormatAmount(dec("12.5")))
	assert.Equal(t, "0,07 kr", FormatAmount(dec("0.066")))
	assert.Equal(t, "-0,50 kr", FormatAmount(dec("-0.5")))

	t.Run("large amounts keep every digit", func(t *testing.T) {
		got := FormatAmount(dec("9007199254740993.93"))
		require.True(t, strings.HasSuffix(got, ",93 kr"), got)

		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, got)
		assert.Equal(t, "900719925474099393", digits)
	})
}
