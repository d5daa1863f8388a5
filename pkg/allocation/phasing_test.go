package allocation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func breakdownTotal(breakdown map[string]MonthlyShare) decimal.Decimal {
	total := decimal.Zero
	for _, share := range breakdown {
		total = total.Add(share.Amount)
	}
	return total
}

func TestCalculateNumberOfMonths(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{"single month", "2025-03", "2025-03", 1},
		{"same year", "2025-01", "2025-03", 3},
		{"across year boundary", "2025-11", "2026-02", 4},
		{"full decade", "2020-01", "2029-12", 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateNumberOfMonths(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("should reject end before start", func(t *testing.T) {
		_, err := CalculateNumberOfMonths("2025-05", "2025-04")
		assert.Error(t, err)
	})

	t.Run("should reject malformed month", func(t *testing.T) {
		_, err := CalculateNumberOfMonths("2025-13", "2026-01")
		assert.Error(t, err)
	})
}

func TestGenerateMonthlyBreakdown(t *testing.T) {
	t.Run("should spread a linear allocation evenly", func(t *testing.T) {
		// when
		breakdown, err := GenerateMonthlyBreakdown(decimal.NewFromInt(1200), "2025-01", "2025-12", TypeLinear)

		// then
		require.NoError(t, err)
		require.Len(t, breakdown, 12)
		for month, share := range breakdown {
			assert.True(t, decimal.NewFromInt(100).Equal(share.Amount), "month %s got %s", month, share.Amount)
		}
		assert.True(t, decimal.NewFromInt(1200).Equal(breakdownTotal(breakdown)))
	})

	t.Run("should front load 60/30/10 across the month buckets", func(t *testing.T) {
		// when 10000 is spread over 10 months
		breakdown, err := GenerateMonthlyBreakdown(decimal.NewFromInt(10000), "2025-01", "2025-10", TypeFrontLoaded)

		// then: 3 months at 2000, 4 at 750, tail of 333.33/333.33/333.34
		require.NoError(t, err)
		expected := map[string]string{
			"2025-01": "2000", "2025-02": "2000", "2025-03": "2000",
			"2025-04": "750", "2025-05": "750", "2025-06": "750", "2025-07": "750",
			"2025-08": "333.33", "2025-09": "333.33", "2025-10": "333.34",
		}
		for month, want := range expected {
			assert.True(t, decimal.RequireFromString(want).Equal(breakdown[month].Amount),
				"month %s: want %s got %s", month, want, breakdown[month].Amount)
		}
		assert.True(t, decimal.NewFromInt(10000).Equal(breakdownTotal(breakdown)))
	})

	t.Run("should back load as the mirror image of front loading", func(t *testing.T) {
		// when
		breakdown, err := GenerateMonthlyBreakdown(decimal.NewFromInt(10000), "2025-01", "2025-10", TypeBackLoaded)

		// then: the heavy months come last, the final month absorbing the
		// cent left over from the rounded 333.33 openers
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("333.33").Equal(breakdown["2025-01"].Amount))
		assert.True(t, decimal.NewFromInt(750).Equal(breakdown["2025-05"].Amount))
		assert.True(t, decimal.NewFromInt(2000).Equal(breakdown["2025-08"].Amount))
		assert.True(t, decimal.RequireFromString("2000.01").Equal(breakdown["2025-10"].Amount))
		assert.True(t, decimal.NewFromInt(10000).Equal(breakdownTotal(breakdown)))
	})

	t.Run("should put everything into a single month range", func(t *testing.T) {
		// when
		breakdown, err := GenerateMonthlyBreakdown(decimal.NewFromFloat(123.45), "2025-06", "2025-06", TypeFrontLoaded)

		// then
		require.NoError(t, err)
		require.Len(t, breakdown, 1)
		assert.True(t, decimal.NewFromFloat(123.45).Equal(breakdown["2025-06"].Amount))
	})

	t.Run("should reconcile uneven linear division exactly", func(t *testing.T) {
		// when 100 is spread over 3 months
		breakdown, err := GenerateMonthlyBreakdown(decimal.NewFromInt(100), "2025-01", "2025-03", TypeLinear)

		// then: 33.33 + 33.33 + 33.34
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("33.33").Equal(breakdown["2025-01"].Amount))
		assert.True(t, decimal.RequireFromString("33.33").Equal(breakdown["2025-02"].Amount))
		assert.True(t, decimal.RequireFromString("33.34").Equal(breakdown["2025-03"].Amount))
	})

	t.Run("should produce zero amounts for a zero total", func(t *testing.T) {
		// when
		breakdown, err := GenerateMonthlyBreakdown(decimal.Zero, "2025-01", "2025-03", TypeLinear)

		// then
		require.NoError(t, err)
		for _, share := range breakdown {
			assert.True(t, share.Amount.IsZero())
			assert.True(t, share.Percentage.IsZero())
		}
	})

	t.Run("should reject a negative total", func(t *testing.T) {
		_, err := GenerateMonthlyBreakdown(decimal.NewFromInt(-1), "2025-01", "2025-03", TypeLinear)
		assert.Error(t, err)
	})

	t.Run("should treat custom like linear until edited", func(t *testing.T) {
		// when
		custom, err := GenerateMonthlyBreakdown(decimal.NewFromInt(300), "2025-01", "2025-03", TypeCustom)
		require.NoError(t, err)
		linear, err := GenerateMonthlyBreakdown(decimal.NewFromInt(300), "2025-01", "2025-03", TypeLinear)
		require.NoError(t, err)

		// then
		assert.Equal(t, linear, custom)
	})
}
