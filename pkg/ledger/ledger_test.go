package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func amount(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestComputeMetrics(t *testing.T) {
	now := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

	t.Run("should split planned totals at the current month", func(t *testing.T) {
		// given entries spanning past, current, and future months
		entries := []Entry{
			{Month: "2025-01", PlannedAmount: decimal.NewFromInt(100)},
			{Month: "2025-03", PlannedAmount: decimal.NewFromInt(200)},
			{Month: "2025-06", PlannedAmount: decimal.NewFromInt(300)},
		}

		// when
		metrics := ComputeMetrics(entries, now)

		// then
		assert.True(t, decimal.NewFromInt(600).Equal(metrics.TotalPlanned))
		assert.True(t, decimal.NewFromInt(300).Equal(metrics.PlannedToDate))
	})

	t.Run("should compute variance and performance index from actuals", func(t *testing.T) {
		// given 300 planned to date and 150 spent
		entries := []Entry{
			{Month: "2025-01", PlannedAmount: decimal.NewFromInt(100), ActualAmount: amount("90")},
			{Month: "2025-02", PlannedAmount: decimal.NewFromInt(200), ActualAmount: amount("60")},
			{Month: "2025-06", PlannedAmount: decimal.NewFromInt(100)},
		}

		// when
		metrics := ComputeMetrics(entries, now)

		// then
		assert.True(t, decimal.NewFromInt(150).Equal(metrics.ActualsToDate))
		assert.True(t, decimal.NewFromInt(150).Equal(metrics.Variance))
		assert.Equal(t, 0.5, metrics.SchedulePerformanceIndex)
		assert.Equal(t, 37.5, metrics.PercentSpent)
	})

	t.Run("should leave ratios at zero when nothing was planned", func(t *testing.T) {
		// when
		metrics := ComputeMetrics(nil, now)

		// then
		assert.Zero(t, metrics.PercentSpent)
		assert.Zero(t, metrics.SchedulePerformanceIndex)
		assert.True(t, metrics.TotalPlanned.IsZero())
	})
}

func TestActualsByMonth(t *testing.T) {
	t.Run("should group recorded actuals by month", func(t *testing.T) {
		// given two actuals in the same month and one unrecorded entry
		entries := []Entry{
			{Month: "2025-01", ActualAmount: amount("40")},
			{Month: "2025-01", ActualAmount: amount("25")},
			{Month: "2025-02"},
		}

		// when
		actuals := ActualsByMonth(entries)

		// then
		assert.Len(t, actuals, 1)
		assert.True(t, decimal.NewFromInt(65).Equal(actuals["2025-01"]))
	})
}
