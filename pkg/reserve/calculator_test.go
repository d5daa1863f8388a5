package reserve

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendedPercentage(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		base     int64
		custom   float64
		want     float64
	}{
		{"standard small program", StrategyStandard, 400_000, 0, 15},
		{"standard at the medium threshold", StrategyStandard, 500_000, 0, 15},
		{"standard medium program", StrategyStandard, 750_000, 0, 12},
		{"standard large program", StrategyStandard, 2_000_000, 0, 10},
		{"risk based small program", StrategyRiskBased, 400_000, 0, 12},
		{"risk based medium program", StrategyRiskBased, 750_000, 0, 10},
		{"risk based large program", StrategyRiskBased, 2_000_000, 0, 8},
		{"custom uses caller percentage", StrategyCustom, 2_000_000, 7.5, 7.5},
		{"custom defaults without percentage", StrategyCustom, 2_000_000, 0, DefaultCustomPercentage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecommendedPercentage(tt.strategy, decimal.NewFromInt(tt.base), tt.custom)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculate(t *testing.T) {
	t.Run("should round the reserve amount to cents", func(t *testing.T) {
		// given a base that does not divide evenly
		base := decimal.RequireFromString("333333.33")

		// when
		reserve := Calculate(StrategyStandard, base, 0)

		// then: 15% of 333333.33 = 50000.00 (49999.9995 rounded)
		assert.Equal(t, 15.0, reserve.BaselinePercentage)
		assert.True(t, decimal.RequireFromString("50000.00").Equal(reserve.BaselineAmount))
		assert.True(t, base.Add(reserve.BaselineAmount).Equal(reserve.TotalWithBase))
	})

	t.Run("should start the adjusted figures at the baseline with nothing utilized", func(t *testing.T) {
		// given
		base := decimal.NewFromInt(800_000)

		// when
		reserve := Calculate(StrategyStandard, base, 0)

		// then
		assert.Equal(t, reserve.BaselinePercentage, reserve.AdjustedPercentage)
		assert.True(t, reserve.BaselineAmount.Equal(reserve.AdjustedAmount))
		assert.True(t, reserve.UtilizedAmount.IsZero())
		assert.True(t, reserve.RemainingAmount.Equal(reserve.AdjustedAmount))
	})
}

type fixedEstimator struct {
	total decimal.Decimal
}

func (f fixedEstimator) EstimatedTotal(context.Context, uuid.UUID) (decimal.Decimal, error) {
	return f.total, nil
}

func TestServiceSetReserve(t *testing.T) {
	reserveRepoStub := NewRepoStub()

	t.Run("should persist the calculated reserve with its justification", func(t *testing.T) {
		// given
		defer reserveRepoStub.Cleanup()
		service := NewService(reserveRepoStub, fixedEstimator{total: decimal.NewFromInt(800_000)})
		versionId := uuid.New()

		// when
		reserve, err := service.SetReserve(context.Background(), versionId, StrategyStandard, 0, "supplier volatility")

		// then
		require.NoError(t, err)
		assert.Equal(t, 12.0, reserve.BaselinePercentage)
		assert.True(t, decimal.NewFromInt(96_000).Equal(reserve.BaselineAmount))
		assert.True(t, decimal.NewFromInt(96_000).Equal(reserve.RemainingAmount))
		assert.Equal(t, "supplier volatility", reserve.Justification)

		stored, err := service.GetReserve(context.Background(), versionId)
		require.NoError(t, err)
		assert.Equal(t, reserve.Id, stored.Id)
	})

	t.Run("should keep the existing id when recalculating", func(t *testing.T) {
		// given
		defer reserveRepoStub.Cleanup()
		service := NewService(reserveRepoStub, fixedEstimator{total: decimal.NewFromInt(800_000)})
		versionId := uuid.New()
		first, err := service.SetReserve(context.Background(), versionId, StrategyStandard, 0, "")
		require.NoError(t, err)

		// when
		second, err := service.SetReserve(context.Background(), versionId, StrategyRiskBased, 0, "")

		// then
		require.NoError(t, err)
		assert.Equal(t, first.Id, second.Id)
		assert.Equal(t, 10.0, second.AdjustedPercentage)
	})

	t.Run("should reject an unknown strategy", func(t *testing.T) {
		// given
		defer reserveRepoStub.Cleanup()
		service := NewService(reserveRepoStub, fixedEstimator{total: decimal.NewFromInt(100)})

		// when
		_, err := service.SetReserve(context.Background(), uuid.New(), "aggressive", 0, "")

		// then
		assert.ErrorIs(t, err, ErrReserveInvalid)
	})
}
