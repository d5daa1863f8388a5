package allocation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoStub = NewRepoStub()

func setupServiceTest(t *testing.T) (*ServiceImpl, func()) {
	service := NewService(repoStub)
	return service, func() {
		repoStub.Cleanup()
	}
}

func newAllocation(versionId uuid.UUID, elementId *uuid.UUID, total float64) Allocation {
	return Allocation{
		VersionId:   versionId,
		ElementId:   elementId,
		Name:        "Test allocation",
		TotalAmount: decimal.NewFromFloat(total),
		StartMonth:  "2025-01",
		EndMonth:    "2025-04",
		Type:        TypeLinear,
	}
}

func TestServiceCreateAllocation(t *testing.T) {
	t.Run("should generate the breakdown when none is given", func(t *testing.T) {
		// given
		service, teardown := setupServiceTest(t)
		defer teardown()
		allocation := newAllocation(uuid.New(), nil, 400)

		// when
		created, err := service.CreateAllocation(context.Background(), allocation)

		// then
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.Id)
		assert.True(t, created.IsActive)
		assert.False(t, created.IsLocked)
		require.Len(t, created.Breakdown, 4)
		assert.True(t, decimal.NewFromInt(100).Equal(created.Breakdown["2025-02"].Amount))
	})

	t.Run("should keep a caller provided breakdown that reconciles", func(t *testing.T) {
		// given
		service, teardown := setupServiceTest(t)
		defer teardown()
		allocation := newAllocation(uuid.New(), nil, 400)
		allocation.Breakdown = map[string]MonthlyShare{
			"2025-01": {Amount: decimal.NewFromInt(250)},
			"2025-04": {Amount: decimal.NewFromInt(150)},
		}

		// when
		created, err := service.CreateAllocation(context.Background(), allocation)

		// then
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(250).Equal(created.Breakdown["2025-01"].Amount))
	})

	t.Run("should reject a breakdown that does not sum to the total", func(t *testing.T) {
		// given
		service, teardown := setupServiceTest(t)
		defer teardown()
		allocation := newAllocation(uuid.New(), nil, 400)
		allocation.Breakdown = map[string]MonthlyShare{
			"2025-01": {Amount: decimal.NewFromInt(100)},
		}

		// when
		_, err := service.CreateAllocation(context.Background(), allocation)

		// then
		assert.ErrorIs(t, err, ErrAllocationInvalid)
	})

	t.Run("should reject a breakdown month outside the range", func(t *testing.T) {
		// given
		service, teardown := setupServiceTest(t)
		defer teardown()
		allocation := newAllocation(uuid.New(), nil, 400)
		allocation.Breakdown = map[string]MonthlyShare{
			"2025-06": {Amount: decimal.NewFromInt(400)},
		}

		// when
		_, err := service.CreateAllocation(context.Background(), allocation)

		// then
		assert.ErrorIs(t, err, ErrAllocationInvalid)
	})

	t.Run("should reject a zero total amount", func(t *testing.T) {
		// given an allocation whose total was never set
		service, teardown := setupServiceTest(t)
		defer teardown()
		allocation := newAllocation(uuid.New(), nil, 0)

		// when
		_, err := service.CreateAllocation(context.Background(), allocation)

		// then
		assert.ErrorIs(t, err, ErrAllocationInvalid)
	})

	t.Run("should reject a negative total amount", func(t *testing.T) {
		// given
		service, teardown := setupServiceTest(t)
		defer teardown()
		allocation := newAllocation(uuid.New(), nil, -400)

		// when
		_, err := service.CreateAllocation(context.Background(), allocation)

		// then
		assert.ErrorIs(t, err, ErrAllocationInvalid)
	})

	t.Run("should reject a second active allocation for the same element", func(t *testing.T) {
		// given
		service, teardown := setupServiceTest(t)
		defer teardown()
		elementId := uuid.New()
		versionId := uuid.New()
		_, err := service.CreateAllocation(context.Background(), newAllocation(versionId, &elementId, 400))
		require.NoError(t, err)

		// when
		_, err = service.CreateAllocation(context.Background(), newAllocation(versionId, &elementId, 200))

		// then
		assert.ErrorIs(t, err, ErrElementAlreadyCovered)
	})

	t.Run("should allow multiple program level allocations", func(t *testing.T) {
		// given
		service, teardown := setupServiceTest(t)
		defer teardown()
		versionId := uuid.New()
		_, err := service.CreateAllocation(context.Background(), newAllocation(versionId, nil, 400))
		require.NoError(t, err)

		// when
		_, err = service.CreateAllocation(context.Background(), newAllocation(versionId, nil, 200))

		// then
		assert.NoError(t, err)
	})
}

func TestServiceUpdateAllocation(t *testing.T) {
	t.Run("should reject updates to a locked allocation", func(t *testing.T) {
		// given
		service, teardown := setupServiceTest(t)
		defer teardown()
		created, err := service.CreateAllocation(context.Background(), newAllocation(uuid.New(), nil, 400))
		require.NoError(t, err)
		repoStub.SetLocked(created.Id, true)

		// when
		created.Name = "Renamed"
		_, err = service.UpdateAllocation(context.Background(), created)

		// then
		assert.ErrorIs(t, err, ErrAllocationLocked)
	})

	t.Run("should regenerate the breakdown when it is cleared", func(t *testing.T) {
		// given
		service, teardown := setupServiceTest(t)
		defer teardown()
		created, err := service.CreateAllocation(context.Background(), newAllocation(uuid.New(), nil, 400))
		require.NoError(t, err)

		// when
		created.TotalAmount = decimal.NewFromInt(800)
		created.Breakdown = nil
		updated, err := service.UpdateAllocation(context.Background(), created)

		// then
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(200).Equal(updated.Breakdown["2025-03"].Amount))
	})
}

func TestServiceDeleteAllocation(t *testing.T) {
	t.Run("should reject deleting a locked allocation", func(t *testing.T) {
		// given
		service, teardown := setupServiceTest(t)
		defer teardown()
		created, err := service.CreateAllocation(context.Background(), newAllocation(uuid.New(), nil, 400))
		require.NoError(t, err)
		repoStub.SetLocked(created.Id, true)

		// when
		err = service.DeleteAllocation(context.Background(), created.Id)

		// then
		assert.ErrorIs(t, err, ErrAllocationLocked)
	})
}

func TestServiceSummarize(t *testing.T) {
	t.Run("should sum active allocations per month", func(t *testing.T) {
		// given
		service, teardown := setupServiceTest(t)
		defer teardown()
		versionId := uuid.New()
		_, err := service.CreateAllocation(context.Background(), newAllocation(versionId, nil, 400))
		require.NoError(t, err)
		other := newAllocation(versionId, nil, 100)
		other.StartMonth, other.EndMonth = "2025-04", "2025-04"
		_, err = service.CreateAllocation(context.Background(), other)
		require.NoError(t, err)

		// when
		summary, err := service.Summarize(context.Background(), versionId)

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Count)
		assert.True(t, decimal.NewFromInt(500).Equal(summary.TotalAmount))
		assert.True(t, decimal.NewFromInt(200).Equal(summary.MonthlyTotals["2025-04"]))
		assert.True(t, decimal.NewFromInt(100).Equal(summary.MonthlyTotals["2025-01"]))
	})
}
