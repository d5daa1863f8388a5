package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackdally/lre-manager-sub006/internal/event_bus"
	"github.com/jackdally/lre-manager-sub006/internal/utils"
	"github.com/jackdally/lre-manager-sub006/pkg/allocation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	allocationRepoStub = allocation.NewRepoStub()
	ledgerRepoStub     = NewRepoStub(allocationRepoStub)
)

func setupSyncTest(t *testing.T) (*ServiceImpl, *event_bus.EventBus, func()) {
	bus := event_bus.NewEventBus()
	clock := &utils.MockClock{FixedNow: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)}
	service := NewService(ledgerRepoStub, allocationRepoStub, bus, clock)
	return service, bus, func() {
		ledgerRepoStub.Cleanup()
		allocationRepoStub.Cleanup()
	}
}

func storeAllocation(t *testing.T, total int64) allocation.Allocation {
	breakdown, err := allocation.GenerateMonthlyBreakdown(decimal.NewFromInt(total), "2025-01", "2025-04", allocation.TypeLinear)
	require.NoError(t, err)
	alloc := allocation.Allocation{
		Id:          uuid.New(),
		VersionId:   uuid.New(),
		Name:        "Sensor procurement",
		TotalAmount: decimal.NewFromInt(total),
		StartMonth:  "2025-01",
		EndMonth:    "2025-04",
		Type:        allocation.TypeLinear,
		Breakdown:   breakdown,
		IsActive:    true,
	}
	_, err = allocationRepoStub.Store(context.Background(), alloc)
	require.NoError(t, err)
	return alloc
}

func TestServicePush(t *testing.T) {
	t.Run("should write one entry per breakdown month and lock the allocation", func(t *testing.T) {
		// given
		service, bus, teardown := setupSyncTest(t)
		defer teardown()
		alloc := storeAllocation(t, 400)
		var published []event_bus.EventT[event_bus.AllocationPushed]
		event_bus.SubscribeTyped(bus, event_bus.AllocationPushedEvent, func(e event_bus.EventT[event_bus.AllocationPushed]) error {
			published = append(published, e)
			return nil
		})

		// when
		result, err := service.Push(context.Background(), alloc.Id)

		// then
		require.NoError(t, err)
		assert.Equal(t, 4, result.EntriesCreated)

		entries, err := service.ListEntries(context.Background(), alloc.VersionId)
		require.NoError(t, err)
		require.Len(t, entries, 4)
		assert.Equal(t, "2025-01", entries[0].Month)
		assert.Equal(t, "Sensor procurement", entries[0].VendorName)
		require.NotNil(t, entries[0].AllocationId)
		assert.Equal(t, alloc.Id, *entries[0].AllocationId)
		assert.Equal(t, "2025-01", entries[0].BaselineMonth)
		assert.True(t, entries[0].PlannedAmount.Equal(entries[0].BaselineAmount))

		locked, err := allocationRepoStub.FindById(context.Background(), alloc.Id)
		require.NoError(t, err)
		assert.True(t, locked.IsLocked)

		require.Len(t, published, 1)
		assert.Equal(t, 4, published[0].Data.EntriesCreated)
	})

	t.Run("should refuse a second push of the same allocation", func(t *testing.T) {
		// given
		service, _, teardown := setupSyncTest(t)
		defer teardown()
		alloc := storeAllocation(t, 400)
		_, err := service.Push(context.Background(), alloc.Id)
		require.NoError(t, err)

		// when
		_, err = service.Push(context.Background(), alloc.Id)

		// then
		assert.ErrorIs(t, err, ErrAlreadyPushed)
		entries, err := service.ListEntries(context.Background(), alloc.VersionId)
		require.NoError(t, err)
		assert.Len(t, entries, 4)
	})

	t.Run("should keep the baseline when the planned figures change", func(t *testing.T) {
		// given a pushed entry
		service, _, teardown := setupSyncTest(t)
		defer teardown()
		alloc := storeAllocation(t, 400)
		_, err := service.Push(context.Background(), alloc.Id)
		require.NoError(t, err)
		entries, err := service.ListEntries(context.Background(), alloc.VersionId)
		require.NoError(t, err)
		entry := entries[0]

		// when the planned figures are re-planned
		entry.Month = "2025-02"
		entry.PlannedAmount = decimal.NewFromInt(250)
		updated, err := ledgerRepoStub.Update(context.Background(), entry)

		// then the baseline still carries the pushed figures
		require.NoError(t, err)
		assert.Equal(t, "2025-01", updated.BaselineMonth)
		assert.True(t, decimal.NewFromInt(100).Equal(updated.BaselineAmount))
	})

	t.Run("should refuse to push an inactive allocation", func(t *testing.T) {
		// given
		service, _, teardown := setupSyncTest(t)
		defer teardown()
		alloc := storeAllocation(t, 400)
		alloc.IsActive = false
		_, err := allocationRepoStub.Update(context.Background(), alloc)
		require.NoError(t, err)

		// when
		_, err = service.Push(context.Background(), alloc.Id)

		// then
		assert.ErrorIs(t, err, ErrAllocationInactive)
	})
}

func TestServicePushVersion(t *testing.T) {
	t.Run("should push unlocked allocations and skip locked ones", func(t *testing.T) {
		// given two allocations on one version, one already pushed
		service, _, teardown := setupSyncTest(t)
		defer teardown()
		first := storeAllocation(t, 400)
		second := storeAllocation(t, 200)
		second.VersionId = first.VersionId
		_, err := allocationRepoStub.Update(context.Background(), second)
		require.NoError(t, err)
		_, err = service.Push(context.Background(), first.Id)
		require.NoError(t, err)

		// when
		result, err := service.PushVersion(context.Background(), first.VersionId)

		// then
		require.NoError(t, err)
		require.Len(t, result.Pushed, 1)
		assert.Equal(t, second.Id, result.Pushed[0].AllocationId)
		assert.Equal(t, []uuid.UUID{first.Id}, result.Skipped)
		assert.Equal(t, 4, result.TotalEntries)
	})
}

func TestServiceRecordActual(t *testing.T) {
	t.Run("should attach the actual to the planned entry", func(t *testing.T) {
		// given
		service, _, teardown := setupSyncTest(t)
		defer teardown()
		alloc := storeAllocation(t, 400)
		_, err := service.Push(context.Background(), alloc.Id)
		require.NoError(t, err)
		entries, err := service.ListEntries(context.Background(), alloc.VersionId)
		require.NoError(t, err)
		actualDate := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)

		// when
		updated, err := service.RecordActual(context.Background(), entries[0].Id, decimal.NewFromInt(95), actualDate, "INV-1042")

		// then
		require.NoError(t, err)
		require.NotNil(t, updated.ActualAmount)
		assert.True(t, decimal.NewFromInt(95).Equal(*updated.ActualAmount))
		assert.Equal(t, "INV-1042", updated.InvoiceNumber)

		// and the actuals flow back to the allocation by id
		actuals, err := service.AllocationActuals(context.Background(), alloc.Id)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(95).Equal(actuals["2025-01"]))
	})

	t.Run("should report not found for an unknown allocation", func(t *testing.T) {
		// given
		service, _, teardown := setupSyncTest(t)
		defer teardown()

		// when
		_, err := service.AllocationActuals(context.Background(), uuid.New())

		// then
		assert.ErrorIs(t, err, allocation.ErrAllocationNotFound)
	})
}

func TestServiceCreateEntry(t *testing.T) {
	t.Run("should default the baseline to the planned figures", func(t *testing.T) {
		// given
		service, _, teardown := setupSyncTest(t)
		defer teardown()

		// when
		created, err := service.CreateEntry(context.Background(), Entry{
			VersionId:     uuid.New(),
			VendorName:    "Calibration services",
			Month:         "2025-05",
			PlannedAmount: decimal.NewFromInt(1_200),
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "2025-05", created.BaselineMonth)
		assert.True(t, decimal.NewFromInt(1_200).Equal(created.BaselineAmount))
	})
}

func TestServiceVersionMetrics(t *testing.T) {
	t.Run("should measure planned and actual spend as of the mock clock", func(t *testing.T) {
		// given a pushed allocation with one recorded actual, clock at March 2025
		service, _, teardown := setupSyncTest(t)
		defer teardown()
		alloc := storeAllocation(t, 400)
		_, err := service.Push(context.Background(), alloc.Id)
		require.NoError(t, err)
		entries, err := service.ListEntries(context.Background(), alloc.VersionId)
		require.NoError(t, err)
		_, err = service.RecordActual(context.Background(), entries[0].Id, decimal.NewFromInt(90), time.Now(), "")
		require.NoError(t, err)

		// when
		metrics, err := service.VersionMetrics(context.Background(), alloc.VersionId)

		// then: 3 of 4 months are in the past or current
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(400).Equal(metrics.TotalPlanned))
		assert.True(t, decimal.NewFromInt(300).Equal(metrics.PlannedToDate))
		assert.True(t, decimal.NewFromInt(90).Equal(metrics.ActualsToDate))
	})
}
