package boe

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackdally/lre-manager-sub006/internal/event_bus"
	"github.com/jackdally/lre-manager-sub006/internal/utils"
	"github.com/jackdally/lre-manager-sub006/pkg/allocation"
	"github.com/jackdally/lre-manager-sub006/pkg/ledger"
	"github.com/jackdally/lre-manager-sub006/pkg/reserve"
	"github.com/jackdally/lre-manager-sub006/pkg/wbs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rollupEstimator struct {
	elements wbs.Service
}

func (a rollupEstimator) EstimatedTotal(ctx context.Context, versionId uuid.UUID) (decimal.Decimal, error) {
	rollup, err := a.elements.Rollup(ctx, versionId, 0)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return rollup.EstimatedTotal, nil
}

type testFixture struct {
	service   *ServiceImpl
	versions  *RepoStub
	elements  wbs.Service
	reserves  reserve.Service
	ledgerSvc ledger.Service
	allocRepo *allocation.RepoStub
	clock     *utils.MockClock
}

func setupFixture(t *testing.T) (testFixture, func()) {
	bus := event_bus.NewEventBus()
	clock := &utils.MockClock{FixedNow: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)}

	versionRepo := NewRepoStub()
	elementRepo := wbs.NewElementRepoStub()
	allocRepo := allocation.NewRepoStub()
	ledgerRepo := ledger.NewRepoStub(allocRepo)
	reserveRepo := reserve.NewRepoStub()

	elements := wbs.NewService(elementRepo, allocRepo, bus)
	allocations := allocation.NewService(allocRepo)
	reserves := reserve.NewService(reserveRepo, rollupEstimator{elements: elements})
	ledgerService := ledger.NewService(ledgerRepo, allocRepo, bus, clock)
	service := NewService(versionRepo, elements, allocations, reserves, ledgerService, bus, clock)

	fixture := testFixture{
		service:   service,
		versions:  versionRepo,
		elements:  elements,
		reserves:  reserves,
		ledgerSvc: ledgerService,
		allocRepo: allocRepo,
		clock:     clock,
	}
	return fixture, func() {
		versionRepo.Cleanup()
		elementRepo.Cleanup()
		allocRepo.Cleanup()
		ledgerRepo.Cleanup()
		reserveRepo.Cleanup()
	}
}

func createDraft(t *testing.T, f testFixture) Version {
	version, err := f.service.CreateVersion(context.Background(), Version{
		ProgramId: uuid.New(),
		Name:      "Initial estimate",
	})
	require.NoError(t, err)
	return version
}

func makeReady(t *testing.T, f testFixture, version Version) {
	_, err := f.elements.CreateElement(context.Background(), wbs.EstimateElement{
		VersionId:     version.Id,
		Code:          "1",
		Name:          "Avionics",
		EstimatedCost: decimal.NewFromInt(100_000),
	})
	require.NoError(t, err)
	_, err = f.reserves.SetReserve(context.Background(), version.Id, reserve.StrategyStandard, 0, "integration risk")
	require.NoError(t, err)
}

func TestServiceCreateVersion(t *testing.T) {
	t.Run("should number versions sequentially per program", func(t *testing.T) {
		// given
		f, teardown := setupFixture(t)
		defer teardown()
		first := createDraft(t, f)

		// when
		second, err := f.service.CreateVersion(context.Background(), Version{ProgramId: first.ProgramId, Name: "Rework"})

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, first.VersionNumber)
		assert.Equal(t, 2, second.VersionNumber)
		assert.Equal(t, StatusDraft, second.Status)
	})
}

func TestServiceUpdateVersion(t *testing.T) {
	t.Run("should reject edits after baselining", func(t *testing.T) {
		// given
		f, teardown := setupFixture(t)
		defer teardown()
		version := createDraft(t, f)
		makeReady(t, f, version)
		_, err := f.service.Baseline(context.Background(), version.Id)
		require.NoError(t, err)

		// when
		version.Name = "Renamed"
		_, err = f.service.UpdateVersion(context.Background(), version)

		// then
		assert.ErrorIs(t, err, ErrVersionImmutable)
	})
}

func TestServiceBaseline(t *testing.T) {
	t.Run("should refuse baselining without a management reserve", func(t *testing.T) {
		// given a draft without a reserve
		f, teardown := setupFixture(t)
		defer teardown()
		version := createDraft(t, f)

		// when
		_, err := f.service.Baseline(context.Background(), version.Id)

		// then
		assert.ErrorIs(t, err, ErrVersionNotReady)
	})

	t.Run("should refuse baselining when the reserve has no justification", func(t *testing.T) {
		// given
		f, teardown := setupFixture(t)
		defer teardown()
		version := createDraft(t, f)
		_, err := f.reserves.SetReserve(context.Background(), version.Id, reserve.StrategyStandard, 0, "")
		require.NoError(t, err)

		// when
		_, err = f.service.Baseline(context.Background(), version.Id)

		// then
		assert.ErrorIs(t, err, ErrVersionNotReady)
	})

	t.Run("should baseline a ready draft and mark it current", func(t *testing.T) {
		// given
		f, teardown := setupFixture(t)
		defer teardown()
		version := createDraft(t, f)
		makeReady(t, f, version)

		// when
		baselined, err := f.service.Baseline(context.Background(), version.Id)

		// then
		require.NoError(t, err)
		assert.Equal(t, StatusBaseline, baselined.Status)
		require.NotNil(t, baselined.ApprovedAt)
		assert.Equal(t, f.clock.FixedNow, *baselined.ApprovedAt)

		stored, err := f.service.GetVersion(context.Background(), version.Id)
		require.NoError(t, err)
		assert.True(t, stored.IsCurrent)
	})

	t.Run("should refuse baselining twice", func(t *testing.T) {
		// given
		f, teardown := setupFixture(t)
		defer teardown()
		version := createDraft(t, f)
		makeReady(t, f, version)
		_, err := f.service.Baseline(context.Background(), version.Id)
		require.NoError(t, err)

		// when
		_, err = f.service.Baseline(context.Background(), version.Id)

		// then
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestServicePushToProgram(t *testing.T) {
	t.Run("should refuse pushing a draft", func(t *testing.T) {
		// given
		f, teardown := setupFixture(t)
		defer teardown()
		version := createDraft(t, f)

		// when
		_, _, err := f.service.PushToProgram(context.Background(), version.Id)

		// then
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("should push a baselined version and advance the lifecycle", func(t *testing.T) {
		// given a baselined version with one allocation
		f, teardown := setupFixture(t)
		defer teardown()
		version := createDraft(t, f)
		makeReady(t, f, version)
		baselined, err := f.service.Baseline(context.Background(), version.Id)
		require.NoError(t, err)

		breakdown, err := allocation.GenerateMonthlyBreakdown(decimal.NewFromInt(300), "2025-07", "2025-09", allocation.TypeLinear)
		require.NoError(t, err)
		_, err = f.allocRepo.Store(context.Background(), allocation.Allocation{
			Id:          uuid.New(),
			VersionId:   version.Id,
			Name:        "Test lab services",
			TotalAmount: decimal.NewFromInt(300),
			StartMonth:  "2025-07",
			EndMonth:    "2025-09",
			Type:        allocation.TypeLinear,
			Breakdown:   breakdown,
			IsActive:    true,
		})
		require.NoError(t, err)

		// when
		pushed, result, err := f.service.PushToProgram(context.Background(), baselined.Id)

		// then
		require.NoError(t, err)
		assert.Equal(t, StatusPushed, pushed.Status)
		assert.Equal(t, 3, result.TotalEntries)

		entries, err := f.ledgerSvc.ListEntries(context.Background(), version.Id)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})
}

func TestServiceTotalsRefresh(t *testing.T) {
	t.Run("should cache new totals when an element changes", func(t *testing.T) {
		// given
		f, teardown := setupFixture(t)
		defer teardown()
		version := createDraft(t, f)

		// when
		_, err := f.elements.CreateElement(context.Background(), wbs.EstimateElement{
			VersionId:     version.Id,
			Code:          "1",
			Name:          "Ground software",
			EstimatedCost: decimal.NewFromInt(42_000),
		})
		require.NoError(t, err)

		// then
		stored, err := f.service.GetVersion(context.Background(), version.Id)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(42_000).Equal(stored.EstimatedTotal))
	})
}

func TestServiceSummarize(t *testing.T) {
	t.Run("should combine rollup, allocations, reserve, and metrics", func(t *testing.T) {
		// given
		f, teardown := setupFixture(t)
		defer teardown()
		version := createDraft(t, f)
		makeReady(t, f, version)

		// when
		summary, err := f.service.Summarize(context.Background(), version.Id)

		// then
		require.NoError(t, err)
		require.NotNil(t, summary.Reserve)
		assert.Equal(t, 15.0, summary.Reserve.AdjustedPercentage)
		assert.True(t, decimal.NewFromInt(100_000).Equal(summary.Rollup.EstimatedTotal))
		assert.True(t, decimal.NewFromInt(15_000).Equal(summary.Rollup.ManagementReserveAmount))
		assert.Equal(t, 0, summary.Allocations.Count)
	})
}
