package wbs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackdally/lre-manager-sub006/internal/event_bus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	elementRepoStub      = NewElementRepoStub()
	allocationReaderStub = NewAllocationReaderStub()
)

func setupServiceTest(t *testing.T) (*ServiceImpl, *event_bus.EventBus, func()) {
	bus := event_bus.NewEventBus()
	service := NewService(elementRepoStub, allocationReaderStub, bus)
	return service, bus, func() {
		elementRepoStub.Cleanup()
		allocationReaderStub.Cleanup()
	}
}

func TestServiceCreateElement(t *testing.T) {
	t.Run("should store a valid element and publish a change event", func(t *testing.T) {
		// given
		service, bus, teardown := setupServiceTest(t)
		defer teardown()
		var published []event_bus.EventT[event_bus.ElementChanged]
		event_bus.SubscribeTyped(bus, event_bus.ElementChangedEvent, func(e event_bus.EventT[event_bus.ElementChanged]) error {
			published = append(published, e)
			return nil
		})
		element := newElement("1", nil, 100)

		// when
		created, err := service.CreateElement(context.Background(), element)

		// then
		require.NoError(t, err)
		assert.Equal(t, element.Id, created.Id)
		require.Len(t, published, 1)
		assert.Equal(t, element.Id, published[0].Data.ElementId)
		assert.Equal(t, element.VersionId, published[0].Data.VersionId)
	})

	t.Run("should assign an id when none is given", func(t *testing.T) {
		// given
		service, _, teardown := setupServiceTest(t)
		defer teardown()
		element := newElement("1", nil, 100)
		element.Id = uuid.Nil

		// when
		created, err := service.CreateElement(context.Background(), element)

		// then
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.Id)
	})

	t.Run("should reject an element without a code", func(t *testing.T) {
		// given
		service, _, teardown := setupServiceTest(t)
		defer teardown()
		element := newElement("", nil, 100)
		element.Name = "No code"

		// when
		_, err := service.CreateElement(context.Background(), element)

		// then
		assert.ErrorIs(t, err, ErrElementInvalid)
	})

	t.Run("should reject a parent from a different version", func(t *testing.T) {
		// given
		service, _, teardown := setupServiceTest(t)
		defer teardown()
		parent := newElement("1", nil, 0)
		_, err := service.CreateElement(context.Background(), parent)
		require.NoError(t, err)
		child := newElement("1.1", &parent.Id, 100)

		// when: child carries its own fresh version id
		_, err = service.CreateElement(context.Background(), child)

		// then
		assert.ErrorIs(t, err, ErrElementInvalid)
	})
}

func TestServiceDeleteElement(t *testing.T) {
	t.Run("should refuse to delete an element that still has children", func(t *testing.T) {
		// given
		service, _, teardown := setupServiceTest(t)
		defer teardown()
		parent := newElement("1", nil, 0)
		_, err := service.CreateElement(context.Background(), parent)
		require.NoError(t, err)
		child := newElement("1.1", &parent.Id, 100)
		child.VersionId = parent.VersionId
		_, err = service.CreateElement(context.Background(), child)
		require.NoError(t, err)

		// when
		err = service.DeleteElement(context.Background(), parent.Id)

		// then
		assert.ErrorIs(t, err, ErrElementHasChildren)
	})

	t.Run("should delete a leaf element", func(t *testing.T) {
		// given
		service, _, teardown := setupServiceTest(t)
		defer teardown()
		element := newElement("1", nil, 100)
		_, err := service.CreateElement(context.Background(), element)
		require.NoError(t, err)

		// when
		err = service.DeleteElement(context.Background(), element.Id)

		// then
		require.NoError(t, err)
		_, err = service.GetElement(context.Background(), element.Id)
		assert.ErrorIs(t, err, ErrElementNotFound)
	})
}

func TestServiceRollup(t *testing.T) {
	t.Run("should combine stored elements with allocation amounts", func(t *testing.T) {
		// given
		service, _, teardown := setupServiceTest(t)
		defer teardown()
		element := newElement("1", nil, 500)
		_, err := service.CreateElement(context.Background(), element)
		require.NoError(t, err)
		allocationReaderStub.SetAmounts(element.VersionId, []AllocationAmount{
			{ElementId: &element.Id, Amount: decimal.NewFromInt(550)},
		})

		// when
		result, err := service.Rollup(context.Background(), element.VersionId, 10)

		// then
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(500).Equal(result.EstimatedTotal))
		assert.True(t, decimal.NewFromInt(550).Equal(result.AllocatedTotal))
		assert.True(t, decimal.NewFromInt(50).Equal(result.ManagementReserveAmount))
		assert.Len(t, result.ReconciliationIssues, 1)
	})
}
