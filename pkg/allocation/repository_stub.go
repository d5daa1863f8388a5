package allocation

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackdally/lre-manager-sub006/pkg/wbs"
)

// RepoStub is an in-memory Repo used by tests.
type RepoStub struct {
	allocations map[uuid.UUID]Allocation
}

func NewRepoStub() *RepoStub {
	return &RepoStub{allocations: make(map[uuid.UUID]Allocation)}
}

func (r *RepoStub) ListByVersion(_ context.Context, versionId uuid.UUID) ([]Allocation, error) {
	var allocations []Allocation
	for _, allocation := range r.allocations {
		if allocation.VersionId == versionId {
			allocations = append(allocations, allocation)
		}
	}
	return allocations, nil
}

func (r *RepoStub) ListActiveByElement(_ context.Context, elementId uuid.UUID) ([]Allocation, error) {
	var allocations []Allocation
	for _, allocation := range r.allocations {
		if allocation.IsActive && allocation.ElementId != nil && *allocation.ElementId == elementId {
			allocations = append(allocations, allocation)
		}
	}
	return allocations, nil
}

func (r *RepoStub) FindById(_ context.Context, id uuid.UUID) (Allocation, error) {
	allocation, ok := r.allocations[id]
	if !ok {
		return Allocation{}, ErrAllocationNotFound
	}
	return allocation, nil
}

func (r *RepoStub) Store(_ context.Context, allocation Allocation) (Allocation, error) {
	r.allocations[allocation.Id] = allocation
	return allocation, nil
}

func (r *RepoStub) Update(_ context.Context, allocation Allocation) (Allocation, error) {
	if _, ok := r.allocations[allocation.Id]; !ok {
		return Allocation{}, ErrAllocationNotFound
	}
	r.allocations[allocation.Id] = allocation
	return allocation, nil
}

func (r *RepoStub) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.allocations[id]; !ok {
		return ErrAllocationNotFound
	}
	delete(r.allocations, id)
	return nil
}

func (r *RepoStub) AmountsByVersion(_ context.Context, versionId uuid.UUID) ([]wbs.AllocationAmount, error) {
	var amounts []wbs.AllocationAmount
	for _, allocation := range r.allocations {
		if allocation.VersionId == versionId && allocation.IsActive {
			amounts = append(amounts, wbs.AllocationAmount{ElementId: allocation.ElementId, Amount: allocation.TotalAmount})
		}
	}
	return amounts, nil
}

// SetLocked flips the lock flag directly, mimicking what the ledger push does
// inside its transaction.
func (r *RepoStub) SetLocked(id uuid.UUID, locked bool) {
	if allocation, ok := r.allocations[id]; ok {
		allocation.IsLocked = locked
		r.allocations[id] = allocation
	}
}

func (r *RepoStub) Cleanup() {
	r.allocations = make(map[uuid.UUID]Allocation)
}
