package ledger

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackdally/lre-manager-sub006/pkg/allocation"
)

// RepoStub is an in-memory Repo used by tests. The allocation repo stub it
// wraps lets PushAllocation flip the lock flag the way the transactional
// implementation does.
type RepoStub struct {
	entries     map[uuid.UUID]Entry
	allocations *allocation.RepoStub
}

func NewRepoStub(allocations *allocation.RepoStub) *RepoStub {
	return &RepoStub{entries: make(map[uuid.UUID]Entry), allocations: allocations}
}

func (r *RepoStub) ListByVersion(_ context.Context, versionId uuid.UUID) ([]Entry, error) {
	var entries []Entry
	for _, entry := range r.entries {
		if entry.VersionId == versionId {
			entries = append(entries, entry)
		}
	}
	sortEntries(entries)
	return entries, nil
}

func (r *RepoStub) ListByAllocation(_ context.Context, allocationId uuid.UUID) ([]Entry, error) {
	var entries []Entry
	for _, entry := range r.entries {
		if entry.AllocationId != nil && *entry.AllocationId == allocationId {
			entries = append(entries, entry)
		}
	}
	sortEntries(entries)
	return entries, nil
}

func (r *RepoStub) FindById(_ context.Context, id uuid.UUID) (Entry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (r *RepoStub) Store(_ context.Context, entry Entry) (Entry, error) {
	r.entries[entry.Id] = entry
	return entry, nil
}

func (r *RepoStub) Update(_ context.Context, entry Entry) (Entry, error) {
	existing, ok := r.entries[entry.Id]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	// The baseline slot is write-once, matching the SQL update.
	entry.BaselineMonth = existing.BaselineMonth
	entry.BaselineAmount = existing.BaselineAmount
	r.entries[entry.Id] = entry
	return entry, nil
}

func (r *RepoStub) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.entries[id]; !ok {
		return ErrEntryNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *RepoStub) PushAllocation(ctx context.Context, alloc allocation.Allocation) (int, error) {
	if len(alloc.Breakdown) == 0 {
		return 0, ErrNothingToPush
	}
	current, err := r.allocations.FindById(ctx, alloc.Id)
	if err != nil {
		return 0, err
	}
	if current.IsLocked {
		return 0, ErrAlreadyPushed
	}
	r.allocations.SetLocked(alloc.Id, true)

	months := make([]string, 0, len(alloc.Breakdown))
	for month := range alloc.Breakdown {
		months = append(months, month)
	}
	sort.Strings(months)

	for _, month := range months {
		allocationId := alloc.Id
		entry := Entry{
			Id:             uuid.New(),
			VersionId:      alloc.VersionId,
			AllocationId:   &allocationId,
			ElementId:      alloc.ElementId,
			VendorName:     alloc.Name,
			Description:    alloc.Description,
			BaselineMonth:  month,
			BaselineAmount: alloc.Breakdown[month].Amount,
			Month:          month,
			PlannedAmount:  alloc.Breakdown[month].Amount,
		}
		r.entries[entry.Id] = entry
	}
	return len(months), nil
}

func (r *RepoStub) Cleanup() {
	r.entries = make(map[uuid.UUID]Entry)
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Month != entries[j].Month {
			return entries[i].Month < entries[j].Month
		}
		return entries[i].VendorName < entries[j].VendorName
	})
}
