package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackdally/lre-manager-sub006/internal/event_bus"
	"github.com/jackdally/lre-manager-sub006/internal/utils"
	"github.com/jackdally/lre-manager-sub006/pkg/allocation"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrAllocationInactive = errors.New("allocation is not active")

type PushResult struct {
	AllocationId   uuid.UUID
	EntriesCreated int
}

type VersionPushResult struct {
	Pushed       []PushResult
	Skipped      []uuid.UUID
	TotalEntries int
}

type Service interface {
	ListEntries(ctx context.Context, versionId uuid.UUID) ([]Entry, error)
	CreateEntry(ctx context.Context, entry Entry) (Entry, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	// RecordActual attaches an actual amount to a planned ledger entry.
	RecordActual(ctx context.Context, entryId uuid.UUID, amount decimal.Decimal, actualDate time.Time, invoiceNumber string) (Entry, error)
	// Push writes one allocation's monthly breakdown to the ledger and locks
	// the allocation.
	Push(ctx context.Context, allocationId uuid.UUID) (PushResult, error)
	// PushVersion pushes every active, unlocked allocation of the version.
	// Already-locked allocations are reported as skipped.
	PushVersion(ctx context.Context, versionId uuid.UUID) (VersionPushResult, error)
	// AllocationActuals returns the recorded actuals of an allocation's
	// ledger entries, grouped by month.
	AllocationActuals(ctx context.Context, allocationId uuid.UUID) (map[string]decimal.Decimal, error)
	VersionMetrics(ctx context.Context, versionId uuid.UUID) (Metrics, error)
}

type ServiceImpl struct {
	repo        Repo
	allocations allocation.Repo
	eventBus    *event_bus.EventBus
	clock       utils.Clock
}

func NewService(repo Repo, allocations allocation.Repo, eventBus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, allocations: allocations, eventBus: eventBus, clock: clock}
}

func (s *ServiceImpl) ListEntries(ctx context.Context, versionId uuid.UUID) ([]Entry, error) {
	return s.repo.ListByVersion(ctx, versionId)
}

func (s *ServiceImpl) CreateEntry(ctx context.Context, entry Entry) (Entry, error) {
	if entry.Id == uuid.Nil {
		entry.Id = uuid.New()
	}
	if _, err := allocation.ParseMonth(entry.Month); err != nil {
		return Entry{}, err
	}
	if entry.BaselineMonth == "" {
		entry.BaselineMonth = entry.Month
		entry.BaselineAmount = entry.PlannedAmount
	}
	return s.repo.Store(ctx, entry)
}

func (s *ServiceImpl) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *ServiceImpl) RecordActual(ctx context.Context, entryId uuid.UUID, amount decimal.Decimal, actualDate time.Time, invoiceNumber string) (Entry, error) {
	entry, err := s.repo.FindById(ctx, entryId)
	if err != nil {
		return Entry{}, err
	}
	entry.ActualAmount = &amount
	entry.ActualDate = &actualDate
	if invoiceNumber != "" {
		entry.InvoiceNumber = invoiceNumber
	}
	return s.repo.Update(ctx, entry)
}

func (s *ServiceImpl) Push(ctx context.Context, allocationId uuid.UUID) (PushResult, error) {
	alloc, err := s.allocations.FindById(ctx, allocationId)
	if err != nil {
		return PushResult{}, err
	}
	if !alloc.IsActive {
		return PushResult{}, ErrAllocationInactive
	}
	if alloc.IsLocked {
		return PushResult{}, ErrAlreadyPushed
	}

	count, err := s.repo.PushAllocation(ctx, alloc)
	if err != nil {
		return PushResult{}, err
	}

	err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.AllocationPushedEvent, event_bus.AllocationPushed{
		AllocationId:   alloc.Id,
		VersionId:      alloc.VersionId,
		EntriesCreated: count,
	}))
	if err != nil {
		log.Errorf("could not publish allocation pushed event: %v", err)
	}
	return PushResult{AllocationId: alloc.Id, EntriesCreated: count}, nil
}

// PushVersion pushes allocations one by one; each push is its own
// transaction, so a failure leaves earlier pushes committed and locked.
func (s *ServiceImpl) PushVersion(ctx context.Context, versionId uuid.UUID) (VersionPushResult, error) {
	allocations, err := s.allocations.ListByVersion(ctx, versionId)
	if err != nil {
		return VersionPushResult{}, err
	}

	result := VersionPushResult{}
	for _, alloc := range allocations {
		if !alloc.IsActive {
			continue
		}
		if alloc.IsLocked {
			result.Skipped = append(result.Skipped, alloc.Id)
			continue
		}
		pushed, err := s.Push(ctx, alloc.Id)
		if errors.Is(err, ErrAlreadyPushed) {
			result.Skipped = append(result.Skipped, alloc.Id)
			continue
		}
		if err != nil {
			return VersionPushResult{}, err
		}
		result.Pushed = append(result.Pushed, pushed)
		result.TotalEntries += pushed.EntriesCreated
	}
	return result, nil
}

func (s *ServiceImpl) AllocationActuals(ctx context.Context, allocationId uuid.UUID) (map[string]decimal.Decimal, error) {
	if _, err := s.allocations.FindById(ctx, allocationId); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListByAllocation(ctx, allocationId)
	if err != nil {
		return nil, err
	}
	return ActualsByMonth(entries), nil
}

func (s *ServiceImpl) VersionMetrics(ctx context.Context, versionId uuid.UUID) (Metrics, error) {
	entries, err := s.repo.ListByVersion(ctx, versionId)
	if err != nil {
		return Metrics{}, err
	}
	return ComputeMetrics(entries, s.clock.Now()), nil
}
