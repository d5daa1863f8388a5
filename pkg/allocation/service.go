package allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrAllocationInvalid     = errors.New("allocation is invalid")
	ErrAllocationLocked      = errors.New("allocation is locked")
	ErrElementAlreadyCovered = errors.New("element already has an active allocation")
	breakdownTolerance       = decimal.New(1, -2)
)

// Summary aggregates a version's allocations for reporting.
type Summary struct {
	Count         int
	TotalAmount   decimal.Decimal
	MonthlyTotals map[string]decimal.Decimal
}

type Service interface {
	ListAllocations(ctx context.Context, versionId uuid.UUID) ([]Allocation, error)
	GetAllocation(ctx context.Context, id uuid.UUID) (Allocation, error)
	CreateAllocation(ctx context.Context, allocation Allocation) (Allocation, error)
	UpdateAllocation(ctx context.Context, allocation Allocation) (Allocation, error)
	DeleteAllocation(ctx context.Context, id uuid.UUID) error
	Summarize(ctx context.Context, versionId uuid.UUID) (Summary, error)
}

type ServiceImpl struct {
	repo Repo
}

func NewService(repo Repo) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) ListAllocations(ctx context.Context, versionId uuid.UUID) ([]Allocation, error) {
	return s.repo.ListByVersion(ctx, versionId)
}

func (s *ServiceImpl) GetAllocation(ctx context.Context, id uuid.UUID) (Allocation, error) {
	return s.repo.FindById(ctx, id)
}

func (s *ServiceImpl) CreateAllocation(ctx context.Context, allocation Allocation) (Allocation, error) {
	allocation, err := s.prepare(ctx, allocation)
	if err != nil {
		return Allocation{}, err
	}
	if allocation.Id == uuid.Nil {
		allocation.Id = uuid.New()
	}
	allocation.IsLocked = false
	allocation.IsActive = true

	if allocation.ElementId != nil {
		existing, err := s.repo.ListActiveByElement(ctx, *allocation.ElementId)
		if err != nil {
			return Allocation{}, err
		}
		if len(existing) > 0 {
			return Allocation{}, ErrElementAlreadyCovered
		}
	}
	return s.repo.Store(ctx, allocation)
}

func (s *ServiceImpl) UpdateAllocation(ctx context.Context, allocation Allocation) (Allocation, error) {
	current, err := s.repo.FindById(ctx, allocation.Id)
	if err != nil {
		return Allocation{}, err
	}
	if current.IsLocked {
		return Allocation{}, ErrAllocationLocked
	}
	allocation, err = s.prepare(ctx, allocation)
	if err != nil {
		return Allocation{}, err
	}
	allocation.IsLocked = current.IsLocked
	allocation.IsActive = current.IsActive

	if allocation.ElementId != nil {
		existing, err := s.repo.ListActiveByElement(ctx, *allocation.ElementId)
		if err != nil {
			return Allocation{}, err
		}
		for _, other := range existing {
			if other.Id != allocation.Id {
				return Allocation{}, ErrElementAlreadyCovered
			}
		}
	}
	return s.repo.Update(ctx, allocation)
}

func (s *ServiceImpl) DeleteAllocation(ctx context.Context, id uuid.UUID) error {
	current, err := s.repo.FindById(ctx, id)
	if err != nil {
		return err
	}
	if current.IsLocked {
		return ErrAllocationLocked
	}
	return s.repo.Delete(ctx, id)
}

func (s *ServiceImpl) Summarize(ctx context.Context, versionId uuid.UUID) (Summary, error) {
	allocations, err := s.repo.ListByVersion(ctx, versionId)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{MonthlyTotals: make(map[string]decimal.Decimal)}
	for _, allocation := range allocations {
		if !allocation.IsActive {
			continue
		}
		summary.Count++
		summary.TotalAmount = summary.TotalAmount.Add(allocation.TotalAmount)
		for month, share := range allocation.Breakdown {
			summary.MonthlyTotals[month] = summary.MonthlyTotals[month].Add(share.Amount)
		}
	}
	return summary, nil
}

// prepare validates the allocation and fills in the breakdown. A missing
// breakdown is generated from the phasing policy; a caller-provided one is
// checked against the month range and the total.
func (s *ServiceImpl) prepare(ctx context.Context, allocation Allocation) (Allocation, error) {
	if allocation.Name == "" {
		return Allocation{}, fmt.Errorf("%w: name is required", ErrAllocationInvalid)
	}
	if allocation.VersionId == uuid.Nil {
		return Allocation{}, fmt.Errorf("%w: version id is required", ErrAllocationInvalid)
	}
	if !allocation.TotalAmount.IsPositive() {
		return Allocation{}, fmt.Errorf("%w: total amount must be positive", ErrAllocationInvalid)
	}
	allocationType, err := ParseAllocationType(string(allocation.Type))
	if err != nil {
		return Allocation{}, fmt.Errorf("%w: %v", ErrAllocationInvalid, err)
	}
	allocation.Type = allocationType

	months, err := MonthRange(allocation.StartMonth, allocation.EndMonth)
	if err != nil {
		return Allocation{}, fmt.Errorf("%w: %v", ErrAllocationInvalid, err)
	}

	if len(allocation.Breakdown) == 0 {
		breakdown, err := GenerateMonthlyBreakdown(allocation.TotalAmount, allocation.StartMonth, allocation.EndMonth, allocation.Type)
		if err != nil {
			return Allocation{}, fmt.Errorf("%w: %v", ErrAllocationInvalid, err)
		}
		allocation.Breakdown = breakdown
		return allocation, nil
	}

	inRange := make(map[string]bool, len(months))
	for _, month := range months {
		inRange[month] = true
	}
	for month, share := range allocation.Breakdown {
		if !inRange[month] {
			return Allocation{}, fmt.Errorf("%w: breakdown month %s is outside the allocation range", ErrAllocationInvalid, month)
		}
		if share.Amount.IsNegative() {
			return Allocation{}, fmt.Errorf("%w: breakdown month %s has a negative amount", ErrAllocationInvalid, month)
		}
	}
	diff := allocation.BreakdownTotal().Sub(allocation.TotalAmount)
	if diff.Abs().Cmp(breakdownTolerance) > 0 {
		return Allocation{}, fmt.Errorf("%w: breakdown sums to %s but total is %s", ErrAllocationInvalid,
			allocation.BreakdownTotal().StringFixed(2), allocation.TotalAmount.StringFixed(2))
	}
	return allocation, nil
}
