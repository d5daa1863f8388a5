package wbs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackdally/lre-manager-sub006/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

var (
	ErrElementInvalid     = errors.New("estimate element is invalid")
	ErrElementHasChildren = errors.New("estimate element still has children")
	ErrParentNotFound     = errors.New("parent element not found")
)

// AllocationReader provides the allocation totals the rollup and validator
// need without coupling this package to the allocation store.
type AllocationReader interface {
	AmountsByVersion(ctx context.Context, versionId uuid.UUID) ([]AllocationAmount, error)
}

type Service interface {
	ListElements(ctx context.Context, versionId uuid.UUID) ([]EstimateElement, error)
	GetElement(ctx context.Context, id uuid.UUID) (EstimateElement, error)
	CreateElement(ctx context.Context, element EstimateElement) (EstimateElement, error)
	UpdateElement(ctx context.Context, element EstimateElement) (EstimateElement, error)
	DeleteElement(ctx context.Context, id uuid.UUID) error
	Hierarchy(ctx context.Context, versionId uuid.UUID) ([]*TreeNode, error)
	Rollup(ctx context.Context, versionId uuid.UUID, mrPercentage float64) (RollupResult, error)
	ValidateStructure(ctx context.Context, versionId uuid.UUID) (ValidationResult, error)
}

type ServiceImpl struct {
	repo        ElementRepo
	allocations AllocationReader
	eventBus    *event_bus.EventBus
}

func NewService(repo ElementRepo, allocations AllocationReader, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, allocations: allocations, eventBus: eventBus}
}

func (s *ServiceImpl) ListElements(ctx context.Context, versionId uuid.UUID) ([]EstimateElement, error) {
	return s.repo.ListByVersion(ctx, versionId)
}

func (s *ServiceImpl) GetElement(ctx context.Context, id uuid.UUID) (EstimateElement, error) {
	return s.repo.FindById(ctx, id)
}

func (s *ServiceImpl) CreateElement(ctx context.Context, element EstimateElement) (EstimateElement, error) {
	if err := s.checkElement(ctx, element); err != nil {
		return EstimateElement{}, err
	}
	if element.Id == uuid.Nil {
		element.Id = uuid.New()
	}
	stored, err := s.repo.Store(ctx, element)
	if err != nil {
		return EstimateElement{}, err
	}
	s.publishChanged(ctx, stored)
	return stored, nil
}

func (s *ServiceImpl) UpdateElement(ctx context.Context, element EstimateElement) (EstimateElement, error) {
	if err := s.checkElement(ctx, element); err != nil {
		return EstimateElement{}, err
	}
	updated, err := s.repo.Update(ctx, element)
	if err != nil {
		return EstimateElement{}, err
	}
	s.publishChanged(ctx, updated)
	return updated, nil
}

func (s *ServiceImpl) DeleteElement(ctx context.Context, id uuid.UUID) error {
	element, err := s.repo.FindById(ctx, id)
	if err != nil {
		return err
	}
	childCount, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if childCount > 0 {
		return ErrElementHasChildren
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publishChanged(ctx, element)
	return nil
}

func (s *ServiceImpl) Hierarchy(ctx context.Context, versionId uuid.UUID) ([]*TreeNode, error) {
	elements, err := s.repo.ListByVersion(ctx, versionId)
	if err != nil {
		return nil, err
	}
	return BuildHierarchy(elements), nil
}

func (s *ServiceImpl) Rollup(ctx context.Context, versionId uuid.UUID, mrPercentage float64) (RollupResult, error) {
	elements, err := s.repo.ListByVersion(ctx, versionId)
	if err != nil {
		return RollupResult{}, err
	}
	amounts, err := s.allocations.AmountsByVersion(ctx, versionId)
	if err != nil {
		return RollupResult{}, err
	}
	return CalculateTotals(BuildHierarchy(elements), mrPercentage, amounts), nil
}

func (s *ServiceImpl) ValidateStructure(ctx context.Context, versionId uuid.UUID) (ValidationResult, error) {
	elements, err := s.repo.ListByVersion(ctx, versionId)
	if err != nil {
		return ValidationResult{}, err
	}
	amounts, err := s.allocations.AmountsByVersion(ctx, versionId)
	if err != nil {
		return ValidationResult{}, err
	}
	return Validate(elements, SumAllocationsByElement(amounts)), nil
}

func (s *ServiceImpl) checkElement(ctx context.Context, element EstimateElement) error {
	if element.Code == "" {
		return fmt.Errorf("%w: code is required", ErrElementInvalid)
	}
	if element.Name == "" {
		return fmt.Errorf("%w: name is required", ErrElementInvalid)
	}
	if element.VersionId == uuid.Nil {
		return fmt.Errorf("%w: version id is required", ErrElementInvalid)
	}
	if element.EstimatedCost.IsNegative() {
		return fmt.Errorf("%w: estimated cost cannot be negative", ErrElementInvalid)
	}
	if element.ParentId != nil {
		if *element.ParentId == element.Id {
			return fmt.Errorf("%w: element cannot be its own parent", ErrElementInvalid)
		}
		parent, err := s.repo.FindById(ctx, *element.ParentId)
		if errors.Is(err, ErrElementNotFound) {
			return ErrParentNotFound
		}
		if err != nil {
			return err
		}
		if parent.VersionId != element.VersionId {
			return fmt.Errorf("%w: parent belongs to a different version", ErrElementInvalid)
		}
	}
	return nil
}

func (s *ServiceImpl) publishChanged(ctx context.Context, element EstimateElement) {
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.ElementChangedEvent, event_bus.ElementChanged{
		ElementId: element.Id,
		VersionId: element.VersionId,
	}))
	if err != nil {
		log.Errorf("could not publish element changed event: %v", err)
	}
}
