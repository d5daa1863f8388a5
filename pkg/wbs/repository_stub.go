package wbs

import (
	"context"

	"github.com/google/uuid"
)

// ElementRepoStub is an in-memory ElementRepo used by tests.
type ElementRepoStub struct {
	elements map[uuid.UUID]EstimateElement
}

func NewElementRepoStub() *ElementRepoStub {
	return &ElementRepoStub{elements: make(map[uuid.UUID]EstimateElement)}
}

func (r *ElementRepoStub) ListByVersion(_ context.Context, versionId uuid.UUID) ([]EstimateElement, error) {
	var elements []EstimateElement
	for _, element := range r.elements {
		if element.VersionId == versionId {
			elements = append(elements, element)
		}
	}
	return elements, nil
}

func (r *ElementRepoStub) FindById(_ context.Context, id uuid.UUID) (EstimateElement, error) {
	element, ok := r.elements[id]
	if !ok {
		return EstimateElement{}, ErrElementNotFound
	}
	return element, nil
}

func (r *ElementRepoStub) Store(_ context.Context, element EstimateElement) (EstimateElement, error) {
	r.elements[element.Id] = element
	return element, nil
}

func (r *ElementRepoStub) Update(_ context.Context, element EstimateElement) (EstimateElement, error) {
	if _, ok := r.elements[element.Id]; !ok {
		return EstimateElement{}, ErrElementNotFound
	}
	r.elements[element.Id] = element
	return element, nil
}

func (r *ElementRepoStub) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.elements[id]; !ok {
		return ErrElementNotFound
	}
	delete(r.elements, id)
	return nil
}

func (r *ElementRepoStub) CountChildren(_ context.Context, id uuid.UUID) (int, error) {
	count := 0
	for _, element := range r.elements {
		if element.ParentId != nil && *element.ParentId == id {
			count++
		}
	}
	return count, nil
}

func (r *ElementRepoStub) Cleanup() {
	r.elements = make(map[uuid.UUID]EstimateElement)
}

// AllocationReaderStub serves fixed allocation amounts per version in tests.
type AllocationReaderStub struct {
	amounts map[uuid.UUID][]AllocationAmount
}

func NewAllocationReaderStub() *AllocationReaderStub {
	return &AllocationReaderStub{amounts: make(map[uuid.UUID][]AllocationAmount)}
}

func (r *AllocationReaderStub) AmountsByVersion(_ context.Context, versionId uuid.UUID) ([]AllocationAmount, error) {
	return r.amounts[versionId], nil
}

func (r *AllocationReaderStub) SetAmounts(versionId uuid.UUID, amounts []AllocationAmount) {
	r.amounts[versionId] = amounts
}

func (r *AllocationReaderStub) Cleanup() {
	r.amounts = make(map[uuid.UUID][]AllocationAmount)
}
