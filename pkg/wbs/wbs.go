package wbs

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstimateElement is a single WBS node of a BOE version. Children are never
// stored on the element; they are derived from ParentId references by
// BuildHierarchy.
type EstimateElement struct {
	Id             uuid.UUID
	VersionId      uuid.UUID
	Code           string
	Name           string
	Description    string
	Level          int
	ParentId       *uuid.UUID
	CostCategoryId *uuid.UUID
	EstimatedCost  decimal.Decimal
	IsRequired     bool
	IsOptional     bool
	Notes          string
}

// TreeNode is an EstimateElement carrying its derived children.
type TreeNode struct {
	EstimateElement
	Children []*TreeNode
}

// AllocationAmount is the slice of an allocation the rollup calculator needs:
// the element it targets (nil for program-level allocations) and its total.
type AllocationAmount struct {
	ElementId *uuid.UUID
	Amount    decimal.Decimal
}
