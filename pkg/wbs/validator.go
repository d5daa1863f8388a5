package wbs

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ValidationIssue struct {
	ElementId *uuid.UUID
	Field     string
	Message   string
}

// ValidationResult is valid when no errors were found. Warnings do not block
// baselining.
type ValidationResult struct {
	IsValid  bool
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

func (r *ValidationResult) addError(id *uuid.UUID, field, message string) {
	r.Errors = append(r.Errors, ValidationIssue{ElementId: id, Field: field, Message: message})
}

func (r *ValidationResult) addWarning(id *uuid.UUID, field, message string) {
	r.Warnings = append(r.Warnings, ValidationIssue{ElementId: id, Field: field, Message: message})
}

// Validate checks the structural integrity of a version's element set:
// required fields, duplicate codes, unresolvable parents, circular parent
// references, and required subtrees that carry no cost. The allocation sums
// (keyed by element id) feed the aggregated-cost check; pass nil when
// allocations should not be considered.
func Validate(elements []EstimateElement, allocSums map[uuid.UUID]decimal.Decimal) ValidationResult {
	result := ValidationResult{}

	if len(elements) == 0 {
		result.addError(nil, "structure", "structure has no elements")
		return result
	}

	byId := make(map[uuid.UUID]EstimateElement, len(elements))
	for _, el := range elements {
		byId[el.Id] = el
	}

	codes := make(map[string]string, len(elements))
	for _, el := range elements {
		el := el
		if el.Code == "" {
			result.addError(&el.Id, "code", "element is missing a WBS code")
		} else if prev, ok := codes[el.Code]; ok {
			result.addError(&el.Id, "code", fmt.Sprintf("duplicate WBS code %q (also used by %q)", el.Code, prev))
		} else {
			codes[el.Code] = el.Name
		}
		if el.Name == "" {
			result.addError(&el.Id, "name", fmt.Sprintf("element %s is missing a name", el.Code))
		}
		if el.EstimatedCost.IsNegative() {
			result.addError(&el.Id, "estimatedCost", fmt.Sprintf("element %s has a negative estimated cost", el.Code))
		}
		if el.IsRequired && el.IsOptional {
			result.addWarning(&el.Id, "isRequired", fmt.Sprintf("element %s is marked both required and optional", el.Code))
		}
		if el.ParentId != nil {
			if _, ok := byId[*el.ParentId]; !ok {
				result.addWarning(&el.Id, "parentId", fmt.Sprintf("element %s references unknown parent %s and will be treated as a root", el.Code, *el.ParentId))
			}
		}
	}

	for _, id := range findCycles(elements) {
		id := id
		el := byId[id]
		result.addError(&id, "parentId", fmt.Sprintf("element %s is part of a circular parent reference", el.Code))
	}

	// Cycles make the derived tree unreliable, so the cost checks only run on
	// an acyclic structure.
	if len(result.Errors) == 0 {
		roots := BuildHierarchy(elements)
		var checkCost func(node *TreeNode)
		checkCost = func(node *TreeNode) {
			if node.IsRequired {
				if !AggregatedCost(node, allocSums).IsPositive() {
					id := node.Id
					if len(node.Children) > 0 {
						result.addError(&id, "estimatedCost", fmt.Sprintf("required element %s has no cost in its subtree", node.Code))
					} else {
						result.addError(&id, "estimatedCost", fmt.Sprintf("required element %s has no estimated cost or allocation", node.Code))
					}
				}
				// Leaves are costed directly, so they also need a category for
				// the rollup breakdown. Parents inherit theirs from children.
				if len(node.Children) == 0 && node.CostCategoryId == nil {
					id := node.Id
					result.addError(&id, "costCategoryId", fmt.Sprintf("required element %s has no cost category", node.Code))
				}
			}
			for _, child := range node.Children {
				checkCost(child)
			}
		}
		for _, root := range roots {
			checkCost(root)
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// findCycles runs a depth-first search over the parent-derived child pointers
// of every element, using a recursion stack; any element revisited while still
// on the stack belongs to a cycle. Starting from every element (not only
// roots) catches cycles that are unreachable from any root, such as two
// elements naming each other as parent.
func findCycles(elements []EstimateElement) []uuid.UUID {
	children := make(map[uuid.UUID][]uuid.UUID)
	for _, el := range elements {
		if el.ParentId != nil {
			children[*el.ParentId] = append(children[*el.ParentId], el.Id)
		}
	}

	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)
	state := make(map[uuid.UUID]int, len(elements))
	inCycle := make(map[uuid.UUID]bool)
	var stack []uuid.UUID

	var visit func(id uuid.UUID)
	visit = func(id uuid.UUID) {
		state[id] = onStack
		stack = append(stack, id)
		for _, child := range children[id] {
			switch state[child] {
			case unvisited:
				visit(child)
			case onStack:
				// Everything from the revisited element to the top of the
				// stack is part of the cycle.
				for i := len(stack) - 1; i >= 0; i-- {
					inCycle[stack[i]] = true
					if stack[i] == child {
						break
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
	}

	for _, el := range elements {
		if state[el.Id] == unvisited {
			visit(el.Id)
		}
	}

	var ids []uuid.UUID
	for _, el := range elements {
		if inCycle[el.Id] {
			ids = append(ids, el.Id)
		}
	}
	return ids
}
