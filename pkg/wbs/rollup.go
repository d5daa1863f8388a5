package wbs

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UncategorizedKey groups elements without a cost category in breakdowns.
const UncategorizedKey = "uncategorized"

// reconciliationTolerance is the largest estimate/allocation gap (in currency
// units) that is still treated as a rounding artifact rather than an issue.
var reconciliationTolerance = decimal.New(1, -2)

type CategoryBreakdown struct {
	CostCategoryId  string
	EstimatedCost   decimal.Decimal
	AllocatedAmount decimal.Decimal
	ElementCount    int
}

type LevelBreakdown struct {
	Level           int
	EstimatedCost   decimal.Decimal
	AllocatedAmount decimal.Decimal
	ElementCount    int
}

// ReconciliationIssue reports a leaf whose allocation sum and estimate
// disagree by more than the tolerance. Difference is allocated minus
// estimated, so over-allocation is positive.
type ReconciliationIssue struct {
	ElementId       uuid.UUID
	Code            string
	Name            string
	EstimatedCost   decimal.Decimal
	AllocatedAmount decimal.Decimal
	Difference      decimal.Decimal
}

// RollupResult is the full cost picture of one BOE version.
type RollupResult struct {
	EstimatedTotal              decimal.Decimal
	AllocatedTotal              decimal.Decimal
	ManagementReservePercentage float64
	ManagementReserveAmount     decimal.Decimal
	TotalWithReserve            decimal.Decimal
	ElementCount                int
	LeafElementCount            int
	RequiredElementCount        int
	OptionalElementCount        int
	CategoryBreakdown           []CategoryBreakdown
	LevelBreakdown              []LevelBreakdown
	ReconciliationIssues        []ReconciliationIssue
	// AmbiguousElements lists elements whose two leaf checks (no inbound
	// parent references vs. empty derived children) disagreed. They are
	// counted as parents.
	AmbiguousElements []uuid.UUID
}

// CalculateTotals walks the forest and produces version totals, per-category
// and per-level breakdowns, and reconciliation issues. Only leaf elements
// contribute to the estimated total; parent estimates are treated as stale
// summaries. The management reserve is applied on top of the estimated total.
func CalculateTotals(roots []*TreeNode, mrPercentage float64, allocations []AllocationAmount) RollupResult {
	nodes := flattenNodes(roots)
	referenced := make(map[uuid.UUID]bool)
	for _, n := range nodes {
		if n.ParentId != nil {
			referenced[*n.ParentId] = true
		}
	}

	allocSums := SumAllocationsByElement(allocations)
	allocatedTotal := decimal.Zero
	for _, sum := range allocSums {
		allocatedTotal = allocatedTotal.Add(sum)
	}

	result := RollupResult{
		ManagementReservePercentage: mrPercentage,
		AllocatedTotal:              allocatedTotal,
		EstimatedTotal:              decimal.Zero,
	}

	categories := make(map[string]*CategoryBreakdown)
	levels := make(map[int]*LevelBreakdown)

	for _, n := range nodes {
		result.ElementCount++
		if n.IsRequired {
			result.RequiredElementCount++
		}
		if n.IsOptional {
			result.OptionalElementCount++
		}

		hasChildren := len(n.Children) > 0
		isReferenced := referenced[n.Id]
		if hasChildren != isReferenced {
			result.AmbiguousElements = append(result.AmbiguousElements, n.Id)
		}
		isLeaf := !hasChildren && !isReferenced
		if !isLeaf {
			continue
		}

		result.LeafElementCount++
		result.EstimatedTotal = result.EstimatedTotal.Add(n.EstimatedCost)
		allocated := allocSums[n.Id]

		key := UncategorizedKey
		if n.CostCategoryId != nil {
			key = n.CostCategoryId.String()
		}
		cat := categories[key]
		if cat == nil {
			cat = &CategoryBreakdown{CostCategoryId: key}
			categories[key] = cat
		}
		cat.EstimatedCost = cat.EstimatedCost.Add(n.EstimatedCost)
		cat.AllocatedAmount = cat.AllocatedAmount.Add(allocated)
		cat.ElementCount++

		lvl := levels[n.Level]
		if lvl == nil {
			lvl = &LevelBreakdown{Level: n.Level}
			levels[n.Level] = lvl
		}
		lvl.EstimatedCost = lvl.EstimatedCost.Add(n.EstimatedCost)
		lvl.AllocatedAmount = lvl.AllocatedAmount.Add(allocated)
		lvl.ElementCount++

		if !allocated.IsZero() && !n.EstimatedCost.IsZero() {
			diff := allocated.Sub(n.EstimatedCost)
			if diff.Abs().Cmp(reconciliationTolerance) > 0 {
				result.ReconciliationIssues = append(result.ReconciliationIssues, ReconciliationIssue{
					ElementId:       n.Id,
					Code:            n.Code,
					Name:            n.Name,
					EstimatedCost:   n.EstimatedCost,
					AllocatedAmount: allocated,
					Difference:      diff,
				})
			}
		}
	}

	result.ManagementReserveAmount = result.EstimatedTotal.Mul(decimal.NewFromFloat(mrPercentage)).Div(decimal.NewFromInt(100)).Round(2)
	result.TotalWithReserve = result.EstimatedTotal.Add(result.ManagementReserveAmount)

	for _, cat := range categories {
		result.CategoryBreakdown = append(result.CategoryBreakdown, *cat)
	}
	sort.Slice(result.CategoryBreakdown, func(i, j int) bool {
		return result.CategoryBreakdown[i].CostCategoryId < result.CategoryBreakdown[j].CostCategoryId
	})
	for _, lvl := range levels {
		result.LevelBreakdown = append(result.LevelBreakdown, *lvl)
	}
	sort.Slice(result.LevelBreakdown, func(i, j int) bool {
		return result.LevelBreakdown[i].Level < result.LevelBreakdown[j].Level
	})

	return result
}

// AggregatedCost computes the effective cost of a subtree: for a leaf, the
// allocation sum when one exists, otherwise the estimate; for a parent, the
// sum over its children. Allocations are authoritative once present.
func AggregatedCost(node *TreeNode, allocSums map[uuid.UUID]decimal.Decimal) decimal.Decimal {
	if len(node.Children) == 0 {
		if sum, ok := allocSums[node.Id]; ok && sum.IsPositive() {
			return sum
		}
		return node.EstimatedCost
	}
	total := decimal.Zero
	for _, child := range node.Children {
		total = total.Add(AggregatedCost(child, allocSums))
	}
	return total
}

// SumAllocationsByElement groups allocation totals by target element.
// Program-level allocations (nil element id) are grouped under uuid.Nil.
func SumAllocationsByElement(allocations []AllocationAmount) map[uuid.UUID]decimal.Decimal {
	sums := make(map[uuid.UUID]decimal.Decimal)
	for _, a := range allocations {
		key := uuid.Nil
		if a.ElementId != nil {
			key = *a.ElementId
		}
		sums[key] = sums[key].Add(a.Amount)
	}
	return sums
}

func flattenNodes(roots []*TreeNode) []*TreeNode {
	seen := make(map[uuid.UUID]bool)
	var out []*TreeNode
	var walk func(nodes []*TreeNode)
	walk = func(nodes []*TreeNode) {
		for _, n := range nodes {
			if seen[n.Id] {
				continue
			}
			seen[n.Id] = true
			out = append(out, n)
			walk(n.Children)
		}
	}
	walk(roots)
	return out
}
