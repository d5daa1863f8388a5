package wbs

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// BuildHierarchy turns a flat element list into a sorted forest of root nodes.
// Elements are deduplicated by id (first occurrence wins). An element whose
// ParentId resolves to a known element becomes that parent's child; any other
// element becomes a root. Siblings are sorted by dotted numeric code at every
// level.
func BuildHierarchy(elements []EstimateElement) []*TreeNode {
	seen := make(map[uuid.UUID]bool, len(elements))
	deduped := make([]EstimateElement, 0, len(elements))
	for _, el := range elements {
		if seen[el.Id] {
			continue
		}
		seen[el.Id] = true
		deduped = append(deduped, el)
	}

	nodes := make(map[uuid.UUID]*TreeNode, len(deduped))
	for _, el := range deduped {
		nodes[el.Id] = &TreeNode{EstimateElement: el}
	}

	var roots []*TreeNode
	for _, el := range deduped {
		node := nodes[el.Id]
		if el.ParentId != nil {
			if parent, ok := nodes[*el.ParentId]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
			// The parent id does not resolve; promote to root so the element
			// stays visible instead of silently disappearing.
			log.Warnf("element %s (%s) references unknown parent %s, promoting to root", el.Code, el.Id, *el.ParentId)
		}
		roots = append(roots, node)
	}

	sortForest(roots)
	return roots
}

// Flatten walks the forest depth-first and returns the elements in traversal
// order, deduplicated by id.
func Flatten(roots []*TreeNode) []EstimateElement {
	seen := make(map[uuid.UUID]bool)
	var out []EstimateElement
	var walk func(nodes []*TreeNode)
	walk = func(nodes []*TreeNode) {
		for _, n := range nodes {
			if seen[n.Id] {
				continue
			}
			seen[n.Id] = true
			out = append(out, n.EstimateElement)
			walk(n.Children)
		}
	}
	walk(roots)
	return out
}

func sortForest(nodes []*TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return CompareCodes(nodes[i].Code, nodes[j].Code) < 0
	})
	for _, n := range nodes {
		sortForest(n.Children)
	}
}

// CompareCodes orders dotted WBS codes numerically segment by segment, so
// "1.10" sorts after "1.2" and "1.2" after "1.1". When one code is a prefix
// of the other, the shorter code sorts first.
func CompareCodes(a, b string) int {
	partsA := strings.Split(a, ".")
	partsB := strings.Split(b, ".")

	n := len(partsA)
	if len(partsB) > n {
		n = len(partsB)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(partsA) {
			av, _ = strconv.Atoi(partsA[i])
		}
		if i < len(partsB) {
			bv, _ = strconv.Atoi(partsB[i])
		}
		if av != bv {
			return av - bv
		}
	}
	return len(partsA) - len(partsB)
}
