package wbs

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("should accept a well formed structure", func(t *testing.T) {
		// given
		root := newElement("1", nil, 0)
		leaf := newElement("1.1", &root.Id, 100)

		// when
		result := Validate([]EstimateElement{root, leaf}, nil)

		// then
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
	})

	t.Run("should flag a two element circular parent reference", func(t *testing.T) {
		// given two elements naming each other as parent
		a := newElement("1", nil, 100)
		b := newElement("2", nil, 100)
		a.ParentId = &b.Id
		b.ParentId = &a.Id

		// when
		result := Validate([]EstimateElement{a, b}, nil)

		// then
		assert.False(t, result.IsValid)
		var cycleErrors []ValidationIssue
		for _, issue := range result.Errors {
			if issue.Field == "parentId" {
				cycleErrors = append(cycleErrors, issue)
			}
		}
		require.Len(t, cycleErrors, 2)
	})

	t.Run("should flag every member of a longer cycle", func(t *testing.T) {
		// given
		a := newElement("1", nil, 100)
		b := newElement("2", nil, 100)
		c := newElement("3", nil, 100)
		a.ParentId = &b.Id
		b.ParentId = &c.Id
		c.ParentId = &a.Id

		// when
		result := Validate([]EstimateElement{a, b, c}, nil)

		// then
		assert.False(t, result.IsValid)
		flagged := map[uuid.UUID]bool{}
		for _, issue := range result.Errors {
			if issue.ElementId != nil {
				flagged[*issue.ElementId] = true
			}
		}
		assert.True(t, flagged[a.Id])
		assert.True(t, flagged[b.Id])
		assert.True(t, flagged[c.Id])
	})

	t.Run("should reject duplicate codes", func(t *testing.T) {
		// given
		a := newElement("1.1", nil, 100)
		b := newElement("1.1", nil, 200)

		// when
		result := Validate([]EstimateElement{a, b}, nil)

		// then
		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "code", result.Errors[0].Field)
	})

	t.Run("should reject missing name and negative estimate", func(t *testing.T) {
		// given
		element := newElement("1", nil, -50)
		element.Name = ""

		// when
		result := Validate([]EstimateElement{element}, nil)

		// then
		assert.False(t, result.IsValid)
		assert.Len(t, result.Errors, 2)
	})

	t.Run("should warn but not fail on an unknown parent", func(t *testing.T) {
		// given
		missing := uuid.New()
		orphan := newElement("1", &missing, 100)

		// when
		result := Validate([]EstimateElement{orphan}, nil)

		// then
		assert.True(t, result.IsValid)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "parentId", result.Warnings[0].Field)
	})

	t.Run("should reject a required parent with no cost in its subtree", func(t *testing.T) {
		// given
		parent := newElement("1", nil, 0)
		parent.IsRequired = true
		leaf := newElement("1.1", &parent.Id, 0)

		// when
		result := Validate([]EstimateElement{parent, leaf}, nil)

		// then
		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, parent.Id, *result.Errors[0].ElementId)
	})

	t.Run("should reject an empty structure", func(t *testing.T) {
		// when
		result := Validate(nil, nil)

		// then
		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "structure", result.Errors[0].Field)
	})

	t.Run("should require cost and category on a required leaf", func(t *testing.T) {
		// given a required leaf with neither cost nor category
		leaf := newElement("1", nil, 0)
		leaf.IsRequired = true

		// when
		result := Validate([]EstimateElement{leaf}, nil)

		// then
		assert.False(t, result.IsValid)
		fields := map[string]bool{}
		for _, issue := range result.Errors {
			fields[issue.Field] = true
		}
		assert.True(t, fields["estimatedCost"])
		assert.True(t, fields["costCategoryId"])
	})

	t.Run("should accept a costed and categorized required leaf", func(t *testing.T) {
		// given
		categoryId := uuid.New()
		leaf := newElement("1", nil, 500)
		leaf.IsRequired = true
		leaf.CostCategoryId = &categoryId

		// when
		result := Validate([]EstimateElement{leaf}, nil)

		// then
		assert.True(t, result.IsValid)
	})

	t.Run("should accept a required parent funded only through allocations", func(t *testing.T) {
		// given a zero estimate leaf with a positive allocation
		parent := newElement("1", nil, 0)
		parent.IsRequired = true
		leaf := newElement("1.1", &parent.Id, 0)
		sums := map[uuid.UUID]decimal.Decimal{leaf.Id: decimal.NewFromInt(250)}

		// when
		result := Validate([]EstimateElement{parent, leaf}, sums)

		// then
		assert.True(t, result.IsValid)
	})
}
