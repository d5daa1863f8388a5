package allocation

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationType selects the phasing policy used to spread an allocation's
// total across its month range.
type AllocationType string

const (
	TypeLinear      AllocationType = "linear"
	TypeFrontLoaded AllocationType = "front_loaded"
	TypeBackLoaded  AllocationType = "back_loaded"
	TypeCustom      AllocationType = "custom"
)

// ParseAllocationType validates a raw type string. An empty string defaults
// to linear.
func ParseAllocationType(raw string) (AllocationType, error) {
	switch AllocationType(raw) {
	case TypeLinear, TypeFrontLoaded, TypeBackLoaded, TypeCustom:
		return AllocationType(raw), nil
	case "":
		return TypeLinear, nil
	default:
		return "", fmt.Errorf("unknown allocation type %q", raw)
	}
}

// MonthlyShare is one month's slice of an allocation.
type MonthlyShare struct {
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Allocation phases a sum of money across an inclusive month range, either
// against a specific estimate element or at program level (nil ElementId).
// Once pushed to the ledger the allocation is locked and becomes immutable.
type Allocation struct {
	Id          uuid.UUID
	VersionId   uuid.UUID
	ElementId   *uuid.UUID
	Name        string
	Description string
	TotalAmount decimal.Decimal
	StartMonth  string
	EndMonth    string
	Type        AllocationType
	Breakdown   map[string]MonthlyShare
	IsLocked    bool
	IsActive    bool
}

// BreakdownTotal sums the monthly amounts of the breakdown.
func (a Allocation) BreakdownTotal() decimal.Decimal {
	total := decimal.Zero
	for _, share := range a.Breakdown {
		total = total.Add(share.Amount)
	}
	return total
}
