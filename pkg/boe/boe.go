package boe

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a BOE version. A version starts as a
// draft, becomes the program baseline on approval, and is finally pushed to
// the program ledger. Transitions only move forward.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusBaseline Status = "baseline"
	StatusPushed   Status = "pushed_to_program"
)

// CanTransitionTo reports whether the lifecycle allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusBaseline
	case StatusBaseline:
		return next == StatusPushed
	default:
		return false
	}
}

// Version is one complete estimate of a program. The cached totals are
// refreshed whenever an estimate element changes.
type Version struct {
	Id             uuid.UUID
	ProgramId      uuid.UUID
	VersionNumber  int
	Name           string
	Description    string
	Status         Status
	IsCurrent      bool
	EstimatedTotal decimal.Decimal
	AllocatedTotal decimal.Decimal
	ApprovedAt     *time.Time
}
