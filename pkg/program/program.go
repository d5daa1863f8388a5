package program

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusOnHold   Status = "on_hold"
	StatusClosed   Status = "closed"
	StatusArchived Status = "archived"
)

// Program is the top-level container: each program owns its BOE versions and
// its ledger.
type Program struct {
	Id          uuid.UUID
	Code        string
	Name        string
	Description string
	Status      Status
	Manager     string
	TotalBudget decimal.Decimal
}
