package event_bus

import "github.com/google/uuid"

const (
	// ElementChangedEvent fires after a WBS estimate element is created,
	// updated, or deleted. Subscribers recompute version-level totals.
	ElementChangedEvent EventType = "wbs.element.changed"

	// AllocationPushedEvent fires after an allocation's monthly schedule has
	// been written to the ledger and the allocation locked.
	AllocationPushedEvent EventType = "ledger.allocation.pushed"
)

type ElementChanged struct {
	ElementId uuid.UUID
	VersionId uuid.UUID
}

type AllocationPushed struct {
	AllocationId   uuid.UUID
	VersionId      uuid.UUID
	EntriesCreated int
}
