package model

import (
	"time"

	"github.com/google/uuid"
)

// Allocation history action types.
const (
	ActionAllocate   = "allocate"
	ActionUnallocate = "unallocate"
)

// AllocationHistoryEntry records one allocate/unallocate batch. Entries are
// append-only — a reversal creates a new entry of the opposite action type,
// it never edits or deletes the original.
type AllocationHistoryEntry struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ScheduleID    uuid.UUID `gorm:"type:uuid;not null;index"`
	DistributorID uuid.UUID `gorm:"type:uuid;not null;index"`
	ActionType    string    `gorm:"type:varchar(20);not null"` // allocate | unallocate
	// ControlNumbers holds the batch in canonical range notation ("1-5,7").
	ControlNumbers string    `gorm:"not null"`
	TicketCount    int       `gorm:"not null"`
	ActionBy       uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt      time.Time `gorm:"index"`
}

func (AllocationHistoryEntry) TableName() string { return "allocation_history" }
