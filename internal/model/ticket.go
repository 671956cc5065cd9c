package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketStatus is the closed set of lifecycle states a ticket can occupy.
// Transitions happen only through the allocation and remittance services —
// never by writing the column directly.
type TicketStatus string

const (
	StatusUnallocated TicketStatus = "unallocated"
	StatusAllocated   TicketStatus = "allocated"
	StatusSold        TicketStatus = "sold"
	StatusLost        TicketStatus = "lost"
	StatusRemitted    TicketStatus = "remitted"
)

// Valid reports whether s is a known status value. Used when hydrating rows
// so a corrupted column fails loudly instead of flowing through comparisons.
func (s TicketStatus) Valid() bool {
	switch s {
	case StatusUnallocated, StatusAllocated, StatusSold, StatusLost, StatusRemitted:
		return true
	}
	return false
}

// Terminal reports whether the ticket has reached a sale outcome.
func (s TicketStatus) Terminal() bool {
	return s == StatusSold || s == StatusLost || s == StatusRemitted
}

// Ticket is one physical numbered ticket within a schedule's pool.
// ControlNumber is its permanent identity — unique per schedule, assigned at
// pool provisioning and never changed. Rows are never deleted individually;
// removal only happens through whole-show archival.
type Ticket struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ScheduleID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_schedule_control,priority:1;index"`
	ControlNumber int       `gorm:"not null;uniqueIndex:idx_schedule_control,priority:2"`

	Status        TicketStatus `gorm:"type:varchar(20);not null;default:'unallocated'"`
	DistributorID *uuid.UUID   `gorm:"type:uuid;index"`

	TicketPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	// SeatSection is only set for schedules with sectioned pricing.
	SeatSection *string `gorm:"type:varchar(50)"`
	// DiscountPercentage is only valid once the ticket is sold.
	DiscountPercentage *decimal.Decimal `gorm:"type:decimal(5,2)"`
	// IsPaid flips to true when the distributor's proceeds for this ticket
	// have been remitted to the office, and back to false on unremit.
	IsPaid bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Ticket) TableName() string { return "tickets" }
