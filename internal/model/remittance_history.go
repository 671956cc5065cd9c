package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Remittance history action types.
const (
	ActionRemit   = "remit"
	ActionUnremit = "unremit"
)

// RemittanceHistoryEntry records one remit/unremit batch with the totals
// computed at the time of the operation. Append-only: an unremit appends a
// compensating entry, the original remit entry is never touched.
type RemittanceHistoryEntry struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ScheduleID    uuid.UUID `gorm:"type:uuid;not null;index"`
	DistributorID uuid.UUID `gorm:"type:uuid;not null;index"`
	ActionType    string    `gorm:"type:varchar(20);not null"` // remit | unremit

	TotalRemittance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalCommission decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	ReceivedBy string    `gorm:"not null"`
	Remarks    *string
	CreatedAt  time.Time `gorm:"index"`

	Tickets []RemittanceTicket `gorm:"foreignKey:EntryID"`
}

func (RemittanceHistoryEntry) TableName() string { return "remittance_history" }

// RemittanceTicket is the per-ticket detail row of a remittance entry,
// frozen at remit time so later price corrections don't rewrite the audit
// trail.
type RemittanceTicket struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntryID       uuid.UUID `gorm:"type:uuid;not null;index"`
	ControlNumber int       `gorm:"not null"`

	TicketPrice        decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	SeatSection        *string          `gorm:"type:varchar(50)"`
	DiscountPercentage *decimal.Decimal `gorm:"type:decimal(5,2)"`
	Status             TicketStatus     `gorm:"type:varchar(20);not null"` // sold | lost
	// NetAmount is the per-ticket net-to-remit captured at entry time.
	// The replay unremit policy reads clawback amounts from here.
	NetAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (RemittanceTicket) TableName() string { return "remittance_tickets" }
