package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Schedule is one performance date of a show, owning its own ticket pool and
// pricing. Genre is denormalized onto the schedule so report rollups don't
// need a show join.
type Schedule struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShowTitle string    `gorm:"not null;index"`
	Genre     string    `gorm:"type:varchar(50);not null;index"`
	ShowDate  time.Time `gorm:"not null"`

	// CommissionFee is the flat per-ticket amount the distributor keeps on
	// every sold or lost ticket.
	CommissionFee decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	// Sectioned schedules price per seat section; flat schedules use
	// TicketPrice for every ticket.
	Sectioned   bool            `gorm:"not null;default:false"`
	TicketPrice decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Sections []SeatSection `gorm:"foreignKey:ScheduleID"`
}

func (Schedule) TableName() string { return "schedules" }

// SeatSection is a named seating area with its own price, used only by
// schedules with controlled seating.
type SeatSection struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ScheduleID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_schedule_section,priority:1"`
	Name       string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_schedule_section,priority:2"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt  time.Time
}

func (SeatSection) TableName() string { return "seat_sections" }
