package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type SectionInput struct {
	Name  string          `json:"name" validate:"required,min=1,max=50"`
	Price decimal.Decimal `json:"price" validate:"required"`
	// TicketCount is how many control numbers this section receives.
	TicketCount int `json:"ticket_count" validate:"required,min=1"`
}

// ProvisionPoolRequest creates a schedule together with its ticket pool.
// Flat pricing: TicketPrice + TicketCount. Sectioned pricing: Sections, each
// receiving a contiguous control-number block starting after the previous
// section's.
type ProvisionPoolRequest struct {
	ShowTitle     string          `json:"show_title" validate:"required,min=1,max=200"`
	Genre         string          `json:"genre" validate:"required,min=1,max=50"`
	ShowDate      time.Time       `json:"show_date" validate:"required"`
	CommissionFee decimal.Decimal `json:"commission_fee" validate:"required"`

	TicketPrice decimal.Decimal `json:"ticket_price"`
	TicketCount int             `json:"ticket_count" validate:"omitempty,min=1,max=100000"`
	// StartNumber is the first control number of the pool (default 1).
	StartNumber int `json:"start_number" validate:"omitempty,min=0"`

	Sections []SectionInput `json:"sections" validate:"omitempty,dive"`
}

type SectionResponse struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type ScheduleResponse struct {
	ID            string            `json:"id"`
	ShowTitle     string            `json:"show_title"`
	Genre         string            `json:"genre"`
	ShowDate      time.Time         `json:"show_date"`
	CommissionFee decimal.Decimal   `json:"commission_fee"`
	Sectioned     bool              `json:"sectioned"`
	TicketPrice   decimal.Decimal   `json:"ticket_price"`
	Sections      []SectionResponse `json:"sections,omitempty"`
	TicketCount   int               `json:"ticket_count"`
	// ControlNumbers is the provisioned pool in range notation.
	ControlNumbers string `json:"control_numbers"`
}
