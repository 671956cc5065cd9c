package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AllocationRequest covers both allocate and unallocate. Control numbers may
// arrive as an explicit array or as range text ("1-5,7") — handlers parse
// the text through the range codec before it reaches the service.
type AllocationRequest struct {
	ScheduleID     string `json:"schedule_id" validate:"required,uuid4"`
	DistributorID  string `json:"distributor_id" validate:"required,uuid4"`
	ControlNumbers []int  `json:"control_numbers"`
	Range          string `json:"range"`
}

type DiscountInput struct {
	ControlNumber int             `json:"control_number" validate:"min=0"`
	Percentage    decimal.Decimal `json:"percentage" validate:"min=0,max=100"`
}

type RemitRequest struct {
	ScheduleID    string `json:"schedule_id" validate:"required,uuid4"`
	DistributorID string `json:"distributor_id" validate:"required,uuid4"`

	SoldControlNumbers []int  `json:"sold_control_numbers"`
	SoldRange          string `json:"sold_range"`
	LostControlNumbers []int  `json:"lost_control_numbers"`
	LostRange          string `json:"lost_range"`

	Discounted []DiscountInput `json:"discounted" validate:"omitempty,dive"`
	ReceivedBy string          `json:"received_by" validate:"required,min=2"`
	Remarks    *string         `json:"remarks"`
}

type UnremitRequest struct {
	ScheduleID     string  `json:"schedule_id" validate:"required,uuid4"`
	DistributorID  string  `json:"distributor_id" validate:"required,uuid4"`
	ControlNumbers []int   `json:"control_numbers"`
	Range          string  `json:"range"`
	Remarks        *string `json:"remarks"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TicketResponse struct {
	ControlNumber      int              `json:"control_number"`
	Status             string           `json:"status"`
	DistributorID      *string          `json:"distributor_id"`
	TicketPrice        decimal.Decimal  `json:"ticket_price"`
	SeatSection        *string          `json:"seat_section"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	IsPaid             bool             `json:"is_paid"`
}

type SnapshotResponse struct {
	ScheduleID string           `json:"schedule_id"`
	Tickets    []TicketResponse `json:"tickets"`
	Total      int              `json:"total"`
}

type AllocationHistoryResponse struct {
	ID             string    `json:"id"`
	ScheduleID     string    `json:"schedule_id"`
	DistributorID  string    `json:"distributor_id"`
	ActionType     string    `json:"action_type"`
	ControlNumbers string    `json:"control_numbers"`
	TicketCount    int       `json:"ticket_count"`
	ActionBy       string    `json:"action_by"`
	CreatedAt      time.Time `json:"created_at"`
}

type RemittanceTicketResponse struct {
	ControlNumber      int              `json:"control_number"`
	TicketPrice        decimal.Decimal  `json:"ticket_price"`
	SeatSection        *string          `json:"seat_section"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	Status             string           `json:"status"`
	NetAmount          decimal.Decimal  `json:"net_amount"`
}

type RemittanceHistoryResponse struct {
	ID              string                     `json:"id"`
	ScheduleID      string                     `json:"schedule_id"`
	DistributorID   string                     `json:"distributor_id"`
	ActionType      string                     `json:"action_type"`
	ControlNumbers  string                     `json:"control_numbers"`
	Tickets         []RemittanceTicketResponse `json:"tickets"`
	TotalRemittance decimal.Decimal            `json:"total_remittance"`
	TotalCommission decimal.Decimal            `json:"total_commission"`
	ReceivedBy      string                     `json:"received_by"`
	Remarks         *string                    `json:"remarks"`
	CreatedAt       time.Time                  `json:"created_at"`
}

type AllocationHistoryListResponse struct {
	Entries []AllocationHistoryResponse `json:"entries"`
	Total   int64                       `json:"total"`
}

type RemittanceHistoryListResponse struct {
	Entries []RemittanceHistoryResponse `json:"entries"`
	Total   int64                       `json:"total"`
}
