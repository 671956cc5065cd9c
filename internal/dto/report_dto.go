package dto

import "github.com/shopspring/decimal"

// SectionTotals is one rollup row — either a named seat section or the
// whole schedule when the Section field is empty.
type SectionTotals struct {
	Section string `json:"section,omitempty"`

	TotalTickets int `json:"total_tickets"`
	Unallocated  int `json:"unallocated"`
	Allocated    int `json:"allocated"`
	Sold         int `json:"sold"`
	Lost         int `json:"lost"`

	// GrossSales is ticket price summed over sold and lost tickets (lost
	// tickets are billed to the distributor).
	GrossSales      decimal.Decimal `json:"gross_sales"`
	TotalDiscount   decimal.Decimal `json:"total_discount"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	// NetRemitted only counts tickets whose proceeds have actually been
	// handed over (is_paid).
	NetRemitted decimal.Decimal `json:"net_remitted"`
}

type ScheduleReportResponse struct {
	ScheduleID string          `json:"schedule_id"`
	ShowTitle  string          `json:"show_title"`
	Genre      string          `json:"genre"`
	Totals     SectionTotals   `json:"totals"`
	BySection  []SectionTotals `json:"by_section,omitempty"`
}

type DistributorReportRow struct {
	DistributorID   string          `json:"distributor_id"`
	DistributorName string          `json:"distributor_name,omitempty"`
	Allocated       int             `json:"allocated"`
	Sold            int             `json:"sold"`
	Lost            int             `json:"lost"`
	CommissionOwed  decimal.Decimal `json:"commission_owed"`
	NetRemitted     decimal.Decimal `json:"net_remitted"`
	// Outstanding counts tickets still allocated but not yet accounted for.
	Outstanding int `json:"outstanding"`
}

type DistributorReportResponse struct {
	ScheduleID   string                 `json:"schedule_id"`
	Distributors []DistributorReportRow `json:"distributors"`
}

type GenreReportResponse struct {
	Genre     string        `json:"genre"`
	Schedules int           `json:"schedules"`
	Totals    SectionTotals `json:"totals"`
}
