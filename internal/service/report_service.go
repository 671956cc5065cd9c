package service

import (
	"context"
	"sort"

	"showtix/internal/dto"
	"showtix/internal/model"
	"showtix/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportService is the pure read side: every rollup is recomputed from a
// fresh ledger snapshot on every call so reports can never drift from the
// ledger. No derived state is cached anywhere.
type ReportService interface {
	ScheduleReport(ctx context.Context, scheduleID uuid.UUID) (*dto.ScheduleReportResponse, error)
	DistributorReport(ctx context.Context, scheduleID uuid.UUID) (*dto.DistributorReportResponse, error)
	GenreReport(ctx context.Context, genre string) (*dto.GenreReportResponse, error)
}

type reportService struct {
	schedules repository.ScheduleRepository
	tickets   repository.TicketRepository
	users     repository.UserRepository
}

func NewReportService(
	schedules repository.ScheduleRepository,
	tickets repository.TicketRepository,
	users repository.UserRepository,
) ReportService {
	return &reportService{schedules: schedules, tickets: tickets, users: users}
}

func (s *reportService) ScheduleReport(ctx context.Context, scheduleID uuid.UUID) (*dto.ScheduleReportResponse, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.tickets.Snapshot(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ScheduleReportResponse{
		ScheduleID: scheduleID.String(),
		ShowTitle:  schedule.ShowTitle,
		Genre:      schedule.Genre,
		Totals:     sumTickets(snapshot, schedule.CommissionFee),
	}

	if schedule.Sectioned {
		bySection := make(map[string][]model.Ticket)
		for _, t := range snapshot {
			if t.SeatSection == nil {
				continue
			}
			bySection[*t.SeatSection] = append(bySection[*t.SeatSection], t)
		}
		names := make([]string, 0, len(bySection))
		for name := range bySection {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			row := sumTickets(bySection[name], schedule.CommissionFee)
			row.Section = name
			resp.BySection = append(resp.BySection, row)
		}
	}
	return resp, nil
}

func (s *reportService) DistributorReport(ctx context.Context, scheduleID uuid.UUID) (*dto.DistributorReportResponse, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.tickets.Snapshot(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	byDistributor := make(map[uuid.UUID][]model.Ticket)
	for _, t := range snapshot {
		if t.DistributorID == nil {
			continue
		}
		byDistributor[*t.DistributorID] = append(byDistributor[*t.DistributorID], t)
	}

	names := make(map[uuid.UUID]string)
	if distributors, err := s.users.ListByRole(ctx, model.RoleDistributor); err == nil {
		for _, d := range distributors {
			names[d.ID] = d.FullName
		}
	}

	ids := make([]uuid.UUID, 0, len(byDistributor))
	for id := range byDistributor {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	resp := &dto.DistributorReportResponse{ScheduleID: scheduleID.String()}
	for _, id := range ids {
		totals := sumTickets(byDistributor[id], schedule.CommissionFee)
		resp.Distributors = append(resp.Distributors, dto.DistributorReportRow{
			DistributorID:   id.String(),
			DistributorName: names[id],
			Allocated:       totals.Allocated + totals.Sold + totals.Lost,
			Sold:            totals.Sold,
			Lost:            totals.Lost,
			CommissionOwed:  totals.TotalCommission,
			NetRemitted:     totals.NetRemitted,
			Outstanding:     totals.Allocated,
		})
	}
	return resp, nil
}

func (s *reportService) GenreReport(ctx context.Context, genre string) (*dto.GenreReportResponse, error) {
	schedules, err := s.schedules.ListByGenre(ctx, genre)
	if err != nil {
		return nil, err
	}

	resp := &dto.GenreReportResponse{Genre: genre, Schedules: len(schedules)}
	resp.Totals = zeroTotals()
	for i := range schedules {
		snapshot, err := s.tickets.Snapshot(ctx, schedules[i].ID)
		if err != nil {
			return nil, err
		}
		addTotals(&resp.Totals, sumTickets(snapshot, schedules[i].CommissionFee))
	}
	return resp, nil
}

// sumTickets folds one set of ledger rows into a totals row. Lost tickets
// are billed gross and charge commission like sold ones, but carry no
// discount — that asymmetry is deliberate.
func sumTickets(tickets []model.Ticket, fee decimal.Decimal) dto.SectionTotals {
	out := zeroTotals()
	out.TotalTickets = len(tickets)

	for _, t := range tickets {
		switch t.Status {
		case model.StatusUnallocated:
			out.Unallocated++
			continue
		case model.StatusAllocated:
			out.Allocated++
			continue
		case model.StatusSold, model.StatusRemitted:
			out.Sold++
		case model.StatusLost:
			out.Lost++
		default:
			continue
		}

		// Sold or lost from here on.
		out.GrossSales = out.GrossSales.Add(t.TicketPrice)
		out.TotalCommission = out.TotalCommission.Add(fee)

		discount := decimal.Zero
		if t.DiscountPercentage != nil {
			discount = t.TicketPrice.Mul(*t.DiscountPercentage).Div(decimal.NewFromInt(100))
			out.TotalDiscount = out.TotalDiscount.Add(discount)
		}
		if t.IsPaid {
			out.NetRemitted = out.NetRemitted.Add(t.TicketPrice.Sub(fee).Sub(discount))
		}
	}
	return out
}

func zeroTotals() dto.SectionTotals {
	return dto.SectionTotals{
		GrossSales:      decimal.Zero,
		TotalDiscount:   decimal.Zero,
		TotalCommission: decimal.Zero,
		NetRemitted:     decimal.Zero,
	}
}

func addTotals(dst *dto.SectionTotals, src dto.SectionTotals) {
	dst.TotalTickets += src.TotalTickets
	dst.Unallocated += src.Unallocated
	dst.Allocated += src.Allocated
	dst.Sold += src.Sold
	dst.Lost += src.Lost
	dst.GrossSales = dst.GrossSales.Add(src.GrossSales)
	dst.TotalDiscount = dst.TotalDiscount.Add(src.TotalDiscount)
	dst.TotalCommission = dst.TotalCommission.Add(src.TotalCommission)
	dst.NetRemitted = dst.NetRemitted.Add(src.NetRemitted)
}
