package service

import (
	"context"
	"errors"
	"fmt"

	"showtix/internal/dto"
	"showtix/internal/model"
	"showtix/internal/notify"
	"showtix/internal/rangecodec"
	"showtix/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduleService provisions schedules with their ticket pools. The pool is
// created in bulk with every ticket unallocated; control numbers are
// assigned once and never reused. Individual tickets are never deleted —
// removal only happens through whole-show archival, which is not part of
// this service.
type ScheduleService interface {
	ProvisionPool(ctx context.Context, req dto.ProvisionPoolRequest) (*dto.ScheduleResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ScheduleResponse, error)
	List(ctx context.Context) ([]dto.ScheduleResponse, error)
}

type scheduleService struct {
	schedules repository.ScheduleRepository
	tickets   repository.TicketRepository
	notifier  *notify.Publisher
}

func NewScheduleService(
	schedules repository.ScheduleRepository,
	tickets repository.TicketRepository,
	notifier *notify.Publisher,
) ScheduleService {
	return &scheduleService{schedules: schedules, tickets: tickets, notifier: notifier}
}

func (s *scheduleService) ProvisionPool(ctx context.Context, req dto.ProvisionPoolRequest) (*dto.ScheduleResponse, error) {
	sectioned := len(req.Sections) > 0
	if !sectioned && req.TicketCount < 1 {
		return nil, errors.New("either sections or a ticket_count is required")
	}
	if sectioned && req.TicketCount > 0 {
		return nil, errors.New("sections and ticket_count are mutually exclusive")
	}
	if req.CommissionFee.IsNegative() {
		return nil, errors.New("commission_fee cannot be negative")
	}

	start := req.StartNumber
	if start <= 0 {
		start = 1
	}

	schedule := model.Schedule{
		ShowTitle:     req.ShowTitle,
		Genre:         req.Genre,
		ShowDate:      req.ShowDate,
		CommissionFee: req.CommissionFee,
		Sectioned:     sectioned,
		TicketPrice:   req.TicketPrice,
	}
	for _, sec := range req.Sections {
		schedule.Sections = append(schedule.Sections, model.SeatSection{
			Name:  sec.Name,
			Price: sec.Price,
		})
	}

	var tickets []model.Ticket
	txErr := runTx(ctx, s.tickets.DB(), func(tx *gorm.DB) error {
		if err := s.schedules.CreateTx(tx, &schedule); err != nil {
			return fmt.Errorf("create schedule: %w", err)
		}

		next := start
		if sectioned {
			// Each section receives a contiguous control-number block in
			// declaration order.
			for i, sec := range req.Sections {
				name := schedule.Sections[i].Name
				for j := 0; j < sec.TicketCount; j++ {
					tickets = append(tickets, model.Ticket{
						ScheduleID:    schedule.ID,
						ControlNumber: next,
						Status:        model.StatusUnallocated,
						TicketPrice:   sec.Price,
						SeatSection:   &name,
					})
					next++
				}
			}
		} else {
			for j := 0; j < req.TicketCount; j++ {
				tickets = append(tickets, model.Ticket{
					ScheduleID:    schedule.ID,
					ControlNumber: next,
					Status:        model.StatusUnallocated,
					TicketPrice:   req.TicketPrice,
				})
				next++
			}
		}
		return s.tickets.CreateBatchTx(tx, tickets)
	})
	if txErr != nil {
		return nil, txErr
	}

	numbers := make([]int, len(tickets))
	for i, t := range tickets {
		numbers[i] = t.ControlNumber
	}
	compressed := rangecodec.Compress(numbers)

	s.notifier.TicketStateChanged(notify.TicketStateEvent{
		ScheduleID:     schedule.ID,
		Action:         "provision",
		ControlNumbers: compressed,
	})

	resp := scheduleToResponse(&schedule)
	resp.TicketCount = len(tickets)
	resp.ControlNumbers = compressed
	return resp, nil
}

func (s *scheduleService) Get(ctx context.Context, id uuid.UUID) (*dto.ScheduleResponse, error) {
	schedule, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := scheduleToResponse(schedule)

	snapshot, err := s.tickets.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	numbers := make([]int, len(snapshot))
	for i, t := range snapshot {
		numbers[i] = t.ControlNumber
	}
	resp.TicketCount = len(snapshot)
	resp.ControlNumbers = rangecodec.Compress(numbers)
	return resp, nil
}

func (s *scheduleService) List(ctx context.Context) ([]dto.ScheduleResponse, error) {
	schedules, err := s.schedules.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		resp := scheduleToResponse(&schedules[i])
		// Pool size via count, not a full snapshot per schedule.
		n, err := s.tickets.CountBySchedule(ctx, schedules[i].ID)
		if err != nil {
			return nil, err
		}
		resp.TicketCount = int(n)
		out = append(out, *resp)
	}
	return out, nil
}

func scheduleToResponse(m *model.Schedule) *dto.ScheduleResponse {
	resp := &dto.ScheduleResponse{
		ID:            m.ID.String(),
		ShowTitle:     m.ShowTitle,
		Genre:         m.Genre,
		ShowDate:      m.ShowDate,
		CommissionFee: m.CommissionFee,
		Sectioned:     m.Sectioned,
		TicketPrice:   m.TicketPrice,
	}
	for _, sec := range m.Sections {
		resp.Sections = append(resp.Sections, dto.SectionResponse{Name: sec.Name, Price: sec.Price})
	}
	return resp
}
