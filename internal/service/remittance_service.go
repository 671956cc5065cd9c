package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"showtix/internal/config"
	"showtix/internal/dto"
	"showtix/internal/ledger"
	"showtix/internal/model"
	"showtix/internal/notify"
	"showtix/internal/rangecodec"
	"showtix/internal/repository"
	"showtix/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RemittanceService settles allocated tickets: a distributor reports which
// tickets were sold or lost and hands over the proceeds minus commission.
// Lost tickets are billed at full price and still charge commission, but are
// never discounted. Unremit is a compensating reversal of the payment flag —
// the sale itself stays on the books.
type RemittanceService interface {
	Remit(ctx context.Context, req dto.RemitRequest) (*dto.RemittanceHistoryResponse, error)
	Unremit(ctx context.Context, actionBy uuid.UUID, req dto.UnremitRequest) (*dto.RemittanceHistoryResponse, error)
	History(ctx context.Context, filter repository.HistoryFilter) (*dto.RemittanceHistoryListResponse, error)
}

type remittanceService struct {
	tickets    repository.TicketRepository
	history    repository.RemittanceHistoryRepository
	schedules  repository.ScheduleRepository
	notifier   *notify.Publisher
	dispatcher *worker.Dispatcher
	// unremitPolicy decides where clawback amounts come from:
	// config.UnremitRecompute (current prices) or config.UnremitReplay
	// (the stored remit entry).
	unremitPolicy string
}

func NewRemittanceService(
	tickets repository.TicketRepository,
	history repository.RemittanceHistoryRepository,
	schedules repository.ScheduleRepository,
	notifier *notify.Publisher,
	dispatcher *worker.Dispatcher,
	unremitPolicy string,
) RemittanceService {
	if unremitPolicy != config.UnremitReplay {
		unremitPolicy = config.UnremitRecompute
	}
	return &remittanceService{
		tickets:       tickets,
		history:       history,
		schedules:     schedules,
		notifier:      notifier,
		dispatcher:    dispatcher,
		unremitPolicy: unremitPolicy,
	}
}

func (s *remittanceService) Remit(ctx context.Context, req dto.RemitRequest) (*dto.RemittanceHistoryResponse, error) {
	scheduleID, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		return nil, errors.New("invalid schedule_id")
	}
	distributorID, err := uuid.Parse(req.DistributorID)
	if err != nil {
		return nil, errors.New("invalid distributor_id")
	}

	sold, lost, err := resolveRemitSets(req)
	if err != nil {
		return nil, err
	}

	discounts := make(map[int]decimal.Decimal, len(req.Discounted))
	soldSet := make(map[int]struct{}, len(sold))
	for _, n := range sold {
		soldSet[n] = struct{}{}
	}
	var badDiscounts []int
	for _, d := range req.Discounted {
		if _, ok := soldSet[d.ControlNumber]; !ok {
			badDiscounts = append(badDiscounts, d.ControlNumber)
			continue
		}
		discounts[d.ControlNumber] = d.Percentage
	}
	if len(badDiscounts) > 0 {
		sort.Ints(badDiscounts)
		return nil, &ledger.InvalidDiscountError{ControlNumbers: badDiscounts}
	}

	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("schedule %s not found", req.ScheduleID)
	}
	fee := schedule.CommissionFee

	union := append(append([]int{}, sold...), lost...)

	var entry model.RemittanceHistoryEntry
	txErr := runTx(ctx, s.tickets.DB(), func(tx *gorm.DB) error {
		// Sold and lost settle in a single pass over the union: row locks
		// are taken in control-number order across both sets, and offenders
		// from either set land in one ConflictError.
		settled, err := s.tickets.TransitionTx(tx, scheduleID, union, repository.TransitionOptions{
			From:        []model.TicketStatus{model.StatusAllocated},
			Distributor: &distributorID,
			Mutate: func(t *model.Ticket) {
				t.IsPaid = true
				if _, isSold := soldSet[t.ControlNumber]; isSold {
					t.Status = model.StatusSold
					if pct, ok := discounts[t.ControlNumber]; ok {
						p := pct
						t.DiscountPercentage = &p
					}
				} else {
					t.Status = model.StatusLost
				}
			},
		})
		if err != nil {
			return err
		}

		totalRemittance := decimal.Zero
		details := make([]model.RemittanceTicket, 0, len(settled))
		for _, t := range settled {
			net := netToRemit(t.TicketPrice, fee, t.DiscountPercentage)
			totalRemittance = totalRemittance.Add(net)
			details = append(details, model.RemittanceTicket{
				ControlNumber:      t.ControlNumber,
				TicketPrice:        t.TicketPrice,
				SeatSection:        t.SeatSection,
				DiscountPercentage: t.DiscountPercentage,
				Status:             t.Status,
				NetAmount:          net,
			})
		}

		entry = model.RemittanceHistoryEntry{
			ScheduleID:      scheduleID,
			DistributorID:   distributorID,
			ActionType:      model.ActionRemit,
			TotalRemittance: totalRemittance,
			TotalCommission: fee.Mul(decimal.NewFromInt(int64(len(settled)))),
			ReceivedBy:      req.ReceivedBy,
			Remarks:         req.Remarks,
			Tickets:         details,
		}
		return s.history.CreateTx(tx, &entry)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.notifier.TicketStateChanged(notify.TicketStateEvent{
		ScheduleID:     scheduleID,
		DistributorID:  &distributorID,
		Action:         model.ActionRemit,
		ControlNumbers: rangecodec.Compress(union),
	})

	// Receipt delivery is best-effort and must never fail the remittance.
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueReceipt(ctx, worker.ReceiptJobPayload{
			EntryID:       entry.ID.String(),
			DistributorID: distributorID.String(),
		})
	}

	return remittanceEntryToResponse(&entry), nil
}

func (s *remittanceService) Unremit(ctx context.Context, actionBy uuid.UUID, req dto.UnremitRequest) (*dto.RemittanceHistoryResponse, error) {
	scheduleID, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		return nil, errors.New("invalid schedule_id")
	}
	distributorID, err := uuid.Parse(req.DistributorID)
	if err != nil {
		return nil, errors.New("invalid distributor_id")
	}
	numbers, err := resolveNumbers(req.ControlNumbers, req.Range)
	if err != nil {
		return nil, err
	}

	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("schedule %s not found", req.ScheduleID)
	}
	fee := schedule.CommissionFee

	paid := true
	var entry model.RemittanceHistoryEntry
	txErr := runTx(ctx, s.tickets.DB(), func(tx *gorm.DB) error {
		rows, err := s.tickets.TransitionTx(tx, scheduleID, numbers, repository.TransitionOptions{
			// Status is unchanged — sold stays sold, lost stays lost.
			// Only the paid flag and its audit trail are reverted.
			From:        []model.TicketStatus{model.StatusSold, model.StatusLost},
			Distributor: &distributorID,
			RequirePaid: &paid,
			Mutate: func(t *model.Ticket) {
				t.IsPaid = false
			},
		})
		if err != nil {
			return err
		}

		details, totalRemittance, totalCommission, err := s.clawbackAmounts(ctx, scheduleID, fee, rows)
		if err != nil {
			return err
		}

		entry = model.RemittanceHistoryEntry{
			ScheduleID:      scheduleID,
			DistributorID:   distributorID,
			ActionType:      model.ActionUnremit,
			TotalRemittance: totalRemittance,
			TotalCommission: totalCommission,
			ReceivedBy:      actionBy.String(),
			Remarks:         req.Remarks,
			Tickets:         details,
		}
		return s.history.CreateTx(tx, &entry)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.notifier.TicketStateChanged(notify.TicketStateEvent{
		ScheduleID:     scheduleID,
		DistributorID:  &distributorID,
		Action:         model.ActionUnremit,
		ControlNumbers: rangecodec.Compress(numbers),
	})
	return remittanceEntryToResponse(&entry), nil
}

// clawbackAmounts computes how much an unremit claws back. Under the
// recompute policy amounts come from the tickets' current prices and
// discounts, tolerating intervening price corrections; under replay they are
// copied from the most recent covering remit entry so the clawback always
// matches what was actually collected.
func (s *remittanceService) clawbackAmounts(ctx context.Context, scheduleID uuid.UUID, fee decimal.Decimal, rows []model.Ticket) ([]model.RemittanceTicket, decimal.Decimal, decimal.Decimal, error) {
	details := make([]model.RemittanceTicket, 0, len(rows))
	totalRemittance := decimal.Zero
	totalCommission := decimal.Zero

	for _, t := range rows {
		detail := model.RemittanceTicket{
			ControlNumber:      t.ControlNumber,
			TicketPrice:        t.TicketPrice,
			SeatSection:        t.SeatSection,
			DiscountPercentage: t.DiscountPercentage,
			Status:             t.Status,
		}

		switch s.unremitPolicy {
		case config.UnremitReplay:
			orig, err := s.history.LatestRemitForTicket(ctx, scheduleID, t.ControlNumber)
			if err != nil {
				return nil, decimal.Zero, decimal.Zero, fmt.Errorf("no remit entry found for control number %d: %w", t.ControlNumber, err)
			}
			detail.TicketPrice = orig.TicketPrice
			detail.DiscountPercentage = orig.DiscountPercentage
			detail.NetAmount = orig.NetAmount
			// price − discount − net leaves the commission charged at
			// remit time, whatever the fee is today.
			totalCommission = totalCommission.Add(
				orig.TicketPrice.Sub(discountAmount(orig.TicketPrice, orig.DiscountPercentage)).Sub(orig.NetAmount))
		default: // config.UnremitRecompute
			detail.NetAmount = netToRemit(t.TicketPrice, fee, t.DiscountPercentage)
			totalCommission = totalCommission.Add(fee)
		}

		totalRemittance = totalRemittance.Add(detail.NetAmount)
		details = append(details, detail)
	}
	return details, totalRemittance, totalCommission, nil
}

func (s *remittanceService) History(ctx context.Context, filter repository.HistoryFilter) (*dto.RemittanceHistoryListResponse, error) {
	entries, total, err := s.history.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.RemittanceHistoryListResponse{Total: total, Entries: make([]dto.RemittanceHistoryResponse, 0, len(entries))}
	for i := range entries {
		resp.Entries = append(resp.Entries, *remittanceEntryToResponse(&entries[i]))
	}
	return resp, nil
}

// netToRemit is the per-ticket amount the distributor hands over:
// price − commission − discount.
func netToRemit(price, fee decimal.Decimal, pct *decimal.Decimal) decimal.Decimal {
	return price.Sub(fee).Sub(discountAmount(price, pct))
}

func discountAmount(price decimal.Decimal, pct *decimal.Decimal) decimal.Decimal {
	if pct == nil {
		return decimal.Zero
	}
	return price.Mul(*pct).Div(decimal.NewFromInt(100))
}

// resolveRemitSets expands both forms of the sold and lost sets and rejects
// empty unions and overlaps before anything touches the ledger.
func resolveRemitSets(req dto.RemitRequest) (sold, lost []int, err error) {
	sold, err = resolveOptionalNumbers(req.SoldControlNumbers, req.SoldRange)
	if err != nil {
		return nil, nil, err
	}
	lost, err = resolveOptionalNumbers(req.LostControlNumbers, req.LostRange)
	if err != nil {
		return nil, nil, err
	}
	if len(sold)+len(lost) == 0 {
		return nil, nil, &ledger.EmptyBatchError{}
	}

	soldSet := make(map[int]struct{}, len(sold))
	for _, n := range sold {
		soldSet[n] = struct{}{}
	}
	var overlap []int
	for _, n := range lost {
		if _, ok := soldSet[n]; ok {
			overlap = append(overlap, n)
		}
	}
	if len(overlap) > 0 {
		sort.Ints(overlap)
		return nil, nil, &ledger.OverlapError{ControlNumbers: overlap}
	}
	return sold, lost, nil
}

// resolveOptionalNumbers is resolveNumbers without the empty-batch check —
// a remit may have only sold or only lost tickets.
func resolveOptionalNumbers(explicit []int, rangeText string) ([]int, error) {
	if len(explicit) == 0 && rangeText == "" {
		return nil, nil
	}
	return resolveNumbers(explicit, rangeText)
}

func remittanceEntryToResponse(e *model.RemittanceHistoryEntry) *dto.RemittanceHistoryResponse {
	numbers := make([]int, 0, len(e.Tickets))
	tickets := make([]dto.RemittanceTicketResponse, 0, len(e.Tickets))
	for _, t := range e.Tickets {
		numbers = append(numbers, t.ControlNumber)
		tickets = append(tickets, dto.RemittanceTicketResponse{
			ControlNumber:      t.ControlNumber,
			TicketPrice:        t.TicketPrice,
			SeatSection:        t.SeatSection,
			DiscountPercentage: t.DiscountPercentage,
			Status:             string(t.Status),
			NetAmount:          t.NetAmount,
		})
	}
	return &dto.RemittanceHistoryResponse{
		ID:              e.ID.String(),
		ScheduleID:      e.ScheduleID.String(),
		DistributorID:   e.DistributorID.String(),
		ActionType:      e.ActionType,
		ControlNumbers:  rangecodec.Compress(numbers),
		Tickets:         tickets,
		TotalRemittance: e.TotalRemittance,
		TotalCommission: e.TotalCommission,
		ReceivedBy:      e.ReceivedBy,
		Remarks:         e.Remarks,
		CreatedAt:       e.CreatedAt,
	}
}
