package service

import (
	"context"
	"errors"

	"showtix/internal/dto"
	"showtix/internal/ledger"
	"showtix/internal/model"
	"showtix/internal/notify"
	"showtix/internal/rangecodec"
	"showtix/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AllocationService moves tickets between the unallocated pool and a
// distributor's hands. Only two edges exist here: unallocated→allocated and
// allocated→unallocated. A sold or lost ticket cannot be unallocated — it
// has to go back through a remittance reversal first.
type AllocationService interface {
	Allocate(ctx context.Context, actionBy uuid.UUID, req dto.AllocationRequest) (*dto.AllocationHistoryResponse, error)
	Unallocate(ctx context.Context, actionBy uuid.UUID, req dto.AllocationRequest) (*dto.AllocationHistoryResponse, error)
	History(ctx context.Context, filter repository.HistoryFilter) (*dto.AllocationHistoryListResponse, error)
}

type allocationService struct {
	tickets  repository.TicketRepository
	history  repository.AllocationHistoryRepository
	notifier *notify.Publisher
}

func NewAllocationService(
	tickets repository.TicketRepository,
	history repository.AllocationHistoryRepository,
	notifier *notify.Publisher,
) AllocationService {
	return &allocationService{tickets: tickets, history: history, notifier: notifier}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func (s *allocationService) Allocate(ctx context.Context, actionBy uuid.UUID, req dto.AllocationRequest) (*dto.AllocationHistoryResponse, error) {
	scheduleID, distributorID, numbers, err := resolveAllocation(req)
	if err != nil {
		return nil, err
	}

	var entry model.AllocationHistoryEntry
	txErr := runTx(ctx, s.tickets.DB(), func(tx *gorm.DB) error {
		_, err := s.tickets.TransitionTx(tx, scheduleID, numbers, repository.TransitionOptions{
			From: []model.TicketStatus{model.StatusUnallocated},
			To:   model.StatusAllocated,
			Mutate: func(t *model.Ticket) {
				t.DistributorID = &distributorID
			},
		})
		if err != nil {
			return err
		}

		entry = model.AllocationHistoryEntry{
			ScheduleID:     scheduleID,
			DistributorID:  distributorID,
			ActionType:     model.ActionAllocate,
			ControlNumbers: rangecodec.Compress(numbers),
			TicketCount:    len(numbers),
			ActionBy:       actionBy,
		}
		return s.history.CreateTx(tx, &entry)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.notifier.TicketStateChanged(notify.TicketStateEvent{
		ScheduleID:     scheduleID,
		DistributorID:  &distributorID,
		Action:         model.ActionAllocate,
		ControlNumbers: entry.ControlNumbers,
	})
	return allocationEntryToResponse(&entry), nil
}

func (s *allocationService) Unallocate(ctx context.Context, actionBy uuid.UUID, req dto.AllocationRequest) (*dto.AllocationHistoryResponse, error) {
	scheduleID, distributorID, numbers, err := resolveAllocation(req)
	if err != nil {
		return nil, err
	}

	var entry model.AllocationHistoryEntry
	txErr := runTx(ctx, s.tickets.DB(), func(tx *gorm.DB) error {
		_, err := s.tickets.TransitionTx(tx, scheduleID, numbers, repository.TransitionOptions{
			From:        []model.TicketStatus{model.StatusAllocated},
			To:          model.StatusUnallocated,
			Distributor: &distributorID,
			Mutate: func(t *model.Ticket) {
				t.DistributorID = nil
			},
		})
		if err != nil {
			return asUnallocateError(err)
		}

		entry = model.AllocationHistoryEntry{
			ScheduleID:     scheduleID,
			DistributorID:  distributorID,
			ActionType:     model.ActionUnallocate,
			ControlNumbers: rangecodec.Compress(numbers),
			TicketCount:    len(numbers),
			ActionBy:       actionBy,
		}
		return s.history.CreateTx(tx, &entry)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.notifier.TicketStateChanged(notify.TicketStateEvent{
		ScheduleID:     scheduleID,
		DistributorID:  &distributorID,
		Action:         model.ActionUnallocate,
		ControlNumbers: entry.ControlNumbers,
	})
	return allocationEntryToResponse(&entry), nil
}

func (s *allocationService) History(ctx context.Context, filter repository.HistoryFilter) (*dto.AllocationHistoryListResponse, error) {
	entries, total, err := s.history.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.AllocationHistoryListResponse{Total: total, Entries: make([]dto.AllocationHistoryResponse, 0, len(entries))}
	for i := range entries {
		resp.Entries = append(resp.Entries, *allocationEntryToResponse(&entries[i]))
	}
	return resp, nil
}

// asUnallocateError distinguishes "this ticket exists but is past allocated
// or held by another distributor" (an illegal transition) from "this number
// was never allocated at all" (a plain conflict).
func asUnallocateError(err error) error {
	var conflict *ledger.ConflictError
	if !errors.As(err, &conflict) {
		return err
	}
	for _, off := range conflict.Offenders {
		if !off.Exists {
			return conflict
		}
		past := model.TicketStatus(off.Status).Terminal()
		if !past && !off.WrongOwner {
			return conflict
		}
	}
	return &ledger.InvalidStateError{Offenders: conflict.Offenders}
}

func resolveAllocation(req dto.AllocationRequest) (scheduleID, distributorID uuid.UUID, numbers []int, err error) {
	scheduleID, err = uuid.Parse(req.ScheduleID)
	if err != nil {
		return uuid.Nil, uuid.Nil, nil, errors.New("invalid schedule_id")
	}
	distributorID, err = uuid.Parse(req.DistributorID)
	if err != nil {
		return uuid.Nil, uuid.Nil, nil, errors.New("invalid distributor_id")
	}
	numbers, err = resolveNumbers(req.ControlNumbers, req.Range)
	if err != nil {
		return uuid.Nil, uuid.Nil, nil, err
	}
	return scheduleID, distributorID, numbers, nil
}

// resolveNumbers merges the explicit array form and the range-text form of a
// request into one deduplicated batch, and rejects empty batches.
func resolveNumbers(explicit []int, rangeText string) ([]int, error) {
	seen := make(map[int]struct{}, len(explicit))
	var numbers []int
	for _, n := range explicit {
		if _, dup := seen[n]; dup {
			return nil, &ledger.DuplicateError{ControlNumber: n}
		}
		seen[n] = struct{}{}
		numbers = append(numbers, n)
	}

	if rangeText != "" {
		parsed, err := rangecodec.Parse(rangeText)
		if err != nil {
			return nil, err
		}
		for _, n := range parsed {
			if _, dup := seen[n]; dup {
				return nil, &ledger.DuplicateError{ControlNumber: n}
			}
			seen[n] = struct{}{}
			numbers = append(numbers, n)
		}
	}

	if len(numbers) == 0 {
		return nil, &ledger.EmptyBatchError{}
	}
	return numbers, nil
}

func allocationEntryToResponse(e *model.AllocationHistoryEntry) *dto.AllocationHistoryResponse {
	return &dto.AllocationHistoryResponse{
		ID:             e.ID.String(),
		ScheduleID:     e.ScheduleID.String(),
		DistributorID:  e.DistributorID.String(),
		ActionType:     e.ActionType,
		ControlNumbers: e.ControlNumbers,
		TicketCount:    e.TicketCount,
		ActionBy:       e.ActionBy.String(),
		CreatedAt:      e.CreatedAt,
	}
}
