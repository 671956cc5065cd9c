package repository

import (
	"context"
	"sort"

	"showtix/internal/ledger"
	"showtix/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransitionOptions parameterizes one atomic batch compare-and-set over a
// schedule's ticket pool.
type TransitionOptions struct {
	// From is the set of admissible source statuses.
	From []model.TicketStatus
	// To is the target status for the whole batch. Empty means TransitionTx
	// sets no status itself: Mutate may assign one per row (remit marks
	// each ticket sold or lost) or leave it untouched (unremit only flips
	// the paid flag).
	To model.TicketStatus
	// Distributor, when set, requires every ticket to currently belong to
	// this distributor.
	Distributor *uuid.UUID
	// RequirePaid, when set, requires every ticket's IsPaid to match.
	RequirePaid *bool
	// Mutate is applied to each ticket after the preconditions pass and
	// before the row is written.
	Mutate func(*model.Ticket)
}

// TicketRepository is the authoritative ledger of per-schedule ticket state.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory stubs.
type TicketRepository interface {
	// Snapshot returns the schedule's full pool ordered by control number.
	// Read-only, no side effects.
	Snapshot(ctx context.Context, scheduleID uuid.UUID) ([]model.Ticket, error)

	// TransitionTx moves every listed control number from one of opts.From
	// to opts.To as a single atomic unit, applying opts.Mutate to each row.
	// If any number does not exist, is in the wrong status, belongs to the
	// wrong distributor, or fails the paid precondition, the whole call
	// returns *ledger.ConflictError naming the offenders and no ticket is
	// modified. Must be called inside a transaction; rows are locked with
	// SELECT … FOR UPDATE in control-number order so overlapping batches
	// serialize instead of deadlocking.
	TransitionTx(tx *gorm.DB, scheduleID uuid.UUID, controlNumbers []int, opts TransitionOptions) ([]model.Ticket, error)

	// CreateBatchTx bulk-inserts a freshly provisioned pool.
	CreateBatchTx(tx *gorm.DB, tickets []model.Ticket) error

	// CountBySchedule reports the pool size without loading rows. Schedule
	// listings use it so listing N schedules does not fetch N snapshots.
	CountBySchedule(ctx context.Context, scheduleID uuid.UUID) (int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type ticketRepo struct{ db *gorm.DB }

func NewTicketRepository(db *gorm.DB) TicketRepository { return &ticketRepo{db: db} }

func (r *ticketRepo) Snapshot(ctx context.Context, scheduleID uuid.UUID) ([]model.Ticket, error) {
	var tickets []model.Ticket
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("control_number ASC").
		Find(&tickets).Error
	return tickets, err
}

func (r *ticketRepo) TransitionTx(tx *gorm.DB, scheduleID uuid.UUID, controlNumbers []int, opts TransitionOptions) ([]model.Ticket, error) {
	if len(controlNumbers) == 0 {
		return nil, &ledger.EmptyBatchError{}
	}

	numbers := make([]int, len(controlNumbers))
	copy(numbers, controlNumbers)
	sort.Ints(numbers)

	var rows []model.Ticket
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("schedule_id = ? AND control_number IN ?", scheduleID, numbers).
		Order("control_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	byNumber := make(map[int]*model.Ticket, len(rows))
	for i := range rows {
		byNumber[rows[i].ControlNumber] = &rows[i]
	}

	fromSet := make(map[model.TicketStatus]bool, len(opts.From))
	for _, s := range opts.From {
		fromSet[s] = true
	}

	var offenders []ledger.Offender
	for _, n := range numbers {
		t, ok := byNumber[n]
		if !ok {
			offenders = append(offenders, ledger.Offender{ControlNumber: n})
			continue
		}
		off := ledger.Offender{
			ControlNumber: n,
			Exists:        true,
			Status:        string(t.Status),
			Paid:          t.IsPaid,
		}
		switch {
		case !fromSet[t.Status]:
			offenders = append(offenders, off)
		case opts.Distributor != nil && (t.DistributorID == nil || *t.DistributorID != *opts.Distributor):
			off.WrongOwner = true
			offenders = append(offenders, off)
		case opts.RequirePaid != nil && t.IsPaid != *opts.RequirePaid:
			offenders = append(offenders, off)
		}
	}
	if len(offenders) > 0 {
		return nil, &ledger.ConflictError{Offenders: offenders}
	}

	updated := make([]model.Ticket, 0, len(numbers))
	for _, n := range numbers {
		t := byNumber[n]
		if opts.To != "" {
			t.Status = opts.To
		}
		if opts.Mutate != nil {
			opts.Mutate(t)
		}
		if err := tx.Model(&model.Ticket{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
			"status":              t.Status,
			"distributor_id":      t.DistributorID,
			"discount_percentage": t.DiscountPercentage,
			"is_paid":             t.IsPaid,
		}).Error; err != nil {
			return nil, err
		}
		updated = append(updated, *t)
	}
	return updated, nil
}

func (r *ticketRepo) CreateBatchTx(tx *gorm.DB, tickets []model.Ticket) error {
	return tx.CreateInBatches(tickets, 500).Error
}

func (r *ticketRepo) CountBySchedule(ctx context.Context, scheduleID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("schedule_id = ?", scheduleID).Count(&n).Error
	return n, err
}

func (r *ticketRepo) DB() *gorm.DB { return r.db }
