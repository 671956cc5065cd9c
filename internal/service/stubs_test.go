package service

import (
	"context"
	"errors"
	"sort"

	"showtix/internal/ledger"
	"showtix/internal/model"
	"showtix/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubTicketRepo is an in-memory TicketRepository mirroring the transactional
// compare-and-set semantics of the real one.
type stubTicketRepo struct {
	pools map[uuid.UUID]map[int]*model.Ticket
}

func newStubTicketRepo() *stubTicketRepo {
	return &stubTicketRepo{pools: make(map[uuid.UUID]map[int]*model.Ticket)}
}

func (r *stubTicketRepo) seed(scheduleID uuid.UUID, tickets ...model.Ticket) {
	pool, ok := r.pools[scheduleID]
	if !ok {
		pool = make(map[int]*model.Ticket)
		r.pools[scheduleID] = pool
	}
	for i := range tickets {
		t := tickets[i]
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		t.ScheduleID = scheduleID
		pool[t.ControlNumber] = &t
	}
}

func (r *stubTicketRepo) Snapshot(_ context.Context, scheduleID uuid.UUID) ([]model.Ticket, error) {
	pool := r.pools[scheduleID]
	numbers := make([]int, 0, len(pool))
	for n := range pool {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	out := make([]model.Ticket, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, *pool[n])
	}
	return out, nil
}

func (r *stubTicketRepo) TransitionTx(_ *gorm.DB, scheduleID uuid.UUID, controlNumbers []int, opts repository.TransitionOptions) ([]model.Ticket, error) {
	if len(controlNumbers) == 0 {
		return nil, &ledger.EmptyBatchError{}
	}
	numbers := make([]int, len(controlNumbers))
	copy(numbers, controlNumbers)
	sort.Ints(numbers)

	pool := r.pools[scheduleID]
	fromSet := make(map[model.TicketStatus]bool, len(opts.From))
	for _, s := range opts.From {
		fromSet[s] = true
	}

	var offenders []ledger.Offender
	for _, n := range numbers {
		t, ok := pool[n]
		if !ok {
			offenders = append(offenders, ledger.Offender{ControlNumber: n})
			continue
		}
		off := ledger.Offender{ControlNumber: n, Exists: true, Status: string(t.Status), Paid: t.IsPaid}
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
		t := pool[n]
		if opts.To != "" {
			t.Status = opts.To
		}
		if opts.Mutate != nil {
			opts.Mutate(t)
		}
		updated = append(updated, *t)
	}
	return updated, nil
}

func (r *stubTicketRepo) CreateBatchTx(_ *gorm.DB, tickets []model.Ticket) error {
	for _, t := range tickets {
		r.seed(t.ScheduleID, t)
	}
	return nil
}

func (r *stubTicketRepo) CountBySchedule(_ context.Context, scheduleID uuid.UUID) (int64, error) {
	return int64(len(r.pools[scheduleID])), nil
}

func (r *stubTicketRepo) DB() *gorm.DB { return nil }

var _ repository.TicketRepository = (*stubTicketRepo)(nil)

// stubAllocationHistory captures appended entries for assertion.
type stubAllocationHistory struct {
	entries []model.AllocationHistoryEntry
}

func (r *stubAllocationHistory) CreateTx(_ *gorm.DB, e *model.AllocationHistoryEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.entries = append(r.entries, *e)
	return nil
}

func (r *stubAllocationHistory) List(_ context.Context, filter repository.HistoryFilter) ([]model.AllocationHistoryEntry, int64, error) {
	var out []model.AllocationHistoryEntry
	// newest first
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.ScheduleID != filter.ScheduleID {
			continue
		}
		if filter.DistributorID != nil && e.DistributorID != *filter.DistributorID {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

var _ repository.AllocationHistoryRepository = (*stubAllocationHistory)(nil)

// stubRemittanceHistory captures remit/unremit entries.
type stubRemittanceHistory struct {
	entries []model.RemittanceHistoryEntry
}

func (r *stubRemittanceHistory) CreateTx(_ *gorm.DB, e *model.RemittanceHistoryEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.entries = append(r.entries, *e)
	return nil
}

func (r *stubRemittanceHistory) List(_ context.Context, filter repository.HistoryFilter) ([]model.RemittanceHistoryEntry, int64, error) {
	var out []model.RemittanceHistoryEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.ScheduleID != filter.ScheduleID {
			continue
		}
		if filter.DistributorID != nil && e.DistributorID != *filter.DistributorID {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *stubRemittanceHistory) FindByID(_ context.Context, id uuid.UUID) (*model.RemittanceHistoryEntry, error) {
	for i := range r.entries {
		if r.entries[i].ID == id {
			return &r.entries[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubRemittanceHistory) LatestRemitForTicket(_ context.Context, scheduleID uuid.UUID, controlNumber int) (*model.RemittanceTicket, error) {
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.ScheduleID != scheduleID || e.ActionType != model.ActionRemit {
			continue
		}
		for j := range e.Tickets {
			if e.Tickets[j].ControlNumber == controlNumber {
				return &e.Tickets[j], nil
			}
		}
	}
	return nil, errors.New("not found")
}

var _ repository.RemittanceHistoryRepository = (*stubRemittanceHistory)(nil)

// stubScheduleRepo holds schedules in a map.
type stubScheduleRepo struct {
	schedules map[uuid.UUID]*model.Schedule
}

func newStubScheduleRepo() *stubScheduleRepo {
	return &stubScheduleRepo{schedules: make(map[uuid.UUID]*model.Schedule)}
}

func (r *stubScheduleRepo) CreateTx(_ *gorm.DB, s *model.Schedule) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.schedules[s.ID] = s
	return nil
}

func (r *stubScheduleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Schedule, error) {
	s, ok := r.schedules[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return s, nil
}

func (r *stubScheduleRepo) List(_ context.Context) ([]model.Schedule, error) {
	out := make([]model.Schedule, 0, len(r.schedules))
	for _, s := range r.schedules {
		out = append(out, *s)
	}
	return out, nil
}

func (r *stubScheduleRepo) ListByGenre(_ context.Context, genre string) ([]model.Schedule, error) {
	var out []model.Schedule
	for _, s := range r.schedules {
		if s.Genre == genre {
			out = append(out, *s)
		}
	}
	return out, nil
}

var _ repository.ScheduleRepository = (*stubScheduleRepo)(nil)

// stubUserRepo backs auth and distributor-name lookups.
type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username && u.Active {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Role == role && u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)
