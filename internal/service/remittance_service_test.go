package service

import (
	"context"
	"errors"
	"testing"

	"showtix/internal/config"
	"showtix/internal/dto"
	"showtix/internal/ledger"
	"showtix/internal/model"
	"showtix/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type remitFixture struct {
	tickets       *stubTicketRepo
	history       *stubRemittanceHistory
	schedules     *stubScheduleRepo
	svc           RemittanceService
	scheduleID    uuid.UUID
	distributorID uuid.UUID
}

// newRemitFixture seeds a flat-priced schedule (price 100, commission 20)
// with poolSize tickets already allocated to one distributor.
func newRemitFixture(t *testing.T, poolSize int, policy string) *remitFixture {
	t.Helper()
	f := &remitFixture{
		tickets:       newStubTicketRepo(),
		history:       &stubRemittanceHistory{},
		schedules:     newStubScheduleRepo(),
		scheduleID:    uuid.New(),
		distributorID: uuid.New(),
	}
	f.schedules.schedules[f.scheduleID] = &model.Schedule{
		ID:            f.scheduleID,
		ShowTitle:     "Nutcracker",
		Genre:         "ballet",
		CommissionFee: decimal.NewFromInt(20),
		TicketPrice:   decimal.NewFromInt(100),
	}
	for i := 1; i <= poolSize; i++ {
		f.tickets.seed(f.scheduleID, model.Ticket{
			ControlNumber: i,
			Status:        model.StatusAllocated,
			DistributorID: &f.distributorID,
			TicketPrice:   decimal.NewFromInt(100),
		})
	}
	f.svc = NewRemittanceService(f.tickets, f.history, f.schedules, nil, nil, policy)
	return f
}

func (f *remitFixture) baseRemit() dto.RemitRequest {
	return dto.RemitRequest{
		ScheduleID:    f.scheduleID.String(),
		DistributorID: f.distributorID.String(),
		ReceivedBy:    "Front Office",
	}
}

func TestRemit_SoldAndLostTotals(t *testing.T) {
	f := newRemitFixture(t, 5, config.UnremitRecompute)

	req := f.baseRemit()
	req.SoldControlNumbers = []int{1, 2}
	req.LostControlNumbers = []int{3}

	resp, err := f.svc.Remit(context.Background(), req)
	require.NoError(t, err)

	// 3 settled tickets at commission 20 each.
	assert.True(t, resp.TotalCommission.Equal(decimal.NewFromInt(60)), "commission = %s", resp.TotalCommission)
	// (100-20) * 3 — lost tickets are billed like sold ones.
	assert.True(t, resp.TotalRemittance.Equal(decimal.NewFromInt(240)), "remittance = %s", resp.TotalRemittance)
	assert.Equal(t, "1-3", resp.ControlNumbers)

	snapshot, _ := f.tickets.Snapshot(context.Background(), f.scheduleID)
	for _, tk := range snapshot {
		switch tk.ControlNumber {
		case 1, 2:
			assert.Equal(t, model.StatusSold, tk.Status)
			assert.True(t, tk.IsPaid)
		case 3:
			assert.Equal(t, model.StatusLost, tk.Status)
			assert.True(t, tk.IsPaid)
		default:
			assert.Equal(t, model.StatusAllocated, tk.Status)
			assert.False(t, tk.IsPaid)
		}
	}
}

func TestRemit_DiscountReducesNet(t *testing.T) {
	f := newRemitFixture(t, 2, config.UnremitRecompute)

	req := f.baseRemit()
	req.SoldControlNumbers = []int{1}
	req.Discounted = []dto.DiscountInput{{ControlNumber: 1, Percentage: decimal.NewFromInt(10)}}

	resp, err := f.svc.Remit(context.Background(), req)
	require.NoError(t, err)

	// 100 − 20 commission − 10% of 100.
	assert.True(t, resp.TotalRemittance.Equal(decimal.NewFromInt(70)), "remittance = %s", resp.TotalRemittance)
	require.Len(t, resp.Tickets, 1)
	assert.True(t, resp.Tickets[0].NetAmount.Equal(decimal.NewFromInt(70)))
}

func TestRemit_DiscountOnLostTicketRejected(t *testing.T) {
	f := newRemitFixture(t, 3, config.UnremitRecompute)

	req := f.baseRemit()
	req.SoldControlNumbers = []int{1}
	req.LostControlNumbers = []int{2}
	req.Discounted = []dto.DiscountInput{{ControlNumber: 2, Percentage: decimal.NewFromInt(50)}}

	_, err := f.svc.Remit(context.Background(), req)
	var bad *ledger.InvalidDiscountError
	require.True(t, errors.As(err, &bad))
	assert.Equal(t, []int{2}, bad.ControlNumbers)
	assert.Empty(t, f.history.entries)
}

func TestRemit_OverlapAndEmptySets(t *testing.T) {
	f := newRemitFixture(t, 5, config.UnremitRecompute)

	t.Run("overlap", func(t *testing.T) {
		req := f.baseRemit()
		req.SoldRange = "1-3"
		req.LostRange = "3-4"
		_, err := f.svc.Remit(context.Background(), req)
		var overlap *ledger.OverlapError
		require.True(t, errors.As(err, &overlap))
		assert.Equal(t, []int{3}, overlap.ControlNumbers)
	})

	t.Run("empty union", func(t *testing.T) {
		_, err := f.svc.Remit(context.Background(), f.baseRemit())
		var empty *ledger.EmptyBatchError
		assert.True(t, errors.As(err, &empty))
	})
}

func TestRemit_UnallocatedTicketIsConflict(t *testing.T) {
	f := newRemitFixture(t, 2, config.UnremitRecompute)
	f.tickets.seed(f.scheduleID, model.Ticket{
		ControlNumber: 9,
		Status:        model.StatusUnallocated,
		TicketPrice:   decimal.NewFromInt(100),
	})

	req := f.baseRemit()
	req.SoldControlNumbers = []int{1, 9}

	_, err := f.svc.Remit(context.Background(), req)
	var conflict *ledger.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []int{9}, conflict.Numbers())

	snapshot, _ := f.tickets.Snapshot(context.Background(), f.scheduleID)
	for _, tk := range snapshot {
		assert.False(t, tk.IsPaid, "nothing may settle on a failed batch")
	}
}

// A remit settles sold and lost together in a single batch, so offenders
// from both sets must come back in the same ConflictError.
func TestRemit_OffendersFromBothSetsReportedTogether(t *testing.T) {
	f := newRemitFixture(t, 4, config.UnremitRecompute)
	f.tickets.seed(f.scheduleID, model.Ticket{
		ControlNumber: 8,
		Status:        model.StatusUnallocated,
		TicketPrice:   decimal.NewFromInt(100),
	})
	f.tickets.seed(f.scheduleID, model.Ticket{
		ControlNumber: 9,
		Status:        model.StatusUnallocated,
		TicketPrice:   decimal.NewFromInt(100),
	})

	req := f.baseRemit()
	req.SoldControlNumbers = []int{1, 8}
	req.LostControlNumbers = []int{2, 9}

	_, err := f.svc.Remit(context.Background(), req)
	var conflict *ledger.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []int{8, 9}, conflict.Numbers())

	snapshot, _ := f.tickets.Snapshot(context.Background(), f.scheduleID)
	for _, tk := range snapshot {
		assert.False(t, tk.IsPaid, "nothing may settle on a failed batch")
		assert.NotEqual(t, model.StatusSold, tk.Status)
		assert.NotEqual(t, model.StatusLost, tk.Status)
	}
}

func TestUnremit_FlipsPaidKeepsStatus(t *testing.T) {
	f := newRemitFixture(t, 3, config.UnremitRecompute)

	req := f.baseRemit()
	req.SoldControlNumbers = []int{1, 2}
	req.LostControlNumbers = []int{3}
	_, err := f.svc.Remit(context.Background(), req)
	require.NoError(t, err)

	resp, err := f.svc.Unremit(context.Background(), uuid.New(), dto.UnremitRequest{
		ScheduleID:     f.scheduleID.String(),
		DistributorID:  f.distributorID.String(),
		ControlNumbers: []int{1, 3},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ActionUnremit, resp.ActionType)
	// (100-20) * 2 clawed back, commission 20 * 2.
	assert.True(t, resp.TotalRemittance.Equal(decimal.NewFromInt(160)))
	assert.True(t, resp.TotalCommission.Equal(decimal.NewFromInt(40)))

	snapshot, _ := f.tickets.Snapshot(context.Background(), f.scheduleID)
	for _, tk := range snapshot {
		switch tk.ControlNumber {
		case 1:
			assert.Equal(t, model.StatusSold, tk.Status, "status survives unremit")
			assert.False(t, tk.IsPaid)
		case 2:
			assert.Equal(t, model.StatusSold, tk.Status)
			assert.True(t, tk.IsPaid)
		case 3:
			assert.Equal(t, model.StatusLost, tk.Status)
			assert.False(t, tk.IsPaid)
		}
	}
}

func TestUnremit_UnpaidTicketIsConflict(t *testing.T) {
	f := newRemitFixture(t, 2, config.UnremitRecompute)

	req := f.baseRemit()
	req.SoldControlNumbers = []int{1}
	_, err := f.svc.Remit(context.Background(), req)
	require.NoError(t, err)

	// Second reversal of the same ticket: is_paid is already false.
	_, err = f.svc.Unremit(context.Background(), uuid.New(), dto.UnremitRequest{
		ScheduleID: f.scheduleID.String(), DistributorID: f.distributorID.String(), ControlNumbers: []int{1},
	})
	require.NoError(t, err)

	_, err = f.svc.Unremit(context.Background(), uuid.New(), dto.UnremitRequest{
		ScheduleID: f.scheduleID.String(), DistributorID: f.distributorID.String(), ControlNumbers: []int{1},
	})
	var conflict *ledger.ConflictError
	assert.True(t, errors.As(err, &conflict))
}

func TestUnremit_AllocatedTicketIsConflict(t *testing.T) {
	f := newRemitFixture(t, 2, config.UnremitRecompute)

	_, err := f.svc.Unremit(context.Background(), uuid.New(), dto.UnremitRequest{
		ScheduleID: f.scheduleID.String(), DistributorID: f.distributorID.String(), ControlNumbers: []int{1},
	})
	var conflict *ledger.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []int{1}, conflict.Numbers())
}

func TestUnremit_ReplayPolicyUsesStoredAmounts(t *testing.T) {
	f := newRemitFixture(t, 2, config.UnremitReplay)

	req := f.baseRemit()
	req.SoldControlNumbers = []int{1}
	req.Discounted = []dto.DiscountInput{{ControlNumber: 1, Percentage: decimal.NewFromInt(10)}}
	_, err := f.svc.Remit(context.Background(), req)
	require.NoError(t, err)

	// A later price correction must not change what the clawback replays.
	f.tickets.pools[f.scheduleID][1].TicketPrice = decimal.NewFromInt(500)

	resp, err := f.svc.Unremit(context.Background(), uuid.New(), dto.UnremitRequest{
		ScheduleID: f.scheduleID.String(), DistributorID: f.distributorID.String(), ControlNumbers: []int{1},
	})
	require.NoError(t, err)
	assert.True(t, resp.TotalRemittance.Equal(decimal.NewFromInt(70)), "replayed net = %s", resp.TotalRemittance)
	assert.True(t, resp.TotalCommission.Equal(decimal.NewFromInt(20)))
}

func TestRemittanceHistory_AppendOnly(t *testing.T) {
	f := newRemitFixture(t, 3, config.UnremitRecompute)

	req := f.baseRemit()
	req.SoldRange = "1-2"
	_, err := f.svc.Remit(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.Unremit(context.Background(), uuid.New(), dto.UnremitRequest{
		ScheduleID: f.scheduleID.String(), DistributorID: f.distributorID.String(), Range: "1-2",
	})
	require.NoError(t, err)

	list, err := f.svc.History(context.Background(), repository.HistoryFilter{ScheduleID: f.scheduleID})
	require.NoError(t, err)
	require.Len(t, list.Entries, 2)
	assert.Equal(t, model.ActionUnremit, list.Entries[0].ActionType, "newest first")
	assert.Equal(t, model.ActionRemit, list.Entries[1].ActionType)
	// The original remit entry is untouched by the reversal.
	assert.True(t, list.Entries[1].TotalRemittance.Equal(decimal.NewFromInt(160)))
}
