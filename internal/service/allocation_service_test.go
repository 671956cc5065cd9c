package service

import (
	"context"
	"errors"
	"testing"

	"showtix/internal/dto"
	"showtix/internal/ledger"
	"showtix/internal/model"
	"showtix/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPool(tickets *stubTicketRepo, scheduleID uuid.UUID, n int) {
	price := decimal.NewFromInt(100)
	for i := 1; i <= n; i++ {
		tickets.seed(scheduleID, model.Ticket{
			ControlNumber: i,
			Status:        model.StatusUnallocated,
			TicketPrice:   price,
		})
	}
}

func TestAllocate_MovesBatchAndRecordsHistory(t *testing.T) {
	tickets := newStubTicketRepo()
	history := &stubAllocationHistory{}
	svc := NewAllocationService(tickets, history, nil)

	scheduleID := uuid.New()
	distributorID := uuid.New()
	actionBy := uuid.New()
	seedPool(tickets, scheduleID, 10)

	resp, err := svc.Allocate(context.Background(), actionBy, dto.AllocationRequest{
		ScheduleID:    scheduleID.String(),
		DistributorID: distributorID.String(),
		Range:         "1-3,7",
	})
	require.NoError(t, err)
	assert.Equal(t, "1-3,7", resp.ControlNumbers)
	assert.Equal(t, 4, resp.TicketCount)
	assert.Equal(t, model.ActionAllocate, resp.ActionType)

	snapshot, _ := tickets.Snapshot(context.Background(), scheduleID)
	for _, tk := range snapshot {
		switch tk.ControlNumber {
		case 1, 2, 3, 7:
			assert.Equal(t, model.StatusAllocated, tk.Status)
			require.NotNil(t, tk.DistributorID)
			assert.Equal(t, distributorID, *tk.DistributorID)
		default:
			assert.Equal(t, model.StatusUnallocated, tk.Status)
			assert.Nil(t, tk.DistributorID)
		}
	}
	require.Len(t, history.entries, 1)
	assert.Equal(t, actionBy, history.entries[0].ActionBy)
}

func TestAllocate_RejectsWholeBatchOnSingleConflict(t *testing.T) {
	tickets := newStubTicketRepo()
	history := &stubAllocationHistory{}
	svc := NewAllocationService(tickets, history, nil)

	scheduleID := uuid.New()
	firstDist := uuid.New()
	secondDist := uuid.New()
	seedPool(tickets, scheduleID, 5)

	_, err := svc.Allocate(context.Background(), uuid.New(), dto.AllocationRequest{
		ScheduleID:    scheduleID.String(),
		DistributorID: firstDist.String(),
		ControlNumbers: []int{3},
	})
	require.NoError(t, err)

	// 3 is already allocated — batch 1-5 must fail without moving 1,2,4,5.
	_, err = svc.Allocate(context.Background(), uuid.New(), dto.AllocationRequest{
		ScheduleID:    scheduleID.String(),
		DistributorID: secondDist.String(),
		Range:         "1-5",
	})
	var conflict *ledger.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []int{3}, conflict.Numbers())

	snapshot, _ := tickets.Snapshot(context.Background(), scheduleID)
	for _, tk := range snapshot {
		if tk.ControlNumber == 3 {
			continue
		}
		assert.Equal(t, model.StatusUnallocated, tk.Status, "ticket %d must not move", tk.ControlNumber)
	}
	assert.Len(t, history.entries, 1, "failed batch must not append history")
}

func TestAllocate_InputErrors(t *testing.T) {
	tickets := newStubTicketRepo()
	svc := NewAllocationService(tickets, &stubAllocationHistory{}, nil)
	scheduleID := uuid.New()
	distributorID := uuid.New()
	seedPool(tickets, scheduleID, 5)

	base := dto.AllocationRequest{ScheduleID: scheduleID.String(), DistributorID: distributorID.String()}

	t.Run("empty batch", func(t *testing.T) {
		_, err := svc.Allocate(context.Background(), uuid.New(), base)
		var empty *ledger.EmptyBatchError
		assert.True(t, errors.As(err, &empty))
	})

	t.Run("malformed range", func(t *testing.T) {
		req := base
		req.Range = "1-abc"
		_, err := svc.Allocate(context.Background(), uuid.New(), req)
		var format *ledger.FormatError
		assert.True(t, errors.As(err, &format))
	})

	t.Run("duplicate across array and range", func(t *testing.T) {
		req := base
		req.ControlNumbers = []int{2}
		req.Range = "1-3"
		_, err := svc.Allocate(context.Background(), uuid.New(), req)
		var dup *ledger.DuplicateError
		require.True(t, errors.As(err, &dup))
		assert.Equal(t, 2, dup.ControlNumber)
	})
}

func TestUnallocate_ReturnsTicketsToPool(t *testing.T) {
	tickets := newStubTicketRepo()
	history := &stubAllocationHistory{}
	svc := NewAllocationService(tickets, history, nil)

	scheduleID := uuid.New()
	distributorID := uuid.New()
	seedPool(tickets, scheduleID, 5)

	_, err := svc.Allocate(context.Background(), uuid.New(), dto.AllocationRequest{
		ScheduleID: scheduleID.String(), DistributorID: distributorID.String(), Range: "1-5",
	})
	require.NoError(t, err)

	resp, err := svc.Unallocate(context.Background(), uuid.New(), dto.AllocationRequest{
		ScheduleID: scheduleID.String(), DistributorID: distributorID.String(), Range: "2-4",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ActionUnallocate, resp.ActionType)

	snapshot, _ := tickets.Snapshot(context.Background(), scheduleID)
	for _, tk := range snapshot {
		switch tk.ControlNumber {
		case 2, 3, 4:
			assert.Equal(t, model.StatusUnallocated, tk.Status)
			assert.Nil(t, tk.DistributorID)
		default:
			assert.Equal(t, model.StatusAllocated, tk.Status)
		}
	}
	assert.Len(t, history.entries, 2)
}

func TestUnallocate_SoldTicketIsInvalidState(t *testing.T) {
	tickets := newStubTicketRepo()
	svc := NewAllocationService(tickets, &stubAllocationHistory{}, nil)

	scheduleID := uuid.New()
	distributorID := uuid.New()
	tickets.seed(scheduleID, model.Ticket{
		ControlNumber: 1,
		Status:        model.StatusSold,
		DistributorID: &distributorID,
		TicketPrice:   decimal.NewFromInt(100),
		IsPaid:        true,
	})

	_, err := svc.Unallocate(context.Background(), uuid.New(), dto.AllocationRequest{
		ScheduleID: scheduleID.String(), DistributorID: distributorID.String(), ControlNumbers: []int{1},
	})
	var invalid *ledger.InvalidStateError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, []int{1}, invalid.Numbers())
}

func TestUnallocate_WrongDistributorIsInvalidState(t *testing.T) {
	tickets := newStubTicketRepo()
	svc := NewAllocationService(tickets, &stubAllocationHistory{}, nil)

	scheduleID := uuid.New()
	owner := uuid.New()
	other := uuid.New()
	tickets.seed(scheduleID, model.Ticket{
		ControlNumber: 1,
		Status:        model.StatusAllocated,
		DistributorID: &owner,
		TicketPrice:   decimal.NewFromInt(100),
	})

	_, err := svc.Unallocate(context.Background(), uuid.New(), dto.AllocationRequest{
		ScheduleID: scheduleID.String(), DistributorID: other.String(), ControlNumbers: []int{1},
	})
	var invalid *ledger.InvalidStateError
	assert.True(t, errors.As(err, &invalid))
}

func TestUnallocate_UnknownNumberIsConflict(t *testing.T) {
	tickets := newStubTicketRepo()
	svc := NewAllocationService(tickets, &stubAllocationHistory{}, nil)

	scheduleID := uuid.New()
	distributorID := uuid.New()
	seedPool(tickets, scheduleID, 2)

	_, err := svc.Unallocate(context.Background(), uuid.New(), dto.AllocationRequest{
		ScheduleID: scheduleID.String(), DistributorID: distributorID.String(), ControlNumbers: []int{99},
	})
	var conflict *ledger.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []int{99}, conflict.Numbers())
}

func TestAllocationHistory_NewestFirstAndFiltered(t *testing.T) {
	tickets := newStubTicketRepo()
	history := &stubAllocationHistory{}
	svc := NewAllocationService(tickets, history, nil)

	scheduleID := uuid.New()
	distA := uuid.New()
	distB := uuid.New()
	seedPool(tickets, scheduleID, 10)

	for _, step := range []struct {
		dist  uuid.UUID
		rng   string
	}{
		{distA, "1-3"},
		{distB, "4-6"},
		{distA, "7"},
	} {
		_, err := svc.Allocate(context.Background(), uuid.New(), dto.AllocationRequest{
			ScheduleID: scheduleID.String(), DistributorID: step.dist.String(), Range: step.rng,
		})
		require.NoError(t, err)
	}

	all, err := svc.History(context.Background(), repository.HistoryFilter{ScheduleID: scheduleID})
	require.NoError(t, err)
	require.Len(t, all.Entries, 3)
	assert.Equal(t, "7", all.Entries[0].ControlNumbers, "newest entry first")
	assert.Equal(t, "1-3", all.Entries[2].ControlNumbers)

	onlyA, err := svc.History(context.Background(), repository.HistoryFilter{ScheduleID: scheduleID, DistributorID: &distA})
	require.NoError(t, err)
	assert.Len(t, onlyA.Entries, 2)
	assert.EqualValues(t, 2, onlyA.Total)
}
