//go:build integration

package worker

// Integration tests against real Redis via testcontainers.
// Run with: go test -tags integration ./internal/worker/... -v
//
// These exercise the queue plumbing that unit tests cannot: a dispatched
// job must survive the LPush/BRPop round trip intact, failed jobs must land
// in the DLQ, and the retry cron must re-enqueue retryable entries while
// parking exhausted ones.

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"showtix/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(rdURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestReceiptQueue_RoundTrip(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	d := NewDispatcher(rdb)
	require.NoError(t, d.EnqueueReceipt(ctx, ReceiptJobPayload{
		EntryID:       "entry-1",
		DistributorID: "dist-1",
	}))

	result, err := rdb.BRPop(ctx, 5*time.Second, QueueReceipts).Result()
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, QueueReceipts, result[0])

	var job Job
	require.NoError(t, json.Unmarshal([]byte(result[1]), &job))
	assert.Equal(t, "receipt", job.Type)

	var payload ReceiptJobPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, "entry-1", payload.EntryID)
	assert.Equal(t, "dist-1", payload.DistributorID)
	assert.Equal(t, 0, payload.Attempts)
}

func TestRetryCron_ReEnqueuesRetryableEntry(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())

	payload, err := json.Marshal(ReceiptJobPayload{EntryID: "entry-2", Attempts: 1})
	require.NoError(t, err)
	SendToDLQ(ctx, rdb, QueueReceipts, "receipt", payload, "smtp unavailable", 1)

	n, err := DLQLength(ctx, rdb, QueueReceipts)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	processRetries(ctx, rdb, cb)

	n, err = DLQLength(ctx, rdb, QueueReceipts)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "retryable entry must leave the DLQ")

	raw, err := rdb.RPop(ctx, QueueReceipts).Result()
	require.NoError(t, err)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	assert.Equal(t, "receipt", job.Type)
	var back ReceiptJobPayload
	require.NoError(t, json.Unmarshal(job.Payload, &back))
	assert.Equal(t, "entry-2", back.EntryID)
}

func TestRetryCron_ParksExhaustedEntry(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())

	payload, err := json.Marshal(ReceiptJobPayload{EntryID: "entry-3", Attempts: MaxReceiptAttempts})
	require.NoError(t, err)
	SendToDLQ(ctx, rdb, QueueReceipts, "receipt", payload, "smtp unavailable", MaxReceiptAttempts)

	processRetries(ctx, rdb, cb)

	n, err := DLQLength(ctx, rdb, QueueReceipts)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "exhausted entry stays in the DLQ")

	qlen, err := rdb.LLen(ctx, QueueReceipts).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), qlen)
}

func TestRetryCron_SkipsWhileBreakerOpen(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		OpenTimeout:      time.Minute,
	})
	require.Error(t, cb.Execute(func() error { return errors.New("smtp down") }))
	require.Equal(t, infra.CBOpen, cb.State())

	payload, err := json.Marshal(ReceiptJobPayload{EntryID: "entry-4", Attempts: 1})
	require.NoError(t, err)
	SendToDLQ(ctx, rdb, QueueReceipts, "receipt", payload, "smtp unavailable", 1)

	processRetries(ctx, rdb, cb)

	n, err := DLQLength(ctx, rdb, QueueReceipts)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "no retries while the relay is known-down")
}
