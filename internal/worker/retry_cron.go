package worker

// retry_cron.go
// Background goroutine that periodically drains the receipt DLQ and
// re-enqueues entries that still have attempts left. Uses the circuit
// breaker to avoid hammering a downed SMTP relay.

import (
	"context"
	"encoding/json"
	"time"

	"showtix/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// StartRetryCron launches a background goroutine that ticks every 30s and
// re-enqueues retryable DLQ entries. It respects the context for graceful
// shutdown.
func StartRetryCron(ctx context.Context, rdb *redis.Client, cb *infra.CircuitBreaker) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, rdb, cb)
			}
		}
	}()
}

func processRetries(ctx context.Context, rdb *redis.Client, cb *infra.CircuitBreaker) {
	// If CB is open, skip entirely — don't hammer a downed relay
	if cb.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	dlqKey := DLQPrefix + QueueReceipts
	for i := 0; i < retryBatchSize; i++ {
		raw, err := rdb.RPop(ctx, dlqKey).Result()
		if err != nil {
			return // empty or unavailable
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Msg("retry_cron: corrupt DLQ entry — dropping")
			continue
		}

		if entry.Attempts >= MaxReceiptAttempts {
			// Exhausted — park it back for manual inspection and stop
			// cycling it through the queue.
			_ = rdb.LPush(ctx, dlqKey, raw).Err()
			log.Warn().
				Str("job_type", entry.JobType).
				Int("attempts", entry.Attempts).
				Msg("retry_cron: entry exhausted retries — left in DLQ")
			return
		}

		job := Job{Type: entry.JobType, Payload: entry.Payload}
		encoded, err := json.Marshal(job)
		if err != nil {
			log.Error().Err(err).Msg("retry_cron: failed to marshal job")
			continue
		}
		if err := rdb.LPush(ctx, entry.OriginalQueue, encoded).Err(); err != nil {
			log.Error().Err(err).Msg("retry_cron: failed to re-enqueue — returning to DLQ")
			_ = rdb.LPush(ctx, dlqKey, raw).Err()
			return
		}
		log.Info().
			Str("queue", entry.OriginalQueue).
			Int("attempts", entry.Attempts).
			Msg("retry_cron: job re-enqueued")
	}
}
