package worker

// receipt_worker.go
// Processes receipt delivery jobs from QueueReceipts: renders the remittance
// receipt PDF and emails it to the distributor. SMTP calls go through the
// circuit breaker; exhausted jobs land in the DLQ for the retry cron.

import (
	"context"
	"encoding/json"
	"fmt"

	"showtix/internal/infra"
	"showtix/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MaxReceiptAttempts bounds receipt delivery retries before a job is parked
// in the DLQ for good.
const MaxReceiptAttempts = 3

// ReceiptWorker renders and emails remittance receipts.
type ReceiptWorker struct {
	history     repository.RemittanceHistoryRepository
	schedules   repository.ScheduleRepository
	users       repository.UserRepository
	mailer      *infra.Mailer
	cb          *infra.CircuitBreaker
	rdb         *redis.Client
	storagePath string
}

func NewReceiptWorker(
	history repository.RemittanceHistoryRepository,
	schedules repository.ScheduleRepository,
	users repository.UserRepository,
	mailer *infra.Mailer,
	cb *infra.CircuitBreaker,
	rdb *redis.Client,
	storagePath string,
) *ReceiptWorker {
	return &ReceiptWorker{
		history:     history,
		schedules:   schedules,
		users:       users,
		mailer:      mailer,
		cb:          cb,
		rdb:         rdb,
		storagePath: storagePath,
	}
}

// Process renders the receipt and sends it. Failures are pushed to the DLQ
// with the attempt count so the retry cron can re-enqueue with backoff.
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return
	}

	if err := w.deliver(ctx, payload); err != nil {
		payload.Attempts++
		log.Error().Err(err).
			Str("entry_id", payload.EntryID).
			Int("attempts", payload.Attempts).
			Msg("receipt_worker: delivery failed")

		data, _ := json.Marshal(payload)
		SendToDLQ(ctx, w.rdb, QueueReceipts, "receipt", data, err.Error(), payload.Attempts)
		return
	}
	log.Info().Str("entry_id", payload.EntryID).Msg("receipt_worker: receipt delivered")
}

func (w *ReceiptWorker) deliver(ctx context.Context, payload ReceiptJobPayload) error {
	entryID, err := uuid.Parse(payload.EntryID)
	if err != nil {
		return fmt.Errorf("bad entry id %q: %w", payload.EntryID, err)
	}
	distributorID, err := uuid.Parse(payload.DistributorID)
	if err != nil {
		return fmt.Errorf("bad distributor id %q: %w", payload.DistributorID, err)
	}

	entry, err := w.history.FindByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("load entry: %w", err)
	}
	schedule, err := w.schedules.FindByID(ctx, entry.ScheduleID)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	distributor, err := w.users.FindByID(ctx, distributorID)
	if err != nil {
		return fmt.Errorf("load distributor: %w", err)
	}
	if distributor.Email == nil || *distributor.Email == "" {
		// Nothing to deliver to — not an error worth retrying.
		log.Warn().Str("distributor", distributor.Username).Msg("receipt_worker: distributor has no email, skipping")
		return nil
	}

	pdfPath, err := infra.GenerateReceiptPDF(entry, schedule, distributor.FullName, w.storagePath)
	if err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}

	subject := fmt.Sprintf("Remittance receipt — %s (%s)", schedule.ShowTitle, schedule.ShowDate.Format("Jan 2"))
	body := fmt.Sprintf(
		"Remittance recorded for %s.\nTotal remitted: %s\nCommission retained: %s\n\nThe detailed receipt is attached.",
		schedule.ShowTitle, entry.TotalRemittance.StringFixed(2), entry.TotalCommission.StringFixed(2),
	)
	return w.cb.Execute(func() error {
		return w.mailer.SendReceipt(*distributor.Email, subject, body, pdfPath)
	})
}
