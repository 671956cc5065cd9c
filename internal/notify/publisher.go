// Package notify fans out "ticket state changed" events over Redis Pub/Sub
// so dashboards and distributor screens can refresh in real time. Delivery
// is explicitly best-effort and outside the ledger's consistency boundary:
// a failed publish is logged and dropped, never surfaced to the caller, and
// subscribers may observe the event after the mutation's own response.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const Channel = "tickets.state"

const publishTimeout = 2 * time.Second

// TicketStateEvent describes one applied ledger transition. ControlNumbers
// is in range notation.
type TicketStateEvent struct {
	ScheduleID     uuid.UUID  `json:"schedule_id"`
	DistributorID  *uuid.UUID `json:"distributor_id,omitempty"`
	Action         string     `json:"action"` // allocate | unallocate | remit | unremit | provision
	ControlNumbers string     `json:"control_numbers"`
	At             time.Time  `json:"at"`
}

// Publisher is the fire-and-forget event emitter handed to the ledger
// services. A nil *Publisher is valid and publishes nothing (unit tests).
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher { return &Publisher{rdb: rdb} }

// TicketStateChanged publishes the event without blocking the request path
// beyond a short timeout. Errors are logged and swallowed.
func (p *Publisher) TicketStateChanged(event TicketStateEvent) {
	if p == nil || p.rdb == nil {
		return
	}
	event.At = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("notify: failed to marshal event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.rdb.Publish(ctx, Channel, data).Err(); err != nil {
		log.Warn().Err(err).Str("action", event.Action).Msg("notify: publish failed — event dropped")
	}
}
