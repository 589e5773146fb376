package workers

import (
	"context"
	"log"
	"time"

	"social-service/internal/observability"
	"social-service/internal/rabbitmq"
	"social-service/internal/repositories"
)

// OutboxRelayer drains committed follow events to the broker. Delivery is
// at least once: an event is only marked sent after a successful publish.
type OutboxRelayer struct {
	repo       repositories.OutboxRepository
	publisher  rabbitmq.Publisher
	routingKey string
	batchSize  int
	interval   time.Duration
}

// NewOutboxRelayer builds an OutboxRelayer with the default batch and cadence.
func NewOutboxRelayer(repo repositories.OutboxRepository, publisher rabbitmq.Publisher) *OutboxRelayer {
	return &OutboxRelayer{
		repo:       repo,
		publisher:  publisher,
		routingKey: "social.follow_events",
		batchSize:  200,
		interval:   time.Second,
	}
}

// Run drains the outbox on a fixed cadence until the context is cancelled.
func (r *OutboxRelayer) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.drainOnce(ctx)
		}
	}
}

func (r *OutboxRelayer) drainOnce(ctx context.Context) {
	events, err := r.repo.ListPending(ctx, r.batchSize)
	if err != nil {
		log.Printf("outbox list failed: %v", err)
		return
	}

	for _, event := range events {
		if err := r.publisher.Publish(ctx, r.routingKey, event, nil); err != nil {
			log.Printf("outbox publish failed event=%d: %v", event.ID, err)
			observability.IncAMQPPublishError()
			if err := r.repo.MarkFailed(ctx, event.ID); err != nil {
				log.Printf("outbox mark failed errored event=%d: %v", event.ID, err)
			}
			continue
		}
		if err := r.repo.MarkSent(ctx, event.ID); err != nil {
			// the event will be re-delivered on the next sweep
			log.Printf("outbox mark sent errored event=%d: %v", event.ID, err)
		}
	}
}
