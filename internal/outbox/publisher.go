package outbox

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/planetarium-reservations/internal/adapters/pgdb"
	"github.com/robertarktes/planetarium-reservations/internal/adapters/rabbit"
	"github.com/robertarktes/planetarium-reservations/internal/observability"
)

// Publisher relays NEW outbox rows to RabbitMQ. Rows are written in the same
// transaction as the reservation change they describe, so a committed change
// is eventually published even if the broker was down at commit time.
type Publisher struct {
	repo      *pgdb.Repository
	rabbitPub *rabbit.Publisher
	logger    observability.Logger
}

func NewPublisher(repo *pgdb.Repository, rabbitPub *rabbit.Publisher, logger observability.Logger) *Publisher {
	return &Publisher{repo: repo, rabbitPub: rabbitPub, logger: logger}
}

func (p *Publisher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishBatch(ctx)
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context) {
	_, err := p.repo.RelayOutbox(ctx, 10, func(ctx context.Context, rec pgdb.OutboxRecord) error {
		msg := amqp.Publishing{
			MessageId:   rec.DedupeKey,
			ContentType: "application/json",
			Body:        rec.Payload,
		}
		if err := p.rabbitPub.Publish(ctx, rec.EventType, msg); err != nil {
			p.logger.Error("failed to publish outbox record", err)
			return err
		}
		observability.OutboxLag.Set(time.Since(rec.CreatedAt).Seconds())
		return nil
	})
	if err != nil {
		p.logger.Error("outbox relay pass failed", err)
	}
}
