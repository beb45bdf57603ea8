package job

import (
	"context"
	"log"
	"time"

	"corebank/internal/config"
	"corebank/internal/model"
	"corebank/internal/repository"

	"gorm.io/gorm"
)

// EventPublisher is the outbound side of the sender. mq.Producer is the
// production implementation.
type EventPublisher interface {
	Send(topic, key, value string) error
}

// OutboxSender drains pending ledger events to Kafka. Events that keep
// failing past the configured retry count are parked as FAILED for manual
// inspection.
type OutboxSender struct {
	outboxRepo *repository.OutboxRepository
	producer   EventPublisher
	cfg        *config.Config
	interval   time.Duration
	batchSize  int
}

func NewOutboxSender(db *gorm.DB, producer EventPublisher, cfg *config.Config) *OutboxSender {
	return &OutboxSender{
		outboxRepo: repository.NewOutboxRepository(db),
		producer:   producer,
		cfg:        cfg,
		interval:   100 * time.Millisecond,
		batchSize:  100,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	log.Println("[OutboxSender] started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[OutboxSender] stopped")
			return
		case <-ticker.C:
			s.drainPending(ctx)
		}
	}
}

func (s *OutboxSender) drainPending(ctx context.Context) {
	events, err := s.outboxRepo.ListPending(ctx, s.batchSize)
	if err != nil {
		log.Printf("[OutboxSender] fetch pending failed: %v", err)
		return
	}

	for _, event := range events {
		s.publish(ctx, event)
	}
}

func (s *OutboxSender) publish(ctx context.Context, event *model.OutboxMessage) {
	err := s.producer.Send(event.Topic, event.MessageKey, event.Payload)

	if err == nil {
		if markErr := s.outboxRepo.MarkSent(ctx, event.ID); markErr != nil {
			log.Printf("[OutboxSender] mark sent failed: id=%d, err=%v", event.ID, markErr)
		}
		return
	}

	log.Printf("[OutboxSender] publish failed: id=%d, key=%s, err=%v", event.ID, event.MessageKey, err)

	if event.RetryCount+1 >= s.cfg.Outbox.MaxRetryCount {
		if markErr := s.outboxRepo.MarkFailed(ctx, event.ID); markErr != nil {
			log.Printf("[OutboxSender] mark failed failed: id=%d, err=%v", event.ID, markErr)
		}
		return
	}

	if markErr := s.outboxRepo.MarkRetry(ctx, event.ID); markErr != nil {
		log.Printf("[OutboxSender] bump retry failed: id=%d, err=%v", event.ID, markErr)
	}
}
