package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tuanvumaihuynh/product-inventory/internal/config"
	"github.com/tuanvumaihuynh/product-inventory/internal/repository"
	"github.com/tuanvumaihuynh/product-inventory/internal/storage/db"
	"github.com/tuanvumaihuynh/product-inventory/internal/storage/mq"
	"github.com/tuanvumaihuynh/product-inventory/pkg/ptr"
)

// Service publishes committed outbox messages to the broker. Messages sharing
// a partition key are produced one after the other in creation order, so the
// events of one product reach consumers in the order they were written.
type Service struct {
	cfg           config.Relay
	logger        *slog.Logger
	db            db.DB
	outboxMsgRepo repository.OutboxMsgRepository
	mqProducer    mq.Producer

	stopChan chan struct{}
}

func NewService(
	cfg config.Relay,
	logger *slog.Logger,
	db db.DB,
	outboxMsgRepo repository.OutboxMsgRepository,
	mqProducer mq.Producer,
) *Service {
	return &Service{
		cfg:           cfg,
		logger:        logger.With(slog.String("service", "relay")),
		db:            db,
		outboxMsgRepo: outboxMsgRepo,
		mqProducer:    mqProducer,
		stopChan:      make(chan struct{}),
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		s.run(ctx)
	}()

	return func() {
		close(s.stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(5 * time.Second):
			cancel()
			<-stoppedChan
		}
		cancel()
	}
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			count, err := s.relayBatch(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "error relaying outbox msgs", slog.Any("error", err))
				continue
			}
			if count > 0 {
				s.logger.InfoContext(ctx, "relayed outbox msgs", slog.Int("count", count))
			}
		}
	}
}

// relayBatch produces one batch of unprocessed messages and marks the
// attempted ones as processed, recording the produce error if any. It returns
// the number of messages marked.
func (s *Service) relayBatch(ctx context.Context) (int, error) {
	var count int

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		outboxMsgRepo := s.outboxMsgRepo.WithDB(db)

		outboxMsgs, err := outboxMsgRepo.ListUnprocessedOutboxMsgs(ctx, repository.ListUnprocessedOutboxMsgsParams{
			BatchSize: s.cfg.BatchSize,
		})
		if err != nil {
			return fmt.Errorf("list unprocessed outbox msgs: %w", err)
		}

		if len(outboxMsgs) == 0 {
			return nil
		}

		items := s.produce(ctx, outboxMsgs)

		if err := outboxMsgRepo.BulkUpdateOutboxMsgs(ctx, repository.BulkUpdateOutboxMsgsParams{
			Items: items,
		}); err != nil {
			return fmt.Errorf("bulk update outbox msgs: %w", err)
		}

		count = len(items)
		return nil
	}); err != nil {
		return 0, err
	}

	return count, nil
}

// produce sends each partition key group sequentially and the groups
// concurrently. After a failure the rest of that group is left for the next
// batch so it is never published ahead of the failed message.
func (s *Service) produce(ctx context.Context, msgs []repository.ListUnprocessedOutboxMsgsResult) []repository.BulkUpdateOutboxMsgsItem {
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		items = make([]repository.BulkUpdateOutboxMsgsItem, 0, len(msgs))
	)

	for _, group := range groupByKey(msgs) {
		wg.Go(func() {
			for _, msg := range group {
				err := s.mqProducer.Produce(ctx, mq.ProduceMsg{
					Topic:        msg.Topic,
					Headers:      msg.Headers,
					Payload:      msg.Payload,
					PartitionKey: msg.PartitionKey,
				})

				item := repository.BulkUpdateOutboxMsgsItem{ID: msg.ID}
				if err != nil {
					s.logger.ErrorContext(ctx, "error producing message",
						slog.String("outbox_msg_id", msg.ID.String()),
						slog.String("topic", msg.Topic),
						slog.Any("error", err),
					)
					item.Error = ptr.New(err.Error())
				}

				mu.Lock()
				items = append(items, item)
				mu.Unlock()

				if err != nil {
					return
				}
			}
		})
	}

	wg.Wait()

	return items
}

// groupByKey splits msgs by partition key keeping their order. Messages
// without a key each form their own group.
func groupByKey(msgs []repository.ListUnprocessedOutboxMsgsResult) [][]repository.ListUnprocessedOutboxMsgsResult {
	var groups [][]repository.ListUnprocessedOutboxMsgsResult
	index := make(map[string]int)

	for _, msg := range msgs {
		if msg.PartitionKey == nil {
			groups = append(groups, []repository.ListUnprocessedOutboxMsgsResult{msg})
			continue
		}

		i, ok := index[*msg.PartitionKey]
		if !ok {
			i = len(groups)
			index[*msg.PartitionKey] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], msg)
	}

	return groups
}
