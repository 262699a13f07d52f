package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"authgate/internal/logging"
	"authgate/internal/model"
	"authgate/internal/platform/rabbitmq"
)

type AuthEventStore interface {
	Create(ctx context.Context, event *model.AuthEvent) error
}

// AuthEventWorker drains the auth event queue into the audit table.
type AuthEventWorker struct {
	conn      *amqp.Connection
	store     AuthEventStore
	queueName string
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewAuthEventWorker(conn *amqp.Connection, store AuthEventStore, queueName string, logger *slog.Logger) *AuthEventWorker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &AuthEventWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		logger:    logger.With("component", "auth_event_worker", "queue", queueName),
	}
}

func (w *AuthEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.run(ctx, deliveries, func() { _ = ch.Close() })
	return nil
}

func (w *AuthEventWorker) run(ctx context.Context, deliveries <-chan amqp.Delivery, onExit func()) {
	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer onExit()
		w.consume(workerCtx, deliveries)
	}()
}

func (w *AuthEventWorker) consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.handle(ctx, d)
		}
	}
}

// handle acks persisted events and drops undecodable ones. Store failures are requeued once;
// a redelivered event that still fails is dropped.
func (w *AuthEventWorker) handle(ctx context.Context, d amqp.Delivery) {
	var event model.AuthEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		logging.LogError(w.logger, "decode auth event failed", err, "message_id", d.MessageId)
		_ = d.Nack(false, false)
		return
	}
	event.ID = 0

	if err := w.store.Create(ctx, &event); err != nil {
		logging.LogError(w.logger, "persist auth event failed", err,
			"message_id", d.MessageId, "redelivered", d.Redelivered)
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	w.logger.DebugContext(ctx, "auth event persisted", "type", event.Type, "user_id", event.UserID)
	_ = d.Ack(false)
}

func (w *AuthEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
