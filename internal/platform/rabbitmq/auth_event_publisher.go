package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/oops"

	"authgate/internal/model"
)

type AuthEventPublisher struct {
	conn      *amqp.Connection
	queueName string
	now       func() time.Time
}

func NewAuthEventPublisher(conn *amqp.Connection, queueName string) *AuthEventPublisher {
	return &AuthEventPublisher{
		conn:      conn,
		queueName: queueName,
		now:       time.Now,
	}
}

func (p *AuthEventPublisher) Publish(ctx context.Context, event model.AuthEvent) error {
	errb := oops.In("rabbitmq").With("queue", p.queueName, "type", event.Type)

	msg, err := p.encode(event)
	if err != nil {
		return errb.Wrapf(err, "marshal auth event failed")
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return errb.Wrapf(err, "open rabbitmq channel failed")
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return errb.Wrapf(err, "declare queue failed")
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		msg,
	); err != nil {
		return errb.Wrapf(err, "publish auth event failed")
	}
	return nil
}

func (p *AuthEventPublisher) encode(event model.AuthEvent) (amqp.Publishing, error) {
	event.ID = 0
	if event.CreatedAt.IsZero() {
		event.CreatedAt = p.now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         payload,
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         event.Type,
		Timestamp:    event.CreatedAt,
	}, nil
}

// DeclareQueue declares the durable queue shared by the publisher and the worker.
func DeclareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	)
	return err
}
