package rabbitmq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/oops"

	"authgate/internal/platform"
)

func New(ctx context.Context, url string) (*amqp.Connection, error) {
	var conn *amqp.Connection
	err := platform.Connect(ctx, func(context.Context) error {
		c, err := amqp.DialConfig(url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(3 * time.Second),
		})
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, oops.In("rabbitmq").Wrapf(err, "dial rabbitmq failed")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, oops.In("rabbitmq").Wrapf(err, "open rabbitmq channel failed")
	}
	_ = ch.Close()

	return conn, nil
}
