package rabbitmq

import (
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/internal/model"
)

func TestAuthEventPublisher_Encode(t *testing.T) {
	now := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	p := NewAuthEventPublisher(nil, "auth.event.persist")
	p.now = func() time.Time { return now }

	msg, err := p.encode(model.AuthEvent{
		ID:        99,
		Type:      model.AuthEventLogin,
		UserID:    7,
		Username:  "alice",
		ClientIP:  "192.0.2.1",
		RequestID: "req-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, model.AuthEventLogin, msg.Type)
	assert.Equal(t, now, msg.Timestamp)
	assert.Len(t, msg.MessageId, 36)

	var decoded model.AuthEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Zero(t, decoded.ID, "ids are assigned by the consumer's store")
	assert.Equal(t, uint(7), decoded.UserID)
	assert.Equal(t, "req-1", decoded.RequestID)
	assert.True(t, now.Equal(decoded.CreatedAt))
}

func TestAuthEventPublisher_EncodeKeepsTimestamp(t *testing.T) {
	at := time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)
	p := NewAuthEventPublisher(nil, "q")

	msg, err := p.encode(model.AuthEvent{Type: model.AuthEventRegistered, CreatedAt: at})
	require.NoError(t, err)
	assert.Equal(t, at, msg.Timestamp)
}
