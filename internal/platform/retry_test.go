package platform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Connect(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestConnect_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	err := Connect(ctx, func(context.Context) error {
		calls++
		return errors.New("connection refused")
	})
	require.Error(t, err)
	assert.LessOrEqual(t, calls, 2)
}
