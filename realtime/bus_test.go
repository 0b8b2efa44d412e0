package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBusDeliversToSubscribedHandler(t *testing.T) {
	bus := NewLocalBus()

	var got []byte
	require.NoError(t, bus.Subscribe("rest-1", func(restaurantID string, payload []byte) {
		got = payload
	}))

	require.NoError(t, bus.Publish(context.Background(), "rest-1", []byte("delta")))
	assert.Equal(t, []byte("delta"), got)
}

func TestLocalBusIgnoresUnsubscribedChannels(t *testing.T) {
	bus := NewLocalBus()

	delivered := false
	require.NoError(t, bus.Subscribe("rest-1", func(string, []byte) {
		delivered = true
	}))
	require.NoError(t, bus.Unsubscribe("rest-1"))

	require.NoError(t, bus.Publish(context.Background(), "rest-1", []byte("delta")))
	assert.False(t, delivered)

	// Publishing to a channel nobody joined is not an error.
	require.NoError(t, bus.Publish(context.Background(), "rest-2", []byte("delta")))
}
