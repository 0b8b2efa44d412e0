package realtime

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/floorsync/floor"
)

func drainMessages(t *testing.T, c *Client, n int) []Message {
	t.Helper()
	out := make([]Message, 0, n)
	for i := 0; i < n; i++ {
		select {
		case payload := <-c.send:
			var m Message
			require.NoError(t, json.Unmarshal(payload, &m))
			out = append(out, m)
		default:
			t.Fatalf("expected %d messages, got %d", n, i)
		}
	}
	return out
}

func TestPublishBatchSendsDeltasThenCompletion(t *testing.T) {
	bus := newRecordingBus()
	hub := NewHub(bus, testLogger())
	b := NewBroadcaster(bus, hub, testLogger())

	c := testClient(hub, "rest-1")
	hub.Register(c)

	deltas := []floor.Delta{
		{EntityType: floor.EntityGuest, EntityID: "g1", Action: floor.ActionCreated},
		{EntityType: floor.EntityTable, EntityID: "t1", Action: floor.ActionUpdated},
	}
	b.PublishBatch("rest-1", "tx-1", deltas)

	msgs := drainMessages(t, c, 3)
	assert.Equal(t, TypeCreated, msgs[0].Type)
	assert.Equal(t, "g1", msgs[0].EntityID)
	assert.Equal(t, TypeUpdated, msgs[1].Type)
	assert.Equal(t, "t1", msgs[1].EntityID)

	complete := msgs[2]
	assert.Equal(t, TypeAtomicComplete, complete.Type)
	assert.Equal(t, "tx-1", complete.TransactionID)
	assert.Equal(t, []string{"guest-g1", "table-t1"}, complete.AffectedEntities)
}

func TestPublishBatchEmptyDeltasSendsNothing(t *testing.T) {
	bus := newRecordingBus()
	hub := NewHub(bus, testLogger())
	b := NewBroadcaster(bus, hub, testLogger())

	c := testClient(hub, "rest-1")
	hub.Register(c)

	b.PublishBatch("rest-1", "tx-1", nil)
	assert.Empty(t, c.send)
}

func TestPublishFallsBackToLocalDeliveryOnBusFailure(t *testing.T) {
	bus := newRecordingBus()
	hub := NewHub(bus, testLogger())
	b := NewBroadcaster(bus, hub, testLogger())

	c := testClient(hub, "rest-1")
	hub.Register(c)

	bus.publishErr = errors.New("broker down")
	b.PublishDelta("rest-1", floor.Delta{
		EntityType: floor.EntityGuest, EntityID: "g1", Action: floor.ActionUpdated,
	})

	msgs := drainMessages(t, c, 1)
	assert.Equal(t, TypeUpdated, msgs[0].Type)
	assert.Equal(t, "g1", msgs[0].EntityID)
}
