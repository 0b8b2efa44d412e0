package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/floorsync/floor"
)

// Broadcaster turns committed deltas into subscriber messages and
// publishes them on the fan-out bus. Publishing is best-effort: a bus
// failure degrades to local-only delivery and never reaches the caller.
type Broadcaster struct {
	bus Bus
	hub *Hub
	log *logrus.Logger
}

func NewBroadcaster(bus Bus, hub *Hub, log *logrus.Logger) *Broadcaster {
	return &Broadcaster{bus: bus, hub: hub, log: log}
}

// PublishBatch sends one delta per touched entity, then a single
// atomic_transaction_complete listing every affected entity. The
// trailing message goes out only after the individual deltas.
func (b *Broadcaster) PublishBatch(restaurantID, transactionID string, deltas []floor.Delta) {
	affected := make([]string, 0, len(deltas))
	for _, d := range deltas {
		b.publish(DeltaMessage(restaurantID, d))
		affected = append(affected, fmt.Sprintf("%s-%s", d.EntityType, d.EntityID))
	}
	if len(affected) > 0 {
		b.publish(AtomicCompleteMessage(restaurantID, transactionID, affected))
	}
}

// PublishDelta sends a single entity delta.
func (b *Broadcaster) PublishDelta(restaurantID string, d floor.Delta) {
	b.publish(DeltaMessage(restaurantID, d))
}

func (b *Broadcaster) publish(m Message) {
	payload, err := m.Encode()
	if err != nil {
		b.log.Errorf("encode %s message: %v", m.Type, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.bus.Publish(ctx, m.RestaurantID, payload); err != nil {
		// Transport failure is non-fatal: local subscribers still get
		// the update, remote ones fall back to resync.
		b.log.Warnf("bus publish failed for restaurant %s, delivering locally: %v", m.RestaurantID, err)
		b.hub.DeliverLocal(m.RestaurantID, payload)
	}
}
