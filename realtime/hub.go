package realtime

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Hub is the per-process connection registry: restaurant id -> set of
// live subscriber connections. It joins the fan-out bus channel for a
// restaurant while at least one local subscriber is attached and leaves
// when the last one disconnects. Constructed once per process and passed
// by handle; there is no package-level instance.
type Hub struct {
	bus Bus
	log *logrus.Logger

	// lifecycle serializes the bus join/leave calls with the membership
	// changes that decide them, so a reconnect landing while a
	// last-subscriber teardown is still inside bus.Unsubscribe cannot
	// have its fresh subscription torn down underneath it. Always taken
	// before mu, never while holding it.
	lifecycle sync.Mutex

	mu    sync.Mutex
	rooms map[string]map[*Client]struct{}
}

func NewHub(bus Bus, log *logrus.Logger) *Hub {
	return &Hub{
		bus:   bus,
		log:   log,
		rooms: make(map[string]map[*Client]struct{}),
	}
}

// Register attaches a subscriber to its restaurant's room.
func (h *Hub) Register(c *Client) {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	h.mu.Lock()
	room, ok := h.rooms[c.restaurantID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.restaurantID] = room
	}
	room[c] = struct{}{}
	count := len(room)
	h.mu.Unlock()

	if !ok {
		if err := h.bus.Subscribe(c.restaurantID, h.DeliverLocal); err != nil {
			h.log.Warnf("bus subscribe for restaurant %s failed: %v", c.restaurantID, err)
		}
	}
	h.log.Infof("subscriber connected to restaurant %s (local connections: %d)", c.restaurantID, count)
}

// Unregister detaches a subscriber. Safe to call more than once for the
// same client.
func (h *Hub) Unregister(c *Client) {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	h.mu.Lock()
	room := h.rooms[c.restaurantID]
	if room == nil {
		h.mu.Unlock()
		c.close()
		return
	}
	if _, ok := room[c]; !ok {
		h.mu.Unlock()
		c.close()
		return
	}
	delete(room, c)
	last := len(room) == 0
	if last {
		delete(h.rooms, c.restaurantID)
	}
	remaining := len(room)
	h.mu.Unlock()

	c.close()
	if last {
		if err := h.bus.Unsubscribe(c.restaurantID); err != nil {
			h.log.Warnf("bus unsubscribe for restaurant %s failed: %v", c.restaurantID, err)
		}
	}
	h.log.Infof("subscriber disconnected from restaurant %s (remaining: %d)", c.restaurantID, remaining)
}

// DeliverLocal pushes a payload to every local subscriber of the
// restaurant. The room is copied before iterating so a disconnect during
// delivery never corrupts the loop; a subscriber whose send buffer is
// full is treated as dead and dropped rather than waited on.
func (h *Hub) DeliverLocal(restaurantID string, payload []byte) {
	h.mu.Lock()
	room := h.rooms[restaurantID]
	clients := make([]*Client, 0, len(room))
	for c := range room {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if !c.trySend(payload) {
			h.log.Warnf("dropping unresponsive subscriber of restaurant %s", restaurantID)
			h.Unregister(c)
		}
	}
}

// LocalSubscribers reports the number of local connections for a
// restaurant.
func (h *Hub) LocalSubscribers(restaurantID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[restaurantID])
}
