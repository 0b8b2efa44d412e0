package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// writeWait bounds every send; a subscriber that cannot take a
	// frame within it is treated as disconnected.
	writeWait = 10 * time.Second

	// pongWait is the liveness interval: any traffic (including pong
	// frames) must arrive within it.
	pongWait = 35 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
	sendBufferSize = 64
)

// Client is one websocket subscriber attached to a restaurant.
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	restaurantID string
	log          *logrus.Logger

	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, restaurantID string, log *logrus.Logger) *Client {
	return &Client{
		hub:          hub,
		conn:         conn,
		restaurantID: restaurantID,
		log:          log,
		send:         make(chan []byte, sendBufferSize),
		done:         make(chan struct{}),
	}
}

// Run registers the client, confirms the connection and pumps messages
// until the peer goes away. It blocks until the read side closes.
func (c *Client) Run() {
	c.hub.Register(c)

	if payload, err := (Message{
		Type:         TypeConnectionEstablished,
		RestaurantID: c.restaurantID,
		Timestamp:    time.Now().UTC(),
	}).Encode(); err == nil {
		c.trySend(payload)
	}

	go c.writePump()
	c.readPump()
}

// trySend enqueues a payload without blocking. False means the client is
// gone or too slow to keep.
func (c *Client) trySend(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

func (c *Client) readPump() {
	defer c.hub.Unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warnf("subscriber read error: %v", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		// The client may send an application-level ping as well.
		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &msg); err == nil && msg.Type == TypePing {
			if payload, err := (Message{
				Type:         TypePong,
				RestaurantID: c.restaurantID,
				Timestamp:    time.Now().UTC(),
			}).Encode(); err == nil {
				c.trySend(payload)
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unregister(c)
	}()

	for {
		select {
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			// No traffic for a while: push a heartbeat and a protocol
			// ping. The read deadline handles the grace window.
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if payload, err := (Message{
				Type:         TypeHeartbeat,
				RestaurantID: c.restaurantID,
				Timestamp:    time.Now().UTC(),
			}).Encode(); err == nil {
				if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
