package realtime

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisBus spans worker processes with one pub/sub channel per
// restaurant. Each worker holding local subscribers for a restaurant
// listens on that channel; a publish from any worker reaches all of
// them, including the publisher.
type RedisBus struct {
	client *redis.Client
	log    *logrus.Logger

	mu   sync.Mutex
	subs map[string]*redisSubscription
}

type redisSubscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

func NewRedisBus(client *redis.Client, log *logrus.Logger) *RedisBus {
	return &RedisBus{
		client: client,
		log:    log,
		subs:   make(map[string]*redisSubscription),
	}
}

func channelName(restaurantID string) string {
	return "restaurant:" + restaurantID + ":updates"
}

func (b *RedisBus) Publish(ctx context.Context, restaurantID string, payload []byte) error {
	return b.client.Publish(ctx, channelName(restaurantID), payload).Err()
}

func (b *RedisBus) Subscribe(restaurantID string, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[restaurantID]; ok {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	pubsub := b.client.Subscribe(ctx, channelName(restaurantID))
	b.subs[restaurantID] = &redisSubscription{pubsub: pubsub, cancel: cancel}

	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				h(restaurantID, []byte(msg.Payload))
			case <-ctx.Done():
				return
			}
		}
	}()

	b.log.Infof("subscribed to channel %s", channelName(restaurantID))
	return nil
}

func (b *RedisBus) Unsubscribe(restaurantID string) error {
	b.mu.Lock()
	sub, ok := b.subs[restaurantID]
	if ok {
		delete(b.subs, restaurantID)
	}
	b.mu.Unlock()
	if !ok {
		return nil
	}

	sub.cancel()
	err := sub.pubsub.Close()
	b.log.Infof("unsubscribed from channel %s", channelName(restaurantID))
	return err
}

func (b *RedisBus) Close() error {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[string]*redisSubscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
		_ = sub.pubsub.Close()
	}
	return b.client.Close()
}
