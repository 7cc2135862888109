package api

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const alertChannel = "cargoplan:alerts"

// RedisBroker is the AlertBroker over Redis Pub/Sub, letting multiple API
// replicas share one alert stream.
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker(url string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisBroker{rdb: redis.NewClient(opt)}, nil
}

func (b *RedisBroker) Subscribe() chan AlertEvent {
	ch := make(chan AlertEvent, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, alertChannel)
	_, _ = ps.Receive(ctx)
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt AlertEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err == nil {
				select {
				case ch <- evt:
				default:
				}
			}
		}
	}()
	return ch
}

func (b *RedisBroker) Unsubscribe(ch chan AlertEvent) {
	// The pubsub goroutine closes ch when the subscription ends; dropping
	// the reader is enough here.
}

func (b *RedisBroker) Publish(evt AlertEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	_ = b.rdb.Publish(ctx, alertChannel, data).Err()
}
