package api

import (
	"sync"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
)

// AlertEvent is one alert as published to live subscribers.
type AlertEvent struct {
	RunID string      `json:"run_id"`
	Alert model.Alert `json:"alert"`
}

// AlertBroker fans plan alerts out to SSE and WebSocket subscribers.
type AlertBroker interface {
	Subscribe() chan AlertEvent
	Unsubscribe(ch chan AlertEvent)
	Publish(evt AlertEvent)
}

// Broker is the in-process AlertBroker used when REDIS_URL is unset.
type Broker struct {
	mu   sync.Mutex
	subs map[chan AlertEvent]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan AlertEvent]struct{})}
}

func (b *Broker) Subscribe() chan AlertEvent {
	ch := make(chan AlertEvent, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(ch chan AlertEvent) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish never blocks; slow subscribers drop events.
func (b *Broker) Publish(evt AlertEvent) {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
