package events

import (
	"context"
	"streambook/internal/entities"
	"sync"
)

// MemoryBus delivers events inside a single process. Slow subscribers drop events.
type MemoryBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan entities.BookingEvent
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[int]chan entities.BookingEvent)}
}

func (b *MemoryBus) Publish(_ context.Context, evt entities.BookingEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range channelsFor(evt) {
		for _, sub := range b.subs[ch] {
			select {
			case sub <- evt:
			default:
			}
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, channel string) (<-chan entities.BookingEvent, func(), error) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	sub := make(chan entities.BookingEvent, subscriberBuffer)
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[int]chan entities.BookingEvent)
	}
	b.subs[channel][id] = sub
	b.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[channel], id)
			close(sub)
			b.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return sub, stop, nil
}
