package events

import (
	"context"
	"encoding/json"
	"fmt"
	"streambook/internal/entities"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const subscriberBuffer = 16

type RedisBus struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisBus(client *redis.Client, logger *zap.Logger) *RedisBus {
	return &RedisBus{client: client, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, evt entities.BookingEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("error encoding booking event: %w", err)
	}
	for _, ch := range channelsFor(evt) {
		if err := b.client.Publish(ctx, ch, payload).Err(); err != nil {
			return fmt.Errorf("error publishing booking event to %s: %w", ch, err)
		}
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, channel string) (<-chan entities.BookingEvent, func(), error) {
	ps := b.client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, nil, fmt.Errorf("error subscribing to %s: %w", channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan entities.BookingEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var evt entities.BookingEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					b.logger.Warn("discarding malformed booking event", zap.String("channel", channel), zap.Error(err))
					continue
				}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, cancel, nil
}
