package events

import (
	"context"
	"streambook/internal/entities"
)

type Publisher interface {
	Publish(ctx context.Context, evt entities.BookingEvent) error
}

// Subscriber streams events for one channel until ctx is done or the returned
// stop function is called.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan entities.BookingEvent, func(), error)
}

type Bus interface {
	Publisher
	Subscriber
}

func ProviderChannel(providerID string) string {
	return "bookings:provider:" + providerID
}

func SubscriberChannel(subscriberID string) string {
	return "bookings:subscriber:" + subscriberID
}

// channelsFor lists every channel an event is delivered to.
func channelsFor(evt entities.BookingEvent) []string {
	return []string{ProviderChannel(evt.ProviderID), SubscriberChannel(evt.SubscriberID)}
}
