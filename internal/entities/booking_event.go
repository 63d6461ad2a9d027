package entities

import (
	"streambook/internal/db"
	"time"
)

// BookingEvent is the targeted change notice published after a booking is
// written. Consumers merge it into their own state instead of refetching.
type BookingEvent struct {
	BookingID    string           `json:"booking_id"`
	ProviderID   string           `json:"provider_id"`
	SubscriberID string           `json:"subscriber_id"`
	Status       db.BookingStatus `json:"status"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

func NewBookingEvent(b db.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		BookingID:    b.ID,
		ProviderID:   b.ProviderID,
		SubscriberID: b.SubscriberID,
		Status:       b.Status,
		OccurredAt:   at,
	}
}
