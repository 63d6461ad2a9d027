package db

import (
	"streambook/internal/money"
	"time"
)

// AvailabilityConfig is a provider's streaming settings. There is one per provider.
type AvailabilityConfig struct {
	ProviderID        string                          `json:"provider_id"`
	Enabled           bool                            `json:"enabled"`
	Pricing           map[SessionDuration]money.Money `json:"pricing"`
	MaxBookingsPerDay int                             `json:"max_bookings_per_day"`
	CreatedAt         time.Time                       `json:"created_at"`
	UpdatedAt         time.Time                       `json:"updated_at"`
}

const DefaultMaxBookingsPerDay = 5

// DefaultAvailabilityConfig is what a provider without saved settings has.
func DefaultAvailabilityConfig(providerID string) AvailabilityConfig {
	pricing := make(map[SessionDuration]money.Money, len(SessionDurations))
	for _, d := range SessionDurations {
		pricing[d] = 0
	}
	return AvailabilityConfig{
		ProviderID:        providerID,
		Enabled:           false,
		Pricing:           pricing,
		MaxBookingsPerDay: DefaultMaxBookingsPerDay,
	}
}

// Price returns the configured price for d and whether d is offered.
func (c AvailabilityConfig) Price(d SessionDuration) (money.Money, bool) {
	if !d.IsValid() {
		return 0, false
	}
	return c.Pricing[d], true
}

type Booking struct {
	ID               string          `json:"id"`
	ProviderID       string          `json:"provider_id"`
	SubscriberID     string          `json:"subscriber_id"`
	DurationMinutes  SessionDuration `json:"duration_minutes"`
	ScheduledDate    string          `json:"scheduled_date"`
	ScheduledTime    string          `json:"scheduled_time"`
	StartsAt         time.Time       `json:"starts_at"`
	EndsAt           time.Time       `json:"ends_at"`
	PriceCharged     money.Money     `json:"price_charged"`
	PlatformFee      money.Money     `json:"platform_fee"`
	ProviderEarnings money.Money     `json:"provider_earnings"`
	Status           BookingStatus   `json:"status"`
	RejectionReason  *string         `json:"rejection_reason"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (b Booking) Slot() Slot {
	return Slot{Start: b.StartsAt, End: b.EndsAt}
}

// Contact is how the notification channels reach an account.
type Contact struct {
	AccountID string
	Name      string
	Email     string
	Phone     string
	Language  string
}

// Message is an in-app message delivered to an account's inbox.
type Message struct {
	ID         string
	SenderID   string
	ReceiverID string
	Content    string
	CreatedAt  time.Time
}
