package entities

import (
	"streambook/internal/db"
	"streambook/internal/money"
)

// AvailabilityUpdate is the full replacement a provider submits for its settings.
type AvailabilityUpdate struct {
	Enabled           bool                               `json:"enabled"`
	Pricing           map[db.SessionDuration]money.Money `json:"pricing"`
	MaxBookingsPerDay int                                `json:"max_bookings_per_day" validate:"gte=1"`
}

// AvailabilityView is what subscribers see before booking.
type AvailabilityView struct {
	ProviderID        string                             `json:"provider_id"`
	Enabled           bool                               `json:"enabled"`
	Pricing           map[db.SessionDuration]money.Money `json:"pricing"`
	MaxBookingsPerDay int                                `json:"max_bookings_per_day"`
	MinLeadMinutes    int                                `json:"min_lead_minutes"`
}
