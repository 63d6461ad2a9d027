package entities

type BookingRequest struct {
	ProviderID      string `json:"provider_id" validate:"required"`
	SubscriberID    string `json:"-"`
	DurationMinutes int    `json:"duration_minutes"`
	ScheduledDate   string `json:"scheduled_date" validate:"required,date"`
	ScheduledTime   string `json:"scheduled_time" validate:"required,clock"`
}

// BookingFilter narrows provider and subscriber listings. Empty fields match everything.
type BookingFilter struct {
	Status string
	Date   string
}
