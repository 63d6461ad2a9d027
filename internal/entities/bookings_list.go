package entities

import "streambook/internal/db"

type BookingsList struct {
	Total    int          `json:"total"`
	Bookings []db.Booking `json:"bookings"`
}
