package entities

// BookingNotificationData feeds the approval and cancellation messages.
type BookingNotificationData struct {
	BookingID       string
	RecipientName   string
	DateFormatted   string
	TimeFormatted   string
	DurationMinutes int
	Reason          string
	Language        string
	Status          string
}

// NotificationPayload is one message for one recipient, queued or sent inline.
type NotificationPayload struct {
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	BookingID   string `json:"booking_id"`
}

// NotificationChannel is an external route a notification can take besides the inbox.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

func (c NotificationChannel) IsValid() bool {
	return c == ChannelEmail || c == ChannelSMS
}
