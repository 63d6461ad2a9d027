package worker

import (
	"encoding/json"
	"fmt"
	"streambook/internal/entities"

	"github.com/hibiken/asynq"
)

const (
	TypeBookingNotification = "booking:notify"
	notificationQueue       = "notifications"
)

// channelNotification is the task payload: one notification on one channel.
type channelNotification struct {
	entities.NotificationPayload
	Channel entities.NotificationChannel `json:"channel"`
}

func NewBookingNotificationTask(p entities.NotificationPayload, ch entities.NotificationChannel) (*asynq.Task, error) {
	b, err := json.Marshal(channelNotification{NotificationPayload: p, Channel: ch})
	if err != nil {
		return nil, fmt.Errorf("error encoding notification payload: %w", err)
	}
	return asynq.NewTask(TypeBookingNotification, b), nil
}

func parseBookingNotification(task *asynq.Task) (entities.NotificationPayload, entities.NotificationChannel, error) {
	var p channelNotification
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p.NotificationPayload, "", fmt.Errorf("invalid notification payload: %w", err)
	}
	if p.RecipientID == "" {
		return p.NotificationPayload, "", fmt.Errorf("notification payload has no recipient")
	}
	if !p.Channel.IsValid() {
		return p.NotificationPayload, "", fmt.Errorf("notification payload has unknown channel %q", p.Channel)
	}
	return p.NotificationPayload, p.Channel, nil
}
