package worker

import (
	"context"
	"errors"
	"fmt"
	"streambook/internal/entities"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const maxNotificationRetries = 5

// Deliverer writes the in-app message once and sends each external channel on
// its own, so a failed channel can be retried without repeating the others.
type Deliverer interface {
	DeliverInApp(ctx context.Context, n entities.NotificationPayload) error
	DeliverChannel(ctx context.Context, n entities.NotificationPayload, ch entities.NotificationChannel) error
	Channels() []entities.NotificationChannel
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueuedNotifier writes the inbox message inline and hands email and SMS to
// the asynq queue, one task per channel.
type QueuedNotifier struct {
	client    Enqueuer
	deliverer Deliverer
	logger    *zap.Logger
}

func NewQueuedNotifier(client Enqueuer, deliverer Deliverer, logger *zap.Logger) *QueuedNotifier {
	return &QueuedNotifier{client: client, deliverer: deliverer, logger: logger}
}

func (q *QueuedNotifier) Notify(ctx context.Context, n entities.NotificationPayload) error {
	if err := q.deliverer.DeliverInApp(ctx, n); err != nil {
		return err
	}
	var errs []error
	for _, ch := range q.deliverer.Channels() {
		task, err := NewBookingNotificationTask(n, ch)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		info, err := q.client.EnqueueContext(ctx, task,
			asynq.Queue(notificationQueue),
			asynq.MaxRetry(maxNotificationRetries),
			asynq.Timeout(30*time.Second),
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("error enqueueing %s notification for %s: %w", ch, n.RecipientID, err))
			continue
		}
		q.logger.Debug("notification queued",
			zap.String("task_id", info.ID),
			zap.String("channel", string(ch)),
			zap.String("booking_id", n.BookingID))
	}
	return errors.Join(errs...)
}

type NotificationWorker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewNotificationWorker(opt asynq.RedisClientOpt, deliverer Deliverer, logger *zap.Logger) *NotificationWorker {
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			notificationQueue: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBookingNotification, HandleBookingNotification(deliverer, logger))
	return &NotificationWorker{srv: srv, mux: mux, logger: logger}
}

// Start runs the worker in the background.
func (w *NotificationWorker) Start() error {
	if err := w.srv.Start(w.mux); err != nil {
		return fmt.Errorf("error starting notification worker: %w", err)
	}
	w.logger.Info("notification worker started")
	return nil
}

func (w *NotificationWorker) Shutdown() {
	w.srv.Shutdown()
}

func HandleBookingNotification(deliverer Deliverer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, ch, err := parseBookingNotification(task)
		if err != nil {
			logger.Error("dropping notification task", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err := deliverer.DeliverChannel(ctx, p, ch); err != nil {
			logger.Warn("notification delivery failed",
				zap.String("channel", string(ch)),
				zap.String("booking_id", p.BookingID),
				zap.String("recipient_id", p.RecipientID),
				zap.Error(err))
			return err
		}
		return nil
	}
}
