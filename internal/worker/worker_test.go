package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"streambook/internal/db"
	"streambook/internal/entities"
	"streambook/internal/repository"
	"streambook/internal/service"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingDeliverer struct {
	inbox []entities.NotificationPayload
	got   map[entities.NotificationChannel][]entities.NotificationPayload
	err   error
}

func (d *recordingDeliverer) DeliverInApp(_ context.Context, n entities.NotificationPayload) error {
	d.inbox = append(d.inbox, n)
	return nil
}

func (d *recordingDeliverer) DeliverChannel(_ context.Context, n entities.NotificationPayload, ch entities.NotificationChannel) error {
	if d.got == nil {
		d.got = make(map[entities.NotificationChannel][]entities.NotificationPayload)
	}
	d.got[ch] = append(d.got[ch], n)
	return d.err
}

func (d *recordingDeliverer) Channels() []entities.NotificationChannel {
	return []entities.NotificationChannel{entities.ChannelEmail, entities.ChannelSMS}
}

type recordingEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (e *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(e.tasks))}, nil
}

func samplePayload() entities.NotificationPayload {
	return entities.NotificationPayload{
		SenderID:    "prov-1",
		RecipientID: "sub-1",
		Subject:     "approved",
		Body:        "Your streaming session was APPROVED!\n\nDate: 10/03/2026\nTime: 14:00",
		BookingID:   "b-1",
	}
}

func TestHandleBookingNotification(t *testing.T) {
	payload := samplePayload()
	task, err := NewBookingNotificationTask(payload, entities.ChannelSMS)
	require.NoError(t, err)
	assert.Equal(t, TypeBookingNotification, task.Type())

	d := &recordingDeliverer{}
	require.NoError(t, HandleBookingNotification(d, zap.NewNop())(context.Background(), task))
	require.Len(t, d.got[entities.ChannelSMS], 1)
	assert.Equal(t, payload, d.got[entities.ChannelSMS][0])
	assert.Empty(t, d.got[entities.ChannelEmail])
	assert.Empty(t, d.inbox)
}

func TestHandleBookingNotificationReturnsDeliveryErrorForRetry(t *testing.T) {
	task, err := NewBookingNotificationTask(entities.NotificationPayload{RecipientID: "sub-1"}, entities.ChannelEmail)
	require.NoError(t, err)

	boom := errors.New("sendgrid down")
	err = HandleBookingNotification(&recordingDeliverer{err: boom}, zap.NewNop())(context.Background(), task)
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleBookingNotificationSkipsMalformedPayload(t *testing.T) {
	for name, raw := range map[string]string{
		"no recipient":    `{"recipient_id": "", "channel": "email"}`,
		"unknown channel": `{"recipient_id": "sub-1", "channel": "fax"}`,
		"not json":        `{`,
	} {
		t.Run(name, func(t *testing.T) {
			d := &recordingDeliverer{}
			task := asynq.NewTask(TypeBookingNotification, []byte(raw))
			err := HandleBookingNotification(d, zap.NewNop())(context.Background(), task)
			assert.ErrorIs(t, err, asynq.SkipRetry)
			assert.Empty(t, d.got)
		})
	}
}

func TestQueuedNotifierWritesInboxAndQueuesEachChannel(t *testing.T) {
	d := &recordingDeliverer{}
	q := &recordingEnqueuer{}
	require.NoError(t, NewQueuedNotifier(q, d, zap.NewNop()).Notify(context.Background(), samplePayload()))

	require.Len(t, d.inbox, 1)
	require.Len(t, q.tasks, 2)
	var channels []entities.NotificationChannel
	for _, task := range q.tasks {
		_, ch, err := parseBookingNotification(task)
		require.NoError(t, err)
		channels = append(channels, ch)
	}
	assert.ElementsMatch(t, []entities.NotificationChannel{entities.ChannelEmail, entities.ChannelSMS}, channels)
}

func TestQueuedNotifierReportsEnqueueFailure(t *testing.T) {
	d := &recordingDeliverer{}
	boom := errors.New("redis down")
	err := NewQueuedNotifier(&recordingEnqueuer{err: boom}, d, zap.NewNop()).Notify(context.Background(), samplePayload())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, d.inbox, 1)
}

type flakyEmail struct {
	calls atomic.Int32
}

func (e *flakyEmail) SendEmail(context.Context, string, string, string, string, string) error {
	e.calls.Add(1)
	return errors.New("sendgrid 503")
}

type countingSMS struct {
	calls atomic.Int32
}

func (s *countingSMS) SendSMS(context.Context, string, string) error {
	s.calls.Add(1)
	return nil
}

func TestRetriedEmailTaskDoesNotRepeatOtherChannels(t *testing.T) {
	store := repository.NewMemoryStore(nil, zap.NewNop())
	store.PutContact(db.Contact{AccountID: "sub-1", Email: "ana@example.com", Phone: "+5511999990000"})
	email := &flakyEmail{}
	sms := &countingSMS{}
	notifications := service.NewNotificationService(store, store, email, sms, zap.NewNop())
	q := &recordingEnqueuer{}
	ctx := context.Background()

	require.NoError(t, NewQueuedNotifier(q, notifications, zap.NewNop()).Notify(ctx, samplePayload()))
	require.Len(t, q.tasks, 2)

	// asynq runs the failing email task again on every retry.
	handle := HandleBookingNotification(notifications, zap.NewNop())
	for _, task := range q.tasks {
		_, ch, err := parseBookingNotification(task)
		require.NoError(t, err)
		attempts := 1
		if ch == entities.ChannelEmail {
			attempts = 3
		}
		for i := 0; i < attempts; i++ {
			err := handle(ctx, task)
			if ch == entities.ChannelEmail {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		}
	}

	assert.Len(t, store.Messages("sub-1"), 1)
	assert.Equal(t, int32(3), email.calls.Load())
	assert.Equal(t, int32(1), sms.calls.Load())
}

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) CompleteElapsedBookings(context.Context) (int, error) {
	s.calls.Add(1)
	return 0, nil
}

func TestStartCompletionSweep(t *testing.T) {
	s := &countingSweeper{}
	c, err := StartCompletionSweep("@every 1s", s, zap.NewNop())
	require.NoError(t, err)
	defer c.Stop()

	assert.Eventually(t, func() bool { return s.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestStartCompletionSweepRejectsBadSchedule(t *testing.T) {
	_, err := StartCompletionSweep("every minute please", &countingSweeper{}, zap.NewNop())
	assert.Error(t, err)
}
