package service

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"streambook/internal/db"
	"streambook/internal/entities"
	"strings"

	"go.uber.org/zap"
)

//go:embed templates/booking_email.html
var bookingEmailTemplate string

var bookingEmail = template.Must(template.New("booking_email").Parse(bookingEmailTemplate))

// ComposeBookingMessage renders the subscriber-facing text for an approved or
// cancelled booking in the recipient's language.
func ComposeBookingMessage(d entities.BookingNotificationData) (subject, body string) {
	cancelled := d.Status == db.StatusCancelled.String()
	switch d.Language {
	case "pt":
		if cancelled {
			subject = "Sua sessão de streaming foi cancelada"
			body = fmt.Sprintf("Sua sessão de streaming foi CANCELADA\n\n"+
				"Data: %s\nHorário: %s\nDuração: %d minutos\n\n"+
				"Motivo: %s\n\n"+
				"Pedimos desculpas pelo inconveniente. Você pode reservar uma nova sessão quando desejar.",
				d.DateFormatted, d.TimeFormatted, d.DurationMinutes, d.Reason)
		} else {
			subject = "Sua sessão de streaming foi aprovada"
			body = fmt.Sprintf("Sua sessão de streaming foi APROVADA!\n\n"+
				"Data: %s\nHorário: %s\nDuração: %d minutos\n\n"+
				"Por favor, esteja presente no horário agendado. Você poderá acessar a transmissão pela área de Streaming no seu painel.",
				d.DateFormatted, d.TimeFormatted, d.DurationMinutes)
		}
	case "es":
		if cancelled {
			subject = "Tu sesión de streaming fue cancelada"
			body = fmt.Sprintf("Tu sesión de streaming fue CANCELADA\n\n"+
				"Fecha: %s\nHora: %s\nDuración: %d minutos\n\n"+
				"Motivo: %s\n\n"+
				"Lamentamos las molestias. Puedes reservar una nueva sesión cuando quieras.",
				d.DateFormatted, d.TimeFormatted, d.DurationMinutes, d.Reason)
		} else {
			subject = "Tu sesión de streaming fue aprobada"
			body = fmt.Sprintf("¡Tu sesión de streaming fue APROBADA!\n\n"+
				"Fecha: %s\nHora: %s\nDuración: %d minutos\n\n"+
				"Por favor, conéctate a la hora programada. Podrás acceder a la transmisión desde la sección Streaming de tu panel.",
				d.DateFormatted, d.TimeFormatted, d.DurationMinutes)
		}
	default:
		if cancelled {
			subject = "Your streaming session was cancelled"
			body = fmt.Sprintf("Your streaming session was CANCELLED\n\n"+
				"Date: %s\nTime: %s\nDuration: %d minutes\n\n"+
				"Reason: %s\n\n"+
				"We apologise for the inconvenience. You can book a new session whenever you like.",
				d.DateFormatted, d.TimeFormatted, d.DurationMinutes, d.Reason)
		} else {
			subject = "Your streaming session was approved"
			body = fmt.Sprintf("Your streaming session was APPROVED!\n\n"+
				"Date: %s\nTime: %s\nDuration: %d minutes\n\n"+
				"Please be there at the scheduled time. You can join the stream from the Streaming area of your dashboard.",
				d.DateFormatted, d.TimeFormatted, d.DurationMinutes)
		}
	}
	return subject, body
}

// NotificationService delivers booking messages to an account's inbox and,
// when contact details and senders are available, by email and SMS.
type NotificationService struct {
	messages MessageStore
	contacts ContactDirectory
	email    EmailSender
	sms      SMSSender
	logger   *zap.Logger
}

func NewNotificationService(messages MessageStore, contacts ContactDirectory, email EmailSender, sms SMSSender, logger *zap.Logger) *NotificationService {
	return &NotificationService{messages: messages, contacts: contacts, email: email, sms: sms, logger: logger}
}

// Notify writes the in-app message right away and sends email and SMS in the
// background. Only the in-app write can fail the call.
func (s *NotificationService) Notify(ctx context.Context, n entities.NotificationPayload) error {
	if err := s.DeliverInApp(ctx, n); err != nil {
		return err
	}
	go func(ctx context.Context) {
		if err := s.deliverExternal(ctx, n); err != nil {
			s.logger.Warn("external notification failed (async)",
				zap.String("booking_id", n.BookingID),
				zap.String("recipient_id", n.RecipientID),
				zap.Error(err))
		}
	}(context.WithoutCancel(ctx))
	return nil
}

// Channels lists the external channels there is a sender for.
func (s *NotificationService) Channels() []entities.NotificationChannel {
	var chs []entities.NotificationChannel
	if s.contacts == nil {
		return chs
	}
	if s.email != nil {
		chs = append(chs, entities.ChannelEmail)
	}
	if s.sms != nil {
		chs = append(chs, entities.ChannelSMS)
	}
	return chs
}

// DeliverInApp writes the notification to the recipient's inbox.
func (s *NotificationService) DeliverInApp(ctx context.Context, n entities.NotificationPayload) error {
	if s.messages == nil {
		return nil
	}
	msg := &db.Message{SenderID: n.SenderID, ReceiverID: n.RecipientID, Content: n.Body}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		return fmt.Errorf("in-app message for %s: %w", n.RecipientID, err)
	}
	return nil
}

// DeliverChannel sends the notification on a single external channel. The
// queue worker calls it once per channel task, so a retry only repeats the
// channel that failed.
func (s *NotificationService) DeliverChannel(ctx context.Context, n entities.NotificationPayload, ch entities.NotificationChannel) error {
	contact, err := s.contact(ctx, n.RecipientID)
	if err != nil || contact == nil {
		return err
	}
	return s.send(ctx, *contact, n, ch)
}

func (s *NotificationService) deliverExternal(ctx context.Context, n entities.NotificationPayload) error {
	chs := s.Channels()
	if len(chs) == 0 {
		return nil
	}
	contact, err := s.contact(ctx, n.RecipientID)
	if err != nil || contact == nil {
		return err
	}
	var errs []error
	for _, ch := range chs {
		if err := s.send(ctx, *contact, n, ch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *NotificationService) contact(ctx context.Context, recipientID string) (*db.Contact, error) {
	if s.contacts == nil {
		return nil, nil
	}
	contact, err := s.contacts.GetContact(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("contact lookup for %s: %w", recipientID, err)
	}
	if contact == nil {
		s.logger.Debug("no contact details, skipping email and SMS", zap.String("recipient_id", recipientID))
	}
	return contact, nil
}

func (s *NotificationService) send(ctx context.Context, contact db.Contact, n entities.NotificationPayload, ch entities.NotificationChannel) error {
	switch ch {
	case entities.ChannelEmail:
		if s.email == nil || contact.Email == "" {
			return nil
		}
		html, err := renderBookingEmail(contact.Name, n.Body)
		if err != nil {
			s.logger.Warn("failed to render booking email html", zap.String("booking_id", n.BookingID), zap.Error(err))
		}
		return s.email.SendEmail(ctx, contact.Email, contact.Name, n.Subject, n.Body, html)
	case entities.ChannelSMS:
		if s.sms == nil || contact.Phone == "" {
			return nil
		}
		return s.sms.SendSMS(ctx, contact.Phone, smsText(n))
	default:
		return fmt.Errorf("unknown notification channel %q", ch)
	}
}

func renderBookingEmail(name, body string) (string, error) {
	greeting := "Hello,"
	if name != "" {
		greeting = fmt.Sprintf("Hello %s,", name)
	}
	var buf bytes.Buffer
	err := bookingEmail.Execute(&buf, struct {
		Greeting   string
		Paragraphs []string
	}{greeting, strings.Split(body, "\n\n")})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// smsText keeps the message to its first paragraph plus the schedule lines.
func smsText(n entities.NotificationPayload) string {
	parts := strings.SplitN(n.Body, "\n\n", 3)
	if len(parts) < 2 {
		return "Streambook: " + n.Body
	}
	return "Streambook: " + parts[0] + "\n" + parts[1]
}
