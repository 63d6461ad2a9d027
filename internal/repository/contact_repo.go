package repository

import (
	"context"
	"database/sql"
	"errors"
	"streambook/internal/db"
	apperrors "streambook/internal/errors"

	"github.com/google/uuid"
)

type ContactRepository struct {
	DB *sql.DB
}

func NewContactRepository(conn *sql.DB) *ContactRepository {
	return &ContactRepository{DB: conn}
}

// GetContact returns nil without error when the account has no contact details.
func (r *ContactRepository) GetContact(ctx context.Context, accountID string) (*db.Contact, error) {
	var c db.Contact
	err := r.DB.QueryRowContext(ctx,
		`SELECT account_id, name, email, phone, language FROM contacts WHERE account_id = $1`, accountID).
		Scan(&c.AccountID, &c.Name, &c.Email, &c.Phone, &c.Language)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewStorageError("get contact", err)
	}
	return &c, nil
}

type MessageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(conn *sql.DB) *MessageRepository {
	return &MessageRepository{DB: conn}
}

func (r *MessageRepository) CreateMessage(ctx context.Context, m *db.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	query := `INSERT INTO messages (id, sender_id, receiver_id, content) VALUES ($1, $2, $3, $4) RETURNING created_at`
	if err := r.DB.QueryRowContext(ctx, query, m.ID, m.SenderID, m.ReceiverID, m.Content).Scan(&m.CreatedAt); err != nil {
		return apperrors.NewStorageError("insert message", err)
	}
	return nil
}
