package marketing

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const defaultSubject = "General Inquiry"

// Store is the marketing persistence surface the handlers depend on.
type Store interface {
	UpsertSubscription(ctx context.Context, email string) (Subscription, error)
	InsertContactMessage(ctx context.Context, nm NewContactMessage) (ContactMessage, error)
	ListContactMessages(ctx context.Context) ([]ContactMessage, error)
}

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// UpsertSubscription subscribes an email, flipping the flag back on for
// addresses that unsubscribed earlier instead of erroring.
func (c *Conf) UpsertSubscription(ctx context.Context, email string) (Subscription, error) {
	query := `
		INSERT INTO newsletter_subscriptions (email, subscribed, created_at, updated_at)
		VALUES ($1, true, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET subscribed = true, updated_at = NOW()
		RETURNING email, subscribed, created_at, updated_at`

	var s Subscription
	err := c.db.QueryRowContext(ctx, query, email).Scan(&s.Email, &s.Subscribed, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Subscription{}, fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return s, nil
}

func (c *Conf) InsertContactMessage(ctx context.Context, nm NewContactMessage) (ContactMessage, error) {
	subject := nm.Subject
	if subject == "" {
		subject = defaultSubject
	}

	m := ContactMessage{
		ID:      uuid.NewString(),
		Name:    nm.Name,
		Email:   nm.Email,
		Subject: subject,
		Message: nm.Message,
		Status:  "new",
	}
	query := `
		INSERT INTO contact_messages (id, name, email, subject, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at`
	err := c.db.QueryRowContext(ctx, query, m.ID, m.Name, m.Email, m.Subject, m.Message, m.Status).Scan(&m.CreatedAt)
	if err != nil {
		return ContactMessage{}, fmt.Errorf("failed to insert contact message: %w", err)
	}
	return m, nil
}

func (c *Conf) ListContactMessages(ctx context.Context) ([]ContactMessage, error) {
	query := `
		SELECT id, name, email, subject, message, status, created_at
		FROM contact_messages
		ORDER BY created_at DESC`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact messages: %w", err)
	}
	defer rows.Close()

	list := []ContactMessage{}
	for rows.Next() {
		var m ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact message: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact messages: %w", err)
	}
	return list, nil
}
