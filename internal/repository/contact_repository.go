package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/padepokan-dev/silat-admin-api/internal/models"
)

// ContactRepository handles persistence for public contact messages.
type ContactRepository struct {
	db *sqlx.DB
}

// NewContactRepository instantiates a contact repository.
func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// List returns contact messages matching the provided filters.
func (r *ContactRepository) List(ctx context.Context, filter models.ContactFilter) ([]models.ContactMessage, int, error) {
	base := "FROM contact_messages WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Unread != nil {
		conditions = append(conditions, fmt.Sprintf("is_read = $%d", len(args)+1))
		args = append(args, !*filter.Unread)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, name, email, phone, subject, body, is_read, created_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)

	var messages []models.ContactMessage
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list contact messages: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count contact messages: %w", err)
	}

	return messages, total, nil
}

// ListUnread returns the most recent unread messages, capped at limit.
func (r *ContactRepository) ListUnread(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	query := fmt.Sprintf("SELECT id, name, email, phone, subject, body, is_read, created_at FROM contact_messages WHERE is_read = FALSE ORDER BY created_at DESC LIMIT %d", limit)
	var messages []models.ContactMessage
	if err := r.db.SelectContext(ctx, &messages, query); err != nil {
		return nil, fmt.Errorf("list unread contact messages: %w", err)
	}
	return messages, nil
}

// CountUnread returns the total number of unread messages.
func (r *ContactRepository) CountUnread(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM contact_messages WHERE is_read = FALSE"); err != nil {
		return 0, fmt.Errorf("count unread contact messages: %w", err)
	}
	return total, nil
}

// FindByID loads a contact message by identifier.
func (r *ContactRepository) FindByID(ctx context.Context, id string) (*models.ContactMessage, error) {
	const query = `SELECT id, name, email, phone, subject, body, is_read, created_at FROM contact_messages WHERE id = $1`
	var message models.ContactMessage
	if err := r.db.GetContext(ctx, &message, query, id); err != nil {
		return nil, err
	}
	return &message, nil
}

// Create inserts a new contact message.
func (r *ContactRepository) Create(ctx context.Context, message *models.ContactMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO contact_messages (id, name, email, phone, subject, body, is_read, created_at)
VALUES (:id, :name, :email, :phone, :subject, :body, :is_read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create contact message: %w", err)
	}
	return nil
}

// MarkRead flips a single message to read.
func (r *ContactRepository) MarkRead(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE contact_messages SET is_read = TRUE WHERE id = $1", id); err != nil {
		return fmt.Errorf("mark contact message read: %w", err)
	}
	return nil
}

// MarkAllRead flips every unread message to read in one statement.
func (r *ContactRepository) MarkAllRead(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE contact_messages SET is_read = TRUE WHERE is_read = FALSE"); err != nil {
		return fmt.Errorf("mark all contact messages read: %w", err)
	}
	return nil
}

// Delete removes a contact message.
func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM contact_messages WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete contact message: %w", err)
	}
	return nil
}
