package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/padepokan-dev/silat-admin-api/internal/models"
)

// ChatRepository handles persistence for direct messages. Conversations are
// derived per query, never stored.
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository instantiates a chat repository.
func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create inserts a new direct message.
func (r *ChatRepository) Create(ctx context.Context, message *models.DirectMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO direct_messages (id, sender_id, receiver_id, content, kind, attachment_url, attachment_name, attachment_size, is_read, created_at)
VALUES (:id, :sender_id, :receiver_id, :content, :kind, :attachment_url, :attachment_name, :attachment_size, :is_read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create direct message: %w", err)
	}
	return nil
}

// FindByID loads a single message.
func (r *ChatRepository) FindByID(ctx context.Context, id string) (*models.DirectMessage, error) {
	const query = `SELECT id, sender_id, receiver_id, content, kind, attachment_url, attachment_name, attachment_size, is_read, created_at
FROM direct_messages WHERE id = $1`
	var message models.DirectMessage
	if err := r.db.GetContext(ctx, &message, query, id); err != nil {
		return nil, err
	}
	return &message, nil
}

// History returns every message exchanged between two actors ordered by
// time ascending. Symmetric in its arguments.
func (r *ChatRepository) History(ctx context.Context, actorA, actorB string) ([]models.DirectMessage, error) {
	const query = `SELECT id, sender_id, receiver_id, content, kind, attachment_url, attachment_name, attachment_size, is_read, created_at
FROM direct_messages
WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
ORDER BY created_at ASC`
	var messages []models.DirectMessage
	if err := r.db.SelectContext(ctx, &messages, query, actorA, actorB); err != nil {
		return nil, fmt.Errorf("chat history: %w", err)
	}
	return messages, nil
}

// MarkReadFrom flips every unread message sent by sender to receiver.
func (r *ChatRepository) MarkReadFrom(ctx context.Context, receiverID, senderID string) error {
	const query = `UPDATE direct_messages SET is_read = TRUE WHERE receiver_id = $1 AND sender_id = $2 AND is_read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, receiverID, senderID); err != nil {
		return fmt.Errorf("mark chat read: %w", err)
	}
	return nil
}

// Conversations derives the distinct peers the actor has exchanged messages
// with, each annotated with an unread count and the most recent message.
func (r *ChatRepository) Conversations(ctx context.Context, actorID string) ([]models.Conversation, error) {
	const query = `SELECT c.peer_id, c.peer_name, c.peer_role, COALESCE(un.cnt, 0) AS unread_count,
c.last_content, c.last_time, c.last_is_sent_by_me
FROM (
	SELECT DISTINCT ON (peer_id)
		CASE WHEN m.sender_id = $1 THEN m.receiver_id ELSE m.sender_id END AS peer_id,
		u.full_name AS peer_name,
		u.role AS peer_role,
		m.content AS last_content,
		m.created_at AS last_time,
		(m.sender_id = $1) AS last_is_sent_by_me
	FROM direct_messages m
	JOIN users u ON u.id = CASE WHEN m.sender_id = $1 THEN m.receiver_id ELSE m.sender_id END
	WHERE m.sender_id = $1 OR m.receiver_id = $1
	ORDER BY peer_id, m.created_at DESC
) c
LEFT JOIN (
	SELECT sender_id AS peer_id, COUNT(*) AS cnt
	FROM direct_messages
	WHERE receiver_id = $1 AND is_read = FALSE
	GROUP BY sender_id
) un ON un.peer_id = c.peer_id
ORDER BY c.last_time DESC`
	var conversations []models.Conversation
	if err := r.db.SelectContext(ctx, &conversations, query, actorID); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

// CountUnreadFor returns the total number of unread messages addressed to
// the actor across all peers.
func (r *ChatRepository) CountUnreadFor(ctx context.Context, actorID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM direct_messages WHERE receiver_id = $1 AND is_read = FALSE", actorID); err != nil {
		return 0, fmt.Errorf("count unread chats: %w", err)
	}
	return total, nil
}
