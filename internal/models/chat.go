package models

import "time"

// MessageKind buckets a direct message by its payload.
type MessageKind string

const (
	MessageKindText     MessageKind = "text"
	MessageKindImage    MessageKind = "image"
	MessageKindVideo    MessageKind = "video"
	MessageKindAudio    MessageKind = "audio"
	MessageKindDocument MessageKind = "document"
)

// Valid reports whether k is a known message kind.
func (k MessageKind) Valid() bool {
	switch k {
	case MessageKindText, MessageKindImage, MessageKindVideo, MessageKindAudio, MessageKindDocument:
		return true
	}
	return false
}

// DirectMessage is a peer-to-peer message between two actors. Attachment
// fields hold metadata only; raw bytes live in upload storage.
type DirectMessage struct {
	ID             string      `db:"id" json:"id"`
	SenderID       string      `db:"sender_id" json:"sender_id"`
	ReceiverID     string      `db:"receiver_id" json:"receiver_id"`
	Content        string      `db:"content" json:"content"`
	Kind           MessageKind `db:"kind" json:"kind"`
	AttachmentURL  *string     `db:"attachment_url" json:"attachment_url,omitempty"`
	AttachmentName *string     `db:"attachment_name" json:"attachment_name,omitempty"`
	AttachmentSize *int64      `db:"attachment_size" json:"attachment_size,omitempty"`
	IsRead         bool        `db:"is_read" json:"is_read"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

// Conversation is a derived per-peer summary; it is never stored. Unread
// counts only messages the peer sent to the requesting actor.
type Conversation struct {
	PeerID         string    `db:"peer_id" json:"peer_id"`
	PeerName       string    `db:"peer_name" json:"peer_name"`
	PeerRole       UserRole  `db:"peer_role" json:"peer_role"`
	UnreadCount    int       `db:"unread_count" json:"unread_count"`
	LastContent    string    `db:"last_content" json:"last_content"`
	LastTime       time.Time `db:"last_time" json:"last_time"`
	LastIsSentByMe bool      `db:"last_is_sent_by_me" json:"last_is_sent_by_me"`
}
