package service

import (
	"context"
	"database/sql"
	"errors"
	"mime/multipart"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/padepokan-dev/silat-admin-api/internal/models"
	appErrors "github.com/padepokan-dev/silat-admin-api/pkg/errors"
	"github.com/padepokan-dev/silat-admin-api/pkg/resilience"
	"github.com/padepokan-dev/silat-admin-api/pkg/storage"
)

type chatRepository interface {
	Create(ctx context.Context, message *models.DirectMessage) error
	FindByID(ctx context.Context, id string) (*models.DirectMessage, error)
	History(ctx context.Context, actorA, actorB string) ([]models.DirectMessage, error)
	MarkReadFrom(ctx context.Context, receiverID, senderID string) error
	Conversations(ctx context.Context, actorID string) ([]models.Conversation, error)
}

type chatUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type attachmentStore interface {
	SaveUpload(header *multipart.FileHeader) (*storage.Attachment, error)
	Open(filename string) (*os.File, error)
}

type attachmentSigner interface {
	Generate(messageID, relPath string) (string, time.Time, error)
	Parse(token string) (messageID, relPath string, expiresAt time.Time, err error)
}

// ChatService stores peer-to-peer messages and derives conversation views.
// Delivery is pull-based; clients poll history and conversation lists.
type ChatService struct {
	repo    chatRepository
	users   chatUserRepository
	uploads attachmentStore
	signer  attachmentSigner
	runner  *resilience.Runner
	logger  *zap.Logger
}

// NewChatService constructs the service.
func NewChatService(repo chatRepository, users chatUserRepository, uploads attachmentStore, signer attachmentSigner, runner *resilience.Runner, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{repo: repo, users: users, uploads: uploads, signer: signer, runner: runner, logger: logger}
}

// AttachmentToken describes a short-lived download grant for one attachment.
type AttachmentToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SendMessageRequest describes an outgoing message. Attachment is the raw
// multipart part when the message carries a file.
type SendMessageRequest struct {
	ReceiverID string
	Content    string
	Kind       models.MessageKind
	Attachment *multipart.FileHeader
}

// Send persists one message. Content may be empty only when an attachment
// is present, in which case the attachment's original name stands in.
func (s *ChatService) Send(ctx context.Context, req SendMessageRequest, claims *models.JWTClaims) (*models.DirectMessage, error) {
	if req.ReceiverID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "receiver_id is required")
	}
	if req.ReceiverID == claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot message yourself")
	}

	if err := s.runner.Do(ctx, "chat.resolve_receiver", func(ctx context.Context) error {
		_, err := s.users.FindByID(ctx, req.ReceiverID)
		return err
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "receiver not found")
		}
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	kind := req.Kind
	message := &models.DirectMessage{
		SenderID:   claims.UserID,
		ReceiverID: req.ReceiverID,
	}

	if req.Attachment != nil {
		saved, err := s.uploads.SaveUpload(req.Attachment)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to store attachment")
		}
		message.AttachmentURL = &saved.URL
		message.AttachmentName = &saved.OriginalName
		message.AttachmentSize = &saved.ByteSize
		if kind == "" {
			kind = models.MessageKind(saved.Kind)
		}
		if content == "" {
			content = saved.OriginalName
		}
	}

	if content == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message content is required")
	}
	if kind == "" {
		kind = models.MessageKindText
	}
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown message kind")
	}
	message.Content = content
	message.Kind = kind

	if err := s.runner.Do(ctx, "chat.send", func(ctx context.Context) error {
		return s.repo.Create(ctx, message)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("message sent",
		zap.String("message_id", message.ID),
		zap.String("sender_id", message.SenderID),
		zap.String("receiver_id", message.ReceiverID),
		zap.String("kind", string(message.Kind)),
	)
	return message, nil
}

// History returns the full exchange with a peer in ascending time order.
// Viewing history marks unread incoming messages from the peer as read.
func (s *ChatService) History(ctx context.Context, peerID string, claims *models.JWTClaims) ([]models.DirectMessage, error) {
	var messages []models.DirectMessage
	if err := s.runner.Do(ctx, "chat.history", func(ctx context.Context) error {
		var err error
		messages, err = s.repo.History(ctx, claims.UserID, peerID)
		if err != nil {
			return err
		}
		return s.repo.MarkReadFrom(ctx, claims.UserID, peerID)
	}); err != nil {
		return nil, err
	}
	return messages, nil
}

// AttachmentLink issues a signed download token for a message attachment.
// Only the two conversation parties may request one.
func (s *ChatService) AttachmentLink(ctx context.Context, messageID string, claims *models.JWTClaims) (*AttachmentToken, error) {
	message, err := s.findMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if claims.UserID != message.SenderID && claims.UserID != message.ReceiverID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "attachment belongs to another conversation")
	}
	if message.AttachmentURL == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "message has no attachment")
	}

	token, expiresAt, err := s.signer.Generate(message.ID, *message.AttachmentURL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign attachment link")
	}
	return &AttachmentToken{Token: token, ExpiresAt: expiresAt}, nil
}

// OpenAttachment validates a download token and returns the file handle plus
// the attachment's original name. The token carries its own authentication;
// no session is required.
func (s *ChatService) OpenAttachment(ctx context.Context, token string) (*os.File, string, error) {
	messageID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}

	message, err := s.findMessage(ctx, messageID)
	if err != nil {
		return nil, "", err
	}
	if message.AttachmentURL == nil || *message.AttachmentURL != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
	}

	file, err := s.uploads.Open(strings.TrimPrefix(relPath, "/uploads/"))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "attachment file missing")
	}

	name := ""
	if message.AttachmentName != nil {
		name = *message.AttachmentName
	}
	return file, name, nil
}

func (s *ChatService) findMessage(ctx context.Context, id string) (*models.DirectMessage, error) {
	var message *models.DirectMessage
	if err := s.runner.Do(ctx, "chat.find_message", func(ctx context.Context) error {
		var err error
		message, err = s.repo.FindByID(ctx, id)
		return err
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return nil, err
	}
	return message, nil
}

// Conversations lists the actor's distinct peers, each with an unread count
// and the latest message.
func (s *ChatService) Conversations(ctx context.Context, claims *models.JWTClaims) ([]models.Conversation, error) {
	var conversations []models.Conversation
	if err := s.runner.Do(ctx, "chat.conversations", func(ctx context.Context) error {
		var err error
		conversations, err = s.repo.Conversations(ctx, claims.UserID)
		return err
	}); err != nil {
		return nil, err
	}
	return conversations, nil
}
