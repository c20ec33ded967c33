package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/padepokan-dev/silat-admin-api/internal/models"
	"github.com/padepokan-dev/silat-admin-api/internal/service"
	appErrors "github.com/padepokan-dev/silat-admin-api/pkg/errors"
	"github.com/padepokan-dev/silat-admin-api/pkg/response"
)

// ChatHandler exposes the direct-messaging endpoints. Delivery is
// poll-based; there is no push channel.
type ChatHandler struct {
	chats *service.ChatService
}

// NewChatHandler constructs handler.
func NewChatHandler(chats *service.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// Send godoc
// @Summary Send a direct message
// @Description Accepts multipart form data. An attachment may replace text content; the stored message then carries the attachment metadata.
// @Tags Chat
// @Accept multipart/form-data
// @Produce json
// @Param receiver_id formData string true "Receiver user ID"
// @Param content formData string false "Message text"
// @Param kind formData string false "Message kind"
// @Param attachment formData file false "Attachment"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /chat/messages [post]
func (h *ChatHandler) Send(c *gin.Context) {
	req := service.SendMessageRequest{
		ReceiverID: c.PostForm("receiver_id"),
		Content:    c.PostForm("content"),
		Kind:       models.MessageKind(c.PostForm("kind")),
	}
	if file, err := c.FormFile("attachment"); err == nil {
		req.Attachment = file
	}

	message, err := h.chats.Send(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, message)
}

// History godoc
// @Summary Message history with a peer
// @Description Returns the full exchange in ascending time order. Viewing marks incoming unread messages as read.
// @Tags Chat
// @Produce json
// @Param peerID path string true "Peer user ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /chat/messages/{peerID} [get]
func (h *ChatHandler) History(c *gin.Context) {
	peerID := c.Param("peerID")
	if peerID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "peerID required"))
		return
	}

	messages, err := h.chats.History(c.Request.Context(), peerID, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// AttachmentLink godoc
// @Summary Issue a signed download link for a message attachment
// @Tags Chat
// @Produce json
// @Param messageID path string true "Message ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /chat/attachments/{messageID} [get]
func (h *ChatHandler) AttachmentLink(c *gin.Context) {
	grant, err := h.chats.AttachmentLink(c.Request.Context(), c.Param("messageID"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"url":        "/files?token=" + grant.Token,
		"expires_at": grant.ExpiresAt,
	}, nil)
}

// Download godoc
// @Summary Download an attachment with a signed token
// @Description The token is self-authenticating; no bearer credential is required.
// @Tags Chat
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /files [get]
func (h *ChatHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token required"))
		return
	}

	file, name, err := h.chats.OpenAttachment(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	if name != "" {
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	}
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}

// Conversations godoc
// @Summary List conversations
// @Tags Chat
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /chat/conversations [get]
func (h *ChatHandler) Conversations(c *gin.Context) {
	conversations, err := h.chats.Conversations(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conversations, nil)
}
