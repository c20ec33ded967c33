package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/padepokan-dev/silat-admin-api/internal/models"
	"github.com/padepokan-dev/silat-admin-api/internal/service"
	appErrors "github.com/padepokan-dev/silat-admin-api/pkg/errors"
	"github.com/padepokan-dev/silat-admin-api/pkg/response"
)

// ContactHandler exposes the public contact form and its admin inbox.
type ContactHandler struct {
	contacts *service.ContactService
}

// NewContactHandler constructs handler.
func NewContactHandler(contacts *service.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// Submit godoc
// @Summary Submit a contact message
// @Tags Contact
// @Accept json
// @Produce json
// @Param payload body service.SubmitContactRequest true "Contact payload"
// @Success 201 {object} response.Envelope
// @Router /contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var req service.SubmitContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	message, err := h.contacts.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, message)
}

// List godoc
// @Summary List contact inbox messages
// @Tags Contact
// @Produce json
// @Param unread query bool false "Only unread messages"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /contact [get]
func (h *ContactHandler) List(c *gin.Context) {
	filter := models.ContactFilter{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if raw := c.Query("unread"); raw != "" {
		unread := raw == "true"
		filter.Unread = &unread
	}

	messages, pagination, err := h.contacts.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, pagination)
}

// Get godoc
// @Summary Read one contact message
// @Description Viewing flips the message's read flag.
// @Tags Contact
// @Produce json
// @Param id path string true "Message ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /contact/{id} [get]
func (h *ContactHandler) Get(c *gin.Context) {
	message, err := h.contacts.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, message, nil)
}

// Delete godoc
// @Summary Delete a contact message
// @Tags Contact
// @Param id path string true "Message ID"
// @Success 204
// @Security BearerAuth
// @Router /contact/{id} [delete]
func (h *ContactHandler) Delete(c *gin.Context) {
	if err := h.contacts.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
