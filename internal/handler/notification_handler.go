package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/padepokan-dev/silat-admin-api/internal/service"
	"github.com/padepokan-dev/silat-admin-api/pkg/response"
)

// NotificationHandler exposes the aggregated notification feed.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs handler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Feed godoc
// @Summary Aggregated notification feed
// @Description Merges unread contact messages, pending letters and pending reports. Authentication is optional; an authenticated caller gets a role-filtered item list and per-actor chat unread counts.
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) Feed(c *gin.Context) {
	feed, err := h.notifications.Aggregate(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feed, nil)
}

// MarkAllRead godoc
// @Summary Mark every unread contact message as read
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notifications.MarkAllRead(c.Request.Context(), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"marked": true}, nil)
}
