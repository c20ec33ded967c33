package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/padepokan-dev/silat-admin-api/internal/models"
	"github.com/padepokan-dev/silat-admin-api/internal/service"
	appErrors "github.com/padepokan-dev/silat-admin-api/pkg/errors"
	"github.com/padepokan-dev/silat-admin-api/pkg/response"
)

// LetterHandler exposes the outgoing-letter workflow endpoints.
type LetterHandler struct {
	letters *service.LetterService
}

// NewLetterHandler constructs handler.
func NewLetterHandler(letters *service.LetterService) *LetterHandler {
	return &LetterHandler{letters: letters}
}

// List godoc
// @Summary List letters
// @Tags Letters
// @Produce json
// @Param status query string false "Filter by status"
// @Param jenis query string false "Filter by letter type"
// @Param search query string false "Search in perihal and tujuan"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /letters [get]
func (h *LetterHandler) List(c *gin.Context) {
	filter := models.LetterFilter{
		Jenis:    c.Query("jenis"),
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.LetterStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown letter status"))
			return
		}
		filter.Status = &status
	}

	letters, pagination, err := h.letters.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, letters, pagination)
}

// Get godoc
// @Summary Get letter detail
// @Tags Letters
// @Produce json
// @Param id path string true "Letter ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /letters/{id} [get]
func (h *LetterHandler) Get(c *gin.Context) {
	letter, err := h.letters.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, letter, nil)
}

// Create godoc
// @Summary Create a letter
// @Tags Letters
// @Accept json
// @Produce json
// @Param payload body service.CreateLetterRequest true "Letter payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /letters [post]
func (h *LetterHandler) Create(c *gin.Context) {
	var req service.CreateLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	letter, err := h.letters.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, letter)
}

// NextNumber godoc
// @Summary Preview the next letter sequence number
// @Tags Letters
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /letters/next-number [get]
func (h *LetterHandler) NextNumber(c *gin.Context) {
	nomor, err := h.letters.NextNumber(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"nomor": nomor}, nil)
}

// Update godoc
// @Summary Update letter content
// @Tags Letters
// @Accept json
// @Produce json
// @Param id path string true "Letter ID"
// @Param payload body service.UpdateLetterRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /letters/{id} [put]
func (h *LetterHandler) Update(c *gin.Context) {
	var req service.UpdateLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	letter, err := h.letters.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, letter, nil)
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus godoc
// @Summary Move a letter along the validation workflow
// @Tags Letters
// @Accept json
// @Produce json
// @Param id path string true "Letter ID"
// @Param payload body transitionRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /letters/{id}/status [patch]
func (h *LetterHandler) UpdateStatus(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status required"))
		return
	}

	letter, err := h.letters.Transition(c.Request.Context(), c.Param("id"), models.LetterStatus(req.Status), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, letter, nil)
}

// Delete godoc
// @Summary Delete a letter
// @Tags Letters
// @Param id path string true "Letter ID"
// @Success 204
// @Security BearerAuth
// @Router /letters/{id} [delete]
func (h *LetterHandler) Delete(c *gin.Context) {
	if err := h.letters.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
