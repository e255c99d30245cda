package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"workspace-state-engine/internal/dto"
	"workspace-state-engine/internal/response"
	"workspace-state-engine/internal/service"
)

// CardHandler handles board column and card requests
type CardHandler struct {
	stateService service.StateService
	logger       *zap.Logger
}

// NewCardHandler creates a new instance of CardHandler
func NewCardHandler(stateService service.StateService, logger *zap.Logger) *CardHandler {
	return &CardHandler{
		stateService: stateService,
		logger:       logger,
	}
}

// CreateColumn adds a column to a board page
func (h *CardHandler) CreateColumn(c *gin.Context) {
	pageID := c.Param("pageId")

	var req dto.CreateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	resp, err := h.stateService.CreateColumn(c, pageID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, resp)
}

// RenameColumn renames a column
func (h *CardHandler) RenameColumn(c *gin.Context) {
	pageID := c.Param("pageId")
	columnID := c.Param("columnId")

	var req dto.RenameColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	resp, err := h.stateService.RenameColumn(c, pageID, columnID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}

// DeleteColumn removes a column and the cards it owns
func (h *CardHandler) DeleteColumn(c *gin.Context) {
	pageID := c.Param("pageId")
	columnID := c.Param("columnId")

	resp, err := h.stateService.DeleteColumn(c, pageID, columnID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}

// ReorderColumns moves a column within a board
func (h *CardHandler) ReorderColumns(c *gin.Context) {
	pageID := c.Param("pageId")

	var req dto.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	resp, err := h.stateService.ReorderColumns(c, pageID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}

// CreateCard adds a card to a column
func (h *CardHandler) CreateCard(c *gin.Context) {
	pageID := c.Param("pageId")

	var req dto.CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	resp, err := h.stateService.CreateCard(c, pageID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, resp)
}

// UpdateCard updates a card's fields
func (h *CardHandler) UpdateCard(c *gin.Context) {
	pageID := c.Param("pageId")
	cardID := c.Param("cardId")

	var req dto.UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	resp, err := h.stateService.UpdateCard(c, pageID, cardID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}

// DeleteCard removes a card
func (h *CardHandler) DeleteCard(c *gin.Context) {
	pageID := c.Param("pageId")
	cardID := c.Param("cardId")

	resp, err := h.stateService.DeleteCard(c, pageID, cardID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}

// MoveCard applies a card drag between or within columns
func (h *CardHandler) MoveCard(c *gin.Context) {
	pageID := c.Param("pageId")

	var req dto.MoveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	resp, err := h.stateService.MoveCard(c, pageID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}
