package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"workspace-state-engine/internal/dto"
	"workspace-state-engine/internal/response"
	"workspace-state-engine/internal/service"
)

// PageHandler handles page requests
type PageHandler struct {
	stateService service.StateService
	logger       *zap.Logger
}

// NewPageHandler creates a new instance of PageHandler
func NewPageHandler(stateService service.StateService, logger *zap.Logger) *PageHandler {
	return &PageHandler{
		stateService: stateService,
		logger:       logger,
	}
}

// CreatePage creates a new page in a workspace
func (h *PageHandler) CreatePage(c *gin.Context) {
	var req dto.CreatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	resp, err := h.stateService.CreatePage(c, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, resp)
}

// UpdatePage updates a page's title or content
func (h *PageHandler) UpdatePage(c *gin.Context) {
	pageID := c.Param("pageId")

	var req dto.UpdatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	resp, err := h.stateService.UpdatePage(c, pageID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}

// DeletePage deletes a page and its descendants
func (h *PageHandler) DeletePage(c *gin.Context) {
	pageID := c.Param("pageId")

	resp, err := h.stateService.DeletePage(c, pageID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}

// ActivatePage switches the active page
func (h *PageHandler) ActivatePage(c *gin.Context) {
	pageID := c.Param("pageId")

	resp, err := h.stateService.ActivatePage(c, pageID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}
