package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"workspace-state-engine/internal/dto"
	"workspace-state-engine/internal/response"
	"workspace-state-engine/internal/service"
)

// WorkspaceHandler handles workspace requests
type WorkspaceHandler struct {
	stateService service.StateService
	logger       *zap.Logger
}

// NewWorkspaceHandler creates a new instance of WorkspaceHandler
func NewWorkspaceHandler(stateService service.StateService, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		stateService: stateService,
		logger:       logger,
	}
}

// CreateWorkspace creates a new workspace
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	var req dto.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	resp, err := h.stateService.CreateWorkspace(c, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, resp)
}

// UpdateWorkspace updates a workspace's name or icon
func (h *WorkspaceHandler) UpdateWorkspace(c *gin.Context) {
	workspaceID := c.Param("workspaceId")

	var req dto.UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	resp, err := h.stateService.UpdateWorkspace(c, workspaceID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}

// DeleteWorkspace deletes a workspace and everything in it
func (h *WorkspaceHandler) DeleteWorkspace(c *gin.Context) {
	workspaceID := c.Param("workspaceId")

	resp, err := h.stateService.DeleteWorkspace(c, workspaceID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}

// ReorderWorkspaces moves a workspace within the switcher order
func (h *WorkspaceHandler) ReorderWorkspaces(c *gin.Context) {
	var req dto.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	resp, err := h.stateService.ReorderWorkspaces(c, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}

// ActivateWorkspace switches the active workspace
func (h *WorkspaceHandler) ActivateWorkspace(c *gin.Context) {
	workspaceID := c.Param("workspaceId")

	resp, err := h.stateService.ActivateWorkspace(c, workspaceID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}
