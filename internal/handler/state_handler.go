package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"workspace-state-engine/internal/response"
	"workspace-state-engine/internal/service"
)

// StateHandler handles state, history, and persistence requests
type StateHandler struct {
	stateService service.StateService
	logger       *zap.Logger
}

// NewStateHandler creates a new instance of StateHandler
func NewStateHandler(stateService service.StateService, logger *zap.Logger) *StateHandler {
	return &StateHandler{
		stateService: stateService,
		logger:       logger,
	}
}

// GetState returns the caller's canonical workspace state
func (h *StateHandler) GetState(c *gin.Context) {
	resp, err := h.stateService.GetState(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}

// GetSyncStatus returns the persistence status for the caller's state
func (h *StateHandler) GetSyncStatus(c *gin.Context) {
	status, err := h.stateService.SyncStatus(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, status)
}

// Save flushes pending changes immediately instead of waiting for the
// debounce window
func (h *StateHandler) Save(c *gin.Context) {
	if err := h.stateService.Save(c); err != nil {
		handleServiceError(c, err)
		return
	}

	status, err := h.stateService.SyncStatus(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, status)
}

// Undo steps the caller's state back one history entry
func (h *StateHandler) Undo(c *gin.Context) {
	resp, err := h.stateService.Undo(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}

// Redo reapplies the caller's last undone change
func (h *StateHandler) Redo(c *gin.Context) {
	resp, err := h.stateService.Redo(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}
