package dto

import (
	"time"

	"workspace-state-engine/internal/controller"
	"workspace-state-engine/internal/domain"
)

// StateResponse is the envelope most endpoints return: the canonical state
// plus history and sync information
type StateResponse struct {
	State      domain.WorkspaceState `json:"state"`
	CanUndo    bool                  `json:"canUndo"`
	CanRedo    bool                  `json:"canRedo"`
	SyncStatus controller.SyncStatus `json:"syncStatus"`
}

// CreateWorkspaceRequest represents the request to create a workspace
type CreateWorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
	Icon string `json:"icon,omitempty"`
}

// UpdateWorkspaceRequest represents the request to update a workspace
type UpdateWorkspaceRequest struct {
	Name *string `json:"name,omitempty"`
	Icon *string `json:"icon,omitempty"`
}

// ReorderRequest moves an element of an ordered sequence, clamping the
// target index
type ReorderRequest struct {
	FromIndex int `json:"fromIndex"`
	ToIndex   int `json:"toIndex"`
}

// CreatePageRequest represents the request to create a page. Type defaults
// to a board when omitted.
type CreatePageRequest struct {
	WorkspaceID  string          `json:"workspaceId" binding:"required"`
	ParentPageID string          `json:"parentPageId,omitempty"`
	Title        string          `json:"title" binding:"required"`
	Type         domain.PageType `json:"type,omitempty"`
}

// UpdatePageRequest represents the request to update a page
type UpdatePageRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// DeletePageResponse reports which pages a cascade delete removed
type DeletePageResponse struct {
	RemovedPageIDs []string `json:"removedPageIds"`
}

// CreateColumnRequest represents the request to add a column to a board
type CreateColumnRequest struct {
	Name string `json:"name" binding:"required"`
}

// RenameColumnRequest represents the request to rename a column
type RenameColumnRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateCardRequest represents the request to add a card to a column
type CreateCardRequest struct {
	ColumnID    string          `json:"columnId" binding:"required"`
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description,omitempty"`
	Priority    domain.Priority `json:"priority,omitempty"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
}

// UpdateCardRequest represents the request to update a card
type UpdateCardRequest struct {
	Title        *string                `json:"title,omitempty"`
	Description  *string                `json:"description,omitempty"`
	Status       *string                `json:"status,omitempty"`
	Priority     *domain.Priority       `json:"priority,omitempty"`
	CategoryIDs  []string               `json:"categoryIds,omitempty"`
	DueDate      *time.Time             `json:"dueDate,omitempty"`
	ClearDueDate bool                   `json:"clearDueDate,omitempty"`
	Links        []domain.CardLink      `json:"links,omitempty"`
	Files        []domain.CardFile      `json:"files,omitempty"`
	Checklist    []domain.ChecklistItem `json:"checklist,omitempty"`
}

// MoveCardRequest is the result of a card drag: remove from the source
// column, insert at the clamped index in the target column
type MoveCardRequest struct {
	CardID       string `json:"cardId" binding:"required"`
	FromColumnID string `json:"fromColumnId" binding:"required"`
	ToColumnID   string `json:"toColumnId" binding:"required"`
	ToIndex      int    `json:"toIndex"`
}
