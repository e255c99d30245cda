package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"workspace-state-engine/internal/controller"
	"workspace-state-engine/internal/domain"
	"workspace-state-engine/internal/dto"
	"workspace-state-engine/internal/state"
)

// StateService defines the interface for workspace state operations. Every
// method resolves the caller's controller from the identity in ctx; callers
// without an identity operate against the anonymous local-only controller.
type StateService interface {
	GetState(ctx context.Context) (*dto.StateResponse, error)
	SyncStatus(ctx context.Context) (*controller.SyncStatus, error)
	Save(ctx context.Context) error
	Undo(ctx context.Context) (*dto.StateResponse, error)
	Redo(ctx context.Context) (*dto.StateResponse, error)
	Subscribe(ctx context.Context, fn func(domain.WorkspaceState)) (func(), error)

	CreateWorkspace(ctx context.Context, req *dto.CreateWorkspaceRequest) (*dto.StateResponse, error)
	UpdateWorkspace(ctx context.Context, id string, req *dto.UpdateWorkspaceRequest) (*dto.StateResponse, error)
	DeleteWorkspace(ctx context.Context, id string) (*dto.StateResponse, error)
	ReorderWorkspaces(ctx context.Context, req *dto.ReorderRequest) (*dto.StateResponse, error)
	ActivateWorkspace(ctx context.Context, id string) (*dto.StateResponse, error)

	CreatePage(ctx context.Context, req *dto.CreatePageRequest) (*dto.StateResponse, error)
	UpdatePage(ctx context.Context, id string, req *dto.UpdatePageRequest) (*dto.StateResponse, error)
	DeletePage(ctx context.Context, id string) (*dto.DeletePageResponse, error)
	ActivatePage(ctx context.Context, id string) (*dto.StateResponse, error)

	CreateColumn(ctx context.Context, pageID string, req *dto.CreateColumnRequest) (*dto.StateResponse, error)
	RenameColumn(ctx context.Context, pageID, columnID string, req *dto.RenameColumnRequest) (*dto.StateResponse, error)
	DeleteColumn(ctx context.Context, pageID, columnID string) (*dto.StateResponse, error)
	ReorderColumns(ctx context.Context, pageID string, req *dto.ReorderRequest) (*dto.StateResponse, error)

	CreateCard(ctx context.Context, pageID string, req *dto.CreateCardRequest) (*dto.StateResponse, error)
	UpdateCard(ctx context.Context, pageID, cardID string, req *dto.UpdateCardRequest) (*dto.StateResponse, error)
	DeleteCard(ctx context.Context, pageID, cardID string) (*dto.StateResponse, error)
	MoveCard(ctx context.Context, pageID string, req *dto.MoveCardRequest) (*dto.StateResponse, error)
}

// stateServiceImpl is the implementation of StateService
type stateServiceImpl struct {
	registry *controller.Registry
	logger   *zap.Logger
}

// NewStateService creates a new instance of StateService
func NewStateService(registry *controller.Registry, logger *zap.Logger) StateService {
	return &stateServiceImpl{
		registry: registry,
		logger:   logger,
	}
}

// controllerFor resolves the caller's controller. A missing identity maps to
// the anonymous controller, which persists locally but never syncs.
func (s *stateServiceImpl) controllerFor(ctx context.Context) (*controller.Controller, error) {
	userID := ""
	if id, ok := ctx.Value("user_id").(uuid.UUID); ok {
		userID = id.String()
	}
	return s.registry.Get(ctx, userID)
}

func respond(c *controller.Controller) *dto.StateResponse {
	return &dto.StateResponse{
		State:      c.State(),
		CanUndo:    c.CanUndo(),
		CanRedo:    c.CanRedo(),
		SyncStatus: c.Status(),
	}
}

// GetState returns the canonical state
func (s *stateServiceImpl) GetState(ctx context.Context) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	return respond(c), nil
}

// SyncStatus returns the persistence status
func (s *stateServiceImpl) SyncStatus(ctx context.Context) (*controller.SyncStatus, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	status := c.Status()
	return &status, nil
}

// Save forces an immediate flush outside the debounce cadence
func (s *stateServiceImpl) Save(ctx context.Context) error {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return err
	}
	return c.SaveNow(ctx)
}

// Undo steps back one history entry; no-op when nothing to undo
func (s *stateServiceImpl) Undo(ctx context.Context) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	c.Undo()
	return respond(c), nil
}

// Redo reapplies the last undone entry; no-op when nothing to redo
func (s *stateServiceImpl) Redo(ctx context.Context) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	c.Redo()
	return respond(c), nil
}

// Subscribe registers a state-change subscriber and returns its unsubscribe
// function
func (s *stateServiceImpl) Subscribe(ctx context.Context, fn func(domain.WorkspaceState)) (func(), error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	return c.Subscribe(controller.Subscriber(fn)), nil
}

// CreateWorkspace appends a new workspace; the active workspace is unchanged
func (s *stateServiceImpl) CreateWorkspace(ctx context.Context, req *dto.CreateWorkspaceRequest) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	w := state.NewWorkspace(req.Name, req.Icon)
	if err := c.Apply("workspace.create", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.AddWorkspace(st, w)
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}

// UpdateWorkspace merges updates into the named workspace. Rapid edits to the
// same workspace coalesce into a single undo step.
func (s *stateServiceImpl) UpdateWorkspace(ctx context.Context, id string, req *dto.UpdateWorkspaceRequest) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Apply("workspace.update", "workspace.update:"+id, func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.UpdateWorkspace(st, id, state.WorkspaceUpdate{
			Name: req.Name,
			Icon: req.Icon,
		})
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}

// DeleteWorkspace removes a workspace; deleting the last one is rejected
func (s *stateServiceImpl) DeleteWorkspace(ctx context.Context, id string) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Apply("workspace.delete", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		next, _, err := state.DeleteWorkspace(st, id)
		return next, err
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}

// ReorderWorkspaces splices the workspace sequence
func (s *stateServiceImpl) ReorderWorkspaces(ctx context.Context, req *dto.ReorderRequest) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Apply("workspace.reorder", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.ReorderWorkspaces(st, req.FromIndex, req.ToIndex)
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}

// ActivateWorkspace switches the active workspace
func (s *stateServiceImpl) ActivateWorkspace(ctx context.Context, id string) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Apply("workspace.activate", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.SetActiveWorkspace(st, id)
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}

// CreatePage allocates and inserts a page; type defaults to a board
func (s *stateServiceImpl) CreatePage(ctx context.Context, req *dto.CreatePageRequest) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	p := state.NewPage(req.WorkspaceID, req.Title, req.Type)
	p.ParentPageID = req.ParentPageID
	if err := c.Apply("page.create", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.AddPage(st, p)
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}

// UpdatePage merges updates into the named page. Text edits coalesce.
func (s *stateServiceImpl) UpdatePage(ctx context.Context, id string, req *dto.UpdatePageRequest) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Apply("page.update", "page.update:"+id, func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.UpdatePage(st, id, state.PageUpdate{
			Title:   req.Title,
			Content: req.Content,
		})
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}

// DeletePage cascade-deletes a page and its descendants, reporting what was
// removed
func (s *stateServiceImpl) DeletePage(ctx context.Context, id string) (*dto.DeletePageResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	var removed []string
	if err := c.Apply("page.delete", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		next, removedIDs, err := state.DeletePage(st, id)
		removed = removedIDs
		return next, err
	}); err != nil {
		return nil, err
	}
	return &dto.DeletePageResponse{RemovedPageIDs: removed}, nil
}

// ActivatePage switches the active page, following it to its workspace
func (s *stateServiceImpl) ActivatePage(ctx context.Context, id string) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Apply("page.activate", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.SetActivePage(st, id)
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}

// CreateColumn appends a column to a board
func (s *stateServiceImpl) CreateColumn(ctx context.Context, pageID string, req *dto.CreateColumnRequest) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Apply("column.create", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.AddColumn(st, pageID, req.Name)
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}

// RenameColumn updates a column name. Rapid renames coalesce.
func (s *stateServiceImpl) RenameColumn(ctx context.Context, pageID, columnID string, req *dto.RenameColumnRequest) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Apply("column.rename", "column.rename:"+columnID, func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.RenameColumn(st, pageID, columnID, req.Name)
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}

// DeleteColumn removes a column and the cards it owns
func (s *stateServiceImpl) DeleteColumn(ctx context.Context, pageID, columnID string) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Apply("column.delete", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.DeleteColumn(st, pageID, columnID)
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}

// ReorderColumns splices a board's column sequence
func (s *stateServiceImpl) ReorderColumns(ctx context.Context, pageID string, req *dto.ReorderRequest) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Apply("column.reorder", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.ReorderColumns(st, pageID, req.FromIndex, req.ToIndex)
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}

// CreateCard appends a card to a column
func (s *stateServiceImpl) CreateCard(ctx context.Context, pageID string, req *dto.CreateCardRequest) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	card := state.NewCard(req.Title)
	card.Description = req.Description
	if req.Priority != "" {
		card.Priority = req.Priority
	}
	if req.DueDate != nil {
		due := *req.DueDate
		card.DueDate = &due
	}
	if err := c.Apply("card.create", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.AddCard(st, pageID, req.ColumnID, card)
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}

// UpdateCard merges updates into a card. Rapid edits to the same card
// coalesce into one undo step, so typing a description character by
// character does not flood the history.
func (s *stateServiceImpl) UpdateCard(ctx context.Context, pageID, cardID string, req *dto.UpdateCardRequest) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Apply("card.update", "card.update:"+cardID, func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.UpdateCard(st, pageID, cardID, state.CardUpdate{
			Title:        req.Title,
			Description:  req.Description,
			Status:       req.Status,
			Priority:     req.Priority,
			CategoryIDs:  req.CategoryIDs,
			DueDate:      req.DueDate,
			ClearDueDate: req.ClearDueDate,
			Links:        req.Links,
			Files:        req.Files,
			Checklist:    req.Checklist,
		})
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}

// DeleteCard removes a card
func (s *stateServiceImpl) DeleteCard(ctx context.Context, pageID, cardID string) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Apply("card.delete", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.DeleteCard(st, pageID, cardID)
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}

// MoveCard applies the result of a card drag
func (s *stateServiceImpl) MoveCard(ctx context.Context, pageID string, req *dto.MoveCardRequest) (*dto.StateResponse, error) {
	c, err := s.controllerFor(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Apply("card.move", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.MoveCard(st, pageID, state.MoveCardArgs{
			CardID:       req.CardID,
			FromColumnID: req.FromColumnID,
			ToColumnID:   req.ToColumnID,
			ToIndex:      req.ToIndex,
		})
	}); err != nil {
		return nil, err
	}
	return respond(c), nil
}
