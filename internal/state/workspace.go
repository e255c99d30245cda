package state

import (
	"time"

	"github.com/google/uuid"

	"workspace-state-engine/internal/domain"
	"workspace-state-engine/internal/response"
)

// NewWorkspace allocates a workspace with a fresh ID
func NewWorkspace(name, icon string) domain.Workspace {
	return domain.Workspace{
		ID:        uuid.NewString(),
		Name:      name,
		Icon:      icon,
		CreatedAt: time.Now().UTC(),
	}
}

// AddWorkspace appends a new workspace. The active workspace is unchanged
// unless the state had none.
func AddWorkspace(s domain.WorkspaceState, w domain.Workspace) (domain.WorkspaceState, error) {
	if w.ID == "" {
		return s, response.NewAppError(response.ErrCodeValidation, "Workspace ID is required", "")
	}
	if _, ok := s.Workspace(w.ID); ok {
		return s, response.NewAppError(response.ErrCodeAlreadyExists, "Workspace already exists", w.ID)
	}
	next := s.Clone()
	next.Workspaces = append(next.Workspaces, w)
	if next.ActiveWorkspaceID == "" {
		next.ActiveWorkspaceID = w.ID
	}
	return next, nil
}

// WorkspaceUpdate holds the mutable workspace fields; nil means unchanged
type WorkspaceUpdate struct {
	Name *string
	Icon *string
}

// UpdateWorkspace merges updates into the named workspace
func UpdateWorkspace(s domain.WorkspaceState, id string, upd WorkspaceUpdate) (domain.WorkspaceState, error) {
	next := s.Clone()
	for i := range next.Workspaces {
		if next.Workspaces[i].ID != id {
			continue
		}
		if upd.Name != nil {
			next.Workspaces[i].Name = *upd.Name
		}
		if upd.Icon != nil {
			next.Workspaces[i].Icon = *upd.Icon
		}
		return next, nil
	}
	return s, response.NewAppError(response.ErrCodeNotFound, "Workspace not found", id)
}

// DeleteWorkspace removes a workspace and cascade-deletes all of its pages.
// Deleting the last workspace is rejected: at least one workspace must always
// exist. If the deleted workspace was active, the first remaining workspace
// becomes active (order-stable failover).
func DeleteWorkspace(s domain.WorkspaceState, id string) (domain.WorkspaceState, []string, error) {
	if _, ok := s.Workspace(id); !ok {
		return s, nil, response.NewAppError(response.ErrCodeNotFound, "Workspace not found", id)
	}
	if len(s.Workspaces) == 1 {
		return s, nil, response.NewAppError(response.ErrCodeInvariant, "Cannot delete the last workspace", id)
	}

	next := s.Clone()
	kept := next.Workspaces[:0]
	for _, w := range next.Workspaces {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	next.Workspaces = kept

	var removed []string
	for pageID, p := range next.Pages {
		if p.WorkspaceID == id {
			removed = append(removed, pageID)
			delete(next.Pages, pageID)
		}
	}

	if next.ActiveWorkspaceID == id {
		next.ActiveWorkspaceID = next.Workspaces[0].ID
	}
	if next.ActivePageID != "" {
		if _, ok := next.Pages[next.ActivePageID]; !ok {
			next.ActivePageID = ""
		}
	}
	return next, removed, nil
}

// SetActiveWorkspace switches the active workspace
func SetActiveWorkspace(s domain.WorkspaceState, id string) (domain.WorkspaceState, error) {
	if _, ok := s.Workspace(id); !ok {
		return s, response.NewAppError(response.ErrCodeNotFound, "Workspace not found", id)
	}
	next := s.Clone()
	next.ActiveWorkspaceID = id
	if next.ActivePageID != "" {
		if p, ok := next.Pages[next.ActivePageID]; !ok || p.WorkspaceID != id {
			next.ActivePageID = ""
		}
	}
	return next, nil
}

// ReorderWorkspaces moves the workspace at fromIndex to toIndex using the
// same remove-then-clamped-insert splice as card moves
func ReorderWorkspaces(s domain.WorkspaceState, fromIndex, toIndex int) (domain.WorkspaceState, error) {
	if fromIndex < 0 || fromIndex >= len(s.Workspaces) {
		return s, response.NewAppError(response.ErrCodeNotFound, "Workspace index out of range", "")
	}
	next := s.Clone()
	ids := make([]string, len(next.Workspaces))
	byID := make(map[string]domain.Workspace, len(next.Workspaces))
	for i, w := range next.Workspaces {
		ids[i] = w.ID
		byID[w.ID] = w
	}
	ids = spliceMove(ids, fromIndex, toIndex)
	for i, id := range ids {
		next.Workspaces[i] = byID[id]
	}
	return next, nil
}
