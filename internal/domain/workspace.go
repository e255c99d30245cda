package domain

import "time"

// Workspace represents a top-level container for pages
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// WorkspaceState is the root aggregate: the single in-memory value treated as
// ground truth at any instant. It is rebuilt immutably on every mutation.
type WorkspaceState struct {
	Workspaces        []Workspace     `json:"workspaces"`
	ActiveWorkspaceID string          `json:"activeWorkspaceId"`
	Pages             map[string]Page `json:"pages"`
	ActivePageID      string          `json:"activePageId,omitempty"`
}

// Clone returns a deep copy of the state. Mutations operate on the copy so the
// previous value stays valid as a history snapshot.
func (s WorkspaceState) Clone() WorkspaceState {
	out := WorkspaceState{
		Workspaces:        make([]Workspace, len(s.Workspaces)),
		ActiveWorkspaceID: s.ActiveWorkspaceID,
		Pages:             make(map[string]Page, len(s.Pages)),
		ActivePageID:      s.ActivePageID,
	}
	copy(out.Workspaces, s.Workspaces)
	for id, p := range s.Pages {
		out.Pages[id] = p.Clone()
	}
	return out
}

// Workspace returns the workspace with the given ID
func (s WorkspaceState) Workspace(id string) (Workspace, bool) {
	for _, w := range s.Workspaces {
		if w.ID == id {
			return w, true
		}
	}
	return Workspace{}, false
}

// RootPages returns the root pages of a workspace. Map iteration order is not
// stable; callers sort by CreatedAt when ordering matters.
func (s WorkspaceState) RootPages(workspaceID string) []Page {
	var pages []Page
	for _, p := range s.Pages {
		if p.WorkspaceID == workspaceID && p.ParentPageID == "" {
			pages = append(pages, p)
		}
	}
	return pages
}
