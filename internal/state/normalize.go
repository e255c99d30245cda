package state

import (
	"sort"

	"workspace-state-engine/internal/domain"
)

// Normalize repairs the navigational invariants after a mutation: the active
// workspace must exist, every workspace keeps at least one root board (a
// replacement "New Board" is synthesized when the last one disappears), and
// the active page must resolve to a page in the active workspace. Returns the
// repaired state and whether anything changed.
func Normalize(s domain.WorkspaceState) (domain.WorkspaceState, bool) {
	changed := false
	next := s

	if _, ok := next.Workspace(next.ActiveWorkspaceID); !ok && len(next.Workspaces) > 0 {
		next = next.Clone()
		next.ActiveWorkspaceID = next.Workspaces[0].ID
		changed = true
	}

	if next.ActiveWorkspaceID != "" && activeBoard(next) == "" {
		next = next.Clone()
		board := NewPage(next.ActiveWorkspaceID, DefaultBoardTitle, domain.PageTypeDatabase)
		next.Pages[board.ID] = board
		changed = true
	}

	if next.ActivePageID != "" {
		if p, ok := next.Pages[next.ActivePageID]; !ok || p.WorkspaceID != next.ActiveWorkspaceID {
			next = next.Clone()
			next.ActivePageID = ""
			changed = true
		}
	}
	if next.ActivePageID == "" && next.ActiveWorkspaceID != "" {
		if id := activeBoard(next); id != "" {
			next = next.Clone()
			next.ActivePageID = id
			changed = true
		}
	}
	return next, changed
}

// activeBoard returns the oldest root board of the active workspace, or ""
func activeBoard(s domain.WorkspaceState) string {
	roots := s.RootPages(s.ActiveWorkspaceID)
	sort.Slice(roots, func(i, j int) bool {
		if roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
			return roots[i].ID < roots[j].ID
		}
		return roots[i].CreatedAt.Before(roots[j].CreatedAt)
	})
	for _, p := range roots {
		if p.IsBoard() {
			return p.ID
		}
	}
	return ""
}
