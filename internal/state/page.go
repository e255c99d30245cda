package state

import (
	"time"

	"github.com/google/uuid"

	"workspace-state-engine/internal/domain"
	"workspace-state-engine/internal/response"
)

// DefaultBoardTitle is the title of a synthesized replacement board
const DefaultBoardTitle = "New Board"

// NewPage allocates a page with a fresh ID. An empty pageType defaults to a
// board; boards start with an empty column set ready for cards.
func NewPage(workspaceID, title string, pageType domain.PageType) domain.Page {
	if pageType == "" {
		pageType = domain.PageTypeDatabase
	}
	p := domain.Page{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Type:        pageType,
		Title:       title,
		CreatedAt:   time.Now().UTC(),
	}
	if p.IsBoard() {
		p.Columns = []domain.Column{}
		p.Cards = map[string]domain.Card{}
		p.Categories = []domain.Category{}
	}
	return p
}

// AddPage inserts a page into the state. The page's workspace must exist, and
// its parent (when set) must be a page in the same workspace.
func AddPage(s domain.WorkspaceState, p domain.Page) (domain.WorkspaceState, error) {
	if p.ID == "" {
		return s, response.NewAppError(response.ErrCodeValidation, "Page ID is required", "")
	}
	if !domain.ValidPageType(p.Type) {
		return s, response.NewAppError(response.ErrCodeValidation, "Unknown page type", string(p.Type))
	}
	if _, ok := s.Workspace(p.WorkspaceID); !ok {
		return s, response.NewAppError(response.ErrCodeValidation, "Page references a non-existent workspace", p.WorkspaceID)
	}
	if _, ok := s.Pages[p.ID]; ok {
		return s, response.NewAppError(response.ErrCodeAlreadyExists, "Page already exists", p.ID)
	}
	if p.ParentPageID != "" {
		parent, ok := s.Pages[p.ParentPageID]
		if !ok {
			return s, response.NewAppError(response.ErrCodeValidation, "Parent page not found", p.ParentPageID)
		}
		if parent.WorkspaceID != p.WorkspaceID {
			return s, response.NewAppError(response.ErrCodeValidation, "Parent page belongs to a different workspace", p.ParentPageID)
		}
	}
	next := s.Clone()
	next.Pages[p.ID] = p.Clone()
	return next, nil
}

// PageUpdate holds the mutable page fields; nil means unchanged
type PageUpdate struct {
	Title   *string
	Content *string
}

// UpdatePage merges updates into the named page
func UpdatePage(s domain.WorkspaceState, id string, upd PageUpdate) (domain.WorkspaceState, error) {
	p, ok := s.Pages[id]
	if !ok {
		return s, response.NewAppError(response.ErrCodeNotFound, "Page not found", id)
	}
	next := s.Clone()
	p = next.Pages[id]
	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Content != nil {
		p.Content = *upd.Content
	}
	next.Pages[id] = p
	return next, nil
}

// SetActivePage switches the active page and, when the page lives in another
// workspace, follows it there
func SetActivePage(s domain.WorkspaceState, id string) (domain.WorkspaceState, error) {
	p, ok := s.Pages[id]
	if !ok {
		return s, response.NewAppError(response.ErrCodeNotFound, "Page not found", id)
	}
	next := s.Clone()
	next.ActivePageID = id
	next.ActiveWorkspaceID = p.WorkspaceID
	return next, nil
}

// DeletePage removes a page and every descendant reachable via ParentPageID.
// The removed page IDs are returned so the caller can react, e.g. by picking
// a new active page.
func DeletePage(s domain.WorkspaceState, id string) (domain.WorkspaceState, []string, error) {
	if _, ok := s.Pages[id]; !ok {
		return s, nil, response.NewAppError(response.ErrCodeNotFound, "Page not found", id)
	}
	next := s.Clone()

	doomed := map[string]bool{id: true}
	// ParentPageID forms a tree, so one pass per depth level terminates
	for changed := true; changed; {
		changed = false
		for pageID, p := range next.Pages {
			if !doomed[pageID] && p.ParentPageID != "" && doomed[p.ParentPageID] {
				doomed[pageID] = true
				changed = true
			}
		}
	}

	removed := make([]string, 0, len(doomed))
	for pageID := range doomed {
		removed = append(removed, pageID)
		delete(next.Pages, pageID)
	}
	if doomed[next.ActivePageID] {
		next.ActivePageID = ""
	}
	return next, removed, nil
}
