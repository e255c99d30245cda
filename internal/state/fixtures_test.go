package state

import (
	"time"

	"workspace-state-engine/internal/domain"
)

// twoWorkspaceState builds a state with two workspaces, a board with three
// cards across two columns, and a note nested under the board
func twoWorkspaceState() domain.WorkspaceState {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.WorkspaceState{
		Workspaces: []domain.Workspace{
			{ID: "ws1", Name: "Personal", CreatedAt: base},
			{ID: "ws2", Name: "Work", CreatedAt: base.Add(time.Hour)},
		},
		ActiveWorkspaceID: "ws1",
		ActivePageID:      "b1",
		Pages: map[string]domain.Page{
			"b1": {
				ID:          "b1",
				WorkspaceID: "ws1",
				Type:        domain.PageTypeDatabase,
				Title:       "Tasks",
				CreatedAt:   base,
				Columns: []domain.Column{
					{ID: "col1", Name: "Todo", CardIDs: []string{"c1", "c2"}},
					{ID: "col2", Name: "Done", CardIDs: []string{"c3"}},
				},
				Cards: map[string]domain.Card{
					"c1": {ID: "c1", Title: "First", Priority: domain.PriorityMedium, CreatedAt: base},
					"c2": {ID: "c2", Title: "Second", Priority: domain.PriorityHigh, CreatedAt: base},
					"c3": {ID: "c3", Title: "Third", Priority: domain.PriorityLow, CreatedAt: base},
				},
				Categories: []domain.Category{},
			},
			"n1": {
				ID:           "n1",
				WorkspaceID:  "ws1",
				ParentPageID: "b1",
				Type:         domain.PageTypeNote,
				Title:        "Meeting notes",
				CreatedAt:    base.Add(time.Minute),
			},
			"b2": {
				ID:          "b2",
				WorkspaceID: "ws2",
				Type:        domain.PageTypeDatabase,
				Title:       "Backlog",
				CreatedAt:   base,
				Columns:     []domain.Column{},
				Cards:       map[string]domain.Card{},
			},
		},
	}
}
