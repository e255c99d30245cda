// Package migration validates and upgrades persisted JSON blobs into the
// canonical WorkspaceState shape. It discriminates between the canonical
// multi-workspace schema, the legacy single-board schema, and unknown input.
package migration

import (
	"bytes"
	"encoding/json"

	"workspace-state-engine/internal/domain"
	"workspace-state-engine/internal/response"
	"workspace-state-engine/internal/state"
)

// DefaultWorkspaceName names the workspace synthesized for fresh and legacy
// states
const DefaultWorkspaceName = "My Workspace"

// legacyState is the pre-workspace single-board schema
type legacyState struct {
	Columns    []domain.Column        `json:"columns"`
	Cards      map[string]domain.Card `json:"cards"`
	Categories []domain.Category      `json:"categories"`
}

// DefaultState returns a freshly initialized state: one workspace holding one
// empty board, both active
func DefaultState() domain.WorkspaceState {
	ws := state.NewWorkspace(DefaultWorkspaceName, "")
	board := state.NewPage(ws.ID, state.DefaultBoardTitle, domain.PageTypeDatabase)
	return domain.WorkspaceState{
		Workspaces:        []domain.Workspace{ws},
		ActiveWorkspaceID: ws.ID,
		Pages:             map[string]domain.Page{board.ID: board},
		ActivePageID:      board.ID,
	}
}

// EnsureWorkspaceState upgrades any persisted blob into the canonical shape.
// It never fails: unparsable input falls back to a fresh default state with
// migrated=false. Running it twice on its own output is a no-op.
func EnsureWorkspaceState(raw []byte) (domain.WorkspaceState, bool) {
	st, migrated, err := Decode(raw)
	if err != nil {
		return DefaultState(), false
	}
	return st, migrated
}

// Decode is EnsureWorkspaceState with the parse failure surfaced: invalid
// JSON yields a MIGRATION_PARSE_ERROR instead of the default-state fallback.
// The one-shot CLI treats that error as fatal.
func Decode(raw []byte) (domain.WorkspaceState, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return DefaultState(), false, nil
	}
	if !json.Valid(trimmed) {
		return domain.WorkspaceState{}, false, response.NewAppError(
			response.ErrCodeMigrationParse, "Persisted state is not valid JSON", "")
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		// Valid JSON but not an object: unknown shape, fresh state
		return DefaultState(), false, nil
	}

	_, hasWorkspaces := probe["workspaces"]
	_, hasPages := probe["pages"]
	if hasWorkspaces || hasPages {
		return ensureCanonical(trimmed)
	}

	_, hasColumns := probe["columns"]
	_, hasCards := probe["cards"]
	if hasColumns || hasCards {
		return upgradeLegacy(trimmed)
	}

	return DefaultState(), false, nil
}

// ensureCanonical fills structural gaps in an already-canonical blob
func ensureCanonical(raw []byte) (domain.WorkspaceState, bool, error) {
	var st domain.WorkspaceState
	if err := json.Unmarshal(raw, &st); err != nil {
		return DefaultState(), false, nil
	}
	migrated := false

	if st.Pages == nil {
		st.Pages = map[string]domain.Page{}
		migrated = true
	}
	if len(st.Workspaces) == 0 {
		ws := state.NewWorkspace(DefaultWorkspaceName, "")
		st.Workspaces = []domain.Workspace{ws}
		st.ActiveWorkspaceID = ws.ID
		migrated = true
	}

	// Drop pages whose workspace no longer exists
	for id, p := range st.Pages {
		if _, ok := st.Workspace(p.WorkspaceID); !ok {
			delete(st.Pages, id)
			migrated = true
		}
	}
	// Boards persisted before cards/columns were split out may lack the maps
	for id, p := range st.Pages {
		if p.IsBoard() && p.Cards == nil {
			p.Cards = map[string]domain.Card{}
			st.Pages[id] = p
			migrated = true
		}
	}

	st, changed := state.Normalize(st)
	return st, migrated || changed, nil
}

// upgradeLegacy wraps a legacy single-board blob in a default workspace and a
// single board page
func upgradeLegacy(raw []byte) (domain.WorkspaceState, bool, error) {
	var legacy legacyState
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return DefaultState(), false, nil
	}

	ws := state.NewWorkspace(DefaultWorkspaceName, "")
	board := state.NewPage(ws.ID, state.DefaultBoardTitle, domain.PageTypeDatabase)
	if legacy.Columns != nil {
		board.Columns = legacy.Columns
	}
	if legacy.Cards != nil {
		board.Cards = legacy.Cards
	}
	if legacy.Categories != nil {
		board.Categories = legacy.Categories
	}

	st := domain.WorkspaceState{
		Workspaces:        []domain.Workspace{ws},
		ActiveWorkspaceID: ws.ID,
		Pages:             map[string]domain.Page{board.ID: board},
		ActivePageID:      board.ID,
	}
	return st, true, nil
}
