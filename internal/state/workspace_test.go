package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workspace-state-engine/internal/response"
)

func TestAddWorkspace_Success(t *testing.T) {
	s := twoWorkspaceState()
	w := NewWorkspace("Side projects", "🚀")

	next, err := AddWorkspace(s, w)
	require.NoError(t, err)

	assert.Len(t, next.Workspaces, 3)
	assert.Equal(t, "ws1", next.ActiveWorkspaceID, "adding must not steal the active workspace")
	assert.Len(t, s.Workspaces, 2, "input state must be untouched")
}

func TestAddWorkspace_FirstBecomesActive(t *testing.T) {
	s := twoWorkspaceState()
	s.Workspaces = nil
	s.ActiveWorkspaceID = ""
	s.Pages = nil
	w := NewWorkspace("Personal", "")

	next, err := AddWorkspace(s, w)
	require.NoError(t, err)
	assert.Equal(t, w.ID, next.ActiveWorkspaceID)
}

func TestAddWorkspace_DuplicateID(t *testing.T) {
	s := twoWorkspaceState()

	_, err := AddWorkspace(s, twoWorkspaceState().Workspaces[0])
	require.Error(t, err)

	var appErr *response.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, response.ErrCodeAlreadyExists, appErr.Code)
}

func TestUpdateWorkspace(t *testing.T) {
	s := twoWorkspaceState()
	name := "Renamed"

	next, err := UpdateWorkspace(s, "ws2", WorkspaceUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", next.Workspaces[1].Name)
	assert.Equal(t, "Work", s.Workspaces[1].Name, "input state must be untouched")

	_, err = UpdateWorkspace(s, "missing", WorkspaceUpdate{Name: &name})
	require.Error(t, err)
}

func TestDeleteWorkspace_CascadesAndFailsOver(t *testing.T) {
	s := twoWorkspaceState()

	next, removed, err := DeleteWorkspace(s, "ws1")
	require.NoError(t, err)

	assert.Len(t, next.Workspaces, 1)
	assert.Equal(t, "ws2", next.ActiveWorkspaceID, "active workspace fails over to the first remaining")
	assert.ElementsMatch(t, []string{"b1", "n1"}, removed)
	assert.NotContains(t, next.Pages, "b1")
	assert.NotContains(t, next.Pages, "n1")
	assert.Contains(t, next.Pages, "b2")
	assert.Empty(t, next.ActivePageID, "active page pointed into the deleted workspace")
}

func TestDeleteWorkspace_LastOneRejected(t *testing.T) {
	s := twoWorkspaceState()
	s, _, err := DeleteWorkspace(s, "ws2")
	require.NoError(t, err)

	_, _, err = DeleteWorkspace(s, "ws1")
	require.Error(t, err)

	var appErr *response.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, response.ErrCodeInvariant, appErr.Code)
}

func TestSetActiveWorkspace_ClearsForeignActivePage(t *testing.T) {
	s := twoWorkspaceState()

	next, err := SetActiveWorkspace(s, "ws2")
	require.NoError(t, err)
	assert.Equal(t, "ws2", next.ActiveWorkspaceID)
	assert.Empty(t, next.ActivePageID, "active page belonged to ws1")

	_, err = SetActiveWorkspace(s, "missing")
	require.Error(t, err)
}

func TestReorderWorkspaces(t *testing.T) {
	s := twoWorkspaceState()

	next, err := ReorderWorkspaces(s, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, "ws2", next.Workspaces[0].ID)
	assert.Equal(t, "ws1", next.Workspaces[1].ID)

	// Out-of-range target index clamps instead of failing
	next, err = ReorderWorkspaces(s, 1, 99)
	require.NoError(t, err)
	assert.Equal(t, "ws2", next.Workspaces[len(next.Workspaces)-1].ID)

	_, err = ReorderWorkspaces(s, 5, 0)
	require.Error(t, err)
}
