package controller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workspace-state-engine/internal/client"
	"workspace-state-engine/internal/domain"
	"workspace-state-engine/internal/migration"
	"workspace-state-engine/internal/state"
)

const legacyBlob = `{
	"columns": [{"id": "todo", "name": "Todo", "cardIds": ["c1"]}],
	"cards": {"c1": {"id": "c1", "title": "First"}},
	"categories": []
}`

func newTestController(userID string, snapshots *MockSnapshotRepository, remote *MockRemoteStateClient) *Controller {
	cfg := Config{
		UserID:   userID,
		Debounce: 20 * time.Millisecond,
	}
	if snapshots != nil {
		cfg.Snapshots = snapshots
	}
	if remote != nil {
		cfg.Remote = remote
	}
	return New(cfg)
}

// waitFor polls cond up to a second
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestLoad_FreshDefaultState(t *testing.T) {
	repo := &MockSnapshotRepository{}
	c := newTestController("", repo, nil)

	require.NoError(t, c.Load(context.Background()))

	st := c.State()
	require.Len(t, st.Workspaces, 1)
	assert.Equal(t, migration.DefaultWorkspaceName, st.Workspaces[0].Name)
	assert.NotEmpty(t, st.ActivePageID)

	status := c.Status()
	assert.False(t, status.Migrated)
	assert.False(t, status.Pending)
	assert.Equal(t, 0, repo.SaveCount())
}

func TestLoad_MigratesLegacySnapshot(t *testing.T) {
	repo := &MockSnapshotRepository{
		LoadFunc: func(ctx context.Context, key string) (*domain.StateSnapshot, error) {
			return &domain.StateSnapshot{
				Key:       key,
				Payload:   []byte(legacyBlob),
				UpdatedAt: time.Now().UTC(),
			}, nil
		},
	}
	c := newTestController("", repo, nil)

	require.NoError(t, c.Load(context.Background()))

	assert.True(t, c.Status().Migrated, "legacy schema upgrade must be reported")
	st := c.State()
	require.Len(t, st.Workspaces, 1)
	board := st.Pages[st.ActivePageID]
	assert.Equal(t, []string{"c1"}, board.Columns[0].CardIDs)

	// The upgraded shape is persisted without waiting for a mutation
	waitFor(t, func() bool { return repo.SaveCount() > 0 })
	assert.Equal(t, LocalKey, repo.LastKey())

	var persisted domain.WorkspaceState
	require.NoError(t, json.Unmarshal(repo.LastSave(), &persisted))
	assert.Len(t, persisted.Workspaces, 1)
}

func TestLoad_NewerRemoteWins(t *testing.T) {
	localState := migration.DefaultState()
	localPayload, err := json.Marshal(localState)
	require.NoError(t, err)

	remoteState := migration.DefaultState()
	remoteState.Workspaces[0].Name = "Remote"
	remotePayload, err := json.Marshal(remoteState)
	require.NoError(t, err)

	base := time.Now().UTC()
	repo := &MockSnapshotRepository{
		LoadFunc: func(ctx context.Context, key string) (*domain.StateSnapshot, error) {
			return &domain.StateSnapshot{Key: key, Payload: localPayload, UpdatedAt: base}, nil
		},
	}
	remote := &MockRemoteStateClient{
		FetchFunc: func(ctx context.Context, userID string) (*client.RemoteState, error) {
			return &client.RemoteState{Payload: remotePayload, UpdatedAt: base.Add(time.Hour)}, nil
		},
	}
	c := newTestController("u1", repo, remote)

	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, "Remote", c.State().Workspaces[0].Name)
	assert.Equal(t, 0, remote.PushCount(), "no synchronous push-back on adoption")

	// The adopted remote state refreshes the stale local snapshot without
	// waiting for the next mutation
	waitFor(t, func() bool { return repo.SaveCount() > 0 })
	var persisted domain.WorkspaceState
	require.NoError(t, json.Unmarshal(repo.LastSave(), &persisted))
	assert.Equal(t, "Remote", persisted.Workspaces[0].Name)
}

func TestLoad_NewerLocalPushesRemote(t *testing.T) {
	localState := migration.DefaultState()
	localState.Workspaces[0].Name = "Local"
	localPayload, err := json.Marshal(localState)
	require.NoError(t, err)

	base := time.Now().UTC()
	repo := &MockSnapshotRepository{
		LoadFunc: func(ctx context.Context, key string) (*domain.StateSnapshot, error) {
			return &domain.StateSnapshot{Key: key, Payload: localPayload, UpdatedAt: base}, nil
		},
	}
	remote := &MockRemoteStateClient{
		FetchFunc: func(ctx context.Context, userID string) (*client.RemoteState, error) {
			return &client.RemoteState{Payload: []byte(`{}`), UpdatedAt: base.Add(-time.Hour)}, nil
		},
	}
	c := newTestController("u1", repo, remote)

	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, "Local", c.State().Workspaces[0].Name)

	require.NoError(t, c.Close(context.Background()))
	assert.GreaterOrEqual(t, remote.PushCount(), 1, "the authoritative local state is pushed out")
}

func TestLoad_RemoteFetchFailureSurfaces(t *testing.T) {
	repo := &MockSnapshotRepository{}
	remote := &MockRemoteStateClient{
		FetchFunc: func(ctx context.Context, userID string) (*client.RemoteState, error) {
			return nil, errors.New("connection refused")
		},
	}
	c := newTestController("u1", repo, remote)

	require.NoError(t, c.Load(context.Background()), "remote failure must not fail the load")
	assert.Contains(t, c.Status().Error, "remote read failed")
	require.Len(t, c.State().Workspaces, 1, "local state still serves")
}

// flakySnapshotRepository fails reads until recover is called
func flakySnapshotRepository(payload []byte) (*MockSnapshotRepository, func()) {
	var mu sync.Mutex
	readable := false
	repo := &MockSnapshotRepository{
		LoadFunc: func(ctx context.Context, key string) (*domain.StateSnapshot, error) {
			mu.Lock()
			defer mu.Unlock()
			if !readable {
				return nil, errors.New("disk failure")
			}
			return &domain.StateSnapshot{
				Key:       key,
				Payload:   payload,
				UpdatedAt: time.Now().UTC(),
			}, nil
		},
	}
	markReadable := func() {
		mu.Lock()
		readable = true
		mu.Unlock()
	}
	return repo, markReadable
}

func TestLoad_TransientLocalReadErrorHoldsWrites(t *testing.T) {
	storedState := migration.DefaultState()
	storedState.Workspaces[0].Name = "Stored"
	storedPayload, err := json.Marshal(storedState)
	require.NoError(t, err)

	repo, recoverStore := flakySnapshotRepository(storedPayload)
	c := New(Config{Snapshots: repo, Debounce: time.Hour})

	require.NoError(t, c.Load(context.Background()), "read failure must not fail the load")
	assert.Contains(t, c.Status().Error, "local read failed")
	require.Len(t, c.State().Workspaces, 1, "engine stays usable in memory")

	// While the store is unreadable, nothing may overwrite the stored row
	require.NoError(t, c.Apply("workspace.create", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.AddWorkspace(st, state.NewWorkspace("Scratch", ""))
	}))
	require.Error(t, c.SaveNow(context.Background()))
	assert.Equal(t, 0, repo.SaveCount(), "fallback state must not clobber the stored snapshot")

	// Store recovers; the edited session is the last writer
	recoverStore()
	require.NoError(t, c.SaveNow(context.Background()))
	require.Equal(t, 1, repo.SaveCount())
	var persisted domain.WorkspaceState
	require.NoError(t, json.Unmarshal(repo.LastSave(), &persisted))
	assert.Len(t, persisted.Workspaces, 2)
	assert.Equal(t, "", c.Status().Error)
}

func TestRetry_AdoptsStoredSnapshotAfterReadRecovery(t *testing.T) {
	storedState := migration.DefaultState()
	storedState.Workspaces[0].Name = "Stored"
	storedPayload, err := json.Marshal(storedState)
	require.NoError(t, err)

	repo, recoverStore := flakySnapshotRepository(storedPayload)
	c := New(Config{Snapshots: repo, Debounce: time.Hour})

	require.NoError(t, c.Load(context.Background()))
	require.Contains(t, c.Status().Error, "local read failed")

	recoverStore()
	c.Retry(context.Background())

	assert.Equal(t, "Stored", c.State().Workspaces[0].Name,
		"a session with no edits adopts the stored snapshot once readable")
	assert.Equal(t, "", c.Status().Error)
	assert.Equal(t, 0, repo.SaveCount(), "adoption reads, it does not write")
}

func TestApply_ImmediateEffectDebouncedWrite(t *testing.T) {
	repo := &MockSnapshotRepository{}
	c := newTestController("u1", repo, nil)
	require.NoError(t, c.Load(context.Background()))

	for _, name := range []string{"First", "Second"} {
		n := name
		err := c.Apply("workspace.update", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
			return state.UpdateWorkspace(st, st.Workspaces[0].ID, state.WorkspaceUpdate{Name: &n})
		})
		require.NoError(t, err)
	}

	assert.Equal(t, "Second", c.State().Workspaces[0].Name, "mutations are visible immediately")
	assert.Equal(t, 0, repo.SaveCount(), "writes are debounced, not synchronous")

	waitFor(t, func() bool { return repo.SaveCount() > 0 })
	assert.Equal(t, 1, repo.SaveCount(), "rapid mutations collapse into one write")
	assert.Equal(t, "workspace_state:u1", repo.LastKey())

	var persisted domain.WorkspaceState
	require.NoError(t, json.Unmarshal(repo.LastSave(), &persisted))
	assert.Equal(t, "Second", persisted.Workspaces[0].Name, "only the latest state is written")
}

func TestApply_FailedMutationChangesNothing(t *testing.T) {
	repo := &MockSnapshotRepository{}
	c := newTestController("", repo, nil)
	require.NoError(t, c.Load(context.Background()))
	before := c.State()

	err := c.Apply("workspace.delete", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		next, _, err := state.DeleteWorkspace(st, st.Workspaces[0].ID)
		return next, err
	})
	require.Error(t, err, "deleting the last workspace is rejected")

	assert.Equal(t, before.ActiveWorkspaceID, c.State().ActiveWorkspaceID)
	assert.False(t, c.CanUndo(), "failed mutations leave no history entry")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, repo.SaveCount(), "failed mutations schedule no write")
}

func TestApply_NormalizeSynthesizesReplacementBoard(t *testing.T) {
	c := newTestController("", &MockSnapshotRepository{}, nil)
	require.NoError(t, c.Load(context.Background()))
	originalBoard := c.State().ActivePageID

	err := c.Apply("page.delete", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		next, _, err := state.DeletePage(st, originalBoard)
		return next, err
	})
	require.NoError(t, err)

	st := c.State()
	require.NotEmpty(t, st.ActivePageID, "a replacement board becomes active")
	assert.NotEqual(t, originalBoard, st.ActivePageID)
	assert.True(t, st.Pages[st.ActivePageID].IsBoard())
	assert.Equal(t, state.DefaultBoardTitle, st.Pages[st.ActivePageID].Title)
}

func TestUndoRedoThroughController(t *testing.T) {
	c := newTestController("", &MockSnapshotRepository{}, nil)
	require.NoError(t, c.Load(context.Background()))
	original := c.State().Workspaces[0].Name

	name := "Renamed"
	err := c.Apply("workspace.update", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.UpdateWorkspace(st, st.Workspaces[0].ID, state.WorkspaceUpdate{Name: &name})
	})
	require.NoError(t, err)
	require.True(t, c.CanUndo())

	require.True(t, c.Undo())
	assert.Equal(t, original, c.State().Workspaces[0].Name)
	require.True(t, c.CanRedo())

	require.True(t, c.Redo())
	assert.Equal(t, "Renamed", c.State().Workspaces[0].Name)

	assert.False(t, c.Redo(), "empty redo stack is a no-op")
}

func TestSaveNow_FlushesWithoutWaiting(t *testing.T) {
	repo := &MockSnapshotRepository{}
	c := New(Config{UserID: "u1", Snapshots: repo, Debounce: time.Hour})
	require.NoError(t, c.Load(context.Background()))

	name := "Renamed"
	err := c.Apply("workspace.update", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.UpdateWorkspace(st, st.Workspaces[0].ID, state.WorkspaceUpdate{Name: &name})
	})
	require.NoError(t, err)
	require.Equal(t, 0, repo.SaveCount())

	require.NoError(t, c.SaveNow(context.Background()))
	assert.Equal(t, 1, repo.SaveCount())
	assert.False(t, c.Status().Pending)

	// Nothing pending, nothing written
	require.NoError(t, c.SaveNow(context.Background()))
	assert.Equal(t, 1, repo.SaveCount())
}

func TestFlush_LocalFailureSurfaces(t *testing.T) {
	repo := &MockSnapshotRepository{
		SaveFunc: func(ctx context.Context, key string, payload []byte, updatedAt time.Time) error {
			return errors.New("disk full")
		},
	}
	c := New(Config{Snapshots: repo, Debounce: time.Hour})
	require.NoError(t, c.Load(context.Background()))

	name := "Renamed"
	require.NoError(t, c.Apply("workspace.update", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.UpdateWorkspace(st, st.Workspaces[0].ID, state.WorkspaceUpdate{Name: &name})
	}))

	err := c.SaveNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, c.Status().Error, "local write failed")
	assert.Equal(t, "Renamed", c.State().Workspaces[0].Name, "local failure never reverts state")
}

func TestFlush_RemoteFailureDoesNotBlockLocal(t *testing.T) {
	repo := &MockSnapshotRepository{}
	remoteDown := true
	remote := &MockRemoteStateClient{
		PushFunc: func(ctx context.Context, userID string, payload []byte, updatedAt time.Time) error {
			if remoteDown {
				return errors.New("connection refused")
			}
			return nil
		},
	}
	c := New(Config{UserID: "u1", Snapshots: repo, Remote: remote, Debounce: time.Hour})
	require.NoError(t, c.Load(context.Background()))

	name := "Renamed"
	require.NoError(t, c.Apply("workspace.update", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.UpdateWorkspace(st, st.Workspaces[0].ID, state.WorkspaceUpdate{Name: &name})
	}))

	require.NoError(t, c.SaveNow(context.Background()), "remote failure is not a save failure")
	assert.Equal(t, 1, repo.SaveCount(), "local write landed")
	assert.Contains(t, c.Status().Error, "remote write failed")

	// The retry job path: remote recovers, Retry clears the error
	remoteDown = false
	c.Retry(context.Background())
	assert.Empty(t, c.Status().Error)

	// Without an error Retry is a no-op
	saves := repo.SaveCount()
	c.Retry(context.Background())
	assert.Equal(t, saves, repo.SaveCount())
}

func TestSubscribe(t *testing.T) {
	c := newTestController("", &MockSnapshotRepository{}, nil)
	require.NoError(t, c.Load(context.Background()))

	var seen []string
	unsubscribe := c.Subscribe(func(st domain.WorkspaceState) {
		seen = append(seen, st.Workspaces[0].Name)
	})

	name := "Renamed"
	require.NoError(t, c.Apply("workspace.update", "", func(st domain.WorkspaceState) (domain.WorkspaceState, error) {
		return state.UpdateWorkspace(st, st.Workspaces[0].ID, state.WorkspaceUpdate{Name: &name})
	}))
	require.Equal(t, []string{"Renamed"}, seen)

	c.Undo()
	require.Len(t, seen, 2)

	unsubscribe()
	c.Redo()
	assert.Len(t, seen, 2, "unsubscribed callbacks stop firing")
}
