package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"workspace-state-engine/internal/controller"
	"workspace-state-engine/internal/domain"
	"workspace-state-engine/internal/metrics"
)

const testSecret = "test-secret"

// memorySnapshotRepository is an in-memory SnapshotRepository for router tests
type memorySnapshotRepository struct {
	snapshots map[string]*domain.StateSnapshot
}

func newMemorySnapshotRepository() *memorySnapshotRepository {
	return &memorySnapshotRepository{snapshots: map[string]*domain.StateSnapshot{}}
}

func (r *memorySnapshotRepository) Load(ctx context.Context, key string) (*domain.StateSnapshot, error) {
	if s, ok := r.snapshots[key]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memorySnapshotRepository) Save(ctx context.Context, key string, payload []byte, updatedAt time.Time) error {
	r.snapshots[key] = &domain.StateSnapshot{Key: key, Payload: payload, UpdatedAt: updatedAt}
	return nil
}

func (r *memorySnapshotRepository) Delete(ctx context.Context, key string) error {
	delete(r.snapshots, key)
	return nil
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	registry := controller.NewRegistry(func(userID string) *controller.Controller {
		return controller.New(controller.Config{
			UserID:    userID,
			Snapshots: newMemorySnapshotRepository(),
			Debounce:  time.Hour,
		})
	})

	return Setup(Config{
		Registry:       registry,
		Logger:         zap.NewNop(),
		JWTSecret:      testSecret,
		BasePath:       "/api/workspace",
		Metrics:        m,
		AllowedOrigins: []string{"*"},
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type stateEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		State   domain.WorkspaceState `json:"state"`
		CanUndo bool                  `json:"canUndo"`
		CanRedo bool                  `json:"canRedo"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) stateEnvelope {
	t.Helper()
	var env stateEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func signToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestHealthEndpoints(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/workspace/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetState_AnonymousDefault(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/workspace/state", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeState(t, w)
	assert.True(t, env.Success)
	require.Len(t, env.Data.State.Workspaces, 1)
	assert.False(t, env.Data.CanUndo)
	assert.NotEmpty(t, env.Data.State.ActivePageID)
}

func TestWorkspaceLifecycle(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/workspace/workspaces", gin.H{"name": "Work"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	env := decodeState(t, w)
	require.Len(t, env.Data.State.Workspaces, 2)
	assert.True(t, env.Data.CanUndo)

	// Undo removes it again
	w = doJSON(t, r, http.MethodPost, "/api/workspace/state/undo", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeState(t, w)
	assert.Len(t, env.Data.State.Workspaces, 1)
	assert.True(t, env.Data.CanRedo)

	// Redo brings it back
	w = doJSON(t, r, http.MethodPost, "/api/workspace/state/redo", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeState(t, w)
	assert.Len(t, env.Data.State.Workspaces, 2)
}

func TestCreateWorkspace_MissingName(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/workspace/workspaces", gin.H{"icon": "x"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeState(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestDeleteLastWorkspace_Conflict(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/workspace/state", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeState(t, w)
	workspaceID := env.Data.State.Workspaces[0].ID

	w = doJSON(t, r, http.MethodDelete, "/api/workspace/workspaces/"+workspaceID, nil, "")
	require.Equal(t, http.StatusConflict, w.Code)
	env = decodeState(t, w)
	assert.Equal(t, "INVARIANT_VIOLATION", env.Error.Code)
}

func TestCardFlow(t *testing.T) {
	r := setupTestRouter(t)

	// Discover the default board
	env := decodeState(t, doJSON(t, r, http.MethodGet, "/api/workspace/state", nil, ""))
	boardID := env.Data.State.ActivePageID

	// Two columns
	w := doJSON(t, r, http.MethodPost, "/api/workspace/pages/"+boardID+"/columns", gin.H{"name": "Todo"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/workspace/pages/"+boardID+"/columns", gin.H{"name": "Done"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	env = decodeState(t, w)
	columns := env.Data.State.Pages[boardID].Columns
	require.Len(t, columns, 2)

	// A card in the first column
	w = doJSON(t, r, http.MethodPost, "/api/workspace/pages/"+boardID+"/cards",
		gin.H{"columnId": columns[0].ID, "title": "Ship it"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	env = decodeState(t, w)
	cardIDs := env.Data.State.Pages[boardID].Columns[0].CardIDs
	require.Len(t, cardIDs, 1)

	// Move it to the second column
	w = doJSON(t, r, http.MethodPut, "/api/workspace/pages/"+boardID+"/cards/move",
		gin.H{"cardId": cardIDs[0], "fromColumnId": columns[0].ID, "toColumnId": columns[1].ID, "toIndex": 0}, "")
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeState(t, w)
	assert.Empty(t, env.Data.State.Pages[boardID].Columns[0].CardIDs)
	assert.Equal(t, []string{cardIDs[0]}, env.Data.State.Pages[boardID].Columns[1].CardIDs)

	// Moving a missing card is a 404
	w = doJSON(t, r, http.MethodPut, "/api/workspace/pages/"+boardID+"/cards/move",
		gin.H{"cardId": "missing", "fromColumnId": columns[0].ID, "toColumnId": columns[1].ID}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuth_InvalidTokenRejected(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/workspace/state", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_IdentitiesGetSeparateState(t *testing.T) {
	r := setupTestRouter(t)
	tokenA := signToken(t, uuid.New())

	// Signed-in user adds a workspace
	w := doJSON(t, r, http.MethodPost, "/api/workspace/workspaces", gin.H{"name": "Mine"}, tokenA)
	require.Equal(t, http.StatusCreated, w.Code)
	env := decodeState(t, w)
	require.Len(t, env.Data.State.Workspaces, 2)

	// The anonymous state is untouched
	env = decodeState(t, doJSON(t, r, http.MethodGet, "/api/workspace/state", nil, ""))
	assert.Len(t, env.Data.State.Workspaces, 1)

	// A different user starts fresh too
	tokenB := signToken(t, uuid.New())
	env = decodeState(t, doJSON(t, r, http.MethodGet, "/api/workspace/state", nil, tokenB))
	assert.Len(t, env.Data.State.Workspaces, 1)
}
