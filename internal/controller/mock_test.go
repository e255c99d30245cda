package controller

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"workspace-state-engine/internal/client"
	"workspace-state-engine/internal/domain"
)

// MockSnapshotRepository is a mock implementation of SnapshotRepository
type MockSnapshotRepository struct {
	mu sync.Mutex

	LoadFunc   func(ctx context.Context, key string) (*domain.StateSnapshot, error)
	SaveFunc   func(ctx context.Context, key string, payload []byte, updatedAt time.Time) error
	DeleteFunc func(ctx context.Context, key string) error

	saves [][]byte
	keys  []string
}

func (m *MockSnapshotRepository) Load(ctx context.Context, key string) (*domain.StateSnapshot, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, key)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockSnapshotRepository) Save(ctx context.Context, key string, payload []byte, updatedAt time.Time) error {
	m.mu.Lock()
	m.saves = append(m.saves, append([]byte(nil), payload...))
	m.keys = append(m.keys, key)
	m.mu.Unlock()
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, key, payload, updatedAt)
	}
	return nil
}

func (m *MockSnapshotRepository) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	return nil
}

// SaveCount returns how many saves happened
func (m *MockSnapshotRepository) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}

// LastSave returns the most recent payload, or nil
func (m *MockSnapshotRepository) LastSave() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saves) == 0 {
		return nil
	}
	return m.saves[len(m.saves)-1]
}

// LastKey returns the most recent save key, or ""
func (m *MockSnapshotRepository) LastKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.keys) == 0 {
		return ""
	}
	return m.keys[len(m.keys)-1]
}

// MockRemoteStateClient is a mock implementation of RemoteStateClient
type MockRemoteStateClient struct {
	mu sync.Mutex

	FetchFunc func(ctx context.Context, userID string) (*client.RemoteState, error)
	PushFunc  func(ctx context.Context, userID string, payload []byte, updatedAt time.Time) error

	pushes [][]byte
}

func (m *MockRemoteStateClient) Fetch(ctx context.Context, userID string) (*client.RemoteState, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockRemoteStateClient) Push(ctx context.Context, userID string, payload []byte, updatedAt time.Time) error {
	m.mu.Lock()
	m.pushes = append(m.pushes, append([]byte(nil), payload...))
	m.mu.Unlock()
	if m.PushFunc != nil {
		return m.PushFunc(ctx, userID, payload, updatedAt)
	}
	return nil
}

// PushCount returns how many pushes happened
func (m *MockRemoteStateClient) PushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pushes)
}
