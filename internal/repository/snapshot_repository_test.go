package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"workspace-state-engine/internal/database"
)

func setupSnapshotTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestSnapshotRepository_SaveLoadRoundTrip(t *testing.T) {
	repo := NewSnapshotRepository(setupSnapshotTestDB(t))
	ctx := context.Background()

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, "local", []byte(`{"v":1}`), first))

	snapshot, err := repo.Load(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":1}`), []byte(snapshot.Payload))

	// Saving the same key upserts
	require.NoError(t, repo.Save(ctx, "local", []byte(`{"v":2}`), first.Add(time.Minute)))
	snapshot, err = repo.Load(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":2}`), []byte(snapshot.Payload))

	_, err = repo.Load(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSnapshotRepository_UnconnectedStoreDegrades(t *testing.T) {
	repo := NewSnapshotRepository(nil)
	ctx := context.Background()

	_, err := repo.Load(ctx, "local")
	assert.ErrorIs(t, err, gorm.ErrInvalidDB, "an unconnected store must error, not panic")
	assert.ErrorIs(t, repo.Save(ctx, "local", []byte(`{}`), time.Now().UTC()), gorm.ErrInvalidDB)

	// Once the shared connection comes up, the same repository serves it
	db := setupSnapshotTestDB(t)
	database.SetDB(db)
	defer database.SetDB(nil)

	require.NoError(t, repo.Save(ctx, "local", []byte(`{"v":1}`), time.Now().UTC()))
	snapshot, err := repo.Load(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":1}`), []byte(snapshot.Payload))
}
