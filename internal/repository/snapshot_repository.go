package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"workspace-state-engine/internal/database"
	"workspace-state-engine/internal/domain"
)

// SnapshotRepository defines the interface for local snapshot data access
type SnapshotRepository interface {
	Load(ctx context.Context, key string) (*domain.StateSnapshot, error)
	Save(ctx context.Context, key string, payload []byte, updatedAt time.Time) error
	Delete(ctx context.Context, key string) error
}

// snapshotRepositoryImpl is the GORM implementation of SnapshotRepository
type snapshotRepositoryImpl struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a new instance of SnapshotRepository. A nil
// handle is tolerated: every call re-resolves the shared connection, so a
// store that only comes up after startup (background connect retry) gets
// picked up without rebuilding the repository.
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepositoryImpl{db: db}
}

// handle returns a usable connection, or gorm.ErrInvalidDB while the store
// is still unreachable
func (r *snapshotRepositoryImpl) handle() (*gorm.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	if db := database.GetDB(); db != nil {
		return db, nil
	}
	return nil, gorm.ErrInvalidDB
}

// Load reads the snapshot stored under key
func (r *snapshotRepositoryImpl) Load(ctx context.Context, key string) (*domain.StateSnapshot, error) {
	db, err := r.handle()
	if err != nil {
		return nil, err
	}
	var snapshot domain.StateSnapshot
	if err := db.WithContext(ctx).
		Where("key = ?", key).
		First(&snapshot).Error; err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Save upserts the snapshot row for key
func (r *snapshotRepositoryImpl) Save(ctx context.Context, key string, payload []byte, updatedAt time.Time) error {
	db, err := r.handle()
	if err != nil {
		return err
	}
	snapshot := domain.StateSnapshot{
		Key:       key,
		Payload:   payload,
		UpdatedAt: updatedAt,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&snapshot).Error
}

// Delete removes the snapshot row for key
func (r *snapshotRepositoryImpl) Delete(ctx context.Context, key string) error {
	db, err := r.handle()
	if err != nil {
		return err
	}
	return db.WithContext(ctx).
		Where("key = ?", key).
		Delete(&domain.StateSnapshot{}).Error
}
