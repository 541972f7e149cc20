package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/medgraph-backend/internal/platform/logger"
	"github.com/yungbote/medgraph-backend/internal/types"
)

type IngestionRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sourcePath string) (*types.IngestionRun, error)
	Finish(ctx context.Context, tx *gorm.DB, id uuid.UUID, status, reportJSON, errMsg string) error
	// HasActiveOrCompleted reports whether a running or completed run exists
	// for the source path. Ingestion is not safe to run concurrently against
	// one store; this is the external serialization guard.
	HasActiveOrCompleted(ctx context.Context, tx *gorm.DB, sourcePath string) (bool, error)
}

type ingestionRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIngestionRunRepo(db *gorm.DB, baseLog *logger.Logger) IngestionRunRepo {
	return &ingestionRunRepo{
		db:  db,
		log: baseLog.With("repo", "IngestionRunRepo"),
	}
}

func (r *ingestionRunRepo) Create(ctx context.Context, tx *gorm.DB, sourcePath string) (*types.IngestionRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	run := &types.IngestionRun{
		ID:         uuid.New(),
		SourcePath: sourcePath,
		Status:     types.IngestionRunning,
		StartedAt:  time.Now().UTC(),
	}
	if err := transaction.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *ingestionRunRepo) Finish(ctx context.Context, tx *gorm.DB, id uuid.UUID, status, reportJSON, errMsg string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	return transaction.WithContext(ctx).
		Model(&types.IngestionRun{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      status,
			"report_json": reportJSON,
			"error":       errMsg,
			"finished_at": &now,
		}).Error
}

func (r *ingestionRunRepo) HasActiveOrCompleted(ctx context.Context, tx *gorm.DB, sourcePath string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.IngestionRun{}).
		Where("source_path = ? AND status IN ?", sourcePath, []string{types.IngestionRunning, types.IngestionCompleted}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
