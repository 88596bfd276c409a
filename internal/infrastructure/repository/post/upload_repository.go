package post

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "github.com/nollidnosnhoj/ggpx/internal/domain/post"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/database/entities"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/database/transaction"
	"github.com/nollidnosnhoj/ggpx/internal/utils/platformerrors"
)

// UploadRepository persists the upload ledger.
type UploadRepository struct {
	db *transaction.Database
}

func NewUploadRepository(db *transaction.Database) *UploadRepository {
	return &UploadRepository{db: db}
}

func (r *UploadRepository) Create(ctx context.Context, upload *domain.Upload) error {
	entity := entities.Upload{
		ID:            upload.ID,
		FileName:      upload.FileName,
		FileExtension: upload.FileExtension,
		FileSize:      upload.FileSize,
		FileType:      upload.FileType,
		OwnerID:       upload.OwnerID,
		CreatedAt:     upload.CreatedAt,
	}
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now().UTC()
	}
	err := r.db.GetTx(ctx).Create(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeConflict,
				"upload id already exists",
				err,
				"d4f6b8c0-3e5a-4c91-9d2f-4b6c8d0e2a35",
			)
		}
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create upload",
			err,
			"e5a7c9d1-4f6b-4da2-8e3a-5c7d9e1f3b46",
		)
	}
	upload.CreatedAt = entity.CreatedAt
	return nil
}

func (r *UploadRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Upload, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []entities.Upload
	if err := r.db.GetTx(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find uploads",
			err,
			"f6b8d0e2-5a7c-4eb3-9f4b-6d8e0f2a4c57",
		)
	}
	return mapUploads(rows), nil
}

func (r *UploadRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.GetTx(ctx).Where("id IN ?", ids).Delete(&entities.Upload{})
	if result.Error != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete uploads",
			result.Error,
			"a7c9e1f3-6b8d-4fc4-8a5c-7e9f1a3b5d68",
		)
	}
	return result.RowsAffected, nil
}

func (r *UploadRepository) FindOrphaned(ctx context.Context, before time.Time, limit int) ([]*domain.Upload, error) {
	var rows []entities.Upload
	err := r.db.GetTx(ctx).
		Where("created_at < ?", before).
		Where("NOT EXISTS (SELECT 1 FROM posts WHERE posts.id = uploads.id)").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find orphaned uploads",
			err,
			"b8d0f2a4-7c9e-4ad5-9b6d-8f0a2b4c6e79",
		)
	}
	return mapUploads(rows), nil
}

func mapUploads(rows []entities.Upload) []*domain.Upload {
	out := make([]*domain.Upload, len(rows))
	for i, row := range rows {
		out[i] = &domain.Upload{
			ID:            row.ID,
			FileName:      row.FileName,
			FileExtension: row.FileExtension,
			FileSize:      row.FileSize,
			FileType:      row.FileType,
			OwnerID:       row.OwnerID,
			CreatedAt:     row.CreatedAt,
		}
	}
	return out
}
