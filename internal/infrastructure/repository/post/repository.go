package post

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/nollidnosnhoj/ggpx/internal/domain/post"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/database/entities"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/database/transaction"
	"github.com/nollidnosnhoj/ggpx/internal/utils/platformerrors"
)

// Repository handles post persistence.
type Repository struct {
	db *transaction.Database
}

func NewRepository(db *transaction.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateSkippingDuplicates(ctx context.Context, posts []*domain.Post) (int64, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	rows := make([]entities.Post, len(posts))
	for i, p := range posts {
		rows[i] = toEntity(p)
	}
	result := r.db.GetTx(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&rows)
	if result.Error != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create posts",
			result.Error,
			"a1c3e5f7-0b2d-4f68-8a9c-1e3f5a7b9d02",
		)
	}
	return result.RowsAffected, nil
}

func (r *Repository) FindViewByID(ctx context.Context, id string) (*domain.PostView, error) {
	var entity entities.Post
	err := r.db.GetTx(ctx).
		Preload("Author").
		Preload("Game").
		Where("id = ?", id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				"post not found",
				err,
				"b2d4f6a8-1c3e-4a79-9b0d-2f4a6b8c0e13",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get post by id",
			err,
			"c3e5a7b9-2d4f-4b80-8c1e-3a5b7c9d1f24",
		)
	}
	return &domain.PostView{
		Post:   mapEntity(entity),
		Author: domain.Author{ID: entity.Author.ID, Name: entity.Author.Name},
		Game:   domain.GameRef{ID: entity.Game.ID, Name: entity.Game.Name, Slug: entity.Game.Slug},
	}, nil
}

func toEntity(p *domain.Post) entities.Post {
	var caption *string
	if p.Caption != "" {
		c := p.Caption
		caption = &c
	}
	return entities.Post{
		ID:            p.ID,
		Title:         p.Title,
		Caption:       caption,
		ImageWidth:    p.ImageWidth,
		ImageHeight:   p.ImageHeight,
		FileExtension: p.FileExtension,
		FileType:      p.FileType,
		FileSize:      p.FileSize,
		AuthorID:      p.AuthorID,
		GameID:        p.GameID,
	}
}

func mapEntity(entity entities.Post) domain.Post {
	post := domain.Post{
		ID:            entity.ID,
		Title:         entity.Title,
		ImageWidth:    entity.ImageWidth,
		ImageHeight:   entity.ImageHeight,
		FileExtension: entity.FileExtension,
		FileType:      entity.FileType,
		FileSize:      entity.FileSize,
		AuthorID:      entity.AuthorID,
		GameID:        entity.GameID,
		CreatedAt:     entity.CreatedAt,
	}
	if entity.Caption != nil {
		post.Caption = *entity.Caption
	}
	return post
}
