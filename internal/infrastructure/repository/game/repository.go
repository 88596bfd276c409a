package game

import (
	"context"

	"gorm.io/gorm/clause"

	domain "github.com/nollidnosnhoj/ggpx/internal/domain/game"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/database/entities"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/database/transaction"
	"github.com/nollidnosnhoj/ggpx/internal/utils/platformerrors"
)

// Repository handles local game persistence.
type Repository struct {
	db *transaction.Database
}

func NewRepository(db *transaction.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByIDs(ctx context.Context, ids []int64) ([]*domain.Game, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []entities.Game
	if err := r.db.GetTx(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find games",
			err,
			"d0f2b4c6-9e1a-4cf7-9d8f-0b2c4d6e8a91",
		)
	}
	return mapEntities(rows), nil
}

func (r *Repository) List(ctx context.Context, take int) ([]*domain.Game, error) {
	var rows []entities.Game
	if err := r.db.GetTx(ctx).Order("name ASC").Limit(take).Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list games",
			err,
			"e1a3c5d7-0f2b-4d08-8e9a-1c3d5e7f9b02",
		)
	}
	return mapEntities(rows), nil
}

func (r *Repository) InsertMissing(ctx context.Context, games []*domain.Game) error {
	if len(games) == 0 {
		return nil
	}
	rows := make([]entities.Game, len(games))
	for i, g := range games {
		rows[i] = entities.Game{
			ID:            g.ID,
			Name:          g.Name,
			Slug:          g.Slug,
			CoverID:       g.Cover.ID,
			CoverImageID:  g.Cover.ImageID,
			CoverURL:      g.Cover.URL,
			CoverChecksum: g.Cover.Checksum,
		}
	}
	err := r.db.GetTx(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to store games",
			err,
			"f2b4d6e8-1a3c-4e19-9fab-2d4e6f8a0c13",
		)
	}
	return nil
}

func mapEntities(rows []entities.Game) []*domain.Game {
	out := make([]*domain.Game, len(rows))
	for i, row := range rows {
		out[i] = &domain.Game{
			ID:   row.ID,
			Name: row.Name,
			Slug: row.Slug,
			Cover: domain.Cover{
				ID:       row.CoverID,
				ImageID:  row.CoverImageID,
				URL:      row.CoverURL,
				Checksum: row.CoverChecksum,
			},
		}
	}
	return out
}
