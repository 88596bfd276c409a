package post

import (
	"context"

	"gorm.io/gorm/clause"

	domain "github.com/nollidnosnhoj/ggpx/internal/domain/post"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/database/entities"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/database/transaction"
	"github.com/nollidnosnhoj/ggpx/internal/utils/platformerrors"
)

// UserRepository keeps author rows current.
type UserRepository struct {
	db *transaction.Database
}

func NewUserRepository(db *transaction.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts the author or refreshes its name. An empty name never
// overwrites a stored one.
func (r *UserRepository) Upsert(ctx context.Context, author domain.Author) error {
	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}
	if author.Name != "" {
		onConflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}
	}
	entity := entities.User{ID: author.ID, Name: author.Name}
	if err := r.db.GetTx(ctx).Clauses(onConflict).Create(&entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to upsert user",
			err,
			"c9e1a3b5-8d0f-4be6-8c7e-9a1b3c5d7f80",
		)
	}
	return nil
}
