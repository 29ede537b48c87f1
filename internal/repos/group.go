package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/types"
)

type GroupRepo interface {
	GetByIDs(ctx context.Context, tx *gorm.DB, groupIDs []uuid.UUID) ([]*types.Group, error)
}

type groupRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGroupRepo(db *gorm.DB, baseLog *logger.Logger) GroupRepo {
	return &groupRepo{db: db, log: baseLog.With("repo", "GroupRepo")}
}

func (gr *groupRepo) GetByIDs(ctx context.Context, tx *gorm.DB, groupIDs []uuid.UUID) ([]*types.Group, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}

	var results []*types.Group
	if len(groupIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", groupIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
