package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/types"
)

type ReminderPreferenceRepo interface {
	// ListForUsers batch-fetches stored preferences for a set of users; the
	// caller narrows to exact (user, goal) pairs in memory.
	ListForUsers(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.ReminderPreference, error)
	Upsert(ctx context.Context, tx *gorm.DB, pref *types.ReminderPreference) error
}

type reminderPreferenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReminderPreferenceRepo(db *gorm.DB, baseLog *logger.Logger) ReminderPreferenceRepo {
	return &reminderPreferenceRepo{db: db, log: baseLog.With("repo", "ReminderPreferenceRepo")}
}

func (rp *reminderPreferenceRepo) ListForUsers(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.ReminderPreference, error) {
	transaction := tx
	if transaction == nil {
		transaction = rp.db
	}

	var results []*types.ReminderPreference
	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rp *reminderPreferenceRepo) Upsert(ctx context.Context, tx *gorm.DB, pref *types.ReminderPreference) error {
	transaction := tx
	if transaction == nil {
		transaction = rp.db
	}

	existing := &types.ReminderPreference{}
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND goal_id = ?", pref.UserID, pref.GoalID).
		First(existing).Error
	if err == gorm.ErrRecordNotFound {
		return transaction.WithContext(ctx).Create(pref).Error
	}
	if err != nil {
		return err
	}
	pref.ID = existing.ID
	return transaction.WithContext(ctx).Save(pref).Error
}
