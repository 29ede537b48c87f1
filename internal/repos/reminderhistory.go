package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/types"
)

type ReminderHistoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entries []*types.ReminderHistory) ([]*types.ReminderHistory, error)
	// ListForUsersSince batch-fetches reminders for a set of users sent at or
	// after the cutoff, newest first. One query feeds the sent-today map, the
	// per-user daily counts and the suppression signal.
	ListForUsersSince(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, since time.Time) ([]*types.ReminderHistory, error)
	// ListUnlabeledBetween returns entries with unknown effectiveness whose
	// sent_at falls inside [from, to).
	ListUnlabeledBetween(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*types.ReminderHistory, error)
	// SetEffectiveness labels an entry exactly once; rows already labeled are
	// left untouched.
	SetEffectiveness(ctx context.Context, tx *gorm.DB, id uuid.UUID, effective bool) error
}

type reminderHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReminderHistoryRepo(db *gorm.DB, baseLog *logger.Logger) ReminderHistoryRepo {
	return &reminderHistoryRepo{db: db, log: baseLog.With("repo", "ReminderHistoryRepo")}
}

func (rh *reminderHistoryRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.ReminderHistory) ([]*types.ReminderHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = rh.db
	}

	if len(entries) == 0 {
		return []*types.ReminderHistory{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (rh *reminderHistoryRepo) ListForUsersSince(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, since time.Time) ([]*types.ReminderHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = rh.db
	}

	var results []*types.ReminderHistory
	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id IN ? AND sent_at >= ?", userIDs, since).
		Order("sent_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rh *reminderHistoryRepo) ListUnlabeledBetween(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*types.ReminderHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = rh.db
	}

	var results []*types.ReminderHistory
	if err := transaction.WithContext(ctx).
		Where("was_effective IS NULL AND sent_at >= ? AND sent_at < ?", from, to).
		Order("sent_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rh *reminderHistoryRepo) SetEffectiveness(ctx context.Context, tx *gorm.DB, id uuid.UUID, effective bool) error {
	transaction := tx
	if transaction == nil {
		transaction = rh.db
	}

	return transaction.WithContext(ctx).
		Model(&types.ReminderHistory{}).
		Where("id = ? AND was_effective IS NULL", id).
		Update("was_effective", effective).Error
}
