package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/types"
)

// PairActivity identifies a (user, goal) pair with at least one progress
// entry inside the pattern history window.
type PairActivity struct {
	UserID uuid.UUID `gorm:"column:user_id"`
	GoalID uuid.UUID `gorm:"column:goal_id"`
}

type ProgressEntryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entries []*types.ProgressEntry) ([]*types.ProgressEntry, error)
	// ListForPairSince returns entries for one pair created at or after the
	// cutoff instant, oldest first. Feeds the pattern calculator.
	ListForPairSince(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, since time.Time) ([]*types.ProgressEntry, error)
	// ListByGoalsAndDates batch-fetches entries for many goals over a small
	// set of local dates. Feeds the logged-today filter and the
	// effectiveness matcher.
	ListByGoalsAndDates(ctx context.Context, tx *gorm.DB, goalIDs []uuid.UUID, localDates []string) ([]*types.ProgressEntry, error)
	// ListDatesForUsers returns entries for a goal across many users with
	// period_start at or after sinceDate. Feeds streak computation.
	ListDatesForUsers(ctx context.Context, tx *gorm.DB, goalID uuid.UUID, userIDs []uuid.UUID, sinceDate string) ([]*types.ProgressEntry, error)
	// ListActivePairs returns the distinct (user, goal) pairs with at least
	// one entry created at or after the cutoff instant.
	ListActivePairs(ctx context.Context, tx *gorm.DB, since time.Time) ([]*PairActivity, error)
}

type progressEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressEntryRepo(db *gorm.DB, baseLog *logger.Logger) ProgressEntryRepo {
	return &progressEntryRepo{db: db, log: baseLog.With("repo", "ProgressEntryRepo")}
}

func (pr *progressEntryRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.ProgressEntry) ([]*types.ProgressEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if len(entries) == 0 {
		return []*types.ProgressEntry{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (pr *progressEntryRepo) ListForPairSince(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, since time.Time) ([]*types.ProgressEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.ProgressEntry
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND goal_id = ? AND created_at >= ?", userID, goalID, since).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *progressEntryRepo) ListByGoalsAndDates(ctx context.Context, tx *gorm.DB, goalIDs []uuid.UUID, localDates []string) ([]*types.ProgressEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.ProgressEntry
	if len(goalIDs) == 0 || len(localDates) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("goal_id IN ? AND period_start IN ?", goalIDs, localDates).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *progressEntryRepo) ListDatesForUsers(ctx context.Context, tx *gorm.DB, goalID uuid.UUID, userIDs []uuid.UUID, sinceDate string) ([]*types.ProgressEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.ProgressEntry
	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("goal_id = ? AND user_id IN ? AND period_start >= ?", goalID, userIDs, sinceDate).
		Order("period_start DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *progressEntryRepo) ListActivePairs(ctx context.Context, tx *gorm.DB, since time.Time) ([]*PairActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*PairActivity
	if err := transaction.WithContext(ctx).
		Model(&types.ProgressEntry{}).
		Select("DISTINCT user_id, goal_id").
		Where("created_at >= ?", since).
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
