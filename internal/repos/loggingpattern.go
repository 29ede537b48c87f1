package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/types"
)

type LoggingPatternRepo interface {
	// Upsert writes the recomputed pattern keyed by (user, goal, day_of_week).
	Upsert(ctx context.Context, tx *gorm.DB, pattern *types.LoggingPattern) error
	// DeleteByScope removes the pattern row for one scope of a pair. Used
	// when a recompute no longer has enough data to support the pattern.
	DeleteByScope(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, scope types.PatternScope) (int64, error)
	// ListForUsers batch-fetches every pattern row (all scopes) for a set of
	// users; callers narrow to pairs in memory.
	ListForUsers(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.LoggingPattern, error)
	// DeleteOrphans purges pattern rows whose user or goal no longer exists
	// or is soft-deleted.
	DeleteOrphans(ctx context.Context, tx *gorm.DB) (int64, error)
}

type loggingPatternRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLoggingPatternRepo(db *gorm.DB, baseLog *logger.Logger) LoggingPatternRepo {
	return &loggingPatternRepo{db: db, log: baseLog.With("repo", "LoggingPatternRepo")}
}

func (lp *loggingPatternRepo) Upsert(ctx context.Context, tx *gorm.DB, pattern *types.LoggingPattern) error {
	transaction := tx
	if transaction == nil {
		transaction = lp.db
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "goal_id"},
				{Name: "day_of_week"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"typical_hour_start",
				"typical_hour_end",
				"confidence_score",
				"sample_size",
				"last_calculated_at",
				"updated_at",
			}),
		}).
		Create(pattern).Error
}

func (lp *loggingPatternRepo) DeleteByScope(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, scope types.PatternScope) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = lp.db
	}

	result := transaction.WithContext(ctx).
		Where("user_id = ? AND goal_id = ? AND day_of_week = ?", userID, goalID, scope.DayOfWeek()).
		Delete(&types.LoggingPattern{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (lp *loggingPatternRepo) ListForUsers(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.LoggingPattern, error) {
	transaction := tx
	if transaction == nil {
		transaction = lp.db
	}

	var results []*types.LoggingPattern
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

func (lp *loggingPatternRepo) DeleteOrphans(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = lp.db
	}

	result := transaction.WithContext(ctx).Exec(`
		DELETE FROM logging_pattern lp
		WHERE NOT EXISTS (
		    SELECT 1 FROM "user" u
		    WHERE u.id = lp.user_id AND u.deleted_at IS NULL
		)
		OR NOT EXISTS (
		    SELECT 1 FROM goal g
		    WHERE g.id = lp.goal_id AND g.deleted_at IS NULL
		)
	`)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
