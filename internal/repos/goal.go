package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/types"
)

type GoalRepo interface {
	GetByIDs(ctx context.Context, tx *gorm.DB, goalIDs []uuid.UUID) ([]*types.Goal, error)
	// ListReminderCandidates returns every (user, goal) pair that could be
	// reminded today: daily cadence, live goal/group/user, active membership,
	// and no explicitly disabled preference. The per-user "already logged on
	// their local date" filter happens in memory because local dates differ
	// per candidate timezone.
	ListReminderCandidates(ctx context.Context, tx *gorm.DB) ([]*types.ReminderCandidate, error)
}

type goalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoalRepo(db *gorm.DB, baseLog *logger.Logger) GoalRepo {
	return &goalRepo{db: db, log: baseLog.With("repo", "GoalRepo")}
}

func (gr *goalRepo) GetByIDs(ctx context.Context, tx *gorm.DB, goalIDs []uuid.UUID) ([]*types.Goal, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}

	var results []*types.Goal
	if len(goalIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", goalIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (gr *goalRepo) ListReminderCandidates(ctx context.Context, tx *gorm.DB) ([]*types.ReminderCandidate, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}

	var results []*types.ReminderCandidate
	err := transaction.WithContext(ctx).Raw(`
		SELECT u.id AS user_id,
		       g.id AS goal_id,
		       g.group_id AS group_id,
		       u.timezone AS user_timezone,
		       g.title AS goal_title
		FROM goal g
		JOIN "group" gr ON gr.id = g.group_id AND gr.deleted_at IS NULL
		JOIN group_member gm ON gm.group_id = g.group_id AND gm.status = ?
		JOIN "user" u ON u.id = gm.user_id AND u.deleted_at IS NULL
		LEFT JOIN reminder_preference rp ON rp.user_id = u.id AND rp.goal_id = g.id
		WHERE g.cadence = ?
		  AND g.deleted_at IS NULL
		  AND (rp.id IS NULL OR (rp.enabled = true AND rp.mode <> ?))
	`, types.MemberStatusActive, types.CadenceDaily, types.ReminderModeDisabled).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
