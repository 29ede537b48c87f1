package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/types"
)

// GroupCompletion is the result of the single join query behind the social
// context percent-complete stat.
type GroupCompletion struct {
	TotalMembers int `gorm:"column:total_members"`
	LoggedToday  int `gorm:"column:logged_today"`
}

type GroupMemberRepo interface {
	ListActiveByGroup(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) ([]*types.GroupMember, error)
	// GetGroupCompletion counts active members and how many of them have a
	// progress entry for the goal on the given local date, in one query.
	GetGroupCompletion(ctx context.Context, tx *gorm.DB, groupID, goalID uuid.UUID, localDate string) (*GroupCompletion, error)
}

type groupMemberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGroupMemberRepo(db *gorm.DB, baseLog *logger.Logger) GroupMemberRepo {
	return &groupMemberRepo{db: db, log: baseLog.With("repo", "GroupMemberRepo")}
}

func (gm *groupMemberRepo) ListActiveByGroup(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) ([]*types.GroupMember, error) {
	transaction := tx
	if transaction == nil {
		transaction = gm.db
	}

	var results []*types.GroupMember
	if err := transaction.WithContext(ctx).
		Where("group_id = ? AND status = ?", groupID, types.MemberStatusActive).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (gm *groupMemberRepo) GetGroupCompletion(ctx context.Context, tx *gorm.DB, groupID, goalID uuid.UUID, localDate string) (*GroupCompletion, error) {
	transaction := tx
	if transaction == nil {
		transaction = gm.db
	}

	var result GroupCompletion
	err := transaction.WithContext(ctx).Raw(`
		SELECT COUNT(m.user_id) AS total_members,
		       COUNT(DISTINCT p.user_id) AS logged_today
		FROM group_member m
		LEFT JOIN progress_entry p
		  ON p.user_id = m.user_id AND p.goal_id = ? AND p.period_start = ?
		WHERE m.group_id = ? AND m.status = ?
	`, goalID, localDate, groupID, types.MemberStatusActive).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}
