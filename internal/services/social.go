package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/repos"
	"github.com/pursue-app/pursue-backend/internal/types"
)

// SocialContextService computes the group-relative stats that personalize
// reminder copy. The context is built fresh per send and only survives as a
// snapshot on the history row.
type SocialContextService interface {
	// Build returns nil (without error) when the goal or its group has been
	// deleted; callers must skip sending in that case.
	Build(ctx context.Context, goalID, userID uuid.UUID, localDate string) (*types.SocialContext, error)
}

type socialContextService struct {
	log      *logger.Logger
	cfg      ReminderConfig
	goals    repos.GoalRepo
	groups   repos.GroupRepo
	members  repos.GroupMemberRepo
	users    repos.UserRepo
	progress repos.ProgressEntryRepo
}

func NewSocialContextService(baseLog *logger.Logger, cfg ReminderConfig, goals repos.GoalRepo, groups repos.GroupRepo, members repos.GroupMemberRepo, users repos.UserRepo, progress repos.ProgressEntryRepo) SocialContextService {
	return &socialContextService{
		log:      baseLog.With("service", "SocialContextService"),
		cfg:      cfg,
		goals:    goals,
		groups:   groups,
		members:  members,
		users:    users,
		progress: progress,
	}
}

func (s *socialContextService) Build(ctx context.Context, goalID, userID uuid.UUID, localDate string) (*types.SocialContext, error) {
	goalRows, err := s.goals.GetByIDs(ctx, nil, []uuid.UUID{goalID})
	if err != nil {
		return nil, fmt.Errorf("fetch goal: %w", err)
	}
	if len(goalRows) == 0 {
		return nil, nil
	}
	goal := goalRows[0]

	groupRows, err := s.groups.GetByIDs(ctx, nil, []uuid.UUID{goal.GroupID})
	if err != nil {
		return nil, fmt.Errorf("fetch group: %w", err)
	}
	if len(groupRows) == 0 {
		return nil, nil
	}
	group := groupRows[0]

	completion, err := s.members.GetGroupCompletion(ctx, nil, group.ID, goalID, localDate)
	if err != nil {
		return nil, fmt.Errorf("fetch group completion: %w", err)
	}

	percent := 0.0
	if completion.TotalMembers > 0 {
		percent = float64(completion.LoggedToday) / float64(completion.TotalMembers) * 100
	}

	memberRows, err := s.members.ListActiveByGroup(ctx, nil, group.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch group members: %w", err)
	}
	memberIDs := make([]uuid.UUID, 0, len(memberRows))
	for _, m := range memberRows {
		memberIDs = append(memberIDs, m.UserID)
	}

	sinceDate := shiftDate(localDate, -s.cfg.StreakLookbackDays)
	entries, err := s.progress.ListDatesForUsers(ctx, nil, goalID, memberIDs, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("fetch streak history: %w", err)
	}

	datesByUser := map[uuid.UUID]map[string]bool{}
	usersByDate := map[string]map[uuid.UUID]bool{}
	for _, entry := range entries {
		if datesByUser[entry.UserID] == nil {
			datesByUser[entry.UserID] = map[string]bool{}
		}
		datesByUser[entry.UserID][entry.PeriodStart] = true
		if usersByDate[entry.PeriodStart] == nil {
			usersByDate[entry.PeriodStart] = map[uuid.UUID]bool{}
		}
		usersByDate[entry.PeriodStart][entry.UserID] = true
	}

	social := &types.SocialContext{
		GroupID:         group.ID,
		GroupName:       group.Name,
		TotalMembers:    completion.TotalMembers,
		LoggedToday:     completion.LoggedToday,
		PercentComplete: percent,
		UserStreak:      streakEndingAt(datesByUser[userID], localDate),
	}

	social.TopPerformer = s.topPerformer(ctx, userID, memberIDs, datesByUser, localDate)
	social.GroupStreak = groupStreakEndingAt(usersByDate, completion.TotalMembers, localDate)

	return social, nil
}

// topPerformer finds the highest current streak among the other active
// members; ties keep the first seen. Omitted entirely when nobody has one.
func (s *socialContextService) topPerformer(ctx context.Context, userID uuid.UUID, memberIDs []uuid.UUID, datesByUser map[uuid.UUID]map[string]bool, localDate string) *types.TopPerformer {
	bestStreak := 0
	var bestID uuid.UUID
	for _, memberID := range memberIDs {
		if memberID == userID {
			continue
		}
		streak := streakEndingAt(datesByUser[memberID], localDate)
		if streak > bestStreak {
			bestStreak = streak
			bestID = memberID
		}
	}
	if bestStreak == 0 {
		return nil
	}

	name := ""
	if users, err := s.users.GetByIDs(ctx, nil, []uuid.UUID{bestID}); err != nil {
		s.log.Warn("Could not resolve top performer name", "user_id", bestID, "error", err)
	} else if len(users) > 0 {
		name = users[0].DisplayName
	}
	return &types.TopPerformer{Name: name, Streak: bestStreak}
}

// streakEndingAt counts consecutive logged local days scanning backwards from
// today (or yesterday, if today is not yet logged). Duplicate entries on one
// day neither break nor extend the streak.
func streakEndingAt(dates map[string]bool, today string) int {
	if len(dates) == 0 {
		return 0
	}
	day := today
	if !dates[day] {
		day = shiftDate(day, -1)
	}
	streak := 0
	for dates[day] {
		streak++
		day = shiftDate(day, -1)
	}
	return streak
}

// groupStreakEndingAt counts consecutive local days on which every active
// member logged, anchored like a personal streak.
func groupStreakEndingAt(usersByDate map[string]map[uuid.UUID]bool, totalMembers int, today string) int {
	if totalMembers == 0 {
		return 0
	}
	complete := func(date string) bool {
		return len(usersByDate[date]) >= totalMembers
	}
	day := today
	if !complete(day) {
		day = shiftDate(day, -1)
	}
	streak := 0
	for complete(day) {
		streak++
		day = shiftDate(day, -1)
	}
	return streak
}
