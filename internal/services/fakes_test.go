package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pursue-app/pursue-backend/internal/repos"
	"github.com/pursue-app/pursue-backend/internal/types"
)

// In-memory repo fakes shared by the service tests. Each fake mirrors the SQL
// filtering of its real counterpart closely enough that service logic cannot
// tell them apart.

type fakeGoalRepo struct {
	goals         []*types.Goal
	candidates    []*types.ReminderCandidate
	candidatesErr error
}

func (f *fakeGoalRepo) GetByIDs(ctx context.Context, tx *gorm.DB, goalIDs []uuid.UUID) ([]*types.Goal, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range goalIDs {
		want[id] = true
	}
	var out []*types.Goal
	for _, g := range f.goals {
		if want[g.ID] {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGoalRepo) ListReminderCandidates(ctx context.Context, tx *gorm.DB) ([]*types.ReminderCandidate, error) {
	return f.candidates, f.candidatesErr
}

type fakeGroupRepo struct {
	groups []*types.Group
}

func (f *fakeGroupRepo) GetByIDs(ctx context.Context, tx *gorm.DB, groupIDs []uuid.UUID) ([]*types.Group, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range groupIDs {
		want[id] = true
	}
	var out []*types.Group
	for _, g := range f.groups {
		if want[g.ID] {
			out = append(out, g)
		}
	}
	return out, nil
}

type fakeGroupMemberRepo struct {
	members    []*types.GroupMember
	completion *repos.GroupCompletion
}

func (f *fakeGroupMemberRepo) ListActiveByGroup(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) ([]*types.GroupMember, error) {
	var out []*types.GroupMember
	for _, m := range f.members {
		if m.GroupID == groupID && m.Status == types.MemberStatusActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeGroupMemberRepo) GetGroupCompletion(ctx context.Context, tx *gorm.DB, groupID, goalID uuid.UUID, localDate string) (*repos.GroupCompletion, error) {
	if f.completion != nil {
		return f.completion, nil
	}
	return &repos.GroupCompletion{}, nil
}

type fakeUserRepo struct {
	users []*types.User
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range userIDs {
		want[id] = true
	}
	var out []*types.User
	for _, u := range f.users {
		if want[u.ID] {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeProgressRepo struct {
	entries []*types.ProgressEntry
	pairs   []*repos.PairActivity
}

func (f *fakeProgressRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.ProgressEntry) ([]*types.ProgressEntry, error) {
	f.entries = append(f.entries, entries...)
	return entries, nil
}

func (f *fakeProgressRepo) ListForPairSince(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, since time.Time) ([]*types.ProgressEntry, error) {
	var out []*types.ProgressEntry
	for _, e := range f.entries {
		if e.UserID == userID && e.GoalID == goalID && !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeProgressRepo) ListByGoalsAndDates(ctx context.Context, tx *gorm.DB, goalIDs []uuid.UUID, localDates []string) ([]*types.ProgressEntry, error) {
	wantGoal := map[uuid.UUID]bool{}
	for _, id := range goalIDs {
		wantGoal[id] = true
	}
	wantDate := map[string]bool{}
	for _, d := range localDates {
		wantDate[d] = true
	}
	var out []*types.ProgressEntry
	for _, e := range f.entries {
		if wantGoal[e.GoalID] && wantDate[e.PeriodStart] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) ListDatesForUsers(ctx context.Context, tx *gorm.DB, goalID uuid.UUID, userIDs []uuid.UUID, sinceDate string) ([]*types.ProgressEntry, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range userIDs {
		want[id] = true
	}
	var out []*types.ProgressEntry
	for _, e := range f.entries {
		if e.GoalID == goalID && want[e.UserID] && e.PeriodStart >= sinceDate {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) ListActivePairs(ctx context.Context, tx *gorm.DB, since time.Time) ([]*repos.PairActivity, error) {
	return f.pairs, nil
}

type fakePatternRepo struct {
	rows map[string]*types.LoggingPattern
}

func newFakePatternRepo() *fakePatternRepo {
	return &fakePatternRepo{rows: map[string]*types.LoggingPattern{}}
}

func (f *fakePatternRepo) key(userID, goalID uuid.UUID, dayOfWeek int) string {
	return fmt.Sprintf("%s:%s:%d", userID, goalID, dayOfWeek)
}

func (f *fakePatternRepo) Upsert(ctx context.Context, tx *gorm.DB, pattern *types.LoggingPattern) error {
	copied := *pattern
	f.rows[f.key(pattern.UserID, pattern.GoalID, pattern.DayOfWeek)] = &copied
	return nil
}

func (f *fakePatternRepo) DeleteByScope(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, scope types.PatternScope) (int64, error) {
	key := f.key(userID, goalID, scope.DayOfWeek())
	if _, ok := f.rows[key]; !ok {
		return 0, nil
	}
	delete(f.rows, key)
	return 1, nil
}

func (f *fakePatternRepo) ListForUsers(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.LoggingPattern, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range userIDs {
		want[id] = true
	}
	var out []*types.LoggingPattern
	for _, row := range f.rows {
		if want[row.UserID] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakePatternRepo) DeleteOrphans(ctx context.Context, tx *gorm.DB) (int64, error) {
	return 0, nil
}

type fakePrefRepo struct {
	prefs []*types.ReminderPreference
}

func (f *fakePrefRepo) ListForUsers(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.ReminderPreference, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range userIDs {
		want[id] = true
	}
	var out []*types.ReminderPreference
	for _, p := range f.prefs {
		if want[p.UserID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePrefRepo) Upsert(ctx context.Context, tx *gorm.DB, pref *types.ReminderPreference) error {
	for i, p := range f.prefs {
		if p.UserID == pref.UserID && p.GoalID == pref.GoalID {
			f.prefs[i] = pref
			return nil
		}
	}
	f.prefs = append(f.prefs, pref)
	return nil
}

type fakeHistoryRepo struct {
	entries []*types.ReminderHistory
}

func (f *fakeHistoryRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.ReminderHistory) ([]*types.ReminderHistory, error) {
	for _, e := range entries {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
	}
	f.entries = append(f.entries, entries...)
	return entries, nil
}

func (f *fakeHistoryRepo) ListForUsersSince(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, since time.Time) ([]*types.ReminderHistory, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range userIDs {
		want[id] = true
	}
	var out []*types.ReminderHistory
	for _, e := range f.entries {
		if want[e.UserID] && !e.SentAt.Before(since) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return out, nil
}

func (f *fakeHistoryRepo) ListUnlabeledBetween(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*types.ReminderHistory, error) {
	var out []*types.ReminderHistory
	for _, e := range f.entries {
		if e.WasEffective == nil && !e.SentAt.Before(from) && e.SentAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) SetEffectiveness(ctx context.Context, tx *gorm.DB, id uuid.UUID, effective bool) error {
	for _, e := range f.entries {
		if e.ID == id && e.WasEffective == nil {
			v := effective
			e.WasEffective = &v
		}
	}
	return nil
}

type sentPush struct {
	userID uuid.UUID
	title  string
	body   string
	data   map[string]string
}

type fakePushSender struct {
	sent   []sentPush
	errFor map[uuid.UUID]error
}

func (f *fakePushSender) SendNotificationToUser(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error {
	if err := f.errFor[userID]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentPush{userID: userID, title: title, body: body, data: data})
	return nil
}
