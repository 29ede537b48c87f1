package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	pkgerrors "github.com/pursue-app/pursue-backend/internal/pkg/errors"
	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/repos"
	"github.com/pursue-app/pursue-backend/internal/types"
)

type orchestratorFixture struct {
	orch     *reminderOrchestrator
	goals    *fakeGoalRepo
	prefs    *fakePrefRepo
	patterns *fakePatternRepo
	progress *fakeProgressRepo
	history  *fakeHistoryRepo
	sender   *fakePushSender

	user1 uuid.UUID
	user2 uuid.UUID
	goal1 uuid.UUID
	group uuid.UUID
	now   time.Time
}

// newOrchestratorFixture wires the orchestrator against in-memory repos with
// one group of two members and a single shared daily goal. The clock sits at
// 13:00 UTC, inside the default gentle window for UTC users.
func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()

	f := &orchestratorFixture{
		user1: uuid.New(),
		user2: uuid.New(),
		goal1: uuid.New(),
		group: uuid.New(),
		now:   time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC),
	}

	f.goals = &fakeGoalRepo{
		goals: []*types.Goal{{ID: f.goal1, GroupID: f.group, Title: "Morning run"}},
		candidates: []*types.ReminderCandidate{
			{UserID: f.user1, GoalID: f.goal1, GroupID: f.group, UserTimezone: "UTC", GoalTitle: "Morning run"},
		},
	}
	groups := &fakeGroupRepo{groups: []*types.Group{{ID: f.group, Name: "Dawn Patrol"}}}
	members := &fakeGroupMemberRepo{
		members: []*types.GroupMember{
			{GroupID: f.group, UserID: f.user1, Status: types.MemberStatusActive},
			{GroupID: f.group, UserID: f.user2, Status: types.MemberStatusActive},
		},
		completion: &repos.GroupCompletion{TotalMembers: 2, LoggedToday: 0},
	}
	users := &fakeUserRepo{users: []*types.User{
		{ID: f.user1, DisplayName: "Ada", Timezone: "UTC"},
		{ID: f.user2, DisplayName: "Sam", Timezone: "UTC"},
	}}

	f.prefs = &fakePrefRepo{}
	f.patterns = newFakePatternRepo()
	f.progress = &fakeProgressRepo{}
	f.history = &fakeHistoryRepo{}
	f.sender = &fakePushSender{}

	cfg := DefaultReminderConfig()
	social := NewSocialContextService(logger.NewNop(), cfg, f.goals, groups, members, users, f.progress)
	notifications, err := NewNotificationService(logger.NewNop(), f.history, f.sender, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("NewNotificationService: %v", err)
	}

	f.orch = &reminderOrchestrator{
		log:           logger.NewNop(),
		cfg:           cfg,
		goals:         f.goals,
		prefs:         f.prefs,
		patterns:      f.patterns,
		progress:      f.progress,
		history:       f.history,
		social:        social,
		notifications: notifications,
		tracer:        otel.Tracer("test"),
		now:           func() time.Time { return f.now },
	}
	return f
}

func TestProcessRemindersSendsAndRecords(t *testing.T) {
	f := newOrchestratorFixture(t)

	stats, err := f.orch.ProcessReminders(context.Background())
	if err != nil {
		t.Fatalf("ProcessReminders: %v", err)
	}
	if stats.Sent != 1 || stats.Skipped != 0 || stats.Errors != 0 {
		t.Fatalf("stats = %+v, want one send", stats)
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("sender calls = %d, want 1", len(f.sender.sent))
	}
	if len(f.history.entries) != 1 {
		t.Fatalf("history rows = %d, want 1", len(f.history.entries))
	}
	entry := f.history.entries[0]
	if entry.Tier != types.TierGentle || entry.SentAtLocalDate != "2026-03-10" {
		t.Errorf("history entry = %+v", entry)
	}
}

func TestProcessRemindersSkipsLoggedToday(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.progress.entries = append(f.progress.entries, &types.ProgressEntry{
		UserID:      f.user1,
		GoalID:      f.goal1,
		PeriodStart: "2026-03-10",
		CreatedAt:   f.now.Add(-2 * time.Hour),
	})

	stats, err := f.orch.ProcessReminders(context.Background())
	if err != nil {
		t.Fatalf("ProcessReminders: %v", err)
	}
	if stats.Sent != 0 || stats.Skipped != 1 {
		t.Fatalf("stats = %+v, want one skip", stats)
	}
	if len(f.sender.sent) != 0 {
		t.Fatalf("sender calls = %d, want 0", len(f.sender.sent))
	}
}

func TestProcessRemindersEnforcesDailyCap(t *testing.T) {
	f := newOrchestratorFixture(t)
	for i := 0; i < f.orch.cfg.DailyReminderCap; i++ {
		f.history.entries = append(f.history.entries, &types.ReminderHistory{
			ID:              uuid.New(),
			UserID:          f.user1,
			GoalID:          uuid.New(),
			Tier:            types.TierGentle,
			SentAt:          f.now.Add(-time.Duration(i+1) * time.Hour),
			SentAtLocalDate: "2026-03-10",
		})
	}

	stats, err := f.orch.ProcessReminders(context.Background())
	if err != nil {
		t.Fatalf("ProcessReminders: %v", err)
	}
	if stats.Sent != 0 || stats.Skipped != 1 {
		t.Fatalf("stats = %+v, want cap skip", stats)
	}
}

func TestProcessRemindersEscalatesTierWithinDay(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.now = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	f.history.entries = append(f.history.entries, &types.ReminderHistory{
		ID:              uuid.New(),
		UserID:          f.user1,
		GoalID:          f.goal1,
		Tier:            types.TierGentle,
		SentAt:          f.now.Add(-5 * time.Hour),
		SentAtLocalDate: "2026-03-10",
	})

	stats, err := f.orch.ProcessReminders(context.Background())
	if err != nil {
		t.Fatalf("ProcessReminders: %v", err)
	}
	if stats.Sent != 1 {
		t.Fatalf("stats = %+v, want escalated send", stats)
	}
	latest := f.history.entries[len(f.history.entries)-1]
	if latest.Tier != types.TierSupportive {
		t.Fatalf("escalated tier = %q, want supportive", latest.Tier)
	}
}

func TestProcessRemindersIsolatesFailures(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.goals.candidates = append(f.goals.candidates, &types.ReminderCandidate{
		UserID: f.user2, GoalID: f.goal1, GroupID: f.group, UserTimezone: "UTC", GoalTitle: "Morning run",
	})
	f.sender.errFor = map[uuid.UUID]error{f.user1: errors.New("device unregistered")}

	stats, err := f.orch.ProcessReminders(context.Background())
	if err != nil {
		t.Fatalf("ProcessReminders: %v", err)
	}
	if stats.Errors != 1 || stats.Sent != 1 {
		t.Fatalf("stats = %+v, want one error and one send", stats)
	}
	if len(f.history.entries) != 1 || f.history.entries[0].UserID != f.user2 {
		t.Fatalf("history = %+v, want only user2's reminder", f.history.entries)
	}
}

func TestProcessRemindersFatalOnCandidateFetch(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.goals.candidatesErr = errors.New("connection refused")

	if _, err := f.orch.ProcessReminders(context.Background()); err == nil {
		t.Fatal("ProcessReminders succeeded despite candidate fetch failure")
	}
}

func TestProcessRemindersRespectsRunLease(t *testing.T) {
	f := newOrchestratorFixture(t)
	lock := NewLocalRunLock()
	f.orch.lock = lock

	acquired, err := lock.TryAcquire(context.Background(), reminderRunLockKey, time.Minute)
	if err != nil || !acquired {
		t.Fatalf("pre-acquire lease: acquired=%v err=%v", acquired, err)
	}

	_, err = f.orch.ProcessReminders(context.Background())
	if !errors.Is(err, pkgerrors.ErrRunInProgress) {
		t.Fatalf("err = %v, want ErrRunInProgress", err)
	}

	lock.Release(context.Background(), reminderRunLockKey)
	stats, err := f.orch.ProcessReminders(context.Background())
	if err != nil {
		t.Fatalf("ProcessReminders after release: %v", err)
	}
	if stats.Sent != 1 {
		t.Fatalf("stats = %+v, want send after lease release", stats)
	}
}

func TestPickPattern(t *testing.T) {
	userID := uuid.New()
	goalID := uuid.New()
	general := &types.LoggingPattern{UserID: userID, GoalID: goalID, DayOfWeek: -1}
	monday := &types.LoggingPattern{UserID: userID, GoalID: goalID, DayOfWeek: int(time.Monday)}

	if got := pickPattern([]*types.LoggingPattern{general, monday}, time.Monday); got != monday {
		t.Errorf("Monday lookup returned %+v, want the weekday row", got)
	}
	if got := pickPattern([]*types.LoggingPattern{general, monday}, time.Friday); got != general {
		t.Errorf("Friday lookup returned %+v, want the general row", got)
	}
	if got := pickPattern(nil, time.Monday); got != nil {
		t.Errorf("empty lookup returned %+v, want nil", got)
	}
}
