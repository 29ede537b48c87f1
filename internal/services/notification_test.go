package services

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/types"
)

func newNotificationFixture(t *testing.T, history *fakeHistoryRepo, sender *fakePushSender) *notificationService {
	t.Helper()
	svc, err := NewNotificationService(logger.NewNop(), history, sender, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewNotificationService: %v", err)
	}
	return svc.(*notificationService)
}

func TestBuildNotificationGentle(t *testing.T) {
	svc := newNotificationFixture(t, &fakeHistoryRepo{}, &fakePushSender{})

	got := svc.buildNotification(types.TierGentle, "Morning run", nil)
	if got.Title != "Morning run" {
		t.Errorf("Title = %q, want the goal title", got.Title)
	}
	if !strings.Contains(got.Body, "Morning run") {
		t.Errorf("Body = %q, want the goal name substituted", got.Body)
	}
	if strings.Contains(got.Body, "{") {
		t.Errorf("Body = %q, has unreplaced placeholders", got.Body)
	}
	if got.Data["type"] != "reminder" || got.Data["tier"] != types.TierGentle {
		t.Errorf("Data = %v", got.Data)
	}
}

func TestBuildNotificationSupportivePriority(t *testing.T) {
	svc := newNotificationFixture(t, &fakeHistoryRepo{}, &fakePushSender{})

	tests := []struct {
		name   string
		social *types.SocialContext
		want   string
	}{
		{
			name:   "majority done wins",
			social: &types.SocialContext{GroupName: "Crew", PercentComplete: 60, UserStreak: 9},
			want:   "60%",
		},
		{
			name:   "streak next",
			social: &types.SocialContext{GroupName: "Crew", PercentComplete: 40, UserStreak: 4},
			want:   "4-day streak",
		},
		{
			name:   "generic fallback",
			social: &types.SocialContext{GroupName: "Crew", PercentComplete: 40},
			want:   "Crew is counting on you",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.buildNotification(types.TierSupportive, "Read", tt.social)
			if !strings.Contains(got.Body, tt.want) {
				t.Fatalf("Body = %q, want substring %q", got.Body, tt.want)
			}
		})
	}
}

func TestBuildNotificationLastChancePriority(t *testing.T) {
	svc := newNotificationFixture(t, &fakeHistoryRepo{}, &fakePushSender{})

	tests := []struct {
		name   string
		social *types.SocialContext
		want   string
	}{
		{
			name:   "long streak at risk wins",
			social: &types.SocialContext{UserStreak: 8, GroupStreak: 3},
			want:   "8-day streak",
		},
		{
			name:   "group streak next",
			social: &types.SocialContext{GroupName: "Crew", UserStreak: 2, GroupStreak: 3},
			want:   "3-day group streak",
		},
		{
			name:   "last one standing",
			social: &types.SocialContext{GroupName: "Crew", TotalMembers: 4, LoggedToday: 3},
			want:   "last one standing",
		},
		{
			name:   "generic fallback",
			social: &types.SocialContext{TotalMembers: 4, LoggedToday: 1},
			want:   "Last chance",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.buildNotification(types.TierLastChance, "Read", tt.social)
			if !strings.Contains(got.Body, tt.want) {
				t.Fatalf("Body = %q, want substring %q", got.Body, tt.want)
			}
		})
	}
}

func TestGentleBodyVariants(t *testing.T) {
	svc := newNotificationFixture(t, &fakeHistoryRepo{}, &fakePushSender{})

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[svc.gentleBody()] = true
	}
	if len(seen) < 2 {
		t.Fatalf("gentle copy never varied across 100 draws")
	}
	for body := range seen {
		if body == "" {
			t.Fatal("empty gentle variant")
		}
	}
}

func TestSendReminderRecordsHistory(t *testing.T) {
	history := &fakeHistoryRepo{}
	sender := &fakePushSender{}
	svc := newNotificationFixture(t, history, sender)

	candidate := &types.ReminderCandidate{
		UserID:       uuid.New(),
		GoalID:       uuid.New(),
		UserTimezone: "America/New_York",
		GoalTitle:    "Meditate",
	}
	social := &types.SocialContext{GroupName: "Calm", TotalMembers: 3, LoggedToday: 1, PercentComplete: 33.3}
	sentAt := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)

	entry, err := svc.SendReminder(context.Background(), candidate, types.TierSupportive, social, "2026-03-10", sentAt)
	if err != nil {
		t.Fatalf("SendReminder: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sender calls = %d, want 1", len(sender.sent))
	}
	if len(history.entries) != 1 {
		t.Fatalf("history rows = %d, want 1", len(history.entries))
	}
	if entry.Tier != types.TierSupportive || entry.SentAtLocalDate != "2026-03-10" || entry.UserTimezone != "America/New_York" {
		t.Errorf("history entry = %+v", entry)
	}
	if entry.WasEffective != nil {
		t.Errorf("WasEffective = %v, want unknown at send time", *entry.WasEffective)
	}

	var snapshot types.SocialContext
	if err := json.Unmarshal(entry.SocialContext, &snapshot); err != nil {
		t.Fatalf("social snapshot unmarshal: %v", err)
	}
	if snapshot.GroupName != "Calm" {
		t.Errorf("snapshot = %+v", snapshot)
	}
}

func TestSendReminderDispatchFailureSkipsHistory(t *testing.T) {
	history := &fakeHistoryRepo{}
	userID := uuid.New()
	sender := &fakePushSender{errFor: map[uuid.UUID]error{userID: errors.New("device unregistered")}}
	svc := newNotificationFixture(t, history, sender)

	candidate := &types.ReminderCandidate{UserID: userID, GoalID: uuid.New(), GoalTitle: "Stretch"}
	_, err := svc.SendReminder(context.Background(), candidate, types.TierGentle, nil, "2026-03-10", time.Now())
	if err == nil {
		t.Fatal("SendReminder succeeded despite dispatch failure")
	}
	if len(history.entries) != 0 {
		t.Fatalf("history rows = %d, want 0 when dispatch fails", len(history.entries))
	}
}
