package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/repos"
	"github.com/pursue-app/pursue-backend/internal/types"
)

// EffectivenessService retroactively labels sent reminders. A reminder was
// effective iff the user logged progress for the reminder's local date
// strictly after it was sent; the label is the causal signal behind adaptive
// suppression.
type EffectivenessService interface {
	UpdateEffectiveness(ctx context.Context) (*types.EffectivenessRunStats, error)
}

type effectivenessService struct {
	log      *logger.Logger
	history  repos.ReminderHistoryRepo
	progress repos.ProgressEntryRepo
	now      func() time.Time
}

func NewEffectivenessService(baseLog *logger.Logger, history repos.ReminderHistoryRepo, progress repos.ProgressEntryRepo) EffectivenessService {
	return &effectivenessService{
		log:      baseLog.With("service", "EffectivenessService"),
		history:  history,
		progress: progress,
		now:      time.Now,
	}
}

func (s *effectivenessService) UpdateEffectiveness(ctx context.Context) (*types.EffectivenessRunStats, error) {
	ctx, span := otel.Tracer("reminders").Start(ctx, "reminders.update_effectiveness")
	defer span.End()

	now := s.now().UTC()
	// Entries younger than a day stay unknown: their local day may still be
	// in progress and the label is written exactly once.
	from := now.Add(-48 * time.Hour)
	to := now.Add(-24 * time.Hour)

	entries, err := s.history.ListUnlabeledBetween(ctx, nil, from, to)
	if err != nil {
		return nil, fmt.Errorf("list unlabeled reminders: %w", err)
	}

	stats := &types.EffectivenessRunStats{}
	if len(entries) == 0 {
		return stats, nil
	}

	goalIDSet := map[uuid.UUID]bool{}
	dateSet := map[string]bool{}
	for _, entry := range entries {
		goalIDSet[entry.GoalID] = true
		dateSet[entry.SentAtLocalDate] = true
	}
	goalIDs := make([]uuid.UUID, 0, len(goalIDSet))
	for id := range goalIDSet {
		goalIDs = append(goalIDs, id)
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}

	progressEntries, err := s.progress.ListByGoalsAndDates(ctx, nil, goalIDs, dates)
	if err != nil {
		return nil, fmt.Errorf("list progress for labeling: %w", err)
	}
	latestByKey := map[string]time.Time{}
	for _, p := range progressEntries {
		key := progressKey(p.UserID, p.GoalID, p.PeriodStart)
		if p.CreatedAt.After(latestByKey[key]) {
			latestByKey[key] = p.CreatedAt
		}
	}

	for _, entry := range entries {
		latest, logged := latestByKey[progressKey(entry.UserID, entry.GoalID, entry.SentAtLocalDate)]
		effective := logged && latest.After(entry.SentAt)
		if err := s.history.SetEffectiveness(ctx, nil, entry.ID, effective); err != nil {
			s.log.Warn("Could not label reminder",
				"reminder_id", entry.ID, "user_id", entry.UserID, "goal_id", entry.GoalID, "error", err)
			continue
		}
		stats.Updated++
	}

	s.log.Info("Effectiveness update complete", "scanned", len(entries), "updated", stats.Updated)
	return stats, nil
}

func progressKey(userID, goalID uuid.UUID, date string) string {
	return types.PairKey(userID, goalID) + ":" + date
}

// ConsecutiveIneffectiveDays derives the suppression signal from a pair's
// reminder history, which must be sorted newest first. The scan walks
// distinct local dates and stops at the first effective day or the first gap
// between reminded days; days whose entries are all still unlabeled are
// skipped without breaking continuity.
func ConsecutiveIneffectiveDays(entries []*types.ReminderHistory, maxEntries int) int {
	if maxEntries > 0 && len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}

	type dayState struct {
		date           string
		anyEffective   bool
		anyIneffective bool
	}
	var days []*dayState
	byDate := map[string]*dayState{}
	for _, entry := range entries {
		day := byDate[entry.SentAtLocalDate]
		if day == nil {
			day = &dayState{date: entry.SentAtLocalDate}
			byDate[entry.SentAtLocalDate] = day
			days = append(days, day)
		}
		if entry.WasEffective != nil {
			if *entry.WasEffective {
				day.anyEffective = true
			} else {
				day.anyIneffective = true
			}
		}
	}

	count := 0
	var prev time.Time
	for _, day := range days {
		date, ok := parseLocalDate(day.date)
		if !ok {
			break
		}
		if !prev.IsZero() && !prev.AddDate(0, 0, -1).Equal(date) {
			break
		}
		prev = date
		if day.anyEffective {
			break
		}
		if day.anyIneffective {
			count++
		}
	}
	return count
}
