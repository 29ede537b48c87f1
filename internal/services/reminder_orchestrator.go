package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/pursue-app/pursue-backend/internal/pkg/errors"
	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/repos"
	"github.com/pursue-app/pursue-backend/internal/types"
)

const (
	reminderRunLockKey = "pursue:reminders:run"
	reminderRunLockTTL = 10 * time.Minute
	// historyLookbackDays covers both the sent-today map and the
	// consecutive-ineffective-days scan in one batch query.
	historyLookbackDays = 45
)

// ReminderOrchestrator ties the engine together for one scheduled run:
// candidate selection, batched state prefetch, sequential per-candidate
// evaluation with failure isolation, and send bookkeeping.
type ReminderOrchestrator interface {
	// ProcessReminders returns pkg/errors.ErrRunInProgress when the run
	// lease is held by another invocation.
	ProcessReminders(ctx context.Context) (*types.ReminderRunStats, error)
}

type reminderOrchestrator struct {
	log           *logger.Logger
	cfg           ReminderConfig
	goals         repos.GoalRepo
	prefs         repos.ReminderPreferenceRepo
	patterns      repos.LoggingPatternRepo
	progress      repos.ProgressEntryRepo
	history       repos.ReminderHistoryRepo
	social        SocialContextService
	notifications NotificationService
	lock          RunLock
	tracer        trace.Tracer
	now           func() time.Time
}

func NewReminderOrchestrator(baseLog *logger.Logger, cfg ReminderConfig, goals repos.GoalRepo, prefs repos.ReminderPreferenceRepo, patterns repos.LoggingPatternRepo, progress repos.ProgressEntryRepo, history repos.ReminderHistoryRepo, social SocialContextService, notifications NotificationService, lock RunLock) ReminderOrchestrator {
	return &reminderOrchestrator{
		log:           baseLog.With("service", "ReminderOrchestrator"),
		cfg:           cfg,
		goals:         goals,
		prefs:         prefs,
		patterns:      patterns,
		progress:      progress,
		history:       history,
		social:        social,
		notifications: notifications,
		lock:          lock,
		tracer:        otel.Tracer("reminders"),
		now:           time.Now,
	}
}

// candidateState is one candidate plus its resolved timezone artifacts.
type candidateState struct {
	candidate *types.ReminderCandidate
	location  *time.Location
	localDate string
}

// runState is the cross-candidate mutable bookkeeping of a single run. The
// decision function itself stays pure; only the orchestrator owns this.
type runState struct {
	prefsByPair    map[string]*types.ReminderPreference
	patternsByPair map[string][]*types.LoggingPattern
	historyByPair  map[string][]*types.ReminderHistory
	loggedDates    map[string]bool // pairKey:localDate
	sentCounts     map[string]int  // userID:localDate
	tiersSent      map[string][]string
}

func (o *reminderOrchestrator) ProcessReminders(ctx context.Context) (*types.ReminderRunStats, error) {
	ctx, span := o.tracer.Start(ctx, "reminders.process")
	defer span.End()

	if o.lock != nil {
		acquired, err := o.lock.TryAcquire(ctx, reminderRunLockKey, reminderRunLockTTL)
		if err != nil {
			o.log.Warn("Run lease unavailable, continuing without it", "error", err)
		} else if !acquired {
			return nil, pkgerrors.ErrRunInProgress
		} else {
			defer o.lock.Release(ctx, reminderRunLockKey)
		}
	}

	now := o.now()
	candidates, err := o.goals.ListReminderCandidates(ctx, nil)
	if err != nil {
		// Batching depends on the full candidate set; a partial run would
		// skew the daily cap, so this failure aborts the whole run.
		return nil, fmt.Errorf("fetch reminder candidates: %w", err)
	}

	stats := &types.ReminderRunStats{}
	if len(candidates) == 0 {
		return stats, nil
	}

	states := make([]candidateState, 0, len(candidates))
	for _, candidate := range candidates {
		loc := LoadLocationOrUTC(candidate.UserTimezone, o.log)
		states = append(states, candidateState{
			candidate: candidate,
			location:  loc,
			localDate: LocalDate(now, loc),
		})
	}

	state, err := o.prefetch(ctx, now, states)
	if err != nil {
		return nil, err
	}

	// Candidates are evaluated strictly sequentially; the per-user counter
	// below must observe earlier sends in the same run.
	for _, cs := range states {
		outcome, err := o.evaluateCandidate(ctx, now, cs, state)
		if err != nil {
			stats.Errors++
			o.log.Error("Reminder evaluation failed for candidate",
				"user_id", cs.candidate.UserID, "goal_id", cs.candidate.GoalID, "error", err)
			continue
		}
		if outcome {
			stats.Sent++
		} else {
			stats.Skipped++
		}
	}

	span.SetAttributes(
		attribute.Int("reminders.sent", stats.Sent),
		attribute.Int("reminders.skipped", stats.Skipped),
		attribute.Int("reminders.errors", stats.Errors),
	)
	o.log.Info("Reminder run complete",
		"candidates", len(candidates), "sent", stats.Sent, "skipped", stats.Skipped, "errors", stats.Errors)
	return stats, nil
}

// prefetch loads every per-candidate lookup into memory up front. The
// candidate loop must never issue per-candidate queries.
func (o *reminderOrchestrator) prefetch(ctx context.Context, now time.Time, states []candidateState) (*runState, error) {
	userIDSet := map[uuid.UUID]bool{}
	goalIDSet := map[uuid.UUID]bool{}
	dateSet := map[string]bool{}
	for _, cs := range states {
		userIDSet[cs.candidate.UserID] = true
		goalIDSet[cs.candidate.GoalID] = true
		// Neighboring dates cover users whose local day differs from UTC.
		dateSet[cs.localDate] = true
		dateSet[shiftDate(cs.localDate, -1)] = true
		dateSet[shiftDate(cs.localDate, 1)] = true
	}
	userIDs := make([]uuid.UUID, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}
	goalIDs := make([]uuid.UUID, 0, len(goalIDSet))
	for id := range goalIDSet {
		goalIDs = append(goalIDs, id)
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}

	var (
		prefRows     []*types.ReminderPreference
		patternRows  []*types.LoggingPattern
		historyRows  []*types.ReminderHistory
		progressRows []*types.ProgressEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		prefRows, err = o.prefs.ListForUsers(gctx, nil, userIDs)
		return err
	})
	g.Go(func() (err error) {
		patternRows, err = o.patterns.ListForUsers(gctx, nil, userIDs)
		return err
	})
	g.Go(func() (err error) {
		historyRows, err = o.history.ListForUsersSince(gctx, nil, userIDs, now.UTC().AddDate(0, 0, -historyLookbackDays))
		return err
	})
	g.Go(func() (err error) {
		progressRows, err = o.progress.ListByGoalsAndDates(gctx, nil, goalIDs, dates)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch fetch reminder state: %w", err)
	}

	state := &runState{
		prefsByPair:    map[string]*types.ReminderPreference{},
		patternsByPair: map[string][]*types.LoggingPattern{},
		historyByPair:  map[string][]*types.ReminderHistory{},
		loggedDates:    map[string]bool{},
		sentCounts:     map[string]int{},
		tiersSent:      map[string][]string{},
	}
	for _, row := range prefRows {
		state.prefsByPair[types.PairKey(row.UserID, row.GoalID)] = row
	}
	for _, row := range patternRows {
		key := types.PairKey(row.UserID, row.GoalID)
		state.patternsByPair[key] = append(state.patternsByPair[key], row)
	}
	for _, row := range historyRows {
		key := types.PairKey(row.UserID, row.GoalID)
		state.historyByPair[key] = append(state.historyByPair[key], row)
	}
	for _, row := range progressRows {
		state.loggedDates[types.PairKey(row.UserID, row.GoalID)+":"+row.PeriodStart] = true
	}
	// Seed daily counts and sent-today tiers from persisted history, keyed
	// by each entry's own local date.
	for _, row := range historyRows {
		state.sentCounts[countKey(row.UserID, row.SentAtLocalDate)]++
		pairDate := types.PairKey(row.UserID, row.GoalID) + ":" + row.SentAtLocalDate
		state.tiersSent[pairDate] = append(state.tiersSent[pairDate], row.Tier)
	}
	return state, nil
}

// evaluateCandidate runs the decide-and-send sequence for one candidate.
// Panics are converted to errors so one candidate's bad data cannot abort
// the run for everyone else.
func (o *reminderOrchestrator) evaluateCandidate(ctx context.Context, now time.Time, cs candidateState, state *runState) (sent bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			sent = false
			err = fmt.Errorf("panic during evaluation: %v", r)
		}
	}()

	candidate := cs.candidate
	pairKey := candidate.PairKey()
	pairDate := pairKey + ":" + cs.localDate

	// The selector cannot apply the logged-today test in SQL because local
	// dates differ per candidate; it happens here instead.
	if state.loggedDates[pairDate] {
		return false, nil
	}

	input := DecisionInput{
		Now:                        now,
		Location:                   cs.location,
		Preferences:                ResolvePreferences(state.prefsByPair[pairKey]),
		Pattern:                    pickPattern(state.patternsByPair[pairKey], now.In(cs.location).Weekday()),
		TiersSentToday:             state.tiersSent[pairDate],
		UserDailyCount:             state.sentCounts[countKey(candidate.UserID, cs.localDate)],
		ConsecutiveIneffectiveDays: ConsecutiveIneffectiveDays(state.historyByPair[pairKey], o.cfg.EffectivenessLookbackEntries),
	}
	decision := ShouldSendReminder(input, o.cfg)
	if !decision.ShouldSend {
		o.log.Debug("Skipping reminder",
			"user_id", candidate.UserID, "goal_id", candidate.GoalID, "reason", decision.Reason)
		return false, nil
	}

	social, err := o.social.Build(ctx, candidate.GoalID, candidate.UserID, cs.localDate)
	if err != nil {
		return false, fmt.Errorf("build social context: %w", err)
	}
	if social == nil {
		// Goal or group vanished between selection and send.
		o.log.Warn("Goal or group no longer resolvable, skipping send",
			"user_id", candidate.UserID, "goal_id", candidate.GoalID)
		return false, nil
	}

	if _, err := o.notifications.SendReminder(ctx, candidate, decision.Tier, social, cs.localDate, now); err != nil {
		return false, fmt.Errorf("send %s reminder: %w", decision.Tier, err)
	}

	state.sentCounts[countKey(candidate.UserID, cs.localDate)]++
	state.tiersSent[pairDate] = append(state.tiersSent[pairDate], decision.Tier)
	return true, nil
}

// pickPattern prefers the weekday-specific row for the user's current local
// weekday, falling back to the general pattern.
func pickPattern(rows []*types.LoggingPattern, weekday time.Weekday) *types.LoggingPattern {
	var general *types.LoggingPattern
	for _, row := range rows {
		if wd, ok := row.Scope().Weekday(); ok {
			if wd == weekday {
				return row
			}
			continue
		}
		general = row
	}
	return general
}

func countKey(userID uuid.UUID, localDate string) string {
	return userID.String() + ":" + localDate
}
