package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/repos"
	"github.com/pursue-app/pursue-backend/internal/types"
)

// PatternService derives per user-goal "typical logging window" patterns from
// progress history using circular statistics over local hour-of-day.
type PatternService interface {
	// Calculate recomputes and persists the pattern for one pair and scope.
	// Returns nil (and deletes any stored row) when the sample is too small.
	Calculate(ctx context.Context, userID, goalID uuid.UUID, timezone string, scope types.PatternScope) (*types.LoggingPattern, error)
	// RecalculateAll is the weekly batch: every pair with recent activity is
	// recomputed independently, and orphaned rows are purged.
	RecalculateAll(ctx context.Context) (*types.PatternRunStats, error)
}

type patternService struct {
	log      *logger.Logger
	cfg      ReminderConfig
	progress repos.ProgressEntryRepo
	patterns repos.LoggingPatternRepo
	users    repos.UserRepo
	now      func() time.Time
}

func NewPatternService(baseLog *logger.Logger, cfg ReminderConfig, progress repos.ProgressEntryRepo, patterns repos.LoggingPatternRepo, users repos.UserRepo) PatternService {
	return &patternService{
		log:      baseLog.With("service", "PatternService"),
		cfg:      cfg,
		progress: progress,
		patterns: patterns,
		users:    users,
		now:      time.Now,
	}
}

func (s *patternService) Calculate(ctx context.Context, userID, goalID uuid.UUID, timezone string, scope types.PatternScope) (*types.LoggingPattern, error) {
	loc := LoadLocationOrUTC(timezone, s.log)
	since := s.now().UTC().AddDate(0, 0, -s.cfg.PatternHistoryDays)

	entries, err := s.progress.ListForPairSince(ctx, nil, userID, goalID, since)
	if err != nil {
		return nil, fmt.Errorf("fetch progress history: %w", err)
	}

	weekdayFilter, filtered := scope.Weekday()
	var hours []float64
	for _, entry := range entries {
		local := entry.CreatedAt.In(loc)
		if filtered && local.Weekday() != weekdayFilter {
			continue
		}
		hours = append(hours, float64(local.Hour())+float64(local.Minute())/60)
	}

	if len(hours) < s.cfg.PatternMinSampleSize {
		// Pattern no longer supported by data.
		if _, err := s.patterns.DeleteByScope(ctx, nil, userID, goalID, scope); err != nil {
			return nil, fmt.Errorf("delete unsupported pattern: %w", err)
		}
		return nil, nil
	}

	stats := circularHourStats(hours)
	iqr := circularIQR(hours, stats.MeanHour)
	confidence := s.confidenceScore(len(hours), stats.StdDevHours, iqr)

	halfWidth := int(math.Ceil(iqr / 2))
	if halfWidth > 2 {
		halfWidth = 2
	}
	center := int(math.Round(stats.MeanHour)) % 24
	start := ((center-halfWidth)%24 + 24) % 24
	end := (center + halfWidth) % 24

	pattern := &types.LoggingPattern{
		UserID:           userID,
		GoalID:           goalID,
		DayOfWeek:        scope.DayOfWeek(),
		TypicalHourStart: start,
		TypicalHourEnd:   end,
		ConfidenceScore:  confidence,
		SampleSize:       len(hours),
		LastCalculatedAt: s.now().UTC(),
	}
	if err := s.patterns.Upsert(ctx, nil, pattern); err != nil {
		return nil, fmt.Errorf("persist pattern: %w", err)
	}
	return pattern, nil
}

func (s *patternService) RecalculateAll(ctx context.Context) (*types.PatternRunStats, error) {
	ctx, span := otel.Tracer("reminders").Start(ctx, "reminders.recalculate_patterns")
	defer span.End()

	stats := &types.PatternRunStats{}
	since := s.now().UTC().AddDate(0, 0, -s.cfg.PatternHistoryDays)

	pairs, err := s.progress.ListActivePairs(ctx, nil, since)
	if err != nil {
		return nil, fmt.Errorf("list active pairs: %w", err)
	}

	userIDSet := map[uuid.UUID]bool{}
	for _, pair := range pairs {
		userIDSet[pair.UserID] = true
	}
	userIDs := make([]uuid.UUID, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}

	users, err := s.users.GetByIDs(ctx, nil, userIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	timezoneByUser := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		timezoneByUser[u.ID] = u.Timezone
	}

	existingRows, err := s.patterns.ListForUsers(ctx, nil, userIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch existing patterns: %w", err)
	}
	existing := map[string]bool{}
	for _, row := range existingRows {
		existing[patternKey(row.UserID, row.GoalID, row.Scope())] = true
	}

	for _, pair := range pairs {
		timezone, ok := timezoneByUser[pair.UserID]
		if !ok {
			// Soft-deleted user; the orphan purge below removes any rows.
			continue
		}
		scope := types.GeneralScope()
		pattern, err := s.Calculate(ctx, pair.UserID, pair.GoalID, timezone, scope)
		if err != nil {
			// One pair's bad data must not abort the run for others.
			s.log.Warn("Pattern recalculation failed for pair",
				"user_id", pair.UserID, "goal_id", pair.GoalID, "error", err)
			continue
		}
		had := existing[patternKey(pair.UserID, pair.GoalID, scope)]
		switch {
		case pattern == nil && had:
			stats.Removed++
		case pattern != nil && had:
			stats.Updated++
		case pattern != nil:
			stats.Created++
		}
	}

	purged, err := s.patterns.DeleteOrphans(ctx, nil)
	if err != nil {
		s.log.Warn("Orphaned pattern purge failed", "error", err)
	} else {
		stats.Removed += int(purged)
	}

	s.log.Info("Pattern recalculation complete",
		"pairs", len(pairs), "updated", stats.Updated, "created", stats.Created, "removed", stats.Removed)
	return stats, nil
}

func (s *patternService) confidenceScore(sampleSize int, stdDevHours, iqr float64) float64 {
	adequacy := float64(sampleSize) / float64(s.cfg.PatternHistoryDays)
	if adequacy > 1 {
		adequacy = 1
	}
	consistency := 1 - stdDevHours/12
	if consistency < 0 {
		consistency = 0
	}
	tightness := 1 - iqr/8
	if tightness < 0 {
		tightness = 0
	}
	return 0.4*adequacy + 0.3*consistency + 0.3*tightness
}

func patternKey(userID, goalID uuid.UUID, scope types.PatternScope) string {
	return fmt.Sprintf("%s:%s:%d", userID, goalID, scope.DayOfWeek())
}

type hourStats struct {
	MeanHour    float64
	StdDevHours float64
	Resultant   float64
}

// circularHourStats averages hour-of-day values on the circle so that
// {23:00, 01:00} means midnight, not noon.
func circularHourStats(hours []float64) hourStats {
	n := float64(len(hours))
	var sinSum, cosSum float64
	for _, h := range hours {
		angle := h / 24 * 2 * math.Pi
		sinSum += math.Sin(angle)
		cosSum += math.Cos(angle)
	}
	meanSin := sinSum / n
	meanCos := cosSum / n

	resultant := math.Sqrt(meanSin*meanSin + meanCos*meanCos)
	if resultant > 1 {
		// Floating-point sums can nudge R past 1, which would put Log out of
		// domain below.
		resultant = 1
	}

	mean := math.Atan2(meanSin, meanCos) / (2 * math.Pi) * 24
	if mean < 0 {
		mean += 24
	}

	stdDev := 12.0
	if resultant > 0 {
		stdDev = math.Sqrt(-2*math.Log(resultant)) * 24 / (2 * math.Pi)
	}

	return hourStats{MeanHour: mean, StdDevHours: stdDev, Resultant: resultant}
}

// circularIQR unwraps each hour to its nearest representation around the
// circular mean before taking Q3-Q1, so a window straddling midnight stays
// tight.
func circularIQR(hours []float64, meanHour float64) float64 {
	unwrapped := make([]float64, 0, len(hours))
	for _, h := range hours {
		best := h
		for _, candidate := range []float64{h - 24, h + 24} {
			if math.Abs(candidate-meanHour) < math.Abs(best-meanHour) {
				best = candidate
			}
		}
		unwrapped = append(unwrapped, best)
	}
	sort.Float64s(unwrapped)
	return quantile(unwrapped, 0.75) - quantile(unwrapped, 0.25)
}

// quantile takes a linearly interpolated quantile of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
