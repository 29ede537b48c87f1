package services

import (
	"sort"
	"time"

	"github.com/pursue-app/pursue-backend/internal/types"
)

// Decision reasons, surfaced in logs and run stats.
const (
	ReasonDailyCapReached  = "daily_cap_reached"
	ReasonDisabled         = "reminders_disabled"
	ReasonQuietHours       = "quiet_hours"
	ReasonFullySuppressed  = "fully_suppressed"
	ReasonTierSuppressed   = "tier_suppressed"
	ReasonAlreadySentToday = "already_sent_today"
	ReasonBeforeFixedHour  = "before_fixed_hour"
	ReasonPastCutoff       = "past_cutoff"
	ReasonNoOpenWindow     = "no_open_window"
	ReasonTierAlreadySent  = "tier_already_sent"
	ReasonFixedHour        = "fixed_hour"
	ReasonTypicalWindow    = "typical_window_passed"
	ReasonDefaultSchedule  = "default_schedule"
)

// ResolvedPreferences is the concrete preference set after applying defaults.
// "No stored row" is resolved exactly once, here, so the decision logic never
// deals with nil or partially filled preferences.
type ResolvedPreferences struct {
	Enabled        bool
	Mode           string
	FixedHour      int // -1 when not configured
	Aggressiveness string
	QuietStart     int
	QuietEnd       int
	HasQuietHours  bool
}

func ResolvePreferences(stored *types.ReminderPreference) ResolvedPreferences {
	resolved := ResolvedPreferences{
		Enabled:        true,
		Mode:           types.ReminderModeSmart,
		FixedHour:      -1,
		Aggressiveness: types.AggressivenessBalanced,
	}
	if stored == nil {
		return resolved
	}
	resolved.Enabled = stored.Enabled
	if stored.Mode != "" {
		resolved.Mode = stored.Mode
	}
	if stored.Aggressiveness != "" {
		resolved.Aggressiveness = stored.Aggressiveness
	}
	if stored.FixedHour != nil {
		resolved.FixedHour = *stored.FixedHour
	}
	// Quiet hours are meaningful both-or-neither.
	if stored.QuietHoursStart != nil && stored.QuietHoursEnd != nil {
		resolved.QuietStart = *stored.QuietHoursStart
		resolved.QuietEnd = *stored.QuietHoursEnd
		resolved.HasQuietHours = true
	}
	return resolved
}

// DecisionInput is everything one evaluation needs. All of it is plain data;
// ShouldSendReminder performs no I/O.
type DecisionInput struct {
	Now      time.Time
	Location *time.Location
	// Preferences must already be resolved (ResolvePreferences).
	Preferences ResolvedPreferences
	// Pattern is the chosen stored pattern for this pair, or nil.
	Pattern *types.LoggingPattern
	// TiersSentToday lists tiers already sent for this goal on the user's
	// current local date.
	TiersSentToday []string
	// UserDailyCount is reminders sent to this user today across all goals,
	// including sends earlier in the same run.
	UserDailyCount int
	// ConsecutiveIneffectiveDays drives adaptive suppression.
	ConsecutiveIneffectiveDays int
}

type Decision struct {
	ShouldSend bool
	Tier       string
	Reason     string
}

func noSend(reason string) Decision {
	return Decision{Reason: reason}
}

// ShouldSendReminder decides whether and at which tier to nudge the user
// right now. First matching rule wins; at most one tier per evaluation.
func ShouldSendReminder(in DecisionInput, cfg ReminderConfig) Decision {
	if in.UserDailyCount >= cfg.DailyReminderCap {
		return noSend(ReasonDailyCapReached)
	}

	prefs := in.Preferences
	if !prefs.Enabled || prefs.Mode == types.ReminderModeDisabled {
		return noSend(ReasonDisabled)
	}

	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	local := in.Now.In(loc)
	localHour := local.Hour()
	localMinutes := localHour*60 + local.Minute()

	if prefs.HasQuietHours && inQuietHours(localHour, prefs.QuietStart, prefs.QuietEnd) {
		return noSend(ReasonQuietHours)
	}

	if in.ConsecutiveIneffectiveDays >= cfg.FullSuppressionDays {
		return noSend(ReasonFullySuppressed)
	}
	lastChanceOnly := in.ConsecutiveIneffectiveDays >= cfg.PartialSuppressionDays

	if prefs.Mode == types.ReminderModeFixed {
		return decideFixed(prefs, localHour, lastChanceOnly, in.TiersSentToday, cfg)
	}
	return decideSmart(prefs, in.Pattern, localMinutes, lastChanceOnly, in.TiersSentToday, cfg)
}

// decideFixed sends exactly one gentle reminder per local day once the
// configured hour has passed.
func decideFixed(prefs ResolvedPreferences, localHour int, lastChanceOnly bool, sentToday []string, cfg ReminderConfig) Decision {
	if lastChanceOnly {
		// Fixed mode only ever produces the gentle tier, which partial
		// suppression forbids.
		return noSend(ReasonTierSuppressed)
	}
	if len(sentToday) > 0 {
		return noSend(ReasonAlreadySentToday)
	}
	fixedHour := prefs.FixedHour
	if fixedHour < 0 || fixedHour > 23 {
		fixedHour = cfg.DefaultGentleHour
	}
	if localHour < fixedHour {
		return noSend(ReasonBeforeFixedHour)
	}
	return Decision{ShouldSend: true, Tier: types.TierGentle, Reason: ReasonFixedHour}
}

type tierSlot struct {
	tier  string
	start int // minutes since local midnight
}

func decideSmart(prefs ResolvedPreferences, pattern *types.LoggingPattern, localMinutes int, lastChanceOnly bool, sentToday []string, cfg ReminderConfig) Decision {
	cutoff := cfg.CutoffHour * 60
	if localMinutes >= cutoff {
		return noSend(ReasonPastCutoff)
	}

	usePattern := pattern != nil && pattern.ConfidenceScore >= cfg.MinPatternConfidence
	reason := ReasonDefaultSchedule

	var schedule []tierSlot
	if usePattern {
		reason = ReasonTypicalWindow
		gentleStart := pattern.TypicalHourEnd*60 + cfg.GraceMinutes
		delay := cfg.SupportiveDelayMinutes
		if prefs.Aggressiveness == types.AggressivenessPersistent {
			delay = cfg.PersistentDelayMinutes
		}
		schedule = []tierSlot{
			{tier: types.TierGentle, start: gentleStart},
			{tier: types.TierSupportive, start: gentleStart + delay},
			{tier: types.TierLastChance, start: cfg.LastChanceHour * 60},
		}
	} else {
		schedule = []tierSlot{
			{tier: types.TierGentle, start: cfg.DefaultGentleHour * 60},
			{tier: types.TierSupportive, start: cfg.DefaultSupportiveHour * 60},
			{tier: types.TierLastChance, start: cfg.LastChanceHour * 60},
		}
	}

	// At the lowest aggressiveness, and under partial suppression, only the
	// last-chance tier remains.
	if lastChanceOnly || prefs.Aggressiveness == types.AggressivenessGentle {
		filtered := schedule[:0]
		for _, slot := range schedule {
			if slot.tier == types.TierLastChance {
				filtered = append(filtered, slot)
			}
		}
		schedule = filtered
	}

	// Pattern-derived starts are not guaranteed monotonic in tier order (a
	// late typical window can push gentle past the last-chance clock), so
	// windows run from each start to the next start in time order, the last
	// one ending at the cutoff.
	sort.SliceStable(schedule, func(i, j int) bool {
		return schedule[i].start < schedule[j].start
	})

	eligible := ""
	for i, slot := range schedule {
		end := cutoff
		if i+1 < len(schedule) && schedule[i+1].start < cutoff {
			end = schedule[i+1].start
		}
		if localMinutes >= slot.start && localMinutes < end {
			eligible = slot.tier
			break
		}
	}
	if eligible == "" {
		return noSend(ReasonNoOpenWindow)
	}

	// Never repeat a tier and never de-escalate below a tier already sent.
	maxSentRank := 0
	for _, tier := range sentToday {
		if rank := types.TierRank(tier); rank > maxSentRank {
			maxSentRank = rank
		}
	}
	if types.TierRank(eligible) <= maxSentRank {
		return noSend(ReasonTierAlreadySent)
	}

	return Decision{ShouldSend: true, Tier: eligible, Reason: reason}
}

// inQuietHours treats start > end as a window that wraps past midnight.
func inQuietHours(hour, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}
