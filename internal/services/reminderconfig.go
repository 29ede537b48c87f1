package services

// ReminderConfig carries every tuning knob of the smart reminders engine.
// Defaults match production behavior; the app layer may override individual
// values from the environment.
type ReminderConfig struct {
	// DailyReminderCap bounds reminders per user per local day across all goals.
	DailyReminderCap int
	// FullSuppressionDays stops all reminders for a pair after this many
	// consecutive ineffective days.
	FullSuppressionDays int
	// PartialSuppressionDays restricts a pair to the last-chance tier after
	// this many consecutive ineffective days.
	PartialSuppressionDays int
	// MinPatternConfidence is the confidence floor below which a stored
	// pattern is ignored and the default clock schedule applies.
	MinPatternConfidence float64
	// PatternHistoryDays is the log-history window for pattern calculation,
	// and also the sample-size target of the confidence blend.
	PatternHistoryDays int
	// PatternMinSampleSize is the minimum number of logs needed to support a
	// pattern at all.
	PatternMinSampleSize int
	// GraceMinutes pushes the gentle tier past the end of the typical window.
	GraceMinutes int
	// Default clock schedule, used in fixed-fallback and low-confidence paths.
	DefaultGentleHour     int
	DefaultSupportiveHour int
	LastChanceHour        int
	CutoffHour            int
	// Supportive-tier delay after the gentle tier, per aggressiveness.
	SupportiveDelayMinutes int
	PersistentDelayMinutes int
	// EffectivenessLookbackEntries caps how much history feeds the
	// consecutive-ineffective-days scan.
	EffectivenessLookbackEntries int
	// StreakLookbackDays bounds how far back streak queries reach.
	StreakLookbackDays int
}

func DefaultReminderConfig() ReminderConfig {
	return ReminderConfig{
		DailyReminderCap:             6,
		FullSuppressionDays:          15,
		PartialSuppressionDays:       7,
		MinPatternConfidence:         0.3,
		PatternHistoryDays:           30,
		PatternMinSampleSize:         5,
		GraceMinutes:                 30,
		DefaultGentleHour:            12,
		DefaultSupportiveHour:        17,
		LastChanceHour:               21,
		CutoffHour:                   23,
		SupportiveDelayMinutes:       120,
		PersistentDelayMinutes:       60,
		EffectivenessLookbackEntries: 30,
		StreakLookbackDays:           60,
	}
}
