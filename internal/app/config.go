package app

import (
	"github.com/pursue-app/pursue-backend/internal/jobs"
	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/services"
	"github.com/pursue-app/pursue-backend/internal/utils"
)

type Config struct {
	Port     string
	Jobs     jobs.Config
	Reminder services.ReminderConfig
}

func LoadConfig(log *logger.Logger) Config {
	reminder := services.DefaultReminderConfig()
	reminder.DailyReminderCap = utils.GetEnvAsInt("REMINDER_DAILY_CAP", reminder.DailyReminderCap, log)
	reminder.FullSuppressionDays = utils.GetEnvAsInt("REMINDER_FULL_SUPPRESSION_DAYS", reminder.FullSuppressionDays, log)
	reminder.PartialSuppressionDays = utils.GetEnvAsInt("REMINDER_PARTIAL_SUPPRESSION_DAYS", reminder.PartialSuppressionDays, log)
	reminder.MinPatternConfidence = utils.GetEnvAsFloat("REMINDER_MIN_PATTERN_CONFIDENCE", reminder.MinPatternConfidence, log)
	reminder.PatternHistoryDays = utils.GetEnvAsInt("REMINDER_PATTERN_HISTORY_DAYS", reminder.PatternHistoryDays, log)
	reminder.PatternMinSampleSize = utils.GetEnvAsInt("REMINDER_PATTERN_MIN_SAMPLE", reminder.PatternMinSampleSize, log)

	return Config{
		Port: utils.GetEnv("PORT", "8080", log),
		Jobs: jobs.Config{
			SendSpec:          utils.GetEnv("REMINDER_SEND_CRON", "*/15 * * * *", log),
			EffectivenessSpec: utils.GetEnv("REMINDER_EFFECTIVENESS_CRON", "10 4 * * *", log),
			PatternSpec:       utils.GetEnv("REMINDER_PATTERN_CRON", "30 3 * * 0", log),
		},
		Reminder: reminder,
	}
}
