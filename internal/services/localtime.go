package services

import (
	"time"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
)

const localDateLayout = "2006-01-02"

// LoadLocationOrUTC resolves an IANA timezone name, degrading to UTC when the
// name is empty or unparseable. A bad timezone row must not abort a run; the
// user just gets UTC-clocked reminders until the row is fixed.
func LoadLocationOrUTC(name string, log *logger.Logger) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		if log != nil {
			log.Warn("Unparseable timezone, falling back to UTC", "timezone", name, "error", err)
		}
		return time.UTC
	}
	return loc
}

// LocalDate renders the calendar date of t in the given location. This is the
// engine's notion of "today" and is always per-user, never the job's clock.
func LocalDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(localDateLayout)
}

// shiftDate moves a YYYY-MM-DD date string by a number of days. Returns the
// input unchanged if it does not parse.
func shiftDate(date string, days int) string {
	t, err := time.Parse(localDateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, days).Format(localDateLayout)
}

func parseLocalDate(date string) (time.Time, bool) {
	t, err := time.Parse(localDateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
