package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// defaultHour is used when a phrase names a day but no time of day.
const defaultHour = 10

var (
	timeOfDayRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	hour24Re    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
)

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseMeetingTime resolves a spoken or written datetime phrase to a concrete
// time. Absolute layouts are tried first; otherwise relative words like
// "tomorrow" and "next week" anchor the day and an "at 2pm"-style clause sets
// the clock, defaulting to 10:00 when absent.
func ParseMeetingTime(phrase string, now time.Time) (time.Time, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return time.Time{}, fmt.Errorf("empty datetime phrase")
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, phrase); err == nil {
			if layout == "2006-01-02" {
				t = time.Date(t.Year(), t.Month(), t.Day(), defaultHour, 0, 0, 0, now.Location())
			}
			return t, nil
		}
	}

	day, err := resolveDay(phrase, now)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute := resolveClock(phrase)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location()), nil
}

func resolveDay(phrase string, now time.Time) (time.Time, error) {
	lower := strings.ToLower(phrase)
	switch {
	case strings.Contains(lower, "today"):
		return now, nil
	case strings.Contains(lower, "tomorrow"):
		return now.AddDate(0, 0, 1), nil
	case strings.Contains(lower, "next week"):
		return now.AddDate(0, 0, 7), nil
	}

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if !strings.Contains(lower, name) {
			continue
		}
		days := (int(wd) - int(now.Weekday()) + 7) % 7
		if days == 0 || strings.Contains(lower, "next "+name) {
			days += 7
		}
		return now.AddDate(0, 0, days), nil
	}

	// A bare clock time means today.
	if timeOfDayRe.MatchString(phrase) || hour24Re.MatchString(phrase) {
		return now, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime phrase: %q", phrase)
}

func resolveClock(phrase string) (hour, minute int) {
	if m := timeOfDayRe.FindStringSubmatch(phrase); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		meridiem := strings.ToLower(m[3])
		if meridiem == "pm" && hour != 12 {
			hour += 12
		}
		if meridiem == "am" && hour == 12 {
			hour = 0
		}
		return hour, minute
	}
	if m := hour24Re.FindStringSubmatch(phrase); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		return hour, minute
	}
	return defaultHour, 0
}
