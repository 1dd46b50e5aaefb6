// Package timeutil holds the clock-string arithmetic every range computation
// in the scheduler is built on. Times of day are "HH:MM" strings at the API
// boundary and minutes-of-day integers internally.
package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrFormat marks malformed date/clock/numeric input. It is always detected
// before any store interaction, so callers can safely re-prompt.
var ErrFormat = errors.New("invalid format")

const (
	DateLayout   = "2006-01-02"
	minutesInDay = 24 * 60
)

// ToMinutes converts "HH:MM" to minutes since midnight.
func ToMinutes(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("clock %q: %w", clock, ErrFormat)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", clock, ErrFormat)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", clock, ErrFormat)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q out of range: %w", clock, ErrFormat)
	}
	return h*60 + m, nil
}

// ToClock formats minutes since midnight as zero-padded "HH:MM".
// The input must be in [0, 1439]; callers clamp before calling.
func ToClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes >= minutesInDay {
		minutes = minutesInDay - 1
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate validates an ISO "YYYY-MM-DD" date string.
func ParseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", date, ErrFormat)
	}
	return t, nil
}

// At combines a date and a clock string into a wall-clock instant in the
// process-local zone. The deferred-action schedulers need real instants.
func At(date, clock string) (time.Time, error) {
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	mins, err := ToMinutes(clock)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(mins) * time.Minute), nil
}
