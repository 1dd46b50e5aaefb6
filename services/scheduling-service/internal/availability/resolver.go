// Package availability turns weekly schedule rules, date exceptions and
// existing bookings into concrete free slots for one staff member and date.
package availability

import (
	"context"
	"fmt"

	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/timeutil"
)

// ScheduleStore is the read surface the resolver needs. Lookups return
// (nil, nil) when no row exists.
type ScheduleStore interface {
	Exception(ctx context.Context, staffID, date string) (*model.DateException, error)
	WeeklyRule(ctx context.Context, staffID string, weekday int) (*model.WeeklyScheduleRule, error)
}

// Window is the effective working range for one staff member and date.
// SlotIntervalMinutes is 0 when no explicit interval applies; consumers fall
// back to serviceDuration+buffer.
type Window struct {
	StartMinute         int
	EndMinute           int
	SlotIntervalMinutes int
}

// Defaults is the system-wide fallback applied when a staff member has
// neither an exception nor a weekly rule for the date.
type Defaults struct {
	Weekdays    map[int]bool // time.Weekday numbering
	StartMinute int
	EndMinute   int
}

// NewDefaults builds the fallback from clock strings and a weekday list.
func NewDefaults(weekdays []int, startClock, endClock string) (Defaults, error) {
	start, err := timeutil.ToMinutes(startClock)
	if err != nil {
		return Defaults{}, err
	}
	end, err := timeutil.ToMinutes(endClock)
	if err != nil {
		return Defaults{}, err
	}
	days := make(map[int]bool, len(weekdays))
	for _, wd := range weekdays {
		if wd < 0 || wd > 6 {
			return Defaults{}, fmt.Errorf("weekday %d: %w", wd, timeutil.ErrFormat)
		}
		days[wd] = true
	}
	return Defaults{Weekdays: days, StartMinute: start, EndMinute: end}, nil
}

type Resolver struct {
	store    ScheduleStore
	defaults Defaults
}

func NewResolver(store ScheduleStore, defaults Defaults) *Resolver {
	return &Resolver{store: store, defaults: defaults}
}

// Resolve determines the effective working window for (staff, date).
// Precedence, first match wins:
//
//  1. closed exception → day closed
//  2. open exception with an explicit window → that window
//  3. weekly rule for the weekday → its window and interval
//  4. no exception and no rule → system defaults, closed outside default days
//
// An open exception without an explicit window only forces the day open: the
// window still comes from the weekly rule, and if no rule exists the day
// stays closed, because there is nothing to fall back to. Callers rely on
// that exact behavior.
func (r *Resolver) Resolve(ctx context.Context, staffID, date string) (Window, bool, error) {
	day, err := timeutil.ParseDate(date)
	if err != nil {
		return Window{}, false, err
	}

	exc, err := r.store.Exception(ctx, staffID, date)
	if err != nil {
		return Window{}, false, err
	}
	if exc != nil && !exc.Available {
		return Window{}, false, nil
	}
	if exc != nil && exc.StartClock != "" && exc.EndClock != "" {
		start, err := timeutil.ToMinutes(exc.StartClock)
		if err != nil {
			return Window{}, false, err
		}
		end, err := timeutil.ToMinutes(exc.EndClock)
		if err != nil {
			return Window{}, false, err
		}
		return Window{StartMinute: start, EndMinute: end}, true, nil
	}

	weekday := int(day.Weekday())
	rule, err := r.store.WeeklyRule(ctx, staffID, weekday)
	if err != nil {
		return Window{}, false, err
	}
	if rule != nil {
		start, err := timeutil.ToMinutes(rule.StartClock)
		if err != nil {
			return Window{}, false, err
		}
		end, err := timeutil.ToMinutes(rule.EndClock)
		if err != nil {
			return Window{}, false, err
		}
		return Window{
			StartMinute:         start,
			EndMinute:           end,
			SlotIntervalMinutes: rule.SlotIntervalMinutes,
		}, true, nil
	}

	if exc != nil {
		// Forced-open day with no weekly rule to supply a window.
		return Window{}, false, nil
	}

	if !r.defaults.Weekdays[weekday] {
		return Window{}, false, nil
	}
	return Window{StartMinute: r.defaults.StartMinute, EndMinute: r.defaults.EndMinute}, true, nil
}
