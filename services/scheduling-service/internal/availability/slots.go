package availability

import (
	"context"

	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
	"github.com/mkrylova/slotserve/services/scheduling-service/internal/timeutil"
)

// AppointmentStore lists the booked intervals slot generation must avoid.
type AppointmentStore interface {
	ScheduledIntervals(ctx context.Context, staffID, date string) ([]model.BookedInterval, error)
}

type Generator struct {
	resolver *Resolver
	store    AppointmentStore
}

func NewGenerator(resolver *Resolver, store AppointmentStore) *Generator {
	return &Generator{resolver: resolver, store: store}
}

// GenerateSlots enumerates free "HH:MM" start times for (staff, date) in
// ascending order. The result is computed fresh on every call: appointment
// state is read live, never cached, because a stale view here turns directly
// into double-booking attempts.
func (g *Generator) GenerateSlots(ctx context.Context, staffID, date string, serviceDurationMinutes, bufferMinutes int) ([]string, error) {
	if serviceDurationMinutes <= 0 {
		return nil, nil
	}

	window, open, err := g.resolver.Resolve(ctx, staffID, date)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, nil
	}

	step := window.SlotIntervalMinutes
	if step <= 0 {
		step = serviceDurationMinutes + bufferMinutes
	}
	if step <= 0 {
		// A buffer at or below -duration would leave the walk stuck on
		// its first candidate. Treat it as no buffer.
		step = serviceDurationMinutes
	}

	booked, err := g.store.ScheduledIntervals(ctx, staffID, date)
	if err != nil {
		return nil, err
	}

	var slots []string
	for start := window.StartMinute; start+serviceDurationMinutes <= window.EndMinute; start += step {
		end := start + serviceDurationMinutes
		if overlapsAny(start, end, booked, serviceDurationMinutes) {
			continue
		}
		slots = append(slots, timeutil.ToClock(start))
	}
	return slots, nil
}

// overlapsAny tests the half-open candidate [start, end) against every
// booked interval. An appointment with an unknown service duration counts as
// long as the requested service.
func overlapsAny(start, end int, booked []model.BookedInterval, fallbackDuration int) bool {
	for _, b := range booked {
		duration := b.DurationMinutes
		if duration <= 0 {
			duration = fallbackDuration
		}
		bEnd := b.StartMinute + duration
		if end <= b.StartMinute || start >= bEnd {
			continue
		}
		return true
	}
	return false
}
