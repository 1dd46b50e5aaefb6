// Package lifecycle runs the deferred, status-guarded actions attached to an
// appointment: the 24h/1h reminders and the grace-period auto-completion.
package lifecycle

import (
	"sync"
	"time"
)

// Kind identifies one deferred action attached to an appointment.
type Kind string

const (
	KindRemind24h    Kind = "24h"
	KindRemind1h     Kind = "1h"
	KindAutoComplete Kind = "auto_complete"
)

// Timers is the registry of pending one-shot actions, keyed by appointment
// id and kind. It replaces ad-hoc background tasks with a single owner whose
// lifetime is tied to the process: Close tears everything down on shutdown.
//
// Cancellation is O(1) and best-effort with respect to an action that has
// already started firing; the action's own status re-check is the real
// guard.
type Timers struct {
	mu     sync.Mutex
	timers map[string]map[Kind]*time.Timer
	closed bool
}

func NewTimers() *Timers {
	return &Timers{timers: map[string]map[Kind]*time.Timer{}}
}

// Schedule arms fn to run once after delay, replacing any pending action for
// the same (appointment, kind). Negative delays clamp to zero: the action
// fires immediately instead of failing.
func (t *Timers) Schedule(apptID string, kind Kind, delay time.Duration, fn func()) {
	if delay < 0 {
		delay = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	if pending := t.timers[apptID][kind]; pending != nil {
		pending.Stop()
	}
	if t.timers[apptID] == nil {
		t.timers[apptID] = map[Kind]*time.Timer{}
	}
	t.timers[apptID][kind] = time.AfterFunc(delay, func() {
		t.remove(apptID, kind)
		fn()
	})
}

// Cancel stops the pending actions of the given kinds for an appointment.
// Unknown ids are a no-op.
func (t *Timers) Cancel(apptID string, kinds ...Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	byKind := t.timers[apptID]
	if byKind == nil {
		return
	}
	for _, kind := range kinds {
		if timer := byKind[kind]; timer != nil {
			timer.Stop()
			delete(byKind, kind)
		}
	}
	if len(byKind) == 0 {
		delete(t.timers, apptID)
	}
}

// Close stops every pending action. Further Schedule calls are ignored.
func (t *Timers) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for apptID, byKind := range t.timers {
		for _, timer := range byKind {
			timer.Stop()
		}
		delete(t.timers, apptID)
	}
}

// Pending reports whether any action is still armed for the appointment.
func (t *Timers) Pending(apptID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers[apptID]) > 0
}

func (t *Timers) remove(apptID string, kind Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	byKind := t.timers[apptID]
	if byKind == nil {
		return
	}
	delete(byKind, kind)
	if len(byKind) == 0 {
		delete(t.timers, apptID)
	}
}
