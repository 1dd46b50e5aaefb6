package availability

import (
	"context"
	"testing"

	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
)

// 2026-03-09 is a Monday, 2026-03-14 a Saturday.
const (
	monday   = "2026-03-09"
	saturday = "2026-03-14"
)

type fakeScheduleStore struct {
	rules      map[int]*model.WeeklyScheduleRule
	exceptions map[string]*model.DateException
}

func (s *fakeScheduleStore) Exception(_ context.Context, _, date string) (*model.DateException, error) {
	return s.exceptions[date], nil
}

func (s *fakeScheduleStore) WeeklyRule(_ context.Context, _ string, weekday int) (*model.WeeklyScheduleRule, error) {
	return s.rules[weekday], nil
}

func defaultWeek(t *testing.T) Defaults {
	t.Helper()
	d, err := NewDefaults([]int{1, 2, 3, 4, 5}, "09:00", "18:00")
	if err != nil {
		t.Fatalf("NewDefaults: %v", err)
	}
	return d
}

func TestResolve_SystemDefaults(t *testing.T) {
	r := NewResolver(&fakeScheduleStore{}, defaultWeek(t))

	win, open, err := r.Resolve(context.Background(), "s1", monday)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !open {
		t.Fatal("expected Monday open under defaults")
	}
	if win.StartMinute != 540 || win.EndMinute != 1080 {
		t.Fatalf("unexpected window %+v", win)
	}

	_, open, err = r.Resolve(context.Background(), "s1", saturday)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if open {
		t.Fatal("expected Saturday closed under defaults")
	}
}

func TestResolve_WeeklyRuleBeatsDefaults(t *testing.T) {
	store := &fakeScheduleStore{
		rules: map[int]*model.WeeklyScheduleRule{
			1: {StaffID: "s1", Weekday: 1, StartClock: "12:00", EndClock: "20:00", SlotIntervalMinutes: 30},
		},
	}
	r := NewResolver(store, defaultWeek(t))

	win, open, err := r.Resolve(context.Background(), "s1", monday)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !open {
		t.Fatal("expected open")
	}
	if win.StartMinute != 720 || win.EndMinute != 1200 || win.SlotIntervalMinutes != 30 {
		t.Fatalf("unexpected window %+v", win)
	}
}

func TestResolve_ClosedExceptionWins(t *testing.T) {
	store := &fakeScheduleStore{
		rules: map[int]*model.WeeklyScheduleRule{
			1: {StaffID: "s1", Weekday: 1, StartClock: "09:00", EndClock: "18:00"},
		},
		exceptions: map[string]*model.DateException{
			monday: {StaffID: "s1", Date: monday, Available: false},
		},
	}
	r := NewResolver(store, defaultWeek(t))

	_, open, err := r.Resolve(context.Background(), "s1", monday)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if open {
		t.Fatal("closed exception must win over the weekly rule")
	}
}

func TestResolve_ExceptionWindowOverridesRule(t *testing.T) {
	store := &fakeScheduleStore{
		rules: map[int]*model.WeeklyScheduleRule{
			1: {StaffID: "s1", Weekday: 1, StartClock: "09:00", EndClock: "18:00", SlotIntervalMinutes: 15},
		},
		exceptions: map[string]*model.DateException{
			monday: {StaffID: "s1", Date: monday, Available: true, StartClock: "11:00", EndClock: "14:00"},
		},
	}
	r := NewResolver(store, defaultWeek(t))

	win, open, err := r.Resolve(context.Background(), "s1", monday)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !open {
		t.Fatal("expected open")
	}
	if win.StartMinute != 660 || win.EndMinute != 840 {
		t.Fatalf("unexpected window %+v", win)
	}
	if win.SlotIntervalMinutes != 0 {
		t.Fatalf("exception window must not inherit the rule interval, got %d", win.SlotIntervalMinutes)
	}
}

func TestResolve_OpenExceptionWithoutWindowUsesRule(t *testing.T) {
	store := &fakeScheduleStore{
		rules: map[int]*model.WeeklyScheduleRule{
			6: {StaffID: "s1", Weekday: 6, StartClock: "10:00", EndClock: "15:00"},
		},
		exceptions: map[string]*model.DateException{
			saturday: {StaffID: "s1", Date: saturday, Available: true},
		},
	}
	r := NewResolver(store, defaultWeek(t))

	win, open, err := r.Resolve(context.Background(), "s1", saturday)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !open {
		t.Fatal("expected open via weekly rule")
	}
	if win.StartMinute != 600 || win.EndMinute != 900 {
		t.Fatalf("unexpected window %+v", win)
	}
}

func TestResolve_OpenExceptionWithoutWindowOrRuleStaysClosed(t *testing.T) {
	store := &fakeScheduleStore{
		exceptions: map[string]*model.DateException{
			saturday: {StaffID: "s1", Date: saturday, Available: true},
		},
	}
	r := NewResolver(store, defaultWeek(t))

	_, open, err := r.Resolve(context.Background(), "s1", saturday)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if open {
		t.Fatal("forced-open day without any window source must stay closed")
	}
}

func TestResolve_BadDate(t *testing.T) {
	r := NewResolver(&fakeScheduleStore{}, defaultWeek(t))
	if _, _, err := r.Resolve(context.Background(), "s1", "not-a-date"); err == nil {
		t.Fatal("expected error")
	}
}
