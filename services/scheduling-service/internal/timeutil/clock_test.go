package timeutil

import (
	"errors"
	"testing"
)

func TestToMinutes(t *testing.T) {
	cases := []struct {
		clock string
		want  int
	}{
		{"00:00", 0},
		{"09:00", 540},
		{"9:05", 545},
		{"23:59", 1439},
	}
	for _, c := range cases {
		got, err := ToMinutes(c.clock)
		if err != nil {
			t.Fatalf("ToMinutes(%q): %v", c.clock, err)
		}
		if got != c.want {
			t.Fatalf("ToMinutes(%q) = %d, want %d", c.clock, got, c.want)
		}
	}
}

func TestToMinutes_Invalid(t *testing.T) {
	for _, clock := range []string{"", "09", "09:00:00", "24:00", "12:60", "-1:30", "ab:cd", "12-30"} {
		if _, err := ToMinutes(clock); !errors.Is(err, ErrFormat) {
			t.Fatalf("ToMinutes(%q): expected ErrFormat, got %v", clock, err)
		}
	}
}

func TestToClock(t *testing.T) {
	if got := ToClock(540); got != "09:00" {
		t.Fatalf("ToClock(540) = %q", got)
	}
	if got := ToClock(545); got != "09:05" {
		t.Fatalf("ToClock(545) = %q", got)
	}
	if got := ToClock(0); got != "00:00" {
		t.Fatalf("ToClock(0) = %q", got)
	}
}

func TestToClock_RoundTrip(t *testing.T) {
	for mins := 0; mins < 24*60; mins++ {
		back, err := ToMinutes(ToClock(mins))
		if err != nil {
			t.Fatalf("round trip %d: %v", mins, err)
		}
		if back != mins {
			t.Fatalf("round trip %d came back as %d", mins, back)
		}
	}
}

func TestParseDate(t *testing.T) {
	day, err := ParseDate("2026-03-14")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if day.Year() != 2026 || int(day.Month()) != 3 || day.Day() != 14 {
		t.Fatalf("ParseDate gave %v", day)
	}
	if _, err := ParseDate("14.03.2026"); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if _, err := ParseDate("2026-13-01"); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestAt(t *testing.T) {
	at, err := At("2026-03-14", "10:30")
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if at.Hour() != 10 || at.Minute() != 30 {
		t.Fatalf("At gave %v", at)
	}
	if _, err := At("2026-03-14", "25:00"); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}
