package model

import "time"

// Appointment statuses. scheduled is the only non-terminal state; completed
// and cancelled are sinks.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Weekdays follow time.Weekday numbering: 0 is Sunday.

type StaffMember struct {
	ID        string
	Name      string
	Bio       string
	Contact   string
	IsActive  bool
	CreatedAt time.Time
}

type ServiceOffering struct {
	ID              string
	Name            string
	Description     string
	Price           string
	DurationMinutes int
	CreatedAt       time.Time
}

type Customer struct {
	ID         string
	ExternalID string
	Name       string
	Phone      string
	CreatedAt  time.Time
}

// WeeklyScheduleRule is a staff member's recurring working window for one
// weekday. At most one rule exists per (staff, weekday); replacing is a
// delete-then-insert in a single transaction.
type WeeklyScheduleRule struct {
	ID                  string
	StaffID             string
	Weekday             int
	StartClock          string
	EndClock            string
	SlotIntervalMinutes int // 0 means unset
}

// DateException overrides a staff member's weekly availability for one date.
// Available=false closes the day outright. Available=true with both clocks
// replaces the window for that date; without clocks it only forces the day
// open using whatever the weekly rules say.
type DateException struct {
	ID         string
	StaffID    string
	Date       string
	Available  bool
	StartClock string // empty when not set
	EndClock   string
	Note       string
}

type Appointment struct {
	ID           string
	CustomerID   string
	ServiceID    string
	StaffID      string
	Date         string // YYYY-MM-DD
	StartClock   string // HH:MM
	Status       string
	Reminded24h  bool
	Reminded1h   bool
	ContactName  string
	ContactPhone string
	CreatedAt    time.Time
}

// BookedInterval is the projection slot generation works against.
// DurationMinutes is 0 when the appointment's service lookup yields nothing;
// consumers substitute the requested service's duration.
type BookedInterval struct {
	StartMinute     int
	DurationMinutes int
}

type Review struct {
	ID         string
	CustomerID string
	ServiceID  string
	StaffID    string
	Rating     int
	Body       string
	CreatedAt  time.Time
}
