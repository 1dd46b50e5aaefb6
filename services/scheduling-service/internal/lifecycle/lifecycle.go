package lifecycle

import (
	"context"

	"github.com/mkrylova/slotserve/services/scheduling-service/internal/model"
)

// Store is the read/write surface the deferred actions need. Every fire
// reloads the appointment fresh; nothing is cached across the delay.
type Store interface {
	AppointmentByID(ctx context.Context, id string) (*model.Appointment, error)
	SetReminderSent(ctx context.Context, id string, kind string) error
	CompleteIfScheduled(ctx context.Context, id string) (bool, error)
}

// Notifier delivers messages post-commit. Failures are logged and swallowed:
// a lost notification never rolls back a committed state transition.
type Notifier interface {
	NotifyCustomer(ctx context.Context, customerID, message string) error
	NotifyOperators(ctx context.Context, message string) error
}

// ReviewCreator records the default satisfaction entry after a completion.
type ReviewCreator interface {
	CreateDefault(ctx context.Context, customerID, serviceID, staffID string) error
}
