package presence

import (
	"context"
	"time"
)

// Service is the presence state machine exposed to transports.
type Service interface {
	// SetActive opens (active=true) or closes (active=false) an interval on today's record.
	SetActive(ctx context.Context, employeeID string, active bool, now time.Time) (ToggleResult, error)

	// Status reports whether the employee is online and summarises today's record.
	Status(ctx context.Context, employeeID string) (StatusResponse, error)
}
