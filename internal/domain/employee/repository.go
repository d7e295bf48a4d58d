package employee

import "context"

// Directory is the employee lookup the attendance engine depends on.
// Employee records are owned by another system; this interface only reads them.
type Directory interface {
	GetByID(ctx context.Context, id string) (Employee, error)

	// ListActive returns active employees ordered by id.
	ListActive(ctx context.Context) ([]Employee, error)
}
