package fine

import (
	"context"
	"time"
)

// Service computes late-arrival fines on demand.
type Service interface {
	// ComputeMonthlyFine counts late records in the month and applies the tiered fine.
	ComputeMonthlyFine(ctx context.Context, employeeID string, year int, month time.Month) (MonthlyFine, error)

	// TrendSummary returns fines for referenceMonth and the two months before it, oldest first.
	TrendSummary(ctx context.Context, employeeID string, referenceMonth time.Time) ([]MonthlyFine, error)
}
