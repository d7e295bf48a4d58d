package fine

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyFine is the late-arrival fine of one employee for one calendar month.
// It is recomputed from attendance records on every read.
type MonthlyFine struct {
	EmployeeID string
	Year       int
	Month      time.Month
	LateCount  int
	Amount     decimal.Decimal
	Exempt     bool
}
