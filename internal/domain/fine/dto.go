package fine

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type MonthlyFineRequest struct {
	EmployeeID string
	Year       int
	Month      int
}

func (r *MonthlyFineRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if r.Year < 2000 || r.Year > 9999 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be a four digit year from 2000",
		})
	}

	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type MonthlyFineResponse struct {
	EmployeeID string          `json:"employee_id"`
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Label      string          `json:"label"`
	LateCount  int             `json:"late_count"`
	FineAmount decimal.Decimal `json:"fine_amount"`
	Exempt     bool            `json:"exempt"`
}

func NewMonthlyFineResponse(f MonthlyFine) MonthlyFineResponse {
	return MonthlyFineResponse{
		EmployeeID: f.EmployeeID,
		Year:       f.Year,
		Month:      int(f.Month),
		Label:      fmt.Sprintf("%s, %d", f.Month.String()[:3], f.Year),
		LateCount:  f.LateCount,
		FineAmount: f.Amount,
		Exempt:     f.Exempt,
	}
}

// TrendResponse holds the reference month and the two months before it, oldest first.
type TrendResponse struct {
	EmployeeID     string                `json:"employee_id"`
	ReferenceMonth string                `json:"reference_month"`
	Months         []MonthlyFineResponse `json:"months"`
	Total          decimal.Decimal       `json:"total"`
}

func NewTrendResponse(employeeID string, reference time.Time, months []MonthlyFine) TrendResponse {
	out := TrendResponse{
		EmployeeID:     employeeID,
		ReferenceMonth: reference.Format("2006-01"),
		Months:         make([]MonthlyFineResponse, 0, len(months)),
		Total:          decimal.Zero,
	}
	for _, m := range months {
		out.Months = append(out.Months, NewMonthlyFineResponse(m))
		out.Total = out.Total.Add(m.Amount)
	}
	return out
}
