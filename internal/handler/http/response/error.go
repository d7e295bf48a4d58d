package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/fine"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Token errors
	case errors.Is(err, jwt.ErrWrongTokenType), errors.Is(err, jwt.ErrMissingEmployeeID):
		Unauthorized(w, err.Error())

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		ValidationError(w, map[string]string{"employee_id": err.Error()})

	// Presence domain errors
	case errors.Is(err, presence.ErrToggleNotAllowed):
		Forbidden(w, err.Error())
	case errors.Is(err, presence.ErrConcurrencyConflict):
		Conflict(w, err.Error())
	case errors.Is(err, presence.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")

	// Fine and report errors
	case errors.Is(err, fine.ErrFineNotAllowed), errors.Is(err, report.ErrForbidden):
		Forbidden(w, err.Error())
	case errors.Is(err, report.ErrInvalidWindow):
		ValidationError(w, map[string]string{"window": err.Error()})
	case errors.Is(err, report.ErrInvalidSortKey):
		ValidationError(w, map[string]string{"sort": err.Error()})
	case errors.Is(err, report.ErrInvalidDate):
		ValidationError(w, map[string]string{"date": err.Error()})

	case errors.Is(err, presence.ErrStorage):
		slog.Error("Storage failure", "error", err)
		InternalServerError(w, "Attendance storage is unavailable")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
