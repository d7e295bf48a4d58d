package http

import (
	"net/http"
	"strconv"
	"time"

	domainFine "github.com/cmlabs-hris/presence-backend-go/internal/domain/fine"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/presence-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/presence-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
)

type AttendanceHandler interface {
	Dashboard(w http.ResponseWriter, r *http.Request)
	Timeline(w http.ResponseWriter, r *http.Request)
	MonthlyFine(w http.ResponseWriter, r *http.Request)
	FineTrend(w http.ResponseWriter, r *http.Request)
}

// AttendanceOptions carries the report settings handlers need from configuration.
type AttendanceOptions struct {
	DefaultWindow         int
	MaxWindow             int
	ManagementEmployeeIDs []string
	Location              *time.Location
}

type attendanceHandlerImpl struct {
	reportService report.Service
	fineService   domainFine.Service
	clock         clock.Clock
	opts          AttendanceOptions
}

func NewAttendanceHandler(reportService report.Service, fineService domainFine.Service, clk clock.Clock, opts AttendanceOptions) AttendanceHandler {
	if clk == nil {
		clk = clock.System()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &attendanceHandlerImpl{
		reportService: reportService,
		fineService:   fineService,
		clock:         clk,
		opts:          opts,
	}
}

func (h *attendanceHandlerImpl) policyFor(id middleware.Identity) report.Policy {
	return report.Policy{
		Capability:          id.Capability,
		ExcludedEmployeeIDs: h.opts.ManagementEmployeeIDs,
	}
}

// Dashboard implements AttendanceHandler.
func (h *attendanceHandlerImpl) Dashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "missing identity")
		return
	}

	q := report.DashboardQuery{
		Window:       r.URL.Query().Get("window"),
		Sort:         r.URL.Query().Get("sort"),
		WeekdaysOnly: r.URL.Query().Get("weekdays_only"),
	}
	req, err := q.ToRequest(h.opts.DefaultWindow, h.opts.MaxWindow)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	req.RequestingEmployeeID = id.EmployeeID
	req.Policy = h.policyFor(id)

	dashboard, err := h.reportService.BuildDashboard(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, dashboard)
}

// Timeline implements AttendanceHandler.
func (h *attendanceHandlerImpl) Timeline(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "missing identity")
		return
	}

	timeline, err := h.reportService.Timeline(r.Context(), report.TimelineRequest{
		Date:   r.URL.Query().Get("date"),
		Policy: h.policyFor(id),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, timeline)
}

// MonthlyFine implements AttendanceHandler.
func (h *attendanceHandlerImpl) MonthlyFine(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "missing identity")
		return
	}

	query := r.URL.Query()
	req := domainFine.MonthlyFineRequest{EmployeeID: query.Get("employee_id")}
	if req.EmployeeID == "" {
		req.EmployeeID = id.EmployeeID
	}
	req.Year, _ = strconv.Atoi(query.Get("year"))
	req.Month, _ = strconv.Atoi(query.Get("month"))

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}
	if !h.policyFor(id).CanViewFines(id.EmployeeID, req.EmployeeID) {
		response.HandleError(w, domainFine.ErrFineNotAllowed)
		return
	}

	result, err := h.fineService.ComputeMonthlyFine(r.Context(), req.EmployeeID, req.Year, time.Month(req.Month))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, domainFine.NewMonthlyFineResponse(result))
}

// FineTrend implements AttendanceHandler.
func (h *attendanceHandlerImpl) FineTrend(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "missing identity")
		return
	}

	query := r.URL.Query()
	employeeID := query.Get("employee_id")
	if employeeID == "" {
		employeeID = id.EmployeeID
	}

	reference := h.clock.Now().In(h.opts.Location)
	if month := query.Get("month"); month != "" {
		parsed, ok := validator.IsValidMonth(month)
		if !ok {
			response.HandleError(w, validator.ValidationErrors{{
				Field:   "month",
				Message: "month must be in YYYY-MM format",
			}})
			return
		}
		reference = parsed
	}

	if !h.policyFor(id).CanViewFines(id.EmployeeID, employeeID) {
		response.HandleError(w, domainFine.ErrFineNotAllowed)
		return
	}

	months, err := h.fineService.TrendSummary(r.Context(), employeeID, reference)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, domainFine.NewTrendResponse(employeeID, reference, months))
}
