package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/presence"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/presence-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/presence-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/clock"
)

type PresenceHandler interface {
	Toggle(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
}

type presenceHandlerImpl struct {
	presenceService presence.Service
	clock           clock.Clock
}

func NewPresenceHandler(presenceService presence.Service, clk clock.Clock) PresenceHandler {
	if clk == nil {
		clk = clock.System()
	}
	return &presenceHandlerImpl{
		presenceService: presenceService,
		clock:           clk,
	}
}

// Toggle implements PresenceHandler.
func (h *presenceHandlerImpl) Toggle(w http.ResponseWriter, r *http.Request) {
	var req presence.ToggleRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("Failed to decode toggle request", "error", err)
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "missing identity")
		return
	}
	policy := report.Policy{Capability: id.Capability}
	if !policy.CanToggle(id.EmployeeID, req.EmployeeID) {
		response.HandleError(w, presence.ErrToggleNotAllowed)
		return
	}

	result, err := h.presenceService.SetActive(r.Context(), req.EmployeeID, *req.Active, h.clock.Now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Presence updated"
	if result.NoOp {
		message = "No open interval to close"
	}
	response.SuccessWithMessage(w, message, presence.NewToggleResponse(result))
}

// Me implements PresenceHandler.
func (h *presenceHandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "missing identity")
		return
	}

	status, err := h.presenceService.Status(r.Context(), id.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, status)
}
