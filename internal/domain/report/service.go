package report

import "context"

// Service assembles read-only attendance views.
type Service interface {
	// BuildDashboard returns one row per roster employee with an aligned day grid.
	BuildDashboard(ctx context.Context, req DashboardRequest) (DashboardResponse, error)

	// Timeline returns every tracked employee's interval spans for one date.
	Timeline(ctx context.Context, req TimelineRequest) (TimelineResponse, error)
}
