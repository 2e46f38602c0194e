package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) DashboardSummary(e echo.Context) error {
	summary, err := h.dashboard.Summary(e.Request().Context())
	if err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, summary)
}

func (h *Handler) RecentActivities(e echo.Context) error {
	activities, err := h.dashboard.RecentActivities(e.Request().Context())
	if err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, activities)
}
