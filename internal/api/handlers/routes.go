package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orsreshef/travel-route-planner/internal/api/dto"
	"github.com/orsreshef/travel-route-planner/internal/domain"
	"github.com/orsreshef/travel-route-planner/internal/export"
	"github.com/orsreshef/travel-route-planner/internal/services"
)

type RoutePlanner interface {
	PlanRoute(ctx context.Context, req services.PlanRequest) (domain.RouteResult, error)
}

type RouteHandler struct {
	planner RoutePlanner
}

func NewRouteHandler(planner RoutePlanner) *RouteHandler {
	return &RouteHandler{planner: planner}
}

// PlanJSON plans a route from a JSON body.
// POST /api/routes/plan[?format=gpx]
func (h *RouteHandler) PlanJSON(c *gin.Context) {
	var req dto.PlanRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	h.plan(c, req)
}

// PlanQuery plans a route from query parameters, for links and GPX downloads.
// GET /api/routes/plan?country=..&activity=..[&format=gpx]
func (h *RouteHandler) PlanQuery(c *gin.Context) {
	var req dto.PlanRouteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid query parameters", Details: err.Error()})
		return
	}
	h.plan(c, req)
}

func (h *RouteHandler) plan(c *gin.Context, req dto.PlanRouteRequest) {
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "gpx" {
		writeError(c, http.StatusBadRequest, "format must be json or gpx")
		return
	}

	result, err := h.planner.PlanRoute(c.Request.Context(), services.PlanRequest{
		Country:          req.Country,
		City:             req.City,
		Activity:         domain.Activity(req.Activity),
		TargetDistanceKm: req.TargetDistanceKm,
		Seed:             req.Seed,
	})
	if err != nil {
		writePlanError(c, err)
		return
	}

	if format == "gpx" {
		body, err := export.GPX(result)
		if err != nil {
			writePlanError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="route-%s.gpx"`, result.ID))
		c.Data(http.StatusOK, "application/gpx+xml", body)
		return
	}

	c.JSON(http.StatusOK, dto.FromRoute(result))
}
