package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orsreshef/travel-route-planner/internal/api/dto"
	"github.com/orsreshef/travel-route-planner/internal/domain"
	"github.com/orsreshef/travel-route-planner/internal/platform/obs"
)

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, dto.ErrorResponse{Error: msg})
}

// writePlanError maps each failure kind to its own status and message so
// callers can tell a bad location from an outage from a sparse road network.
func writePlanError(c *gin.Context, err error) {
	logger := obs.FromContext(c.Request.Context())

	pe, ok := domain.AsPlanError(err)
	if !ok {
		logger.Error("plan route failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ErrorResponse{Kind: string(pe.Kind), Day: pe.Day}
	var status int

	switch pe.Kind {
	case domain.FailureInvalidGoal:
		status = http.StatusBadRequest
		res.Error = "invalid route request"
		res.Details = pe.Reason
	case domain.FailureNoStartLocation:
		status = http.StatusNotFound
		res.Error = "could not find that location; check the city and country names"
	case domain.FailureExhausted:
		status = http.StatusUnprocessableEntity
		res.Error = "no suitable route found near this location; try a different city or distance"
		if pe.HasBest {
			best := pe.BestDistanceKm
			res.BestDistanceKm = &best
			res.Details = fmt.Sprintf("closest route found was %.1f km", best)
		}
	case domain.FailureProviderUnavailable:
		status = http.StatusServiceUnavailable
		res.Error = "routing service is temporarily unavailable; try again shortly"
	case domain.FailureProviderFatal:
		status = http.StatusBadGateway
		res.Error = "route planning is unavailable due to a service configuration problem"
		logger.Error("routing provider rejected configuration", zap.Error(err))
	case domain.FailureCancelled:
		status = http.StatusGatewayTimeout
		res.Error = "route planning took too long or was cancelled"
	default:
		status = http.StatusInternalServerError
		res.Error = "internal server error"
	}

	if status < http.StatusInternalServerError {
		logger.Info("plan route rejected", zap.String("kind", string(pe.Kind)), zap.Error(err))
	} else if pe.Kind != domain.FailureProviderFatal {
		logger.Warn("plan route failed", zap.String("kind", string(pe.Kind)), zap.Error(err))
	}

	c.JSON(status, res)
}
