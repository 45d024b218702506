package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orsreshef/travel-route-planner/internal/api/handlers"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
// metricsHandler may be nil to leave /metrics unmounted.
func NewRouter(planner handlers.RoutePlanner, metricsHandler http.Handler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(logger), loggingMiddleware())

	routeHandler := handlers.NewRouteHandler(planner)

	r.GET("/health", handlers.Health)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	routes := r.Group("/api/routes")
	routes.POST("/plan", routeHandler.PlanJSON)
	routes.GET("/plan", routeHandler.PlanQuery)

	return r
}
