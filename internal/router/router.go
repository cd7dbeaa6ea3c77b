// Package router registers the HTTP routes of the ops sidecar.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/sahararesort/reservation/internal/handler"
)

// RegisterRoutes wires the ops handler onto the Echo instance. The
// sidecar is read-only: every mutating operation belongs to the TCP line
// protocol.
func RegisterRoutes(e *echo.Echo, h *handler.Ops) {
    // Liveness probe for load balancers and monitoring systems.
    e.GET("/healthz", h.Health)

    v1 := e.Group("/v1")
    v1.GET("/availability", h.Availability)
    v1.GET("/stats", h.Stats)
}
