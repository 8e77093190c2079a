package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hadoan/kerniflow/internal/middleware"
)

// RegisterAPIRoutes registers the tax API. Health and metrics endpoints sit
// outside the tenant-scoped group; everything under /api/tax requires a
// tenant.
func RegisterAPIRoutes(e *echo.Echo, deps APIDeps) {
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		e.Use(deps.Metrics.Instrument())
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	g := e.Group("/api/tax", middleware.Tenant(deps.Logger))

	g.POST("/calculate", deps.Tax.Calculate)

	g.POST("/snapshots/lock", deps.Tax.LockSnapshot)
	g.GET("/snapshots", deps.Tax.ListSnapshots)
	g.GET("/snapshots/:sourceType/:sourceId", deps.Tax.GetSnapshot)

	g.PUT("/profile", deps.Profiles.Upsert)
	g.GET("/profile/active", deps.Profiles.GetActive)

	g.POST("/codes", deps.TaxCodes.Create)
	g.GET("/codes", deps.TaxCodes.List)
	g.GET("/codes/:id", deps.TaxCodes.Get)
	g.PATCH("/codes/:id", deps.TaxCodes.Update)
	g.DELETE("/codes/:id", deps.TaxCodes.Delete)

	g.POST("/codes/:id/rates", deps.TaxRates.Create)
	g.GET("/codes/:id/rates", deps.TaxRates.List)
	g.GET("/codes/:id/rates/effective", deps.TaxRates.GetEffective)
	g.PATCH("/codes/:id/rates/:rateId", deps.TaxRates.Update)
}
