// Package routes wires the API handlers onto the Echo instance behind the
// shared middleware chain.
package routes

import (
	"log/slog"

	"github.com/hadoan/kerniflow/internal/handler/api"
	"github.com/hadoan/kerniflow/internal/middleware"
)

// APIDeps bundles everything route registration needs.
type APIDeps struct {
	Tax      *api.TaxHandler
	Profiles *api.ProfileHandler
	TaxCodes *api.TaxCodeHandler
	TaxRates *api.TaxRateHandler
	Metrics  *middleware.Metrics
	Logger   *slog.Logger
}
