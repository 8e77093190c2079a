package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hadoan/kerniflow/internal/domain"
)

// TenantHeader is the header carrying the caller's tenant ID. The API sits
// behind the platform gateway, which authenticates the caller and injects
// this header.
const TenantHeader = "X-Tenant-ID"

// Tenant resolves the tenant from the X-Tenant-ID header and adds it to the
// request context. Requests without a valid tenant ID are rejected before
// reaching any handler.
func Tenant(logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(TenantHeader)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing "+TenantHeader+" header")
			}

			tenantID, err := uuid.Parse(raw)
			if err != nil {
				logger.Debug("rejected request with malformed tenant ID",
					slog.String("tenant_header", raw),
					slog.String("path", c.Request().URL.Path),
				)
				return echo.NewHTTPError(http.StatusBadRequest, "invalid "+TenantHeader+" header")
			}

			ctx := domain.NewContextWithTenantID(c.Request().Context(), tenantID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
