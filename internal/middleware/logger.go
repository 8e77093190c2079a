package middleware

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hadoan/kerniflow/internal/domain"
)

// RequestLogger logs each request with method, path, status, duration, and
// the request and tenant IDs resolved earlier in the chain.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			ctx := c.Request().Context()
			attrs := []any{
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.Int("status", c.Response().Status),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", domain.RequestIDFromContext(ctx)),
			}
			if tenantID := domain.TenantIDFromContext(ctx); tenantID != uuid.Nil {
				attrs = append(attrs, slog.String("tenant_id", tenantID.String()))
			}

			if c.Response().Status >= 500 {
				logger.Error("request failed", attrs...)
			} else {
				logger.Info("request", attrs...)
			}

			return err
		}
	}
}
