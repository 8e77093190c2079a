// Package api exposes the tax subsystem over HTTP: calculation previews,
// snapshot locking and lookup, and management of profiles, codes, and
// rates. All routes are tenant-scoped via middleware; handlers read the
// tenant from the request context.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hadoan/kerniflow/internal/domain"
)

// CustomValidator adapts validator/v10 to Echo's binding validation hook.
type CustomValidator struct {
	validate *validator.Validate
}

// NewValidator creates the request validator registered on the Echo
// instance.
func NewValidator() *CustomValidator {
	return &CustomValidator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// errorBody is the JSON error envelope returned for every failed request.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newErrorBody(code, message string) errorBody {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	return body
}

// statusForCode maps domain error codes to HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler renders domain and echo errors as the JSON error
// envelope. Internal error details are logged, never leaked to the caller.
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status int
			body   errorBody
		)
		if httpErr, ok := err.(*echo.HTTPError); ok {
			status = httpErr.Code
			body = newErrorBody(domain.EINVALID, messageOf(httpErr))
			if status >= 500 {
				body = newErrorBody(domain.EINTERNAL, "An internal error has occurred.")
			}
		} else {
			code := domain.ErrorCode(err)
			status = statusForCode(code)
			body = newErrorBody(code, domain.ErrorMessage(err))
		}

		if status >= 500 {
			logger.Error("request error",
				slog.String("path", c.Request().URL.Path),
				slog.String("error", err.Error()),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func messageOf(httpErr *echo.HTTPError) string {
	if msg, ok := httpErr.Message.(string); ok {
		return msg
	}
	return http.StatusText(httpErr.Code)
}

// requireTenant resolves the tenant placed in context by middleware.
func requireTenant(c echo.Context) (uuid.UUID, error) {
	return domain.RequireTenantID(c.Request().Context())
}
