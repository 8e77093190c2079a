package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadoan/kerniflow/internal/domain"
)

func runTenantMiddleware(t *testing.T, tenantHeader string) (*httptest.ResponseRecorder, uuid.UUID) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/tax/codes", nil)
	if tenantHeader != "" {
		req.Header.Set(TenantHeader, tenantHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var resolved uuid.UUID
	handler := Tenant(nil)(func(c echo.Context) error {
		resolved = domain.TenantIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, resolved
}

func TestTenant_ValidHeader(t *testing.T) {
	tenantID := uuid.New()

	rec, resolved := runTenantMiddleware(t, tenantID.String())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tenantID, resolved)
}

func TestTenant_MissingHeader(t *testing.T) {
	rec, _ := runTenantMiddleware(t, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTenant_MalformedHeader(t *testing.T) {
	rec, _ := runTenantMiddleware(t, "not-a-uuid")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var fromContext string
	handler := RequestID()(func(c echo.Context) error {
		fromContext = domain.RequestIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	assert.NotEmpty(t, fromContext)
	assert.Equal(t, fromContext, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id-42")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequestID()(func(c echo.Context) error {
		assert.Equal(t, "upstream-id-42", domain.RequestIDFromContext(c.Request().Context()))
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	assert.Equal(t, "upstream-id-42", rec.Header().Get(RequestIDHeader))
}
