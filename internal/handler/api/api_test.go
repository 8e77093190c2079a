package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadoan/kerniflow/internal/domain"
)

func TestParseRatePercent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int32
		wantErr bool
	}{
		{name: "whole percent", input: "19", want: 1900},
		{name: "reduced rate", input: "7", want: 700},
		{name: "fractional percent", input: "7.5", want: 750},
		{name: "two decimal places", input: "19.25", want: 1925},
		{name: "zero", input: "0", want: 0},
		{name: "sub basis point precision", input: "19.255", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "not a number", input: "nineteen", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRatePercent("taxrate.create", tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.EINVALID, http.StatusBadRequest},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"something_else", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForCode(tt.code), tt.code)
	}
}

func TestHTTPErrorHandler_DomainError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/tax/codes/missing", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorHandler(nil)(domain.ErrTaxCodeNotFound, c)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.ENOTFOUND, body.Error.Code)
	assert.Equal(t, "Tax code not found", body.Error.Message)
}

func TestHTTPErrorHandler_InternalHidesDetails(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/tax/calculate", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := domain.Internal(assert.AnError, "snapshot.lock", "failed to persist snapshot")
	HTTPErrorHandler(nil)(err, c)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.EINTERNAL, body.Error.Code)
	assert.NotContains(t, body.Error.Message, "persist")
}

func TestHTTPErrorHandler_EchoError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/tax/calculate", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorHandler(nil)(echo.NewHTTPError(http.StatusBadRequest, "invalid request body"), c)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.EINVALID, body.Error.Code)
	assert.Equal(t, "invalid request body", body.Error.Message)
}
