package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hadoan/kerniflow/internal/domain"
	"github.com/hadoan/kerniflow/internal/service"
)

// TaxCodeHandler serves tax code management.
type TaxCodeHandler struct {
	codes *service.TaxCodeService
}

// NewTaxCodeHandler creates the tax code handler.
func NewTaxCodeHandler(codes *service.TaxCodeService) *TaxCodeHandler {
	return &TaxCodeHandler{codes: codes}
}

type createTaxCodeRequest struct {
	Code   string `json:"code" validate:"required"`
	Kind   string `json:"kind" validate:"required,oneof=STANDARD REDUCED EXEMPT ZERO REVERSE_CHARGE"`
	Label  string `json:"label"`
	Active *bool  `json:"active"`
}

type updateTaxCodeRequest struct {
	Label  *string `json:"label"`
	Active *bool   `json:"active"`
}

type taxCodeResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Kind      string `json:"kind"`
	Label     string `json:"label"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toTaxCodeResponse(c *domain.TaxCode) taxCodeResponse {
	return taxCodeResponse{
		ID:        c.ID.String(),
		Code:      c.Code,
		Kind:      string(c.Kind),
		Label:     c.Label,
		Active:    c.Active,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Create handles POST /api/tax/codes.
func (h *TaxCodeHandler) Create(c echo.Context) error {
	tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}

	var req createTaxCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	code, err := h.codes.Create(c.Request().Context(), tenantID, service.CreateTaxCodeParams{
		Code:   req.Code,
		Kind:   domain.TaxCodeKind(req.Kind),
		Label:  req.Label,
		Active: active,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTaxCodeResponse(code))
}

// List handles GET /api/tax/codes.
func (h *TaxCodeHandler) List(c echo.Context) error {
	tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}

	codes, err := h.codes.List(c.Request().Context(), tenantID)
	if err != nil {
		return err
	}

	out := make([]taxCodeResponse, len(codes))
	for i := range codes {
		out[i] = toTaxCodeResponse(&codes[i])
	}
	return c.JSON(http.StatusOK, map[string]any{"taxCodes": out})
}

// Get handles GET /api/tax/codes/:id.
func (h *TaxCodeHandler) Get(c echo.Context) error {
	tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.Invalid("taxcode.get", "invalid tax code ID")
	}

	code, err := h.codes.Get(c.Request().Context(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaxCodeResponse(code))
}

// Update handles PATCH /api/tax/codes/:id. The code string and kind are
// immutable; only label and active can change.
func (h *TaxCodeHandler) Update(c echo.Context) error {
	tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.Invalid("taxcode.update", "invalid tax code ID")
	}

	var req updateTaxCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	code, err := h.codes.Update(c.Request().Context(), tenantID, id, service.UpdateTaxCodeParams{
		Label:  req.Label,
		Active: req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaxCodeResponse(code))
}

// Delete handles DELETE /api/tax/codes/:id.
func (h *TaxCodeHandler) Delete(c echo.Context) error {
	tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.Invalid("taxcode.delete", "invalid tax code ID")
	}

	if err := h.codes.Delete(c.Request().Context(), tenantID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
