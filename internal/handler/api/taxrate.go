package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hadoan/kerniflow/internal/domain"
	"github.com/hadoan/kerniflow/internal/service"
)

// TaxRateHandler serves the effective-dated rates attached to tax codes.
// Rates cross the wire as percentage strings ("19", "7.5") and are stored
// as basis points.
type TaxRateHandler struct {
	rates *service.TaxRateService
}

// NewTaxRateHandler creates the tax rate handler.
func NewTaxRateHandler(rates *service.TaxRateService) *TaxRateHandler {
	return &TaxRateHandler{rates: rates}
}

type createTaxRateRequest struct {
	RatePercent   string `json:"ratePercent" validate:"required"`
	EffectiveFrom string `json:"effectiveFrom" validate:"required"`
	EffectiveTo   string `json:"effectiveTo"`
}

type updateTaxRateRequest struct {
	RatePercent *string `json:"ratePercent"`
	EffectiveTo *string `json:"effectiveTo"`
}

type taxRateResponse struct {
	ID            string  `json:"id"`
	TaxCodeID     string  `json:"taxCodeId"`
	RateBps       int32   `json:"rateBps"`
	RatePercent   string  `json:"ratePercent"`
	EffectiveFrom string  `json:"effectiveFrom"`
	EffectiveTo   *string `json:"effectiveTo"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

func toTaxRateResponse(r *domain.TaxRate) taxRateResponse {
	resp := taxRateResponse{
		ID:            r.ID.String(),
		TaxCodeID:     r.TaxCodeID.String(),
		RateBps:       r.RateBps,
		RatePercent:   decimal.New(int64(r.RateBps), -2).String(),
		EffectiveFrom: r.EffectiveFrom.UTC().Format(time.RFC3339),
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     r.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if r.EffectiveTo != nil {
		to := r.EffectiveTo.UTC().Format(time.RFC3339)
		resp.EffectiveTo = &to
	}
	return resp
}

// parseRatePercent converts a percentage string to basis points. The value
// must be non-negative and must not carry sub-basis-point precision.
func parseRatePercent(op, raw string) (int32, error) {
	percent, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, domain.Invalid(op, "ratePercent must be a decimal number")
	}
	if percent.IsNegative() {
		return 0, domain.Invalid(op, "ratePercent must not be negative")
	}

	bps := percent.Mul(decimal.NewFromInt(100))
	if !bps.IsInteger() {
		return 0, domain.Invalid(op, "ratePercent has more than two decimal places")
	}
	return int32(bps.IntPart()), nil
}

// Create handles POST /api/tax/codes/:id/rates.
func (h *TaxRateHandler) Create(c echo.Context) error {
	tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}

	taxCodeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.Invalid("taxrate.create", "invalid tax code ID")
	}

	var req createTaxRateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	rateBps, err := parseRatePercent("taxrate.create", req.RatePercent)
	if err != nil {
		return err
	}
	effectiveFrom, err := service.ParseDocumentDate(req.EffectiveFrom)
	if err != nil {
		return domain.Invalid("taxrate.create", "invalid effectiveFrom date")
	}
	var effectiveTo *time.Time
	if req.EffectiveTo != "" {
		to, err := service.ParseDocumentDate(req.EffectiveTo)
		if err != nil {
			return domain.Invalid("taxrate.create", "invalid effectiveTo date")
		}
		effectiveTo = &to
	}

	rate, err := h.rates.Create(c.Request().Context(), tenantID, service.CreateTaxRateParams{
		TaxCodeID:     taxCodeID,
		RateBps:       rateBps,
		EffectiveFrom: effectiveFrom,
		EffectiveTo:   effectiveTo,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTaxRateResponse(rate))
}

// List handles GET /api/tax/codes/:id/rates.
func (h *TaxRateHandler) List(c echo.Context) error {
	tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}

	taxCodeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.Invalid("taxrate.list", "invalid tax code ID")
	}

	rates, err := h.rates.ListByTaxCode(c.Request().Context(), tenantID, taxCodeID)
	if err != nil {
		return err
	}

	out := make([]taxRateResponse, len(rates))
	for i := range rates {
		out[i] = toTaxRateResponse(&rates[i])
	}
	return c.JSON(http.StatusOK, map[string]any{"taxRates": out})
}

// GetEffective handles GET /api/tax/codes/:id/rates/effective?asOf=. asOf
// defaults to now.
func (h *TaxRateHandler) GetEffective(c echo.Context) error {
	tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}

	taxCodeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.Invalid("taxrate.effective", "invalid tax code ID")
	}

	asOf := time.Now().UTC()
	if raw := c.QueryParam("asOf"); raw != "" {
		asOf, err = service.ParseDocumentDate(raw)
		if err != nil {
			return domain.Invalid("taxrate.effective", "invalid asOf date")
		}
	}

	rate, err := h.rates.FindEffectiveRate(c.Request().Context(), tenantID, taxCodeID, asOf)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaxRateResponse(rate))
}

// Update handles PATCH /api/tax/codes/:id/rates/:rateId.
func (h *TaxRateHandler) Update(c echo.Context) error {
	tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}

	taxCodeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.Invalid("taxrate.update", "invalid tax code ID")
	}
	rateID, err := uuid.Parse(c.Param("rateId"))
	if err != nil {
		return domain.Invalid("taxrate.update", "invalid rate ID")
	}

	var req updateTaxRateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	params := service.UpdateTaxRateParams{}
	if req.RatePercent != nil {
		rateBps, err := parseRatePercent("taxrate.update", *req.RatePercent)
		if err != nil {
			return err
		}
		params.RateBps = &rateBps
	}
	if req.EffectiveTo != nil {
		to, err := service.ParseDocumentDate(*req.EffectiveTo)
		if err != nil {
			return domain.Invalid("taxrate.update", "invalid effectiveTo date")
		}
		params.EffectiveTo = &to
	}

	rate, err := h.rates.Update(c.Request().Context(), tenantID, taxCodeID, rateID, params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaxRateResponse(rate))
}
