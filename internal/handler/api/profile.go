package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hadoan/kerniflow/internal/domain"
	"github.com/hadoan/kerniflow/internal/service"
)

// ProfileHandler serves tax profile management.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler creates the tax profile handler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type upsertProfileRequest struct {
	CountryCode     string `json:"countryCode" validate:"required,len=2"`
	Regime          string `json:"regime" validate:"required,oneof=STANDARD_VAT SMALL_BUSINESS"`
	VATID           string `json:"vatId"`
	CurrencyCode    string `json:"currencyCode" validate:"required,len=3"`
	FilingFrequency string `json:"filingFrequency" validate:"omitempty,oneof=MONTHLY QUARTERLY ANNUAL"`
	EffectiveFrom   string `json:"effectiveFrom" validate:"required"`
	EffectiveTo     string `json:"effectiveTo"`
}

type profileResponse struct {
	ID              string  `json:"id"`
	CountryCode     string  `json:"countryCode"`
	Regime          string  `json:"regime"`
	VATID           string  `json:"vatId"`
	CurrencyCode    string  `json:"currencyCode"`
	FilingFrequency string  `json:"filingFrequency"`
	EffectiveFrom   string  `json:"effectiveFrom"`
	EffectiveTo     *string `json:"effectiveTo"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func toProfileResponse(p *domain.TaxProfile) profileResponse {
	resp := profileResponse{
		ID:              p.ID.String(),
		CountryCode:     p.CountryCode,
		Regime:          string(p.Regime),
		VATID:           p.VATID,
		CurrencyCode:    p.CurrencyCode,
		FilingFrequency: p.FilingFrequency,
		EffectiveFrom:   p.EffectiveFrom.UTC().Format(time.RFC3339),
		CreatedAt:       p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if p.EffectiveTo != nil {
		to := p.EffectiveTo.UTC().Format(time.RFC3339)
		resp.EffectiveTo = &to
	}
	return resp
}

// Upsert handles PUT /api/tax/profile. The (tenant, effectiveFrom) pair is
// the upsert key.
func (h *ProfileHandler) Upsert(c echo.Context) error {
	tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}

	var req upsertProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	effectiveFrom, err := service.ParseDocumentDate(req.EffectiveFrom)
	if err != nil {
		return domain.Invalid("profile.upsert", "invalid effectiveFrom date")
	}
	var effectiveTo *time.Time
	if req.EffectiveTo != "" {
		to, err := service.ParseDocumentDate(req.EffectiveTo)
		if err != nil {
			return domain.Invalid("profile.upsert", "invalid effectiveTo date")
		}
		effectiveTo = &to
	}

	profile, err := h.profiles.Upsert(c.Request().Context(), tenantID, service.UpsertProfileParams{
		CountryCode:     req.CountryCode,
		Regime:          domain.Regime(req.Regime),
		VATID:           req.VATID,
		CurrencyCode:    req.CurrencyCode,
		FilingFrequency: req.FilingFrequency,
		EffectiveFrom:   effectiveFrom,
		EffectiveTo:     effectiveTo,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(profile))
}

// GetActive handles GET /api/tax/profile/active?asOf=. asOf defaults to
// now.
func (h *ProfileHandler) GetActive(c echo.Context) error {
	tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}

	asOf := time.Now().UTC()
	if raw := c.QueryParam("asOf"); raw != "" {
		asOf, err = service.ParseDocumentDate(raw)
		if err != nil {
			return domain.Invalid("profile.get_active", "invalid asOf date")
		}
	}

	profile, err := h.profiles.GetActive(c.Request().Context(), tenantID, asOf)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(profile))
}
