package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hadoan/kerniflow/internal/domain"
	"github.com/hadoan/kerniflow/internal/service"
	"github.com/hadoan/kerniflow/internal/tax"
)

// TaxHandler serves calculation previews and snapshot operations.
type TaxHandler struct {
	engine    *service.Engine
	snapshots *service.SnapshotService
	logger    *slog.Logger
}

// NewTaxHandler creates the tax calculation and snapshot handler.
func NewTaxHandler(engine *service.Engine, snapshots *service.SnapshotService, logger *slog.Logger) *TaxHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaxHandler{
		engine:    engine,
		snapshots: snapshots,
		logger:    logger,
	}
}

type lineItemRequest struct {
	ID             string     `json:"id" validate:"required"`
	Description    string     `json:"description"`
	Quantity       int32      `json:"quantity"`
	NetAmountCents int64      `json:"netAmountCents"`
	TaxCodeID      *uuid.UUID `json:"taxCodeId"`
}

type customerRequest struct {
	Name        string `json:"name"`
	VATID       string `json:"vatId"`
	CountryCode string `json:"countryCode"`
}

type calculateRequest struct {
	Jurisdiction string            `json:"jurisdiction"`
	DocumentDate string            `json:"documentDate" validate:"required"`
	CurrencyCode string            `json:"currencyCode"`
	Customer     *customerRequest  `json:"customer"`
	Lines        []lineItemRequest `json:"lines" validate:"required,min=1,dive"`
}

type lockRequest struct {
	SourceType string `json:"sourceType" validate:"required,oneof=INVOICE EXPENSE"`
	SourceID   string `json:"sourceId" validate:"required"`
	calculateRequest
}

func (r *calculateRequest) toInput() service.CalculateInput {
	lines := make([]tax.LineItem, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = tax.LineItem{
			ID:             l.ID,
			Description:    l.Description,
			Quantity:       l.Quantity,
			NetAmountCents: l.NetAmountCents,
			TaxCodeID:      l.TaxCodeID,
		}
	}

	input := service.CalculateInput{
		Jurisdiction: r.Jurisdiction,
		DocumentDate: r.DocumentDate,
		CurrencyCode: r.CurrencyCode,
		Lines:        lines,
	}
	if r.Customer != nil {
		input.Customer = &tax.CustomerTaxInfo{
			Name:        r.Customer.Name,
			VATID:       r.Customer.VATID,
			CountryCode: r.Customer.CountryCode,
		}
	}
	return input
}

// Calculate handles POST /api/tax/calculate. The result is a live preview;
// nothing is persisted.
func (h *TaxHandler) Calculate(c echo.Context) error {
	tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}

	var req calculateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	breakdown, err := h.engine.Calculate(c.Request().Context(), tenantID, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, breakdown)
}

// LockSnapshot handles POST /api/tax/snapshots/lock. The operation is
// idempotent: replays return the original snapshot with 200, a first lock
// returns 201.
func (h *TaxHandler) LockSnapshot(c echo.Context) error {
	tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}

	var req lockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	existing, err := h.snapshots.FindBySource(c.Request().Context(), tenantID, req.SourceType, req.SourceID)
	if err != nil && domain.ErrorCode(err) != domain.ENOTFOUND {
		return err
	}

	snapshot, err := h.snapshots.Lock(c.Request().Context(), tenantID, service.LockInput{
		SourceType:     req.SourceType,
		SourceID:       req.SourceID,
		CalculateInput: req.toInput(),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if existing != nil {
		status = http.StatusOK
	}
	return c.JSON(status, snapshot)
}

// GetSnapshot handles GET /api/tax/snapshots/:sourceType/:sourceId.
func (h *TaxHandler) GetSnapshot(c echo.Context) error {
	tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}

	sourceType := c.Param("sourceType")
	sourceID := c.Param("sourceId")
	if sourceType != domain.SourceTypeInvoice && sourceType != domain.SourceTypeExpense {
		return domain.Invalid("snapshot.get", "sourceType must be INVOICE or EXPENSE")
	}

	snapshot, err := h.snapshots.FindBySource(c.Request().Context(), tenantID, sourceType, sourceID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshot)
}

// ListSnapshots handles GET /api/tax/snapshots?from=&to=&sourceType=.
// from and to are ISO dates or RFC 3339 timestamps; to defaults to now.
func (h *TaxHandler) ListSnapshots(c echo.Context) error {
	tenantID, err := requireTenant(c)
	if err != nil {
		return err
	}

	from, err := service.ParseDocumentDate(c.QueryParam("from"))
	if err != nil {
		return domain.Invalid("snapshot.list", "invalid from date")
	}

	to := time.Now().UTC()
	if raw := c.QueryParam("to"); raw != "" {
		to, err = service.ParseDocumentDate(raw)
		if err != nil {
			return domain.Invalid("snapshot.list", "invalid to date")
		}
	}

	sourceType := c.QueryParam("sourceType")
	if sourceType != "" && sourceType != domain.SourceTypeInvoice && sourceType != domain.SourceTypeExpense {
		return domain.Invalid("snapshot.list", "sourceType must be INVOICE or EXPENSE")
	}

	snapshots, err := h.snapshots.FindByPeriod(c.Request().Context(), tenantID, from, to, sourceType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"snapshots": snapshots})
}
