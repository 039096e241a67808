// Package taxhttp exposes the stateless tax calculators over JSON.
package taxhttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/money"
	"github.com/ngtax/ngtax/internal/observability"
	"github.com/ngtax/ngtax/internal/platform/httpx"
	"github.com/ngtax/ngtax/internal/pricing"
	"github.com/ngtax/ngtax/internal/tax"
)

// Rates is the registry contract used by the handler.
type Rates interface {
	Load(ctx context.Context, year tax.TaxYear) (tax.RateTables, error)
	Reload(ctx context.Context, year tax.TaxYear) (tax.RateTables, error)
}

// Handler serves the calculator endpoints.
type Handler struct {
	logger  *slog.Logger
	rates   Rates
	metrics *observability.Metrics
	now     func() time.Time
}

// NewHandler constructs the handler. metrics may be nil.
func NewHandler(logger *slog.Logger, rates Rates, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, rates: rates, metrics: metrics, now: time.Now}
}

// MountRoutes registers the public calculator routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/api/tax", func(r chi.Router) {
		r.Post("/preview", h.preview)
		r.Post("/pit", h.pit)
		r.Post("/cit", h.cit)
		r.Get("/rates/{year}", h.rateTables)
	})
	r.Get("/api/pricing/{plan}/commission", h.commission)
}

// MountAdminRoutes registers routes that must sit behind the admin guard.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/rates/{year}/reload", h.reload)
}

type previewRequest struct {
	TaxYear         int              `json:"tax_year" validate:"required"`
	Subtotal        *decimal.Decimal `json:"subtotal" validate:"required"`
	VATExempt       bool             `json:"vat_exempt"`
	ServiceCategory string           `json:"service_category" validate:"omitempty,max=64"`
	PayerClass      string           `json:"payer_class" validate:"required_with=ServiceCategory"`
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := Bind(w, r, &req); err != nil {
		h.fail(w, "preview", err)
		return
	}
	tables, err := h.tables(r.Context(), req.TaxYear)
	if err != nil {
		h.fail(w, "preview", err)
		return
	}
	in := tax.PreviewInput{Subtotal: *req.Subtotal, VATExempt: req.VATExempt}
	if req.ServiceCategory != "" {
		if in.ServiceCategory, err = tax.ParseServiceCategory(req.ServiceCategory); err != nil {
			h.fail(w, "preview", err)
			return
		}
		if in.PayerClass, err = tax.ParseTaxpayerClass(req.PayerClass); err != nil {
			h.fail(w, "preview", err)
			return
		}
	}
	out, err := tax.ComputePreview(in, tables)
	if err != nil {
		h.fail(w, "preview", err)
		return
	}
	h.observe("preview", nil)
	httpx.JSON(w, http.StatusOK, out)
}

type pitRequest struct {
	TaxYear       int              `json:"tax_year" validate:"required"`
	GrossIncome   *decimal.Decimal `json:"gross_income" validate:"required_without=TaxableIncome"`
	TaxableIncome *decimal.Decimal `json:"taxable_income"`
	Reliefs       tax.Reliefs      `json:"reliefs"`
}

func (h *Handler) pit(w http.ResponseWriter, r *http.Request) {
	var req pitRequest
	if err := Bind(w, r, &req); err != nil {
		h.fail(w, "pit", err)
		return
	}
	tables, err := h.tables(r.Context(), req.TaxYear)
	if err != nil {
		h.fail(w, "pit", err)
		return
	}
	var out tax.PITResult
	if req.TaxableIncome != nil {
		out, err = tax.ComputePIT(*req.TaxableIncome, tables.PITBrackets)
	} else {
		out, err = tax.ComputeAnnualPIT(*req.GrossIncome, req.Reliefs, tables)
	}
	if err != nil {
		h.fail(w, "pit", err)
		return
	}
	h.observe("pit", nil)
	httpx.JSON(w, http.StatusOK, out)
}

type citRequest struct {
	TaxYear       int              `json:"tax_year" validate:"required"`
	Turnover      *decimal.Decimal `json:"turnover" validate:"required"`
	TaxableProfit *decimal.Decimal `json:"taxable_profit" validate:"required"`
}

func (h *Handler) cit(w http.ResponseWriter, r *http.Request) {
	var req citRequest
	if err := Bind(w, r, &req); err != nil {
		h.fail(w, "cit", err)
		return
	}
	tables, err := h.tables(r.Context(), req.TaxYear)
	if err != nil {
		h.fail(w, "cit", err)
		return
	}
	out, err := tax.ComputeCIT(*req.Turnover, *req.TaxableProfit, tables)
	if err != nil {
		h.fail(w, "cit", err)
		return
	}
	h.observe("cit", nil)
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) rateTables(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tables, err := h.tables(r.Context(), year)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tables)
}

type reloadResponse struct {
	TaxYear    tax.TaxYear `json:"tax_year"`
	Statute    string      `json:"statute"`
	ReloadedAt time.Time   `json:"reloaded_at"`
}

func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	raw, err := yearParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	year, err := tax.ParseTaxYear(raw)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tables, err := h.rates.Reload(r.Context(), year)
	if err != nil {
		h.logger.Error("rate table reload failed", slog.Int("tax_year", int(year)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("rate table reloaded", slog.Int("tax_year", int(year)), slog.String("statute", tables.Statute))
	httpx.JSON(w, http.StatusOK, reloadResponse{TaxYear: year, Statute: tables.Statute, ReloadedAt: h.now().UTC()})
}

type commissionResponse struct {
	Plan       pricing.Plan    `json:"plan"`
	Price      decimal.Decimal `json:"price"`
	Rate       decimal.Decimal `json:"commission_rate"`
	Commission decimal.Decimal `json:"commission"`
	Formatted  string          `json:"formatted"`
}

func (h *Handler) commission(w http.ResponseWriter, r *http.Request) {
	plan, err := pricing.ParsePlan(chi.URLParam(r, "plan"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rate, err := decimal.NewFromString(r.URL.Query().Get("rate"))
	if err != nil {
		httpx.RespondError(w, tax.Invalid("commission_rate", tax.ErrRequired, r.URL.Query().Get("rate")))
		return
	}
	amount, err := pricing.Commission(plan, rate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	price, err := pricing.Price(plan)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, commissionResponse{
		Plan:       plan,
		Price:      price,
		Rate:       rate,
		Commission: amount,
		Formatted:  money.FormatNaira(amount),
	})
}

func (h *Handler) tables(ctx context.Context, raw int) (tax.RateTables, error) {
	year, err := tax.ParseTaxYear(raw)
	if err != nil {
		return tax.RateTables{}, err
	}
	return h.rates.Load(ctx, year)
}

func (h *Handler) fail(w http.ResponseWriter, operation string, err error) {
	h.observe(operation, err)
	if tax.IsConfiguration(err) {
		h.logger.Error("rate table misconfigured", slog.String("operation", operation), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) observe(operation string, err error) {
	outcome := observability.OutcomeOK
	switch {
	case err == nil:
	case tax.IsValidation(err):
		outcome = observability.OutcomeValidation
	case tax.IsConfiguration(err):
		outcome = observability.OutcomeConfiguration
	default:
		outcome = observability.OutcomeError
	}
	h.metrics.ObserveComputation(operation, outcome)
}

func yearParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "year")
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, tax.Invalid("tax_year", tax.ErrUnsupportedTaxYear, raw)
	}
	return year, nil
}
