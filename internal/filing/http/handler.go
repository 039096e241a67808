// Package filinghttp serves taxpayer entities, transactions, period summaries,
// filings and filing documents.
package filinghttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/filing"
	"github.com/ngtax/ngtax/internal/platform/httpx"
	"github.com/ngtax/ngtax/internal/tax"
	taxhttp "github.com/ngtax/ngtax/internal/tax/http"
	"github.com/ngtax/ngtax/jobs"
)

var errMalformedID = errors.New("malformed identifier")

// DocumentQueue enqueues filing document renders.
type DocumentQueue interface {
	EnqueueFilingDocument(ctx context.Context, payload jobs.FilingDocumentPayload) (*asynq.TaskInfo, error)
}

// Config wires the handler.
type Config struct {
	Logger   *slog.Logger
	Service  *filing.Service
	Renderer *filing.DocumentRenderer
	Queue    DocumentQueue
	// LegacyYears maps pre-2026 document requests onto 2026 instead of rejecting them.
	LegacyYears bool
}

// Handler serves the filing API.
type Handler struct {
	logger      *slog.Logger
	service     *filing.Service
	renderer    *filing.DocumentRenderer
	queue       DocumentQueue
	legacyYears bool
	now         func() time.Time
}

// NewHandler constructs the handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		service:     cfg.Service,
		renderer:    cfg.Renderer,
		queue:       cfg.Queue,
		legacyYears: cfg.LegacyYears,
		now:         time.Now,
	}
}

// MountRoutes registers routes. extra mounts further per-entity routes under
// /api/entities/{entityID}.
func (h *Handler) MountRoutes(r chi.Router, extra ...func(chi.Router)) {
	r.Route("/api/entities", func(r chi.Router) {
		r.Get("/", h.listEntities)
		r.Post("/", h.registerEntity)
		r.Route("/{entityID}", func(r chi.Router) {
			r.Get("/", h.showEntity)
			r.Post("/transactions", h.recordTransaction)
			r.Put("/transactions/{transactionID}", h.amendTransaction)
			r.Get("/summaries", h.summary)
			r.Get("/filings", h.listFilings)
			r.Post("/filings", h.recordFiling)
			r.Post("/documents", h.requestDocument)
			r.Get("/documents/{document}", h.previewDocument)
			for _, mount := range extra {
				mount(r)
			}
		})
	})
}

type entityRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	TaxpayerClass string `json:"taxpayer_class" validate:"required"`
	TIN           string `json:"tin" validate:"omitempty,max=32"`
	VATRegistered bool   `json:"vat_registered"`
}

func (h *Handler) listEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := h.service.Entities(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if entities == nil {
		entities = []filing.Entity{}
	}
	httpx.JSON(w, http.StatusOK, entities)
}

func (h *Handler) registerEntity(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if err := taxhttp.Bind(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entity, err := h.service.RegisterEntity(r.Context(), filing.Entity{
		Name:          req.Name,
		TaxpayerClass: tax.TaxpayerClass(req.TaxpayerClass),
		TIN:           req.TIN,
		VATRegistered: req.VATRegistered,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entity)
}

func (h *Handler) showEntity(w http.ResponseWriter, r *http.Request) {
	entityID, err := uuidParam(r, "entityID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entity, err := h.service.Entity(r.Context(), entityID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entity)
}

type transactionRequest struct {
	Kind            string           `json:"kind" validate:"required"`
	Amount          *decimal.Decimal `json:"amount" validate:"required"`
	TransactionDate string           `json:"transaction_date" validate:"required,datetime=2006-01-02"`
	ServiceCategory string           `json:"service_category"`
	VATExempt       bool             `json:"vat_exempt"`
	TaxYear         int              `json:"tax_year"`
	TaxpayerClass   string           `json:"taxpayer_class"`
}

type transactionResponse struct {
	Transaction tax.Transaction       `json:"transaction"`
	Result      tax.TransactionResult `json:"result"`
}

func (req transactionRequest) transaction(entityID uuid.UUID) (tax.Transaction, error) {
	kind, err := tax.ParseTransactionKind(req.Kind)
	if err != nil {
		return tax.Transaction{}, err
	}
	date, err := time.Parse(time.DateOnly, req.TransactionDate)
	if err != nil {
		return tax.Transaction{}, tax.Invalid("transaction_date", tax.ErrRequired, req.TransactionDate)
	}
	tx := tax.Transaction{
		EntityID:  entityID,
		Kind:      kind,
		Amount:    *req.Amount,
		Date:      date,
		VATExempt: req.VATExempt,
		TaxYear:   tax.TaxYear(req.TaxYear),
	}
	if req.ServiceCategory != "" {
		if tx.ServiceCategory, err = tax.ParseServiceCategory(req.ServiceCategory); err != nil {
			return tax.Transaction{}, err
		}
	}
	if req.TaxpayerClass != "" {
		if tx.TaxpayerClass, err = tax.ParseTaxpayerClass(req.TaxpayerClass); err != nil {
			return tax.Transaction{}, err
		}
	}
	return tx, nil
}

func (h *Handler) recordTransaction(w http.ResponseWriter, r *http.Request) {
	entityID, err := uuidParam(r, "entityID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req transactionRequest
	if err := taxhttp.Bind(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	tx, err := req.transaction(entityID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tx, result, err := h.service.Record(r.Context(), tx)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, transactionResponse{Transaction: tx, Result: result})
}

func (h *Handler) amendTransaction(w http.ResponseWriter, r *http.Request) {
	entityID, err := uuidParam(r, "entityID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	transactionID, err := uuidParam(r, "transactionID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req transactionRequest
	if err := taxhttp.Bind(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	tx, err := req.transaction(entityID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tx.ID = transactionID
	tx, result, err := h.service.Amend(r.Context(), tx)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, transactionResponse{Transaction: tx, Result: result})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	entityID, err := uuidParam(r, "entityID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	year, month, err := PeriodQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.Summarise(r.Context(), entityID, year, month)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) listFilings(w http.ResponseWriter, r *http.Request) {
	entityID, err := uuidParam(r, "entityID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	year, month, err := PeriodQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	period, err := filing.NewPeriod(year, month)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.service.Entity(r.Context(), entityID); err != nil {
		h.respondError(w, r, err)
		return
	}
	filings, err := h.service.Filings(r.Context(), entityID, period)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if filings == nil {
		filings = []filing.Filing{}
	}
	httpx.JSON(w, http.StatusOK, filings)
}

type filingRequest struct {
	TaxType string           `json:"tax_type" validate:"required,oneof=vat wht paye pit cit"`
	TaxYear int              `json:"tax_year" validate:"required"`
	Month   *int             `json:"month" validate:"omitempty,min=1,max=12"`
	Amount  *decimal.Decimal `json:"amount" validate:"required"`
	FiledAt *time.Time       `json:"filed_at"`
}

func (h *Handler) recordFiling(w http.ResponseWriter, r *http.Request) {
	entityID, err := uuidParam(r, "entityID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req filingRequest
	if err := taxhttp.Bind(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	year, err := tax.ParseTaxYear(req.TaxYear)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	f := filing.Filing{
		EntityID: entityID,
		TaxType:  filing.TaxType(req.TaxType),
		TaxYear:  year,
		Month:    req.Month,
		Amount:   *req.Amount,
	}
	if req.FiledAt != nil {
		f.FiledAt = req.FiledAt.UTC()
	}
	f, err = h.service.RecordFiling(r.Context(), f)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, f)
}

type documentRequest struct {
	Document string `json:"document" validate:"required"`
	TaxYear  int    `json:"tax_year" validate:"required"`
	Month    *int   `json:"month"`
}

type documentResponse struct {
	TaskID   string      `json:"task_id"`
	Queue    string      `json:"queue"`
	Document string      `json:"document"`
	TaxYear  tax.TaxYear `json:"tax_year"`
	FileName string      `json:"file_name"`
}

func (h *Handler) requestDocument(w http.ResponseWriter, r *http.Request) {
	entityID, err := uuidParam(r, "entityID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req documentRequest
	if err := taxhttp.Bind(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	kind, err := filing.ParseDocumentKind(req.Document)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	year, err := h.documentYear(req.TaxYear)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	// Building up front surfaces class and period errors before anything is queued.
	doc, err := h.service.BuildDocument(r.Context(), entityID, kind, int(year), req.Month)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if h.queue == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "document queue not configured")
		return
	}
	info, err := h.queue.EnqueueFilingDocument(r.Context(), jobs.FilingDocumentPayload{
		EntityID:    entityID.String(),
		Document:    string(kind),
		TaxYear:     int(year),
		Month:       req.Month,
		RequestedAt: h.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Error("enqueue filing document", slog.String("entity_id", entityID.String()), slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "document queue unavailable")
		return
	}
	httpx.JSON(w, http.StatusAccepted, documentResponse{
		TaskID:   info.ID,
		Queue:    info.Queue,
		Document: string(kind),
		TaxYear:  year,
		FileName: doc.FileName(),
	})
}

func (h *Handler) previewDocument(w http.ResponseWriter, r *http.Request) {
	entityID, err := uuidParam(r, "entityID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	kind, err := filing.ParseDocumentKind(chi.URLParam(r, "document"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	year, month, err := PeriodQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	doc, err := h.service.BuildDocument(r.Context(), entityID, kind, year, month)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if h.renderer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "document renderer not configured")
		return
	}
	html, err := h.renderer.RenderHTML(doc)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (h *Handler) documentYear(raw int) (tax.TaxYear, error) {
	if h.legacyYears {
		return tax.CoerceLegacyYear(raw, h.logger)
	}
	return tax.ParseTaxYear(raw)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if !tax.IsValidation(err) && !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrDuplicate) {
		h.logger.Error("filing request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

// PeriodQuery reads the year and optional month query parameters.
func PeriodQuery(r *http.Request) (int, *int, error) {
	query := r.URL.Query()
	rawYear := query.Get("year")
	if rawYear == "" {
		return 0, nil, tax.Invalid("year", tax.ErrRequired, "")
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil {
		return 0, nil, tax.Invalid("year", tax.ErrUnsupportedTaxYear, rawYear)
	}
	rawMonth := query.Get("month")
	if rawMonth == "" {
		return year, nil, nil
	}
	month, err := strconv.Atoi(rawMonth)
	if err != nil {
		return 0, nil, tax.Invalid("month", tax.ErrInvalidMonth, rawMonth)
	}
	return year, &month, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		field := "entity_id"
		if name == "transactionID" {
			field = "transaction_id"
		}
		return uuid.Nil, tax.Invalid(field, errMalformedID, raw)
	}
	return id, nil
}
