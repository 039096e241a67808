package filinghttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ngtax/ngtax/internal/filing"
	"github.com/ngtax/ngtax/internal/tax"
	"github.com/ngtax/ngtax/jobs"
)

type fakeQueue struct {
	payloads []jobs.FilingDocumentPayload
	err      error
}

func (q *fakeQueue) EnqueueFilingDocument(_ context.Context, payload jobs.FilingDocumentPayload) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.payloads = append(q.payloads, payload)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(q.payloads)), Queue: jobs.QueueDocuments}, nil
}

type nopPDF struct{}

func (nopPDF) RenderHTML(context.Context, string) ([]byte, error) {
	return []byte("%PDF"), nil
}

type env struct {
	router http.Handler
	store  *filing.MemoryStore
	queue  *fakeQueue
	entity filing.Entity
}

func newEnv(t *testing.T, class tax.TaxpayerClass, legacy bool) env {
	t.Helper()
	store := filing.NewMemoryStore()
	entity := filing.Entity{ID: uuid.New(), Name: "Chinwe Logistics", TaxpayerClass: class, TIN: "22334455-0001"}
	store.PutEntity(entity)
	service := filing.NewService(store, tax.NewRegistry(nil, nil, nil), nil)
	renderer, err := filing.NewDocumentRenderer(nopPDF{})
	require.NoError(t, err)
	queue := &fakeQueue{}
	h := NewHandler(Config{Service: service, Renderer: renderer, Queue: queue, LegacyYears: legacy})
	r := chi.NewRouter()
	h.MountRoutes(r)
	return env{router: r, store: store, queue: queue, entity: entity}
}

func (e env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e env) path(suffix string) string {
	return "/api/entities/" + e.entity.ID.String() + suffix
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestRecordTransactionAndSummarise(t *testing.T) {
	e := newEnv(t, tax.ClassCompany, false)

	rr := e.do(t, http.MethodPost, e.path("/transactions"),
		`{"kind":"invoice","amount":"200000","transaction_date":"2026-03-14","service_category":"professional_services"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var recorded transactionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recorded))
	require.Equal(t, tax.TaxYear(2026), recorded.Transaction.TaxYear)
	require.Equal(t, tax.ClassCompany, recorded.Transaction.TaxpayerClass)
	requireDecimal(t, "15000", recorded.Result.OutputVAT)
	require.NotNil(t, recorded.Result.WHT)
	requireDecimal(t, "20000", recorded.Result.WHT.WHTAmount)

	rr = e.do(t, http.MethodPost, e.path("/transactions"),
		`{"kind":"expense","amount":"40000","transaction_date":"2026-03-20"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = e.do(t, http.MethodGet, e.path("/summaries?year=2026&month=3"), "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var summary filing.PeriodSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	require.Equal(t, 2, summary.TransactionCount)
	requireDecimal(t, "15000", summary.TotalOutputVAT)
	requireDecimal(t, "3000", summary.TotalInputVAT)
	requireDecimal(t, "12000", summary.NetVAT)
	require.Equal(t, tax.VATPayable, summary.VATStatus)

	rr = e.do(t, http.MethodGet, e.path("/summaries?year=2026&month=4"), "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	require.Zero(t, summary.TransactionCount)
}

func TestRecordTransactionRejectsBadInput(t *testing.T) {
	e := newEnv(t, tax.ClassCompany, false)
	cases := []struct {
		name   string
		path   string
		body   string
		status int
		detail string
	}{
		{"unknown kind", e.path("/transactions"), `{"kind":"refund","amount":"1","transaction_date":"2026-01-02"}`, http.StatusBadRequest, "unknown transaction kind"},
		{"bad date", e.path("/transactions"), `{"kind":"invoice","amount":"1","transaction_date":"02/01/2026"}`, http.StatusBadRequest, "transaction_date"},
		{"missing amount", e.path("/transactions"), `{"kind":"invoice","transaction_date":"2026-01-02"}`, http.StatusBadRequest, "amount"},
		{"negative amount", e.path("/transactions"), `{"kind":"invoice","amount":"-5","transaction_date":"2026-01-02"}`, http.StatusBadRequest, "amount"},
		{"sub-kobo amount", e.path("/transactions"), `{"kind":"invoice","amount":"100.005","transaction_date":"2026-01-02"}`, http.StatusBadRequest, "two decimal places"},
		{"legacy year", e.path("/transactions"), `{"kind":"invoice","amount":"5","transaction_date":"2025-12-31"}`, http.StatusBadRequest, "unsupported tax year"},
		{"year mismatch", e.path("/transactions"), `{"kind":"invoice","amount":"5","transaction_date":"2027-01-02","tax_year":2026}`, http.StatusBadRequest, "outside tax year 2026"},
		{"bad entity id", "/api/entities/nope/transactions", `{"kind":"invoice","amount":"5","transaction_date":"2026-01-02"}`, http.StatusBadRequest, "entity_id"},
		{"unknown entity", "/api/entities/" + uuid.NewString() + "/transactions", `{"kind":"invoice","amount":"5","transaction_date":"2026-01-02"}`, http.StatusNotFound, "entity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := e.do(t, http.MethodPost, tc.path, tc.body)
			require.Equal(t, tc.status, rr.Code, rr.Body.String())
			require.Contains(t, rr.Body.String(), tc.detail)
		})
	}
}

func TestAmendTransaction(t *testing.T) {
	e := newEnv(t, tax.ClassCompany, false)
	rr := e.do(t, http.MethodPost, e.path("/transactions"), `{"kind":"invoice","amount":"100000","transaction_date":"2026-02-01"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var recorded transactionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recorded))

	rr = e.do(t, http.MethodPut, e.path("/transactions/"+recorded.Transaction.ID.String()),
		`{"kind":"invoice","amount":"300000","transaction_date":"2026-02-01"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var amended transactionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &amended))
	require.NotNil(t, amended.Transaction.AmendedAt)
	requireDecimal(t, "22500", amended.Result.OutputVAT)

	result, ok := e.store.Result(recorded.Transaction.ID)
	require.True(t, ok)
	requireDecimal(t, "22500", result.OutputVAT)

	rr = e.do(t, http.MethodPut, e.path("/transactions/"+uuid.NewString()),
		`{"kind":"invoice","amount":"1","transaction_date":"2026-02-01"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSummaryQueryValidation(t *testing.T) {
	e := newEnv(t, tax.ClassIndividual, false)

	require.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, e.path("/summaries"), "").Code)
	require.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, e.path("/summaries?year=2025"), "").Code)
	require.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, e.path("/summaries?year=2026&month=13"), "").Code)
	require.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, e.path("/summaries?year=2026&month=x"), "").Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, e.path("/summaries?year=2026"), "").Code)
}

func TestEntities(t *testing.T) {
	e := newEnv(t, tax.ClassCompany, false)

	rr := e.do(t, http.MethodPost, "/api/entities", `{"name":"Bello Farms","taxpayer_class":"sole_proprietor","tin":"99887766-0001"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created filing.Entity
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, tax.ClassSoleProprietor, created.TaxpayerClass)

	rr = e.do(t, http.MethodGet, "/api/entities/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/entities", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var all []filing.Entity
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	require.Len(t, all, 2)

	rr = e.do(t, http.MethodPost, "/api/entities", `{"taxpayer_class":"company"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "name")
}

func TestFilings(t *testing.T) {
	e := newEnv(t, tax.ClassCompany, false)

	rr := e.do(t, http.MethodPost, e.path("/filings"), `{"tax_type":"vat","tax_year":2026,"month":3,"amount":"12000","filed_at":"2026-04-25T10:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var f filing.Filing
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &f))
	require.True(t, f.Late())

	rr = e.do(t, http.MethodPost, e.path("/filings"), `{"tax_type":"stamp","tax_year":2026,"amount":"1"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "tax_type")

	rr = e.do(t, http.MethodGet, e.path("/filings?year=2026&month=3"), "")
	require.Equal(t, http.StatusOK, rr.Code)
	var filings []filing.Filing
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &filings))
	require.Len(t, filings, 1)

	rr = e.do(t, http.MethodGet, "/api/entities/"+uuid.NewString()+"/filings?year=2026", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRequestDocument(t *testing.T) {
	e := newEnv(t, tax.ClassCompany, false)

	rr := e.do(t, http.MethodPost, e.path("/documents"), `{"document":"cit","tax_year":2026}`)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	var resp documentResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "task-1", resp.TaskID)
	require.Equal(t, "cit-2026.pdf", resp.FileName)
	require.Len(t, e.queue.payloads, 1)
	require.Equal(t, e.entity.ID.String(), e.queue.payloads[0].EntityID)

	rr = e.do(t, http.MethodPost, e.path("/documents"), `{"document":"pit","tax_year":2026}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, http.MethodPost, e.path("/documents"), `{"document":"summary","tax_year":2024}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Len(t, e.queue.payloads, 1)

	e.queue.err = errors.New("redis down")
	rr = e.do(t, http.MethodPost, e.path("/documents"), `{"document":"summary","tax_year":2026,"month":1}`)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRequestDocumentLegacyCoercion(t *testing.T) {
	e := newEnv(t, tax.ClassCompany, true)

	rr := e.do(t, http.MethodPost, e.path("/documents"), `{"document":"summary","tax_year":2024,"month":6}`)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	require.Len(t, e.queue.payloads, 1)
	require.Equal(t, 2026, e.queue.payloads[0].TaxYear)
	require.Equal(t, 6, *e.queue.payloads[0].Month)
}

func TestPreviewDocumentHTML(t *testing.T) {
	e := newEnv(t, tax.ClassCompany, false)
	rr := e.do(t, http.MethodPost, e.path("/transactions"), `{"kind":"invoice","amount":"800000","transaction_date":"2026-05-05"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = e.do(t, http.MethodGet, e.path("/documents/summary?year=2026&month=5"), "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rr.Body.String(), "Chinwe Logistics")

	rr = e.do(t, http.MethodGet, e.path("/documents/ledger?year=2026"), "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
