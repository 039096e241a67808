package filing

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/money"
	"github.com/ngtax/ngtax/internal/tax"
	"github.com/ngtax/ngtax/web"
)

// DocumentKind names a renderable filing document.
type DocumentKind string

const (
	DocumentSummary DocumentKind = "summary"
	DocumentPIT     DocumentKind = "pit"
	DocumentCIT     DocumentKind = "cit"
)

// ParseDocumentKind validates a document kind.
func ParseDocumentKind(raw string) (DocumentKind, error) {
	switch kind := DocumentKind(raw); kind {
	case DocumentSummary, DocumentPIT, DocumentCIT:
		return kind, nil
	}
	return "", tax.Invalid("document", tax.ErrRequired, "one of summary, pit, cit")
}

// Document is the data behind one rendered filing document.
type Document struct {
	Kind        DocumentKind
	Title       string
	Entity      Entity
	Period      Period
	Statute     string
	Summary     PeriodSummary
	PIT         *tax.PITResult
	CIT         *tax.CITResult
	GeneratedAt time.Time
}

// FileName is the stable storage name of the rendered PDF.
func (d Document) FileName() string {
	return fmt.Sprintf("%s-%s.pdf", d.Kind, d.Period)
}

// BuildDocument assembles document data for an entity. PIT applies to
// individuals and sole proprietors, CIT to companies; both are annual.
func (s *Service) BuildDocument(ctx context.Context, entityID uuid.UUID, kind DocumentKind, year int, month *int) (Document, error) {
	entity, err := s.store.GetEntity(ctx, entityID)
	if err != nil {
		return Document{}, err
	}
	if kind != DocumentSummary && month != nil {
		return Document{}, tax.Invalid("month", tax.ErrInvalidMonth, string(kind)+" is an annual return")
	}
	summary, err := s.aggregator.Aggregate(ctx, entityID, year, month)
	if err != nil {
		return Document{}, err
	}
	tables, err := s.rates.Load(ctx, summary.TaxYear)
	if err != nil {
		return Document{}, err
	}
	doc := Document{
		Kind:        kind,
		Entity:      entity,
		Period:      summary.Period(),
		Statute:     tables.Statute,
		Summary:     summary,
		GeneratedAt: s.now(),
	}
	switch kind {
	case DocumentSummary:
		doc.Title = "Period tax summary"
	case DocumentPIT:
		if entity.TaxpayerClass == tax.ClassCompany {
			return Document{}, tax.Invalid("document", tax.ErrUnknownTaxpayerClass, "personal income tax does not apply to companies")
		}
		pit, err := tax.ComputeAnnualPIT(summary.TaxableProfit(), tax.Reliefs{}, tables)
		if err != nil {
			return Document{}, err
		}
		doc.Title = "Personal income tax computation"
		doc.PIT = &pit
	case DocumentCIT:
		if entity.TaxpayerClass != tax.ClassCompany {
			return Document{}, tax.Invalid("document", tax.ErrUnknownTaxpayerClass, "company income tax applies to companies only")
		}
		cit, err := tax.ComputeCIT(summary.TotalTurnover, summary.TaxableProfit(), tables)
		if err != nil {
			return Document{}, err
		}
		doc.Title = "Company income tax computation"
		doc.CIT = &cit
	default:
		return Document{}, tax.Invalid("document", tax.ErrRequired, string(kind))
	}
	return doc, nil
}

// PDFClient exposes the subset of the report client used by the renderer.
type PDFClient interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// DocumentRenderer turns documents into HTML through html/template and into
// PDF through the report client.
type DocumentRenderer struct {
	tpl    *template.Template
	client PDFClient
}

// NewDocumentRenderer parses the embedded document templates.
func NewDocumentRenderer(client PDFClient) (*DocumentRenderer, error) {
	if client == nil {
		return nil, fmt.Errorf("filing renderer: pdf client required")
	}
	funcMap := template.FuncMap{
		"naira": money.FormatNaira,
		"percent": func(v decimal.Decimal) string {
			return v.String() + "%"
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
	}
	tpl, err := template.New("documents").Funcs(funcMap).ParseFS(web.Templates, "templates/documents/*.html")
	if err != nil {
		return nil, err
	}
	return &DocumentRenderer{tpl: tpl, client: client}, nil
}

// RenderHTML executes the template for doc.Kind.
func (r *DocumentRenderer) RenderHTML(doc Document) (string, error) {
	if r == nil || r.tpl == nil {
		return "", fmt.Errorf("filing renderer not initialised")
	}
	buf := &bytes.Buffer{}
	if err := r.tpl.ExecuteTemplate(buf, string(doc.Kind)+".html", doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render produces the PDF bytes for doc.
func (r *DocumentRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	html, err := r.RenderHTML(doc)
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}
