package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/money"
	"github.com/ngtax/ngtax/internal/tax"
)

// PreviewOptions defines the flags for the preview command.
type PreviewOptions struct {
	RatesOptions
	Subtotal        string
	VATExempt       bool
	ServiceCategory string
	PayerClass      string
}

// PreviewCommand prints the VAT-then-WHT breakdown of an invoice.
func (c *RatesCLI) PreviewCommand(ctx context.Context, opts PreviewOptions) int {
	opts.defaults()
	year, err := tax.ParseTaxYear(opts.Year)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "preview: %v\n", err)
		return exitInvalid
	}
	subtotal, err := decimal.NewFromString(strings.TrimSpace(opts.Subtotal))
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "preview: invalid --subtotal %q\n", opts.Subtotal)
		return exitInvalid
	}
	input := tax.PreviewInput{Subtotal: subtotal, VATExempt: opts.VATExempt}
	if opts.ServiceCategory != "" {
		if input.ServiceCategory, err = tax.ParseServiceCategory(opts.ServiceCategory); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "preview: %v\n", err)
			return exitInvalid
		}
		if input.PayerClass, err = tax.ParseTaxpayerClass(opts.PayerClass); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "preview: %v\n", err)
			return exitInvalid
		}
	}
	tables, err := c.rates.Load(ctx, year)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "preview: %v\n", err)
		return exitCode(err)
	}
	preview, err := tax.ComputePreview(input, tables)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "preview: %v\n", err)
		return exitCode(err)
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(preview); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "preview: encode json: %v\n", err)
			return exitFailure
		}
		return exitOK
	}
	renderPreviewHuman(opts.Stdout, preview)
	return exitOK
}

func renderPreviewHuman(out io.Writer, p tax.Preview) {
	_, _ = fmt.Fprintf(out, "Subtotal:     %s\n", money.FormatNaira(p.Subtotal))
	_, _ = fmt.Fprintf(out, "VAT:          %s\n", money.FormatNaira(p.VAT.OutputVAT))
	_, _ = fmt.Fprintf(out, "Gross:        %s\n", money.FormatNaira(p.GrossAmount))
	if p.WHT != nil {
		suffix := ""
		if p.WHT.DefaultRate {
			suffix = ", default rate"
		}
		_, _ = fmt.Fprintf(out, "WHT (%s%%%s): %s\n", p.WHT.Rate, suffix, money.FormatNaira(p.WHT.WHTAmount))
	}
	_, _ = fmt.Fprintf(out, "Net payable:  %s\n", money.FormatNaira(p.NetPayable))
}
