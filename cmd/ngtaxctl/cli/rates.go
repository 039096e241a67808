package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/money"
	"github.com/ngtax/ngtax/internal/tax"
)

const (
	exitOK = iota
	exitInvalid
	exitFailure
)

// RateSource loads and reloads statutory rate tables.
type RateSource interface {
	Load(ctx context.Context, year tax.TaxYear) (tax.RateTables, error)
	Reload(ctx context.Context, year tax.TaxYear) (tax.RateTables, error)
}

// RatesCLI offers operational helpers around the rate registry.
type RatesCLI struct {
	rates RateSource
	now   func() time.Time
}

// NewRatesCLI constructs the helper.
func NewRatesCLI(rates RateSource) (*RatesCLI, error) {
	if rates == nil {
		return nil, errors.New("rates cli: source required")
	}
	return &RatesCLI{rates: rates, now: time.Now}, nil
}

// RatesOptions defines the flags shared by rates commands.
type RatesOptions struct {
	Year       int
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

func (o *RatesOptions) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// ShowCommand prints the rate table for a year.
func (c *RatesCLI) ShowCommand(ctx context.Context, opts RatesOptions) int {
	opts.defaults()
	year, err := tax.ParseTaxYear(opts.Year)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "rates show: %v\n", err)
		return exitInvalid
	}
	tables, err := c.rates.Load(ctx, year)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "rates show: %v\n", err)
		return exitCode(err)
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(tables); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "rates show: encode json: %v\n", err)
			return exitFailure
		}
		return exitOK
	}
	renderRatesHuman(opts.Stdout, tables)
	return exitOK
}

// RatesReloadSummary is the JSON outcome of a reload.
type RatesReloadSummary struct {
	TaxYear    tax.TaxYear `json:"tax_year"`
	Statute    string      `json:"statute"`
	ReloadedAt time.Time   `json:"reloaded_at"`
}

// ReloadCommand refetches a year's table and announces it to other processes.
func (c *RatesCLI) ReloadCommand(ctx context.Context, opts RatesOptions) int {
	opts.defaults()
	year, err := tax.ParseTaxYear(opts.Year)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "rates reload: %v\n", err)
		return exitInvalid
	}
	tables, err := c.rates.Reload(ctx, year)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "rates reload: %v\n", err)
		return exitCode(err)
	}
	summary := RatesReloadSummary{TaxYear: year, Statute: tables.Statute, ReloadedAt: c.now().UTC()}
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "rates reload: encode json: %v\n", err)
			return exitFailure
		}
		return exitOK
	}
	_, _ = fmt.Fprintf(opts.Stdout, "Reloaded %s rates (%s) at %s\n", year, tables.Statute, summary.ReloadedAt.Format(time.RFC3339))
	return exitOK
}

func exitCode(err error) int {
	if tax.IsValidation(err) {
		return exitInvalid
	}
	return exitFailure
}

func renderRatesHuman(out io.Writer, tables tax.RateTables) {
	_, _ = fmt.Fprintf(out, "Tax year %s (%s)\n", tables.TaxYear, tables.Statute)
	_, _ = fmt.Fprintf(out, "VAT: %s%% above %s\n", tables.VATRate, money.FormatNaira(tables.VATRegistrationThreshold))
	_, _ = fmt.Fprintln(out, "PIT bands:")
	lower := decimal.Zero
	for _, bracket := range tables.PITBrackets {
		if bracket.Unbounded() {
			_, _ = fmt.Fprintf(out, " - above %s at %s%%\n", money.FormatNaira(lower), bracket.Rate)
			continue
		}
		_, _ = fmt.Fprintf(out, " - %s to %s at %s%%\n", money.FormatNaira(lower), money.FormatNaira(bracket.UpperBound.Decimal), bracket.Rate)
		lower = bracket.UpperBound.Decimal
	}
	_, _ = fmt.Fprintf(out, "CIT: %s%% up to %s turnover, %s%% above\n",
		tables.CITRates.Small, money.FormatNaira(tables.CITSmallCompanyTurnoverCeiling), tables.CITRates.Large)
	_, _ = fmt.Fprintf(out, "Rent relief: %s%% capped at %s\n", tables.RentRelief.Rate, money.FormatNaira(tables.RentRelief.Cap))

	categories := make([]string, 0, len(tables.WHT.Rates))
	for category := range tables.WHT.Rates {
		categories = append(categories, string(category))
	}
	sort.Strings(categories)
	_, _ = fmt.Fprintln(out, "WHT rates (individual / sole_proprietor / company):")
	for _, name := range categories {
		row := tables.WHT.Rates[tax.ServiceCategory(name)]
		_, _ = fmt.Fprintf(out, " - %s: %s\n", name, whtCells(row, tables.WHT.Default))
	}
	_, _ = fmt.Fprintf(out, " - default: %s\n", whtCells(nil, tables.WHT.Default))
}

func whtCells(row, fallback map[tax.TaxpayerClass]decimal.Decimal) string {
	cells := ""
	for i, class := range tax.TaxpayerClasses {
		rate, ok := row[class]
		if !ok {
			rate = fallback[class]
		}
		if i > 0 {
			cells += " / "
		}
		cells += rate.String() + "%"
	}
	return cells
}
