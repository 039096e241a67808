// Command ngtaxctl is the operator CLI for rate tables, invoice previews and
// background jobs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ngtax/ngtax/cmd/ngtaxctl/cli"
	"github.com/ngtax/ngtax/internal/app"
	"github.com/ngtax/ngtax/internal/platform/cache"
	"github.com/ngtax/ngtax/internal/tax"
	"github.com/ngtax/ngtax/jobs"
)

const usage = `usage: ngtaxctl <command> [flags]

commands:
  rates show     -year 2026 [-json]
  rates reload   -year 2026 [-json]
  preview        -year 2026 -subtotal 200000 [-exempt] [-category c -payer p] [-json]
  jobs trigger   [-year Y -month M]
  jobs stats     [-json]
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return 1
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	// Logs go to stderr so -json output stays machine readable.
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	switch {
	case args[0] == "rates" && len(args) > 1:
		return runRates(ctx, cfg, logger, args[1], args[2:], stdout, stderr)
	case args[0] == "preview":
		return runPreview(ctx, logger, args[1:], stdout, stderr)
	case args[0] == "jobs" && len(args) > 1:
		return runJobs(ctx, cfg, args[1], args[2:], stdout, stderr)
	}
	_, _ = fmt.Fprint(stderr, usage)
	return 1
}

func runRates(ctx context.Context, cfg *app.Config, logger *slog.Logger, sub string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rates "+sub, flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := cli.RatesOptions{Stdout: stdout, Stderr: stderr}
	fs.IntVar(&opts.Year, "year", int(tax.MinTaxYear), "tax year")
	fs.BoolVar(&opts.JSONOutput, "json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	var notifier *tax.ReloadNotifier
	if sub == "reload" {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "rates reload: %v\n", err)
			return 2
		}
		defer func() { _ = client.Close() }()
		notifier = tax.NewReloadNotifier(client)
	}
	ratesCLI, err := cli.NewRatesCLI(tax.NewRegistry(tax.StatutorySource{}, notifier, logger))
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	switch sub {
	case "show":
		return ratesCLI.ShowCommand(ctx, opts)
	case "reload":
		return ratesCLI.ReloadCommand(ctx, opts)
	}
	_, _ = fmt.Fprint(stderr, usage)
	return 1
}

func runPreview(ctx context.Context, logger *slog.Logger, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := cli.PreviewOptions{RatesOptions: cli.RatesOptions{Stdout: stdout, Stderr: stderr}}
	fs.IntVar(&opts.Year, "year", int(tax.MinTaxYear), "tax year")
	fs.StringVar(&opts.Subtotal, "subtotal", "", "VAT-exclusive invoice subtotal")
	fs.BoolVar(&opts.VATExempt, "exempt", false, "supply is VAT exempt")
	fs.StringVar(&opts.ServiceCategory, "category", "", "WHT service category")
	fs.StringVar(&opts.PayerClass, "payer", "", "payer taxpayer class")
	fs.BoolVar(&opts.JSONOutput, "json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	ratesCLI, err := cli.NewRatesCLI(tax.NewRegistry(tax.StatutorySource{}, nil, logger))
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	return ratesCLI.PreviewCommand(ctx, opts)
}

func runJobs(ctx context.Context, cfg *app.Config, sub string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jobs "+sub, flag.ContinueOnError)
	fs.SetOutput(stderr)
	year := fs.Int("year", 0, "tax year to scan")
	month := fs.Int("month", 0, "month to scan")
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if sub != "trigger" && sub != "stats" {
		_, _ = fmt.Fprint(stderr, usage)
		return 1
	}

	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() { _ = jobsCLI.Close() }()

	if sub == "trigger" {
		info, err := jobsCLI.Trigger(ctx, jobs.TaskComplianceScan, *year, *month)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "jobs trigger: %v\n", err)
			return 2
		}
		_, _ = fmt.Fprintf(stdout, "enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
		return 0
	}

	stats, err := jobsCLI.InspectQueues(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "jobs stats: %v\n", err)
		return 2
	}
	if *asJSON {
		if err := json.NewEncoder(stdout).Encode(stats); err != nil {
			return 2
		}
		return 0
	}
	for _, s := range stats {
		_, _ = fmt.Fprintf(stdout, "%-10s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
			s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived)
	}
	return 0
}
