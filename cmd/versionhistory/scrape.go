package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"versionhistory/internal/config"
	"versionhistory/internal/history"
	"versionhistory/internal/ledger"
	"versionhistory/internal/products"
	"versionhistory/internal/reconcile"
	"versionhistory/internal/scrapers"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var scrapeFlags config.Flags

func init() {
	flags := scrapeCmd.Flags()
	flags.StringVar(&scrapeFlags.Mode, "mode", "", "previous merges into the previous ledger, standalone builds a new one (default depends on the product)")
	flags.StringVar(&scrapeFlags.PreviousFile, "previous-file", "", "Previous ledger (default ../<product>.csv)")
	flags.StringVar(&scrapeFlags.OutputFile, "output-file", "", "Output ledger (default ./<product>.csv)")
	flags.StringVar(&scrapeFlags.PriorPrecedence, "prior-precedence", "", "Which copy of a version wins between the previous ledger and the scrape: first (previous) or last (scrape)")
	flags.StringVar(&scrapeFlags.OnSourceError, "on-source-error", "", "abort stops at the first failing source, continue writes what the other sources found")
	flags.IntVar(&scrapeFlags.Concurrency, "concurrency", 0, "Number of sources fetched at once")
	flags.StringVar(&scrapeFlags.HistoryDb, "history-db", "", "sqlite database recording every run")

	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <product>",
	Short: "Scrapes the release history of a product and writes its ledger.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer shutdown()

		product, err := products.Get(args[0])
		if err != nil {
			return err
		}
		run, err := config.NewRun(cfg, product, scrapeFlags)
		if err != nil {
			return err
		}
		return scrape(cmd.Context(), run)
	},
}

// scrape validates and loads everything local before the first request.
func scrape(ctx context.Context, run config.Run) error {
	err := run.Validate()
	if err != nil {
		return err
	}
	prior, err := run.LoadPrior()
	if err != nil {
		return err
	}
	opts := run.Options(prior)
	err = opts.Validate()
	if err != nil {
		return err
	}

	clientOpts, err := cfg.ClientOptions()
	if err != nil {
		return err
	}

	var store *history.Store
	if run.HistoryDb != "" {
		opened, err := history.Open(ctx, run.HistoryDb)
		if err != nil {
			return fmt.Errorf("%w: history db: %w", config.ErrConfiguration, err)
		}
		defer opened.Close()
		store = &opened
	}

	slog.Info("scraping",
		"product", run.Product.Name,
		"mode", run.Mode,
		"output", run.OutputFile,
	)

	client := scrapers.NewClient(tel, clientOpts)
	engine := reconcile.NewEngine(tel)

	started := clock.Now()
	result, runErr := engine.Run(ctx, run.Product.Sources(client), opts)
	if runErr == nil {
		runErr = ledger.Save(run.OutputFile, result.Ledger)
	}
	finished := clock.Now()

	if store != nil {
		_, err := store.Record(context.WithoutCancel(ctx), history.NewRun(
			run.Product.Name, run.Mode, run.OutputFile,
			started, finished, result, runErr,
		))
		if err != nil {
			slog.Warn("failed to record run", "err", err)
		}
	}

	printCounts(result)
	if runErr != nil {
		return runErr
	}

	slog.Info("wrote ledger",
		"file", run.OutputFile,
		"rows", result.Ledger.Len(),
		"new", len(result.New),
	)
	for _, version := range result.New {
		slog.Debug("new version", "version", version)
	}
	if len(result.Failures) > 0 {
		return fmt.Errorf("ledger written without %d failed source(s): %w", len(result.Failures), result.Err())
	}
	return nil
}

func printCounts(result reconcile.Result) {
	if len(result.Counts) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Source", "Fetched", "Admitted", "Status"})
	for _, count := range result.Counts {
		status := "ok"
		if count.Failed {
			status = "failed"
		}
		t.AppendRow(table.Row{count.Source, count.Fetched, count.Admitted, status})
	}
	t.AppendFooter(table.Row{"", "", result.Ledger.Len(), fmt.Sprintf("%d new", len(result.New))})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
