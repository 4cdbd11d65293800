package main

import (
	"fmt"
	"os"
	"strings"
	"time"
	"versionhistory/internal/config"
	"versionhistory/internal/history"
	"versionhistory/internal/products"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	historyDb    string
	historyLimit int
)

func init() {
	historyCmd.Flags().StringVar(&historyDb, "history-db", "", "sqlite database the runs were recorded in (default from the config)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", history.DefaultLimit, "Number of runs to print")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history <product>",
	Short: "Prints the most recent recorded runs of a product.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		product, err := products.Get(args[0])
		if err != nil {
			return err
		}
		path := historyDb
		if path == "" {
			path = cfg.HistoryDb
		}
		if path == "" {
			return fmt.Errorf("%w: no history db, set --history-db or history_db in %s", config.ErrConfiguration, config.FileName)
		}

		store, err := history.Open(cmd.Context(), path)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Recent(cmd.Context(), product.Name, historyLimit)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Started", "Took", "Mode", "Output", "Rows", "New", "Sources"})
		for _, run := range runs {
			sources := make([]string, len(run.Sources))
			for i, s := range run.Sources {
				sources[i] = fmt.Sprintf("%s %d/%d", s.Source, s.Admitted, s.Fetched)
				if s.Error != "" {
					sources[i] += " (failed: " + s.Error + ")"
				}
			}
			rows := fmt.Sprint(run.Rows)
			if run.Failed {
				rows = "failed"
			}
			t.AppendRow(table.Row{
				run.StartedAt.Format(time.DateTime),
				run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
				run.Mode,
				run.OutputFile,
				rows,
				len(run.New),
				strings.Join(sources, "\n"),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
