package main

import (
	"os"
	"strings"
	"versionhistory/internal/products"
	"versionhistory/internal/scrapers"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(productsCmd)
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Lists the known products, their columns and sources in merge order.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		// sources are only built to read their names
		client := scrapers.NewClient(tel, scrapers.DefaultOptions())

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Product", "File", "Columns", "Sources", "Default mode"})
		for _, p := range products.All() {
			t.AppendRow(table.Row{
				p.Name,
				p.DefaultFile(),
				strings.Join(p.Schema.Headers(), "; "),
				strings.Join(p.SourceNames(client), ", "),
				p.DefaultMode(),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
