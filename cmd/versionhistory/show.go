package main

import (
	"os"
	"path/filepath"
	"strings"
	"versionhistory/internal/ledger"
	"versionhistory/internal/products"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var showProduct string

func init() {
	showCmd.Flags().StringVar(&showProduct, "product", "", "Product of the ledger (default guessed from the file name)")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <ledger.csv>",
	Short: "Pretty prints a ledger file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := showProduct
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		product, err := products.Get(name)
		if err != nil {
			return err
		}

		l, err := ledger.Load(args[0], product.Schema)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)

		header := table.Row{}
		for _, h := range l.Schema().Headers() {
			header = append(header, h)
		}
		t.AppendHeader(header)

		fields := l.Schema().Fields()
		for _, r := range l.Rows() {
			row := table.Row{r.Version}
			for _, f := range fields {
				row = append(row, r.Get(f))
			}
			t.AppendRow(row)
		}
		t.AppendFooter(table.Row{l.Len()})
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
