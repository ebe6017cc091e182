package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wdm0006/blobetl/pkg/contract"
	"github.com/wdm0006/blobetl/pkg/ingest"
	"github.com/wdm0006/blobetl/pkg/transform/enrich"
)

func newCheckCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "check <key>",
		Short: "Validate one CSV object against its contract",
		Example: `  blobetl check clients.csv --kind clients
  blobetl check transactions/2023-10-02.csv --kind transactions`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			return a.check(cmd, args[0], kind)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "table kind: "+strings.Join(contract.Kinds, ", "))
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func (a *app) check(cmd *cobra.Command, key, kind string) error {
	ctx := cmd.Context()
	contracts, err := a.contracts()
	if err != nil {
		return err
	}
	c, err := contracts.For(kind)
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	layout := a.layout()
	f, err := ingest.LoadCSV(ctx, store, key, layout.Delimiter)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %d rows, %d columns\n", key, f.Rows(), f.Cols())
	res := contract.Validate(f, c)
	for _, d := range res.Diagnostics {
		color.New(color.FgRed).Fprintf(w, "  - %s\n", d)
	}
	if !res.OK {
		return &contract.SchemaMismatchError{Diagnostics: res.Diagnostics}
	}
	if kind == contract.Transactions {
		dt := &enrich.Datetime{Date: layout.Columns.Date, Hour: layout.Columns.Hour, Minute: layout.Columns.Minute}
		if err := dt.Check(f); err != nil {
			return err
		}
	}
	color.New(color.FgGreen).Fprintln(w, "OK")
	return nil
}
