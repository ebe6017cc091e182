package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wdm0006/blobetl/pkg/frame"
	"github.com/wdm0006/blobetl/pkg/io/csvio"
	iox "github.com/wdm0006/blobetl/pkg/io/ioutils"
	"github.com/wdm0006/blobetl/pkg/io/jsonlio"
	"github.com/wdm0006/blobetl/pkg/io/parquetio"
	"github.com/wdm0006/blobetl/pkg/profile"
)

type inspectOptions struct {
	out       string
	profile   bool
	asJSON    bool
	topK      int
	delimiter string
	format    string
}

func newInspectCmd(a *app) *cobra.Command {
	var o inspectOptions
	cmd := &cobra.Command{
		Use:   "inspect <key>",
		Short: "Print a written parquet object as CSV or as a column profile",
		Example: `  blobetl inspect formatted/transactions/date=2023-10-02/transactions.parquet
  blobetl inspect formatted/stores/date=2023-10-02/stores.parquet -o stores.csv.gz
  blobetl inspect formatted/stores/date=2023-10-02/stores.parquet --format jsonl
  blobetl inspect formatted/clients/date=2023-10-02/clients.parquet --profile --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			return a.inspect(cmd, args[0], o)
		},
	}
	cmd.Flags().StringVarP(&o.out, "output", "o", "-", "row output destination; .gz compresses, - is stdout")
	cmd.Flags().StringVar(&o.format, "format", "csv", "row output format: csv or jsonl")
	cmd.Flags().StringVar(&o.delimiter, "delimiter", ",", "CSV output delimiter")
	cmd.Flags().BoolVar(&o.profile, "profile", false, "print column statistics instead of rows")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "print the profile as JSON")
	cmd.Flags().IntVar(&o.topK, "top", 5, "most frequent values listed per text column")
	return cmd
}

func (a *app) inspect(cmd *cobra.Command, key string, o inspectOptions) error {
	ctx := cmd.Context()
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	b, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	f, err := parquetio.Decode(b)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	if o.profile {
		p := profile.Of(f, o.topK)
		w := cmd.OutOrStdout()
		if !o.asJSON {
			_, err := fmt.Fprint(w, p.ReportText())
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p.ReportJSON())
	}

	write, err := o.rowWriter()
	if err != nil {
		return err
	}
	if o.out == "-" {
		return write(cmd.OutOrStdout(), f)
	}
	out, err := iox.CreateMaybeCompressed(o.out)
	if err != nil {
		return err
	}
	if err := write(out, f); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (o inspectOptions) rowWriter() (func(io.Writer, *frame.Frame) error, error) {
	switch o.format {
	case "jsonl":
		return jsonlio.Write, nil
	case "csv":
		d := []rune(o.delimiter)
		if len(d) != 1 {
			return nil, fmt.Errorf("delimiter must be a single character, got %q", o.delimiter)
		}
		return func(w io.Writer, f *frame.Frame) error {
			return csvio.Write(w, f, csvio.WriterOptions{Delimiter: d[0]})
		}, nil
	}
	return nil, fmt.Errorf("unsupported format %q", o.format)
}
