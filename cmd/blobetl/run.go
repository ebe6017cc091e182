package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wdm0006/blobetl/pkg/config"
	"github.com/wdm0006/blobetl/pkg/ingest"
)

// exitClientsUnavailable is the status of a run that stopped after the
// reference tables because clients failed validation.
const exitClientsUnavailable = 3

func newRunCmd(a *app) *cobra.Command {
	var dates []string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process the batch for one or more dates",
		Example: `  blobetl run
  blobetl run --date 2023-10-01 --date 2023-10-02
  blobetl run --backend fs --container ./data --delete-source`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			return a.run(cmd, dates)
		},
	}
	cmd.Flags().StringArrayVar(&dates, "date", nil, "date to process, YYYY-MM-DD (repeatable; default today)")
	cmd.Flags().Bool("delete-source", false, "delete quarantined objects after copying them ["+config.EnvQuarantineDeleteSource+"]")
	_ = cmd.Flags().SetAnnotation("delete-source", envAnnotation, []string{config.EnvQuarantineDeleteSource})
	return cmd
}

func (a *app) run(cmd *cobra.Command, values []string) error {
	dates, err := ingest.ParseDates(values, a.today())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	contracts, err := a.contracts()
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	lock, closeLock, err := a.runLock(ctx, dates)
	if err != nil {
		return err
	}
	defer closeLock()

	m := a.runMetrics()
	runner, err := ingest.NewRunner(ingest.Options{
		Store:        store,
		Contracts:    contracts,
		Layout:       a.layout(),
		Poll:         a.pollPolicy(),
		DeleteSource: a.cfg.Quarantine.DeleteSource,
		Parquet:      a.parquetOptions(),
		Lock:         lock,
		Log:          a.log,
		Metrics:      m,
		RunDate:      a.cfg.App.RunDate,
	})
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx, dates)
	if m != nil {
		a.pushMetrics(context.WithoutCancel(ctx), m)
	}
	if report != nil {
		printReport(cmd.OutOrStdout(), report, err)
	}
	if err != nil {
		if errors.Is(err, ingest.ErrRunLocked) {
			return fmt.Errorf("%w: another run is processing %s for %v", err, a.cfg.Store.Container, []string(dates))
		}
		return err
	}
	if perr := report.Partial(); perr != nil {
		return &exitError{code: exitClientsUnavailable, err: perr}
	}
	return nil
}

func printReport(w io.Writer, r *ingest.Report, runErr error) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)

	title.Fprintf(w, "Run %s (%s)\n", r.RunID, r.RunDate)
	label.Fprint(w, "Dates:        ")
	fmt.Fprintln(w, []string(r.Dates))
	for _, wr := range r.Written {
		label.Fprint(w, "Written:      ")
		fmt.Fprintf(w, "%s (%d rows)\n", wr.Key, wr.Rows)
	}
	for _, q := range r.Quarantined {
		warn.Fprint(w, "Quarantined:  ")
		fmt.Fprintf(w, "%s -> %s (%s)\n", q.Source, q.Destination, q.Reason)
	}
	label.Fprint(w, "Transactions: ")
	fmt.Fprintf(w, "%d rows\n", r.TransactionRows)

	switch {
	case runErr != nil:
		color.New(color.FgRed, color.Bold).Fprintln(w, "Run failed")
	case r.ClientsUnavailable:
		warn.Fprintln(w, "Clients failed validation: transactions were not processed")
	case r.TransactionsSkipped:
		warn.Fprintln(w, "No transactions found for these dates")
	default:
		color.New(color.FgGreen, color.Bold).Fprintf(w, "Completed in %s\n", r.Duration().Round(time.Millisecond))
	}
}
