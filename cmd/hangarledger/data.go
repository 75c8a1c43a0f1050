package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jask/hangarledger/internal/report"
	"github.com/jask/hangarledger/internal/sample"
	"github.com/jask/hangarledger/internal/service"
)

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <out.zip>",
		Short: "Write a full backup archive including receipts",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			data, err := service.NewBackupService(a.db, a.blobs, a.logger).Generate(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], data, 0o600); err != nil {
				return err
			}
			a.logger.Info("backup written", "path", args[0], "bytes", len(data))
			return nil
		}),
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <in.zip>",
		Short: "Restore a backup archive; records that already exist are kept",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := service.NewBackupService(a.db, a.blobs, a.logger).Restore(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Println(report.Restore(res))
			if !res.Success {
				return fmt.Errorf("restore finished with %d errors", len(res.Errors))
			}
			return nil
		}),
	}
}

func newExportCmd() *cobra.Command {
	var xlsx bool
	cmd := &cobra.Command{
		Use:   "export <out>",
		Short: "Export expenses, one row per line item",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			svc := service.NewExportService(a.db)
			if xlsx {
				err = svc.ExpensesXLSX(cmd.Context(), f)
			} else {
				err = svc.ExpensesCSV(cmd.Context(), f)
			}
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			return err
		}),
	}
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "write an Excel workbook instead of CSV")
	return cmd
}

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template <out.csv>",
		Short: "Write the CSV import template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			err = service.TemplateCSV(f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			return err
		},
	}
}

func newResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all ledger data and receipts",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "This deletes all ledger data and receipts. Type 'reset' to continue: ")
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.TrimSpace(line) != "reset" {
					return errors.New("reset cancelled")
				}
			}
			svc := &service.MaintenanceService{DB: a.db, Blobs: a.blobs, Logger: a.logger}
			return svc.Reset(cmd.Context())
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func newSampleCmd() *cobra.Command {
	var opts sample.Options
	cmd := &cobra.Command{
		Use:   "sample <out.csv>",
		Short: "Write a generated Airplane Manager export for trying out imports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, stats, err := sample.Generate(opts)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d trips, %d expenses, %d line items\n", stats.Trips, stats.Expenses, stats.LineItems)
			return nil
		},
	}
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&opts.Trips, "trips", 4, "number of trips")
	cmd.Flags().IntVar(&opts.ExpensesPerTrip, "expenses-per-trip", 5, "expenses in each trip")
	cmd.Flags().IntVar(&opts.Standalone, "standalone", 2, "expenses without a trip")
	return cmd
}
