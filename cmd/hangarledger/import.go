package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/jask/hangarledger/internal/importer"
	"github.com/jask/hangarledger/internal/report"
	"github.com/jask/hangarledger/internal/service"
)

// loaded is a parsed and reconciled import file.
type loaded struct {
	preview  *importer.Preview
	receipts []importer.ReceiptFile
}

// loadImport reads a CSV or an Airplane Manager ZIP bundle and builds its
// preview against the ledger. Blocking validation errors stop here.
func loadImport(ctx context.Context, a *app, path string, source importer.Source) (*loaded, error) {
	if !source.Valid() {
		return nil, fmt.Errorf("unknown source %q", source)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var receipts []importer.ReceiptFile
	if mimetype.Detect(data).Is("application/zip") {
		b, err := importer.ReadBundle(data)
		if err != nil {
			return nil, err
		}
		data, receipts = b.CSV, b.Receipts
		a.logger.Info("bundle opened", "receipts", len(receipts))
	}

	parsed, err := importer.Parse(source, data)
	if err != nil {
		return nil, err
	}
	fmt.Println(report.Validation(parsed))
	if parsed.Blocking() {
		return nil, fmt.Errorf("%s: %d validation errors", path, len(parsed.Errors))
	}

	svc := service.NewImportService(a.db, a.blobs, a.logger)
	existing, err := svc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	p, err := importer.Transform(source, parsed.Rows, existing)
	if err != nil {
		return nil, err
	}
	p.ReceiptCount = len(receipts)
	return &loaded{preview: p, receipts: receipts}, nil
}

func defaultMappingsPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".mappings.yaml"
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import Airplane Manager exports or template CSVs",
	}
	cmd.AddCommand(newImportPreviewCmd(), newImportRunCmd())
	return cmd
}

func newImportPreviewCmd() *cobra.Command {
	var (
		source   string
		mappings string
	)
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Validate a file, show what it would create and write default mappings",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			l, err := loadImport(cmd.Context(), a, args[0], importer.Source(source))
			if err != nil {
				return err
			}
			fmt.Println(report.Preview(l.preview))

			if mappings == "" {
				mappings = defaultMappingsPath(args[0])
			}
			if err := importer.SaveMappings(mappings, importer.DefaultMappings(l.preview)); err != nil {
				return fmt.Errorf("write mappings: %w", err)
			}
			a.logger.Info("mappings written", "path", mappings)
			return nil
		}),
	}
	cmd.Flags().StringVar(&source, "source", string(importer.SourceAirplaneManager), "source format: airplane_manager or csv_template")
	cmd.Flags().StringVar(&mappings, "mappings", "", "where to write the mapping file (default <file>.mappings.yaml)")
	return cmd
}

func newImportRunCmd() *cobra.Command {
	var (
		source         string
		mappings       string
		skipTrips      []string
		skipDuplicates bool
	)
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Import a file using reviewed mappings",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			l, err := loadImport(ctx, a, args[0], importer.Source(source))
			if err != nil {
				return err
			}

			m := importer.DefaultMappings(l.preview)
			if mappings != "" {
				if m, err = importer.LoadMappings(mappings); err != nil {
					return err
				}
			}

			req := service.NewImportRequest(l.preview, m)
			req.Filename = filepath.Base(args[0])
			req.Receipts = l.receipts
			req.SkipDuplicateTripNames = skipTrips
			if skipDuplicates {
				for _, d := range l.preview.Duplicates {
					req.SkipDuplicateTripNames = append(req.SkipDuplicateTripNames, d.ImportTripName)
				}
			}

			res, err := service.NewImportService(a.db, a.blobs, a.logger).Execute(ctx, req)
			if err != nil {
				return err
			}
			fmt.Println(report.Import(res))
			if !res.Success {
				return fmt.Errorf("import finished with %d failed records", res.Failed)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&source, "source", string(importer.SourceAirplaneManager), "source format: airplane_manager or csv_template")
	cmd.Flags().StringVar(&mappings, "mappings", "", "mapping file from import preview (default: map existing, create the rest)")
	cmd.Flags().StringArrayVar(&skipTrips, "skip-trip", nil, "trip name to leave out; repeatable")
	cmd.Flags().BoolVar(&skipDuplicates, "skip-duplicates", false, "leave out every trip whose name already exists")
	return cmd
}
