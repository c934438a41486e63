package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leratech/maweni-results/internal/app"
	"github.com/leratech/maweni-results/internal/models"
	"github.com/leratech/maweni-results/internal/repository"
	"github.com/leratech/maweni-results/internal/service"
	"github.com/leratech/maweni-results/pkg/config"
	"github.com/leratech/maweni-results/pkg/export"
	"github.com/leratech/maweni-results/pkg/logger"
	"github.com/leratech/maweni-results/pkg/storage"
)

type options struct {
	filters models.ExportFilters
	outDir  string
	token   string
	format  string
	student string
	csv     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "results-cli",
		Short:         "Export Maweni results workbooks and report cards",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.filters.TermID, "term", "", "term id (required)")
	flags.StringVar(&opts.filters.ClassID, "class", "", "class id (required)")
	flags.StringVar(&opts.filters.StreamID, "stream", "", "stream id")
	flags.StringVar(&opts.filters.SubjectID, "subject", "", "subject id")
	flags.StringVar(&opts.outDir, "out", ".", "output directory")
	flags.StringVar(&opts.token, "token", os.Getenv("BACKEND_TOKEN"), "bearer token for the results backend")

	root.AddCommand(newWorkbookCommand(opts), newReportCommand(opts), newBulkCommand(opts))
	return root
}

func newWorkbookCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workbook",
		Short: "Write the class results workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, func(ctx context.Context, c *app.Container, store *storage.LocalStorage) error {
				var (
					doc *export.Document
					err error
				)
				if opts.csv {
					doc, err = c.Exports.BroadsheetCSV(ctx, opts.filters)
				} else {
					doc, err = c.Exports.Workbook(ctx, opts.filters)
				}
				if err != nil {
					return err
				}
				return save(cmd, store, doc)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.csv, "csv", false, "write CSV instead of xlsx")
	return cmd
}

func newReportCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write one student's report card",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.student == "" {
				return fmt.Errorf("--student is required")
			}
			return run(cmd.Context(), opts, func(ctx context.Context, c *app.Container, store *storage.LocalStorage) error {
				var (
					doc *export.Document
					err error
				)
				switch models.DocumentFormat(opts.format) {
				case models.FormatHTML:
					doc, err = c.Exports.StudentHTML(ctx, opts.filters, opts.student)
				case models.FormatPDF:
					doc, err = c.Exports.StudentPDF(ctx, opts.filters, opts.student)
				default:
					return fmt.Errorf("unsupported format %q", opts.format)
				}
				if err != nil {
					return err
				}
				return save(cmd, store, doc)
			})
		},
	}
	cmd.Flags().StringVar(&opts.student, "student", "", "admission number")
	cmd.Flags().StringVar(&opts.format, "format", string(models.FormatPDF), "pdf or html")
	return cmd
}

func newBulkCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Write a report card for every student of the class",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := models.DocumentFormat(opts.format)
			if format != models.FormatPDF && format != models.FormatHTML {
				return fmt.Errorf("unsupported format %q", opts.format)
			}
			return run(cmd.Context(), opts, func(ctx context.Context, c *app.Container, store *storage.LocalStorage) error {
				cohort, err := c.Results.Cohort(ctx, opts.filters)
				if err != nil {
					return err
				}
				if err := cohort.RequireStudents(); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				result, err := c.Bulk.ExportAllIndividual(ctx, cohort.Students, service.BulkOptions{
					Format:     format,
					CohortSize: len(cohort.Students),
					MaxTotal:   cohort.MaxTotal,
				}, export.NewDirectorySink(store), func(current, total int) {
					fmt.Fprintf(out, "\r%d/%d", current, total)
				})
				fmt.Fprintln(out)
				fmt.Fprintf(out, "exported %d of %d reports\n", result.SuccessCount, result.Total)
				for _, failure := range result.Failures {
					fmt.Fprintf(out, "  %s: %s\n", failure.AdmissionNumber, failure.Reason)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", string(models.FormatPDF), "pdf or html")
	return cmd
}

type action func(ctx context.Context, c *app.Container, store *storage.LocalStorage) error

func run(ctx context.Context, opts *options, fn action) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// The CLI never needs job persistence.
	cfg.Database.Enabled = false

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	container, err := app.New(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer container.Close()

	store, err := storage.NewLocalStorage(opts.outDir)
	if err != nil {
		return err
	}
	if opts.token != "" {
		ctx = repository.WithBearerToken(ctx, opts.token)
	}
	if err := fn(ctx, container, store); err != nil {
		logr.Debug("command failed", zap.Error(err))
		return err
	}
	return nil
}

func save(cmd *cobra.Command, store *storage.LocalStorage, doc *export.Document) error {
	name, err := store.Save(doc.Filename, doc.Data)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), store.Path(name))
	return nil
}
