package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"livequiz-service/internal/app"
	"livequiz-service/internal/report"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	quizID    string
	organizer string
	format    string
	section   string
	out       string
}

// NewExportCmd writes a quiz report file without starting the server.
func NewExportCmd(configPath *string) *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a quiz report as CSV or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), *configPath, opts)
		},
	}
	cmd.Flags().StringVar(&opts.quizID, "quiz", "", "quiz room code")
	cmd.Flags().StringVar(&opts.organizer, "organizer", "", "organizer name that owns the quiz")
	cmd.Flags().StringVar(&opts.format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVar(&opts.section, "section", "", "csv section: insights, questions or educator")
	cmd.Flags().StringVar(&opts.out, "out", "", "output file (defaults to the report file name)")
	_ = cmd.MarkFlagRequired("quiz")
	_ = cmd.MarkFlagRequired("organizer")
	return cmd
}

func runExport(ctx context.Context, configPath string, opts exportOptions) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return errors.New("export needs postgres: the in-memory store is empty in a new process")
	}
	section, err := report.ParseSection(opts.section)
	if err != nil {
		return err
	}

	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.close()

	out, err := svc.reports.Export(ctx, opts.organizer, opts.quizID, app.ExportFormat(opts.format), section)
	if err != nil {
		return err
	}
	path := opts.out
	if path == "" {
		path = out.Filename
	}
	if err := os.WriteFile(path, out.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stdout, "wrote %s (%d bytes)\n", path, len(out.Data))
	return nil
}
