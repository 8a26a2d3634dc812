package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/cardgate/internal/core/domain"
	"github.com/vietddude/cardgate/internal/infra/gateway"
	"github.com/vietddude/cardgate/internal/infra/storage"
)

type importFlags struct {
	cardType string
	dryRun   bool
	wait     bool
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk import cards from CSV",
	}

	var flags importFlags
	csvCmd := &cobra.Command{
		Use:   "csv [file]",
		Short: "Upload a CSV file for import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportCSV(cmd, opts, args[0], flags)
		},
	}
	csvCmd.Flags().StringVar(&flags.cardType, "card-type", "", "default card type for rows without one")
	csvCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "validate rows without storing them")
	csvCmd.Flags().BoolVar(&flags.wait, "wait", false, "poll until the import finishes")

	statusCmd := &cobra.Command{
		Use:   "status [job_id]",
		Short: "Show the status of an import job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.application()
			if err != nil {
				return err
			}
			status, err := a.client.GetImportStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			recordStatus(cmd.Context(), a.jobs, args[0], status)
			return printJSON(opts.out, status)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List import jobs submitted from this client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.application()
			if err != nil {
				return err
			}
			jobs, err := a.jobs.List(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(opts.out, jobs)
		},
	}

	importCmd.AddCommand(csvCmd, statusCmd, listCmd)
	return importCmd
}

func runImportCSV(cmd *cobra.Command, opts *rootOptions, path string, flags importFlags) error {
	content, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := opts.application()
	if err != nil {
		return err
	}

	fileName := filepath.Base(path)
	if path == "-" {
		fileName = "stdin.csv"
	}
	req := gateway.ImportRequest{
		FileName: fileName,
		Content:  content,
		CardType: flags.cardType,
	}
	if cmd.Flags().Changed("dry-run") {
		req.DryRun = &flags.dryRun
	}

	ctx := cmd.Context()
	resp, err := a.client.ImportCSV(ctx, req)
	if err != nil {
		return err
	}

	now := time.Now()
	job := &domain.ImportJob{
		JobID:       resp.JobID,
		FileName:    fileName,
		CardType:    flags.cardType,
		DryRun:      flags.dryRun,
		Status:      domain.ImportJobStatus(resp.Status),
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if err := a.jobs.Save(ctx, job); err != nil {
		slog.Warn("Failed to record import job", "job_id", job.JobID, "error", err)
	}
	slog.Info("Import submitted", "job_id", resp.JobID, "status", resp.Status, "file", fileName)

	if !flags.wait {
		return printJSON(opts.out, resp)
	}

	status, err := a.client.WaitForImport(ctx, resp.JobID, a.cfg.Import)
	if status != nil {
		recordStatus(ctx, a.jobs, resp.JobID, status)
	}
	if err != nil {
		return err
	}
	if status.Status == gateway.ImportFailed {
		if err := printJSON(opts.out, status); err != nil {
			return err
		}
		return fmt.Errorf("import job %s failed with %d errors", resp.JobID, len(status.Errors))
	}
	return printJSON(opts.out, status)
}

// recordStatus folds a polled status into the stored job. Jobs submitted
// elsewhere are recorded on first sight.
func recordStatus(ctx context.Context, jobs storage.ImportJobRepository, jobID string, status *gateway.ImportStatusResponse) {
	now := time.Now()
	job, err := jobs.Get(ctx, jobID)
	if errors.Is(err, storage.ErrJobNotFound) {
		job = &domain.ImportJob{JobID: jobID, SubmittedAt: now}
	} else if err != nil {
		slog.Warn("Failed to load import job", "job_id", jobID, "error", err)
		return
	}

	job.Status = domain.ImportJobStatus(status.Status)
	if status.ImportedCount != nil {
		job.ImportedCount = *status.ImportedCount
	}
	if status.TotalCount != nil {
		job.TotalCount = *status.TotalCount
	}
	job.Errors = status.Errors
	job.UpdatedAt = now

	if err := jobs.Save(ctx, job); err != nil {
		slog.Warn("Failed to record import job", "job_id", jobID, "error", err)
	}
}
