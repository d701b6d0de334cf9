package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expense-flow/internal/cli"
	"github.com/Veraticus/expense-flow/internal/common"
	"github.com/Veraticus/expense-flow/internal/model"
	"github.com/Veraticus/expense-flow/internal/ofx"
	"github.com/Veraticus/expense-flow/internal/service"
)

type importOptions struct {
	owner          string
	retries        int
	dryRun         bool
	includeCredits bool
	yes            bool
}

func importOFXCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import-ofx FILES...",
		Short: "Import expenses from OFX/QFX statements",
		Long: `Import expenses from OFX or QFX (Quicken) files exported from your bank.

Statement lines are de-duplicated across files by their bank transaction id.
Credits such as refunds and deposits are skipped unless --include-credits is set.
Each expense is created with its own request; network failures are retried.`,
		Example: `  # Preview a single file
  expense import-ofx ~/Downloads/chase_jan_2024.qfx --dry-run

  # Import every statement in a directory
  expense import-ofx ~/Downloads/statements/

  # Import matching files and tag them with an owner
  expense import-ofx '~/Downloads/chase_*.qfx' --owner Alex --yes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportOFX(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "d", false, "Preview import without saving")
	cmd.Flags().BoolVar(&opts.includeCredits, "include-credits", false, "Also import credits (refunds, deposits)")
	cmd.Flags().StringVar(&opts.owner, "owner", "", "Owner recorded on every imported expense")
	cmd.Flags().IntVar(&opts.retries, "retries", 3, "Attempts per expense when the backend is unreachable")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// importResult counts what happened to each parsed entry.
type importResult struct {
	Failed  []error
	Created int
}

func runImportOFX(cmd *cobra.Command, args []string, opts importOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if opts.retries < 1 {
		return fmt.Errorf("--retries must be at least 1, got %d", opts.retries)
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	slog.Info("Importing OFX files", "file_count", len(files), "dry_run", opts.dryRun)

	entries, err := parseStatements(ctx, out, files)
	if err != nil {
		return err
	}

	drafts := selectDrafts(entries, opts)
	if len(drafts) == 0 {
		return common.NewUserError("Nothing to import from "+fmt.Sprint(len(files))+" file(s)", common.ErrNoTransactions)
	}

	if _, err := fmt.Fprintf(out, "\n%s\n", cli.FormatInfo(fmt.Sprintf("%d expenses totalling %s ready to import",
		len(drafts), model.Total(drafts)))); err != nil {
		return err
	}

	if opts.dryRun {
		if err := printTransactions(out, drafts); err != nil {
			return err
		}
		_, err := fmt.Fprintln(out, "\n"+cli.FormatInfo("Dry run complete - no data saved"))
		return err
	}

	if !opts.yes {
		ok, err := cli.NewPrompter(cmd.InOrStdin(), out).Confirm(ctx, fmt.Sprintf("Create %d expenses?", len(drafts)))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !ok {
			_, err := fmt.Fprintln(out, cli.FormatInfo("Import cancelled"))
			return err
		}
	}

	client, _, err := newClient()
	if err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(out)
	ctx = interrupts.HandleInterrupts(ctx, "Import", "Expenses created so far are kept; re-running imports them again.")

	bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(drafts), cli.ImportIcon+" Creating expenses...")
	result := createDrafts(ctx, client, drafts, opts.retries, func() {
		if err := bar.Add(1); err != nil {
			slog.Debug("Failed to update progress bar", "error", err)
		}
	})
	if err := bar.Finish(); err != nil {
		slog.Debug("Failed to finish progress bar", "error", err)
	}

	return reportImport(out, result, len(drafts), interrupts.WasInterrupted())
}

// parseStatements parses every file and returns the de-duplicated entries.
// Unreadable files are reported and skipped.
func parseStatements(ctx context.Context, out io.Writer, files []string) ([]ofx.Entry, error) {
	parser := ofx.NewParser()

	var all []ofx.Entry
	for _, path := range files {
		entries, err := parseStatement(ctx, parser, path)
		if err != nil {
			common.LogError(err, "Failed to parse OFX file", common.Fields{"file": path})
			if _, werr := fmt.Fprintln(out, cli.FormatError(fmt.Sprintf("%s: %v", filepath.Base(path), err))); werr != nil {
				return nil, werr
			}
			continue
		}

		if _, err := fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s: %d transactions", filepath.Base(path), len(entries)))); err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}

	unique := ofx.Dedupe(all)
	if dupes := len(all) - len(unique); dupes > 0 {
		slog.Info("Skipped duplicate statement lines", "duplicates", dupes)
	}
	return unique, nil
}

func parseStatement(ctx context.Context, parser *ofx.Parser, path string) ([]ofx.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("Failed to close file", "file", path, "error", closeErr)
		}
	}()

	return parser.ParseFile(ctx, f)
}

// selectDrafts turns entries into create payloads, dropping credits unless
// asked to keep them.
func selectDrafts(entries []ofx.Entry, opts importOptions) []model.Transaction {
	drafts := make([]model.Transaction, 0, len(entries))
	for _, e := range entries {
		if e.Credit && !opts.includeCredits {
			continue
		}
		tx := e.Transaction
		if opts.owner != "" {
			tx.Owner = opts.owner
		}
		drafts = append(drafts, tx)
	}
	return drafts
}

// createDrafts creates each draft in order, retrying network failures. It
// stops early when ctx is cancelled.
func createDrafts(ctx context.Context, api service.TransactionAPI, drafts []model.Transaction, attempts int, step func()) importResult {
	var result importResult
	for _, draft := range drafts {
		if ctx.Err() != nil {
			break
		}

		err := common.WithRetry(ctx, func() error {
			_, err := api.Create(ctx, draft)
			return err
		}, common.RetryOptions{
			MaxAttempts:  attempts,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			result.Failed = append(result.Failed, fmt.Errorf("%s: %w", draft.Label(), err))
		} else {
			result.Created++
		}
		step()
	}
	return result
}

func reportImport(out io.Writer, result importResult, total int, interrupted bool) error {
	summary := fmt.Sprintf("Created %d of %d expenses", result.Created, total)
	switch {
	case len(result.Failed) > 0:
		if _, err := fmt.Fprintln(out, cli.FormatWarning(summary)); err != nil {
			return err
		}
		for _, err := range result.Failed {
			if _, werr := fmt.Fprintln(out, "  "+cli.FormatError(err.Error())); werr != nil {
				return werr
			}
		}
	default:
		if _, err := fmt.Fprintln(out, cli.FormatSuccess(summary)); err != nil {
			return err
		}
	}

	if interrupted {
		return context.Canceled
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d expenses could not be created", len(result.Failed))
	}
	return nil
}
