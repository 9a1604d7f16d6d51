package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/smarttrack/internal/cli"
	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/format"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/Veraticus/smarttrack/internal/ofx"
	"github.com/Veraticus/smarttrack/internal/pattern"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import payments from bank exports",
	}

	cmd.AddCommand(importOFXCmd())

	return cmd
}

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ofx [files...]",
		Short: "Import payments from OFX/QFX files",
		Long: `Import outgoing payments from OFX or QFX files exported from your bank.

Credits are ignored. Each debit is recorded under --category, or prompted for
one at a time with --interactive. With --suggest, merchants the built-in rules
recognize are recorded under their usual category instead.`,
		Example: `  # Import one statement as "other"
  smarttrack import ofx ~/Downloads/statement.qfx

  # Categorize every payment by hand
  smarttrack import ofx --interactive ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().String("category", string(model.CategoryOther), "Category for imported payments")
	cmd.Flags().BoolP("interactive", "i", false, "Prompt for each payment's category")
	cmd.Flags().Bool("suggest", false, "Use the usual category of recognized merchants")
	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	categoryName, _ := cmd.Flags().GetString("category")
	interactive, _ := cmd.Flags().GetBool("interactive")
	suggest, _ := cmd.Flags().GetBool("suggest")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	category, err := model.ParseCategory(categoryName)
	if err != nil {
		return err
	}

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	entries, err := readStatements(ctx, files)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		slog.Warn("No payments found in any file")
		return nil
	}

	if dryRun {
		for _, e := range entries {
			fmt.Fprintf(out, "  %s  %-32s %12s\n", format.Date(e.PostedAt), e.MerchantName, format.Currency(e.Amount))
		}
		fmt.Fprintf(out, "\n%d payments would be imported.\n", len(entries))
		return nil
	}

	a, userID, err := signedIn(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	recorded, err := a.ledger.RecordedSources(ctx, userID)
	if err != nil {
		return err
	}
	entries, skipped := dropRecorded(entries, recorded)
	if len(entries) == 0 {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("All %d payments were already imported", skipped)))
		return nil
	}
	if skipped > 0 {
		slog.Info("Skipping payments imported earlier", "count", skipped)
	}

	suggester := pattern.NewDefaultSuggester()

	if interactive {
		interrupts := cli.NewInterruptHandler(out)
		ctx = interrupts.HandleInterrupts(ctx, true)

		prompter := cli.NewPrompter(cmd.InOrStdin(), out)
		prompter.SetTotalTransactions(len(entries))
		coordinator := a.coordinator()

		for _, e := range entries {
			pending := pendingFromEntry(e)
			suggested, _ := suggester.Best(pending)
			_, err := prompter.Categorize(ctx, coordinator, userID, pending, suggested)
			prompter.Advance()
			switch {
			case err == nil, errors.Is(err, cli.ErrSkipped):
				continue
			case interrupts.WasInterrupted(), errors.Is(err, context.Canceled), errors.Is(err, cli.ErrInputCancelled):
				return nil
			default:
				return err
			}
		}
		prompter.ShowCompletion()
		return nil
	}

	bar := progressbar.NewOptions(len(entries),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Importing payments"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish())

	saved := 0
	for _, e := range entries {
		c := category
		if suggest {
			if best, ok := suggester.Best(pendingFromEntry(e)); ok {
				c = best
			}
		}
		_, err := a.ledger.Record(ctx, userID, e.NewTransaction(c))
		switch {
		case errors.Is(err, common.ErrDuplicateEntry):
			skipped++
		case err != nil:
			_ = bar.Clear()
			return fmt.Errorf("failed to save payment at %s: %w", e.MerchantName, err)
		default:
			saved++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if skipped > 0 {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Skipped %d payments imported earlier", skipped)))
	}
	if suggest {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d payments", saved)))
		return nil
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d payments as %s", saved, category.Display())))
	return nil
}

// expandFiles resolves glob patterns and walks directories for OFX and QFX
// files. Patterns matching nothing are kept when they name an existing file.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				slog.Warn("No files found matching pattern", "pattern", pattern)
				continue
			}
			matches = []string{pattern}
		}

		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				add(m)
				continue
			}
			err = filepath.WalkDir(m, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && isStatement(path) {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("failed to walk %s: %w", m, err)
			}
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

func isStatement(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		return true
	}
	return false
}

// readStatements parses every file and returns its debits, dropping lines
// already seen in an earlier file.
func readStatements(ctx context.Context, files []string) ([]ofx.Entry, error) {
	parser := ofx.NewParser()
	seen := make(map[string]bool)
	var entries []ofx.Entry

	for _, path := range files {
		f, err := os.Open(path) // #nosec G304 -- user-supplied statement path
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		parsed, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}

		debits := ofx.Debits(parsed)
		added := 0
		for _, e := range debits {
			key := e.AccountID + "/" + e.FITID
			if e.FITID != "" && seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, e)
			added++
		}
		slog.Info("Processed file",
			"file", filepath.Base(path),
			"payments", added,
			"duplicates", len(debits)-added)
	}
	return entries, nil
}

func pendingFromEntry(e ofx.Entry) model.PendingCategorization {
	id := e.FITID
	if id == "" {
		id = uuid.NewString()
	}
	return model.PendingCategorization{
		ID:                   id,
		OccurredAt:           e.PostedAt,
		Amount:               e.Amount,
		MerchantName:         e.MerchantName,
		PaymentMode:          model.PaymentModeFor(e.HasPayee),
		SourceID:             e.SourceID(),
		IsRegisteredMerchant: e.HasPayee,
	}
}

// dropRecorded removes entries whose source ID is already in the ledger and
// reports how many were removed.
func dropRecorded(entries []ofx.Entry, recorded map[string]bool) ([]ofx.Entry, int) {
	kept := make([]ofx.Entry, 0, len(entries))
	for _, e := range entries {
		if id := e.SourceID(); id == "" || !recorded[id] {
			kept = append(kept, e)
		}
	}
	return kept, len(entries) - len(kept)
}
