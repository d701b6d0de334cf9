package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"

	"github.com/Veraticus/expense-flow/internal/analytics"
	"github.com/Veraticus/expense-flow/internal/api"
	"github.com/Veraticus/expense-flow/internal/cli"
	"github.com/Veraticus/expense-flow/internal/common"
	"github.com/Veraticus/expense-flow/internal/config"
	"github.com/Veraticus/expense-flow/internal/model"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

// loadConfig reads the typed configuration from the global viper instance.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, common.NewUserError("Fix the configuration file or flags and try again", err)
	}
	return cfg, nil
}

// newClient loads the configuration and builds an API client from it.
func newClient() (*api.Client, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, config.Config{}, err
	}

	client, err := cfg.NewClient()
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("failed to create API client: %w", err)
	}
	slog.Debug("API client ready", "base_url", client.BaseURL(), "timeout", cfg.APITimeout)
	return client, cfg, nil
}

// printTransactions writes txns as an aligned table.
func printTransactions(out io.Writer, txns []model.Transaction) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("ID"),
		headerStyle.Render("Date"),
		headerStyle.Render("Category"),
		headerStyle.Render("Item"),
		headerStyle.Render("Amount"),
		headerStyle.Render("Vendor"),
		headerStyle.Render("Payment"),
		headerStyle.Render("Owner")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("─", 4),
		strings.Repeat("─", 10),
		strings.Repeat("─", 12),
		strings.Repeat("─", 16),
		strings.Repeat("─", 12),
		strings.Repeat("─", 12),
		strings.Repeat("─", 8),
		strings.Repeat("─", 6)); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}

	for _, tx := range txns {
		id := analytics.Placeholder
		if tx.ID != 0 {
			id = strconv.FormatInt(tx.ID, 10)
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			id,
			cell(tx.Date.String()),
			cell(tx.Category),
			cell(itemLabel(tx)),
			analytics.FormatAmount(tx.Amount, tx.Currency),
			cell(tx.Vendor),
			cell(tx.PaymentMethod),
			cell(tx.Owner)); err != nil {
			return fmt.Errorf("failed to write transaction row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}
	return nil
}

func itemLabel(tx model.Transaction) string {
	switch {
	case tx.Subcategory != "" && tx.Item != "":
		return tx.Subcategory + " / " + tx.Item
	case tx.Item != "":
		return tx.Item
	default:
		return tx.Subcategory
	}
}

func cell(s string) string {
	if s == "" {
		return analytics.Placeholder
	}
	return s
}

// printTransaction writes one transaction as labeled lines.
func printTransaction(out io.Writer, tx model.Transaction) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(w, "%s\t%d\n", cli.BoldStyle.Render("ID"), tx.ID); err != nil {
		return fmt.Errorf("failed to write transaction: %w", err)
	}
	for _, field := range model.EditableFields {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", cli.BoldStyle.Render(field), cell(model.FieldValue(tx, field))); err != nil {
			return fmt.Errorf("failed to write transaction: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush transaction: %w", err)
	}
	return nil
}

// parseIDs parses transaction ids given as arguments or comma-separated lists.
func parseIDs(args []string) ([]int64, error) {
	var ids []int64
	seen := make(map[int64]bool)
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("invalid transaction id %q", part)
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one transaction id is required")
	}
	return ids, nil
}

// assignment is one field=value argument.
type assignment struct {
	Field string
	Value string
}

// parseAssignments parses field=value arguments. Field names are matched
// case-insensitively against model.EditableFields.
func parseAssignments(args []string) ([]assignment, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one field=value assignment is required")
	}

	out := make([]assignment, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q: expected field=value", arg)
		}
		field, known := canonicalField(strings.TrimSpace(name))
		if !known {
			return nil, fmt.Errorf("unknown field %q (valid: %s)", name, strings.Join(model.EditableFields, ", "))
		}
		out = append(out, assignment{Field: field, Value: value})
	}
	return out, nil
}

func canonicalField(name string) (string, bool) {
	for _, f := range model.EditableFields {
		if strings.EqualFold(f, name) {
			return f, true
		}
	}
	return "", false
}

// buildPatch applies assignments to a fresh patch, reporting every bad value.
func buildPatch(assignments []assignment) (model.Patch, error) {
	var patch model.Patch
	var errs []string
	for _, a := range assignments {
		if err := patch.Set(a.Field, a.Value); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return model.Patch{}, fmt.Errorf("invalid values: %s", strings.Join(errs, "; "))
	}
	return patch, nil
}

// collectFiles expands each argument into files. Directories contribute their
// .ofx and .qfx files; other arguments may be glob patterns.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		path := config.ExpandPath(arg)

		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			for _, ext := range []string{"*.ofx", "*.OFX", "*.qfx", "*.QFX"} {
				matches, globErr := filepath.Glob(filepath.Join(path, ext))
				if globErr != nil {
					return nil, fmt.Errorf("failed to search %s: %w", path, globErr)
				}
				files = append(files, matches...)
			}
			continue
		}
		if err == nil {
			files = append(files, path)
			continue
		}

		matches, globErr := filepath.Glob(path)
		if globErr != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, globErr)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		files = append(files, matches...)
	}
	return dedupeStrings(files), nil
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
