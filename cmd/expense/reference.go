package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expense-flow/internal/cli"
	"github.com/Veraticus/expense-flow/internal/model"
)

func referenceCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Show the known categories, units, payment methods and owners",
		Long: `Show the vocabularies the backend offers for new and edited expenses:
categories with their subcategories and items, units, payment methods and owners.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReference(cmd, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw reference data as JSON")

	return cmd
}

func runReference(cmd *cobra.Command, asJSON bool) error {
	out := cmd.OutOrStdout()

	client, _, err := newClient()
	if err != nil {
		return err
	}

	ref, err := client.ReferenceData(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load reference data: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ref)
	}
	return printReference(out, ref)
}

func printReference(out io.Writer, ref model.ReferenceData) error {
	var b strings.Builder

	b.WriteString(cli.FormatTitle("Categories"))
	b.WriteString("\n")
	names := ref.CategoryNames()
	if len(names) == 0 {
		b.WriteString(cli.SubtleStyle.Render("  none"))
		b.WriteString("\n")
	}
	for _, name := range names {
		fmt.Fprintf(&b, "  %s\n", cli.BoldStyle.Render(name))
		for _, sub := range ref.Subcategories(name) {
			items := ref.Items(sub)
			if len(items) == 0 {
				fmt.Fprintf(&b, "    %s\n", sub)
				continue
			}
			fmt.Fprintf(&b, "    %s: %s\n", sub, cli.SubtleStyle.Render(strings.Join(items, ", ")))
		}
	}

	for _, section := range []struct {
		title  string
		values []string
	}{
		{"Units", ref.Units},
		{"Payment methods", ref.PaymentMethods},
		{"Owners", ref.Owners},
	} {
		b.WriteString("\n")
		b.WriteString(cli.SubtitleStyle.Render(section.title))
		b.WriteString("\n")
		values := append([]string(nil), section.values...)
		sort.Strings(values)
		if len(values) == 0 {
			b.WriteString(cli.SubtleStyle.Render("  none"))
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "  %s\n", strings.Join(values, ", "))
	}

	_, err := fmt.Fprint(out, b.String())
	return err
}
