package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Veraticus/expense-flow/internal/analytics"
	"github.com/Veraticus/expense-flow/internal/cli"
	"github.com/Veraticus/expense-flow/internal/model"
)

var summaryBars = analytics.BarStyle{
	Title: cli.SubtitleStyle,
	Label: lipgloss.NewStyle(),
	Bar:   lipgloss.NewStyle().Foreground(cli.AccentColor),
	Value: cli.SubtleStyle,
	Empty: cli.SubtleStyle.Italic(true),
	Width: 30,
}

func summaryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "summary",
		Aliases: []string{"analytics"},
		Short:   "Show spending by category, month, vendor and item",
		Long: `Show the spending dashboard: grand total, the leading category and vendor,
bar charts of each summary series and the most recent transactions.

Series the backend fails to deliver are shown as empty and listed at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSummary(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum bars per chart (0 for all)")

	return cmd
}

func runSummary(cmd *cobra.Command, limit int) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}

	dashboard, err := analytics.NewLoader(client).Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load summary: %w", err)
	}

	return printDashboard(cmd.OutOrStdout(), dashboard, limit)
}

func printDashboard(out io.Writer, d analytics.Dashboard, limit int) error {
	var b strings.Builder

	b.WriteString(cli.FormatTitle("Spending summary"))
	b.WriteString("\n")
	b.WriteString(cli.RenderBox(cli.ChartIcon, "Overview", strings.Join([]string{
		fmt.Sprintf("Total         %s", analytics.FormatAmount(d.Total, model.DefaultCurrency)),
		fmt.Sprintf("Transactions  %d", d.Count),
		fmt.Sprintf("Top category  %s", d.TopCategory()),
		fmt.Sprintf("Top vendor    %s", d.TopVendor()),
	}, "\n")))
	b.WriteString("\n\n")

	for _, chart := range []struct {
		title   string
		entries []model.SummaryEntry
	}{
		{"Spending by category", d.ByCategory},
		{"Spending by month", d.ByMonth},
		{"Top vendors", d.TopVendors},
		{"Top items", d.TopItems},
	} {
		b.WriteString(analytics.RenderBars(chart.title, truncate(chart.entries, limit), summaryBars))
		b.WriteString("\n\n")
	}

	b.WriteString(cli.SubtitleStyle.Render("Recent transactions"))
	b.WriteString("\n")
	if _, err := fmt.Fprint(out, b.String()); err != nil {
		return err
	}

	if len(d.Recent) == 0 {
		if _, err := fmt.Fprintln(out, cli.SubtleStyle.Render(analytics.NoData)); err != nil {
			return err
		}
	} else if err := printTransactions(out, d.Recent); err != nil {
		return err
	}

	if len(d.Failed) > 0 {
		if _, err := fmt.Fprintln(out, "\n"+cli.FormatWarning("Unavailable: "+strings.Join(d.Failed, ", "))); err != nil {
			return err
		}
	}
	return nil
}

func truncate(entries []model.SummaryEntry, limit int) []model.SummaryEntry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
