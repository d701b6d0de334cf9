package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expense-flow/internal/cli"
	"github.com/Veraticus/expense-flow/internal/ledger"
	"github.com/Veraticus/expense-flow/internal/model"
	"github.com/Veraticus/expense-flow/internal/service"
)

type listOptions struct {
	sortBy   string
	sortDir  string
	keyword  string
	category string
	vendor   string
	month    string
	page     int
	size     int
	all      bool
}

func listCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions one page at a time",
		Long: `List transactions from the backend.

Results are paged, sorted and filtered on the server. Pages are numbered from 1.
Use --all to print every transaction in server order instead.`,
		Example: `  expense list
  expense list --page 2 --size 20 --sort amount --dir asc
  expense list --category Groceries --month 2024-03
  expense list --keyword coffee`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&opts.size, "size", 0, "Page size (default from list.page_size)")
	cmd.Flags().StringVar(&opts.sortBy, "sort", "", "Sort field: "+strings.Join(ledger.SortFields, ", "))
	cmd.Flags().StringVar(&opts.sortDir, "dir", "", "Sort direction (asc, desc)")
	cmd.Flags().StringVar(&opts.keyword, "keyword", "", "Free-text search")
	cmd.Flags().StringVar(&opts.category, "category", "", "Only this category")
	cmd.Flags().StringVar(&opts.vendor, "vendor", "", "Only this vendor")
	cmd.Flags().StringVar(&opts.month, "month", "", "Only this month (YYYY-MM)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "List every transaction without paging")

	return cmd
}

func (o listOptions) query(base ledger.Query) (ledger.Query, error) {
	q := base
	if o.page < 1 {
		return q, fmt.Errorf("--page must be at least 1, got %d", o.page)
	}
	q.Page = o.page - 1

	if o.size < 0 {
		return q, fmt.Errorf("--size must be positive, got %d", o.size)
	}
	if o.size > 0 {
		q.PageSize = o.size
	}
	if o.sortBy != "" {
		if !ledger.IsSortField(o.sortBy) {
			return q, fmt.Errorf("%w: %q", ledger.ErrUnknownSortField, o.sortBy)
		}
		q.SortField = o.sortBy
	}
	switch dir := service.SortDirection(strings.ToLower(o.sortDir)); dir {
	case "":
	case service.SortAsc, service.SortDesc:
		q.SortDir = dir
	default:
		return q, fmt.Errorf("--dir must be asc or desc, got %q", o.sortDir)
	}
	if o.month != "" {
		if _, err := time.Parse("2006-01", o.month); err != nil {
			return q, fmt.Errorf("--month must be formatted as YYYY-MM, got %q", o.month)
		}
	}

	q.Keyword = strings.TrimSpace(o.keyword)
	q.Category = strings.TrimSpace(o.category)
	q.Vendor = strings.TrimSpace(o.vendor)
	q.Month = o.month
	return q, nil
}

func runList(cmd *cobra.Command, opts listOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	if opts.all {
		txns, err := client.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to list transactions: %w", err)
		}
		if len(txns) == 0 {
			_, err := fmt.Fprintln(out, cli.InfoStyle.Render("No transactions found"))
			return err
		}
		if err := printTransactions(out, txns); err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "\n%d transactions, total %s\n", len(txns), model.Total(txns))
		return err
	}

	q, err := opts.query(cfg.Query())
	if err != nil {
		return err
	}

	list := ledger.NewList(client, q)
	defer list.Close()

	if err := list.Load(ctx); err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}
	snap := list.Snapshot()

	if len(snap.Records) == 0 {
		if _, err := fmt.Fprintln(out, cli.InfoStyle.Render("No transactions found")); err != nil {
			return err
		}
	} else if err := printTransactions(out, snap.Records); err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "\nPage %d of %d · sorted by %s %s\n",
		snap.Query.Page+1, snap.Pages(), snap.Query.SortField, snap.Query.SortDir)
	return err
}
