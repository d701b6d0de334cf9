package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expense-flow/internal/cli"
)

func deleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete ID...",
		Aliases: []string{"rm"},
		Short:   "Delete transactions",
		Long: `Delete one or more transactions.

A single id uses the single-delete endpoint; several ids are removed with one
bulk request. You are asked to confirm unless --yes is given.`,
		Example: `  expense delete 42
  expense delete 3 4 9 --yes
  expense delete 3,4,9`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func runDelete(cmd *cobra.Command, args []string, yes bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	if !yes {
		question := fmt.Sprintf("Delete transaction %d?", ids[0])
		if len(ids) > 1 {
			question = fmt.Sprintf("Delete %d transactions?", len(ids))
		}
		ok, err := cli.NewPrompter(cmd.InOrStdin(), out).Confirm(ctx, question)
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !ok {
			_, err := fmt.Fprintln(out, cli.FormatInfo("Nothing deleted"))
			return err
		}
	}

	client, _, err := newClient()
	if err != nil {
		return err
	}

	if len(ids) == 1 {
		if err := client.Delete(ctx, ids[0]); err != nil {
			return fmt.Errorf("failed to delete transaction %d: %w", ids[0], err)
		}
		_, err := fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Deleted transaction %d", ids[0])))
		return err
	}

	if err := client.BulkDelete(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete %d transactions: %w", len(ids), err)
	}
	_, err = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Deleted %d transactions", len(ids))))
	return err
}
