package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expense-flow/internal/cli"
	"github.com/Veraticus/expense-flow/internal/model"
)

func editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit ID FIELD=VALUE...",
		Short: "Change fields of one transaction",
		Long: `Change fields of one transaction. Only the named fields are sent.

Fields: ` + strings.Join(model.EditableFields, ", ") + `.
An empty value clears an optional field.`,
		Example: `  expense edit 42 amount=12.50 vendor="Corner Shop"
  expense edit 42 notes=`,
		Args: cobra.MinimumNArgs(2),
		RunE: runEdit,
	}
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ids, err := parseIDs(args[:1])
	if err != nil {
		return err
	}
	assignments, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	patch, err := buildPatch(assignments)
	if err != nil {
		return err
	}

	client, _, err := newClient()
	if err != nil {
		return err
	}

	updated, err := client.Update(ctx, ids[0], patch)
	if err != nil {
		return fmt.Errorf("failed to update transaction %d: %w", ids[0], err)
	}

	if _, err := fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Updated %s of transaction %d",
		strings.Join(patch.Fields(), ", "), updated.ID))); err != nil {
		return err
	}
	return printTransaction(out, updated)
}

func bulkEditCmd() *cobra.Command {
	var idArgs []string

	cmd := &cobra.Command{
		Use:   "bulk-edit --ids ID,ID... FIELD=VALUE...",
		Short: "Apply the same change to several transactions",
		Long: `Apply the same field values to several transactions in one request.

Every listed transaction receives the same patch.`,
		Example: `  expense bulk-edit --ids 3,4,9 category=Travel
  expense bulk-edit --ids 3 --ids 4 owner=Alex paymentMethod=Cash`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulkEdit(cmd, idArgs, args)
		},
	}

	cmd.Flags().StringSliceVar(&idArgs, "ids", nil, "Transaction ids to change")
	_ = cmd.MarkFlagRequired("ids")

	return cmd
}

func runBulkEdit(cmd *cobra.Command, idArgs, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ids, err := parseIDs(idArgs)
	if err != nil {
		return err
	}
	assignments, err := parseAssignments(args)
	if err != nil {
		return err
	}
	patch, err := buildPatch(assignments)
	if err != nil {
		return err
	}

	patches := make([]model.BulkPatch, 0, len(ids))
	for _, id := range ids {
		patches = append(patches, model.BulkPatch{ID: id, Patch: patch})
	}

	client, _, err := newClient()
	if err != nil {
		return err
	}

	updated, err := client.BulkUpdate(ctx, patches)
	if err != nil {
		return fmt.Errorf("failed to update %d transactions: %w", len(ids), err)
	}

	if _, err := fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Updated %d transactions", len(updated)))); err != nil {
		return err
	}
	if len(updated) == 0 {
		return nil
	}
	return printTransactions(out, updated)
}
