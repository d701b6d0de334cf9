package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expense-flow/internal/cli"
	"github.com/Veraticus/expense-flow/internal/common"
	"github.com/Veraticus/expense-flow/internal/model"
)

// fieldFlag maps a form field to its command-line flag name.
func fieldFlag(field string) string {
	if field == model.FieldPaymentMethod {
		return "payment-method"
	}
	return field
}

func addCmd() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new expense",
		Long: `Record a new expense.

Values come from flags. Date defaults to today, category to ` + model.DefaultCategory + `,
currency to ` + model.DefaultCurrency + ` and payment method to ` + model.DefaultPaymentMethod + `.
With --interactive every field is prompted for, using the flags as defaults.`,
		Example: `  expense add --amount 12.50 --vendor Bakery --item Bread
  expense add --date 2024-03-01 --category Transport --amount 30 --currency CHF
  expense add -i`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAdd(cmd, interactive)
		},
	}

	defaults := model.NewExpenseForm(time.Now())
	for _, field := range model.EditableFields {
		cmd.Flags().String(fieldFlag(field), defaults.Get(field), "Expense "+field)
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for each field")

	return cmd
}

func runAdd(cmd *cobra.Command, interactive bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	form := model.NewExpenseForm(time.Now())
	for _, field := range model.EditableFields {
		value, err := cmd.Flags().GetString(fieldFlag(field))
		if err != nil {
			return err
		}
		if err := form.Set(field, value); err != nil {
			return err
		}
	}

	if interactive {
		prompter := cli.NewPrompter(cmd.InOrStdin(), out)
		for _, field := range model.EditableFields {
			value, err := prompter.Ask(ctx, field, form.Get(field))
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", field, err)
			}
			if err := form.Set(field, value); err != nil {
				return err
			}
		}
	}

	tx, err := form.Transaction()
	if err != nil {
		return common.NewUserError("The expense is incomplete", err)
	}

	client, _, err := newClient()
	if err != nil {
		return err
	}

	created, err := client.Create(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to add expense: %w", err)
	}

	if _, err := fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Added transaction %d", created.ID))); err != nil {
		return err
	}
	return printTransaction(out, created)
}
