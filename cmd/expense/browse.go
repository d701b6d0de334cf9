package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expense-flow/internal/tui"
)

func browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "browse",
		Aliases: []string{"ui"},
		Short:   "Open the interactive transaction browser",
		Long: `Open the interactive browser with three screens: the transaction list,
the add-expense form and the analytics dashboard. Tab switches screens and ?
shows every key binding.`,
		Args: cobra.NoArgs,
		RunE: runBrowse,
	}
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	err = tui.Run(cmd.Context(),
		tui.WithAPI(client),
		tui.WithQuery(cfg.Query()),
		tui.WithNotifyDuration(cfg.NotifyDuration),
		tui.WithRequestTimeout(cfg.APITimeout),
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
