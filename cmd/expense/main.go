package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/expense-flow/internal/api"
	"github.com/Veraticus/expense-flow/internal/common"
	"github.com/Veraticus/expense-flow/internal/config"
)

var version = "dev"

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "expense",
		Short: "💶 Expense tracker client",
		Long: `expense-flow: browse, record and analyze expenses kept by the
expense tracker backend.

Run 'expense browse' for the interactive view, or use the subcommands to
script common tasks.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd, cfgFile)
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/expense/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("api-url", "", "backend base URL (default: "+api.DefaultBaseURL+")")

	// Bind flags to viper
	_ = viper.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))
	_ = viper.BindPFlag(config.KeyAPIBaseURL, flags.Lookup("api-url"))

	// Add commands
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(bulkEditCmd())
	rootCmd.AddCommand(referenceCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(importOFXCmd())
	rootCmd.AddCommand(browseCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, cfgFile string) error {
	// Set up config file
	if cfgFile != "" {
		viper.SetConfigFile(config.ExpandPath(cfgFile))
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Search for config in standard locations
		viper.AddConfigPath(fmt.Sprintf("%s/.config/expense", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	// EXPENSE_API_BASE_URL maps to api.base_url
	viper.SetEnvPrefix("EXPENSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Set up logging
	if err := setupLogging(cmd); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func setupLogging(cmd *cobra.Command) error {
	level, err := common.ParseLevel(viper.GetString(config.KeyLogLevel))
	if err != nil {
		return err
	}
	return common.SetupLogger(cmd.ErrOrStderr(), level, viper.GetString(config.KeyLogFormat))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "expense version %s\n", version)
		},
	}
}
