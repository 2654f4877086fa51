package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/dojo/internal/sim"
	"github.com/okian/dojo/pkg/logger"
)

// Version is the tool version.
const Version = "0.1.0"

var (
	baseURL   string
	timeout   time.Duration
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:           "dojo-sim",
	Short:         "Replay synthetic pose streams against a dojo server",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.Init(logger.WithFormat(logFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		return logger.SetLevelString(logLevel)
	},
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", sim.DefaultBaseURL, "base URL of the dojo server")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", sim.DefaultTimeout, "HTTP request timeout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logger.FormatText, "log format: text or json")
}
