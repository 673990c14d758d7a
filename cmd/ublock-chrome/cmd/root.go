package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/ublock-chrome/internal/logger"
	"github.com/oshokin/ublock-chrome/internal/service/installer"
	"github.com/oshokin/ublock-chrome/internal/version"
)

var (
	// configPath stores the path to the optional settings YAML file.
	configPath string
	// logLevel selects the logging verbosity.
	logLevel string

	// rootCmd represents the base command; without a subcommand it installs.
	rootCmd = &cobra.Command{
		Use:   "ublock-chrome",
		Short: "One-command installer for uBlock Origin on Chrome (macOS).",
		Long: `Installs uBlock Origin into Google Chrome on macOS.

Downloads the latest uBlock Origin Chromium build from GitHub releases,
extracts it to a private directory, and creates a "Chrome (uBO)" launcher app
in ~/Applications that starts Chrome with Manifest V2 support and the
extension loaded.

Running without a subcommand performs a full install.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithSignals(cmd, installer.Install)
		},
	}

	installCmd = &cobra.Command{
		Use:   "install",
		Short: "Download uBlock Origin and create the launcher app (default).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithSignals(cmd, installer.Install)
		},
	}

	updateCmd = &cobra.Command{
		Use:   "update",
		Short: "Re-download the latest uBlock Origin and rebuild the launcher.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithSignals(cmd, installer.Update)
		},
	}

	uninstallCmd = &cobra.Command{
		Use:   "uninstall",
		Short: "Remove uBlock Origin and the launcher app.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithSignals(cmd, installer.Uninstall)
		},
	}

	launchCmd = &cobra.Command{
		Use:   "launch",
		Short: "Quit Chrome and relaunch it with uBlock Origin.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithSignals(cmd, installer.Launch)
		},
	}
)

// runWithSignals wires graceful shutdown handling around a lifecycle command.
func runWithSignals(cmd *cobra.Command, run func(context.Context, *installer.Options) error) error {
	cmd.SilenceUsage = true

	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return run(ctx, &installer.Options{
		ConfigPath: configPath,
	})
}

// Execute runs the ublock-chrome CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(installCmd, updateCmd, uninstallCmd, launchCmd)

	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to optional settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logging level (debug, info, warn, error)")
}
