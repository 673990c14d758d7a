package installer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/oshokin/ublock-chrome/internal/config"
	"github.com/oshokin/ublock-chrome/internal/logger"
	"github.com/oshokin/ublock-chrome/internal/service/browser"
	"github.com/oshokin/ublock-chrome/internal/service/extension"
	"github.com/oshokin/ublock-chrome/internal/service/launcher"
	"github.com/oshokin/ublock-chrome/internal/service/release"
)

// Options are inputs shared by the lifecycle command entry points.
type Options struct {
	// ConfigPath is an optional path to a settings YAML overriding defaults.
	ConfigPath string
	// Controller overrides the process controller; nil selects the host OS one.
	Controller browser.Controller
}

// result carries what a full install pipeline produced, for the summary.
type result struct {
	tag         string
	manifest    *extension.Manifest
	destination string
}

// Install performs the full first-time installation: resolve the latest
// release, install the extension, build the launcher bundle, and deploy it.
func Install(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "install")

	cfg, err := loadAndPreflight(opts.ConfigPath)
	if err != nil {
		return err
	}

	res, err := runPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	printInstallSummary(ctx, res)

	return nil
}

// Update re-runs the full pipeline, replacing the extension and the launcher.
func Update(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "update")

	cfg, err := loadAndPreflight(opts.ConfigPath)
	if err != nil {
		return err
	}

	res, err := runPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "Updated to %s v%s (release %s)",
		res.manifest.DisplayName(), res.manifest.DisplayVersion(), res.tag)
	logger.Info(ctx, "Restart Chrome to pick up the new version: ublock-chrome launch")

	return nil
}

// Uninstall removes the private install directory and the deployed bundle.
// Absent targets are reported as not found, never as failures.
func Uninstall(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "uninstall")

	if err := checkOS(); err != nil {
		return err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	targets := []string{
		cfg.InstallDir,
		cfg.InstalledBundlePath(),
	}

	for _, target := range targets {
		if _, err = os.Stat(target); err != nil {
			logger.Infof(ctx, "Not found: %s", target)
			continue
		}

		if err = os.RemoveAll(target); err != nil {
			return fmt.Errorf("remove %s: %w", target, err)
		}

		logger.Infof(ctx, "Removed: %s", target)
	}

	logger.Info(ctx, "Done. uBlock Origin and the launcher have been removed")

	return nil
}

// Launch quits any running Chrome instance and restarts it with the extension
// loaded. Unlike the generated launcher app, the CLI path never prompts; the
// double-click flow keeps its confirmation dialog on purpose.
func Launch(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "launch")

	cfg, err := loadAndPreflight(opts.ConfigPath)
	if err != nil {
		return err
	}

	if err = checkInstalled(cfg); err != nil {
		return err
	}

	ctrl := opts.Controller
	if ctrl == nil {
		ctrl = browser.NewController()
	}

	logger.Info(ctx, "Restarting Chrome with uBlock Origin...")

	if err = browser.QuitAndWait(ctx, ctrl, cfg.ChromeProcessName, cfg.QuitPollInterval, cfg.QuitPollAttempts); err != nil {
		return err
	}

	if err = ctrl.Launch(ctx, cfg.ChromeAppPath, browser.ExtensionArgs(cfg)); err != nil {
		return err
	}

	logger.Info(ctx, "Chrome launched with uBlock Origin enabled")

	return nil
}

// loadAndPreflight loads settings and runs the OS and Chrome checks shared by
// install, update and launch.
func loadAndPreflight(configPath string) (*config.Config, error) {
	if err := checkOS(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if err = checkChrome(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// runPipeline executes resolve -> install extension -> build launcher -> deploy.
func runPipeline(ctx context.Context, cfg *config.Config) (*result, error) {
	logger.Info(ctx, "Fetching latest uBlock Origin release from GitHub...")

	url, tag, err := release.NewResolver(cfg).Resolve(ctx)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Resolved release", "tag", tag)
	logger.Info(ctx, "Downloading and extracting extension...")

	manifest, err := extension.NewInstaller(cfg).Install(ctx, url)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Extension installed",
		"name", manifest.DisplayName(),
		"version", manifest.DisplayVersion(),
		"path", cfg.ExtensionDir())

	logger.Info(ctx, "Creating launcher app...")

	builder := launcher.NewBuilder(cfg)

	bundlePath, err := builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	destination, err := builder.InstallToApplications(ctx, bundlePath)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Launcher app deployed", "path", destination)

	return &result{
		tag:         tag,
		manifest:    manifest,
		destination: destination,
	}, nil
}

// printInstallSummary logs human-readable guidance after a successful install.
func printInstallSummary(ctx context.Context, res *result) {
	var builder strings.Builder

	builder.WriteString("Done! Here's what to do next:\n")
	builder.WriteString("1. Quit Chrome completely (Cmd + Q)\n")
	builder.WriteString("2. Open '")
	builder.WriteString(res.destination)
	builder.WriteString("', or run: ublock-chrome launch\n")
	builder.WriteString("Tip: right-click the Dock icon -> Options -> Keep in Dock\n")
	builder.WriteString("\nThe launcher automatically enables Manifest V2 extensions ")
	builder.WriteString("and loads uBlock Origin into Chrome.\n")
	builder.WriteString("\nOther commands:\n")
	builder.WriteString("ublock-chrome update      Re-download the latest uBlock Origin\n")
	builder.WriteString("ublock-chrome uninstall   Remove everything\n")
	builder.WriteString("ublock-chrome launch      Quit Chrome & relaunch with uBO")

	logger.Infof(ctx, "Installed %s v%s (release %s)",
		res.manifest.DisplayName(), res.manifest.DisplayVersion(), res.tag)
	logger.Info(ctx, builder.String())
}
