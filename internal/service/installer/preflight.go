package installer

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/oshokin/ublock-chrome/internal/config"
)

var (
	// ErrUnsupportedOS is returned when running anywhere but macOS.
	ErrUnsupportedOS = errors.New("ublock-chrome is macOS-only")
	// ErrChromeNotFound is returned when the Chrome application bundle is absent.
	ErrChromeNotFound = errors.New("Google Chrome not found")
	// ErrNotInstalled is returned when launch is attempted before install.
	ErrNotInstalled = errors.New("uBlock Origin is not installed yet")
)

// currentOS is overridable in tests to exercise preflight behavior off-host.
var currentOS = runtime.GOOS

// checkOS ensures the host is macOS.
func checkOS() error {
	if currentOS != "darwin" {
		return fmt.Errorf("%w (host OS: %s)", ErrUnsupportedOS, currentOS)
	}

	return nil
}

// checkChrome ensures the Chrome application bundle exists.
func checkChrome(cfg *config.Config) error {
	if _, err := os.Stat(cfg.ChromeAppPath); err != nil {
		return fmt.Errorf("%w at %s; install Chrome first, or set chrome_app_path in settings",
			ErrChromeNotFound, cfg.ChromeAppPath)
	}

	return nil
}

// checkInstalled ensures the extension directory holds a manifest at its root.
func checkInstalled(cfg *config.Config) error {
	if _, err := os.Stat(cfg.ManifestPath()); err != nil {
		return fmt.Errorf("%w; run: ublock-chrome install", ErrNotInstalled)
	}

	return nil
}
