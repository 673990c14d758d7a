package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the fixed paths and launch parameters shared by all commands.
// It is built once at process start and passed by reference into each service,
// so the private install tree and the ~/Applications copy always derive from
// the same values.
type Config struct {
	// ChromeAppPath is the location of the Google Chrome application bundle.
	ChromeAppPath string `yaml:"chrome_app_path"`
	// ChromeProcessName is the exact executable name used for process checks.
	ChromeProcessName string `yaml:"chrome_process_name"`
	// ReleaseURL is the GitHub API endpoint describing the latest uBlock Origin release.
	ReleaseURL string `yaml:"release_url"`
	// InstallDir is the private per-user directory holding the extension and the built bundle.
	InstallDir string `yaml:"install_dir"`
	// ApplicationsDir is the user-visible folder receiving a copy of the launcher bundle.
	ApplicationsDir string `yaml:"applications_dir"`
	// BundleName is the name of the generated launcher application bundle.
	BundleName string `yaml:"bundle_name"`
	// QuitPollInterval is the delay between checks while waiting for Chrome to exit.
	QuitPollInterval time.Duration `yaml:"quit_poll_interval"`
	// QuitPollAttempts is how many times to poll before force-terminating Chrome.
	QuitPollAttempts int `yaml:"quit_poll_attempts"`
}

const (
	// DefaultReleaseURL points at the latest uBlock Origin release descriptor.
	DefaultReleaseURL = "https://api.github.com/repos/gorhill/uBlock/releases/latest"

	// DefaultChromeAppPath is where Chrome lives on a stock macOS setup.
	DefaultChromeAppPath = "/Applications/Google Chrome.app"

	// DefaultChromeProcessName is Chrome's executable name as seen by the process table.
	DefaultChromeProcessName = "Google Chrome"

	// DefaultBundleName is the display name of the generated launcher app.
	DefaultBundleName = "Chrome (uBO).app"

	// DefaultInstallDirname is the private directory under the user's home.
	DefaultInstallDirname = ".ublock-chrome"

	// ExtensionDirname is the subdirectory of InstallDir holding the unpacked extension.
	ExtensionDirname = "extension"

	// ManifestFilename is the file an extension must carry at its root.
	ManifestFilename = "manifest.json"

	// ManifestV2Flag re-enables Manifest V2 extension support in Chrome.
	ManifestV2Flag = "--disable-features=ExtensionManifestV2Unsupported,ExtensionManifestV2Disabled"

	// DefaultQuitPollInterval is the delay between browser shutdown checks.
	DefaultQuitPollInterval = 500 * time.Millisecond

	// DefaultQuitPollAttempts bounds the shutdown wait to 15 seconds total.
	DefaultQuitPollAttempts = 30

	// DefaultFilePermissions is used for generated text artifacts.
	DefaultFilePermissions os.FileMode = 0o644

	// DefaultScriptPermissions is used for the generated launcher script.
	DefaultScriptPermissions os.FileMode = 0o755

	// DefaultDirPermissions is used for directories created by the installer.
	DefaultDirPermissions os.FileMode = 0o755
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errReleaseURLRequired is returned when the release endpoint is missing.
	errReleaseURLRequired = errors.New("release URL must be provided")
	// errInstallDirRequired is returned when the private install directory is missing.
	errInstallDirRequired = errors.New("install directory must be provided")
)

// Default builds the configuration with stock values rooted at the user's home directory.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	return &Config{
		ChromeAppPath:     DefaultChromeAppPath,
		ChromeProcessName: DefaultChromeProcessName,
		ReleaseURL:        DefaultReleaseURL,
		InstallDir:        filepath.Join(home, DefaultInstallDirname),
		ApplicationsDir:   filepath.Join(home, "Applications"),
		BundleName:        DefaultBundleName,
		QuitPollInterval:  DefaultQuitPollInterval,
		QuitPollAttempts:  DefaultQuitPollAttempts,
	}, nil
}

// Load returns the default configuration overlaid with values from the
// provided YAML file. An empty path yields pure defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		return cfg, nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills in defaults for optional ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ReleaseURL == "" {
		return errReleaseURLRequired
	}

	if _, err := url.ParseRequestURI(cfg.ReleaseURL); err != nil {
		return fmt.Errorf("invalid release URL: %w", err)
	}

	if cfg.InstallDir == "" {
		return errInstallDirRequired
	}

	if cfg.ChromeAppPath == "" {
		cfg.ChromeAppPath = DefaultChromeAppPath
	}

	if cfg.ChromeProcessName == "" {
		cfg.ChromeProcessName = DefaultChromeProcessName
	}

	if cfg.BundleName == "" {
		cfg.BundleName = DefaultBundleName
	}

	if cfg.QuitPollInterval <= 0 {
		cfg.QuitPollInterval = DefaultQuitPollInterval
	}

	if cfg.QuitPollAttempts <= 0 {
		cfg.QuitPollAttempts = DefaultQuitPollAttempts
	}

	return nil
}

// ExtensionDir is where the unpacked extension payload lives.
func (c *Config) ExtensionDir() string {
	return filepath.Join(c.InstallDir, ExtensionDirname)
}

// ManifestPath is where the extension manifest must sit after installation.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.ExtensionDir(), ManifestFilename)
}

// BundlePath is the build location of the launcher bundle inside InstallDir.
func (c *Config) BundlePath() string {
	return filepath.Join(c.InstallDir, c.BundleName)
}

// InstalledBundlePath is the user-facing copy of the bundle under ApplicationsDir.
func (c *Config) InstalledBundlePath() string {
	return filepath.Join(c.ApplicationsDir, c.BundleName)
}
