package installer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/ublock-chrome/internal/config"
	"github.com/oshokin/ublock-chrome/internal/service/browser"
)

// withDarwin pretends the host is macOS for the duration of a test.
func withDarwin(t *testing.T) {
	t.Helper()

	previous := currentOS
	currentOS = "darwin"

	t.Cleanup(func() {
		currentOS = previous
	})
}

// writeSettings persists a test config and returns its path.
func writeSettings(t *testing.T, cfg *config.Config) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(path, cfg))

	return path
}

// testConfig returns a config rooted in temp directories with a fake Chrome bundle.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	chromeApp := filepath.Join(t.TempDir(), "Google Chrome.app")
	require.NoError(t, os.MkdirAll(chromeApp, 0o755))

	return &config.Config{
		ChromeAppPath:    chromeApp,
		ReleaseURL:       config.DefaultReleaseURL,
		InstallDir:       filepath.Join(t.TempDir(), "install"),
		ApplicationsDir:  filepath.Join(t.TempDir(), "apps"),
		QuitPollInterval: time.Millisecond,
		QuitPollAttempts: 3,
	}
}

// scriptedController records lifecycle calls for launch assertions.
type scriptedController struct {
	running      bool
	quitRequests int
	launchedApp  string
	launchedArgs []string
}

func (s *scriptedController) IsRunning(_ string) (bool, error) {
	return s.running, nil
}

func (s *scriptedController) RequestQuit(_ context.Context, _ string) error {
	s.quitRequests++
	s.running = false

	return nil
}

func (s *scriptedController) ForceTerminate(_ context.Context, _ string) error {
	return nil
}

func (s *scriptedController) Launch(_ context.Context, appPath string, args []string) error {
	s.launchedApp = appPath
	s.launchedArgs = args

	return nil
}

var _ browser.Controller = (*scriptedController)(nil)

// TestCheckOS_RejectsOtherSystems fails preflight away from macOS.
func TestCheckOS_RejectsOtherSystems(t *testing.T) {
	previous := currentOS
	currentOS = "linux"

	t.Cleanup(func() {
		currentOS = previous
	})

	err := checkOS()
	require.ErrorIs(t, err, ErrUnsupportedOS)

	err = Install(context.Background(), &Options{})
	require.ErrorIs(t, err, ErrUnsupportedOS)
}

// TestCheckChrome reports a missing Chrome bundle with guidance.
func TestCheckChrome(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	require.NoError(t, checkChrome(cfg))

	cfg.ChromeAppPath = filepath.Join(t.TempDir(), "nowhere.app")

	err := checkChrome(cfg)
	require.ErrorIs(t, err, ErrChromeNotFound)
	require.Contains(t, err.Error(), cfg.ChromeAppPath)
}

// TestLaunch_BeforeInstall fails with a preflight error directing to install.
func TestLaunch_BeforeInstall(t *testing.T) {
	withDarwin(t)

	cfg := testConfig(t)

	err := Launch(context.Background(), &Options{
		ConfigPath: writeSettings(t, cfg),
		Controller: &scriptedController{},
	})
	require.ErrorIs(t, err, ErrNotInstalled)
	require.Contains(t, err.Error(), "ublock-chrome install")
}

// TestLaunch_AfterInstall quits a running Chrome and starts it with exactly
// the two fixed arguments.
func TestLaunch_AfterInstall(t *testing.T) {
	withDarwin(t)

	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.ExtensionDir(), 0o755))
	require.NoError(t, os.WriteFile(cfg.ManifestPath(), []byte(`{"name":"uBlock Origin"}`), 0o644))

	ctrl := &scriptedController{running: true}

	err := Launch(context.Background(), &Options{
		ConfigPath: writeSettings(t, cfg),
		Controller: ctrl,
	})
	require.NoError(t, err)
	require.Equal(t, 1, ctrl.quitRequests)
	require.Equal(t, cfg.ChromeAppPath, ctrl.launchedApp)
	require.Len(t, ctrl.launchedArgs, 2)
	require.Equal(t, config.ManifestV2Flag, ctrl.launchedArgs[0])
	require.Equal(t, "--load-extension="+cfg.ExtensionDir(), ctrl.launchedArgs[1])
}

// TestLaunch_SkipsQuitWhenNotRunning leaves the quit sequence untouched.
func TestLaunch_SkipsQuitWhenNotRunning(t *testing.T) {
	withDarwin(t)

	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.ExtensionDir(), 0o755))
	require.NoError(t, os.WriteFile(cfg.ManifestPath(), []byte(`{}`), 0o644))

	ctrl := &scriptedController{running: false}

	err := Launch(context.Background(), &Options{
		ConfigPath: writeSettings(t, cfg),
		Controller: ctrl,
	})
	require.NoError(t, err)
	require.Zero(t, ctrl.quitRequests)
	require.NotEmpty(t, ctrl.launchedApp)
}

// TestUninstall_NothingInstalled succeeds and reports not-found targets.
func TestUninstall_NothingInstalled(t *testing.T) {
	withDarwin(t)

	cfg := testConfig(t)

	err := Uninstall(context.Background(), &Options{
		ConfigPath: writeSettings(t, cfg),
	})
	require.NoError(t, err)
}

// TestUninstall_RemovesInstallationTree deletes both the private directory
// and the deployed bundle.
func TestUninstall_RemovesInstallationTree(t *testing.T) {
	withDarwin(t)

	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.ExtensionDir(), 0o755))
	require.NoError(t, os.WriteFile(cfg.ManifestPath(), []byte(`{}`), 0o644))
	require.NoError(t, os.MkdirAll(cfg.InstalledBundlePath(), 0o755))

	err := Uninstall(context.Background(), &Options{
		ConfigPath: writeSettings(t, cfg),
	})
	require.NoError(t, err)

	_, err = os.Stat(cfg.InstallDir)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(cfg.InstalledBundlePath())
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestInstall_ChromeMissing stops before any side effects.
func TestInstall_ChromeMissing(t *testing.T) {
	withDarwin(t)

	cfg := testConfig(t)
	cfg.ChromeAppPath = filepath.Join(t.TempDir(), "nowhere.app")

	err := Install(context.Background(), &Options{
		ConfigPath: writeSettings(t, cfg),
	})
	require.ErrorIs(t, err, ErrChromeNotFound)

	_, err = os.Stat(cfg.InstallDir)
	require.ErrorIs(t, err, os.ErrNotExist)
}
