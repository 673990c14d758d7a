package integration

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/ublock-chrome/internal/config"
	"github.com/oshokin/ublock-chrome/internal/service/extension"
	"github.com/oshokin/ublock-chrome/internal/service/launcher"
	"github.com/oshokin/ublock-chrome/internal/service/release"
)

// releaseServer serves a GitHub-style release descriptor plus its archive and
// lets tests swap the archive between runs.
type releaseServer struct {
	server  *httptest.Server
	tag     string
	archive []byte
}

// newReleaseServer starts the fake release index.
func newReleaseServer(t *testing.T) *releaseServer {
	t.Helper()

	rs := &releaseServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
		descriptor := map[string]any{
			"tag_name": rs.tag,
			"assets": []map[string]string{
				{
					"name":                 "uBlock0_" + rs.tag + ".chromium.zip",
					"browser_download_url": rs.server.URL + "/download/chromium.zip",
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(descriptor))
	})
	mux.HandleFunc("/download/chromium.zip", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(rs.archive)
	})

	rs.server = httptest.NewServer(mux)
	t.Cleanup(rs.server.Close)

	return rs
}

// publish makes the server offer the given tag and archive as latest.
func (rs *releaseServer) publish(t *testing.T, tag string, files map[string]string) {
	t.Helper()

	var buf bytes.Buffer

	writer := zip.NewWriter(&buf)
	for name, contents := range files {
		entry, err := writer.Create(name)
		require.NoError(t, err)

		_, err = entry.Write([]byte(contents))
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	rs.tag = tag
	rs.archive = buf.Bytes()
}

// newTestConfig roots every path in temp directories and fakes a Chrome
// bundle complete with icon.
func newTestConfig(t *testing.T, releaseURL string) *config.Config {
	t.Helper()

	chromeApp := filepath.Join(t.TempDir(), "Google Chrome.app")
	iconDir := filepath.Join(chromeApp, "Contents", "Resources")
	require.NoError(t, os.MkdirAll(iconDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(iconDir, "app.icns"), []byte("icon"), 0o644))

	return &config.Config{
		ChromeAppPath:     chromeApp,
		ChromeProcessName: config.DefaultChromeProcessName,
		ReleaseURL:        releaseURL,
		InstallDir:        filepath.Join(t.TempDir(), "install"),
		ApplicationsDir:   filepath.Join(t.TempDir(), "apps"),
		BundleName:        config.DefaultBundleName,
		QuitPollAttempts:  config.DefaultQuitPollAttempts,
	}
}

// runPipeline executes resolve -> install -> build -> deploy against the
// fake release server.
func runPipeline(t *testing.T, cfg *config.Config) *extension.Manifest {
	t.Helper()

	ctx := context.Background()

	url, _, err := release.NewResolver(cfg).Resolve(ctx)
	require.NoError(t, err)

	manifest, err := extension.NewInstaller(cfg).Install(ctx, url)
	require.NoError(t, err)

	builder := launcher.NewBuilder(cfg)

	bundlePath, err := builder.Build(ctx)
	require.NoError(t, err)

	_, err = builder.InstallToApplications(ctx, bundlePath)
	require.NoError(t, err)

	return manifest
}

// TestInstallFlow_BuildsWholeTree runs the complete install pipeline against
// a fake release server and verifies every element of the installation tree.
func TestInstallFlow_BuildsWholeTree(t *testing.T) {
	t.Parallel()

	rs := newReleaseServer(t)
	rs.publish(t, "1.58.0", map[string]string{
		"uBlock0.chromium/manifest.json":    `{"name": "uBlock Origin", "version": "1.58.0"}`,
		"uBlock0.chromium/js/background.js": "// background",
	})

	cfg := newTestConfig(t, rs.server.URL+"/releases/latest")
	manifest := runPipeline(t, cfg)

	require.Equal(t, "uBlock Origin", manifest.Name)
	require.Equal(t, "1.58.0", manifest.Version)

	// Extension unpacked and flattened.
	_, err := os.Stat(cfg.ManifestPath())
	require.NoError(t, err)

	// Bundle artifacts at the private location.
	for _, relative := range []string{
		"Contents/MacOS/launch.sh",
		"Contents/Info.plist",
		"Contents/Resources/AppIcon.icns",
	} {
		_, err = os.Stat(filepath.Join(cfg.BundlePath(), filepath.FromSlash(relative)))
		require.NoError(t, err)
	}

	// Deployed copy present and carrying the same entry point.
	private, err := os.ReadFile(filepath.Join(cfg.BundlePath(), "Contents", "MacOS", "launch.sh"))
	require.NoError(t, err)

	deployed, err := os.ReadFile(filepath.Join(cfg.InstalledBundlePath(), "Contents", "MacOS", "launch.sh"))
	require.NoError(t, err)
	require.Equal(t, private, deployed)
	require.Contains(t, string(deployed), config.ManifestV2Flag)
	require.Contains(t, string(deployed), cfg.ExtensionDir())
}

// TestUpdateFlow_ReplacesEverything runs the pipeline twice and verifies
// files from the first release that the second one dropped are gone.
func TestUpdateFlow_ReplacesEverything(t *testing.T) {
	t.Parallel()

	rs := newReleaseServer(t)
	rs.publish(t, "1.58.0", map[string]string{
		"manifest.json": `{"name": "uBlock Origin", "version": "1.58.0"}`,
		"legacy.js":     "// dropped in the next release",
	})

	cfg := newTestConfig(t, rs.server.URL+"/releases/latest")

	manifest := runPipeline(t, cfg)
	require.Equal(t, "1.58.0", manifest.Version)

	_, err := os.Stat(filepath.Join(cfg.ExtensionDir(), "legacy.js"))
	require.NoError(t, err)

	// Two consecutive updates; the new archive no longer ships legacy.js.
	rs.publish(t, "1.59.0", map[string]string{
		"manifest.json": `{"name": "uBlock Origin", "version": "1.59.0"}`,
		"fresh.js":      "// new file",
	})

	for i := 0; i < 2; i++ {
		manifest = runPipeline(t, cfg)
	}

	require.Equal(t, "1.59.0", manifest.Version)

	_, err = os.Stat(filepath.Join(cfg.ExtensionDir(), "legacy.js"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(filepath.Join(cfg.ExtensionDir(), "fresh.js"))
	require.NoError(t, err)
}
