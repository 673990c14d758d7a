package extension

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/ublock-chrome/internal/config"
	"github.com/oshokin/ublock-chrome/internal/logger"
)

var (
	// ErrManifestMissing is returned when no manifest.json exists at the
	// extension root after extraction and flattening.
	ErrManifestMissing = errors.New("manifest.json not found after extraction")
	// errBadHTTPStatus is returned when the archive download responds with a non-OK status.
	errBadHTTPStatus = errors.New("unexpected http status")
	// errUnsafeArchivePath is returned when an archive entry escapes the target directory.
	errUnsafeArchivePath = errors.New("archive entry escapes target directory")
)

// Manifest carries the extension fields shown to the user. Everything else
// in manifest.json is ignored.
type Manifest struct {
	// Name is the extension's declared display name.
	Name string `json:"name"`
	// Version is the extension's declared version.
	Version string `json:"version"`
}

// DisplayName returns the declared name or a placeholder when absent.
func (m *Manifest) DisplayName() string {
	if m == nil || m.Name == "" {
		return "uBlock Origin"
	}

	return m.Name
}

// DisplayVersion returns the declared version or a placeholder when absent.
func (m *Manifest) DisplayVersion() string {
	if m == nil || m.Version == "" {
		return "?"
	}

	return m.Version
}

// Installer downloads and unpacks the extension archive into the configured
// extension directory.
type Installer struct {
	cfg *config.Config
}

// NewInstaller returns an installer bound to the configured extension directory.
func NewInstaller(cfg *config.Config) *Installer {
	return &Installer{cfg: cfg}
}

// Install replaces the extension directory with the archive's contents.
// A prior install, if any, is removed first. The archive is downloaded to a
// temporary file which is removed on every exit path. The archive layout is
// normalized so manifest.json ends up at the extension root, and the parsed
// manifest is returned.
func (i *Installer) Install(ctx context.Context, url string) (*Manifest, error) {
	dir := i.cfg.ExtensionDir()

	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("remove previous extension: %w", err)
	}

	if err := os.MkdirAll(dir, config.DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("create extension directory: %w", err)
	}

	archivePath, err := i.download(ctx, url)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = os.Remove(archivePath)
	}()

	if err = extractZip(archivePath, dir); err != nil {
		return nil, fmt.Errorf("extract archive: %w", err)
	}

	if err = flatten(dir); err != nil {
		return nil, fmt.Errorf("normalize layout: %w", err)
	}

	manifestPath := i.cfg.ManifestPath()
	if _, err = os.Stat(manifestPath); err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, ErrManifestMissing)
	}

	return readManifest(manifestPath)
}

// download fetches the archive into a temporary file and returns its path.
func (i *Installer) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", err
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s, %s: %w", url, response.Status, errBadHTTPStatus)
	}

	archive, err := os.CreateTemp("", "ublock-chrome-*.zip")
	if err != nil {
		return "", fmt.Errorf("create temporary archive: %w", err)
	}

	archivePath := archive.Name()

	_, err = io.Copy(archive, response.Body)
	if closeErr := archive.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(archivePath)
		return "", fmt.Errorf("download archive: %w", err)
	}

	logger.DebugKV(ctx, "Downloaded archive", "path", archivePath)

	return archivePath, nil
}

// extractZip unpacks the archive's full contents into dir.
func extractZip(archivePath, dir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}

	defer func() {
		_ = reader.Close()
	}()

	for _, file := range reader.File {
		if err = extractEntry(file, dir); err != nil {
			return err
		}
	}

	return nil
}

// extractEntry writes a single archive entry under dir, rejecting paths that
// would escape it.
func extractEntry(file *zip.File, dir string) error {
	target := filepath.Join(dir, filepath.Clean(file.Name))
	if !strings.HasPrefix(target, dir+string(os.PathSeparator)) {
		return fmt.Errorf("%s: %w", file.Name, errUnsafeArchivePath)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, config.DefaultDirPermissions)
	}

	if err := os.MkdirAll(filepath.Dir(target), config.DefaultDirPermissions); err != nil {
		return err
	}

	source, err := file.Open()
	if err != nil {
		return err
	}

	defer func() {
		_ = source.Close()
	}()

	output, err := os.OpenFile(filepath.Clean(target), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
	if err != nil {
		return err
	}

	_, err = io.Copy(output, source) //nolint:gosec // Archive comes from the pinned release endpoint.
	if closeErr := output.Close(); err == nil {
		err = closeErr
	}

	return err
}

// flatten moves the payload up one level when the archive wrapped it in a
// single named folder carrying the manifest. Running it on an already-flat
// tree is a no-op.
func flatten(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}

	subdir := filepath.Join(dir, entries[0].Name())
	if _, err = os.Stat(filepath.Join(subdir, config.ManifestFilename)); err != nil {
		return nil //nolint:nilerr // No manifest inside means nothing to flatten.
	}

	children, err := os.ReadDir(subdir)
	if err != nil {
		return err
	}

	for _, child := range children {
		oldPath := filepath.Join(subdir, child.Name())
		newPath := filepath.Join(dir, child.Name())

		if err = os.Rename(oldPath, newPath); err != nil {
			return err
		}
	}

	return os.Remove(subdir)
}

// readManifest parses the display fields from the extension manifest.
func readManifest(path string) (*Manifest, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err = json.Unmarshal(contents, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	return &manifest, nil
}
