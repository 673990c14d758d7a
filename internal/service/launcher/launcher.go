package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/ublock-chrome/internal/config"
	"github.com/oshokin/ublock-chrome/internal/logger"
)

const (
	// BundleIdentifier is the CFBundleIdentifier of the generated launcher.
	BundleIdentifier = "com.ublock-chrome.launcher"

	// bundleVersion is the CFBundleVersion of the generated launcher.
	bundleVersion = "1.0"

	// minimumOSVersion is the oldest macOS the launcher declares support for.
	minimumOSVersion = "10.15"

	// scriptName is the bundle's executable entry point.
	scriptName = "launch.sh"

	// iconName references the bundle icon, without extension, in Info.plist.
	iconName = "AppIcon"

	// iconFilename is the icon file placed under Contents/Resources.
	iconFilename = "AppIcon.icns"

	// chromeIconRelPath locates Chrome's own icon inside its bundle.
	chromeIconRelPath = "Contents/Resources/app.icns"
)

// Builder generates the launcher application bundle and deploys it to the
// user's Applications folder.
type Builder struct {
	cfg *config.Config
}

// NewBuilder returns a builder bound to the configured bundle locations.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// Build replaces the bundle under the private install directory with a fresh
// one: generated launch script, Info.plist, and a best-effort copy of
// Chrome's icon. It returns the bundle path.
func (b *Builder) Build(ctx context.Context) (string, error) {
	bundlePath := b.cfg.BundlePath()
	contentsDir := filepath.Join(bundlePath, "Contents")
	macosDir := filepath.Join(contentsDir, "MacOS")
	resourcesDir := filepath.Join(contentsDir, "Resources")

	if err := os.RemoveAll(bundlePath); err != nil {
		return "", fmt.Errorf("remove previous bundle: %w", err)
	}

	for _, dir := range []string{macosDir, resourcesDir} {
		if err := os.MkdirAll(dir, config.DefaultDirPermissions); err != nil {
			return "", fmt.Errorf("create bundle directory: %w", err)
		}
	}

	script, err := RenderScript(ScriptParams{
		ChromeAppPath:     b.cfg.ChromeAppPath,
		ProcessName:       b.cfg.ChromeProcessName,
		BundleDisplayName: bundleDisplayName(b.cfg.BundleName),
		ManifestV2Flag:    config.ManifestV2Flag,
		ExtensionDir:      b.cfg.ExtensionDir(),
		PollAttempts:      b.cfg.QuitPollAttempts,
	})
	if err != nil {
		return "", fmt.Errorf("render launch script: %w", err)
	}

	scriptPath := filepath.Join(macosDir, scriptName)
	if err = os.WriteFile(scriptPath, []byte(script), config.DefaultScriptPermissions); err != nil {
		return "", fmt.Errorf("write launch script: %w", err)
	}

	plist, err := RenderPlist(PlistParams{
		Executable:       scriptName,
		Identifier:       BundleIdentifier,
		Name:             bundleDisplayName(b.cfg.BundleName),
		Version:          bundleVersion,
		IconName:         iconName,
		MinimumOSVersion: minimumOSVersion,
	})
	if err != nil {
		return "", fmt.Errorf("render Info.plist: %w", err)
	}

	plistPath := filepath.Join(contentsDir, "Info.plist")
	if err = os.WriteFile(plistPath, []byte(plist), config.DefaultFilePermissions); err != nil {
		return "", fmt.Errorf("write Info.plist: %w", err)
	}

	b.copyChromeIcon(ctx, resourcesDir)

	return bundlePath, nil
}

// InstallToApplications deep-copies the freshly built bundle into the user's
// Applications folder, replacing any prior copy, and returns the destination.
func (b *Builder) InstallToApplications(ctx context.Context, bundlePath string) (string, error) {
	if err := os.MkdirAll(b.cfg.ApplicationsDir, config.DefaultDirPermissions); err != nil {
		return "", fmt.Errorf("create applications directory: %w", err)
	}

	destination := b.cfg.InstalledBundlePath()
	if err := os.RemoveAll(destination); err != nil {
		return "", fmt.Errorf("remove previous bundle copy: %w", err)
	}

	if err := copyTree(bundlePath, destination); err != nil {
		return "", fmt.Errorf("copy bundle to applications: %w", err)
	}

	logger.DebugKV(ctx, "Deployed launcher bundle", "path", destination)

	return destination, nil
}

// copyChromeIcon borrows Chrome's icon for the bundle. Absence or failure is
// not an error; the launcher works without it.
func (b *Builder) copyChromeIcon(ctx context.Context, resourcesDir string) {
	source := filepath.Join(b.cfg.ChromeAppPath, filepath.FromSlash(chromeIconRelPath))
	if _, err := os.Stat(source); err != nil {
		logger.DebugKV(ctx, "Chrome icon not found, skipping", "path", source)
		return
	}

	target := filepath.Join(resourcesDir, iconFilename)
	if err := copyFile(source, target, config.DefaultFilePermissions); err != nil {
		logger.DebugKV(ctx, "Could not copy Chrome icon", "error", err)
	}
}

// bundleDisplayName strips the .app extension for titles and plist names.
func bundleDisplayName(bundleName string) string {
	ext := filepath.Ext(bundleName)
	if ext == ".app" {
		return bundleName[:len(bundleName)-len(ext)]
	}

	return bundleName
}

// copyTree recursively copies src into dst, preserving file modes so the two
// bundle trees stay byte-identical.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relative, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, relative)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}

		return copyFile(path, target, info.Mode().Perm())
	})
}

// copyFile copies a single file with the requested mode.
func copyFile(src, dst string, mode os.FileMode) error {
	source, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = source.Close()
	}()

	output, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	_, err = io.Copy(output, source)
	if closeErr := output.Close(); err == nil {
		err = closeErr
	}

	return err
}
