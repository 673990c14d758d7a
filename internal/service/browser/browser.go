package browser

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/ublock-chrome/internal/config"
)

// Controller is the narrow process-control capability the lifecycle commands
// depend on. The quit/poll logic is written against this interface so it can
// be exercised with a fake in tests.
type Controller interface {
	// IsRunning reports whether a process with the exact executable name exists.
	IsRunning(name string) (bool, error)
	// RequestQuit asks the application to quit gracefully.
	RequestQuit(ctx context.Context, name string) error
	// ForceTerminate kills the process by exact name.
	ForceTerminate(ctx context.Context, name string) error
	// Launch starts the application asynchronously with the provided arguments.
	Launch(ctx context.Context, appPath string, args []string) error
}

// systemController drives real processes through the process table and the
// macOS scripting bridge.
type systemController struct{}

// NewController returns the Controller backed by the host OS.
func NewController() Controller {
	return &systemController{}
}

// IsRunning scans the process table for an exact executable-name match.
func (systemController) IsRunning(name string) (bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		if process.Executable() == name {
			return true, nil
		}
	}

	return false, nil
}

// RequestQuit delivers a graceful quit request via the AppleScript bridge.
// The application may ignore it; callers poll and escalate.
func (systemController) RequestQuit(ctx context.Context, name string) error {
	script := fmt.Sprintf("tell application %q to quit", name)

	// osascript exits non-zero when the app is not scriptable or already gone;
	// the poll loop decides what happens next.
	_ = exec.CommandContext(ctx, "osascript", "-e", script).Run()

	return nil
}

// ForceTerminate sends SIGKILL to processes matching the exact name.
func (systemController) ForceTerminate(ctx context.Context, name string) error {
	if err := exec.CommandContext(ctx, "pkill", "-9", "-x", name).Run(); err != nil {
		return fmt.Errorf("force-terminate %s: %w", name, err)
	}

	return nil
}

// Launch opens the application bundle with arguments and does not wait for it.
func (systemController) Launch(ctx context.Context, appPath string, args []string) error {
	openArgs := append([]string{"-a", appPath, "--args"}, args...)

	if err := exec.CommandContext(ctx, "open", openArgs...).Start(); err != nil {
		return fmt.Errorf("launch %s: %w", appPath, err)
	}

	return nil
}

// ExtensionArgs returns the exact two startup arguments Chrome needs:
// the Manifest V2 feature flag and the extension load path.
func ExtensionArgs(cfg *config.Config) []string {
	return []string{
		config.ManifestV2Flag,
		"--load-extension=" + cfg.ExtensionDir(),
	}
}
