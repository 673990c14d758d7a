package browser

import (
	"context"
	"time"

	"github.com/oshokin/ublock-chrome/internal/logger"
)

// QuitAndWait stops the named application if it is running: it requests a
// graceful quit, polls for process exit every interval up to attempts, and
// force-terminates exactly once if the deadline elapses. When the process is
// not running it does nothing at all.
func QuitAndWait(ctx context.Context, ctrl Controller, name string, interval time.Duration, attempts int) error {
	running, err := ctrl.IsRunning(name)
	if err != nil {
		return err
	}

	if !running {
		return nil
	}

	logger.Infof(ctx, "Quitting %s...", name)

	if err = ctrl.RequestQuit(ctx, name); err != nil {
		return err
	}

	for i := 0; i < attempts; i++ {
		if err = sleep(ctx, interval); err != nil {
			return err
		}

		running, err = ctrl.IsRunning(name)
		if err != nil {
			return err
		}

		if !running {
			logger.Infof(ctx, "%s stopped", name)
			return nil
		}
	}

	logger.Infof(ctx, "%s did not stop in time, force-terminating", name)

	if err = ctrl.ForceTerminate(ctx, name); err != nil {
		return err
	}

	// Give the OS a moment to reap the killed process.
	return sleep(ctx, interval)
}

// sleep waits for the duration or until the context is canceled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
