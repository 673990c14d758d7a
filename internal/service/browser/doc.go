// Package browser controls the Chrome process: presence checks via the
// process table, graceful quit through the AppleScript bridge, forced
// termination, and detached relaunch with the extension flags.
package browser
