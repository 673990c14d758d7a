// Package installer orchestrates the four lifecycle commands: install,
// update, uninstall and launch.
//
// Each command is a fixed sequence over the release, extension, launcher and
// browser services, preceded by preflight checks (macOS host, Chrome present,
// extension installed). Nothing is retried; every failure is terminal for the
// current invocation and a rerun recovers by replacing the installation tree.
package installer
