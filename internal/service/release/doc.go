// Package release resolves the latest uBlock Origin release from GitHub.
//
// It fetches the "latest" release descriptor and picks the Chromium build
// archive among its assets. Nothing is retried; a failed or malformed fetch
// is terminal for the current command.
package release
