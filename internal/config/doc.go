// Package config defines the immutable settings shared by every command:
// Chrome's location, the release endpoint, and the installation paths.
//
// Defaults are derived from the user's home directory once at startup; an
// optional YAML file can override individual fields (for example a Chrome
// installed outside /Applications).
package config
