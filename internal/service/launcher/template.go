package launcher

import (
	"strings"
	"text/template"
)

// ScriptParams feeds the launcher shell-script template.
type ScriptParams struct {
	// ChromeAppPath is the Chrome application bundle to launch.
	ChromeAppPath string
	// ProcessName is the exact executable name used for pgrep/pkill.
	ProcessName string
	// BundleDisplayName titles the confirmation dialog.
	BundleDisplayName string
	// ManifestV2Flag re-enables Manifest V2 extensions.
	ManifestV2Flag string
	// ExtensionDir is the absolute path of the installed extension.
	ExtensionDir string
	// PollAttempts bounds the graceful-quit wait loop.
	PollAttempts int
}

// PlistParams feeds the Info.plist template.
type PlistParams struct {
	// Executable is the bundle's entry point inside Contents/MacOS.
	Executable string
	// Identifier is the CFBundleIdentifier value.
	Identifier string
	// Name is used for both CFBundleName and CFBundleDisplayName.
	Name string
	// Version is the CFBundleVersion value.
	Version string
	// IconName references the icon file in Contents/Resources, without extension.
	IconName string
	// MinimumOSVersion is the LSMinimumSystemVersion value.
	MinimumOSVersion string
}

// scriptTemplate generates the bundle's executable entry point. Double-clicking
// the app runs this script, which prompts before quitting a running Chrome;
// the CLI `launch` command deliberately skips the prompt.
var scriptTemplate = template.Must(template.New("launch.sh").Parse(`#!/bin/bash
# ---------------------------------------------------------------
# {{.BundleDisplayName}} — auto-generated by ublock-chrome
# Launches Google Chrome with Manifest-V2 flags + uBlock Origin
# ---------------------------------------------------------------

CHROME_APP="{{.ChromeAppPath}}"

# Chrome ignores startup flags when it is already running.
# Offer to quit & relaunch.
if pgrep -x "{{.ProcessName}}" > /dev/null 2>&1; then
    CHOICE=$(osascript -e '
        display dialog "Chrome is already running.\n\nFlags are only applied on a fresh launch. Quit Chrome and relaunch with uBlock Origin?" \
            buttons {"Cancel", "Quit Chrome & Relaunch"} \
            default button "Quit Chrome & Relaunch" \
            with title "{{.BundleDisplayName}}" \
            with icon caution' -e 'button returned of result' 2>/dev/null)

    if [ "$CHOICE" != "Quit Chrome & Relaunch" ]; then
        exit 0
    fi

    osascript -e 'tell application "{{.ProcessName}}" to quit' 2>/dev/null

    # Wait for Chrome to exit gracefully.
    for i in $(seq 1 {{.PollAttempts}}); do
        pgrep -x "{{.ProcessName}}" > /dev/null 2>&1 || break
        sleep 0.5
    done

    # Force-kill stragglers.
    if pgrep -x "{{.ProcessName}}" > /dev/null 2>&1; then
        pkill -9 -x "{{.ProcessName}}"
        sleep 1
    fi
fi

open -a "$CHROME_APP" --args \
    {{.ManifestV2Flag}} \
    --load-extension="{{.ExtensionDir}}"
`))

// plistTemplate generates the bundle's metadata descriptor.
var plistTemplate = template.Must(template.New("Info.plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN"
  "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>CFBundleExecutable</key>      <string>{{.Executable}}</string>
    <key>CFBundleIdentifier</key>      <string>{{.Identifier}}</string>
    <key>CFBundleName</key>            <string>{{.Name}}</string>
    <key>CFBundleDisplayName</key>     <string>{{.Name}}</string>
    <key>CFBundleVersion</key>         <string>{{.Version}}</string>
    <key>CFBundlePackageType</key>     <string>APPL</string>
    <key>CFBundleIconFile</key>        <string>{{.IconName}}</string>
    <key>LSMinimumSystemVersion</key>  <string>{{.MinimumOSVersion}}</string>
    <key>NSHighResolutionCapable</key> <true/>
</dict>
</plist>
`))

// RenderScript produces the launcher shell-script text.
func RenderScript(params ScriptParams) (string, error) {
	var builder strings.Builder
	if err := scriptTemplate.Execute(&builder, params); err != nil {
		return "", err
	}

	return builder.String(), nil
}

// RenderPlist produces the Info.plist text.
func RenderPlist(params PlistParams) (string, error) {
	var builder strings.Builder
	if err := plistTemplate.Execute(&builder, params); err != nil {
		return "", err
	}

	return builder.String(), nil
}
