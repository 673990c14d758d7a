// Package launcher builds the "Chrome (uBO)" application bundle.
//
// The bundle's entry point is a generated shell script that restarts Chrome
// with Manifest V2 support and the installed extension loaded. The bundle is
// built under the private install directory and deployed as a verbatim copy
// into the user's Applications folder; the two trees never diverge because
// regeneration always replaces both.
package launcher
