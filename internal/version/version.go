// Package version exposes build information set at link time.
package version

// Version is overridden via -ldflags "-X .../internal/version.Version=...".
var Version = "dev"
