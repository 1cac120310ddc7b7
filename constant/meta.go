// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Finplay is the canonical application identifier used for filesystem paths and CLI branding.
	Finplay = "finplay"

	// Version is the current application semantic version string.
	Version = "0.3.0"

	// UserAgent is the default HTTP User-Agent string sent to the media server.
	UserAgent = Finplay + "/" + Version
)

// Build metadata, overridden at link time with -ldflags "-X".
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
