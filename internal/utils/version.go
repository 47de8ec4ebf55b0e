package utils

import "fmt"

// Build information, set via -ldflags "-X github.com/raven-betanet/elfhdr/internal/utils.Version=..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// GetVersionString returns a formatted version string
func GetVersionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}

// GetVersionInfo returns the build information as key/value pairs for JSON output
func GetVersionInfo() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"built":   Date,
	}
}
