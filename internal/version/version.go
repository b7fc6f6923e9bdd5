package version

// Set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

// String returns a human-readable version string.
func String() string {
	return Version + " (commit: " + Commit + ")"
}
