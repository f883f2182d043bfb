package ir

// Version constants stamped into archived runs.
const (
	// FormatVersion is the report format version.
	FormatVersion = "1"

	// ToolVersion is the frontier release.
	ToolVersion = "0.1.0"
)
