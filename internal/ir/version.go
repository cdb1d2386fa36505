package ir

// Version constants for the tool and its report schema.
const (
	// ReportVersion is the JSON report schema version.
	ReportVersion = "1"

	// ToolVersion is the traitasync release version.
	ToolVersion = "0.1.0"
)
