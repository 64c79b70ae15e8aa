package ir

// Version constants for the exchange format and the recorder.
const (
	// FormatVersion is the exchange document schema version.
	FormatVersion = "1"

	// RecorderVersion is the exemplar recorder version.
	RecorderVersion = "0.1.0"
)
