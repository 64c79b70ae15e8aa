package recorder

// Stats counts what a Recorder did with the events it received.
type Stats struct {
	// Pending is the number of entries awaiting their exit.
	Pending int `json:"pending"`

	// Accepted is the number of distinct examples stored.
	Accepted int `json:"accepted"`

	// Duplicates counts completed invocations discarded as already seen.
	Duplicates int `json:"duplicates"`

	// Capped counts novel invocations discarded by the per-function cap.
	Capped int `json:"capped"`

	// Filtered counts events rejected by the filter. A call turned away by
	// Wants counts once.
	Filtered int `json:"filtered"`

	// DroppedExits counts exits with no matching pending entry.
	DroppedExits int `json:"dropped_exits"`

	// Orphaned counts entries discarded because the session ended first.
	Orphaned int `json:"orphaned"`

	// Failures counts events dropped because handling them failed.
	Failures int `json:"failures"`

	// SinkErrors counts sink calls that returned an error.
	SinkErrors int `json:"sink_errors"`
}
