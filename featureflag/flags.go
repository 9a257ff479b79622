package featureflag

type Flag string

const (
	// Rejects index creation and deletion.
	FlagDisableIndexMutation Flag = "DISABLE_INDEX_MUTATION"

	// Rejects point insertion. Queries keep working.
	FlagReadOnly Flag = "READ_ONLY"

	// Logs every point dropped for being out of an index bounds.
	FlagLogDroppedPoints Flag = "LOG_DROPPED_POINTS"
)
