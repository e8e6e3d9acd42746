package ir

// Version constants for the declaration catalog format.
const (
	// DeclVersion is the dialect declaration schema version.
	DeclVersion = "1"

	// EngineVersion is the dynir engine version.
	EngineVersion = "0.1.0"
)
