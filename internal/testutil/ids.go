package testutil

import "github.com/google/uuid"

// DefaultRunID is used by FixedIDs when no ID is configured.
const DefaultRunID = "run-default"

// IDGenerator hands out verification run IDs.
type IDGenerator interface {
	Generate() string
}

// FixedIDs returns the same ID every time, so stored runs of a scenario
// are byte-identical across executions.
type FixedIDs struct {
	id string
}

// NewFixedIDs creates a generator for id, or DefaultRunID if id is empty.
func NewFixedIDs(id string) *FixedIDs {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedIDs{id: id}
}

// Generate returns the fixed ID.
func (g *FixedIDs) Generate() string {
	return g.id
}

// RandomIDs generates a fresh UUIDv4 per call.
type RandomIDs struct{}

// Generate returns a new random UUID string.
func (RandomIDs) Generate() string {
	return uuid.NewString()
}
