package testutil

// FixedIDGenerator returns the same ID on every call. CLI tests use it in
// place of the UUIDv7 trace ID generator so JSON responses compare exactly.
//
// Stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator returns a generator for id. An empty id becomes
// "test-trace-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-trace-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
