package testutil

// FixedRequestID returns the same request id every time.
//
// Unlike engine.FixedGenerator, which hands out ids in sequence and panics
// when they run out, this generator never runs out. Scenario runs use it
// so log output does not depend on how many requests ran before.
//
// Thread-safety: FixedRequestID is stateless and safe for concurrent use.
type FixedRequestID struct {
	id string
}

// NewFixedRequestID creates a generator for id. An empty id becomes
// "test-request".
func NewFixedRequestID(id string) *FixedRequestID {
	if id == "" {
		id = "test-request"
	}
	return &FixedRequestID{id: id}
}

// Generate returns the fixed id.
func (g *FixedRequestID) Generate() string {
	return g.id
}
