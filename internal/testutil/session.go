package testutil

// FixedSessionGenerator returns the same journal session id every time.
//
// The same scenario journaled with a FixedSessionGenerator produces
// byte-identical rows, which golden comparisons rely on.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator for id.
// If id is empty, Generate returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
//
// Implements journal.SessionGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
