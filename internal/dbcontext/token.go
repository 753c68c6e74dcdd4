package dbcontext

import (
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator generates the token that tags one SaveChanges call.
//
// The token appears as the "save" attribute of every log record the call
// emits and in its SaveResult, so a caller can match a result to its logs.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 save tokens.
//
// Tokens sort by creation time, so the saves of one process can be ordered
// from the logs alone.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 as a hyphenated string.
//
// Format: "01927b5c-3f2e-7a4b-9c1d-2e3f4a5b6c7d" (36 characters)
//
// Panics if the random source fails.
func (UUIDv7Generator) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("dbcontext: generate save token: " + err.Error())
	}
	return id.String()
}

// FixedGenerator hands out predetermined save tokens, so tests can assert
// on exact SaveResult values, log lines and golden output.
//
// Thread-safety: FixedGenerator is safe for concurrent use.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	next   int
}

// NewFixedGenerator creates a generator that returns tokens in order.
//
// Example:
//
//	gen := NewFixedGenerator("save-1", "save-2")
//	gen.Generate() // "save-1"
//	gen.Generate() // "save-2"
//	gen.Generate() // panic: no save tokens left
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next token. It panics once the tokens run out,
// which means the test saved more often than it planned for.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.next == len(g.tokens) {
		panic("dbcontext: FixedGenerator: no save tokens left")
	}
	token := g.tokens[g.next]
	g.next++
	return token
}
