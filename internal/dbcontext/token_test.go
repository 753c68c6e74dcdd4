package dbcontext

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator(t *testing.T) {
	var gen UUIDv7Generator
	a, b := gen.Generate(), gen.Generate()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("save-1", "save-2")

	assert.Equal(t, "save-1", gen.Generate())
	assert.Equal(t, "save-2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}
