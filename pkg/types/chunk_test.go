package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validChunk() CodeChunk {
	return CodeChunk{
		ID:        "fn_main.go_1_5",
		Content:   "func main() {}",
		FilePath:  "main.go",
		StartLine: 1,
		EndLine:   5,
		Language:  LangGo,
	}
}

func TestCodeChunkValidate(t *testing.T) {
	t.Run("valid chunk passes", func(t *testing.T) {
		c := validChunk()
		require.NoError(t, c.Validate())
	})

	t.Run("empty id rejected", func(t *testing.T) {
		c := validChunk()
		c.ID = ""
		assert.Error(t, c.Validate())
	})

	t.Run("empty content rejected", func(t *testing.T) {
		c := validChunk()
		c.Content = ""
		assert.Error(t, c.Validate())
	})

	t.Run("empty file path rejected", func(t *testing.T) {
		c := validChunk()
		c.FilePath = ""
		assert.Error(t, c.Validate())
	})

	t.Run("zero line numbers rejected", func(t *testing.T) {
		c := validChunk()
		c.StartLine = 0
		assert.Error(t, c.Validate())
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		c := validChunk()
		c.StartLine = 10
		c.EndLine = 5
		assert.Error(t, c.Validate())
	})

	t.Run("single line chunk allowed", func(t *testing.T) {
		c := validChunk()
		c.StartLine = 3
		c.EndLine = 3
		assert.NoError(t, c.Validate())
	})
}

func TestCodeChunkKey(t *testing.T) {
	c := validChunk()
	c.FilePath = "src/auth.rs"
	c.StartLine = 42
	assert.Equal(t, "src/auth.rs:42", c.Key())

	r := SearchResult{FilePath: "src/auth.rs", StartLine: 42}
	assert.Equal(t, c.Key(), r.Key(), "chunk and result keys must agree")
}

func TestEmbeddingValidate(t *testing.T) {
	e := Embedding{Vector: []float32{0.1, 0.2}, Model: "local", Dimensions: 2}
	require.NoError(t, e.Validate())

	e.Dimensions = 3
	assert.Error(t, e.Validate())

	e = Embedding{Model: "local"}
	assert.Error(t, e.Validate())
}
