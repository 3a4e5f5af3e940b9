package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codectx/codectx-mcp/pkg/types"
)

func TestChunkFileGoAST(t *testing.T) {
	src := `package sample

import "fmt"

// Greet prints a greeting.
func Greet(name string) {
	fmt.Println("hello", name)
}

type Greeter struct {
	Name string
}

func (g *Greeter) Greet() {
	fmt.Println("hello", g.Name)
}
`
	c := New(0)
	chunks := c.ChunkFile("sample.go", []byte(src))
	require.Len(t, chunks, 3, "imports are skipped, decls chunked")

	greet := chunks[0]
	assert.Equal(t, "function_sample.go_5_8", greet.ID)
	assert.Equal(t, 5, greet.StartLine, "doc comment opens the span")
	assert.Equal(t, 8, greet.EndLine)
	assert.Contains(t, greet.Content, "// Greet prints a greeting.")
	assert.Equal(t, types.LangGo, greet.Language)
	assert.Equal(t, types.ChunkTypeAST, greet.Metadata[types.MetaChunkType])
	assert.Equal(t, "function", greet.Metadata[types.MetaNodeKind])
	assert.Equal(t, "Greet", greet.Metadata[types.MetaSymbolName])

	typ := chunks[1]
	assert.Equal(t, "type", typ.Metadata[types.MetaNodeKind])
	assert.Equal(t, "Greeter", typ.Metadata[types.MetaSymbolName])

	method := chunks[2]
	assert.Equal(t, "method", method.Metadata[types.MetaNodeKind])
	assert.Equal(t, "Greeter.Greet", method.Metadata[types.MetaSymbolName])

	for _, chunk := range chunks {
		assert.NoError(t, chunk.Validate())
	}
}

func TestChunkFileGoSingleLineDeclSuppressed(t *testing.T) {
	src := `package sample

var answer = 42

func Long() {
	_ = answer
}
`
	c := New(0)
	chunks := c.ChunkFile("sample.go", []byte(src))
	require.Len(t, chunks, 1)
	assert.Equal(t, "function", chunks[0].Metadata[types.MetaNodeKind])
}

func TestChunkFileRustBraceBalancing(t *testing.T) {
	src := `fn first() {
    let x = 1;
    println!("{}", x);
}

pub fn second(value: u32) -> u32 {
    value * 2
}
`
	c := New(0)
	chunks := c.ChunkFile("lib.rs", []byte(src))
	require.Len(t, chunks, 2)

	assert.Equal(t, "lib.rs_1_4", chunks[0].ID)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 4, chunks[0].EndLine)
	assert.Equal(t, types.LangRust, chunks[0].Language)
	assert.Equal(t, types.ChunkTypeFallback, chunks[0].Metadata[types.MetaChunkType])

	assert.Equal(t, 6, chunks[1].StartLine)
	assert.Contains(t, chunks[1].Content, "pub fn second")
}

func TestChunkFileRustNestedBraces(t *testing.T) {
	src := `fn outer() {
    if cond {
        inner();
    }
    done();
}
`
	c := New(0)
	chunks := c.ChunkFile("nested.rs", []byte(src))
	require.Len(t, chunks, 1, "inner braces do not close the block early")
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 6, chunks[0].EndLine)
}

func TestChunkFilePythonIndent(t *testing.T) {
	src := `def first():
    x = 1
    return x


def second(value):
    if value:
        return value * 2
    return 0

TOP_LEVEL = "assignment between defs"

class Widget:
    def render(self):
        return "<div/>"
`
	c := New(0)
	chunks := c.ChunkFile("app.py", []byte(src))
	require.Len(t, chunks, 3)

	assert.Contains(t, chunks[0].Content, "def first()")
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Contains(t, chunks[1].Content, "def second(value)")
	assert.Contains(t, chunks[2].Content, "class Widget:")
	assert.NotContains(t, chunks[1].Content, "TOP_LEVEL", "dedent closes the block")
}

func TestChunkFileMinSizeSuppression(t *testing.T) {
	src := "fn a() {\n}\n"
	c := New(0)
	chunks := c.ChunkFile("tiny.rs", []byte(src))
	assert.Empty(t, chunks, "blocks under the minimum byte size are dropped")
}

func TestChunkFileCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "fn number_%02d() {\n    println!(\"%d\");\n    done();\n}\n", i, i)
	}

	c := New(3)
	chunks := c.ChunkFile("many.rs", []byte(b.String()))
	require.Len(t, chunks, 3, "cap keeps the first chunks in source order")
	assert.Contains(t, chunks[0].Content, "number_00")
	assert.Contains(t, chunks[2].Content, "number_02")
}

func TestChunkFileEmpty(t *testing.T) {
	c := New(0)
	assert.Nil(t, c.ChunkFile("empty.go", nil))
	assert.Nil(t, c.ChunkFile("empty.go", []byte{}))
}

func TestChunkFileUnknownLanguageGenericRules(t *testing.T) {
	src := `function handle(event) {
    process(event);
    return true;
}
`
	c := New(0)
	chunks := c.ChunkFile("script.weird", []byte(src))
	require.Len(t, chunks, 1)
	assert.Equal(t, types.LangUnknown, chunks[0].Language)
}

func TestChunkFileDeterministicIDs(t *testing.T) {
	src := `fn stable() {
    let x = 1;
    use_it(x);
}
`
	c := New(0)
	first := c.ChunkFile("src/stable.rs", []byte(src))
	second := c.ChunkFile("src/stable.rs", []byte(src))
	require.Equal(t, first, second, "identical input yields identical chunks")
}

func TestChunkBatch(t *testing.T) {
	files := map[string]string{
		"a.rs": "fn a() {\n    one();\n    two();\n}\n",
		"b.rs": "fn b() {\n    three();\n    four();\n}\n",
	}
	read := func(path string) ([]byte, error) {
		if content, ok := files[path]; ok {
			return []byte(content), nil
		}
		return nil, errors.New("boom")
	}

	c := New(0)
	result := c.ChunkBatch([]string{"a.rs", "broken.rs", "b.rs"}, read)

	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed, "broken.rs")

	require.Len(t, result.Chunks, 2)
	assert.Equal(t, "a.rs", result.Chunks[0].FilePath, "chunks keep input path order")
	assert.Equal(t, "b.rs", result.Chunks[1].FilePath)

	assert.Equal(t, 1, result.PerFile["a.rs"])
	assert.Equal(t, 1, result.PerFile["b.rs"])
	_, counted := result.PerFile["broken.rs"]
	assert.False(t, counted)
}
