package chunker

import (
	"log"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codectx/codectx-mcp/pkg/types"
)

// DefaultMaxChunksPerFile caps runaway files; the first chunks in source
// order are kept.
const DefaultMaxChunksPerFile = 1000

// Chunker segments source files into code chunks using the language
// registry. It holds no per-file state and is safe for concurrent use.
type Chunker struct {
	registry  *Registry
	maxChunks int
}

// New creates a Chunker. maxChunksPerFile <= 0 selects the default cap.
func New(maxChunksPerFile int) *Chunker {
	if maxChunksPerFile <= 0 {
		maxChunksPerFile = DefaultMaxChunksPerFile
	}
	return &Chunker{
		registry:  NewRegistry(),
		maxChunks: maxChunksPerFile,
	}
}

// ChunkFile segments one file's content. Go files are chunked from the AST;
// everything else, and Go files whose parse yields nothing, goes through
// the pattern fallback. Empty content produces nil. ChunkFile never panics
// and never fails: a file the engine cannot segment simply yields no chunks.
func (c *Chunker) ChunkFile(path string, content []byte) []types.CodeChunk {
	if len(content) == 0 {
		return nil
	}

	lang := types.DetectLanguage(path)
	rules := c.registry.RulesFor(lang)
	text := string(content)

	var chunks []types.CodeChunk
	if lang == types.LangGo {
		chunks = chunkGoAST(path, text, rules)
	}
	if len(chunks) == 0 {
		if rules.IndentBased {
			chunks = chunkByIndent(path, text, lang, rules)
		} else {
			chunks = chunkWithPatterns(path, text, lang, rules)
		}
	}

	if len(chunks) > c.maxChunks {
		chunks = chunks[:c.maxChunks]
	}
	return chunks
}

// FileReader loads a source file's content. The default implementation is
// os.ReadFile; the indexing pipeline supplies a reader that rejects binary
// content at the I/O boundary.
type FileReader func(path string) ([]byte, error)

// BatchResult reports a chunk batch: chunks in per-file source order, the
// number of chunks each file produced, and the files that failed to read.
type BatchResult struct {
	Chunks  []types.CodeChunk
	PerFile map[string]int
	Failed  map[string]error
}

// ChunkBatch applies ChunkFile to each path, fanning files out across CPU
// workers. Read failures are isolated per file; the batch never aborts.
// Chunks keep the input path order regardless of completion order.
func (c *Chunker) ChunkBatch(paths []string, read FileReader) *BatchResult {
	if read == nil {
		read = os.ReadFile
	}

	perFile := make([][]types.CodeChunk, len(paths))
	result := &BatchResult{
		PerFile: make(map[string]int, len(paths)),
		Failed:  make(map[string]error),
	}
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			content, err := read(path)
			if err != nil {
				log.Printf("chunker: skipping %s: %v", path, err)
				mu.Lock()
				result.Failed[path] = err
				mu.Unlock()
				return nil
			}
			perFile[i] = c.ChunkFile(path, content)
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes.
	_ = g.Wait()

	for i, chunks := range perFile {
		if _, failed := result.Failed[paths[i]]; failed {
			continue
		}
		result.PerFile[paths[i]] = len(chunks)
		result.Chunks = append(result.Chunks, chunks...)
	}
	return result
}
