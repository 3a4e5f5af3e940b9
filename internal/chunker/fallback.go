package chunker

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/codectx/codectx-mcp/pkg/types"
)

// chunkWithPatterns segments content for brace-delimited languages. A line
// matching any block pattern flushes the current block and opens a new one;
// a block closes when its brace count re-balances to zero after being
// positive, provided it spans more than two lines.
func chunkWithPatterns(path string, content string, lang types.Language, rules Rules) []types.CodeChunk {
	lines := strings.Split(content, "\n")

	var chunks []types.CodeChunk
	var block []string
	blockStart := 0
	openCount, closeCount := 0, 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if matchesAny(rules.BlockPatterns, trimmed) {
			if len(block) > 0 {
				appendChunk(&chunks, path, lang, rules, block, blockStart, i-1)
			}
			block = []string{line}
			blockStart = i
			openCount = strings.Count(line, "{")
			closeCount = strings.Count(line, "}")
			continue
		}

		if len(block) == 0 {
			continue
		}

		block = append(block, line)
		openCount += strings.Count(line, "{")
		closeCount += strings.Count(line, "}")

		if openCount > 0 && openCount == closeCount && len(block) > 2 {
			appendChunk(&chunks, path, lang, rules, block, blockStart, i)
			block = nil
			blockStart = i + 1
			openCount, closeCount = 0, 0
		}
	}

	if len(block) > 0 {
		appendChunk(&chunks, path, lang, rules, block, blockStart, len(lines)-1)
	}

	return chunks
}

// chunkByIndent segments content for brace-less languages. A block opens on
// a pattern match and closes when a non-blank line returns to the opening
// indentation or less.
func chunkByIndent(path string, content string, lang types.Language, rules Rules) []types.CodeChunk {
	lines := strings.Split(content, "\n")

	var chunks []types.CodeChunk
	var block []string
	blockStart := 0
	blockIndent := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			if len(block) > 0 {
				block = append(block, line)
			}
			continue
		}

		indent := indentWidth(line)
		isStart := matchesAny(rules.BlockPatterns, trimmed)

		if len(block) == 0 {
			if isStart {
				block = []string{line}
				blockStart = i
				blockIndent = indent
			}
			continue
		}

		if indent <= blockIndent {
			appendChunk(&chunks, path, lang, rules, block, blockStart, i-1)
			block = nil
			if isStart {
				block = []string{line}
				blockStart = i
				blockIndent = indent
			}
			continue
		}

		block = append(block, line)
	}

	if len(block) > 0 {
		appendChunk(&chunks, path, lang, rules, block, blockStart, len(lines)-1)
	}

	return chunks
}

// appendChunk materializes a block as a chunk unless it is below the
// minimum size. Line arguments are 0-based slice indices.
func appendChunk(chunks *[]types.CodeChunk, path string, lang types.Language, rules Rules, block []string, start, end int) {
	content := strings.TrimSpace(strings.Join(block, "\n"))
	if len(content) < rules.MinChunkBytes {
		return
	}

	startLine, endLine := start+1, end+1
	*chunks = append(*chunks, types.CodeChunk{
		ID:        fmt.Sprintf("%s_%d_%d", filepath.ToSlash(path), startLine, endLine),
		Content:   content,
		FilePath:  filepath.ToSlash(path),
		StartLine: startLine,
		EndLine:   endLine,
		Language:  lang,
		Metadata: map[string]string{
			types.MetaChunkType: types.ChunkTypeFallback,
			types.MetaFileName:  filepath.Base(path),
		},
	})
}

func matchesAny(patterns []*regexp.Regexp, line string) bool {
	for _, re := range patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}
