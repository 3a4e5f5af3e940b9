package chunker

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"

	"github.com/codectx/codectx-mcp/pkg/types"
)

// chunkGoAST parses a Go file and emits one chunk per top-level declaration.
// Doc comments are included in the declaration's span. A parse failure, or a
// file with no usable declarations, returns nil so the caller can fall back
// to pattern chunking.
func chunkGoAST(path string, content string, rules Rules) []types.CodeChunk {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.ParseComments)
	if err != nil || file == nil {
		return nil
	}

	lines := strings.Split(content, "\n")
	var chunks []types.CodeChunk

	for _, decl := range file.Decls {
		kind, symbol := declKindAndSymbol(decl)
		if kind == "" {
			continue
		}

		start := fset.Position(declStart(decl)).Line
		end := fset.Position(decl.End()).Line
		if start < 1 || end > len(lines) || end-start < 1 {
			continue
		}

		chunkContent := strings.Join(lines[start-1:end], "\n")
		if len(strings.TrimSpace(chunkContent)) < rules.MinChunkBytes {
			continue
		}

		meta := map[string]string{
			types.MetaChunkType: types.ChunkTypeAST,
			types.MetaNodeKind:  kind,
			types.MetaFileName:  filepath.Base(path),
		}
		if symbol != "" {
			meta[types.MetaSymbolName] = symbol
		}

		chunks = append(chunks, types.CodeChunk{
			ID:        fmt.Sprintf("%s_%s_%d_%d", kind, filepath.ToSlash(path), start, end),
			Content:   chunkContent,
			FilePath:  filepath.ToSlash(path),
			StartLine: start,
			EndLine:   end,
			Language:  types.LangGo,
			Metadata:  meta,
		})
	}

	return chunks
}

// declStart returns the declaration position including its doc comment.
func declStart(decl ast.Decl) token.Pos {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		if d.Doc != nil {
			return d.Doc.Pos()
		}
	case *ast.GenDecl:
		if d.Doc != nil {
			return d.Doc.Pos()
		}
	}
	return decl.Pos()
}

// declKindAndSymbol classifies a top-level declaration. Imports return an
// empty kind and are skipped.
func declKindAndSymbol(decl ast.Decl) (kind, symbol string) {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		if d.Recv != nil && len(d.Recv.List) > 0 {
			return "method", receiverName(d.Recv.List[0].Type) + "." + d.Name.Name
		}
		return "function", d.Name.Name
	case *ast.GenDecl:
		switch d.Tok {
		case token.TYPE:
			return "type", firstSpecName(d)
		case token.CONST:
			return "const", firstSpecName(d)
		case token.VAR:
			return "var", firstSpecName(d)
		}
	}
	return "", ""
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	}
	return ""
}

func firstSpecName(decl *ast.GenDecl) string {
	for _, spec := range decl.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			return s.Name.Name
		case *ast.ValueSpec:
			if len(s.Names) > 0 {
				return s.Names[0].Name
			}
		}
	}
	return ""
}
