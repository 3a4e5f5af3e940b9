package chunker

import (
	"regexp"

	"github.com/codectx/codectx-mcp/pkg/types"
)

const (
	// DefaultMinChunkBytes discards blocks too small to carry meaning.
	DefaultMinChunkBytes = 20

	// DefaultMaxChunkBytes caps a single chunk; larger blocks are emitted
	// as-is rather than split mid-statement.
	DefaultMaxChunkBytes = 16 * 1024
)

// Rules describes how the fallback path segments one language.
type Rules struct {
	MinChunkBytes int
	MaxChunkBytes int
	BlockPatterns []*regexp.Regexp
	IndentBased   bool
}

// ruleSpec is the source form of Rules before pattern compilation.
type ruleSpec struct {
	patterns    []string
	indentBased bool
}

var languageRules = map[types.Language]ruleSpec{
	types.LangRust: {patterns: []string{
		`^(pub(\([^)]*\))?\s+)?(async\s+)?(unsafe\s+)?fn\s+\w+`,
		`^(pub(\([^)]*\))?\s+)?struct\s+\w+`,
		`^(pub(\([^)]*\))?\s+)?enum\s+\w+`,
		`^(pub(\([^)]*\))?\s+)?trait\s+\w+`,
		`^impl\b`,
		`^(pub(\([^)]*\))?\s+)?mod\s+\w+`,
	}},
	types.LangGo: {patterns: []string{
		`^func\s+`,
		`^type\s+\w+`,
		`^(var|const)\s*\(`,
	}},
	types.LangJavaScript: {patterns: jsPatterns},
	types.LangTypeScript: {patterns: append([]string{
		`^(export\s+)?interface\s+\w+`,
		`^(export\s+)?(abstract\s+)?class\s+\w+`,
		`^(export\s+)?enum\s+\w+`,
	}, jsPatterns...)},
	types.LangPython: {indentBased: true, patterns: []string{
		`^(async\s+)?def\s+\w+`,
		`^class\s+\w+`,
	}},
	types.LangJava: {patterns: []string{
		`^(public|private|protected)?\s*(static\s+)?(final\s+)?(abstract\s+)?(class|interface|enum)\s+\w+`,
		`^(public|private|protected)\s+[\w<>\[\],\s]+\s+\w+\s*\(`,
	}},
	types.LangC: {patterns: []string{
		`^[\w*]+[\w\s*]*\s+\**\w+\s*\([^;]*$`,
		`^(struct|enum|union)\s+\w+`,
		`^typedef\b`,
	}},
	types.LangCpp: {patterns: []string{
		`^[\w*]+[\w\s*:<>,]*\s+\**[\w:]+\s*\([^;]*$`,
		`^(class|struct|enum|union)\s+\w+`,
		`^(template\s*<|namespace\s+\w+)`,
		`^typedef\b`,
	}},
	types.LangCSharp: {patterns: []string{
		`^(public|private|protected|internal)?\s*(static\s+)?(sealed\s+|abstract\s+)?(partial\s+)?(class|interface|struct|enum|record)\s+\w+`,
		`^(public|private|protected|internal)\s+[\w<>\[\],\s]+\s+\w+\s*\(`,
		`^namespace\s+\w+`,
	}},
	types.LangRuby: {indentBased: true, patterns: []string{
		`^(def|class|module)\s+`,
	}},
	types.LangPHP: {patterns: []string{
		`^(public\s+|private\s+|protected\s+)?(static\s+)?function\s+\w+`,
		`^(abstract\s+|final\s+)?class\s+\w+`,
		`^(interface|trait)\s+\w+`,
	}},
	types.LangSwift: {patterns: []string{
		`^(public\s+|private\s+|internal\s+|open\s+|fileprivate\s+)?(static\s+|final\s+)?(func|class|struct|enum|protocol|extension)\b`,
	}},
	types.LangKotlin: {patterns: []string{
		`^(public\s+|private\s+|internal\s+|protected\s+)?(suspend\s+)?(fun|class|object|interface|data\s+class)\b`,
	}},
	types.LangScala: {patterns: []string{
		`^(private\s+|protected\s+)?(def|class|object|trait|case\s+class)\b`,
	}},
	types.LangHaskell: {indentBased: true, patterns: []string{
		`^\w+\s*::`,
		`^(data|newtype|type|class|instance|module)\b`,
	}},
}

var jsPatterns = []string{
	`^(export\s+)?(default\s+)?(async\s+)?function\b`,
	`^(export\s+)?class\s+\w+`,
	`^(export\s+)?const\s+\w+\s*=.*=>`,
	`\w+\s*[:=]\s*(async\s+)?function\b`,
}

// genericSpec covers Unknown and any language missing from the table.
var genericSpec = ruleSpec{patterns: []string{
	`^(public\s+|private\s+|protected\s+|export\s+|pub\s+)?(static\s+)?(async\s+)?(function|fn|def|class|struct|interface|impl|trait|module|mod)\b`,
}}

// Registry holds precompiled fallback rules per language. Compilation
// happens once at construction; invalid patterns are dropped silently.
type Registry struct {
	rules   map[types.Language]Rules
	generic Rules
}

// NewRegistry compiles the built-in rule table.
func NewRegistry() *Registry {
	r := &Registry{rules: make(map[types.Language]Rules, len(languageRules))}
	for lang, spec := range languageRules {
		r.rules[lang] = compileRules(spec)
	}
	r.generic = compileRules(genericSpec)
	return r
}

// RulesFor returns the fallback rules for lang, or the generic rules when
// the language has no dedicated entry.
func (r *Registry) RulesFor(lang types.Language) Rules {
	if rules, ok := r.rules[lang]; ok {
		return rules
	}
	return r.generic
}

func compileRules(spec ruleSpec) Rules {
	patterns := make([]*regexp.Regexp, 0, len(spec.patterns))
	for _, src := range spec.patterns {
		re, err := regexp.Compile(src)
		if err != nil {
			continue
		}
		patterns = append(patterns, re)
	}
	return Rules{
		MinChunkBytes: DefaultMinChunkBytes,
		MaxChunkBytes: DefaultMaxChunkBytes,
		BlockPatterns: patterns,
		IndentBased:   spec.indentBased,
	}
}
