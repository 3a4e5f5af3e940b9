package types

import (
	"path/filepath"
	"strings"
)

// Language identifies the programming language of a source file.
type Language string

const (
	LangRust       Language = "rust"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangGo         Language = "go"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCpp        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangRuby       Language = "ruby"
	LangPHP        Language = "php"
	LangSwift      Language = "swift"
	LangKotlin     Language = "kotlin"
	LangScala      Language = "scala"
	LangHaskell    Language = "haskell"
	LangUnknown    Language = "unknown"
)

// extensionLanguages is the authoritative extension table. Extensions are
// matched case-insensitively without the leading dot.
var extensionLanguages = map[string]Language{
	"rs":    LangRust,
	"py":    LangPython,
	"js":    LangJavaScript,
	"jsx":   LangJavaScript,
	"ts":    LangTypeScript,
	"tsx":   LangTypeScript,
	"go":    LangGo,
	"java":  LangJava,
	"c":     LangC,
	"h":     LangC,
	"cc":    LangCpp,
	"cpp":   LangCpp,
	"cxx":   LangCpp,
	"cs":    LangCSharp,
	"rb":    LangRuby,
	"php":   LangPHP,
	"swift": LangSwift,
	"kt":    LangKotlin,
	"scala": LangScala,
	"hs":    LangHaskell,
}

// DetectLanguage maps a file path to its language by extension.
// Unlisted extensions map to LangUnknown.
func DetectLanguage(path string) Language {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return LangUnknown
}

// IsSupportedSourceFile reports whether the file's extension maps to a
// registered language. The indexer skips everything else.
func IsSupportedSourceFile(path string) bool {
	return DetectLanguage(path) != LangUnknown
}

// SupportedExtensions returns the registered extensions, for status output.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionLanguages))
	for ext := range extensionLanguages {
		exts = append(exts, ext)
	}
	return exts
}
