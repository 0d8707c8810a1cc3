// Package codeblock handles fenced code blocks found in assistant replies:
// extracting them, copying them to the clipboard and saving them to files.
package codeblock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLanguage is used for blocks without a language tag.
const DefaultLanguage = "text"

// FilenameStem is the base name of saved snippets.
const FilenameStem = "code-snippet"

// Extension maps a language tag to a file extension. Tags are matched
// exactly; anything else, including "Python", gets "txt".
func Extension(language string) string {
	switch language {
	case "javascript":
		return "js"
	case "python":
		return "py"
	case "html":
		return "html"
	case "css":
		return "css"
	case "json":
		return "json"
	case "react":
		return "jsx"
	default:
		return "txt"
	}
}

// LanguageFromClass extracts the language from a "language-xyz" class name.
func LanguageFromClass(className string) string {
	lang := strings.TrimPrefix(strings.TrimSpace(className), "language-")
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}

// Block is a fenced code span.
type Block struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// New creates a Block, dropping a single trailing newline from raw.
func New(language, raw string) Block {
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}
	return Block{
		Language: language,
		Code:     strings.TrimSuffix(raw, "\n"),
	}
}

// Extension returns the file extension for the block's language.
func (b Block) Extension() string {
	return Extension(b.Language)
}

// Filename returns the name a saved copy of the block gets.
func (b Block) Filename() string {
	return FilenameStem + "." + b.Extension()
}

// Save writes the block into dir and returns the written path.
func (b Block) Save(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, b.Filename())
	if err := os.WriteFile(path, []byte(b.Code), 0o644); err != nil {
		return "", fmt.Errorf("saving code snippet: %w", err)
	}
	return path, nil
}
