package codeblock

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// Extract returns the fenced code blocks of a markdown document in order.
// Indented code and inline code spans are not included.
func Extract(doc string) []Block {
	source := []byte(doc)
	root := markdown.Parser().Parse(text.NewReader(source))

	var blocks []Block
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fenced, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var code strings.Builder
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			segment := lines.At(i)
			code.Write(segment.Value(source))
		}

		blocks = append(blocks, New(string(fenced.Language(source)), code.String()))
		return ast.WalkSkipChildren, nil
	})

	return blocks
}
