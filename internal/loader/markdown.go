package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmtext "github.com/yuin/goldmark/text"

	"docqa/internal/models"
)

// extractMarkdown walks the goldmark AST and keeps only the text content, so
// markup never leaks into chunks or embeddings.
func extractMarkdown(filePath string) (models.Document, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(gmtext.NewReader(src))

	var text strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			text.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				text.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}
		if !entering && n.Type() == ast.TypeBlock {
			text.WriteString("\n\n")
		}
		return ast.WalkContinue, nil
	})
	return models.Document{Text: text.String(), PageCount: 1}, nil
}
