package exclusion

import (
	"bytes"
	"strings"

	"github.com/smileys/smileys/internal/types"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var mdParser = goldmark.New().Parser()

// markdownSpans returns the spans of fenced and indented code blocks and of
// inline code spans, delimiters included.
func markdownSpans(src string) []types.Span {
	if !strings.Contains(src, "`") && !strings.Contains(src, "~~~") && !strings.Contains(src, "    ") && !strings.Contains(src, "\t") {
		return nil
	}

	source := []byte(src)
	doc := mdParser.Parse(text.NewReader(source))

	var spans []types.Span
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock:
			if span, ok := fencedSpan(source, node); ok {
				spans = append(spans, span)
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			lines := node.Lines()
			if lines.Len() > 0 {
				spans = append(spans, types.Span{Start: lines.At(0).Start, End: lines.At(lines.Len() - 1).Stop})
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			if span, ok := codeSpan(source, node); ok {
				spans = append(spans, span)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return spans
}

// fencedSpan covers the opening fence line through the closing fence line.
func fencedSpan(source []byte, node *ast.FencedCodeBlock) (types.Span, bool) {
	lines := node.Lines()
	var contentStart, contentEnd int
	switch {
	case lines.Len() > 0:
		contentStart = lines.At(0).Start
		contentEnd = lines.At(lines.Len() - 1).Stop
	case node.Info != nil:
		contentStart = node.Info.Segment.Stop
		contentEnd = contentStart
	default:
		return types.Span{}, false
	}

	start := 0
	if contentStart > 0 {
		start = bytes.LastIndexByte(source[:contentStart-1], '\n') + 1
	}

	// Extend over the closing fence line, if any.
	end := contentEnd
	if end < len(source) {
		if i := bytes.IndexByte(source[end:], '\n'); i >= 0 {
			end += i + 1
		} else {
			end = len(source)
		}
	}
	return types.Span{Start: start, End: end}, true
}

// codeSpan widens the code span's text segments to include the backticks.
func codeSpan(source []byte, node *ast.CodeSpan) (types.Span, bool) {
	start, end := -1, -1
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			continue
		}
		if start < 0 {
			start = t.Segment.Start
		}
		end = t.Segment.Stop
	}
	if start < 0 {
		return types.Span{}, false
	}

	if start > 1 && source[start-1] == ' ' && source[start-2] == '`' {
		start--
	}
	for start > 0 && source[start-1] == '`' {
		start--
	}
	if end+1 < len(source) && source[end] == ' ' && source[end+1] == '`' {
		end++
	}
	for end < len(source) && source[end] == '`' {
		end++
	}
	return types.Span{Start: start, End: end}, true
}
