package exclusion

import (
	"strings"

	"github.com/smileys/smileys/internal/types"
	"golang.org/x/net/html"
)

// ProtectedTags are always skipped together with their content.
var ProtectedTags = []string{"code", "pre", "kbd", "samp", "tt", "script", "style", "textarea"}

func protectedTagSet(extra []string) map[string]bool {
	set := make(map[string]bool, len(ProtectedTags)+len(extra))
	for _, tag := range ProtectedTags {
		set[tag] = true
	}
	for _, tag := range extra {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			set[tag] = true
		}
	}
	return set
}

// markupSpans returns the spans of protected elements (open tag through the
// matching close tag) and of every other raw tag, comment and doctype.
// An unterminated protected element runs to the end of text.
func markupSpans(text string, protected map[string]bool) []types.Span {
	if strings.IndexByte(text, '<') < 0 {
		return nil
	}

	var spans []types.Span
	z := html.NewTokenizer(strings.NewReader(text))
	depth := make(map[string]int)
	open := 0
	openStart := 0
	offset := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		n := len(z.Raw())
		start := offset
		offset += n

		switch tt {
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if protected[tag] {
				if open == 0 {
					openStart = start
				}
				depth[tag]++
				open++
				continue
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if depth[tag] > 0 {
				depth[tag]--
				open--
				if open == 0 {
					spans = append(spans, types.Span{Start: openStart, End: offset})
				}
				continue
			}
		case html.TextToken:
			continue
		}

		if open == 0 {
			spans = append(spans, types.Span{Start: start, End: offset})
		}
	}

	switch {
	case open > 0:
		spans = append(spans, types.Span{Start: openStart, End: len(text)})
	case offset < len(text):
		// The tokenizer stopped inside a truncated tag.
		spans = append(spans, types.Span{Start: offset, End: len(text)})
	}
	return spans
}
