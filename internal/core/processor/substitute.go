// Package processor replaces smiley triggers in documents with icon references.
package processor

import (
	"strings"

	"github.com/smileys/smileys/internal/types"
)

// Finder locates the next trigger at or after an offset.
type Finder interface {
	FindNextMatch(text string, from int) (types.Match, bool)
}

// Regions answers excluded-span queries for one document.
type Regions interface {
	IsExcluded(offset int) bool
	ExcludedSpanEnd(offset int) int
	NextSpanStart(offset int) int
}

// RenderFunc returns the reference emitted for a matched smiley. ok is false
// when the smiley has no reference; its trigger is then left as is.
type RenderFunc func(s types.Smiley) (ref string, ok bool)

// Substitute makes one forward pass over text. Excluded spans are skipped
// whole and the finder only ever sees text up to the next excluded span, so a
// trigger straddling a span boundary is never replaced. When nothing is
// replaced the input string itself is returned.
func Substitute(text string, m Finder, ex Regions, render RenderFunc) (string, int) {
	var b strings.Builder
	count := 0
	copied := 0

	for c := 0; c < len(text); {
		if ex != nil && ex.IsExcluded(c) {
			end := ex.ExcludedSpanEnd(c)
			if end <= c {
				end = c + 1
			}
			c = end
			continue
		}

		bound := len(text)
		if ex != nil {
			bound = min(ex.NextSpanStart(c), len(text))
		}
		if bound <= c {
			c++
			continue
		}

		match, found := m.FindNextMatch(text[:bound], c)
		if !found {
			c = bound
			continue
		}

		ref, ok := render(match.Smiley)
		if !ok {
			c = match.End
			continue
		}

		if count == 0 {
			b.Grow(len(text) + len(text)/4)
		}
		b.WriteString(text[copied:match.Start])
		b.WriteString(ref)
		copied = match.End
		c = match.End
		count++
	}

	if count == 0 {
		return text, 0
	}
	b.WriteString(text[copied:])
	return b.String(), count
}
