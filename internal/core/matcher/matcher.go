// Package matcher finds smiley triggers in text.
//
// The matcher is deliberately unaware of excluded regions: callers bound the
// text they hand in so that no match can cross into a protected span.
package matcher

import (
	"strings"

	"github.com/smileys/smileys/internal/core/pack"
	"github.com/smileys/smileys/internal/types"
)

// Options tune trigger acceptance.
type Options struct {
	// WordBoundary rejects a trigger glued to an ASCII letter or digit on
	// either side, so "http://x" does not yield ":/".
	WordBoundary bool
}

// Matcher is a compiled, immutable trigger table.
type Matcher struct {
	smileys []types.Smiley
	// byFirst holds, per leading byte, indexes into smileys in descending
	// trigger length order.
	byFirst [256][]int
	opts    Options
}

// Compile builds a matcher for p. The pack order (longest trigger first) is
// preserved per leading byte.
func Compile(p types.Pack, opts Options) (*Matcher, error) {
	m := &Matcher{
		smileys: make([]types.Smiley, len(p.Smileys)),
		opts:    opts,
	}
	copy(m.smileys, p.Smileys)

	for i, s := range m.smileys {
		if s.Trigger == "" {
			return nil, &pack.PackFormatError{Path: p.Path, Reason: "empty trigger for icon " + s.Icon}
		}
		first := s.Trigger[0]
		m.byFirst[first] = append(m.byFirst[first], i)
	}
	return m, nil
}

// Len returns the number of triggers.
func (m *Matcher) Len() int {
	return len(m.smileys)
}

// FindNextMatch scans text from offset from and reports the first position
// where a trigger matches. At that position the longest matching trigger wins.
func (m *Matcher) FindNextMatch(text string, from int) (types.Match, bool) {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(text); i++ {
		candidates := m.byFirst[text[i]]
		if len(candidates) == 0 {
			continue
		}
		if match, ok := m.matchAt(text, i, candidates); ok {
			return match, true
		}
	}
	return types.Match{}, false
}

// MatchAt reports the trigger matching exactly at offset, if any.
func (m *Matcher) MatchAt(text string, offset int) (types.Match, bool) {
	if offset < 0 || offset >= len(text) {
		return types.Match{}, false
	}
	return m.matchAt(text, offset, m.byFirst[text[offset]])
}

func (m *Matcher) matchAt(text string, offset int, candidates []int) (types.Match, bool) {
	rest := text[offset:]
	for _, idx := range candidates {
		s := m.smileys[idx]
		if !strings.HasPrefix(rest, s.Trigger) {
			continue
		}
		end := offset + len(s.Trigger)
		if m.opts.WordBoundary && !atBoundary(text, offset, end) {
			continue
		}
		return types.Match{Start: offset, End: end, Smiley: s}, true
	}
	return types.Match{}, false
}

// atBoundary reports whether the bytes around [start, end) are not ASCII
// alphanumerics.
func atBoundary(text string, start, end int) bool {
	if start > 0 && isAlphanumeric(text[start-1]) {
		return false
	}
	if end < len(text) && isAlphanumeric(text[end]) {
		return false
	}
	return true
}

func isAlphanumeric(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
