// Package exclusion computes the regions of a document that substitution must
// leave untouched: protected markup, markdown code and caller patterns.
package exclusion

import (
	"sort"

	"github.com/smileys/smileys/internal/types"
)

// Config is the per-document exclusion configuration.
type Config struct {
	// Enabled gates processing of the document as a whole.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Tags are protected element names added to the built-in set.
	Tags []string `json:"tags,omitempty" yaml:"tags"`
	// Patterns are literal substrings, or regular expressions written /expr/flags.
	Patterns []string `json:"patterns,omitempty" yaml:"patterns"`
	// Markdown protects markdown code blocks and code spans.
	Markdown bool `json:"markdown" yaml:"markdown"`
}

// DefaultConfig enables processing with markdown code protection.
func DefaultConfig() Config {
	return Config{Enabled: true, Markdown: true}
}

// Rules are compiled exclusion rules, reusable across documents.
type Rules struct {
	tags     map[string]bool
	patterns []Pattern
	markdown bool
}

// Compile prepares the rules of cfg. Invalid patterns are returned as
// *ExclusionPatternError values and left out; the remaining rules still apply.
func Compile(cfg Config) (*Rules, []error) {
	r := &Rules{
		tags:     protectedTagSet(cfg.Tags),
		markdown: cfg.Markdown,
	}

	var errs []error
	for _, src := range cfg.Patterns {
		p, err := CompilePattern(src)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r.patterns = append(r.patterns, p)
	}
	return r, errs
}

// Scan computes the excluded spans of text.
func (r *Rules) Scan(text string) *Excluder {
	var spans []types.Span
	spans = append(spans, markupSpans(text, r.tags)...)
	if r.markdown {
		spans = append(spans, markdownSpans(text)...)
	}
	for _, p := range r.patterns {
		spans = append(spans, p.FindAll(text)...)
	}
	return &Excluder{textLen: len(text), spans: merge(spans)}
}

// New compiles cfg and scans text in one step.
func New(text string, cfg Config) (*Excluder, []error) {
	rules, errs := Compile(cfg)
	return rules.Scan(text), errs
}

// Excluder answers offset queries against the excluded spans of one document.
// Spans are sorted, disjoint and non-adjacent.
type Excluder struct {
	textLen int
	spans   []types.Span
}

// Spans returns a copy of the excluded spans.
func (e *Excluder) Spans() []types.Span {
	out := make([]types.Span, len(e.spans))
	copy(out, e.spans)
	return out
}

// IsExcluded reports whether offset lies inside an excluded span.
func (e *Excluder) IsExcluded(offset int) bool {
	i := e.search(offset)
	return i < len(e.spans) && e.spans[i].Start <= offset
}

// ExcludedSpanEnd returns the end of the excluded span containing offset, or
// offset itself when it is not excluded.
func (e *Excluder) ExcludedSpanEnd(offset int) int {
	i := e.search(offset)
	if i < len(e.spans) && e.spans[i].Start <= offset {
		return e.spans[i].End
	}
	return offset
}

// NextSpanStart returns the start of the first excluded span at or after
// offset, offset when already excluded, or the text length when none remain.
func (e *Excluder) NextSpanStart(offset int) int {
	i := e.search(offset)
	if i >= len(e.spans) {
		return e.textLen
	}
	if e.spans[i].Start <= offset {
		return offset
	}
	return e.spans[i].Start
}

// search returns the index of the first span ending after offset.
func (e *Excluder) search(offset int) int {
	return sort.Search(len(e.spans), func(i int) bool {
		return e.spans[i].End > offset
	})
}

// merge collapses overlapping and touching spans into their union.
func merge(spans []types.Span) []types.Span {
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start == spans[j].Start {
			return spans[i].End > spans[j].End
		}
		return spans[i].Start < spans[j].Start
	})

	merged := make([]types.Span, 0, len(spans))
	for _, s := range spans {
		if s.End <= s.Start {
			continue
		}
		if n := len(merged); n > 0 && s.Start <= merged[n-1].End {
			if s.End > merged[n-1].End {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
