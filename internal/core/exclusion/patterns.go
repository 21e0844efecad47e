package exclusion

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/smileys/smileys/internal/types"
)

// ExclusionPatternError reports a caller pattern that cannot be used.
type ExclusionPatternError struct {
	Pattern string
	Err     error
}

func (e *ExclusionPatternError) Error() string {
	return fmt.Sprintf("invalid exclusion pattern %q: %v", e.Pattern, e.Err)
}

func (e *ExclusionPatternError) Unwrap() error {
	return e.Err
}

// Pattern is a compiled caller exclusion pattern.
type Pattern struct {
	Source  string
	re      *regexp.Regexp
	literal string
}

// CompilePattern parses src. "/expr/" and "/expr/flags" (flags from "imsU")
// are regular expressions; anything else is matched literally.
func CompilePattern(src string) (Pattern, error) {
	if src == "" {
		return Pattern{}, &ExclusionPatternError{Pattern: src, Err: errors.New("empty pattern")}
	}

	expr, flags, isRegexp := splitDelimited(src)
	if !isRegexp {
		return Pattern{Source: src, literal: src}, nil
	}
	if expr == "" {
		return Pattern{}, &ExclusionPatternError{Pattern: src, Err: errors.New("empty regular expression")}
	}
	if flags != "" {
		expr = "(?" + flags + ")" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, &ExclusionPatternError{Pattern: src, Err: err}
	}
	return Pattern{Source: src, re: re}, nil
}

// splitDelimited recognizes the /expr/flags form.
func splitDelimited(src string) (expr, flags string, ok bool) {
	if len(src) < 2 || src[0] != '/' {
		return "", "", false
	}
	end := strings.LastIndexByte(src, '/')
	if end == 0 {
		return "", "", false
	}
	flags = src[end+1:]
	if strings.Trim(flags, "imsU") != "" {
		return "", "", false
	}
	return src[1:end], flags, true
}

// IsRegexp reports whether the pattern is a regular expression.
func (p Pattern) IsRegexp() bool {
	return p.re != nil
}

// FindAll returns every non-empty match of the pattern in text.
func (p Pattern) FindAll(text string) []types.Span {
	if p.re != nil {
		var spans []types.Span
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			if loc[1] > loc[0] {
				spans = append(spans, types.Span{Start: loc[0], End: loc[1]})
			}
		}
		return spans
	}

	var spans []types.Span
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], p.literal)
		if i < 0 {
			break
		}
		start := from + i
		spans = append(spans, types.Span{Start: start, End: start + len(p.literal)})
		from = start + len(p.literal)
	}
	return spans
}
