// Package filtering decides which files a processing run touches.
package filtering

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/smileys/smileys/internal/config"
)

// FileFilterEngine applies command-line and profile filters with a fixed
// precedence.
type FileFilterEngine struct {
	profile    config.Profile
	cmdInclude string
	cmdExclude string
}

// NewFileFilterEngine creates a new file filter engine.
func NewFileFilterEngine(profile config.Profile) *FileFilterEngine {
	return &FileFilterEngine{profile: profile}
}

// WithCommandLineFilters adds command-line filter overrides.
func (ffe *FileFilterEngine) WithCommandLineFilters(include, exclude string) *FileFilterEngine {
	ffe.cmdInclude = include
	ffe.cmdExclude = exclude
	return ffe
}

// ShouldInclude determines if a file should be processed.
// Precedence:
// 1. Command-line exclude
// 2. Command-line include (overrides profile excludes)
// 3. Profile exclude_patterns, matched against every path element
// 4. Profile include_patterns (default allow if empty)
func (ffe *FileFilterEngine) ShouldInclude(filePath string) FilterDecision {
	fileName := filepath.Base(filePath)

	if ffe.cmdExclude != "" && matchAny(ffe.cmdExclude, fileName, filePath) {
		return FilterDecision{
			Include: false,
			Reason:  fmt.Sprintf("matches command-line exclude pattern: %s", ffe.cmdExclude),
			Rule:    "command_line.exclude",
			Stage:   "command_line",
		}
	}

	if ffe.cmdInclude != "" {
		if matchAny(ffe.cmdInclude, fileName, filePath) {
			return FilterDecision{
				Include: true,
				Reason:  fmt.Sprintf("matches command-line include pattern: %s", ffe.cmdInclude),
				Rule:    "command_line.include",
				Stage:   "command_line",
			}
		}
		return FilterDecision{
			Include: false,
			Reason:  fmt.Sprintf("does not match command-line include pattern: %s", ffe.cmdInclude),
			Rule:    "command_line.include_mismatch",
			Stage:   "command_line",
		}
	}

	if pattern, ok := ffe.excludedBy(filePath); ok {
		return FilterDecision{
			Include: false,
			Reason:  fmt.Sprintf("matches profile exclude pattern: %s", pattern),
			Rule:    "profile.exclude_patterns",
			Stage:   "profile",
		}
	}

	if len(ffe.profile.IncludePatterns) == 0 {
		return FilterDecision{
			Include: true,
			Reason:  "no include patterns specified, default allow",
			Rule:    "profile.include_default",
			Stage:   "default",
		}
	}

	for _, pattern := range ffe.profile.IncludePatterns {
		if matchAny(pattern, fileName, filePath) {
			return FilterDecision{
				Include: true,
				Reason:  fmt.Sprintf("matches profile include pattern: %s", pattern),
				Rule:    "profile.include_patterns",
				Stage:   "profile",
			}
		}
	}

	return FilterDecision{
		Include: false,
		Reason:  "does not match any profile include patterns",
		Rule:    "profile.include_mismatch",
		Stage:   "profile",
	}
}

// ShouldSkipDir reports whether a directory is pruned during discovery.
func (ffe *FileFilterEngine) ShouldSkipDir(dirPath string) bool {
	name := filepath.Base(dirPath)
	if ffe.cmdExclude != "" && matchAny(ffe.cmdExclude, name, dirPath) {
		return true
	}
	for _, pattern := range ffe.profile.ExcludePatterns {
		if matchAny(pattern, name, dirPath) {
			return true
		}
	}
	return false
}

// excludedBy matches exclude patterns against the base name, the whole path
// and each directory element.
func (ffe *FileFilterEngine) excludedBy(filePath string) (string, bool) {
	elems := strings.Split(filepath.ToSlash(filepath.Clean(filePath)), "/")
	for _, pattern := range ffe.profile.ExcludePatterns {
		if matchAny(pattern, filePath) {
			return pattern, true
		}
		for _, elem := range elems {
			if matchAny(pattern, elem) {
				return pattern, true
			}
		}
	}
	return "", false
}

func matchAny(pattern string, targets ...string) bool {
	for _, target := range targets {
		if matched, err := filepath.Match(pattern, target); err == nil && matched {
			return true
		}
	}
	return false
}

// FilterDecision represents the result of a file filtering decision.
type FilterDecision struct {
	Include bool   `json:"include"`
	Reason  string `json:"reason"`
	Rule    string `json:"rule"`
	Stage   string `json:"stage"` // "command_line", "profile", "default"
}

// String returns a human-readable representation of the filter decision.
func (fd FilterDecision) String() string {
	action := "EXCLUDE"
	if fd.Include {
		action = "INCLUDE"
	}
	return fmt.Sprintf("%s: %s (rule: %s, stage: %s)", action, fd.Reason, fd.Rule, fd.Stage)
}
