package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/smileys/smileys/internal/cache"
	"github.com/smileys/smileys/internal/core/exclusion"
	"github.com/smileys/smileys/internal/core/render"
)

// ValidationLevel defines the severity of validation issues.
type ValidationLevel string

const (
	ValidationLevelError   ValidationLevel = "error"
	ValidationLevelWarning ValidationLevel = "warning"
	ValidationLevelInfo    ValidationLevel = "info"
)

// ValidationIssue is one finding with a suggested fix.
type ValidationIssue struct {
	Level      ValidationLevel `json:"level"`
	Field      string          `json:"field"`
	Value      any             `json:"value,omitempty"`
	Message    string          `json:"message"`
	Suggestion string          `json:"suggestion,omitempty"`
	Example    string          `json:"example,omitempty"`
}

// String returns a human-readable representation of the validation issue.
func (vi ValidationIssue) String() string {
	prefix := strings.ToUpper(string(vi.Level))
	result := fmt.Sprintf("[%s] %s: %s", prefix, vi.Field, vi.Message)

	if vi.Suggestion != "" {
		result += fmt.Sprintf("\n  Suggestion: %s", vi.Suggestion)
	}
	if vi.Example != "" {
		result += fmt.Sprintf("\n  Example: %s", vi.Example)
	}

	return result
}

// ConfigValidator collects issues across all profiles of a configuration.
type ConfigValidator struct {
	issues []ValidationIssue
}

// NewConfigValidator creates a new configuration validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{issues: make([]ValidationIssue, 0)}
}

// ValidateConfig validates every profile of config.
func (cv *ConfigValidator) ValidateConfig(config Config) ValidationResult {
	cv.issues = make([]ValidationIssue, 0)

	if len(config.Profiles) == 0 {
		cv.addError("profiles", nil, "no profiles defined",
			"add at least one profile",
			"profiles:\n  default:\n    pack: simple_smileys")
	}

	for name, profile := range config.Profiles {
		cv.validateProfile(name, profile)
	}

	return ValidationResult{
		IsValid: cv.countErrors() == 0,
		Issues:  cv.issues,
		Summary: cv.generateSummary(),
	}
}

func (cv *ConfigValidator) validateProfile(name string, profile Profile) {
	fieldPrefix := "profiles." + name

	cv.validateRendering(fieldPrefix, profile)
	cv.validateExclusions(fieldPrefix, profile)
	cv.validateCache(fieldPrefix, profile)
	cv.validateFileFilteringLogic(fieldPrefix, profile)
	cv.validatePerformanceSettings(fieldPrefix, profile)
}

func (cv *ConfigValidator) validateRendering(fieldPrefix string, profile Profile) {
	if profile.Pack == "" {
		cv.addError(fieldPrefix+".pack", profile.Pack,
			"no smiley pack selected",
			"name a pack directory under packs_dir",
			"pack: simple_smileys")
	} else if strings.ContainsAny(profile.Pack, `/\`) || profile.Pack == ".." {
		cv.addError(fieldPrefix+".pack", profile.Pack,
			"pack must be a directory name, not a path",
			"move the pack under packs_dir and use its name",
			"packs_dir: /srv/smileys\npack: classic")
	}

	valid := false
	for _, m := range render.Modes {
		if profile.Render == string(m) {
			valid = true
			break
		}
	}
	if !valid {
		modes := make([]string, len(render.Modes))
		for i, m := range render.Modes {
			modes[i] = string(m)
		}
		cv.addError(fieldPrefix+".render", profile.Render,
			fmt.Sprintf("invalid render mode: %s", profile.Render),
			fmt.Sprintf("use one of: %s", strings.Join(modes, ", ")),
			"render: html")
	}

	if profile.BaseURL != "" {
		u, err := url.Parse(profile.BaseURL)
		switch {
		case err != nil:
			cv.addError(fieldPrefix+".base_url", profile.BaseURL,
				fmt.Sprintf("invalid base url: %s", err),
				"use an absolute path or an http(s) URL",
				"base_url: /user/data/smileys")
		case u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https":
			cv.addError(fieldPrefix+".base_url", profile.BaseURL,
				fmt.Sprintf("unsupported url scheme: %s", u.Scheme),
				"icons are only rendered for http and https URLs",
				"base_url: https://cdn.example.com/smileys")
		case u.Scheme == "http":
			cv.addInfo(fieldPrefix+".base_url", profile.BaseURL,
				"icons are served over plain http",
				"prefer https to avoid mixed content warnings",
				"base_url: https://cdn.example.com/smileys")
		}
	}
}

func (cv *ConfigValidator) validateExclusions(fieldPrefix string, profile Profile) {
	for i, tag := range profile.Exclude.Tags {
		if tag == "" || strings.ContainsAny(tag, "<>/ \t") {
			cv.addError(fmt.Sprintf("%s.exclude.tags[%d]", fieldPrefix, i), tag,
				"tag must be a bare element name",
				"drop angle brackets and attributes",
				"exclude:\n  tags: [kbd, samp]")
		}
	}

	// Invalid patterns are skipped at runtime, so they only warn here.
	for i, src := range profile.Exclude.Patterns {
		if _, err := exclusion.CompilePattern(src); err != nil {
			cv.addWarning(fmt.Sprintf("%s.exclude.patterns[%d]", fieldPrefix, i), src,
				err.Error(),
				"patterns use /expression/flags syntax",
				"exclude:\n  patterns: [\"/\\\\[quote\\\\].*?\\\\[/quote\\\\]/is\"]")
		}
	}

	if !profile.Exclude.Markdown && profile.Render == string(render.ModeMarkdown) {
		cv.addWarning(fieldPrefix+".exclude.markdown", profile.Exclude.Markdown,
			"markdown output without markdown exclusions may rewrite code blocks",
			"enable markdown exclusions",
			"exclude:\n  markdown: true")
	}
}

func (cv *ConfigValidator) validateCache(fieldPrefix string, profile Profile) {
	c := profile.Cache
	switch c.Backend {
	case "", cache.BackendMemory, cache.BackendNone:
	case cache.BackendBolt:
		if c.Path == "" {
			cv.addError(fieldPrefix+".cache.path", c.Path,
				"bolt cache requires a path",
				"point cache.path at a writable file",
				"cache:\n  backend: bolt\n  path: ~/.cache/smileys/processed.db")
		}
	default:
		cv.addError(fieldPrefix+".cache.backend", c.Backend,
			fmt.Sprintf("unknown cache backend: %s", c.Backend),
			"use one of: memory, bolt, none",
			"cache:\n  backend: memory")
	}

	if c.MaxEntries < 0 {
		cv.addError(fieldPrefix+".cache.max_entries", c.MaxEntries,
			"max entries cannot be negative",
			"use 0 for no limit",
			"cache:\n  max_entries: 10000")
	}
	if c.TTL < 0 {
		cv.addError(fieldPrefix+".cache.ttl", c.TTL,
			"ttl cannot be negative",
			"use 0 to keep records forever",
			"cache:\n  ttl: 720h")
	}
	if c.Backend == cache.BackendBolt && c.MaxEntries > 0 {
		cv.addInfo(fieldPrefix+".cache.max_entries", c.MaxEntries,
			"max_entries only applies to the memory backend",
			"use ttl to prune the bolt cache",
			"cache:\n  ttl: 720h")
	}
}

func (cv *ConfigValidator) validateFileFilteringLogic(fieldPrefix string, profile Profile) {
	for i, pattern := range profile.IncludePatterns {
		if _, err := filepath.Match(pattern, "test"); err != nil {
			cv.addError(fmt.Sprintf("%s.include_patterns[%d]", fieldPrefix, i), pattern,
				fmt.Sprintf("invalid pattern syntax: %s", err),
				"use valid glob pattern syntax",
				`include_patterns: ["*.md", "*.html"]`)
		}
	}

	for i, pattern := range profile.ExcludePatterns {
		if pattern == "" {
			cv.addError(fmt.Sprintf("%s.exclude_patterns[%d]", fieldPrefix, i), pattern,
				"empty exclude pattern",
				"remove empty pattern",
				`exclude_patterns: ["vendor", "*.min.html"]`)
			continue
		}
		if _, err := filepath.Match(pattern, "test"); err != nil {
			cv.addError(fmt.Sprintf("%s.exclude_patterns[%d]", fieldPrefix, i), pattern,
				fmt.Sprintf("invalid pattern syntax: %s", err),
				"use valid glob pattern syntax",
				`exclude_patterns: ["vendor", "*.min.html"]`)
		}
		for _, include := range profile.IncludePatterns {
			if include == pattern {
				cv.addError(fieldPrefix+".patterns",
					fmt.Sprintf("include: %s, exclude: %s", include, pattern),
					"same pattern in both include and exclude",
					"remove from one of the lists",
					"decide whether to include or exclude this pattern")
			}
		}
	}
}

func (cv *ConfigValidator) validatePerformanceSettings(fieldPrefix string, profile Profile) {
	if profile.MaxFileSize < 0 {
		cv.addError(fieldPrefix+".max_file_size", profile.MaxFileSize,
			"max file size cannot be negative",
			"use 0 for no limit",
			"max_file_size: 10485760  # 10MB")
	} else if profile.MaxFileSize > 0 && profile.MaxFileSize < 1024 {
		cv.addWarning(fieldPrefix+".max_file_size", profile.MaxFileSize,
			"very small max file size may skip legitimate files",
			"increase file size limit",
			"max_file_size: 1048576  # 1MB")
	}

	if profile.Workers < 0 {
		cv.addError(fieldPrefix+".workers", profile.Workers,
			"worker count cannot be negative",
			"use 0 to match the number of CPUs",
			"workers: 0")
	} else if profile.Workers > 32 {
		cv.addWarning(fieldPrefix+".workers", profile.Workers,
			"very high worker count may not improve performance",
			"consider using auto-detection or lower number",
			"workers: 0  # auto-detect")
	}
}

func (cv *ConfigValidator) add(level ValidationLevel, field string, value any, message, suggestion, example string) {
	cv.issues = append(cv.issues, ValidationIssue{
		Level:      level,
		Field:      field,
		Value:      value,
		Message:    message,
		Suggestion: suggestion,
		Example:    example,
	})
}

func (cv *ConfigValidator) addError(field string, value any, message, suggestion, example string) {
	cv.add(ValidationLevelError, field, value, message, suggestion, example)
}

func (cv *ConfigValidator) addWarning(field string, value any, message, suggestion, example string) {
	cv.add(ValidationLevelWarning, field, value, message, suggestion, example)
}

func (cv *ConfigValidator) addInfo(field string, value any, message, suggestion, example string) {
	cv.add(ValidationLevelInfo, field, value, message, suggestion, example)
}

func (cv *ConfigValidator) countErrors() int {
	count := 0
	for _, issue := range cv.issues {
		if issue.Level == ValidationLevelError {
			count++
		}
	}
	return count
}

func (cv *ConfigValidator) generateSummary() ValidationSummary {
	summary := ValidationSummary{TotalIssues: len(cv.issues)}

	for _, issue := range cv.issues {
		switch issue.Level {
		case ValidationLevelError:
			summary.Errors++
		case ValidationLevelWarning:
			summary.Warnings++
		case ValidationLevelInfo:
			summary.Infos++
		}
	}

	return summary
}

// ValidationResult represents the result of configuration validation.
type ValidationResult struct {
	IsValid bool              `json:"is_valid"`
	Issues  []ValidationIssue `json:"issues"`
	Summary ValidationSummary `json:"summary"`
}

// ValidationSummary counts issues by level.
type ValidationSummary struct {
	TotalIssues int `json:"total_issues"`
	Errors      int `json:"errors"`
	Warnings    int `json:"warnings"`
	Infos       int `json:"infos"`
}

// String returns a human-readable validation summary.
func (vs ValidationSummary) String() string {
	if vs.TotalIssues == 0 {
		return "Configuration is valid with no issues"
	}

	parts := []string{}
	if vs.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", vs.Errors))
	}
	if vs.Warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warnings", vs.Warnings))
	}
	if vs.Infos > 0 {
		parts = append(parts, fmt.Sprintf("%d suggestions", vs.Infos))
	}

	return fmt.Sprintf("Configuration has %s", strings.Join(parts, ", "))
}

// HasErrors checks if there are any error-level issues.
func (vr ValidationResult) HasErrors() bool {
	return vr.Summary.Errors > 0
}

// GetErrorMessages returns all error messages prefixed with their field.
func (vr ValidationResult) GetErrorMessages() []string {
	var messages []string
	for _, issue := range vr.Issues {
		if issue.Level == ValidationLevelError {
			messages = append(messages, issue.Field+": "+issue.Message)
		}
	}
	return messages
}

// String returns a human-readable validation result.
func (vr ValidationResult) String() string {
	if vr.IsValid && len(vr.Issues) == 0 {
		return "Configuration is valid"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", vr.Summary.String())
	for _, issue := range vr.Issues {
		fmt.Fprintf(&b, "  %s\n", issue.String())
	}
	return b.String()
}

// ValidateConfigFile loads and validates a configuration file.
func ValidateConfigFile(configPath string) ValidationResult {
	configResult := LoadConfig(configPath)
	if configResult.IsErr() {
		return ValidationResult{
			IsValid: false,
			Issues: []ValidationIssue{{
				Level:      ValidationLevelError,
				Field:      "file",
				Message:    fmt.Sprintf("failed to load configuration: %s", configResult.Error()),
				Suggestion: "check file syntax and permissions",
				Example:    "ensure valid YAML syntax",
			}},
			Summary: ValidationSummary{TotalIssues: 1, Errors: 1},
		}
	}

	return NewConfigValidator().ValidateConfig(configResult.Unwrap())
}
