// Package config loads smileys profiles from YAML files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/smileys/smileys/internal/cache"
	"github.com/smileys/smileys/internal/core/exclusion"
	"github.com/smileys/smileys/internal/core/matcher"
	"github.com/smileys/smileys/internal/core/pack"
	"github.com/smileys/smileys/internal/core/render"
	"github.com/smileys/smileys/internal/types"
)

const (
	// DefaultProfileName is used when no profile is requested.
	DefaultProfileName = "default"
	// EnvPrefix prefixes environment overrides, e.g. SMILEYS_PACK.
	EnvPrefix = "SMILEYS"
	// FileName is the configuration file looked up in the search path.
	FileName = "config.yaml"
)

// Config represents the complete application configuration.
type Config struct {
	Profiles map[string]Profile `mapstructure:"profiles" yaml:"profiles" json:"profiles"`
}

// Profile is one named set of processing settings.
type Profile struct {
	// Enabled gates substitution as a whole
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Pack selection and rendering
	Pack         string `mapstructure:"pack" yaml:"pack" json:"pack"`
	PacksDir     string `mapstructure:"packs_dir" yaml:"packs_dir" json:"packs_dir"`
	BaseURL      string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	Render       string `mapstructure:"render" yaml:"render" json:"render"`
	CSSClass     string `mapstructure:"css_class" yaml:"css_class" json:"css_class"`
	WordBoundary bool   `mapstructure:"word_boundary" yaml:"word_boundary" json:"word_boundary"`

	// Protected regions
	Exclude Exclude `mapstructure:"exclude" yaml:"exclude" json:"exclude"`

	// Processing records
	Cache cache.Config `mapstructure:"cache" yaml:"cache" json:"cache"`

	// File processing
	Workers         int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive       bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	IncludePatterns []string `mapstructure:"include_patterns" yaml:"include_patterns" json:"include_patterns"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns" json:"exclude_patterns"`
	MaxFileSize     int64    `mapstructure:"max_file_size" yaml:"max_file_size" json:"max_file_size"`
}

// Exclude lists the configurable protected regions.
type Exclude struct {
	Tags     []string `mapstructure:"tags" yaml:"tags" json:"tags"`
	Patterns []string `mapstructure:"patterns" yaml:"patterns" json:"patterns"`
	Markdown bool     `mapstructure:"markdown" yaml:"markdown" json:"markdown"`
}

// DefaultProfile returns the built-in settings every loaded profile starts from.
func DefaultProfile() Profile {
	ro := render.DefaultOptions()
	return Profile{
		Enabled:  true,
		Pack:     pack.DefaultPackName,
		PacksDir: defaultPacksDir(),
		BaseURL:  ro.BaseURL,
		Render:   string(ro.Mode),
		CSSClass: ro.CSSClass,
		Exclude: Exclude{
			Tags:     []string{},
			Patterns: []string{},
			Markdown: true,
		},
		Cache:           cache.DefaultConfig(),
		Recursive:       true,
		IncludePatterns: []string{"*.md", "*.markdown", "*.html", "*.htm", "*.txt"},
		ExcludePatterns: []string{".git", "node_modules", "vendor"},
		MaxFileSize:     10 * 1024 * 1024,
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Profiles: map[string]Profile{DefaultProfileName: DefaultProfile()},
	}
}

// defaultPacksDir is $XDG_DATA_HOME/smileys/packs, or ./packs without a home.
func defaultPacksDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "smileys", "packs")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "smileys", "packs")
	}
	return "packs"
}

// SearchPaths lists the directories a configuration file is looked up in.
func SearchPaths() []string {
	var paths []string
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, "smileys"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "smileys"))
	}
	return append(paths, ".")
}

// Locate returns the first configuration file found in SearchPaths.
func Locate() (string, bool) {
	for _, dir := range SearchPaths() {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// LoadConfig loads configuration from the specified file path. Every profile
// starts from DefaultProfile, so files only need to list what they change.
func LoadConfig(configPath string) types.Result[Config] {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return types.Err[Config](err)
	}

	config := Config{Profiles: make(map[string]Profile)}
	for name := range v.GetStringMap("profiles") {
		profile := DefaultProfile()
		prefix := "profiles." + name + "."
		clearSetLists(&profile, func(key string) bool { return v.IsSet(prefix + key) })
		if err := v.UnmarshalKey("profiles."+name, &profile); err != nil {
			return types.Err[Config](fmt.Errorf("profile %s: %w", name, err))
		}
		config.Profiles[name] = profile
	}
	if len(config.Profiles) == 0 {
		return types.Err[Config](fmt.Errorf("%s: no profiles defined", configPath))
	}

	return types.Ok(config)
}

// Load resolves the profile used by the commands: the explicit file or the
// first file in SearchPaths (defaults when none exists), then SMILEYS_*
// environment overrides.
func Load(configPath, profileName string) types.Result[Profile] {
	cfg := DefaultConfig()
	if configPath == "" {
		configPath, _ = Locate()
	}
	if configPath != "" {
		loaded, err := LoadConfig(configPath).Value()
		if err != nil {
			return types.Err[Profile](err)
		}
		cfg = loaded
	}

	profile, err := GetProfile(cfg, profileName).Value()
	if err != nil {
		return types.Err[Profile](err)
	}
	return types.TryFrom(ApplyEnv(profile, os.LookupEnv))
}

// GetProfile retrieves a specific profile from the configuration.
func GetProfile(config Config, profileName string) types.Result[Profile] {
	if profileName == "" {
		profileName = DefaultProfileName
	}

	profile, exists := config.Profiles[profileName]
	if !exists {
		// profile names read from files are lowercased by viper
		profile, exists = config.Profiles[strings.ToLower(profileName)]
	}
	if !exists {
		return types.Err[Profile](fmt.Errorf("profile not found: %s", profileName))
	}

	return types.Ok(profile)
}

// ApplyEnv overlays SMILEYS_<KEY> variables, with nested keys joined by
// underscores (SMILEYS_CACHE_BACKEND). Lists are comma separated.
func ApplyEnv(p Profile, lookup func(string) (string, bool)) (Profile, error) {
	v := viper.New()

	keys := []string{
		"enabled", "pack", "packs_dir", "base_url", "render", "css_class", "word_boundary",
		"exclude.tags", "exclude.patterns", "exclude.markdown",
		"cache.backend", "cache.path", "cache.max_entries", "cache.ttl",
		"workers", "recursive", "include_patterns", "exclude_patterns", "max_file_size",
	}
	for _, key := range keys {
		env := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if value, ok := lookup(env); ok {
			v.Set(key, value)
		}
	}
	clearSetLists(&p, v.IsSet)

	if err := v.Unmarshal(&p); err != nil {
		return p, fmt.Errorf("environment overrides: %w", err)
	}
	return p, nil
}

// clearSetLists empties the list settings isSet reports, so decoding replaces
// a default list instead of overwriting it element by element.
func clearSetLists(p *Profile, isSet func(key string) bool) {
	lists := map[string]*[]string{
		"include_patterns": &p.IncludePatterns,
		"exclude_patterns": &p.ExcludePatterns,
		"exclude.tags":     &p.Exclude.Tags,
		"exclude.patterns": &p.Exclude.Patterns,
	}
	for key, list := range lists {
		if isSet(key) {
			*list = nil
		}
	}
}

// ValidateConfig rejects configurations the commands cannot run with.
// ValidateConfigFile reports warnings and suggestions as well.
func ValidateConfig(config Config) types.Result[Config] {
	result := NewConfigValidator().ValidateConfig(config)
	if result.HasErrors() {
		return types.Err[Config](errors.New(strings.Join(result.GetErrorMessages(), "; ")))
	}
	return types.Ok(config)
}

// Marshal renders config as YAML, as written by "smileys config init".
func Marshal(config Config) ([]byte, error) {
	return yaml.Marshal(config)
}

// Exclusion returns the per-document exclusion configuration.
func (p Profile) Exclusion() exclusion.Config {
	return exclusion.Config{
		Enabled:  p.Enabled,
		Tags:     p.Exclude.Tags,
		Patterns: p.Exclude.Patterns,
		Markdown: p.Exclude.Markdown,
	}
}

// RenderOptions returns the renderer settings.
func (p Profile) RenderOptions() render.Options {
	return render.Options{
		Mode:     render.Mode(p.Render),
		BaseURL:  p.BaseURL,
		CSSClass: p.CSSClass,
	}
}

// MatcherOptions returns the matcher settings.
func (p Profile) MatcherOptions() matcher.Options {
	return matcher.Options{WordBoundary: p.WordBoundary}
}
