// Package pack loads smiley pack definitions from disk into immutable packs.
package pack

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/smileys/smileys/internal/types"
	"gopkg.in/yaml.v3"
)

const (
	// DefinitionFile is the name of the definition inside a pack directory.
	DefinitionFile = "pack.yaml"

	// DefaultPackName is the pack used when a configured pack cannot be loaded.
	DefaultPackName = "simple_smileys"
)

//go:embed defaults
var defaultsFS embed.FS

// definition mirrors the on-disk pack.yaml layout.
type definition struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Author  string `yaml:"author"`
	Smileys []struct {
		Icon     string   `yaml:"icon"`
		Title    string   `yaml:"title"`
		Emoji    string   `yaml:"emoji"`
		Triggers []string `yaml:"triggers"`
	} `yaml:"smileys"`
	// Emoticons is a flat trigger -> icon mapping, decoded as a node to keep
	// the author's ordering.
	Emoticons yaml.Node `yaml:"emoticons"`
}

// Load reads the pack stored in packPath.
func Load(packPath string) types.Result[types.Pack] {
	stat, err := os.Stat(packPath)
	if err != nil {
		return types.Err[types.Pack](&PackNotFoundError{Path: packPath, Err: err})
	}
	if !stat.IsDir() {
		return types.Err[types.Pack](&PackNotFoundError{Path: packPath, Err: errors.New("not a directory")})
	}

	data, err := os.ReadFile(filepath.Join(packPath, DefinitionFile)) // #nosec G304 - pack path comes from configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.Err[types.Pack](&PackNotFoundError{Path: packPath, Err: fmt.Errorf("missing %s", DefinitionFile)})
		}
		return types.Err[types.Pack](&PackFormatError{Path: packPath, Reason: "unreadable definition", Err: err})
	}

	return Parse(data, filepath.Base(packPath), packPath)
}

// Parse builds a pack from definition bytes. Triggers are deduplicated with
// the last definition winning, then ordered by descending length.
func Parse(data []byte, id, path string) types.Result[types.Pack] {
	var def definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return types.Err[types.Pack](&PackFormatError{Path: path, Reason: "malformed yaml", Err: err})
	}

	b := newBuilder(path)
	for i, entry := range def.Smileys {
		if entry.Icon == "" {
			return types.Err[types.Pack](&PackFormatError{Path: path, Reason: fmt.Sprintf("smiley #%d has no icon", i+1)})
		}
		if len(entry.Triggers) == 0 {
			return types.Err[types.Pack](&PackFormatError{Path: path, Reason: fmt.Sprintf("smiley %q has no triggers", entry.Icon)})
		}
		for _, trigger := range entry.Triggers {
			if err := b.add(types.Smiley{Trigger: trigger, Icon: entry.Icon, Title: entry.Title, Emoji: entry.Emoji}); err != nil {
				return types.Err[types.Pack](err)
			}
		}
	}

	if def.Emoticons.Kind != 0 {
		if def.Emoticons.Kind != yaml.MappingNode {
			return types.Err[types.Pack](&PackFormatError{Path: path, Reason: "emoticons must be a mapping of trigger to icon"})
		}
		nodes := def.Emoticons.Content
		for i := 0; i+1 < len(nodes); i += 2 {
			trigger, icon := nodes[i].Value, nodes[i+1].Value
			if icon == "" {
				return types.Err[types.Pack](&PackFormatError{Path: path, Reason: fmt.Sprintf("emoticon %q has no icon", trigger)})
			}
			if err := b.add(types.Smiley{Trigger: trigger, Icon: icon}); err != nil {
				return types.Err[types.Pack](err)
			}
		}
	}

	if len(b.order) == 0 {
		return types.Err[types.Pack](&PackFormatError{Path: path, Reason: "definition contains no smileys"})
	}

	p := types.Pack{
		ID:      id,
		Name:    def.Name,
		Version: def.Version,
		Author:  def.Author,
		Path:    path,
		Smileys: b.sorted(),
	}
	if p.Name == "" {
		p.Name = id
	}
	return types.Ok(p)
}

// builder collects smileys keyed by trigger, remembering first appearance.
type builder struct {
	path    string
	order   []string
	entries map[string]types.Smiley
}

func newBuilder(path string) *builder {
	return &builder{path: path, entries: make(map[string]types.Smiley)}
}

func (b *builder) add(s types.Smiley) error {
	if s.Trigger == "" {
		return &PackFormatError{Path: b.path, Reason: fmt.Sprintf("empty trigger for icon %q", s.Icon)}
	}
	if _, seen := b.entries[s.Trigger]; !seen {
		b.order = append(b.order, s.Trigger)
	}
	b.entries[s.Trigger] = s
	return nil
}

func (b *builder) sorted() []types.Smiley {
	smileys := make([]types.Smiley, 0, len(b.order))
	for _, trigger := range b.order {
		smileys = append(smileys, b.entries[trigger])
	}
	sort.SliceStable(smileys, func(i, j int) bool {
		return len(smileys[i].Trigger) > len(smileys[j].Trigger)
	})
	return smileys
}

var embeddedDefault = sync.OnceValues(func() (types.Pack, error) {
	data, err := defaultsFS.ReadFile("defaults/" + DefaultPackName + "/" + DefinitionFile)
	if err != nil {
		return types.Pack{}, err
	}
	p, err := Parse(data, DefaultPackName, "").Value()
	p.Embedded = true
	return p, err
})

// Embedded returns the default pack compiled into the binary.
func Embedded() (types.Pack, error) {
	return embeddedDefault()
}

// Resolve loads the named pack from packsDir. When it is missing or invalid
// the on-disk default pack is tried, then the embedded default. The returned
// error is the cause of the fallback and is nil when the named pack loaded.
func Resolve(packsDir, name string) (types.Pack, error) {
	if name == "" {
		name = DefaultPackName
	}

	result := Load(filepath.Join(packsDir, name))
	if result.IsOk() {
		return result.Unwrap(), nil
	}
	cause := result.Error()

	if name != DefaultPackName {
		if p, err := Load(filepath.Join(packsDir, DefaultPackName)).Value(); err == nil {
			return p, cause
		}
	}

	p, err := Embedded()
	if err != nil {
		return types.Pack{}, fmt.Errorf("embedded default pack: %w", err)
	}
	return p, cause
}

// Summary describes a pack directory found on disk.
type Summary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Smileys int    `json:"smileys"`
	Err     error  `json:"-"`
}

// List returns a summary for every directory in packsDir holding a definition.
// Broken packs are listed with Err set.
func List(packsDir string) ([]Summary, error) {
	entries, err := os.ReadDir(packsDir)
	if err != nil {
		return nil, &PackNotFoundError{Path: packsDir, Err: err}
	}

	var summaries []Summary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(packsDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, DefinitionFile)); err != nil {
			continue
		}
		p, err := Load(dir).Value()
		summaries = append(summaries, Summary{
			ID:      entry.Name(),
			Name:    p.Name,
			Version: p.Version,
			Smileys: len(p.Smileys),
			Err:     err,
		})
	}
	return summaries, nil
}
