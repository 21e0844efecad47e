package types

// Smiley is one trigger of a pack together with the icon it stands for.
type Smiley struct {
	// Trigger is the literal text recognized in content, e.g. ":-)"
	Trigger string `json:"trigger" yaml:"trigger"`

	// Icon is the asset file name relative to the pack directory
	Icon string `json:"icon" yaml:"icon"`

	// Title is the human readable name used for alt/title attributes
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Emoji is an optional shortcode (":smile:") used by unicode rendering
	Emoji string `json:"emoji,omitempty" yaml:"emoji,omitempty"`
}

// Pack is an immutable smiley pack. Smileys are ordered by descending
// trigger length so that the longest trigger at any offset is tried first.
type Pack struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Version string   `json:"version,omitempty"`
	Author  string   `json:"author,omitempty"`
	Path    string   `json:"path,omitempty"`
	Smileys []Smiley `json:"smileys"`

	// Embedded is true when the pack came from the built-in default definition
	Embedded bool `json:"embedded,omitempty"`
}

// Triggers returns the pack's triggers in matching order.
func (p Pack) Triggers() []string {
	triggers := make([]string, len(p.Smileys))
	for i, s := range p.Smileys {
		triggers[i] = s.Trigger
	}
	return triggers
}

// Lookup returns the smiley registered for trigger.
func (p Pack) Lookup(trigger string) (Smiley, bool) {
	for _, s := range p.Smileys {
		if s.Trigger == trigger {
			return s, true
		}
	}
	return Smiley{}, false
}

// Span is a half-open byte range [Start, End) of a document.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether offset lies inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Match is a trigger occurrence reported by the matcher.
type Match struct {
	Start  int
	End    int
	Smiley Smiley
}
