// Package render turns matched smileys into icon references.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"path"
	"strings"

	"github.com/kyokomi/emoji/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/smileys/smileys/internal/types"
)

// Mode selects the reference format.
type Mode string

const (
	// ModeHTML emits an <img> element
	ModeHTML Mode = "html"
	// ModeMarkdown emits a markdown image
	ModeMarkdown Mode = "markdown"
	// ModeUnicode emits the smiley's emoji character, falling back to HTML
	ModeUnicode Mode = "unicode"
)

// Modes lists the supported modes.
var Modes = []Mode{ModeHTML, ModeMarkdown, ModeUnicode}

// Options configure a Renderer.
type Options struct {
	Mode     Mode
	BaseURL  string
	CSSClass string
}

// DefaultOptions mirror the layout of an installed pack directory.
func DefaultOptions() Options {
	return Options{
		Mode:     ModeHTML,
		BaseURL:  "/user/data/smileys",
		CSSClass: "smileys",
	}
}

var imgTemplate = template.Must(template.New("img").Parse(
	`<img{{with .Class}} class="{{.}}"{{end}} src="{{.Src}}" alt="{{.Alt}}" title="{{.Title}}" />`))

// imgPolicy only lets through the attributes the template writes.
var imgPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("img")
	p.AllowAttrs("class", "alt", "title").OnElements("img")
	p.AllowAttrs("src").OnElements("img")
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https")
	return p
}()

// Renderer holds the precomputed reference of every trigger of a pack.
type Renderer struct {
	opts   Options
	packID string
	refs   map[string]string
}

// New renders every smiley of p once. Smileys whose reference sanitizes to
// nothing are left out and will not be substituted.
func New(p types.Pack, opts Options) (*Renderer, error) {
	if opts.Mode == "" {
		opts.Mode = ModeHTML
	}
	if !validMode(opts.Mode) {
		return nil, fmt.Errorf("unknown render mode %q", opts.Mode)
	}

	r := &Renderer{
		opts:   opts,
		packID: p.ID,
		refs:   make(map[string]string, len(p.Smileys)),
	}
	for _, s := range p.Smileys {
		ref, err := r.reference(s)
		if err != nil {
			return nil, fmt.Errorf("render %q: %w", s.Trigger, err)
		}
		if ref != "" {
			r.refs[s.Trigger] = ref
		}
	}
	return r, nil
}

// Mode returns the effective render mode.
func (r *Renderer) Mode() Mode {
	return r.opts.Mode
}

// Render returns the reference for s. ok is false when s has none.
func (r *Renderer) Render(s types.Smiley) (string, bool) {
	ref, ok := r.refs[s.Trigger]
	return ref, ok
}

func (r *Renderer) reference(s types.Smiley) (string, error) {
	switch r.opts.Mode {
	case ModeUnicode:
		if ch := unicodeFor(s.Emoji); ch != "" {
			return ch, nil
		}
		return r.html(s)
	case ModeMarkdown:
		return r.markdown(s), nil
	default:
		return r.html(s)
	}
}

func (r *Renderer) html(s types.Smiley) (string, error) {
	var buf bytes.Buffer
	err := imgTemplate.Execute(&buf, struct {
		Class, Src, Alt, Title string
	}{
		Class: r.opts.CSSClass,
		Src:   r.iconURL(s.Icon),
		Alt:   s.Trigger,
		Title: titleOf(s),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(imgPolicy.Sanitize(buf.String())), nil
}

// markdown uses the title as alt text so the reference holds no trigger.
func (r *Renderer) markdown(s types.Smiley) string {
	alt := markdownEscaper.Replace(titleOf(s))
	title := strings.ReplaceAll(titleOf(s), `"`, `\"`)
	return fmt.Sprintf(`![%s](%s "%s")`, alt, r.iconURL(s.Icon), title)
}

var markdownEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`, `\`, `\\`)

func (r *Renderer) iconURL(icon string) string {
	segments := strings.Split(path.Clean("/"+icon), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(r.opts.BaseURL, "/") + "/" + url.PathEscape(r.packID) + strings.Join(segments, "/")
}

// titleOf falls back to the icon file name without extension.
func titleOf(s types.Smiley) string {
	if s.Title != "" {
		return s.Title
	}
	base := path.Base(s.Icon)
	return strings.TrimSuffix(base, path.Ext(base))
}

// unicodeFor resolves a ":shortcode:" through the emoji code map.
func unicodeFor(code string) string {
	if code == "" {
		return ""
	}
	if !strings.HasPrefix(code, ":") {
		code = ":" + code + ":"
	}
	return strings.TrimSpace(emoji.CodeMap()[code])
}

func validMode(m Mode) bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}
