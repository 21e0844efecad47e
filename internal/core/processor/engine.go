package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/smileys/smileys/internal/cache"
	"github.com/smileys/smileys/internal/core/exclusion"
	"github.com/smileys/smileys/internal/core/matcher"
	"github.com/smileys/smileys/internal/core/pack"
	"github.com/smileys/smileys/internal/core/render"
	"github.com/smileys/smileys/internal/metrics"
	ctxutil "github.com/smileys/smileys/internal/observability/context"
	"github.com/smileys/smileys/internal/observability/logging"
	"github.com/smileys/smileys/internal/types"
)

// Reasons reported in Outcome.Skipped.
const (
	SkipDisabled  = "disabled"
	SkipUnchanged = "unchanged"
	SkipError     = "error"
)

// Options configure an Engine.
type Options struct {
	PacksDir string
	Pack     string
	Render   render.Options
	Matcher  matcher.Options
	// Store gates re-processing. Nil processes every document.
	Store   cache.Store
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Document is one unit of text handed to the engine.
type Document struct {
	// Key identifies the document in the processing store. Empty keys are
	// never gated.
	Key        string
	ModifiedAt time.Time
	Text       string
}

// Outcome describes what Process did with a document.
type Outcome struct {
	Text          string
	Processed     bool
	Substitutions int
	Skipped       string
	Errors        []error
}

// state is everything derived from one pack; it is swapped as a whole.
type state struct {
	packsDir string
	name     string
	pack     types.Pack
	matcher  *matcher.Matcher
	renderer *render.Renderer
}

// Engine substitutes smileys in documents. It is safe for concurrent use; the
// active pack can be replaced with Reload while documents are processed.
type Engine struct {
	opts    Options
	logger  logging.Logger
	store   cache.Store
	metrics *metrics.Metrics
	state   atomic.Pointer[state]
}

// New resolves the configured pack and prepares the engine. A missing or
// broken pack falls back to the default one and is only logged.
func New(opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = logging.GetGlobalLogger()
	}
	e := &Engine{
		opts:    opts,
		logger:  opts.Logger.With("component", "engine"),
		store:   opts.Store,
		metrics: opts.Metrics,
	}
	if err := e.Reload(opts.PacksDir, opts.Pack); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload resolves name in packsDir and swaps it in atomically. On error the
// previous pack stays active.
func (e *Engine) Reload(packsDir, name string) error {
	ctx := ctxutil.NewComponentContext("reload", "engine")

	p, cause := pack.Resolve(packsDir, name)
	if cause != nil {
		e.logger.Warn(ctx, "Smiley pack unavailable, using fallback",
			"requested", name, "packs_dir", packsDir, "fallback", p.ID, "error", cause)
	}
	if len(p.Smileys) == 0 {
		e.metrics.ObserveReload("error", e.Len())
		if cause == nil {
			cause = errors.New("no smileys")
		}
		return fmt.Errorf("load pack %q: %w", name, cause)
	}

	st, err := e.build(p)
	if err != nil {
		e.metrics.ObserveReload("error", e.Len())
		return err
	}
	st.packsDir, st.name = packsDir, name
	e.state.Store(st)

	status := "success"
	if cause != nil {
		status = "fallback"
	}
	e.metrics.ObserveReload(status, len(p.Smileys))
	e.logger.Info(ctxutil.WithPack(ctx, p.ID), "Smiley pack loaded",
		"name", p.Name, "version", p.Version, "triggers", len(p.Smileys), "embedded", p.Embedded)
	return nil
}

func (e *Engine) build(p types.Pack) (*state, error) {
	m, err := matcher.Compile(p, e.opts.Matcher)
	if err != nil {
		return nil, fmt.Errorf("compile pack %q: %w", p.ID, err)
	}
	r, err := render.New(p, e.opts.Render)
	if err != nil {
		return nil, fmt.Errorf("render pack %q: %w", p.ID, err)
	}
	return &state{pack: p, matcher: m, renderer: r}, nil
}

// Pack returns the active pack.
func (e *Engine) Pack() types.Pack {
	if st := e.state.Load(); st != nil {
		return st.pack
	}
	return types.Pack{}
}

// Len returns the number of triggers of the active pack.
func (e *Engine) Len() int {
	if st := e.state.Load(); st != nil {
		return st.matcher.Len()
	}
	return 0
}

// Process substitutes the smileys of doc. It never fails: problems are logged,
// collected in Outcome.Errors and leave the text unchanged where they prevent
// substitution.
func (e *Engine) Process(ctx context.Context, doc Document, cfg exclusion.Config) (out Outcome) {
	start := time.Now()
	ctx = ctxutil.WithDocumentKey(ctxutil.WithComponent(ctx, "engine"), doc.Key)
	out.Text = doc.Text
	recorded := false

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("substitution panicked: %v", r)
			e.logger.Error(ctx, "Recovered from panic while processing document", "error", err)
			out = Outcome{Text: doc.Text, Skipped: SkipError, Errors: append(out.Errors, err)}
			if recorded {
				e.Forget(ctx, doc.Key)
			}
		}
		e.metrics.ObserveDocument(resultLabel(out), out.Substitutions, time.Since(start))
	}()

	if !cfg.Enabled {
		out.Skipped = SkipDisabled
		return out
	}

	if e.store != nil && doc.Key != "" {
		process, err := e.store.ShouldProcess(ctx, doc.Key, doc.ModifiedAt)
		if err != nil {
			e.logger.Error(ctx, "Processing store failed", "error", err)
			out.Skipped = SkipError
			out.Errors = append(out.Errors, err)
			return out
		}
		if !process {
			e.logger.Debug(ctx, "Document unchanged since last run")
			out.Skipped = SkipUnchanged
			return out
		}
		recorded = true
	}

	st := e.state.Load()
	ctx = ctxutil.WithPack(ctx, st.pack.ID)

	ex, errs := exclusion.New(doc.Text, cfg)
	for _, err := range errs {
		e.logger.Warn(ctx, "Skipping exclusion pattern", "error", err)
		out.Errors = append(out.Errors, err)
	}

	out.Text, out.Substitutions = Substitute(doc.Text, st.matcher, ex, st.renderer.Render)
	out.Processed = true

	e.logger.Debug(ctx, "Document processed",
		"substitutions", out.Substitutions,
		"excluded_spans", len(ex.Spans()),
		"bytes", len(doc.Text))
	return out
}

// Remember records modifiedAt for key in the processing store, typically
// after the processed document was written back and got a new timestamp.
func (e *Engine) Remember(ctx context.Context, key string, modifiedAt time.Time) error {
	if e.store == nil || key == "" {
		return nil
	}
	return e.store.Record(ctx, key, modifiedAt)
}

// Forget drops the processing record of key so the next Process call for it
// runs again. Used when a processed document could not be written back.
func (e *Engine) Forget(ctx context.Context, key string) {
	if e.store == nil || key == "" {
		return
	}
	if err := e.store.Forget(ctx, key); err != nil {
		e.logger.Warn(ctx, "Could not drop processing record", "error", err)
	}
}

// Watch reloads the active pack whenever its directory changes, until ctx
// ends. When the pack directory does not exist the packs directory is
// watched instead so that creating it is noticed.
func (e *Engine) Watch(ctx context.Context, debounce time.Duration) error {
	st := e.state.Load()
	packsDir, name := st.packsDir, st.name
	if name == "" {
		name = pack.DefaultPackName
	}

	target := filepath.Join(packsDir, name)
	if _, err := os.Stat(target); err != nil {
		target = packsDir
	}

	w := pack.NewWatcher(target, debounce, e.logger, func(ctx context.Context) {
		if err := e.Reload(packsDir, name); err != nil {
			e.logger.Error(ctx, "Pack reload failed", "error", err)
		}
	})
	return w.Run(ctx)
}

func resultLabel(out Outcome) string {
	if out.Processed {
		return "processed"
	}
	return out.Skipped
}

// DocumentKey derives a stable processing key from a document path.
func DocumentKey(path string) string {
	cleaned := filepath.ToSlash(filepath.Clean(path))
	h1, h2 := murmur3.Sum128([]byte(cleaned))
	return fmt.Sprintf("%016x%016x", h1, h2)
}
