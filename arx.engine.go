package arx

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/agentrx/go-arx/internal"
)

// Engine parses and renders ARX documents. It owns the document source and
// the parsed-document cache; renders are independent and may run
// concurrently.
type Engine struct {
	config *engineConfig
	source Source
	cache  *DocumentCache
	logger *zap.Logger
}

// RenderOptions configures one render
type RenderOptions struct {
	// Phase selects which phase-tagged variables resolve. Default: eager only
	Phase Phase

	// Strict fails the render when an eager variable without a default
	// does not resolve.
	Strict bool

	// Data layers applied in order; later entries win.
	Primary   []map[string]any
	Secondary []map[string]any

	// Augmenter overrides the engine's augmentation step for this render.
	Augmenter Augmenter
}

// New creates a new Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	if config.maxIncludeDepth < 0 {
		return nil, NewConfigError(ErrMsgInvalidIncludeDepth, "")
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	source := config.source
	if source == nil {
		source = NewFileSource().WithLogger(logger)
	}

	var cache *DocumentCache
	if config.cacheEnabled {
		cache = NewDocumentCache(config.cacheConfig)
	}

	logger.Debug(LogMsgEngineCreated, zap.Bool(LogFieldCached, cache != nil))
	return &Engine{
		config: config,
		source: source,
		cache:  cache,
		logger: logger,
	}, nil
}

// MustNew creates a new Engine and panics if there's an error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// Parse parses an anonymous document. Includes inside it resolve relative
// to the source's top level.
func (e *Engine) Parse(source string) (*Document, error) {
	return parseDocument("", source, e.logger)
}

// ParseNamed parses a document with an explicit identity, bypassing the
// source and the cache
func (e *Engine) ParseNamed(id, source string) (*Document, error) {
	return parseDocument(id, source, e.logger)
}

// Load resolves target through the source, relative to the identity from
// (empty for top-level lookups), and returns the parsed document. Parse
// results are cached by identity.
func (e *Engine) Load(ctx context.Context, target, from string) (*Document, error) {
	src, err := e.source.Load(ctx, target, from)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if doc, ok := e.cache.Get(src.ID, src.Content); ok {
			e.logger.Debug(LogMsgCacheHit, zap.String(LogFieldDocument, src.ID))
			return doc, nil
		}
	}

	doc, err := parseDocument(src.ID, src.Content, e.logger)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Put(src.ID, src.Content, doc)
	}
	e.logger.Debug(LogMsgDocumentLoaded,
		zap.String(LogFieldTarget, target),
		zap.String(LogFieldDocument, src.ID))
	return doc, nil
}

// Cache returns the parsed-document cache, nil when disabled
func (e *Engine) Cache() *DocumentCache {
	return e.cache
}

// Source returns the configured document source
func (e *Engine) Source() Source {
	return e.source
}

// BuildContext merges the layers of opts for doc and runs augmentation
func (e *Engine) BuildContext(ctx context.Context, doc *Document, opts RenderOptions) (*Context, error) {
	builder := NewContextBuilder(doc.FrontMatter()).
		WithLogger(e.logger).
		WithEnvironment(e.config.env).
		WithAugmenter(e.augmenterFor(doc, opts))
	for _, data := range opts.Primary {
		builder.AddPrimary(data)
	}
	for _, data := range opts.Secondary {
		builder.AddSecondary(data)
	}
	return builder.Build(ctx)
}

// Render builds the context for doc from opts and renders it
func (e *Engine) Render(ctx context.Context, doc *Document, opts RenderOptions) (string, error) {
	c, err := e.BuildContext(ctx, doc, opts)
	if err != nil {
		return "", err
	}
	return e.RenderWithContext(ctx, doc, c, opts)
}

// RenderWithContext renders doc against a prebuilt context. Only the phase
// and strict settings of opts apply.
func (e *Engine) RenderWithContext(ctx context.Context, doc *Document, c *Context, opts RenderOptions) (string, error) {
	if _, err := ParsePhase(string(opts.Phase)); err != nil {
		return "", err
	}
	if c == nil {
		c = NewContext(nil)
	}

	renderer := internal.NewRenderer(&engineIncluder{engine: e}, internal.RenderConfig{
		Phase:           opts.Phase,
		Strict:          opts.Strict,
		MaxIncludeDepth: e.config.maxIncludeDepth,
	}, e.logger)

	out, err := renderer.Render(ctx, doc.root, c.scope(), doc.ID())
	if err != nil {
		return "", fromInternalError(err)
	}
	return out, nil
}

// RenderString parses an anonymous document and renders it
func (e *Engine) RenderString(ctx context.Context, source string, opts RenderOptions) (string, error) {
	doc, err := e.Parse(source)
	if err != nil {
		return "", err
	}
	return e.Render(ctx, doc, opts)
}

// RenderTarget loads a document through the source and renders it
func (e *Engine) RenderTarget(ctx context.Context, target string, opts RenderOptions) (string, error) {
	doc, err := e.Load(ctx, target, "")
	if err != nil {
		return "", err
	}
	return e.Render(ctx, doc, opts)
}

// augmenterFor picks the augmentation step of one render: the per-render
// override, then the engine's, then the document's script if enabled
func (e *Engine) augmenterFor(doc *Document, opts RenderOptions) Augmenter {
	if opts.Augmenter != nil {
		return opts.Augmenter
	}
	if e.config.augmenter != nil {
		return e.config.augmenter
	}
	script := doc.FrontMatter().Script()
	if !e.config.scripts || script == "" {
		return nil
	}
	if !filepath.IsAbs(script) && filepath.IsAbs(doc.ID()) {
		script = filepath.Join(filepath.Dir(doc.ID()), script)
	}
	return NewScriptAugmenter(script,
		WithScriptTimeoutOption(e.config.scriptTimeout),
		WithScriptLogger(e.logger))
}

// engineIncluder serves include targets to the renderer
type engineIncluder struct {
	engine *Engine
}

func (i *engineIncluder) Include(ctx context.Context, target, from string) (*internal.IncludedDocument, error) {
	doc, err := i.engine.Load(ctx, target, from)
	if err != nil {
		return nil, err
	}
	return doc.included(), nil
}
