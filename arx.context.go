package arx

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/agentrx/go-arx/internal"
)

// Value is a render-time context value
type Value = internal.Value

// ValueOf converts decoded data or plain Go values into a Value
func ValueOf(x any) Value { return internal.FromAny(x) }

// EnvLookup reads one environment variable
type EnvLookup = internal.EnvLookup

// OSEnvironment reads the process environment
func OSEnvironment(name string) (string, bool) { return os.LookupEnv(name) }

// Context is the merged data a document renders against. The environment,
// when enabled, is reachable only through the env. prefix.
type Context struct {
	values map[string]Value
	env    EnvLookup
}

// NewContext creates a context over data without environment access
func NewContext(data map[string]any) *Context {
	return &Context{values: internal.MapFromAny(data)}
}

// WithEnvironment returns a copy of c whose env. paths read from lookup.
// A nil lookup disables the environment.
func (c *Context) WithEnvironment(lookup EnvLookup) *Context {
	return &Context{values: c.values, env: lookup}
}

// Get resolves a dotted path the way templates do
func (c *Context) Get(path string) (any, bool) {
	v, ok := c.scope().Lookup(path)
	if !ok {
		return nil, false
	}
	return v.Interface(), true
}

// Has reports whether a top-level key is present
func (c *Context) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Data returns the top-level mapping as plain Go values
func (c *Context) Data() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v.Interface()
	}
	return out
}

// Keys returns the top-level keys in sorted order
func (c *Context) Keys() []string {
	return internal.SortedKeys(c.values)
}

// EnvironmentEnabled reports whether env. paths resolve
func (c *Context) EnvironmentEnabled() bool {
	return c.env != nil
}

func (c *Context) scope() *internal.Scope {
	vars := make(map[string]Value, len(c.values))
	for k, v := range c.values {
		vars[k] = v
	}
	return internal.NewScope(vars, c.env)
}

// Layer is a context source; higher layers override lower ones key by key
type Layer int

// Context layers, lowest precedence first
const (
	LayerDefaults Layer = iota
	LayerPrimary
	LayerSecondary
	LayerAugmentation
	layerCount
)

// Layer names
const (
	LayerNameDefaults     = "defaults"
	LayerNamePrimary      = "primary"
	LayerNameSecondary    = "secondary"
	LayerNameAugmentation = "augmentation"
)

// String returns the layer name
func (l Layer) String() string {
	switch l {
	case LayerPrimary:
		return LayerNamePrimary
	case LayerSecondary:
		return LayerNameSecondary
	case LayerAugmentation:
		return LayerNameAugmentation
	default:
		return LayerNameDefaults
	}
}

// ContextBuilder merges the context layers of one render: front matter
// defaults, primary data, secondary (streamed) data and augmentation output.
// Merging is shallow: a higher layer replaces a top-level key outright.
type ContextBuilder struct {
	frontMatter *FrontMatter
	layers      [layerCount][]map[string]any
	augmenter   Augmenter
	env         EnvLookup
	logger      *zap.Logger
}

// NewContextBuilder creates a builder for a document's front matter.
// fm may be nil for documents without declared inputs.
func NewContextBuilder(fm *FrontMatter) *ContextBuilder {
	return &ContextBuilder{frontMatter: fm, logger: zap.NewNop()}
}

// WithLogger sets the logger
func (b *ContextBuilder) WithLogger(logger *zap.Logger) *ContextBuilder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// Add appends data to a layer. Within a layer later data wins.
func (b *ContextBuilder) Add(layer Layer, data map[string]any) *ContextBuilder {
	if layer < LayerDefaults || layer >= layerCount || data == nil {
		return b
	}
	b.layers[layer] = append(b.layers[layer], data)
	return b
}

// AddPrimary appends primary data such as a data file or inline JSON
func (b *ContextBuilder) AddPrimary(data map[string]any) *ContextBuilder {
	return b.Add(LayerPrimary, data)
}

// AddSecondary appends streamed data such as JSON read from stdin
func (b *ContextBuilder) AddSecondary(data map[string]any) *ContextBuilder {
	return b.Add(LayerSecondary, data)
}

// WithAugmenter sets the step that computes the augmentation layer
func (b *ContextBuilder) WithAugmenter(a Augmenter) *ContextBuilder {
	b.augmenter = a
	return b
}

// WithEnvironment enables env. paths backed by lookup
func (b *ContextBuilder) WithEnvironment(lookup EnvLookup) *ContextBuilder {
	b.env = lookup
	return b
}

// Build merges the layers, runs the augmenter and checks required inputs.
// Every missing input is reported in a single error.
func (b *ContextBuilder) Build(ctx context.Context) (*Context, error) {
	merged := make(map[string]any)
	apply := func(data map[string]any) {
		for k, v := range data {
			merged[k] = v
		}
	}

	if b.frontMatter != nil {
		apply(b.frontMatter.Defaults())
	}
	for layer := LayerDefaults; layer < LayerAugmentation; layer++ {
		for _, data := range b.layers[layer] {
			apply(data)
		}
	}

	if b.augmenter != nil {
		input, _ := internal.FromAny(merged).Interface().(map[string]any)
		out, err := b.augmenter.Augment(ctx, input)
		if err != nil {
			if errors.Is(err, ErrAugmentationFailed) {
				return nil, err
			}
			return nil, NewAugmentationError("", "", err)
		}
		apply(out)
	}
	for _, data := range b.layers[LayerAugmentation] {
		apply(data)
	}

	if b.frontMatter != nil {
		var missing []string
		for _, name := range b.frontMatter.RequiredInputs() {
			if _, ok := merged[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return nil, NewMissingRequiredInputError(missing)
		}
	}

	b.logger.Debug(LogMsgContextBuilt,
		zap.Int(LogFieldKeys, len(merged)),
		zap.Bool(LogFieldAugmented, b.augmenter != nil))

	return &Context{values: internal.MapFromAny(merged), env: b.env}, nil
}
