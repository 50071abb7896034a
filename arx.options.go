package arx

import (
	"time"

	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	logger          *zap.Logger
	source          Source
	augmenter       Augmenter
	scripts         bool
	scriptTimeout   time.Duration
	env             EnvLookup
	cacheConfig     CacheConfig
	cacheEnabled    bool
	maxIncludeDepth int
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		scriptTimeout:   DefaultScriptTimeout,
		cacheConfig:     DefaultCacheConfig(),
		cacheEnabled:    true,
		maxIncludeDepth: DefaultMaxIncludeDepth,
	}
}

// WithLogger sets the logger for the engine.
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithSource sets where top-level and included documents are loaded from.
// Default: a FileSource without search directories
func WithSource(source Source) Option {
	return func(c *engineConfig) {
		c.source = source
	}
}

// WithAugmenter sets a fixed augmentation step for every render. It takes
// priority over a document's script front-matter key.
func WithAugmenter(a Augmenter) Option {
	return func(c *engineConfig) {
		c.augmenter = a
	}
}

// WithScripts allows documents to name an augmentation script in their
// front matter. Default: disabled
func WithScripts(enabled bool) Option {
	return func(c *engineConfig) {
		c.scripts = enabled
	}
}

// WithScriptTimeout bounds front-matter scripts.
// Default: 30 seconds
func WithScriptTimeout(d time.Duration) Option {
	return func(c *engineConfig) {
		if d > 0 {
			c.scriptTimeout = d
		}
	}
}

// WithEnvironment exposes the process environment under env.
// Default: disabled
func WithEnvironment(enabled bool) Option {
	return func(c *engineConfig) {
		if enabled {
			c.env = OSEnvironment
		} else {
			c.env = nil
		}
	}
}

// WithEnvLookup exposes a custom environment under env.
func WithEnvLookup(lookup EnvLookup) Option {
	return func(c *engineConfig) {
		c.env = lookup
	}
}

// WithCacheConfig sets the parsed-document cache configuration.
func WithCacheConfig(config CacheConfig) Option {
	return func(c *engineConfig) {
		c.cacheConfig = config
		c.cacheEnabled = true
	}
}

// WithoutCache disables the parsed-document cache.
func WithoutCache() Option {
	return func(c *engineConfig) {
		c.cacheEnabled = false
	}
}

// WithMaxIncludeDepth sets the maximum include nesting depth.
// Use 0 for unlimited depth; cycles are still detected.
// Default: 32
func WithMaxIncludeDepth(depth int) Option {
	return func(c *engineConfig) {
		c.maxIncludeDepth = depth
	}
}
