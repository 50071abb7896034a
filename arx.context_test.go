package arx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFrontMatter(t *testing.T, source string) *FrontMatter {
	t.Helper()
	fm, _, err := SplitFrontMatter(source)
	require.NoError(t, err)
	return fm
}

func TestContextBuilder_Precedence(t *testing.T) {
	fm := mustFrontMatter(t, "---\ninputs:\n  key:\n    default: defaults\n---\n")

	augment := AugmenterFunc(func(_ context.Context, data map[string]any) (map[string]any, error) {
		return map[string]any{"key": "augmentation"}, nil
	})

	c, err := NewContextBuilder(fm).
		AddPrimary(map[string]any{"key": "primary"}).
		AddSecondary(map[string]any{"key": "secondary"}).
		WithAugmenter(augment).
		Build(context.Background())
	require.NoError(t, err)

	v, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, "augmentation", v)
}

func TestContextBuilder_LayerOrder(t *testing.T) {
	fm := mustFrontMatter(t, "---\ninputs:\n  a:\n    default: 0\n  b:\n    default: 0\n  c:\n    default: 0\n  d:\n    default: 0\n---\n")

	c, err := NewContextBuilder(fm).
		AddSecondary(map[string]any{"c": 3}).
		AddPrimary(map[string]any{"b": 2, "c": 2}).
		AddPrimary(map[string]any{"b": 22}).
		Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"a": float64(0),
		"b": float64(22),
		"c": float64(3),
		"d": float64(0),
	}, c.Data())
	assert.Equal(t, []string{"a", "b", "c", "d"}, c.Keys())
}

func TestContextBuilder_AugmenterSeesMergedInput(t *testing.T) {
	var seen map[string]any
	augment := AugmenterFunc(func(_ context.Context, data map[string]any) (map[string]any, error) {
		seen = data
		return map[string]any{"extra": true}, nil
	})

	c, err := NewContextBuilder(nil).
		AddPrimary(map[string]any{"a": 1}).
		AddSecondary(map[string]any{"b": "two"}).
		WithAugmenter(augment).
		Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"a": float64(1), "b": "two"}, seen)
	assert.True(t, c.Has("extra"))
	assert.True(t, c.Has("a"))
}

func TestContextBuilder_ExplicitAugmentationLayerWins(t *testing.T) {
	augment := AugmenterFunc(func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"k": "script"}, nil
	})

	c, err := NewContextBuilder(nil).
		WithAugmenter(augment).
		Add(LayerAugmentation, map[string]any{"k": "explicit"}).
		Build(context.Background())
	require.NoError(t, err)

	v, _ := c.Get("k")
	assert.Equal(t, "explicit", v)
}

func TestContextBuilder_MissingRequiredInputs(t *testing.T) {
	fm := mustFrontMatter(t, "---\ninputs:\n  zeta:\n    required: true\n  alpha:\n    required: true\n  given:\n    required: true\n  opt:\n    required: true\n    default: x\n---\n")

	_, err := NewContextBuilder(fm).
		AddPrimary(map[string]any{"given": "yes"}).
		Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingRequiredInput))
	assert.Contains(t, err.Error(), "alpha, zeta")
	assert.NotContains(t, err.Error(), "opt")
}

func TestContextBuilder_RequiredSatisfiedByAugmentation(t *testing.T) {
	fm := mustFrontMatter(t, "---\ninputs:\n  computed:\n    required: true\n---\n")
	augment := AugmenterFunc(func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"computed": 42}, nil
	})

	c, err := NewContextBuilder(fm).WithAugmenter(augment).Build(context.Background())
	require.NoError(t, err)
	v, _ := c.Get("computed")
	assert.Equal(t, float64(42), v)
}

func TestContextBuilder_AugmenterError(t *testing.T) {
	augment := AugmenterFunc(func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return nil, errors.New("boom")
	})

	_, err := NewContextBuilder(nil).WithAugmenter(augment).Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAugmentationFailed))
	assert.Contains(t, err.Error(), "boom")
}

func TestContextBuilder_IgnoresNilAndUnknownLayers(t *testing.T) {
	c, err := NewContextBuilder(nil).
		AddPrimary(nil).
		Add(Layer(99), map[string]any{"x": 1}).
		Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, c.Keys())
}

func TestContext_Environment(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "HOME" {
			return "/home/arx", true
		}
		return "", false
	}

	c := NewContext(map[string]any{"HOME": "data"})
	_, ok := c.Get("env.HOME")
	assert.False(t, ok)
	assert.False(t, c.EnvironmentEnabled())

	withEnv := c.WithEnvironment(lookup)
	v, ok := withEnv.Get("env.HOME")
	require.True(t, ok)
	assert.Equal(t, "/home/arx", v)
	assert.True(t, withEnv.EnvironmentEnabled())

	// environment never shadows top-level keys
	v, ok = withEnv.Get("HOME")
	require.True(t, ok)
	assert.Equal(t, "data", v)
}

func TestContext_Get(t *testing.T) {
	c := NewContext(map[string]any{
		"user":  map[string]any{"name": "Ada", "tags": []any{"x", "y"}},
		"empty": nil,
	})

	tests := []struct {
		path string
		want any
		ok   bool
	}{
		{"user.name", "Ada", true},
		{"user.tags.1", "y", true},
		{"user.tags.5", nil, false},
		{"user.missing", nil, false},
		{"nope", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			v, ok := c.Get(tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, v)
			}
		})
	}
	assert.True(t, c.Has("empty"))
}

func TestLayer_String(t *testing.T) {
	assert.Equal(t, LayerNameDefaults, LayerDefaults.String())
	assert.Equal(t, LayerNamePrimary, LayerPrimary.String())
	assert.Equal(t, LayerNameSecondary, LayerSecondary.String())
	assert.Equal(t, LayerNameAugmentation, LayerAugmentation.String())
}
