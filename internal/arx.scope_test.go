package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScope() *Scope {
	data := FromAny(map[string]any{
		"user": map[string]any{
			"name":  "Ada",
			"roles": []any{"admin", "dev"},
			"0":     "zero-key",
		},
		"items": []any{
			map[string]any{"name": "first"},
			map[string]any{"name": "second"},
		},
		"count": 3,
		"env":   "user-env",
	})
	env := func(name string) (string, bool) {
		if name == "HOME" {
			return "/home/ada", true
		}
		return "", false
	}
	return NewScope(data.Fields(), env)
}

func TestScope_Lookup(t *testing.T) {
	scope := testScope()

	tests := []struct {
		name     string
		path     string
		expected string
		found    bool
	}{
		{"top level", "count", "3", true},
		{"nested key", "user.name", "Ada", true},
		{"list index", "user.roles.1", "dev", true},
		{"digit key on map", "user.0", "zero-key", true},
		{"index out of range", "user.roles.5", "", false},
		{"non digit on list", "user.roles.first", "", false},
		{"into scalar", "user.name.first", "", false},
		{"missing top level", "nobody", "", false},
		{"list of maps", "items.1.name", "second", true},
		{"env var", "env.HOME", "/home/ada", true},
		{"unset env var", "env.NOPE", "", false},
		{"env key without prefix", "env", "user-env", true},
		{"current item outside loop", ".", "", false},
		{"empty path", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := scope.Lookup(tt.path)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, v.Text())
		})
	}
}

func TestScope_EnvDisabled(t *testing.T) {
	scope := NewScope(nil, nil)
	_, ok := scope.Lookup("env.HOME")
	assert.False(t, ok)
}

func TestScope_ChildBindingsDoNotLeak(t *testing.T) {
	root := testScope()
	items, ok := root.Lookup("items")
	require.True(t, ok)

	child := root.Child(items.Items()[0], map[string]Value{"it": items.Items()[0], "count": Number(99)})

	v, ok := child.Lookup(".name")
	require.True(t, ok)
	assert.Equal(t, "first", v.Text())

	v, ok = child.Lookup("it.name")
	require.True(t, ok)
	assert.Equal(t, "first", v.Text())

	v, ok = child.Lookup("count")
	require.True(t, ok)
	assert.Equal(t, "99", v.Text())

	v, ok = child.Lookup("user.name")
	require.True(t, ok)
	assert.Equal(t, "Ada", v.Text())

	_, ok = root.Lookup("it")
	assert.False(t, ok)
	v, _ = root.Lookup("count")
	assert.Equal(t, "3", v.Text())
}

func TestScope_NestedCurrentItem(t *testing.T) {
	root := NewScope(nil, nil)
	outer := root.Child(String("outer"), nil)
	inner := outer.Child(String("inner"), nil)

	v, ok := inner.Lookup(".")
	require.True(t, ok)
	assert.Equal(t, "inner", v.Text())
}

func TestScope_SnapshotAndIsolated(t *testing.T) {
	root := NewScope(map[string]Value{"a": Number(1), "b": Number(2)}, nil)
	child := root.Child(String("cur"), map[string]Value{"b": Number(3)})

	snap := child.Snapshot()
	assert.Equal(t, "1", snap["a"].Text())
	assert.Equal(t, "3", snap["b"].Text())

	iso := child.Isolated(map[string]Value{"z": Bool(true)})
	_, ok := iso.Lookup("a")
	assert.False(t, ok)
	v, ok := iso.Lookup(".")
	require.True(t, ok)
	assert.Equal(t, "cur", v.Text())
	assert.True(t, iso.Has("z"))
}
