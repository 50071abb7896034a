package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mapIncluder serves parsed documents from a name → source map
type mapIncluder struct {
	t        *testing.T
	docs     map[string]string
	defaults map[string]map[string]Value
	required map[string][]string
	calls    []string
}

var errNotFound = errors.New("not found")

func (m *mapIncluder) Include(_ context.Context, target, from string) (*IncludedDocument, error) {
	m.calls = append(m.calls, from+"->"+target)
	src, ok := m.docs[target]
	if !ok {
		return nil, errNotFound
	}
	root, err := parseSource(m.t, src)
	if err != nil {
		return nil, err
	}
	return &IncludedDocument{
		ID:       target,
		Root:     root,
		Defaults: m.defaults[target],
		Required: m.required[target],
	}, nil
}

func render(t *testing.T, src string, data map[string]any, config RenderConfig, includer Includer) (string, error) {
	t.Helper()
	root, err := parseSource(t, src)
	require.NoError(t, err)
	scope := NewScope(FromAny(data).Fields(), nil)
	return NewRenderer(includer, config, zap.NewNop()).Render(context.Background(), root, scope, "main")
}

func TestRenderer_Basics(t *testing.T) {
	data := map[string]any{
		"name":    "Ada",
		"empty":   "",
		"none":    nil,
		"zero":    0,
		"list":    []any{},
		"obj":     map[string]any{},
		"flag":    true,
		"tags":    []any{"a", "b"},
		"details": map[string]any{"k": 1},
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"literal", "no tags {{here}}", "no tags {{here}}"},
		{"variable", "Hi <ARX [[name]] />!", "Hi Ada!"},
		{"missing variable", "[<ARX [[missing]] />]", "[]"},
		{"default used", `<ARX [[missing | "anon"]] />`, "anon"},
		{"default unused", `<ARX [[name | "anon"]] />`, "Ada"},
		{"null uses default", `<ARX [[none | "dflt"]] />`, "dflt"},
		{"empty string beats default", `[<ARX [[empty | "dflt"]] />]`, "[]"},
		{"bool output true", "<ARX [[#flag]] />", "true"},
		{"bool output empty list", "<ARX [[#list]] />", "false"},
		{"bool output missing", "<ARX [[#missing]] />", "false"},
		{"container as json", "<ARX [[tags]] /> <ARX [[details]] />", `["a","b"] {"k":1}`},
		{"conditional then", "<ARX [[#flag]]: />yes<ARX ]: />no<ARX : />", "yes"},
		{"conditional else", "<ARX [[#zero]]: />yes<ARX ]: />no<ARX : />", "no"},
		{"empty list falsy", "<ARX [[#list]]: />T<ARX ]: />F<ARX : />", "F"},
		{"empty map falsy", "<ARX [[#obj]]: />T<ARX ]: />F<ARX : />", "F"},
		{"negated", "<ARX [[^empty]]: />none<ARX : />", "none"},
		{"negated missing", "<ARX [[^missing]]: />absent<ARX : />", "absent"},
		{"loop over scalar renders nothing", "[<ARX [[*name]]: />x<ARX : />]", "[]"},
		{"loop over missing renders nothing", "[<ARX [[*missing]]: />x<ARX : />]", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := render(t, tt.template, data, RenderConfig{}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestRenderer_LoopBindings(t *testing.T) {
	data := map[string]any{"xs": []any{"a", "b", "c"}, "x": "outer"}

	out, err := render(t, "<ARX [[*xs as x, i]]: /><ARX [[i]] />:<ARX [[x]] /> <ARX : />|<ARX [[x]] />", data, RenderConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "0:a 1:b 2:c |outer", out)

	out, err = render(t, "<ARX [[*xs]]: />(<ARX [[.]] />)<ARX : />", data, RenderConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "(a)(b)(c)", out)
}

func TestRenderer_NestedLoopsRelativePaths(t *testing.T) {
	data := map[string]any{
		"groups": []any{
			map[string]any{"name": "g1", "members": []any{"m1", "m2"}},
			map[string]any{"name": "g2", "members": []any{}},
		},
	}
	tpl := "<ARX [[*groups as g]]: /><ARX [[.name]] />=<ARX [[*g.members]]: /><ARX [[.]] />/<ARX [[g.name]] />;<ARX : /> <ARX : />"
	out, err := render(t, tpl, data, RenderConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "g1=m1/g1;m2/g1; g2= ", out)
}

func TestRenderer_Phases(t *testing.T) {
	tpl := "<ARX [[a]] /> <ARX [[b]]:new /> <ARX [[c]]:do />"
	data := map[string]any{"a": "A", "b": "B", "c": "C"}

	tests := []struct {
		phase    Phase
		expected string
	}{
		{PhaseNone, "A <ARX [[b]]:new /> <ARX [[c]]:do />"},
		{PhaseNew, "A B <ARX [[c]]:do />"},
		{PhaseDo, "A <ARX [[b]]:new /> C"},
		{PhaseAll, "A B C"},
	}

	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			out, err := render(t, tpl, data, RenderConfig{Phase: tt.phase}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestRenderer_PhaseDeferralIsIdempotent(t *testing.T) {
	tpl := "x=<ARX [[x]]:new /> y=<ARX [[y]]:do /> z=<ARX [[z]] />"

	first, err := render(t, tpl, map[string]any{"x": 1, "z": 3}, RenderConfig{Phase: PhaseNew}, nil)
	require.NoError(t, err)
	second, err := render(t, first, map[string]any{"y": 2}, RenderConfig{Phase: PhaseDo}, nil)
	require.NoError(t, err)
	once, err := render(t, tpl, map[string]any{"x": 1, "y": 2, "z": 3}, RenderConfig{Phase: PhaseAll}, nil)
	require.NoError(t, err)

	assert.Equal(t, once, second)
	assert.Equal(t, "x=1 y=2 z=3", second)
}

func TestRenderer_Strict(t *testing.T) {
	tpl := `<ARX [[b]] /><ARX [[a]] /><ARX [[b]] /><ARX [[c | "ok"]] /><ARX [[later]]:do /><ARX [[now]]:new />`
	_, err := render(t, tpl, nil, RenderConfig{Strict: true, Phase: PhaseNew}, nil)
	require.Error(t, err)

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, RenderErrorUnresolved, renderErr.Kind)
	assert.Equal(t, []string{"b", "a"}, renderErr.Paths)
	assert.Empty(t, renderErr.Suggestions)

	_, err = render(t, `<ARX [[usr.name]] />`, map[string]any{"user": map[string]any{"name": "Ada"}}, RenderConfig{Strict: true}, nil)
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, map[string][]string{"usr.name": {"user"}}, renderErr.Suggestions)

	out, err := render(t, `<ARX [[c | "ok"]] />`, nil, RenderConfig{Strict: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestRenderer_Include(t *testing.T) {
	includer := &mapIncluder{
		t: t,
		docs: map[string]string{
			"greet": "Hello <ARX [[who]] /> from <ARX [[place | \"here\"]] />",
			"item":  "[<ARX [[.]] />:<ARX [[label]] />]",
		},
		defaults: map[string]map[string]Value{"greet": {"who": String("default")}},
	}

	tests := []struct {
		name     string
		template string
		data     map[string]any
		expected string
	}{
		{"uses parent context", `<ARX @"greet" />`, map[string]any{"who": "Ada"}, "Hello Ada from here"},
		{"applies defaults", `<ARX @"greet" />`, nil, "Hello default from here"},
		{"inline wins", `<ARX @"greet" {who: Bob, place: home} />`, map[string]any{"who": "Ada"}, "Hello Bob from home"},
		{"inline path reference", `<ARX @"greet" {who: "[[user.name]]"} />`, map[string]any{"user": map[string]any{"name": "Cy"}}, "Hello Cy from here"},
		{"sees loop item", `<ARX [[*xs as label]]: /><ARX @"item" /><ARX : />`, map[string]any{"xs": []any{"a", "b"}}, "[a:a][b:b]"},
		{"sibling reuse", `<ARX @"greet" /> / <ARX @"greet" />`, map[string]any{"who": "X"}, "Hello X from here / Hello X from here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := render(t, tt.template, tt.data, RenderConfig{}, includer)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestRenderer_IncludeCycle(t *testing.T) {
	tests := []struct {
		name  string
		docs  map[string]string
		stack []string
	}{
		{
			name:  "direct self include",
			docs:  map[string]string{"a": `<ARX @"a" />`},
			stack: []string{"main", "a", "a"},
		},
		{
			name:  "indirect",
			docs:  map[string]string{"a": `<ARX @"b" />`, "b": `<ARX @"a" />`},
			stack: []string{"main", "a", "b", "a"},
		},
		{
			name:  "back to root",
			docs:  map[string]string{"a": `<ARX @"main" />`, "main": "unused"},
			stack: []string{"main", "a", "main"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			includer := &mapIncluder{t: t, docs: tt.docs}
			_, err := render(t, `<ARX @"a" />`, nil, RenderConfig{}, includer)
			require.Error(t, err)
			var renderErr *RenderError
			require.ErrorAs(t, err, &renderErr)
			assert.Equal(t, RenderErrorIncludeCycle, renderErr.Kind)
			assert.Equal(t, tt.stack, renderErr.Stack)
		})
	}
}

func TestRenderer_IncludeErrors(t *testing.T) {
	t.Run("not found passes through", func(t *testing.T) {
		_, err := render(t, `<ARX @"nope" />`, nil, RenderConfig{}, &mapIncluder{t: t})
		assert.ErrorIs(t, err, errNotFound)
	})

	t.Run("no includer", func(t *testing.T) {
		_, err := render(t, `<ARX @"x" />`, nil, RenderConfig{}, nil)
		var renderErr *RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, RenderErrorIncludeDisabled, renderErr.Kind)
	})

	t.Run("depth exceeded", func(t *testing.T) {
		includer := &mapIncluder{t: t, docs: map[string]string{
			"d1": `<ARX @"d2" />`, "d2": `<ARX @"d3" />`, "d3": "deep",
		}}
		out, err := render(t, `<ARX @"d1" />`, nil, RenderConfig{MaxIncludeDepth: 3}, includer)
		require.NoError(t, err)
		assert.Equal(t, "deep", out)

		_, err = render(t, `<ARX @"d1" />`, nil, RenderConfig{MaxIncludeDepth: 2}, includer)
		var renderErr *RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, RenderErrorIncludeDepth, renderErr.Kind)
	})

	t.Run("missing required input", func(t *testing.T) {
		includer := &mapIncluder{
			t:        t,
			docs:     map[string]string{"card": "<ARX [[title]] />"},
			required: map[string][]string{"card": {"body", "title"}},
		}
		_, err := render(t, `<ARX @"card" {title: x} />`, nil, RenderConfig{}, includer)
		var renderErr *RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, RenderErrorMissingInput, renderErr.Kind)
		assert.Equal(t, []string{"body"}, renderErr.Paths)
	})

	t.Run("strict collects inside includes", func(t *testing.T) {
		includer := &mapIncluder{t: t, docs: map[string]string{"p": "<ARX [[inner]] />"}}
		_, err := render(t, `<ARX [[outer]] /><ARX @"p" />`, nil, RenderConfig{Strict: true}, includer)
		var renderErr *RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, []string{"outer", "inner"}, renderErr.Paths)
	})
}

func TestRenderError_Error(t *testing.T) {
	err := &RenderError{
		Kind:     RenderErrorIncludeCycle,
		Message:  ErrMsgIncludeCycle,
		Position: Position{Line: 2, Column: 5},
		Raw:      `<ARX @"a" />`,
		Stack:    []string{"main", "a", "main"},
	}
	assert.Equal(t, "include cycle detected: main -> a -> main at line 2, column 5", err.Error())
}
