package arx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantBody string
		wantMeta map[string]any
	}{
		{
			name:     "no front matter",
			input:    "Hello\nworld",
			wantBody: "Hello\nworld",
			wantMeta: map[string]any{},
		},
		{
			name:     "simple block",
			input:    "---\ntitle: Test\n---\nBody text",
			wantBody: "Body text",
			wantMeta: map[string]any{"title": "Test"},
		},
		{
			name:     "crlf line endings",
			input:    "---\r\ntitle: Test\r\n---\r\nBody",
			wantBody: "Body",
			wantMeta: map[string]any{"title": "Test"},
		},
		{
			name:     "empty block",
			input:    "---\n---\nBody",
			wantBody: "Body",
			wantMeta: map[string]any{},
		},
		{
			name:     "closing marker at end of input",
			input:    "---\na: 1\n---",
			wantBody: "",
			wantMeta: map[string]any{"a": 1},
		},
		{
			name:     "marker not at byte zero",
			input:    "\n---\na: 1\n---\nBody",
			wantBody: "\n---\na: 1\n---\nBody",
			wantMeta: map[string]any{},
		},
		{
			name:     "four dashes is not a marker",
			input:    "----\nBody",
			wantBody: "----\nBody",
			wantMeta: map[string]any{},
		},
		{
			name:     "body keeps later markers",
			input:    "---\na: 1\n---\nx\n---\ny",
			wantBody: "x\n---\ny",
			wantMeta: map[string]any{"a": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, err := SplitFrontMatter(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, body)
			assert.Equal(t, tt.wantMeta, fm.Meta())
		})
	}
}

func TestSplitFrontMatter_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"unclosed", "---\ntitle: x\nbody", ErrMsgUnclosedFrontMatter},
		{"not a mapping", "---\n- a\n- b\n---\nbody", ErrMsgFrontMatterNotMap},
		{"invalid yaml", "---\na: [1, 2\n---\nbody", ErrMsgFrontMatterNotMap},
		{"inputs not a mapping", "---\ninputs: [a]\n---\n", ErrMsgInvalidInputSpec},
		{"required not bool", "---\ninputs:\n  a:\n    required: yes please\n---\n", ErrMsgInvalidInputSpec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := SplitFrontMatter(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedFrontMatter))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestFrontMatter_Inputs(t *testing.T) {
	source := `---
script: ./augment.sh
subdir: notes
short_name: plan
inputs:
  topic:
    required: true
    description: What to write about
  tone:
    default: friendly
  audience:
    required: true
    default: everyone
  extra:
---
body`

	fm, _, err := SplitFrontMatter(source)
	require.NoError(t, err)

	inputs := fm.Inputs()
	require.Len(t, inputs, 4)
	assert.Equal(t, "audience", inputs[0].Name)
	assert.Equal(t, "extra", inputs[1].Name)
	assert.Equal(t, "tone", inputs[2].Name)
	assert.Equal(t, "topic", inputs[3].Name)
	assert.Equal(t, "What to write about", inputs[3].Description)

	assert.Equal(t, map[string]any{"tone": "friendly", "audience": "everyone"}, fm.Defaults())
	assert.Equal(t, []string{"topic"}, fm.RequiredInputs())

	assert.Equal(t, "./augment.sh", fm.Script())
	assert.Equal(t, "notes", fm.Subdir())
	assert.Equal(t, "plan", fm.ShortName())
	assert.False(t, fm.IsEmpty())

	v, ok := fm.Get("subdir")
	assert.True(t, ok)
	assert.Equal(t, "notes", v)
}

func TestFrontMatter_MetaIsCopy(t *testing.T) {
	fm, _, err := SplitFrontMatter("---\na: 1\n---\n")
	require.NoError(t, err)

	meta := fm.Meta()
	meta["a"] = 2
	v, _ := fm.Get("a")
	assert.Equal(t, 1, v)
}

func TestParseDocument_PositionsIncludeFrontMatter(t *testing.T) {
	source := "---\ntitle: x\n---\nline four\n<ARX : />"

	_, err := ParseDocument("doc", source)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnmatchedClose))
	assert.Contains(t, err.Error(), "line 5, column 1")
}

func TestParseDocument_Accessors(t *testing.T) {
	source := "---\ntitle: x\n---\nHello <ARX [[name]] />"

	doc, err := ParseDocument("greeting", source)
	require.NoError(t, err)
	assert.Equal(t, "greeting", doc.ID())
	assert.Equal(t, source, doc.Source())
	assert.Equal(t, "Hello <ARX [[name]] />", doc.Body())
	v, ok := doc.FrontMatter().Get("title")
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}
