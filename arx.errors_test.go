package arx

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentrx/go-arx/internal"
)

func metadata(t *testing.T, err error, key string) string {
	t.Helper()
	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	v, ok := customErr.GetMetadata(key)
	require.True(t, ok, "missing metadata %q", key)
	return v
}

func TestNewInvalidTagError(t *testing.T) {
	pos := Position{Offset: 14, Line: 2, Column: 3}
	err := NewInvalidTagError("unknown tag syntax", "<ARX %x />", pos)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTag))
	assert.Contains(t, err.Error(), ErrMsgInvalidTag)
	assert.Contains(t, err.Error(), "line 2, column 3")
	assert.Contains(t, err.Error(), `"<ARX %x />"`)

	assert.Equal(t, strconv.Itoa(pos.Line), metadata(t, err, MetaKeyLine))
	assert.Equal(t, strconv.Itoa(pos.Column), metadata(t, err, MetaKeyColumn))
	assert.Equal(t, strconv.Itoa(pos.Offset), metadata(t, err, MetaKeyOffset))
	assert.Equal(t, "<ARX %x />", metadata(t, err, MetaKeyRaw))
	assert.Equal(t, "unknown tag syntax", metadata(t, err, MetaKeyReason))
}

func TestBlockErrors(t *testing.T) {
	pos := Position{Line: 4, Column: 1}

	err := NewUnclosedBlockError("<ARX [[#x]]: />", pos)
	assert.True(t, errors.Is(err, ErrUnclosedBlock))
	assert.Contains(t, err.Error(), "line 4, column 1")
	assert.Equal(t, "<ARX [[#x]]: />", metadata(t, err, MetaKeyRaw))

	err = NewUnmatchedCloseError("<ARX : />", pos)
	assert.True(t, errors.Is(err, ErrUnmatchedClose))
	assert.Equal(t, "4", metadata(t, err, MetaKeyLine))
}

func TestNewMissingRequiredInputError(t *testing.T) {
	err := NewMissingRequiredInputError([]string{"a", "b"})
	assert.True(t, errors.Is(err, ErrMissingRequiredInput))
	assert.Contains(t, err.Error(), "a, b")
	assert.Equal(t, "a, b", metadata(t, err, MetaKeyInputs))
}

func TestIncludeErrors(t *testing.T) {
	err := NewIncludeCycleError([]string{"main", "a", "main"}, Position{Line: 1, Column: 1})
	assert.True(t, errors.Is(err, ErrIncludeCycle))
	assert.Contains(t, err.Error(), "main -> a -> main")
	assert.Equal(t, "main -> a -> main", metadata(t, err, MetaKeyStack))

	err = NewIncludeNotFoundError("header", "main")
	assert.True(t, errors.Is(err, ErrIncludeNotFound))
	assert.Equal(t, "header", metadata(t, err, MetaKeyTarget))
	assert.Equal(t, "main", metadata(t, err, MetaKeyFrom))

	err = NewIncludeNotFoundError("header", "")
	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	_, ok := customErr.GetMetadata(MetaKeyFrom)
	assert.False(t, ok)

	err = NewIncludeDepthExceededError("deep", []string{"a", "b"}, Position{Line: 3, Column: 7})
	assert.True(t, errors.Is(err, ErrIncludeDepthExceeded))
	assert.Equal(t, "a -> b", metadata(t, err, MetaKeyStack))
	assert.Equal(t, "3", metadata(t, err, MetaKeyLine))
}

func TestNewAugmentationError(t *testing.T) {
	cause := errors.New("exit status 2")
	err := NewAugmentationError(ErrMsgAugmentExit, "  oops\n", cause)

	assert.True(t, errors.Is(err, ErrAugmentationFailed))
	assert.Contains(t, err.Error(), ErrMsgAugmentExit)
	assert.Contains(t, err.Error(), "exit status 2")
	assert.Equal(t, "oops", metadata(t, err, MetaKeyStderr))

	err = NewAugmentationError("", "", nil)
	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	_, ok := customErr.GetMetadata(MetaKeyStderr)
	assert.False(t, ok)
}

func TestOtherErrors(t *testing.T) {
	err := NewUnresolvedVariableError([]string{"x", "y.z"}, nil)
	assert.True(t, errors.Is(err, ErrUnresolvedVariable))
	assert.Equal(t, "x, y.z", metadata(t, err, MetaKeyPaths))

	err = NewUnresolvedVariableError([]string{"usr.name", "zzz"}, map[string][]string{"usr.name": {"user"}})
	assert.Contains(t, err.Error(), "usr.name, zzz (usr.name: did you mean 'user'?)")
	assert.Equal(t, "usr.name: did you mean 'user'?", metadata(t, err, MetaKeyHints))

	err = NewDataError(ErrMsgDataNotMap, "stdin", nil)
	assert.True(t, errors.Is(err, ErrInvalidData))
	assert.Equal(t, "stdin", metadata(t, err, MetaKeySource))

	err = NewSourceError(ErrMsgSourceClosed, "arx_documents", nil)
	assert.True(t, errors.Is(err, ErrSource))
	assert.Equal(t, "arx_documents", metadata(t, err, MetaKeyName))

	err = NewConfigError(ErrMsgInvalidPhase, "later")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "later")

	err = NewMalformedFrontMatterError(ErrMsgUnclosedFrontMatter, nil)
	assert.True(t, errors.Is(err, ErrMalformedFrontMatter))
	assert.Equal(t, ErrMsgUnclosedFrontMatter, metadata(t, err, MetaKeyReason))
}

func TestFromInternalError(t *testing.T) {
	pos := Position{Offset: 3, Line: 1, Column: 4}

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"lexer", &internal.LexerError{Message: "bad", Position: pos, Raw: "<ARX ? />"}, ErrInvalidTag},
		{"parser invalid", &internal.ParserError{Kind: internal.ParseErrorInvalidTag, Message: "else", Position: pos}, ErrInvalidTag},
		{"parser unclosed", &internal.ParserError{Kind: internal.ParseErrorUnclosedBlock, Position: pos}, ErrUnclosedBlock},
		{"parser unmatched", &internal.ParserError{Kind: internal.ParseErrorUnmatchedClose, Position: pos}, ErrUnmatchedClose},
		{"cycle", &internal.RenderError{Kind: internal.RenderErrorIncludeCycle, Stack: []string{"a", "a"}}, ErrIncludeCycle},
		{"depth", &internal.RenderError{Kind: internal.RenderErrorIncludeDepth, Target: "x"}, ErrIncludeDepthExceeded},
		{"unresolved", &internal.RenderError{Kind: internal.RenderErrorUnresolved, Paths: []string{"x"}}, ErrUnresolvedVariable},
		{"missing input", &internal.RenderError{Kind: internal.RenderErrorMissingInput, Paths: []string{"x"}}, ErrMissingRequiredInput},
		{"no includer", &internal.RenderError{Kind: internal.RenderErrorIncludeDisabled, Target: "x"}, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fromInternalError(tt.in)
			assert.True(t, errors.Is(got, tt.want))
		})
	}

	got := fromInternalError(&internal.RenderError{Kind: internal.RenderErrorIncludeDisabled, Target: "footer"})
	assert.False(t, errors.Is(got, ErrIncludeNotFound))
	assert.Equal(t, "footer", metadata(t, got, MetaKeyValue))
	assert.Contains(t, got.Error(), ErrMsgIncludeUnavailable)

	plain := errors.New("plain")
	assert.Same(t, plain, fromInternalError(plain))
	assert.NoError(t, fromInternalError(nil))
}

func TestErrorText_SentinelOnce(t *testing.T) {
	pos := Position{Line: 2, Column: 5}

	tests := []struct {
		name     string
		err      error
		sentinel string
		want     string
	}{
		{"cycle", NewIncludeCycleError([]string{"a.md", "b.md", "a.md"}, pos), ErrMsgIncludeCycle,
			"ARX_INCLUDE: a.md -> b.md -> a.md: include cycle"},
		{"not found", NewIncludeNotFoundError("footer", "main"), ErrMsgIncludeNotFound,
			"ARX_INCLUDE: footer: include target not found"},
		{"depth", NewIncludeDepthExceededError("deep", nil, pos), ErrMsgIncludeDepthExceeded,
			"ARX_INCLUDE: deep: maximum include depth exceeded"},
		{"missing inputs", NewMissingRequiredInputError([]string{"a", "b"}), ErrMsgMissingRequiredInput,
			"ARX_CONTEXT: a, b: missing required inputs"},
		{"unclosed", NewUnclosedBlockError("<ARX [[#x]]: />", pos), ErrMsgUnclosedBlock,
			`ARX_PARSE: "<ARX [[#x]]: />" at line 2, column 5: unclosed block`},
		{"invalid tag", NewInvalidTagError("empty path", "<ARX [[]] />", pos), ErrMsgInvalidTag,
			`ARX_PARSE: empty path at line 2, column 5: "<ARX [[]] />": invalid tag`},
		{"config", NewConfigError(ErrMsgInvalidPhase, "later"), ErrMsgInvalidConfig,
			"ARX_CONFIG: unknown render phase: later: invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.Equal(t, 1, strings.Count(tt.err.Error(), tt.sentinel))
		})
	}
}

func TestErrorCause_Reachable(t *testing.T) {
	cause := errors.New("exit status 2")

	err := NewAugmentationError(ErrMsgAugmentExit, "", cause)
	assert.True(t, errors.Is(err, ErrAugmentationFailed))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, 1, strings.Count(err.Error(), ErrMsgAugmentationFailed))
	assert.Equal(t, 1, strings.Count(err.Error(), "exit status 2"))

	err = NewDataError(ErrMsgDataDecode, "d.json", cause)
	assert.True(t, errors.Is(err, ErrInvalidData))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "ARX_DATA: cannot decode data: d.json: invalid data: exit status 2", err.Error())

	err = NewSourceError(ErrMsgSourceFailed, "top.md", cause)
	assert.True(t, errors.Is(err, ErrSource))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, 1, strings.Count(err.Error(), ErrMsgSourceFailed))

	err = NewMalformedFrontMatterError(ErrMsgFrontMatterNotMap, cause)
	assert.True(t, errors.Is(err, ErrMalformedFrontMatter))
	assert.True(t, errors.Is(err, cause))

	err = NewAugmentationError("", "", nil)
	assert.Equal(t, "ARX_AUGMENT: augmenter returned an error: context augmentation failed", err.Error())
}

func TestParsePhase(t *testing.T) {
	for _, s := range []string{"", "new", "do", "*"} {
		p, err := ParsePhase(s)
		require.NoError(t, err)
		assert.Equal(t, Phase(s), p)
	}

	_, err := ParsePhase("later")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
