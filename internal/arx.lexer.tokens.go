package internal

import "fmt"

// Position represents a location in the source document
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf(ErrFmtPosition, p.Line, p.Column)
}

// TagSpec is the syntactic classification of one tag's content.
// Which fields are meaningful depends on Kind.
type TagSpec struct {
	Kind       TagKind
	Path       string // variable, bool output, conditional and loop source path
	Default    string
	HasDefault bool
	Phase      Phase
	ItemName   string
	IndexName  string
	Target     string           // include target
	Inline     map[string]Value // include inline context
}

// Token represents a lexical token produced by the lexer
type Token struct {
	Type     TokenType // The type of token
	Value    string    // Literal text, or the raw span of a tag
	Position Position  // Source position
	Tag      *TagSpec  // Classification, set for tag tokens only
}

// String returns a human-readable representation of the token
func (t Token) String() string {
	if t.Tag != nil {
		return fmt.Sprintf("Token{%s(%s): %q @ %s}", t.Type, t.Tag.Kind, t.Value, t.Position)
	}
	if t.Value == "" {
		return fmt.Sprintf("Token{%s @ %s}", t.Type, t.Position)
	}
	return fmt.Sprintf("Token{%s: %q @ %s}", t.Type, t.Value, t.Position)
}

// IsEOF returns true if this is an end-of-file token
func (t Token) IsEOF() bool {
	return t.Type == TokenTypeEOF
}

// IsText returns true if this is a text token
func (t Token) IsText() bool {
	return t.Type == TokenTypeText
}

// IsTag returns true if this is a tag token
func (t Token) IsTag() bool {
	return t.Type == TokenTypeTag
}

// NewTextToken creates a text token with the given content
func NewTextToken(content string, pos Position) Token {
	return Token{
		Type:     TokenTypeText,
		Value:    content,
		Position: pos,
	}
}

// NewTagToken creates a tag token from its raw span and classification
func NewTagToken(raw string, spec *TagSpec, pos Position) Token {
	return Token{
		Type:     TokenTypeTag,
		Value:    raw,
		Position: pos,
		Tag:      spec,
	}
}

// NewEOFToken creates an EOF token at the given position
func NewEOFToken(pos Position) Token {
	return Token{
		Type:     TokenTypeEOF,
		Position: pos,
	}
}
