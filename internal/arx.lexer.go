package internal

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Lexer splits a document body into literal text and classified tags
type Lexer struct {
	source string
	base   Position // position of source[0] within the whole document
	pos    int      // Current byte position
	line   int      // Current line (1-indexed)
	column int      // Current column (1-indexed)
	logger *zap.Logger
}

// NewLexer creates a lexer whose positions start at line 1, column 1
func NewLexer(source string, logger *zap.Logger) *Lexer {
	return NewLexerAt(source, Position{Line: 1, Column: 1}, logger)
}

// NewLexerAt creates a lexer for a body that starts at base within a larger
// document, so that reported positions refer to the whole document.
func NewLexerAt(source string, base Position, logger *zap.Logger) *Lexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if base.Line < 1 {
		base.Line = 1
	}
	if base.Column < 1 {
		base.Column = 1
	}
	logger.Debug(LogMsgLexerCreated, zap.Int(LogFieldSource, len(source)))
	return &Lexer{
		source: source,
		base:   base,
		line:   base.Line,
		column: base.Column,
		logger: logger,
	}
}

// Tokenize processes the source and returns a token stream ending in EOF
func (l *Lexer) Tokenize() ([]Token, error) {
	l.logger.Debug(LogMsgTokenizerStart)
	var tokens []Token

	for !l.isAtEnd() {
		if l.atTagOpen() {
			tok, err := l.scanTag()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			continue
		}

		textToken := l.scanText()
		if textToken.Value != "" {
			tokens = append(tokens, textToken)
		}
	}

	tokens = append(tokens, NewEOFToken(l.currentPosition()))
	l.logger.Debug(LogMsgTokenizerEnd, zap.Int(LogFieldTokens, len(tokens)))
	return tokens, nil
}

// scanText scans literal text up to the next tag opener
func (l *Lexer) scanText() Token {
	startPos := l.currentPosition()
	start := l.pos
	for !l.isAtEnd() && !l.atTagOpen() {
		l.advance()
	}
	return NewTextToken(l.source[start:l.pos], startPos)
}

// scanTag consumes one <ARX ... /> span. The first /> outside a quoted
// string terminates the tag.
func (l *Lexer) scanTag() (Token, error) {
	startPos := l.currentPosition()
	start := l.pos
	l.advanceN(len(StrTagOpen))
	contentStart := l.pos

	var quote byte
	for !l.isAtEnd() {
		ch := l.peek()
		if quote != 0 {
			if ch == CharBackslash {
				l.advanceN(2)
				continue
			}
			if ch == quote {
				quote = 0
			}
			l.advance()
			continue
		}
		if ch == CharDoubleQuote || ch == CharSingleQuote {
			quote = ch
			l.advance()
			continue
		}
		if l.matchStr(StrTagClose) {
			content := l.source[contentStart:l.pos]
			l.advanceN(len(StrTagClose))
			raw := l.source[start:l.pos]
			spec, msg := ClassifyTag(content)
			if msg != "" {
				return Token{}, &LexerError{Message: msg, Position: startPos, Raw: raw}
			}
			return NewTagToken(raw, spec, startPos), nil
		}
		l.advance()
	}

	return Token{}, &LexerError{
		Message:  ErrMsgUnterminatedTag,
		Position: startPos,
		Raw:      firstLine(l.source[start:]),
	}
}

// atTagOpen reports whether the cursor sits on <ARX followed by whitespace
func (l *Lexer) atTagOpen() bool {
	if !l.matchStr(StrTagOpen) {
		return false
	}
	next := l.pos + len(StrTagOpen)
	return next < len(l.source) && isSpace(l.source[next])
}

// currentPosition returns the current position in source
func (l *Lexer) currentPosition() Position {
	return Position{
		Offset: l.base.Offset + l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

// isAtEnd returns true if we've reached the end of source
func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

// peek returns the current character without advancing
func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

// advance consumes and returns the current character
func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	l.pos++
	if ch == CharNewline {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

// advanceN advances n characters
func (l *Lexer) advanceN(n int) {
	for i := 0; i < n && !l.isAtEnd(); i++ {
		l.advance()
	}
}

// matchStr returns true if the remaining source starts with s
func (l *Lexer) matchStr(s string) bool {
	return strings.HasPrefix(l.source[l.pos:], s)
}

func isSpace(ch byte) bool {
	return ch == CharSpace || ch == CharTab || ch == CharNewline || ch == CharCarriageRet
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, CharNewline); idx >= 0 {
		s = s[:idx]
	}
	return truncateForDisplay(s)
}

// LexerError represents a malformed tag with its position and raw span
type LexerError struct {
	Message  string
	Position Position
	Raw      string
}

func (e *LexerError) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf(ErrFmtWithPosition, e.Message, e.Position.String())
	}
	return fmt.Sprintf(ErrFmtWithRaw, e.Message, e.Position.String(), e.Raw)
}
