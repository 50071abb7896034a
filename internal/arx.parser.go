package internal

import (
	"fmt"

	"go.uber.org/zap"
)

// ParseErrorKind distinguishes the structural failures of the parser
type ParseErrorKind string

// Parse error kinds
const (
	ParseErrorInvalidTag     ParseErrorKind = "invalid_tag"
	ParseErrorUnclosedBlock  ParseErrorKind = "unclosed_block"
	ParseErrorUnmatchedClose ParseErrorKind = "unmatched_close"
)

// Parser builds a block tree from a token stream using an explicit stack
// of open blocks.
type Parser struct {
	tokens []Token
	logger *zap.Logger
}

// openBlock is a conditional or loop whose close marker is still pending
type openBlock struct {
	tok    Token
	cond   *ConditionalNode
	loop   *LoopNode
	inElse bool
}

func (b *openBlock) node() Node {
	if b.cond != nil {
		return b.cond
	}
	return b.loop
}

func (b *openBlock) add(n Node) {
	switch {
	case b.loop != nil:
		b.loop.Children = append(b.loop.Children, n)
	case b.inElse:
		b.cond.Else = append(b.cond.Else, n)
	default:
		b.cond.Then = append(b.cond.Then, n)
	}
}

// NewParser creates a new parser
func NewParser(tokens []Token, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgParserCreated, zap.Int(LogFieldTokens, len(tokens)))
	return &Parser{tokens: tokens, logger: logger}
}

// Parse builds the block tree
func (p *Parser) Parse() (*RootNode, error) {
	p.logger.Debug(LogMsgParserStart)
	root := &RootNode{}
	var stack []*openBlock

	appendNode := func(n Node) {
		if len(stack) == 0 {
			root.Children = append(root.Children, n)
			return
		}
		stack[len(stack)-1].add(n)
	}

	for _, tok := range p.tokens {
		if tok.IsEOF() {
			break
		}
		if tok.IsText() {
			appendNode(NewLiteralNode(tok.Value, tok.Position))
			continue
		}

		switch tok.Tag.Kind {
		case TagKindVariable:
			appendNode(NewVariableNode(tok))
		case TagKindBoolOutput:
			appendNode(NewBoolOutputNode(tok))
		case TagKindInclude:
			appendNode(NewIncludeNode(tok))
		case TagKindIf, TagKindIfNot:
			stack = append(stack, &openBlock{tok: tok, cond: NewConditionalNode(tok)})
		case TagKindLoop:
			stack = append(stack, &openBlock{tok: tok, loop: NewLoopNode(tok)})
		case TagKindElse:
			if len(stack) == 0 || stack[len(stack)-1].cond == nil {
				return nil, newParserError(ParseErrorInvalidTag, ErrMsgElseOutsideCondition, tok)
			}
			top := stack[len(stack)-1]
			if top.inElse {
				return nil, newParserError(ParseErrorInvalidTag, ErrMsgDuplicateElse, tok)
			}
			top.inElse = true
			top.cond.HasElse = true
		case TagKindClose:
			if len(stack) == 0 {
				return nil, newParserError(ParseErrorUnmatchedClose, ErrMsgUnmatchedClose, tok)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			appendNode(top.node())
		}
	}

	if len(stack) > 0 {
		return nil, newParserError(ParseErrorUnclosedBlock, ErrMsgUnclosedBlock, stack[len(stack)-1].tok)
	}

	p.logger.Debug(LogMsgParserEnd, zap.Int(LogFieldNodes, len(root.Children)))
	return root, nil
}

// ParseDocument tokenizes and parses a body that starts at base
func ParseDocument(source string, base Position, logger *zap.Logger) (*RootNode, error) {
	tokens, err := NewLexerAt(source, base, logger).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens, logger).Parse()
}

// ParserError represents a structural error with the offending tag
type ParserError struct {
	Kind     ParseErrorKind
	Message  string
	Position Position
	Raw      string
}

func newParserError(kind ParseErrorKind, message string, tok Token) *ParserError {
	return &ParserError{
		Kind:     kind,
		Message:  message,
		Position: tok.Position,
		Raw:      tok.Value,
	}
}

func (e *ParserError) Error() string {
	return fmt.Sprintf(ErrFmtWithRaw, e.Message, e.Position.String(), e.Raw)
}
