package internal

import (
	"fmt"
	"strings"
)

// Node is the interface all block tree nodes implement
type Node interface {
	// Type returns the node type identifier
	Type() NodeType
	// Pos returns the source position of this node
	Pos() Position
	// String returns a human-readable representation
	String() string
}

// RootNode is the top-level container for a block tree
type RootNode struct {
	Children []Node
}

// Type returns NodeTypeRoot
func (n *RootNode) Type() NodeType {
	return NodeTypeRoot
}

// Pos returns the start of the document
func (n *RootNode) Pos() Position {
	return Position{Offset: 0, Line: 1, Column: 1}
}

// String returns a string representation of the root node
func (n *RootNode) String() string {
	var sb strings.Builder
	sb.WriteString("RootNode{\n")
	for i, child := range n.Children {
		sb.WriteString(fmt.Sprintf("  [%d] %s\n", i, child.String()))
	}
	sb.WriteString("}")
	return sb.String()
}

// LiteralNode is text emitted verbatim
type LiteralNode struct {
	pos  Position
	Text string
}

// NewLiteralNode creates a literal node
func NewLiteralNode(text string, pos Position) *LiteralNode {
	return &LiteralNode{pos: pos, Text: text}
}

func (n *LiteralNode) Type() NodeType { return NodeTypeLiteral }
func (n *LiteralNode) Pos() Position  { return n.pos }

func (n *LiteralNode) String() string {
	return fmt.Sprintf("LiteralNode{%q @ %s}", truncateForDisplay(n.Text), n.pos)
}

// VariableNode outputs a resolved value, its default, or nothing
type VariableNode struct {
	pos        Position
	Raw        string
	Path       string
	Default    string
	HasDefault bool
	Phase      Phase
}

// NewVariableNode creates a variable node from a classified tag token
func NewVariableNode(tok Token) *VariableNode {
	return &VariableNode{
		pos:        tok.Position,
		Raw:        tok.Value,
		Path:       tok.Tag.Path,
		Default:    tok.Tag.Default,
		HasDefault: tok.Tag.HasDefault,
		Phase:      tok.Tag.Phase,
	}
}

func (n *VariableNode) Type() NodeType { return NodeTypeVariable }
func (n *VariableNode) Pos() Position  { return n.pos }

func (n *VariableNode) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("VariableNode{%s", n.Path))
	if n.HasDefault {
		sb.WriteString(fmt.Sprintf(" default=%q", n.Default))
	}
	if n.Phase != PhaseNone {
		sb.WriteString(fmt.Sprintf(" phase=%s", n.Phase))
	}
	sb.WriteString(fmt.Sprintf(" @ %s}", n.pos))
	return sb.String()
}

// BoolOutputNode outputs the truthiness of a path as true/false
type BoolOutputNode struct {
	pos  Position
	Raw  string
	Path string
}

// NewBoolOutputNode creates a bool output node
func NewBoolOutputNode(tok Token) *BoolOutputNode {
	return &BoolOutputNode{pos: tok.Position, Raw: tok.Value, Path: tok.Tag.Path}
}

func (n *BoolOutputNode) Type() NodeType { return NodeTypeBoolOutput }
func (n *BoolOutputNode) Pos() Position  { return n.pos }

func (n *BoolOutputNode) String() string {
	return fmt.Sprintf("BoolOutputNode{%s @ %s}", n.Path, n.pos)
}

// ConditionalNode selects between two branches on the truthiness of Path
type ConditionalNode struct {
	pos     Position
	Raw     string
	Path    string
	Negate  bool
	Then    []Node
	Else    []Node
	HasElse bool
}

// NewConditionalNode creates a conditional node from its opening tag
func NewConditionalNode(tok Token) *ConditionalNode {
	return &ConditionalNode{
		pos:    tok.Position,
		Raw:    tok.Value,
		Path:   tok.Tag.Path,
		Negate: tok.Tag.Kind == TagKindIfNot,
	}
}

func (n *ConditionalNode) Type() NodeType { return NodeTypeConditional }
func (n *ConditionalNode) Pos() Position  { return n.pos }

func (n *ConditionalNode) String() string {
	return fmt.Sprintf("ConditionalNode{%s negate=%t then=%d else=%d @ %s}",
		n.Path, n.Negate, len(n.Then), len(n.Else), n.pos)
}

// LoopNode renders Children once per element of the sequence at Source
type LoopNode struct {
	pos      Position
	Raw      string
	Source   string
	ItemVar  string
	IndexVar string
	Children []Node
}

// NewLoopNode creates a loop node from its opening tag
func NewLoopNode(tok Token) *LoopNode {
	return &LoopNode{
		pos:      tok.Position,
		Raw:      tok.Value,
		Source:   tok.Tag.Path,
		ItemVar:  tok.Tag.ItemName,
		IndexVar: tok.Tag.IndexName,
	}
}

func (n *LoopNode) Type() NodeType { return NodeTypeLoop }
func (n *LoopNode) Pos() Position  { return n.pos }

func (n *LoopNode) String() string {
	return fmt.Sprintf("LoopNode{%s as %q,%q children=%d @ %s}",
		n.Source, n.ItemVar, n.IndexVar, len(n.Children), n.pos)
}

// IncludeNode renders another document in place
type IncludeNode struct {
	pos    Position
	Raw    string
	Target string
	Inline map[string]Value
}

// NewIncludeNode creates an include node
func NewIncludeNode(tok Token) *IncludeNode {
	return &IncludeNode{
		pos:    tok.Position,
		Raw:    tok.Value,
		Target: tok.Tag.Target,
		Inline: tok.Tag.Inline,
	}
}

func (n *IncludeNode) Type() NodeType { return NodeTypeInclude }
func (n *IncludeNode) Pos() Position  { return n.pos }

func (n *IncludeNode) String() string {
	return fmt.Sprintf("IncludeNode{%q inline=%d @ %s}", n.Target, len(n.Inline), n.pos)
}
