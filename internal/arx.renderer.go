package internal

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// IncludedDocument is a parsed include target as seen by the renderer
type IncludedDocument struct {
	ID       string
	Root     *RootNode
	Defaults map[string]Value
	Required []string
}

// Includer resolves include targets relative to the including document.
// Errors it returns are passed through the render unchanged.
type Includer interface {
	Include(ctx context.Context, target, from string) (*IncludedDocument, error)
}

// RenderConfig holds the per-render settings
type RenderConfig struct {
	Phase           Phase
	Strict          bool
	MaxIncludeDepth int // 0 disables the depth guard
}

// RenderErrorKind distinguishes the failures raised while rendering
type RenderErrorKind string

// Render error kinds
const (
	RenderErrorIncludeCycle    RenderErrorKind = "include_cycle"
	RenderErrorIncludeDepth    RenderErrorKind = "include_depth"
	RenderErrorUnresolved      RenderErrorKind = "unresolved"
	RenderErrorMissingInput    RenderErrorKind = "missing_input"
	RenderErrorIncludeDisabled RenderErrorKind = "include_disabled"
)

// Renderer walks a block tree against a scope chain
type Renderer struct {
	includer Includer
	config   RenderConfig
	logger   *zap.Logger
}

// renderState is owned by one render: the include stack and the strict
// collector are shared with every document included from it.
type renderState struct {
	depth      int
	stack      []string
	unresolved []string
	seen       map[string]bool
}

func (st *renderState) markUnresolved(path string) {
	if st.seen[path] {
		return
	}
	st.seen[path] = true
	st.unresolved = append(st.unresolved, path)
}

// NewRenderer creates a renderer. includer may be nil, in which case any
// include tag fails.
func NewRenderer(includer Includer, config RenderConfig, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgRendererCreated,
		zap.String(LogFieldActive, string(config.Phase)),
		zap.Bool(LogFieldResult, config.Strict))
	return &Renderer{includer: includer, config: config, logger: logger}
}

// Render renders root against scope. docID is the identity of the document
// being rendered and seeds the include stack; it may be empty for
// anonymous documents. Output is discarded on any error.
func (r *Renderer) Render(ctx context.Context, root *RootNode, scope *Scope, docID string) (string, error) {
	r.logger.Debug(LogMsgRenderStart, zap.String(LogFieldDocument, docID))
	st := &renderState{seen: make(map[string]bool)}
	if docID != "" {
		st.stack = append(st.stack, docID)
	}

	var sb strings.Builder
	if err := r.renderNodes(ctx, st, &sb, root.Children, scope, docID); err != nil {
		return "", err
	}

	if r.config.Strict && len(st.unresolved) > 0 {
		return "", &RenderError{
			Kind:        RenderErrorUnresolved,
			Message:     ErrMsgUnresolvedVariables,
			Paths:       st.unresolved,
			Suggestions: suggestionsFor(st.unresolved, scope),
		}
	}

	r.logger.Debug(LogMsgRenderEnd,
		zap.Int(LogFieldSource, sb.Len()),
		zap.Int(LogFieldUnresolved, len(st.unresolved)))
	return sb.String(), nil
}

func (r *Renderer) renderNodes(ctx context.Context, st *renderState, sb *strings.Builder, nodes []Node, scope *Scope, docID string) error {
	for _, node := range nodes {
		if err := r.renderNode(ctx, st, sb, node, scope, docID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderNode(ctx context.Context, st *renderState, sb *strings.Builder, node Node, scope *Scope, docID string) error {
	switch n := node.(type) {
	case *LiteralNode:
		sb.WriteString(n.Text)
	case *VariableNode:
		r.renderVariable(st, sb, n, scope)
	case *BoolOutputNode:
		v, ok := scope.Lookup(n.Path)
		if ok && v.Truthy() {
			sb.WriteString(BoolStringTrue)
		} else {
			sb.WriteString(BoolStringFalse)
		}
	case *ConditionalNode:
		return r.renderConditional(ctx, st, sb, n, scope, docID)
	case *LoopNode:
		return r.renderLoop(ctx, st, sb, n, scope, docID)
	case *IncludeNode:
		return r.renderInclude(ctx, st, sb, n, scope, docID)
	}
	return nil
}

func (r *Renderer) phaseActive(p Phase) bool {
	return PhaseActive(p, r.config.Phase)
}

func (r *Renderer) renderVariable(st *renderState, sb *strings.Builder, n *VariableNode, scope *Scope) {
	if !r.phaseActive(n.Phase) {
		r.logger.Debug(LogMsgVariableDeferred,
			zap.String(LogFieldPath, n.Path),
			zap.String(LogFieldPhase, string(n.Phase)))
		sb.WriteString(n.Raw)
		return
	}

	v, ok := scope.Lookup(n.Path)
	if ok && !v.IsNull() {
		sb.WriteString(v.Text())
		return
	}
	if n.HasDefault {
		sb.WriteString(n.Default)
		return
	}

	r.logger.Debug(LogMsgVariableUnresolved,
		zap.String(LogFieldPath, n.Path),
		zap.Int(LogFieldLine, n.pos.Line))
	if n.Phase == PhaseNone {
		st.markUnresolved(n.Path)
	}
}

func (r *Renderer) renderConditional(ctx context.Context, st *renderState, sb *strings.Builder, n *ConditionalNode, scope *Scope, docID string) error {
	v, ok := scope.Lookup(n.Path)
	truthy := ok && v.Truthy()
	if n.Negate {
		truthy = !truthy
	}
	r.logger.Debug(LogMsgConditionEval,
		zap.String(LogFieldPath, n.Path),
		zap.Bool(LogFieldResult, truthy))

	if truthy {
		return r.renderNodes(ctx, st, sb, n.Then, scope, docID)
	}
	return r.renderNodes(ctx, st, sb, n.Else, scope, docID)
}

func (r *Renderer) renderLoop(ctx context.Context, st *renderState, sb *strings.Builder, n *LoopNode, scope *Scope, docID string) error {
	v, ok := scope.Lookup(n.Source)
	if !ok || v.Kind() != ValueKindList {
		r.logger.Debug(LogMsgLoopSkipped, zap.String(LogFieldPath, n.Source))
		return nil
	}

	items := v.Items()
	r.logger.Debug(LogMsgLoopStart,
		zap.String(LogFieldPath, n.Source),
		zap.Int(LogFieldItems, len(items)))

	for i, item := range items {
		bindings := make(map[string]Value, 2)
		if n.ItemVar != "" {
			bindings[n.ItemVar] = item
		}
		if n.IndexVar != "" {
			bindings[n.IndexVar] = Number(float64(i))
		}
		if err := r.renderNodes(ctx, st, sb, n.Children, scope.Child(item, bindings), docID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderInclude(ctx context.Context, st *renderState, sb *strings.Builder, n *IncludeNode, scope *Scope, docID string) error {
	if r.includer == nil {
		return &RenderError{
			Kind:     RenderErrorIncludeDisabled,
			Message:  ErrMsgNoIncluder,
			Position: n.pos,
			Raw:      n.Raw,
			Target:   n.Target,
		}
	}
	if r.config.MaxIncludeDepth > 0 && st.depth >= r.config.MaxIncludeDepth {
		return &RenderError{
			Kind:     RenderErrorIncludeDepth,
			Message:  ErrMsgIncludeDepthExceeded,
			Position: n.pos,
			Raw:      n.Raw,
			Target:   n.Target,
			Stack:    append([]string(nil), st.stack...),
		}
	}

	doc, err := r.includer.Include(ctx, n.Target, docID)
	if err != nil {
		return err
	}

	for _, id := range st.stack {
		if id == doc.ID {
			return &RenderError{
				Kind:     RenderErrorIncludeCycle,
				Message:  ErrMsgIncludeCycle,
				Position: n.pos,
				Raw:      n.Raw,
				Target:   doc.ID,
				Stack:    append(append([]string(nil), st.stack...), doc.ID),
			}
		}
	}

	vars := scope.Snapshot()
	for k, v := range doc.Defaults {
		if _, ok := vars[k]; !ok {
			vars[k] = v
		}
	}
	for k, v := range n.Inline {
		vars[k] = resolveInline(v, scope)
	}

	var missing []string
	for _, name := range doc.Required {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &RenderError{
			Kind:     RenderErrorMissingInput,
			Message:  ErrMsgMissingIncludeInput,
			Position: n.pos,
			Raw:      n.Raw,
			Target:   doc.ID,
			Paths:    missing,
		}
	}

	r.logger.Debug(LogMsgIncludeStart,
		zap.String(LogFieldTarget, doc.ID),
		zap.Int(LogFieldDepth, st.depth+1))

	st.stack = append(st.stack, doc.ID)
	st.depth++
	defer func() {
		st.stack = st.stack[:len(st.stack)-1]
		st.depth--
	}()

	if err := r.renderNodes(ctx, st, sb, doc.Root.Children, scope.Isolated(vars), doc.ID); err != nil {
		return err
	}
	r.logger.Debug(LogMsgIncludeEnd, zap.String(LogFieldTarget, doc.ID))
	return nil
}

// InlinePath extracts path from an inline include value of the exact form
// [[path]].
func InlinePath(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, StrExprOpen) || !strings.HasSuffix(s, StrExprClose) {
		return "", false
	}
	path := strings.TrimSpace(s[len(StrExprOpen) : len(s)-len(StrExprClose)])
	if !IsValidPath(path) {
		return "", false
	}
	return path, true
}

// resolveInline replaces string values of the exact form [[path]] with the
// value at path in scope. Nested containers are resolved recursively.
func resolveInline(v Value, scope *Scope) Value {
	switch v.Kind() {
	case ValueKindString:
		path, ok := InlinePath(v.Text())
		if !ok {
			return v
		}
		resolved, ok := scope.Lookup(path)
		if !ok {
			return Null()
		}
		return resolved
	case ValueKindList:
		items := make([]Value, len(v.Items()))
		for i, item := range v.Items() {
			items[i] = resolveInline(item, scope)
		}
		return List(items)
	case ValueKindMap:
		m := make(map[string]Value, len(v.Fields()))
		for k, item := range v.Fields() {
			m[k] = resolveInline(item, scope)
		}
		return Map(m)
	default:
		return v
	}
}

// RenderError represents a failure raised while walking the block tree
type RenderError struct {
	Kind     RenderErrorKind
	Message  string
	Position Position
	Raw      string
	Target   string
	Stack    []string // include chain, outermost first
	Paths    []string // unresolved paths or missing inputs

	// Suggestions maps an unresolved path to similar top-level keys
	Suggestions map[string][]string
}

func suggestionsFor(paths []string, scope *Scope) map[string][]string {
	vars := scope.Snapshot()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	out := make(map[string][]string)
	for _, path := range paths {
		if s := SuggestKeys(path, keys, MaxSuggestions); len(s) > 0 {
			out[path] = s
		}
	}
	return out
}

func (e *RenderError) Error() string {
	msg := e.Message
	switch {
	case len(e.Stack) > 0:
		msg = fmt.Sprintf(ErrFmtWithDetail, msg, strings.Join(e.Stack, ErrChainSeparator))
	case len(e.Paths) > 0:
		msg = fmt.Sprintf(ErrFmtWithDetail, msg, strings.Join(e.Paths, ErrListSeparator))
	case e.Target != "":
		msg = fmt.Sprintf(ErrFmtWithDetail, msg, e.Target)
	}
	if e.Raw == "" {
		return msg
	}
	return fmt.Sprintf(ErrFmtWithPosition, msg, e.Position.String())
}
