package arx

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/agentrx/go-arx/internal"
)

// DryRunResult describes what a render of a document would touch, without
// running the augmentation step or producing output.
type DryRunResult struct {
	// Valid is false when a required input is missing or an include
	// target cannot be found.
	Valid bool

	Variables    []VariableReference
	Conditionals []ConditionalReference
	Loops        []LoopReference
	Includes     []IncludeReference

	// MissingInputs lists required front-matter inputs the data lacks.
	MissingInputs []string

	// MissingVariables lists active paths with no value and no default.
	MissingVariables []string

	// UnusedKeys lists top-level data keys no tag reads.
	UnusedKeys []string

	// Script is the front-matter augmentation script, which a dry run skips.
	Script string
}

// VariableReference is one variable or bool output tag
type VariableReference struct {
	Path        string
	Default     string
	HasDefault  bool
	Phase       Phase
	Bool        bool // [[#path]] output
	Line        int
	Column      int
	Deferred    bool // tagged with a phase the dry run does not select
	Bound       bool // resolved through a loop binding or the current item
	InContext   bool
	Value       any
	Suggestions []string
}

// ConditionalReference is one conditional block
type ConditionalReference struct {
	Path      string
	Negate    bool
	HasElse   bool
	Line      int
	Column    int
	InContext bool
}

// LoopReference is one loop block
type LoopReference struct {
	Source    string
	ItemVar   string
	IndexVar  string
	Line      int
	Column    int
	InContext bool
}

// IncludeReference is one include tag
type IncludeReference struct {
	Target string
	ID     string // identity the source resolved the target to
	Line   int
	Column int
	Exists bool
}

// dryRunWalk carries the state of one dry run through the block tree
type dryRunWalk struct {
	ctx    context.Context
	engine *Engine
	doc    *Document
	c      *Context
	phase  Phase
	keys   []string
	used   map[string]bool
	result *DryRunResult
}

// DryRun merges the data layers of opts without augmentation and reports
// every variable, block and include of doc against them. Included
// documents are looked up but not walked.
func (e *Engine) DryRun(ctx context.Context, doc *Document, opts RenderOptions) (*DryRunResult, error) {
	if _, err := ParsePhase(string(opts.Phase)); err != nil {
		return nil, err
	}

	fm := doc.FrontMatter()
	builder := NewContextBuilder(nil).
		WithLogger(e.logger).
		WithEnvironment(e.config.env).
		Add(LayerDefaults, fm.Defaults())
	for _, data := range opts.Primary {
		builder.AddPrimary(data)
	}
	for _, data := range opts.Secondary {
		builder.AddSecondary(data)
	}
	c, err := builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	w := &dryRunWalk{
		ctx:    ctx,
		engine: e,
		doc:    doc,
		c:      c,
		phase:  opts.Phase,
		keys:   c.Keys(),
		used:   make(map[string]bool),
		result: &DryRunResult{
			Valid:        true,
			Variables:    make([]VariableReference, 0),
			Conditionals: make([]ConditionalReference, 0),
			Loops:        make([]LoopReference, 0),
			Includes:     make([]IncludeReference, 0),
			Script:       fm.Script(),
		},
	}

	for _, name := range fm.RequiredInputs() {
		if !c.Has(name) {
			w.result.MissingInputs = append(w.result.MissingInputs, name)
		}
	}

	w.walk(doc.root.Children, nil)
	w.finish()

	e.logger.Debug(LogMsgDryRun,
		zap.String(LogFieldDocument, doc.ID()),
		zap.Int(LogFieldVariables, len(w.result.Variables)),
		zap.Int(LogFieldMissing, len(w.result.MissingVariables)))

	return w.result, nil
}

func (w *dryRunWalk) walk(nodes []internal.Node, bound map[string]bool) {
	for _, node := range nodes {
		switch n := node.(type) {
		case *internal.VariableNode:
			w.variable(n.Path, n.Default, n.HasDefault, n.Phase, false, n.Pos(), bound)

		case *internal.BoolOutputNode:
			w.variable(n.Path, "", false, PhaseEager, true, n.Pos(), bound)

		case *internal.ConditionalNode:
			_, inContext := w.lookup(n.Path, bound)
			w.result.Conditionals = append(w.result.Conditionals, ConditionalReference{
				Path:      n.Path,
				Negate:    n.Negate,
				HasElse:   n.HasElse,
				Line:      n.Pos().Line,
				Column:    n.Pos().Column,
				InContext: inContext,
			})
			w.walk(n.Then, bound)
			w.walk(n.Else, bound)

		case *internal.LoopNode:
			_, inContext := w.lookup(n.Source, bound)
			w.result.Loops = append(w.result.Loops, LoopReference{
				Source:    n.Source,
				ItemVar:   n.ItemVar,
				IndexVar:  n.IndexVar,
				Line:      n.Pos().Line,
				Column:    n.Pos().Column,
				InContext: inContext,
			})
			inner := make(map[string]bool, len(bound)+2)
			for k := range bound {
				inner[k] = true
			}
			if n.ItemVar != "" {
				inner[n.ItemVar] = true
			}
			if n.IndexVar != "" {
				inner[n.IndexVar] = true
			}
			w.walk(n.Children, inner)

		case *internal.IncludeNode:
			w.include(n)
		}
	}
}

// lookup resolves path against the merged context. A path read through a
// loop binding or the current item cannot be resolved statically and
// reports ok == false.
func (w *dryRunWalk) lookup(path string, bound map[string]bool) (any, bool) {
	if isBoundPath(path, bound) {
		return nil, false
	}
	v, ok := w.c.Get(path)
	if ok {
		w.used[internal.PathPrefix(path)] = true
	}
	return v, ok
}

func (w *dryRunWalk) variable(path, def string, hasDefault bool, phase Phase, isBool bool, pos Position, bound map[string]bool) {
	ref := VariableReference{
		Path:       path,
		Default:    def,
		HasDefault: hasDefault,
		Phase:      phase,
		Bool:       isBool,
		Line:       pos.Line,
		Column:     pos.Column,
		Deferred:   !internal.PhaseActive(phase, w.phase),
		Bound:      isBoundPath(path, bound),
	}
	ref.Value, ref.InContext = w.lookup(path, bound)

	if !ref.InContext && !ref.Bound && !ref.Deferred && !ref.HasDefault && !isBool {
		ref.Suggestions = internal.SuggestKeys(path, w.keys, internal.MaxSuggestions)
		w.result.MissingVariables = append(w.result.MissingVariables, path)
	}
	w.result.Variables = append(w.result.Variables, ref)
}

func (w *dryRunWalk) include(n *internal.IncludeNode) {
	ref := IncludeReference{
		Target: n.Target,
		Line:   n.Pos().Line,
		Column: n.Pos().Column,
	}
	if src, err := w.engine.source.Load(w.ctx, n.Target, w.doc.ID()); err == nil {
		ref.Exists = true
		ref.ID = src.ID
	} else {
		w.result.Valid = false
	}
	for _, v := range n.Inline {
		if v.Kind() != internal.ValueKindString {
			continue
		}
		if path, ok := internal.InlinePath(v.Text()); ok {
			w.lookup(path, nil)
		}
	}
	w.result.Includes = append(w.result.Includes, ref)
}

func (w *dryRunWalk) finish() {
	r := w.result
	r.MissingVariables = dedupe(r.MissingVariables)
	for _, key := range w.keys {
		if !w.used[key] {
			r.UnusedKeys = append(r.UnusedKeys, key)
		}
	}
	sort.Strings(r.UnusedKeys)
	if len(r.MissingInputs) > 0 {
		r.Valid = false
	}
}

// isBoundPath reports whether path reads the current item or a loop binding
func isBoundPath(path string, bound map[string]bool) bool {
	if strings.HasPrefix(path, internal.PathCurrentItem) {
		return true
	}
	return bound[internal.PathPrefix(path)]
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
