package internal

import (
	"strconv"
	"strings"
)

// EnvLookup reads one environment variable. A nil EnvLookup disables the
// env. namespace.
type EnvLookup func(name string) (string, bool)

// Scope is one layer of render-time bindings. Loop iterations push child
// scopes; bindings made in a child are never visible to its parent.
type Scope struct {
	parent  *Scope
	vars    map[string]Value
	item    Value
	hasItem bool
	env     EnvLookup
}

// NewScope creates a root scope over vars
func NewScope(vars map[string]Value, env EnvLookup) *Scope {
	if vars == nil {
		vars = make(map[string]Value)
	}
	return &Scope{vars: vars, env: env}
}

// Child creates a scope for one loop iteration. item becomes the current
// item and bindings are visible by name.
func (s *Scope) Child(item Value, bindings map[string]Value) *Scope {
	return &Scope{
		parent:  s,
		vars:    bindings,
		item:    item,
		hasItem: true,
		env:     s.env,
	}
}

// Isolated creates a root scope over vars that keeps the current item and
// environment of s. Included documents render in such a scope.
func (s *Scope) Isolated(vars map[string]Value) *Scope {
	child := NewScope(vars, s.env)
	child.item, child.hasItem = s.currentItem()
	return child
}

// Snapshot flattens the bindings of the whole chain, inner bindings winning.
func (s *Scope) Snapshot() map[string]Value {
	var chain []*Scope
	for cur := s; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	out := make(map[string]Value)
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].vars {
			out[k] = v
		}
	}
	return out
}

// Has reports whether name is bound anywhere in the chain
func (s *Scope) Has(name string) bool {
	_, ok := s.lookupVar(name)
	return ok
}

// Lookup resolves a dotted path. It never fails: a missing key, an index
// out of range or a traversal into a scalar yields ok == false.
func (s *Scope) Lookup(path string) (Value, bool) {
	if path == "" {
		return Null(), false
	}
	if strings.HasPrefix(path, EnvPathPrefix) {
		return s.lookupEnv(path[len(EnvPathPrefix):])
	}
	if path == PathCurrentItem {
		return s.currentItem()
	}

	if strings.HasPrefix(path, PathSeparator) {
		item, ok := s.currentItem()
		if !ok {
			return Null(), false
		}
		return Walk(item, strings.Split(path[1:], PathSeparator))
	}

	segments := strings.Split(path, PathSeparator)
	head, ok := s.lookupVar(segments[0])
	if !ok {
		return Null(), false
	}
	return Walk(head, segments[1:])
}

// Walk descends from v through segments. Digit segments index lists; on a
// map every segment is a key.
func Walk(v Value, segments []string) (Value, bool) {
	for _, seg := range segments {
		if seg == "" {
			return Null(), false
		}
		switch v.Kind() {
		case ValueKindMap:
			next, ok := v.Field(seg)
			if !ok {
				return Null(), false
			}
			v = next
		case ValueKindList:
			if !isDigits(seg) {
				return Null(), false
			}
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return Null(), false
			}
			next, ok := v.Index(idx)
			if !ok {
				return Null(), false
			}
			v = next
		default:
			return Null(), false
		}
	}
	return v, true
}

func (s *Scope) lookupVar(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return Null(), false
}

func (s *Scope) currentItem() (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.hasItem {
			return cur.item, true
		}
	}
	return Null(), false
}

func (s *Scope) lookupEnv(name string) (Value, bool) {
	if s.env == nil || name == "" {
		return Null(), false
	}
	v, ok := s.env(name)
	if !ok {
		return Null(), false
	}
	return String(v), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
