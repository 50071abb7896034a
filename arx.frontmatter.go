package arx

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// InputSpec declares one document input in front matter
type InputSpec struct {
	Name        string
	Required    bool
	Default     any
	HasDefault  bool
	Description string
}

// FrontMatter is the YAML metadata block at the head of a document
type FrontMatter struct {
	meta   map[string]any
	inputs []InputSpec
}

// SplitFrontMatter separates the leading front matter block from the body.
// A document without a --- line at byte 0 has empty front matter and the
// whole source as its body.
func SplitFrontMatter(source string) (*FrontMatter, string, error) {
	fm, body, _, err := splitFrontMatter(source)
	return fm, body, err
}

// splitFrontMatter also returns the byte offset at which the body starts
func splitFrontMatter(source string) (*FrontMatter, string, int, error) {
	empty := &FrontMatter{meta: make(map[string]any)}
	if !strings.HasPrefix(source, FrontMatterDelimiter) {
		return empty, source, 0, nil
	}

	rest := source[len(FrontMatterDelimiter):]
	switch {
	case strings.HasPrefix(rest, "\n"):
		rest = rest[1:]
	case strings.HasPrefix(rest, "\r\n"):
		rest = rest[2:]
	default:
		// "----" or "--- text" is not a marker line
		return empty, source, 0, nil
	}
	contentStart := len(source) - len(rest)

	offset := 0
	for {
		lineEnd := strings.IndexByte(rest[offset:], '\n')
		line := rest[offset:]
		next := len(rest)
		if lineEnd >= 0 {
			line = rest[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		}

		if strings.TrimSuffix(line, "\r") == FrontMatterDelimiter {
			fm, err := decodeFrontMatter(rest[:offset])
			if err != nil {
				return nil, "", 0, err
			}
			return fm, rest[next:], contentStart + next, nil
		}
		if lineEnd < 0 {
			break
		}
		offset = next
	}

	return nil, "", 0, NewMalformedFrontMatterError(ErrMsgUnclosedFrontMatter, nil)
}

func decodeFrontMatter(text string) (*FrontMatter, error) {
	var meta map[string]any
	if err := yaml.Unmarshal([]byte(text), &meta); err != nil {
		return nil, NewMalformedFrontMatterError(ErrMsgFrontMatterNotMap, err)
	}
	if meta == nil {
		meta = make(map[string]any)
	}

	inputs, err := parseInputs(meta[FrontMatterKeyInputs])
	if err != nil {
		return nil, err
	}
	return &FrontMatter{meta: meta, inputs: inputs}, nil
}

func parseInputs(raw any) ([]InputSpec, error) {
	if raw == nil {
		return nil, nil
	}
	decls, ok := asStringMap(raw)
	if !ok {
		return nil, NewMalformedFrontMatterError(ErrMsgInvalidInputSpec, fmt.Errorf("%s: %T", FrontMatterKeyInputs, raw))
	}

	inputs := make([]InputSpec, 0, len(decls))
	for name, decl := range decls {
		spec := InputSpec{Name: name}
		if decl != nil {
			fields, ok := asStringMap(decl)
			if !ok {
				return nil, NewMalformedFrontMatterError(ErrMsgInvalidInputSpec, fmt.Errorf("%s: %T", name, decl))
			}
			if req, ok := fields[InputKeyRequired]; ok {
				b, isBool := req.(bool)
				if !isBool {
					return nil, NewMalformedFrontMatterError(ErrMsgInvalidInputSpec, fmt.Errorf("%s.%s: %v", name, InputKeyRequired, req))
				}
				spec.Required = b
			}
			if def, ok := fields[InputKeyDefault]; ok {
				spec.Default = def
				spec.HasDefault = true
			}
			if desc, ok := fields[InputKeyDescription]; ok && desc != nil {
				spec.Description = fmt.Sprint(desc)
			}
		}
		inputs = append(inputs, spec)
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Name < inputs[j].Name })
	return inputs, nil
}

func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, item := range m {
			out[fmt.Sprint(k)] = item
		}
		return out, true
	default:
		return nil, false
	}
}

// Meta returns a shallow copy of the raw metadata mapping
func (fm *FrontMatter) Meta() map[string]any {
	out := make(map[string]any, len(fm.meta))
	for k, v := range fm.meta {
		out[k] = v
	}
	return out
}

// Get returns a top-level metadata value
func (fm *FrontMatter) Get(key string) (any, bool) {
	v, ok := fm.meta[key]
	return v, ok
}

// IsEmpty reports whether the document had no metadata
func (fm *FrontMatter) IsEmpty() bool {
	return len(fm.meta) == 0
}

// Inputs returns the declared inputs sorted by name
func (fm *FrontMatter) Inputs() []InputSpec {
	return append([]InputSpec(nil), fm.inputs...)
}

// Defaults returns the declared default of every input that has one
func (fm *FrontMatter) Defaults() map[string]any {
	out := make(map[string]any)
	for _, in := range fm.inputs {
		if in.HasDefault {
			out[in.Name] = in.Default
		}
	}
	return out
}

// RequiredInputs returns the names of required inputs without a default
func (fm *FrontMatter) RequiredInputs() []string {
	var out []string
	for _, in := range fm.inputs {
		if in.Required && !in.HasDefault {
			out = append(out, in.Name)
		}
	}
	return out
}

// Script returns the augmentation script path, if any
func (fm *FrontMatter) Script() string { return fm.stringValue(FrontMatterKeyScript) }

// Subdir returns the output subdirectory hint, if any
func (fm *FrontMatter) Subdir() string { return fm.stringValue(FrontMatterKeySubdir) }

// ShortName returns the output short name hint, if any
func (fm *FrontMatter) ShortName() string { return fm.stringValue(FrontMatterKeyShortName) }

func (fm *FrontMatter) stringValue(key string) string {
	v, ok := fm.meta[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
