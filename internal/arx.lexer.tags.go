package internal

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// ClassifyTag classifies the content between <ARX and />. On failure it
// returns a nil spec and an error message.
func ClassifyTag(content string) (*TagSpec, string) {
	c := strings.TrimSpace(content)
	switch {
	case c == "":
		return nil, ErrMsgEmptyTag
	case c == StrBlockClose:
		return &TagSpec{Kind: TagKindClose}, ""
	case c == StrElse:
		return &TagSpec{Kind: TagKindElse}, ""
	case c[0] == SigilInclude:
		return classifyInclude(c[1:])
	case strings.HasPrefix(c, StrExprOpen):
		return classifyExpression(c)
	default:
		return nil, ErrMsgUnknownTagSyntax
	}
}

// classifyExpression handles every [[...]] form with its optional suffix
func classifyExpression(c string) (*TagSpec, string) {
	end := indexOutsideQuotes(c, StrExprClose, len(StrExprOpen))
	if end < 0 {
		return nil, ErrMsgUnterminatedExpr
	}
	inner := strings.TrimSpace(c[len(StrExprOpen):end])
	if inner == "" {
		return nil, ErrMsgEmptyExpr
	}

	block, phase, msg := parseSuffix(strings.TrimSpace(c[end+len(StrExprClose):]))
	if msg != "" {
		return nil, msg
	}

	switch inner[0] {
	case SigilIf:
		if phase != PhaseNone {
			return nil, ErrMsgPhaseNotAllowed
		}
		path := strings.TrimSpace(inner[1:])
		if !IsValidPath(path) {
			return nil, ErrMsgInvalidPath
		}
		if block {
			return &TagSpec{Kind: TagKindIf, Path: path}, ""
		}
		return &TagSpec{Kind: TagKindBoolOutput, Path: path}, ""

	case SigilIfNot:
		if phase != PhaseNone {
			return nil, ErrMsgPhaseNotAllowed
		}
		if !block {
			return nil, ErrMsgNegatedNeedsBlock
		}
		path := strings.TrimSpace(inner[1:])
		if !IsValidPath(path) {
			return nil, ErrMsgInvalidPath
		}
		return &TagSpec{Kind: TagKindIfNot, Path: path}, ""

	case SigilLoop:
		if phase != PhaseNone {
			return nil, ErrMsgPhaseNotAllowed
		}
		if !block {
			return nil, ErrMsgLoopNeedsBlock
		}
		return classifyLoop(strings.TrimSpace(inner[1:]))

	default:
		if block {
			return nil, ErrMsgVariableBlock
		}
		return classifyVariable(inner, phase)
	}
}

// parseSuffix reads what follows ]]: nothing, ":" (block open) or ":phase"
func parseSuffix(suffix string) (block bool, phase Phase, msg string) {
	if suffix == "" {
		return false, PhaseNone, ""
	}
	if suffix[0] != CharBlockStart {
		return false, PhaseNone, ErrMsgInvalidSuffix
	}
	id := strings.TrimSpace(suffix[1:])
	if id == "" {
		return true, PhaseNone, ""
	}
	if !isIdentifier(id) {
		return false, PhaseNone, ErrMsgInvalidSuffix
	}
	if !IsKnownPhase(Phase(id)) {
		return false, PhaseNone, ErrMsgUnknownPhase
	}
	return false, Phase(id), ""
}

func classifyVariable(inner string, phase Phase) (*TagSpec, string) {
	spec := &TagSpec{Kind: TagKindVariable, Phase: phase}

	pathPart := inner
	if sep := indexOutsideQuotes(inner, string(CharDefaultSep), 0); sep >= 0 {
		pathPart = inner[:sep]
		literal := strings.TrimSpace(inner[sep+1:])
		if literal == "" {
			return nil, ErrMsgEmptyDefault
		}
		if literal[0] == CharDoubleQuote || literal[0] == CharSingleQuote {
			value, end, ok := scanQuoted(literal, 0)
			if !ok {
				return nil, ErrMsgUnterminatedStr
			}
			if strings.TrimSpace(literal[end:]) != "" {
				return nil, ErrMsgInvalidSuffix
			}
			literal = value
		}
		spec.Default = literal
		spec.HasDefault = true
	}

	spec.Path = strings.TrimSpace(pathPart)
	if !IsValidPath(spec.Path) {
		return nil, ErrMsgInvalidPath
	}
	return spec, ""
}

// classifyLoop parses "path", "path as item" or "path as item, idx"
func classifyLoop(body string) (*TagSpec, string) {
	fields := strings.Fields(strings.ReplaceAll(body, string(CharListSep), " , "))
	spec := &TagSpec{Kind: TagKindLoop}

	switch {
	case len(fields) == 1:
	case len(fields) == 3 && fields[1] == StrLoopAs:
		spec.ItemName = fields[2]
	case len(fields) == 5 && fields[1] == StrLoopAs && fields[3] == string(CharListSep):
		spec.ItemName = fields[2]
		spec.IndexName = fields[4]
	default:
		return nil, ErrMsgInvalidLoopSyntax
	}

	if len(fields) == 0 || !IsValidPath(fields[0]) {
		return nil, ErrMsgInvalidPath
	}
	spec.Path = fields[0]

	if spec.ItemName != "" && !isIdentifier(spec.ItemName) {
		return nil, ErrMsgInvalidIdentifier
	}
	if spec.IndexName != "" && (!isIdentifier(spec.IndexName) || spec.IndexName == spec.ItemName) {
		return nil, ErrMsgInvalidIdentifier
	}
	return spec, ""
}

// classifyInclude parses "target" with an optional {inline} mapping
func classifyInclude(rest string) (*TagSpec, string) {
	rest = strings.TrimSpace(rest)
	if rest == "" || (rest[0] != CharDoubleQuote && rest[0] != CharSingleQuote) {
		return nil, ErrMsgIncludeNeedsTarget
	}
	target, end, ok := scanQuoted(rest, 0)
	if !ok {
		return nil, ErrMsgUnterminatedStr
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrMsgIncludeEmptyTarget
	}

	spec := &TagSpec{Kind: TagKindInclude, Target: target}
	inline := strings.TrimSpace(rest[end:])
	if inline == "" {
		return spec, ""
	}
	if inline[0] != CharBraceOpen || inline[len(inline)-1] != CharBraceClose {
		return nil, ErrMsgIncludeInlineSyntax
	}

	var decoded map[string]any
	if err := yaml.Unmarshal([]byte(inline), &decoded); err != nil {
		return nil, ErrMsgIncludeInlineParse
	}
	if decoded == nil {
		decoded = make(map[string]any)
	}
	spec.Inline = MapFromAny(decoded)
	return spec, ""
}

// scanQuoted reads the quoted literal starting at s[start]. It returns the
// unescaped value and the index just past the closing quote.
func scanQuoted(s string, start int) (string, int, bool) {
	quote := s[start]
	var sb strings.Builder
	for i := start + 1; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == CharBackslash && i+1 < len(s):
			i++
			sb.WriteByte(s[i])
		case ch == quote:
			return sb.String(), i + 1, true
		default:
			sb.WriteByte(ch)
		}
	}
	return "", len(s), false
}

// indexOutsideQuotes finds sub in s at or after from, skipping quoted text
func indexOutsideQuotes(s, sub string, from int) int {
	var quote byte
	for i := from; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == CharBackslash {
				i++
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}
		if ch == CharDoubleQuote || ch == CharSingleQuote {
			quote = ch
			continue
		}
		if strings.HasPrefix(s[i:], sub) {
			return i
		}
	}
	return -1
}

// IsValidPath reports whether p is a well-formed variable path: "." or
// dot-separated segments of letters, digits, '_' and '-', optionally led
// by a single '.'.
func IsValidPath(p string) bool {
	if p == PathCurrentItem {
		return true
	}
	rest := strings.TrimPrefix(p, PathSeparator)
	if rest == "" {
		return false
	}
	for _, seg := range strings.Split(rest, PathSeparator) {
		if seg == "" {
			return false
		}
		for i := 0; i < len(seg); i++ {
			if !isPathChar(seg[i]) {
				return false
			}
		}
	}
	return true
}

func isIdentifier(s string) bool {
	if s == "" || !(isLetter(s[0]) || s[0] == '_') {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isPathChar(s[i]) {
			return false
		}
	}
	return true
}

func isPathChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_' || ch == '-'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
