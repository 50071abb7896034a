package internal

// TokenType represents the type of a lexical token
type TokenType string

// Token type constants
const (
	TokenTypeText TokenType = "TEXT"
	TokenTypeTag  TokenType = "TAG"
	TokenTypeEOF  TokenType = "EOF"
)

// TagKind classifies a tag token by its leading sigil and suffix
type TagKind string

// Tag kind constants
const (
	TagKindVariable   TagKind = "VARIABLE"
	TagKindBoolOutput TagKind = "BOOL_OUTPUT"
	TagKindIf         TagKind = "IF"
	TagKindIfNot      TagKind = "IF_NOT"
	TagKindElse       TagKind = "ELSE"
	TagKindClose      TagKind = "CLOSE"
	TagKindLoop       TagKind = "LOOP"
	TagKindInclude    TagKind = "INCLUDE"
)

// NodeType identifies block tree node types
type NodeType int

// Node type constants
const (
	NodeTypeRoot NodeType = iota
	NodeTypeLiteral
	NodeTypeVariable
	NodeTypeBoolOutput
	NodeTypeConditional
	NodeTypeLoop
	NodeTypeInclude
)

// Node type string names for debugging
const (
	NodeTypeNameRoot        = "ROOT"
	NodeTypeNameLiteral     = "LITERAL"
	NodeTypeNameVariable    = "VARIABLE"
	NodeTypeNameBoolOutput  = "BOOL_OUTPUT"
	NodeTypeNameConditional = "CONDITIONAL"
	NodeTypeNameLoop        = "LOOP"
	NodeTypeNameInclude     = "INCLUDE"
)

// String returns the string representation of the node type
func (n NodeType) String() string {
	switch n {
	case NodeTypeLiteral:
		return NodeTypeNameLiteral
	case NodeTypeVariable:
		return NodeTypeNameVariable
	case NodeTypeBoolOutput:
		return NodeTypeNameBoolOutput
	case NodeTypeConditional:
		return NodeTypeNameConditional
	case NodeTypeLoop:
		return NodeTypeNameLoop
	case NodeTypeInclude:
		return NodeTypeNameInclude
	default:
		return NodeTypeNameRoot
	}
}

// Tag wrapper and marker strings
const (
	StrTagOpen    = "<ARX"
	StrTagClose   = "/>"
	StrExprOpen   = "[["
	StrExprClose  = "]]"
	StrElse       = "]:"
	StrBlockClose = ":"
	StrLoopAs     = "as"
)

// Sigils and single characters
const (
	SigilIf         = '#'
	SigilIfNot      = '^'
	SigilLoop       = '*'
	SigilInclude    = '@'
	CharBlockStart  = ':'
	CharDefaultSep  = '|'
	CharListSep     = ','
	CharBraceOpen   = '{'
	CharBraceClose  = '}'
	CharDoubleQuote = '"'
	CharSingleQuote = '\''
	CharBackslash   = '\\'
	CharDot         = '.'
	CharNewline     = '\n'
	CharSpace       = ' '
	CharTab         = '\t'
	CharCarriageRet = '\r'
)

// Path forms with reserved meaning
const (
	PathSeparator   = "."
	PathCurrentItem = "."
	EnvPathPrefix   = "env."
)

// Phase is a named evaluation pass for phase-tagged variables
type Phase string

// Phase identifiers. PhaseNone resolves untagged variables only and
// PhaseAll resolves every phase in a single pass.
const (
	PhaseNone Phase = ""
	PhaseNew  Phase = "new"
	PhaseDo   Phase = "do"
	PhaseAll  Phase = "*"
)

// IsKnownPhase reports whether id is a phase identifier a tag may carry.
func IsKnownPhase(id Phase) bool {
	return id == PhaseNew || id == PhaseDo
}

// PhaseActive reports whether a variable tagged with tag resolves in a
// render whose active phase is active. Untagged variables always do.
func PhaseActive(tag, active Phase) bool {
	return tag == PhaseNone || active == PhaseAll || tag == active
}

// Value rendering constants
const (
	BoolStringTrue   = "true"
	BoolStringFalse  = "false"
	StringValueEmpty = ""
)

// Display limits for String() methods
const (
	MaxStringDisplayLength = 50
	TruncatedStringLength  = 47
	TruncationSuffix       = "..."
)

// Default configuration values
const (
	DefaultMaxIncludeDepth = 32
)

// Log message constants
const (
	LogMsgLexerCreated       = "lexer created"
	LogMsgTokenizerStart     = "starting tokenization"
	LogMsgTokenizerEnd       = "tokenization complete"
	LogMsgParserCreated      = "parser created"
	LogMsgParserStart        = "starting parse"
	LogMsgParserEnd          = "parse complete"
	LogMsgRendererCreated    = "renderer created"
	LogMsgRenderStart        = "starting render"
	LogMsgRenderEnd          = "render complete"
	LogMsgVariableDeferred   = "variable deferred to later phase"
	LogMsgVariableUnresolved = "variable unresolved"
	LogMsgConditionEval      = "evaluating condition"
	LogMsgLoopStart          = "starting loop"
	LogMsgLoopSkipped        = "loop source is not a sequence"
	LogMsgIncludeStart       = "including document"
	LogMsgIncludeEnd         = "include complete"
)

// Log field names
const (
	LogFieldSource     = "source_length"
	LogFieldTokens     = "token_count"
	LogFieldNodes      = "node_count"
	LogFieldPath       = "path"
	LogFieldPhase      = "phase"
	LogFieldActive     = "active_phase"
	LogFieldResult     = "result"
	LogFieldItems      = "item_count"
	LogFieldTarget     = "target"
	LogFieldDocument   = "document"
	LogFieldDepth      = "depth"
	LogFieldLine       = "line"
	LogFieldUnresolved = "unresolved_count"
)

// Lexer error messages
const (
	ErrMsgUnterminatedTag     = "unterminated tag"
	ErrMsgEmptyTag            = "empty tag"
	ErrMsgUnknownTagSyntax    = "unrecognized tag content"
	ErrMsgUnterminatedExpr    = "unterminated expression"
	ErrMsgEmptyExpr           = "empty expression"
	ErrMsgInvalidPath         = "invalid variable path"
	ErrMsgInvalidSuffix       = "unexpected content after expression"
	ErrMsgUnknownPhase        = "unknown phase identifier"
	ErrMsgPhaseNotAllowed     = "phase suffix is only allowed on variable tags"
	ErrMsgVariableBlock       = "variable tag cannot open a block"
	ErrMsgNegatedNeedsBlock   = "negated check must open a block"
	ErrMsgLoopNeedsBlock      = "loop must open a block"
	ErrMsgInvalidLoopSyntax   = "invalid loop syntax"
	ErrMsgInvalidIdentifier   = "invalid loop variable name"
	ErrMsgEmptyDefault        = "empty default value"
	ErrMsgUnterminatedStr     = "unterminated string literal"
	ErrMsgIncludeNeedsTarget  = "include requires a quoted target path"
	ErrMsgIncludeEmptyTarget  = "include target cannot be empty"
	ErrMsgIncludeInlineSyntax = "include inline context must be a brace-delimited mapping"
	ErrMsgIncludeInlineParse  = "include inline context is not a valid mapping"
)

// Parser error messages
const (
	ErrMsgUnclosedBlock        = "block opened but never closed"
	ErrMsgUnmatchedClose       = "close marker without an open block"
	ErrMsgElseOutsideCondition = "else marker outside a conditional block"
	ErrMsgDuplicateElse        = "conditional block already has an else branch"
)

// Renderer error messages
const (
	ErrMsgIncludeCycle         = "include cycle detected"
	ErrMsgIncludeDepthExceeded = "maximum include depth exceeded"
	ErrMsgUnresolvedVariables  = "unresolved variables in strict mode"
	ErrMsgMissingIncludeInput  = "included document is missing required inputs"
	ErrMsgNoIncluder           = "include is not available without a document source"
)

// Error format string constants (for Error() methods)
const (
	ErrFmtWithPosition = "%s at %s"
	ErrFmtWithRaw      = "%s at %s: %q"
	ErrFmtWithDetail   = "%s: %s"
	ErrFmtWithHints    = "%s (%s)"
	ErrFmtRawAt        = "%q at %s"
	ErrFmtCauseChain   = "%w: %w"
	ErrFmtPosition     = "line %d, column %d"
	ErrListSeparator   = ", "
	ErrChainSeparator  = " -> "
)

// "Did you mean" hints for unresolved paths
const (
	MaxSuggestions     = 3
	MinSuggestDistance = 2
	SuggestionPrefix   = "did you mean "
	SuggestionSuffix   = "?"
	SuggestionQuote    = "'"
	SuggestionOr       = " or "
	SuggestionHintFmt  = "%s: %s"
	SuggestionHintSep  = "; "
)
