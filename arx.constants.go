package arx

import (
	"time"

	"github.com/agentrx/go-arx/internal"
)

// Tag syntax markers
const (
	TagOpen   = internal.StrTagOpen
	TagClose  = internal.StrTagClose
	EnvPrefix = internal.EnvPathPrefix
)

// Phase selects which phase-tagged variables a render resolves
type Phase = internal.Phase

// Render phases. PhaseEager resolves untagged variables only and leaves
// every phase-tagged variable verbatim; PhaseAll resolves everything.
const (
	PhaseEager = internal.PhaseNone
	PhaseNew   = internal.PhaseNew
	PhaseDo    = internal.PhaseDo
	PhaseAll   = internal.PhaseAll
)

// ParsePhase validates a phase name given on a command line or in config
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if p == PhaseEager || p == PhaseAll || internal.IsKnownPhase(p) {
		return p, nil
	}
	return PhaseEager, NewConfigError(ErrMsgInvalidPhase, s)
}

// Front matter constants
const (
	FrontMatterDelimiter = "---"

	FrontMatterKeyInputs    = "inputs"
	FrontMatterKeyScript    = "script"
	FrontMatterKeySubdir    = "subdir"
	FrontMatterKeyShortName = "short_name"

	InputKeyRequired    = "required"
	InputKeyDefault     = "default"
	InputKeyDescription = "description"
)

// Default configuration values
const (
	DefaultMaxIncludeDepth = internal.DefaultMaxIncludeDepth
	DefaultScriptTimeout   = 30 * time.Second
	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheMaxEntries = 1000
	DefaultDocumentFileExt = ".md"
	DefaultDataLabelInline = "--data"
	DefaultDataLabelStdin  = "stdin"
	DefaultQueryTimeout    = 30 * time.Second
	DefaultMaxOpenConns    = 10
	DefaultMaxIdleConns    = 2
	DefaultConnMaxLifetime = 30 * time.Minute
	DefaultPingTimeout     = 5 * time.Second
	DefaultPostgresPrefix  = "arx_"
	PostgresDriverName     = "postgres"
)

// Data file extensions
const (
	DataExtJSON = ".json"
	DataExtYAML = ".yaml"
	DataExtYML  = ".yml"
	DataExtHCL  = ".hcl"
)

// Metadata keys attached to errors
const (
	MetaKeyLine   = "line"
	MetaKeyColumn = "column"
	MetaKeyOffset = "offset"
	MetaKeyReason = "reason"
	MetaKeyRaw    = "raw"
	MetaKeyInputs = "inputs"
	MetaKeyStack  = "include_stack"
	MetaKeyTarget = "target"
	MetaKeyFrom   = "from"
	MetaKeyPaths  = "paths"
	MetaKeyHints  = "hints"
	MetaKeyStderr = "stderr"
	MetaKeySource = "source"
	MetaKeyName   = "name"
	MetaKeyValue  = "value"
)

// Log message constants
const (
	LogMsgEngineCreated     = "engine created"
	LogMsgDocumentParsed    = "document parsed"
	LogMsgDocumentLoaded    = "document loaded"
	LogMsgCacheHit          = "document cache hit"
	LogMsgContextBuilt      = "context built"
	LogMsgAugmentStart      = "running augmentation script"
	LogMsgAugmentDone       = "augmentation script finished"
	LogMsgSourceLookup      = "looking up document"
	LogMsgPostgresConnected = "connected to document store"
	LogMsgPostgresMigrated  = "document store schema ready"
	LogMsgPostgresClosed    = "document store closed"
	LogMsgDryRun            = "dry run finished"
)

// Log field names
const (
	LogFieldDocument  = "document"
	LogFieldTarget    = "target"
	LogFieldFrom      = "from"
	LogFieldKeys      = "key_count"
	LogFieldLayers    = "layer_count"
	LogFieldScript    = "script"
	LogFieldDuration  = "duration"
	LogFieldCached    = "cached"
	LogFieldAugmented = "augmented"
	LogFieldTable     = "table"
	LogFieldPhase     = "phase"
	LogFieldVariables = "variable_count"
	LogFieldMissing   = "missing_count"
)
