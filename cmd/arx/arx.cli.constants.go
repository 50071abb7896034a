package main

// Command names
const (
	CmdNameRender   = "render"
	CmdNameValidate = "validate"
	CmdNameDebug    = "debug"
	CmdNameNew      = "new"
	CmdNameVersion  = "version"
	CmdNameHelp     = "help"
)

// Flag names - long form
const (
	FlagTemplate   = "template"
	FlagData       = "data"
	FlagDataFile   = "data-file"
	FlagStdinData  = "stdin"
	FlagOutput     = "output"
	FlagQuiet      = "quiet"
	FlagFormat     = "format"
	FlagStrictMode = "strict"
	FlagPhase      = "phase"
	FlagNoEnv      = "no-env"
	FlagScripts    = "scripts"
	FlagSearch     = "search"
	FlagDSN        = "dsn"
	FlagVerbose    = "verbose"
	FlagName       = "name"
	FlagSubdir     = "subdir"
	FlagDryRun     = "dry-run"
)

// Flag names - short form
const (
	FlagTemplateShort  = "t"
	FlagDataShort      = "d"
	FlagDataFileShort  = "f"
	FlagStdinDataShort = "i"
	FlagOutputShort    = "o"
	FlagQuietShort     = "q"
	FlagFormatShort    = "F"
	FlagVerboseShort   = "v"
	FlagNameShort      = "n"
)

// Flag default values
const (
	FlagDefaultOutput = "-" // stdout
	FlagDefaultFormat = "text"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Template search locations taken from the environment
const (
	EnvAgentTools       = "ARX_AGENT_TOOLS"
	EnvAgentRxSource    = "AGENTRX_SOURCE"
	TemplatesSubdirName = "templates"
)

// Output locations and naming for new documents
const (
	EnvWorkDocs        = "ARX_WORK_DOCS"
	EnvPrompts         = "ARX_PROMPTS"
	DefaultPromptsDir  = "_project/docs/agentrx/vibes"
	DefaultNewSubdir   = "vibes"
	DefaultShortName   = "prompt"
	PromptDataKey      = "prompt"
	NewTimestampLayout = "06-01-02-15"
	NewFileNameFormat  = "%s_%s.md"
	ShortNameWords     = 3
	ShortNameSeparator = "_"
	DryRunPreviewLen   = 600
)

// Error messages - ALL must be constants
const (
	ErrMsgUnknownCommand      = "unknown command"
	ErrMsgMissingTemplate     = "template source required"
	ErrMsgInvalidFlags        = "invalid arguments"
	ErrMsgStdinConflict       = "stdin cannot carry both the template and data"
	ErrMsgInvalidJSON         = "invalid JSON data"
	ErrMsgReadFileFailed      = "failed to read file"
	ErrMsgReadStdinFailed     = "failed to read from stdin"
	ErrMsgWriteOutputFailed   = "failed to write output"
	ErrMsgParseTemplateFailed = "template parsing failed"
	ErrMsgLoadTemplateFailed  = "failed to load template"
	ErrMsgRenderFailed        = "template rendering failed"
	ErrMsgInvalidFormat       = "invalid output format"
	ErrMsgInvalidPhase        = "invalid phase"
	ErrMsgStoreFailed         = "failed to open document store"
	ErrMsgDebugFailed         = "document analysis failed"
	ErrMsgNewNeedsInput       = "provide a template and/or prompt text"
)

// Help text templates
const (
	HelpMainUsage = `arx - ARX document rendering CLI

Usage:
    arx <command> [options]

Commands:
    render      Render a document with data
    validate    Validate a document without rendering
    debug       Report variables, blocks and includes against data
    new         Render a document at the new phase into the work docs
    version     Show version information
    help        Show help for a command

Use "arx help <command>" for more information about a command.`

	HelpRenderUsage = `Render a document with data

Usage:
    arx render [options]

Options:
    -t, --template <name>   Document path or name (use "-" for stdin)
    -d, --data <json>       JSON data string
    -f, --data-file <file>  Data file (.json, .yaml, .yml, .hcl)
    -i, --stdin             Read JSON data from stdin (overrides --data)
    -o, --output <file>     Output file (default: stdout)
    --phase <phase>         Resolve variables tagged new, do, or * for all
    --strict                Fail on unresolved variables
    --no-env                Do not expose env.* paths
    --scripts               Run the document's augmentation script
    --search <dir>          Extra template directory (repeatable)
    --dsn <url>             Load documents from PostgreSQL
    -q, --quiet             Suppress non-error output
    -v, --verbose           Log engine activity to stderr

Templates are looked up as given, then with .md appended, then in each
--search directory, $ARX_AGENT_TOOLS/templates and $AGENTRX_SOURCE/templates.

Examples:
    arx render -t prompt.md -d '{"topic": "testing"}'
    arx render -t plan -f data.yaml --phase new
    echo '{"task": "ship"}' | arx render -t plan -i --phase do
    cat doc.md | arx render -t - -o out.md`

	HelpValidateUsage = `Validate a document without rendering

Usage:
    arx validate [options]

Options:
    -t, --template <name>   Document path or name (use "-" for stdin)
    -F, --format <format>   Output format: text, json (default: text)
    --search <dir>          Extra template directory (repeatable)
    --dsn <url>             Load documents from PostgreSQL

Examples:
    arx validate -t prompt.md
    arx validate -t prompt.md -F json
    cat prompt.md | arx validate -t -`

	HelpDebugUsage = `Report what a render would read without producing output

Usage:
    arx debug [options]

Options:
    -t, --template <name>   Document path or name (use "-" for stdin)
    -d, --data <json>       JSON data string
    -f, --data-file <file>  Data file (.json, .yaml, .yml, .hcl)
    -i, --stdin             Read JSON data from stdin (overrides --data)
    --phase <phase>         Treat variables tagged new, do, or * as active
    -F, --format <format>   Output format: text, json (default: text)
    --no-env                Do not expose env.* paths
    --search <dir>          Extra template directory (repeatable)
    --dsn <url>             Load documents from PostgreSQL
    -v, --verbose           Log engine activity to stderr

Exits with 3 when an active variable has no value and no default, a
required input is missing, or an include target cannot be found.

Examples:
    arx debug -t prompt.md -d '{"topic": "testing"}'
    arx debug -t plan -f data.yaml --phase do -F json`

	HelpNewUsage = `Render a document at the new phase into the work docs directory

Usage:
    arx new [options] [prompt text...]

Options:
    -t, --template <name>   Document path or name (use "-" for stdin)
    -d, --data <json>       JSON data string
    -f, --data-file <file>  Data file (.json, .yaml, .yml, .hcl)
    -i, --stdin             Read JSON data from stdin (overrides --data)
    -n, --name <name>       Short name for the output file
    --subdir <dir>          Subdirectory under the work docs directory
    --dry-run               Show what would be written without writing
    --scripts               Run the document's augmentation script
    --no-env                Do not expose env.* paths
    --search <dir>          Extra template directory (repeatable)
    --dsn <url>             Load documents from PostgreSQL
    -v, --verbose           Log engine activity to stderr

The prompt text is bound to "prompt" unless the data already sets it.
Without a template the prompt text itself is written. Output goes to
$ARX_WORK_DOCS (or $ARX_PROMPTS, or _project/docs/agentrx/vibes) under
<subdir>/<name>_<yy-mm-dd-HH>.md, where subdir and name fall back to the
front-matter subdir and short_name fields.

Examples:
    arx new -t plan "add retry to the uploader"
    arx new -n retry --subdir plans "add retry to the uploader"
    arx new -t plan -d '{"prompt": "ship it"}' --dry-run`

	HelpVersionUsage = `Show version information

Usage:
    arx version [options]

Options:
    -F, --format <format>   Output format: text, json (default: text)

Build metadata comes from -ldflags (main.version, main.commit,
main.buildTime), then the nearest versions.yaml, then the Go build info.`

	HelpHelpUsage = `Show help for a command

Usage:
    arx help [command]

Commands:
    render      Show help for render command
    validate    Show help for validate command
    debug       Show help for debug command
    new         Show help for new command
    version     Show help for version command`
)

// Debug output format templates
const (
	DebugTextHeader          = "=== Document Analysis ==="
	DebugTextVariablesHeader = "Variables (%d):"
	DebugTextVarExists       = "  %s (line %d, col %d) = %s"
	DebugTextVarMissing      = "  %s (line %d, col %d) MISSING"
	DebugTextVarDefault      = " (default: %q)"
	DebugTextVarPhase        = " [phase %s]"
	DebugTextVarDeferred     = "  %s (line %d, col %d) deferred to phase %s"
	DebugTextVarBound        = "  %s (line %d, col %d) loop-bound"
	DebugTextBlocksHeader    = "Blocks (%d):"
	DebugTextConditional     = "  if %s%s (line %d) exists=%t"
	DebugTextLoop            = "  each %s (line %d) exists=%t"
	DebugTextNegated         = "not "
	DebugTextIncludesHeader  = "Includes (%d):"
	DebugTextIncludeExists   = "  %s (line %d) -> %s"
	DebugTextIncludeMissing  = "  %s (line %d) NOT FOUND"
	DebugTextInputsHeader    = "Missing required inputs:"
	DebugTextUnusedHeader    = "Unused data keys:"
	DebugTextListItem        = "  %s"
	DebugTextSuggestHeader   = "Suggestions:"
	DebugTextSuggestion      = "  %s: %s"
	DebugTextSummary         = "Summary: %d missing, %d unused"
	DebugValueMaxLen         = 30
	DebugValueEllipsis       = "..."
)

// Version output format templates
const (
	VersionTextTemplate = "%s %s (commit %s, built %s, %s)"
	VersionUnknown      = "unknown"
	VersionDevel        = "(devel)"
	VersionsFileName    = "versions.yaml"
	VersionProjectName  = "go-arx"
	BuildSettingCommit  = "vcs.revision"
	BuildSettingTime    = "vcs.time"
)

// Validation output format templates
const (
	ValidationTextSuccess  = "Document is valid"
	ValidationTextFailure  = "Document is invalid:"
	ValidationTextInputs   = "Inputs: %s"
	ValidationTextRequired = "Required: %s"
	ValidationTextScript   = "Script: %s"
	ValidationTextError    = "  %s"
)

// Status messages
const (
	MsgWroteOutput = "Wrote %s"
)

// New dry-run output format templates
const (
	NewDryRunHeader     = "=== Dry Run ==="
	NewDryRunTemplate   = "Template:  %s"
	NewDryRunOutput     = "Output:    %s"
	NewDryRunSubdir     = "Subdir:    %s"
	NewDryRunName       = "Name:      %s"
	NewDryRunKeys       = "Context keys: %s"
	NewDryRunBodyHeader = "=== Rendered body (first %d chars) ==="
	NewDryRunNoTemplate = "(none)"
	NewDryRunEllipsis   = "..."
)

// CLI metadata
const (
	CLIName        = "arx"
	CLIDescription = "ARX document rendering CLI"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtNewline         = "\n"
	FmtListSeparator   = ", "
)
