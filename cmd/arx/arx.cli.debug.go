package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/agentrx/go-arx"
	"github.com/agentrx/go-arx/internal"
)

// debugConfig holds parsed debug command configuration
type debugConfig struct {
	sourceConfig
	dataConfig
	templatePath string
	format       string
	phase        arx.Phase
	noEnv        bool
}

// debugOutput represents JSON output for debug
type debugOutput struct {
	Valid            bool              `json:"valid"`
	Variables        []debugVariable   `json:"variables"`
	Blocks           []debugBlock      `json:"blocks"`
	Includes         []debugInclude    `json:"includes"`
	MissingInputs    []string          `json:"missing_inputs,omitempty"`
	MissingVariables []debugMissingVar `json:"missing_variables,omitempty"`
	UnusedData       []string          `json:"unused_data,omitempty"`
}

type debugVariable struct {
	Name     string `json:"name"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Exists   bool   `json:"exists"`
	Value    any    `json:"value,omitempty"`
	Default  string `json:"default,omitempty"`
	Phase    string `json:"phase,omitempty"`
	Deferred bool   `json:"deferred,omitempty"`
	Bound    bool   `json:"bound,omitempty"`
}

type debugBlock struct {
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	Negate bool   `json:"negate,omitempty"`
	Line   int    `json:"line"`
	Exists bool   `json:"exists"`
}

type debugInclude struct {
	Name   string `json:"name"`
	Line   int    `json:"line"`
	Exists bool   `json:"exists"`
	ID     string `json:"id,omitempty"`
}

type debugMissingVar struct {
	Name        string   `json:"name"`
	Line        int      `json:"line"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Block kinds in debug output
const (
	debugBlockIf   = "if"
	debugBlockEach = "each"
)

func runDebug(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseDebugFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	ctx := context.Background()
	logger := newLogger(cfg.verbose, stderr)
	defer func() { _ = logger.Sync() }()

	engine, closeEngine, err := openEngine(cfg.sourceConfig, logger, arx.WithEnvironment(!cfg.noEnv))
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgStoreFailed, err)
		return ExitCodeError
	}
	defer closeEngine()

	doc, code := loadDocument(ctx, engine, cfg.templatePath, stdin, stderr)
	if doc == nil {
		return code
	}

	opts := arx.RenderOptions{Phase: cfg.phase}
	if code := collectData(cfg.dataConfig, &opts, stdin, stderr); code != ExitCodeSuccess {
		return code
	}

	result, err := engine.DryRun(ctx, doc, opts)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgDebugFailed, err)
		return ExitCodeError
	}

	output := buildDebugOutput(result)
	if cfg.format == OutputFormatJSON {
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(stdout, string(jsonBytes))
	} else {
		outputDebugText(output, stdout)
	}

	if !output.Valid || len(output.MissingVariables) > 0 {
		return ExitCodeValidationError
	}
	return ExitCodeSuccess
}

func parseDebugFlags(args []string) (*debugConfig, error) {
	fs := flag.NewFlagSet(CmdNameDebug, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &debugConfig{}
	var phase string

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	cfg.dataConfig.register(fs)
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")
	fs.StringVar(&phase, FlagPhase, "", "")
	fs.BoolVar(&cfg.noEnv, FlagNoEnv, false, "")
	fs.Var(&cfg.searchDirs, FlagSearch, "")
	fs.StringVar(&cfg.dsn, FlagDSN, "", "")
	fs.BoolVar(&cfg.verbose, FlagVerbose, false, "")
	fs.BoolVar(&cfg.verbose, FlagVerboseShort, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}
	if cfg.templatePath == InputSourceStdin && cfg.stdinData {
		return nil, errors.New(ErrMsgStdinConflict)
	}
	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}
	p, err := arx.ParsePhase(phase)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgInvalidPhase, err)
	}
	cfg.phase = p

	return cfg, nil
}

func buildDebugOutput(result *arx.DryRunResult) *debugOutput {
	output := &debugOutput{
		Valid:         result.Valid,
		Variables:     make([]debugVariable, 0, len(result.Variables)),
		Blocks:        make([]debugBlock, 0, len(result.Conditionals)+len(result.Loops)),
		Includes:      make([]debugInclude, 0, len(result.Includes)),
		MissingInputs: result.MissingInputs,
		UnusedData:    result.UnusedKeys,
	}

	reported := make(map[string]bool)
	for _, v := range result.Variables {
		output.Variables = append(output.Variables, debugVariable{
			Name:     v.Path,
			Line:     v.Line,
			Column:   v.Column,
			Exists:   v.InContext,
			Value:    v.Value,
			Default:  v.Default,
			Phase:    string(v.Phase),
			Deferred: v.Deferred,
			Bound:    v.Bound,
		})

		// first occurrence carries the suggestions
		if isMissing(v) && !reported[v.Path] {
			reported[v.Path] = true
			output.MissingVariables = append(output.MissingVariables, debugMissingVar{
				Name:        v.Path,
				Line:        v.Line,
				Suggestions: v.Suggestions,
			})
		}
	}

	for _, c := range result.Conditionals {
		output.Blocks = append(output.Blocks, debugBlock{
			Kind:   debugBlockIf,
			Path:   c.Path,
			Negate: c.Negate,
			Line:   c.Line,
			Exists: c.InContext,
		})
	}
	for _, l := range result.Loops {
		output.Blocks = append(output.Blocks, debugBlock{
			Kind:   debugBlockEach,
			Path:   l.Source,
			Line:   l.Line,
			Exists: l.InContext,
		})
	}

	for _, inc := range result.Includes {
		output.Includes = append(output.Includes, debugInclude{
			Name:   inc.Target,
			Line:   inc.Line,
			Exists: inc.Exists,
			ID:     inc.ID,
		})
	}

	return output
}

// isMissing mirrors the missing-variable rule of a dry run
func isMissing(v arx.VariableReference) bool {
	return !v.InContext && !v.Bound && !v.Deferred && !v.HasDefault && !v.Bool
}

func outputDebugText(output *debugOutput, stdout io.Writer) {
	fmt.Fprintln(stdout, DebugTextHeader)
	fmt.Fprintln(stdout)

	fmt.Fprintf(stdout, DebugTextVariablesHeader+FmtNewline, len(output.Variables))
	for _, v := range output.Variables {
		var line string
		switch {
		case v.Bound:
			line = fmt.Sprintf(DebugTextVarBound, v.Name, v.Line, v.Column)
		case v.Deferred:
			line = fmt.Sprintf(DebugTextVarDeferred, v.Name, v.Line, v.Column, v.Phase)
		case v.Exists:
			line = fmt.Sprintf(DebugTextVarExists, v.Name, v.Line, v.Column, truncateValue(v.Value))
		default:
			line = fmt.Sprintf(DebugTextVarMissing, v.Name, v.Line, v.Column)
		}
		if v.Default != "" && !v.Exists {
			line += fmt.Sprintf(DebugTextVarDefault, v.Default)
		}
		if v.Phase != "" && !v.Deferred {
			line += fmt.Sprintf(DebugTextVarPhase, v.Phase)
		}
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout)

	if len(output.Blocks) > 0 {
		fmt.Fprintf(stdout, DebugTextBlocksHeader+FmtNewline, len(output.Blocks))
		for _, b := range output.Blocks {
			if b.Kind == debugBlockEach {
				fmt.Fprintf(stdout, DebugTextLoop+FmtNewline, b.Path, b.Line, b.Exists)
				continue
			}
			negate := ""
			if b.Negate {
				negate = DebugTextNegated
			}
			fmt.Fprintf(stdout, DebugTextConditional+FmtNewline, negate, b.Path, b.Line, b.Exists)
		}
		fmt.Fprintln(stdout)
	}

	if len(output.Includes) > 0 {
		fmt.Fprintf(stdout, DebugTextIncludesHeader+FmtNewline, len(output.Includes))
		for _, inc := range output.Includes {
			if inc.Exists {
				fmt.Fprintf(stdout, DebugTextIncludeExists+FmtNewline, inc.Name, inc.Line, inc.ID)
			} else {
				fmt.Fprintf(stdout, DebugTextIncludeMissing+FmtNewline, inc.Name, inc.Line)
			}
		}
		fmt.Fprintln(stdout)
	}

	if len(output.MissingInputs) > 0 {
		fmt.Fprintln(stdout, DebugTextInputsHeader)
		for _, name := range output.MissingInputs {
			fmt.Fprintf(stdout, DebugTextListItem+FmtNewline, name)
		}
		fmt.Fprintln(stdout)
	}

	if len(output.UnusedData) > 0 {
		fmt.Fprintln(stdout, DebugTextUnusedHeader)
		for _, key := range output.UnusedData {
			fmt.Fprintf(stdout, DebugTextListItem+FmtNewline, key)
		}
		fmt.Fprintln(stdout)
	}

	var suggested []debugMissingVar
	for _, mv := range output.MissingVariables {
		if len(mv.Suggestions) > 0 {
			suggested = append(suggested, mv)
		}
	}
	if len(suggested) > 0 {
		fmt.Fprintln(stdout, DebugTextSuggestHeader)
		for _, mv := range suggested {
			fmt.Fprintf(stdout, DebugTextSuggestion+FmtNewline, mv.Name, internal.FormatSuggestions(mv.Suggestions))
		}
		fmt.Fprintln(stdout)
	}

	fmt.Fprintf(stdout, DebugTextSummary+FmtNewline, len(output.MissingVariables), len(output.UnusedData))
}

func truncateValue(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) > DebugValueMaxLen {
		s = s[:DebugValueMaxLen-len(DebugValueEllipsis)] + DebugValueEllipsis
	}
	return strings.TrimSpace(s)
}
