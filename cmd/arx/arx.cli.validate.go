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
)

// validateConfig holds parsed validate command configuration
type validateConfig struct {
	sourceConfig
	templatePath string
	format       string
}

// validationOutput represents JSON output for validation
type validationOutput struct {
	Valid    bool     `json:"valid"`
	Error    string   `json:"error,omitempty"`
	Inputs   []string `json:"inputs,omitempty"`
	Required []string `json:"required,omitempty"`
	Script   string   `json:"script,omitempty"`
}

func runValidate(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseValidateFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	logger := newLogger(cfg.verbose, stderr)
	engine, closeEngine, err := openEngine(cfg.sourceConfig, logger)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgStoreFailed, err)
		return ExitCodeError
	}
	defer closeEngine()

	output := validate(context.Background(), engine, cfg.templatePath, stdin)
	if output == nil {
		// the document could not be read at all
		fmt.Fprintf(stderr, FmtErrorWithDetail, ErrMsgReadFileFailed, cfg.templatePath)
		return ExitCodeInputError
	}

	if cfg.format == OutputFormatJSON {
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(stdout, string(jsonBytes))
	} else {
		outputValidationText(output, stdout)
	}

	if !output.Valid {
		return ExitCodeValidationError
	}
	return ExitCodeSuccess
}

// validate parses the document and summarizes its declared inputs. It
// returns nil when the document cannot be read.
func validate(ctx context.Context, engine *arx.Engine, path string, stdin io.Reader) *validationOutput {
	var doc *arx.Document
	var err error
	if path == InputSourceStdin {
		source, readErr := readInput(path, stdin)
		if readErr != nil {
			return nil
		}
		doc, err = engine.Parse(string(source))
	} else {
		doc, err = engine.Load(ctx, path, "")
		if errors.Is(err, arx.ErrIncludeNotFound) || errors.Is(err, arx.ErrSource) {
			return nil
		}
	}
	if err != nil {
		return &validationOutput{Valid: false, Error: err.Error()}
	}

	fm := doc.FrontMatter()
	output := &validationOutput{
		Valid:    true,
		Required: fm.RequiredInputs(),
		Script:   fm.Script(),
	}
	for _, in := range fm.Inputs() {
		output.Inputs = append(output.Inputs, in.Name)
	}
	return output
}

func outputValidationText(output *validationOutput, stdout io.Writer) {
	if !output.Valid {
		fmt.Fprintln(stdout, ValidationTextFailure)
		fmt.Fprintf(stdout, ValidationTextError+FmtNewline, output.Error)
		return
	}

	fmt.Fprintln(stdout, ValidationTextSuccess)
	if len(output.Inputs) > 0 {
		fmt.Fprintf(stdout, ValidationTextInputs+FmtNewline, strings.Join(output.Inputs, FmtListSeparator))
	}
	if len(output.Required) > 0 {
		fmt.Fprintf(stdout, ValidationTextRequired+FmtNewline, strings.Join(output.Required, FmtListSeparator))
	}
	if output.Script != "" {
		fmt.Fprintf(stdout, ValidationTextScript+FmtNewline, output.Script)
	}
}

func parseValidateFlags(args []string) (*validateConfig, error) {
	fs := flag.NewFlagSet(CmdNameValidate, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &validateConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")
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

	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}
