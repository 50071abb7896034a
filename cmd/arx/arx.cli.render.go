package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/agentrx/go-arx"
)

// renderConfig holds parsed render command configuration
type renderConfig struct {
	sourceConfig
	dataConfig
	templatePath string
	outputPath   string
	phase        arx.Phase
	strict       bool
	noEnv        bool
	scripts      bool
	quiet        bool
}

func runRender(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseRenderFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	ctx := context.Background()
	logger := newLogger(cfg.verbose, stderr)
	defer func() { _ = logger.Sync() }()

	engine, closeEngine, err := openEngine(cfg.sourceConfig, logger,
		arx.WithScripts(cfg.scripts),
		arx.WithEnvironment(!cfg.noEnv))
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgStoreFailed, err)
		return ExitCodeError
	}
	defer closeEngine()

	// Load document
	doc, code := loadDocument(ctx, engine, cfg.templatePath, stdin, stderr)
	if doc == nil {
		return code
	}

	// Collect data layers
	opts := arx.RenderOptions{Phase: cfg.phase, Strict: cfg.strict}
	if code := collectData(cfg.dataConfig, &opts, stdin, stderr); code != ExitCodeSuccess {
		return code
	}

	result, err := engine.Render(ctx, doc, opts)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgRenderFailed, err)
		if errors.Is(err, arx.ErrMissingRequiredInput) {
			return ExitCodeInputError
		}
		return ExitCodeError
	}

	if err := writeOutput(cfg.outputPath, []byte(result), stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}
	if !cfg.quiet && cfg.outputPath != FlagDefaultOutput {
		fmt.Fprintf(stderr, MsgWroteOutput+FmtNewline, cfg.outputPath)
	}

	return ExitCodeSuccess
}

// loadDocument reads the template from stdin or resolves it through the
// engine's source. On failure it reports to stderr and returns the exit code.
func loadDocument(ctx context.Context, engine *arx.Engine, path string, stdin io.Reader, stderr io.Writer) (*arx.Document, int) {
	if path == InputSourceStdin {
		source, err := readInput(path, stdin)
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadStdinFailed, err)
			return nil, ExitCodeInputError
		}
		doc, err := engine.Parse(string(source))
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgParseTemplateFailed, err)
			return nil, ExitCodeValidationError
		}
		return doc, ExitCodeSuccess
	}

	doc, err := engine.Load(ctx, path, "")
	if err != nil {
		if errors.Is(err, arx.ErrIncludeNotFound) || errors.Is(err, arx.ErrSource) {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgLoadTemplateFailed, err)
			return nil, ExitCodeInputError
		}
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgParseTemplateFailed, err)
		return nil, ExitCodeValidationError
	}
	return doc, ExitCodeSuccess
}

func parseRenderFlags(args []string) (*renderConfig, error) {
	fs := flag.NewFlagSet(CmdNameRender, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &renderConfig{}
	var phase string

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	cfg.dataConfig.register(fs)
	fs.StringVar(&cfg.outputPath, FlagOutput, FlagDefaultOutput, "")
	fs.StringVar(&cfg.outputPath, FlagOutputShort, FlagDefaultOutput, "")
	fs.StringVar(&phase, FlagPhase, "", "")
	fs.BoolVar(&cfg.strict, FlagStrictMode, false, "")
	fs.BoolVar(&cfg.noEnv, FlagNoEnv, false, "")
	fs.BoolVar(&cfg.scripts, FlagScripts, false, "")
	fs.Var(&cfg.searchDirs, FlagSearch, "")
	fs.StringVar(&cfg.dsn, FlagDSN, "", "")
	fs.BoolVar(&cfg.quiet, FlagQuiet, false, "")
	fs.BoolVar(&cfg.quiet, FlagQuietShort, false, "")
	fs.BoolVar(&cfg.verbose, FlagVerbose, false, "")
	fs.BoolVar(&cfg.verbose, FlagVerboseShort, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Validation
	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}
	if cfg.templatePath == InputSourceStdin && cfg.stdinData {
		return nil, errors.New(ErrMsgStdinConflict)
	}
	p, err := arx.ParsePhase(phase)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgInvalidPhase, err)
	}
	cfg.phase = p

	return cfg, nil
}
