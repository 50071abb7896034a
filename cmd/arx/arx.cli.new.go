package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/agentrx/go-arx"
)

// now is the clock output names are stamped with
var now = time.Now

// newConfig holds parsed new command configuration
type newConfig struct {
	sourceConfig
	dataConfig
	templatePath string
	promptText   string
	shortName    string
	subdir       string
	dryRun       bool
	scripts      bool
	noEnv        bool
}

func runNew(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseNewFlags(args)
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

	// A template name that resolves to nothing is the prompt text itself
	// when no other text was given
	if cfg.templatePath != "" && cfg.templatePath != InputSourceStdin && cfg.promptText == "" {
		if _, err := engine.Source().Load(ctx, cfg.templatePath, ""); errors.Is(err, arx.ErrIncludeNotFound) {
			cfg.promptText = cfg.templatePath
			cfg.templatePath = ""
		}
	}

	var doc *arx.Document
	if cfg.templatePath != "" {
		var code int
		if doc, code = loadDocument(ctx, engine, cfg.templatePath, stdin, stderr); doc == nil {
			return code
		}
	}

	opts := arx.RenderOptions{Phase: arx.PhaseNew}
	if code := collectData(cfg.dataConfig, &opts, stdin, stderr); code != ExitCodeSuccess {
		return code
	}
	if cfg.promptText != "" {
		// lowest primary layer, so data that sets prompt keeps its value
		prompt := map[string]any{PromptDataKey: cfg.promptText}
		opts.Primary = append([]map[string]any{prompt}, opts.Primary...)
	}

	body := cfg.promptText
	var keys []string
	subdir, shortName := cfg.subdir, cfg.shortName
	if doc != nil {
		c, err := engine.BuildContext(ctx, doc, opts)
		if err == nil {
			body, err = engine.RenderWithContext(ctx, doc, c, opts)
		}
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgRenderFailed, err)
			if errors.Is(err, arx.ErrMissingRequiredInput) {
				return ExitCodeInputError
			}
			return ExitCodeError
		}
		keys = c.Keys()

		fm := doc.FrontMatter()
		if subdir == "" {
			subdir = fm.Subdir()
		}
		if shortName == "" {
			shortName = fm.ShortName()
		}
	} else {
		keys = mergedKeys(opts)
	}

	if subdir == "" {
		subdir = DefaultNewSubdir
	}
	if shortName == "" {
		seed := cfg.promptText
		if seed == "" && doc != nil {
			seed = documentStem(doc.ID())
		}
		shortName = deriveShortName(seed)
	}
	outPath := newOutputPath(workDocsDir(), subdir, shortName, now())

	if cfg.dryRun {
		printNewDryRun(stdout, doc, outPath, subdir, shortName, keys, body)
		return ExitCodeSuccess
	}

	if err := writeOutput(outPath, []byte(body), stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}
	fmt.Fprintln(stdout, outPath)
	return ExitCodeSuccess
}

func parseNewFlags(args []string) (*newConfig, error) {
	fs := flag.NewFlagSet(CmdNameNew, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &newConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	cfg.dataConfig.register(fs)
	fs.StringVar(&cfg.shortName, FlagName, "", "")
	fs.StringVar(&cfg.shortName, FlagNameShort, "", "")
	fs.StringVar(&cfg.subdir, FlagSubdir, "", "")
	fs.BoolVar(&cfg.dryRun, FlagDryRun, false, "")
	fs.BoolVar(&cfg.scripts, FlagScripts, false, "")
	fs.BoolVar(&cfg.noEnv, FlagNoEnv, false, "")
	fs.Var(&cfg.searchDirs, FlagSearch, "")
	fs.StringVar(&cfg.dsn, FlagDSN, "", "")
	fs.BoolVar(&cfg.verbose, FlagVerbose, false, "")
	fs.BoolVar(&cfg.verbose, FlagVerboseShort, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.promptText = strings.TrimSpace(strings.Join(fs.Args(), " "))

	if cfg.templatePath == "" && cfg.promptText == "" {
		return nil, errors.New(ErrMsgNewNeedsInput)
	}
	if cfg.templatePath == InputSourceStdin && cfg.stdinData {
		return nil, errors.New(ErrMsgStdinConflict)
	}

	return cfg, nil
}

// workDocsDir returns the directory new documents are written under
func workDocsDir() string {
	for _, env := range []string{EnvWorkDocs, EnvPrompts} {
		if dir := os.Getenv(env); dir != "" {
			return dir
		}
	}
	return DefaultPromptsDir
}

func newOutputPath(root, subdir, shortName string, t time.Time) string {
	return filepath.Join(root, subdir, fmt.Sprintf(NewFileNameFormat, shortName, t.Format(NewTimestampLayout)))
}

// deriveShortName joins the lowercased alphanumerics of the first words
// of text
func deriveShortName(text string) string {
	var parts []string
	for _, word := range strings.Fields(text) {
		if len(parts) == ShortNameWords {
			break
		}
		word = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, word)
		if word != "" {
			parts = append(parts, word)
		}
	}
	if len(parts) == 0 {
		return DefaultShortName
	}
	return strings.Join(parts, ShortNameSeparator)
}

func documentStem(id string) string {
	base := filepath.Base(id)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// mergedKeys lists the top-level keys of the data layers when there is no
// document to build a context for
func mergedKeys(opts arx.RenderOptions) []string {
	data := make(map[string]any)
	for _, layer := range append(append([]map[string]any(nil), opts.Primary...), opts.Secondary...) {
		for k, v := range layer {
			data[k] = v
		}
	}
	return arx.NewContext(data).Keys()
}

func printNewDryRun(stdout io.Writer, doc *arx.Document, outPath, subdir, shortName string, keys []string, body string) {
	template := NewDryRunNoTemplate
	if doc != nil && doc.ID() != "" {
		template = doc.ID()
	}

	fmt.Fprintln(stdout, NewDryRunHeader)
	fmt.Fprintf(stdout, NewDryRunTemplate+FmtNewline, template)
	fmt.Fprintf(stdout, NewDryRunOutput+FmtNewline, outPath)
	fmt.Fprintf(stdout, NewDryRunSubdir+FmtNewline, subdir)
	fmt.Fprintf(stdout, NewDryRunName+FmtNewline, shortName)
	if len(keys) > 0 {
		fmt.Fprintf(stdout, NewDryRunKeys+FmtNewline, strings.Join(keys, FmtListSeparator))
	}
	fmt.Fprintln(stdout)

	fmt.Fprintf(stdout, NewDryRunBodyHeader+FmtNewline, DryRunPreviewLen)
	if len(body) > DryRunPreviewLen {
		body = body[:DryRunPreviewLen] + NewDryRunEllipsis
	}
	fmt.Fprintln(stdout, body)
}
