package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/agentrx/go-arx"
)

// stringList collects a repeatable string flag
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, FmtListSeparator)
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// sourceConfig holds the flags that decide where documents come from
type sourceConfig struct {
	searchDirs stringList
	dsn        string
	verbose    bool
}

// dataConfig holds the flags that supply data layers
type dataConfig struct {
	dataJSON     string
	dataFilePath string
	stdinData    bool
}

func (dc *dataConfig) register(fs *flag.FlagSet) {
	fs.StringVar(&dc.dataJSON, FlagData, "", "")
	fs.StringVar(&dc.dataJSON, FlagDataShort, "", "")
	fs.StringVar(&dc.dataFilePath, FlagDataFile, "", "")
	fs.StringVar(&dc.dataFilePath, FlagDataFileShort, "", "")
	fs.BoolVar(&dc.stdinData, FlagStdinData, false, "")
	fs.BoolVar(&dc.stdinData, FlagStdinDataShort, false, "")
}

// collectData adds the data file and inline JSON as primary layers and
// stdin JSON as the secondary layer. On failure it reports to stderr and
// returns the exit code.
func collectData(dc dataConfig, opts *arx.RenderOptions, stdin io.Reader, stderr io.Writer) int {
	if dc.dataFilePath != "" {
		data, err := arx.LoadDataFile(dc.dataFilePath)
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
			return ExitCodeInputError
		}
		opts.Primary = append(opts.Primary, data)
	}
	if dc.dataJSON != "" {
		data, err := arx.ParseDataJSON(arx.DefaultDataLabelInline, dc.dataJSON)
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidJSON, err)
			return ExitCodeInputError
		}
		opts.Primary = append(opts.Primary, data)
	}
	if dc.stdinData {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadStdinFailed, err)
			return ExitCodeInputError
		}
		data, err := arx.ParseDataJSON(arx.DefaultDataLabelStdin, string(raw))
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidJSON, err)
			return ExitCodeInputError
		}
		opts.Secondary = append(opts.Secondary, data)
	}
	return ExitCodeSuccess
}

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// writeOutput writes content to stdout, or atomically replaces a file
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput || path == "" {
		_, err := stdout.Write(data)
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

// templateDirs returns the flag directories followed by the directories
// named by the environment
func templateDirs(flagDirs []string) []string {
	dirs := append([]string(nil), flagDirs...)
	for _, env := range []string{EnvAgentTools, EnvAgentRxSource} {
		if root := os.Getenv(env); root != "" {
			dirs = append(dirs, filepath.Join(root, TemplatesSubdirName))
		}
	}
	return dirs
}

// newLogger returns a console logger on stderr when verbose, a no-op
// logger otherwise
func newLogger(verbose bool, stderr io.Writer) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(stderr),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

// openEngine builds an engine over the configured document source. The
// returned close function releases the source.
func openEngine(sc sourceConfig, logger *zap.Logger, opts ...arx.Option) (*arx.Engine, func(), error) {
	closeFn := func() {}

	var source arx.Source
	if sc.dsn != "" {
		cfg := arx.DefaultPostgresSourceConfig()
		cfg.ConnectionString = sc.dsn
		cfg.AutoMigrate = true
		cfg.Logger = logger
		store, err := arx.NewPostgresSource(cfg)
		if err != nil {
			return nil, closeFn, err
		}
		source = store
		closeFn = func() { _ = store.Close() }
	} else {
		source = arx.NewFileSource(templateDirs(sc.searchDirs)...).WithLogger(logger)
	}

	opts = append([]arx.Option{arx.WithLogger(logger), arx.WithSource(source)}, opts...)
	engine, err := arx.New(opts...)
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	return engine, closeFn, nil
}
