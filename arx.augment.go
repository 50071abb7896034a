package arx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// Augmenter computes the augmentation layer from the merged
// pre-augmentation context. Its output overrides every other layer.
type Augmenter interface {
	Augment(ctx context.Context, data map[string]any) (map[string]any, error)
}

// AugmenterFunc adapts a function to the Augmenter interface
type AugmenterFunc func(ctx context.Context, data map[string]any) (map[string]any, error)

// Augment calls f
func (f AugmenterFunc) Augment(ctx context.Context, data map[string]any) (map[string]any, error) {
	return f(ctx, data)
}

// ScriptAugmenter runs an external program with the JSON-encoded context on
// stdin and reads one JSON object from its stdout.
type ScriptAugmenter struct {
	command string
	args    []string
	dir     string
	timeout time.Duration
	logger  *zap.Logger
}

// ScriptOption configures a ScriptAugmenter
type ScriptOption func(*ScriptAugmenter)

// WithScriptArgs sets extra arguments passed to the program
func WithScriptArgs(args ...string) ScriptOption {
	return func(s *ScriptAugmenter) { s.args = args }
}

// WithScriptDir sets the working directory of the program
func WithScriptDir(dir string) ScriptOption {
	return func(s *ScriptAugmenter) { s.dir = dir }
}

// WithScriptTimeoutOption bounds the program's run time
func WithScriptTimeoutOption(d time.Duration) ScriptOption {
	return func(s *ScriptAugmenter) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithScriptLogger sets the logger
func WithScriptLogger(logger *zap.Logger) ScriptOption {
	return func(s *ScriptAugmenter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScriptAugmenter creates an augmenter that executes command
func NewScriptAugmenter(command string, opts ...ScriptOption) *ScriptAugmenter {
	s := &ScriptAugmenter{
		command: command,
		timeout: DefaultScriptTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Command returns the program path
func (s *ScriptAugmenter) Command() string { return s.command }

// Augment runs the program. A non-zero exit, a spawn failure, a timeout or
// output that is not a JSON object fails with ErrAugmentationFailed.
func (s *ScriptAugmenter) Augment(ctx context.Context, data map[string]any) (map[string]any, error) {
	if data == nil {
		data = make(map[string]any)
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, NewAugmentationError(ErrMsgAugmentEncode, "", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.command, s.args...)
	cmd.Dir = s.dir
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.logger.Debug(LogMsgAugmentStart, zap.String(LogFieldScript, s.command))
	started := time.Now()
	err = cmd.Run()
	s.logger.Debug(LogMsgAugmentDone,
		zap.String(LogFieldScript, s.command),
		zap.Duration(LogFieldDuration, time.Since(started)))

	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, NewAugmentationError(ErrMsgAugmentTimeout, stderr.String(), err)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, NewAugmentationError(ErrMsgAugmentExit, stderr.String(), err)
		}
		return nil, NewAugmentationError(ErrMsgAugmentSpawn, stderr.String(), err)
	}

	var out map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &out); err != nil {
		return nil, NewAugmentationError(ErrMsgAugmentOutput, stderr.String(), err)
	}
	if out == nil {
		return nil, NewAugmentationError(ErrMsgAugmentOutput, stderr.String(), nil)
	}
	return out, nil
}
