package arx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/itsatony/go-cuserr"

	"github.com/agentrx/go-arx/internal"
)

// Error message constants - every error message is a constant
const (
	// Parse errors
	ErrMsgMalformedFrontMatter = "malformed front matter"
	ErrMsgUnclosedFrontMatter  = "front matter is not closed"
	ErrMsgFrontMatterNotMap    = "front matter must be a mapping"
	ErrMsgInvalidInputSpec     = "invalid input declaration"
	ErrMsgInvalidTag           = "invalid tag"
	ErrMsgUnclosedBlock        = "unclosed block"
	ErrMsgUnmatchedClose       = "unmatched close marker"

	// Render errors
	ErrMsgMissingRequiredInput = "missing required inputs"
	ErrMsgIncludeCycle         = "include cycle"
	ErrMsgIncludeNotFound      = "include target not found"
	ErrMsgIncludeDepthExceeded = "maximum include depth exceeded"
	ErrMsgIncludeUnavailable   = "include is not available"
	ErrMsgUnresolvedVariable   = "unresolved variables"
	ErrMsgRenderFailed         = "render failed"

	// Augmentation errors
	ErrMsgAugmentationFailed = "context augmentation failed"
	ErrMsgAugmentEncode      = "cannot encode augmentation input"
	ErrMsgAugmentSpawn       = "cannot start augmentation script"
	ErrMsgAugmentExit        = "augmentation script exited with an error"
	ErrMsgAugmentTimeout     = "augmentation script timed out"
	ErrMsgAugmentOutput      = "augmentation output is not a JSON object"
	ErrMsgAugmenterFailed    = "augmenter returned an error"

	// Data errors
	ErrMsgInvalidData = "invalid data"
	ErrMsgDataRead    = "cannot read data file"
	ErrMsgDataDecode  = "cannot decode data"
	ErrMsgDataNotMap  = "data must be an object"
	ErrMsgDataHCLExpr = "cannot evaluate HCL attribute"

	// Source errors
	ErrMsgSource             = "document source error"
	ErrMsgSourceFailed       = "document source failed"
	ErrMsgSourceClosed       = "document source is closed"
	ErrMsgSourceConnection   = "cannot connect to document store"
	ErrMsgSourceMigration    = "document store migration failed"
	ErrMsgSourceInvalidName  = "invalid document name"
	ErrMsgSourceInvalidTable = "invalid table prefix"
	ErrMsgEmptyConnection    = "connection string cannot be empty"

	// Configuration errors
	ErrMsgInvalidConfig       = "invalid configuration"
	ErrMsgInvalidIncludeDepth = "maximum include depth cannot be negative"
	ErrMsgInvalidPhase        = "unknown render phase"
)

// Error code constants for categorization
const (
	ErrCodeParse   = "ARX_PARSE"
	ErrCodeRender  = "ARX_RENDER"
	ErrCodeContext = "ARX_CONTEXT"
	ErrCodeInclude = "ARX_INCLUDE"
	ErrCodeAugment = "ARX_AUGMENT"
	ErrCodeData    = "ARX_DATA"
	ErrCodeSource  = "ARX_SOURCE"
	ErrCodeConfig  = "ARX_CONFIG"
)

// Sentinel errors. Every error returned by this package wraps one of them,
// so callers can classify failures with errors.Is.
var (
	ErrMalformedFrontMatter = errors.New(ErrMsgMalformedFrontMatter)
	ErrInvalidTag           = errors.New(ErrMsgInvalidTag)
	ErrUnclosedBlock        = errors.New(ErrMsgUnclosedBlock)
	ErrUnmatchedClose       = errors.New(ErrMsgUnmatchedClose)
	ErrMissingRequiredInput = errors.New(ErrMsgMissingRequiredInput)
	ErrIncludeCycle         = errors.New(ErrMsgIncludeCycle)
	ErrIncludeNotFound      = errors.New(ErrMsgIncludeNotFound)
	ErrIncludeDepthExceeded = errors.New(ErrMsgIncludeDepthExceeded)
	ErrAugmentationFailed   = errors.New(ErrMsgAugmentationFailed)
	ErrUnresolvedVariable   = errors.New(ErrMsgUnresolvedVariable)
	ErrInvalidData          = errors.New(ErrMsgInvalidData)
	ErrSource               = errors.New(ErrMsgSource)
	ErrInvalidConfig        = errors.New(ErrMsgInvalidConfig)
)

// Position represents a location in a document
type Position = internal.Position

func detail(msg, extra string) string {
	if extra == "" {
		return msg
	}
	return fmt.Sprintf(internal.ErrFmtWithDetail, msg, extra)
}

// wrap builds a package error. msg carries the detail only: the sentinel's
// text and the cause's text follow it in Error(), and both stay reachable
// through errors.Is.
func wrap(sentinel error, code, msg string, cause error) *cuserr.CustomError {
	chain := sentinel
	if cause != nil {
		chain = fmt.Errorf(internal.ErrFmtCauseChain, sentinel, cause)
	}
	return cuserr.WrapStdError(chain, code, msg)
}

func withPosition(err *cuserr.CustomError, pos Position) *cuserr.CustomError {
	return err.
		WithMetadata(MetaKeyLine, strconv.Itoa(pos.Line)).
		WithMetadata(MetaKeyColumn, strconv.Itoa(pos.Column)).
		WithMetadata(MetaKeyOffset, strconv.Itoa(pos.Offset))
}

// NewMalformedFrontMatterError creates an error for front matter that is
// unterminated, not a mapping, or not valid YAML
func NewMalformedFrontMatterError(reason string, cause error) error {
	return wrap(ErrMalformedFrontMatter, ErrCodeParse, reason, cause).
		WithMetadata(MetaKeyReason, reason)
}

// NewInvalidTagError creates an error for a malformed tag
func NewInvalidTagError(reason, raw string, pos Position) error {
	msg := fmt.Sprintf(internal.ErrFmtWithRaw, reason, pos.String(), raw)
	return withPosition(wrap(ErrInvalidTag, ErrCodeParse, msg, nil), pos).
		WithMetadata(MetaKeyReason, reason).
		WithMetadata(MetaKeyRaw, raw)
}

// NewUnclosedBlockError creates an error naming the opening tag of a block
// that was never closed
func NewUnclosedBlockError(raw string, pos Position) error {
	msg := fmt.Sprintf(internal.ErrFmtRawAt, raw, pos.String())
	return withPosition(wrap(ErrUnclosedBlock, ErrCodeParse, msg, nil), pos).
		WithMetadata(MetaKeyRaw, raw)
}

// NewUnmatchedCloseError creates an error for a close marker with no open block
func NewUnmatchedCloseError(raw string, pos Position) error {
	msg := fmt.Sprintf(internal.ErrFmtRawAt, raw, pos.String())
	return withPosition(wrap(ErrUnmatchedClose, ErrCodeParse, msg, nil), pos).
		WithMetadata(MetaKeyRaw, raw)
}

// NewMissingRequiredInputError reports every missing input at once
func NewMissingRequiredInputError(names []string) error {
	joined := strings.Join(names, internal.ErrListSeparator)
	return wrap(ErrMissingRequiredInput, ErrCodeContext, joined, nil).
		WithMetadata(MetaKeyInputs, joined)
}

// NewIncludeCycleError reports the include chain that re-entered a document
func NewIncludeCycleError(stack []string, pos Position) error {
	chain := strings.Join(stack, internal.ErrChainSeparator)
	return withPosition(wrap(ErrIncludeCycle, ErrCodeInclude, chain, nil), pos).
		WithMetadata(MetaKeyStack, chain)
}

// NewIncludeNotFoundError reports a target no source could resolve
func NewIncludeNotFoundError(target, from string) error {
	err := wrap(ErrIncludeNotFound, ErrCodeInclude, target, nil).
		WithMetadata(MetaKeyTarget, target)
	if from != "" {
		err = err.WithMetadata(MetaKeyFrom, from)
	}
	return err
}

// NewIncludeDepthExceededError reports an include nested deeper than allowed
func NewIncludeDepthExceededError(target string, stack []string, pos Position) error {
	chain := strings.Join(stack, internal.ErrChainSeparator)
	return withPosition(wrap(ErrIncludeDepthExceeded, ErrCodeInclude, target, nil), pos).
		WithMetadata(MetaKeyTarget, target).
		WithMetadata(MetaKeyStack, chain)
}

// NewUnresolvedVariableError lists every unresolved path of a strict render.
// suggestions maps a path to similar known keys and may be nil.
func NewUnresolvedVariableError(paths []string, suggestions map[string][]string) error {
	joined := strings.Join(paths, internal.ErrListSeparator)
	msg := joined
	hints := internal.FormatHints(paths, suggestions)
	if hints != "" {
		msg = fmt.Sprintf(internal.ErrFmtWithHints, msg, hints)
	}
	err := wrap(ErrUnresolvedVariable, ErrCodeRender, msg, nil).
		WithMetadata(MetaKeyPaths, joined)
	if hints != "" {
		err = err.WithMetadata(MetaKeyHints, hints)
	}
	return err
}

// NewAugmentationError creates an error for a failed augmentation step.
// stderr is attached when the script produced any.
func NewAugmentationError(reason, stderr string, cause error) error {
	if reason == "" {
		reason = ErrMsgAugmenterFailed
	}
	err := wrap(ErrAugmentationFailed, ErrCodeAugment, reason, cause).
		WithMetadata(MetaKeyReason, reason)
	if stderr = strings.TrimSpace(stderr); stderr != "" {
		err = err.WithMetadata(MetaKeyStderr, stderr)
	}
	return err
}

// NewDataError creates an error for unreadable or undecodable context data
func NewDataError(reason, label string, cause error) error {
	return wrap(ErrInvalidData, ErrCodeData, detail(reason, label), cause).
		WithMetadata(MetaKeySource, label)
}

// NewSourceError creates an error for a failing document source
func NewSourceError(reason, name string, cause error) error {
	return wrap(ErrSource, ErrCodeSource, detail(reason, name), cause).
		WithMetadata(MetaKeyName, name)
}

// NewConfigError creates an error for an invalid engine or render setting
func NewConfigError(reason, value string) error {
	return wrap(ErrInvalidConfig, ErrCodeConfig, detail(reason, value), nil).
		WithMetadata(MetaKeyValue, value)
}

// fromInternalError converts lexer, parser and renderer failures into
// package errors. Anything else is returned unchanged.
func fromInternalError(err error) error {
	if err == nil {
		return nil
	}

	var lexErr *internal.LexerError
	if errors.As(err, &lexErr) {
		return NewInvalidTagError(lexErr.Message, lexErr.Raw, lexErr.Position)
	}

	var parseErr *internal.ParserError
	if errors.As(err, &parseErr) {
		switch parseErr.Kind {
		case internal.ParseErrorUnclosedBlock:
			return NewUnclosedBlockError(parseErr.Raw, parseErr.Position)
		case internal.ParseErrorUnmatchedClose:
			return NewUnmatchedCloseError(parseErr.Raw, parseErr.Position)
		default:
			return NewInvalidTagError(parseErr.Message, parseErr.Raw, parseErr.Position)
		}
	}

	var renderErr *internal.RenderError
	if errors.As(err, &renderErr) {
		switch renderErr.Kind {
		case internal.RenderErrorIncludeCycle:
			return NewIncludeCycleError(renderErr.Stack, renderErr.Position)
		case internal.RenderErrorIncludeDepth:
			return NewIncludeDepthExceededError(renderErr.Target, renderErr.Stack, renderErr.Position)
		case internal.RenderErrorUnresolved:
			return NewUnresolvedVariableError(renderErr.Paths, renderErr.Suggestions)
		case internal.RenderErrorMissingInput:
			return NewMissingRequiredInputError(renderErr.Paths)
		case internal.RenderErrorIncludeDisabled:
			return NewConfigError(ErrMsgIncludeUnavailable, renderErr.Target)
		default:
			return NewIncludeNotFoundError(renderErr.Target, "")
		}
	}

	return err
}
