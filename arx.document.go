package arx

import (
	"strings"

	"go.uber.org/zap"

	"github.com/agentrx/go-arx/internal"
)

// Document is a parsed template: front matter, body and block tree.
// Documents are immutable and safe to share between renders.
type Document struct {
	id          string
	source      string
	frontMatter *FrontMatter
	body        string
	root        *internal.RootNode
}

// ParseDocument parses source into a Document with the given identity.
// id may be empty for anonymous documents. Parse errors report positions
// within the whole source, front matter included.
func ParseDocument(id, source string) (*Document, error) {
	return parseDocument(id, source, nil)
}

func parseDocument(id, source string, logger *zap.Logger) (*Document, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fm, body, bodyStart, err := splitFrontMatter(source)
	if err != nil {
		return nil, err
	}

	base := Position{
		Offset: bodyStart,
		Line:   1 + strings.Count(source[:bodyStart], "\n"),
		Column: 1,
	}
	root, err := internal.ParseDocument(body, base, logger)
	if err != nil {
		return nil, fromInternalError(err)
	}

	logger.Debug(LogMsgDocumentParsed,
		zap.String(LogFieldDocument, id),
		zap.Int(LogFieldKeys, len(fm.meta)))

	return &Document{
		id:          id,
		source:      source,
		frontMatter: fm,
		body:        body,
		root:        root,
	}, nil
}

// ID returns the document identity, empty for anonymous documents
func (d *Document) ID() string { return d.id }

// Source returns the full document text
func (d *Document) Source() string { return d.source }

// Body returns the text after the front matter
func (d *Document) Body() string { return d.body }

// FrontMatter returns the parsed metadata block
func (d *Document) FrontMatter() *FrontMatter { return d.frontMatter }

// included adapts d for the renderer's include step
func (d *Document) included() *internal.IncludedDocument {
	return &internal.IncludedDocument{
		ID:       d.id,
		Root:     d.root,
		Defaults: internal.MapFromAny(d.frontMatter.Defaults()),
		Required: d.frontMatter.RequiredInputs(),
	}
}
