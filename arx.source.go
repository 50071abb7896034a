package arx

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// SourceDocument is raw document text with its resolved identity
type SourceDocument struct {
	ID      string
	Content string
}

// Source resolves a target name, relative to the identity of the requesting
// document (empty for top-level lookups), to a document. A miss fails with
// ErrIncludeNotFound.
type Source interface {
	Load(ctx context.Context, target, from string) (*SourceDocument, error)
}

// candidateNames returns target and, when it has no extension, target.md
func candidateNames(target string, ext func(string) string) []string {
	if ext(target) != "" {
		return []string{target}
	}
	return []string{target, target + DefaultDocumentFileExt}
}

// FileSource loads documents from the filesystem. Relative targets are
// tried against the requesting document's directory (or the working
// directory for top-level lookups) and then against each search directory.
type FileSource struct {
	searchDirs []string
	logger     *zap.Logger
}

// NewFileSource creates a filesystem source
func NewFileSource(searchDirs ...string) *FileSource {
	dirs := make([]string, 0, len(searchDirs))
	for _, dir := range searchDirs {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return &FileSource{searchDirs: dirs, logger: zap.NewNop()}
}

// WithLogger sets the logger
func (s *FileSource) WithLogger(logger *zap.Logger) *FileSource {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// SearchDirs returns the configured search directories
func (s *FileSource) SearchDirs() []string {
	return append([]string(nil), s.searchDirs...)
}

// Load implements Source
func (s *FileSource) Load(ctx context.Context, target, from string) (*SourceDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(target) == "" {
		return nil, NewIncludeNotFoundError(target, from)
	}
	s.logger.Debug(LogMsgSourceLookup, zap.String(LogFieldTarget, target), zap.String(LogFieldFrom, from))

	for _, base := range s.bases(target, from) {
		for _, candidate := range candidateNames(base, filepath.Ext) {
			info, err := os.Stat(candidate)
			if err != nil || info.IsDir() {
				continue
			}
			content, err := os.ReadFile(candidate)
			if err != nil {
				return nil, NewSourceError(ErrMsgSourceFailed, candidate, err)
			}
			id, err := filepath.Abs(candidate)
			if err != nil {
				id = candidate
			}
			return &SourceDocument{ID: filepath.Clean(id), Content: string(content)}, nil
		}
	}
	return nil, NewIncludeNotFoundError(target, from)
}

func (s *FileSource) bases(target, from string) []string {
	if filepath.IsAbs(target) {
		return []string{target}
	}
	var bases []string
	if from != "" && filepath.IsAbs(from) {
		bases = append(bases, filepath.Join(filepath.Dir(from), target))
	} else {
		bases = append(bases, target)
	}
	for _, dir := range s.searchDirs {
		bases = append(bases, filepath.Join(dir, target))
	}
	return bases
}

// MemorySource serves documents from an in-memory name → content map.
// Relative names are joined with the directory of the requesting document.
type MemorySource struct {
	mu   sync.RWMutex
	docs map[string]string
}

// NewMemorySource creates a memory source seeded with docs
func NewMemorySource(docs map[string]string) *MemorySource {
	s := &MemorySource{docs: make(map[string]string, len(docs))}
	for name, content := range docs {
		s.docs[normalizeName(name)] = content
	}
	return s
}

// Put stores or replaces a document
func (s *MemorySource) Put(name, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[normalizeName(name)] = content
}

// Delete removes a document and reports whether it existed
func (s *MemorySource) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = normalizeName(name)
	_, ok := s.docs[name]
	delete(s.docs, name)
	return ok
}

// Names returns the stored names in sorted order
func (s *MemorySource) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load implements Source
func (s *MemorySource) Load(ctx context.Context, target, from string) (*SourceDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, name := range relativeNames(target, from) {
		if content, ok := s.docs[name]; ok {
			return &SourceDocument{ID: name, Content: content}, nil
		}
	}
	return nil, NewIncludeNotFoundError(target, from)
}

// normalizeName maps a stored or requested name to the slash-separated
// form sources key documents by
func normalizeName(name string) string {
	return strings.TrimPrefix(path.Clean(name), "/")
}

// relativeNames lists the slash-separated names a target may refer to
// from a requesting document, most specific first. A leading slash anchors
// the target at the top level.
func relativeNames(target, from string) []string {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil
	}
	var bases []string
	if !strings.HasPrefix(target, "/") && from != "" {
		bases = append(bases, path.Join(path.Dir(from), target))
	}
	bases = append(bases, normalizeName(target))

	var names []string
	seen := make(map[string]bool)
	for _, base := range bases {
		for _, name := range candidateNames(base, path.Ext) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}
