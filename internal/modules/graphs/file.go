package graphs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aristath/qdo/internal/modules/graph"
)

// MaxDocumentBytes caps how much of a graph file or object is read.
const MaxDocumentBytes int64 = 1 << 20

// FileSource reads graph documents from the local filesystem. Relative paths are
// resolved against BaseDir.
//
// A confined source only opens relative paths that stay inside BaseDir, symlinks
// included, and never echoes decoder output. Use it for references that come from
// API callers.
type FileSource struct {
	BaseDir  string
	confined bool
}

// NewFileSource creates a file source rooted at baseDir ("" means the working directory).
// Absolute paths are read as given.
func NewFileSource(baseDir string) *FileSource {
	return &FileSource{BaseDir: baseDir}
}

// NewConfinedFileSource creates a file source that cannot read outside root.
func NewConfinedFileSource(root string) *FileSource {
	return &FileSource{BaseDir: root, confined: true}
}

// Confined reports whether the source rejects paths outside BaseDir.
func (f *FileSource) Confined() bool {
	return f.confined
}

// Resolve returns the path a reference points at.
func (f *FileSource) Resolve(path string) string {
	if filepath.IsAbs(path) || f.BaseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(f.BaseDir, path)
}

// ReadDocument reads and decodes the document at path.
func (f *FileSource) ReadDocument(path string) (Document, error) {
	file, name, err := f.open(path)
	if err != nil {
		return Document{}, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Document{}, fmt.Errorf("stat graph file %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return Document{}, fmt.Errorf("%w: %s is not a regular file", ErrSourceNotAllowed, name)
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxDocumentBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("read graph file %s: %w", name, err)
	}
	if int64(len(data)) > MaxDocumentBytes {
		return Document{}, graph.NewInvalidGraphError("%s is larger than %d bytes", name, MaxDocumentBytes)
	}

	format := FormatFromPath(name)
	doc, err := Decode(data, format)
	if err != nil && f.confined {
		return Document{}, graph.NewInvalidGraphError("%s is not a valid %s graph document", name, format)
	}
	return doc, err
}

// open returns the file together with the name errors should report.
// Confined sources report the reference, not the server-side path.
func (f *FileSource) open(path string) (*os.File, string, error) {
	if !f.confined {
		full := f.Resolve(path)
		file, err := os.Open(full)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, full, &NotFoundError{Source: full, Err: err}
			}
			return nil, full, fmt.Errorf("read graph file %s: %w", full, err)
		}
		return file, full, nil
	}

	if filepath.IsAbs(path) || !filepath.IsLocal(path) {
		return nil, path, fmt.Errorf("%w: %q must be a relative path inside the graph directory", ErrSourceNotAllowed, path)
	}
	file, err := os.OpenInRoot(f.BaseDir, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, path, &NotFoundError{Source: path}
		}
		return nil, path, fmt.Errorf("%w: %q cannot be opened inside the graph directory", ErrSourceNotAllowed, path)
	}
	return file, path, nil
}

// Load reads the document at path and builds the graph.
func (f *FileSource) Load(ctx context.Context, path string) (*graph.WeightedGraph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := f.ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return doc.Graph()
}
