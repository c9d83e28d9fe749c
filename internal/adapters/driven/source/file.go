// Package source fetches documents from local paths, HTTP(S) URLs and S3
// objects for file-based extraction.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// DefaultMaxBytes caps a fetched document at 256 MiB.
const DefaultMaxBytes int64 = 256 << 20

// Verify interface compliance
var _ driven.DocumentSource = (*FileSource)(nil)

// FileSource reads local paths and file:// URIs. It supports any location
// without a URL scheme, so register it last.
type FileSource struct {
	maxBytes int64
}

// NewFileSource creates a local file source. maxBytes <= 0 uses DefaultMaxBytes.
func NewFileSource(maxBytes int64) *FileSource {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &FileSource{maxBytes: maxBytes}
}

func (s *FileSource) Supports(location string) bool {
	if strings.HasPrefix(location, "file://") {
		return true
	}
	return location != "" && !strings.Contains(location, "://")
}

// Fetch reads the file. Missing files map to domain.ErrNotFound.
func (s *FileSource) Fetch(ctx context.Context, location string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	path := strings.TrimPrefix(location, "file://")

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", domain.NewIOError(fmt.Sprintf("file not found: %s", path), domain.ErrNotFound)
		}
		return nil, "", domain.NewIOError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, "", domain.NewIOError(fmt.Sprintf("failed to stat %s", path), err)
	}
	if info.IsDir() {
		return nil, "", domain.NewIOError(fmt.Sprintf("%s is a directory", path), nil)
	}

	data, err := readLimited(f, s.maxBytes, path)
	if err != nil {
		return nil, "", err
	}
	return data, "", nil
}

// readLimited reads at most limit bytes and fails when r holds more.
func readLimited(r io.Reader, limit int64, location string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, domain.NewIOError(fmt.Sprintf("failed to read %s", location), err)
	}
	if int64(len(data)) > limit {
		return nil, domain.NewIOError(fmt.Sprintf("%s exceeds %d bytes", location, limit), nil)
	}
	return data, nil
}
