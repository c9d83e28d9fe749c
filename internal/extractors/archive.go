package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

var _ driven.DocumentExtractor = (*ZipExtractor)(nil)

// maxArchiveMemberSize caps the uncompressed bytes read from one member.
const maxArchiveMemberSize = 32 << 20

// ZipExtractor lists zip archives and extracts text-bearing members through
// the registry it was created with.
type ZipExtractor struct {
	registry driven.ExtractorRegistry
	logger   *slog.Logger
}

// NewZipExtractor creates a ZipExtractor dispatching members through registry.
// A nil registry lists members without extracting them.
func NewZipExtractor(registry driven.ExtractorRegistry, logger *slog.Logger) *ZipExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ZipExtractor{registry: registry, logger: logger.With("component", "zip_extractor")}
}

func (e *ZipExtractor) Name() string { return "zip" }

func (e *ZipExtractor) SupportedMimeTypes() []string {
	return []string{"application/zip", "application/x-zip-compressed"}
}

func (e *ZipExtractor) Priority() int {
	return 50 // Format-specific
}

func (e *ZipExtractor) Extract(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.NewParsingError("invalid zip archive", err)
	}

	meta := &domain.ArchiveMetadata{Format: "ZIP", FileList: []string{}}
	var compressed int64
	var parts []string
	tables := []domain.Table{}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() {
			continue
		}
		meta.FileCount++
		meta.FileList = append(meta.FileList, f.Name)
		meta.TotalSize += int64(f.UncompressedSize64)
		compressed += int64(f.CompressedSize64)

		member, err := e.member(ctx, f, cfg)
		if err != nil {
			e.logger.Debug("skipping archive member", "member", f.Name, "error", err)
			continue
		}
		if member == nil || member.Result == nil {
			continue
		}
		if text := strings.TrimSpace(member.Result.Content); text != "" {
			parts = append(parts, text)
		}
		tables = append(tables, member.Result.Tables...)
	}
	meta.CompressedSize = &compressed

	return &driven.Extraction{Result: &domain.ExtractionResult{
		Content:  strings.Join(parts, "\n\n"),
		MimeType: mimeType,
		Metadata: domain.Metadata{Format: meta},
		Tables:   tables,
	}}, nil
}

var errSkipMember = errors.New("member not extractable")

func (e *ZipExtractor) member(ctx context.Context, f *zip.File, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
	if e.registry == nil {
		return nil, errSkipMember
	}
	mime := MimeTypeFromExtension(f.Name)
	if !isTextLike(mime) {
		return nil, errSkipMember
	}
	if f.UncompressedSize64 > maxArchiveMemberSize {
		return nil, errSkipMember
	}

	extractor, err := e.registry.Get(mime)
	if err != nil {
		return nil, err
	}

	rc, err := f.Open()
	if err != nil {
		return nil, domain.NewIOError("open archive member", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, maxArchiveMemberSize))
	if err != nil {
		return nil, domain.NewIOError("read archive member", err)
	}
	return extractMember(ctx, extractor, raw, mime, cfg)
}

// extractMember turns a panicking member extractor into an error so the
// member is skipped.
func extractMember(ctx context.Context, extractor driven.DocumentExtractor, data []byte, mime string, cfg *domain.ExtractionConfig) (ext *driven.Extraction, err error) {
	defer domain.Recover(&err)
	return extractor.Extract(ctx, data, mime, cfg)
}

// isTextLike reports whether members of this type are extracted from
// archives. Nested archives and binary formats are listed only.
func isTextLike(mime string) bool {
	switch mime {
	case "text/plain", "text/markdown", "text/html", "application/xhtml+xml", "application/xml":
		return true
	}
	return false
}
