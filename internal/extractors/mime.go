package extractors

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var extensionMimeTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".log":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".xhtml":    "application/xhtml+xml",
	".xml":      "application/xml",
	".pdf":      "application/pdf",
	".png":      "image/png",
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".gif":      "image/gif",
	".tif":      "image/tiff",
	".tiff":     "image/tiff",
	".bmp":      "image/bmp",
	".webp":     "image/webp",
	".zip":      "application/zip",
}

// MimeTypeFromExtension returns the MIME type for a file name's extension,
// or "" when the extension is unknown.
func MimeTypeFromExtension(name string) string {
	return extensionMimeTypes[strings.ToLower(filepath.Ext(name))]
}

// DetectMimeType resolves the MIME type of a document. A known extension on
// name wins; otherwise the content is sniffed.
func DetectMimeType(data []byte, name string) string {
	if name != "" {
		if mt := MimeTypeFromExtension(name); mt != "" {
			return mt
		}
	}
	detected := NormalizeMimeType(mimetype.Detect(data).String())
	if detected == "text/xml" {
		return "application/xml"
	}
	return detected
}
