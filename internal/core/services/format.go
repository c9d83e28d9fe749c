package services

import (
	"fmt"
	"html"
	"regexp"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

var (
	mdStrongStar  = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	mdStrongUnder = regexp.MustCompile(`__([^_\n]+)__`)
	mdEmphasis    = regexp.MustCompile(`\*([^*\n]+)\*`)
	strongMarker  = regexp.MustCompile("\x00([^\x00]*)\x00")
)

// markupMimeTypes produce markdown content.
var markupMimeTypes = map[string]bool{
	"text/markdown":         true,
	"text/x-markdown":       true,
	"text/html":             true,
	"application/xhtml+xml": true,
}

// applyOutputFormat converts the content in place. Plain and markdown leave
// the content as extracted. Page boundaries follow the rewritten content.
func applyOutputFormat(result *domain.ExtractionResult, format domain.OutputFormat) error {
	switch format {
	case "", domain.OutputPlain, domain.OutputMarkdown:
		return nil
	case domain.OutputDjot:
		if markupMimeTypes[result.MimeType] {
			result.RewriteContent(markdownToDjot)
		}
		return nil
	case domain.OutputHTML:
		result.RewriteContent(html.EscapeString)
		wrapContent(result, "<pre>", "</pre>")
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// markdownToDjot rewrites the inline emphasis that differs between the two
// syntaxes: **strong** becomes *strong* and *emphasis* becomes _emphasis_.
func markdownToDjot(s string) string {
	s = mdStrongStar.ReplaceAllString(s, "\x00$1\x00")
	s = mdStrongUnder.ReplaceAllString(s, "\x00$1\x00")
	s = mdEmphasis.ReplaceAllString(s, "_${1}_")
	return strongMarker.ReplaceAllString(s, "*$1*")
}

// wrapContent surrounds the content and shifts page boundaries.
func wrapContent(result *domain.ExtractionResult, prefix, suffix string) {
	result.Content = prefix + result.Content + suffix
	if pages := result.Metadata.Pages; pages != nil {
		for i := range pages.Boundaries {
			pages.Boundaries[i].ByteStart += len(prefix)
			pages.Boundaries[i].ByteEnd += len(prefix)
		}
	}
}
