package domain

import (
	"strconv"
	"strings"
)

// RewriteContent applies fn to each page's byte range of the content and
// recomputes page boundaries and per-page content to match. Text between
// pages is kept as-is. Without page boundaries fn applies to the whole content.
func (r *ExtractionResult) RewriteContent(fn func(string) string) {
	pages := r.Metadata.Pages
	if pages == nil || len(pages.Boundaries) == 0 || !boundariesUsable(pages.Boundaries, len(r.Content)) {
		r.Content = fn(r.Content)
		if pages != nil {
			pages.Boundaries = nil
		}
		return
	}

	var sb strings.Builder
	sb.Grow(len(r.Content))
	rewritten := make(map[int]string, len(pages.Boundaries))
	prev := 0
	for i, b := range pages.Boundaries {
		sb.WriteString(r.Content[prev:b.ByteStart])
		segment := fn(r.Content[b.ByteStart:b.ByteEnd])
		start := sb.Len()
		sb.WriteString(segment)
		pages.Boundaries[i].ByteStart = start
		pages.Boundaries[i].ByteEnd = sb.Len()
		rewritten[b.PageNumber] = segment
		prev = b.ByteEnd
	}
	sb.WriteString(r.Content[prev:])
	r.Content = sb.String()

	for i := range r.Pages {
		if segment, ok := rewritten[r.Pages[i].PageNumber]; ok {
			r.Pages[i].Content = segment
		}
	}
}

// boundariesUsable reports whether boundaries are ordered, non-overlapping
// and inside content.
func boundariesUsable(boundaries []PageBoundary, contentLen int) bool {
	prev := 0
	for _, b := range boundaries {
		if b.ByteStart < prev || b.ByteEnd < b.ByteStart || b.ByteEnd > contentLen {
			return false
		}
		prev = b.ByteEnd
	}
	return true
}

// PageSeparator joins pages when no page markers are inserted.
const PageSeparator = "\n\n"

// PageMarker renders the marker that precedes pageNumber.
func (c *PageConfig) PageMarker(pageNumber int) string {
	format := c.MarkerFormat
	if format == "" {
		format = DefaultPageMarkerFormat
	}
	return strings.ReplaceAll(format, "{page_num}", strconv.Itoa(pageNumber))
}

// AssemblePages concatenates page contents and returns the content with the
// byte range of every page. With page markers enabled a marker precedes each
// page, the first included; otherwise pages are joined by PageSeparator.
// Boundaries never cover markers or separators.
func AssemblePages(pages []PageContent, cfg *PageConfig) (string, []PageBoundary) {
	markers := cfg != nil && cfg.InsertPageMarkers

	var sb strings.Builder
	boundaries := make([]PageBoundary, 0, len(pages))
	for i, p := range pages {
		switch {
		case markers:
			sb.WriteString(cfg.PageMarker(p.PageNumber))
		case i > 0:
			sb.WriteString(PageSeparator)
		}
		start := sb.Len()
		sb.WriteString(p.Content)
		boundaries = append(boundaries, PageBoundary{ByteStart: start, ByteEnd: sb.Len(), PageNumber: p.PageNumber})
	}
	return sb.String(), boundaries
}
