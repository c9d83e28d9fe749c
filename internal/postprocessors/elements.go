package postprocessors

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.StagedPostProcessor = (*ElementBuilder)(nil)

// ElementBuilder splits content into semantic elements for the
// element_based result format.
type ElementBuilder struct{}

// NewElementBuilder creates a new element builder.
func NewElementBuilder() *ElementBuilder {
	return &ElementBuilder{}
}

func (e *ElementBuilder) Name() string { return "elements" }

func (e *ElementBuilder) ProcessingStage() driven.ProcessingStage { return driven.StageLate }

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})[ \t]+(.+)$`)
	listItemRe = regexp.MustCompile(`^([-*+]|\d+[.)])[ \t]+`)
	markerRe   = regexp.MustCompile(`^<!--\s*PAGE\s+\d+\s*-->$`)
)

func (e *ElementBuilder) Process(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) (*domain.ExtractionResult, error) {
	if cfg == nil || cfg.ResultFormat != domain.ResultElementBased {
		return result, nil
	}

	var boundaries []domain.PageBoundary
	if result.Metadata.Pages != nil {
		boundaries = result.Metadata.Pages.Boundaries
	}

	var elements []domain.Element
	add := func(t domain.ElementType, text string, page int) {
		idx := len(elements)
		el := domain.Element{
			ElementID:   domain.NewElementID(t, text, page, idx),
			ElementType: t,
			Text:        text,
			Metadata:    domain.ElementMetadata{ElementIndex: domain.IntPtr(idx)},
		}
		if page > 0 {
			el.Metadata.PageNumber = domain.IntPtr(page)
		}
		elements = append(elements, el)
	}

	titleSeen := false
	lastPage := 0
	for _, blk := range splitBlocks(result.Content) {
		page := pageAt(boundaries, blk.offset)
		if page == 0 && len(boundaries) > 0 {
			page = lastPage
		}
		if lastPage != 0 && page > lastPage {
			add(domain.ElementPageBreak, "", page)
		}
		if page > 0 {
			lastPage = page
		}

		text := blk.text
		switch {
		case markerRe.MatchString(text):
			continue
		case strings.HasPrefix(text, "```"):
			add(domain.ElementCodeBlock, codeBody(text), page)
		case headingRe.MatchString(text) && !strings.Contains(text, "\n"):
			m := headingRe.FindStringSubmatch(text)
			if len(m[1]) == 1 && !titleSeen {
				titleSeen = true
				add(domain.ElementTitle, m[2], page)
			} else {
				add(domain.ElementHeading, m[2], page)
			}
		case strings.HasPrefix(text, "|"):
			add(domain.ElementTable, text, page)
		case strings.HasPrefix(text, ">"):
			add(domain.ElementBlockQuote, strings.TrimSpace(stripQuote(text)), page)
		case listItemRe.MatchString(text):
			for _, line := range strings.Split(text, "\n") {
				if item := listItemRe.ReplaceAllString(strings.TrimSpace(line), ""); item != "" {
					add(domain.ElementListItem, item, page)
				}
			}
		default:
			add(domain.ElementNarrativeText, text, page)
		}
	}

	for _, img := range result.Images {
		page := 0
		if img.PageNumber != nil {
			page = *img.PageNumber
		}
		text := ""
		if img.OcrResult != nil {
			text = img.OcrResult.Content
		}
		add(domain.ElementImage, text, page)
	}

	result.Elements = elements
	return result, nil
}

type block struct {
	text   string
	offset int
}

// splitBlocks splits content on blank lines, keeping fenced code blocks whole.
func splitBlocks(content string) []block {
	var blocks []block
	var cur strings.Builder
	start, offset := -1, 0
	inFence := false

	flush := func() {
		if text := strings.TrimSpace(cur.String()); text != "" {
			blocks = append(blocks, block{text: text, offset: start})
		}
		cur.Reset()
		start = -1
	}

	for _, line := range strings.SplitAfter(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}
		if trimmed == "" && !inFence {
			flush()
		} else {
			if start < 0 {
				start = offset
			}
			cur.WriteString(line)
		}
		offset += len(line)
	}
	flush()
	return blocks
}

// pageAt returns the page whose byte range contains offset, or 0.
func pageAt(boundaries []domain.PageBoundary, offset int) int {
	for _, b := range boundaries {
		if offset >= b.ByteStart && offset < b.ByteEnd {
			return b.PageNumber
		}
	}
	return 0
}

func stripQuote(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(strings.TrimPrefix(line, ">"), " ")
	}
	return strings.Join(lines, "\n")
}

// codeBody drops the opening and closing fences of a fenced block.
func codeBody(text string) string {
	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.HasPrefix(strings.TrimSpace(lines[n-1]), "```") {
		lines = lines[:n-1]
	}
	return strings.Join(lines, "\n")
}
