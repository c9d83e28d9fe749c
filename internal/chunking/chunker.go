// Package chunking splits final content into overlapping, UTF-8 safe,
// byte-ranged chunks and optionally embeds them.
package chunking

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

var sentenceEnders = []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}

// Chunk splits content per cfg. Sizes and overlap count characters, offsets
// are bytes. Empty content yields nil.
func Chunk(content string, cfg domain.ChunkingConfig, boundaries []domain.PageBoundary) ([]domain.Chunk, error) {
	if cfg.MaxChars <= 0 {
		return nil, domain.NewValidationError(fmt.Sprintf("chunking max_chars must be positive, got %d", cfg.MaxChars))
	}
	if cfg.MaxOverlap < 0 || cfg.MaxOverlap >= cfg.MaxChars {
		return nil, domain.NewValidationError(fmt.Sprintf(
			"chunking max_overlap must be in [0, %d), got %d", cfg.MaxChars, cfg.MaxOverlap))
	}
	if content == "" {
		return nil, nil
	}

	c := newCutter(content)
	respect := cfg.RespectSentences || cfg.RespectParagraphs
	window := max(cfg.MaxChars/4, 1)

	var spans [][2]int
	start := 0
	for start < c.runes {
		end := min(start+cfg.MaxChars, c.runes)
		if end < c.runes && respect {
			if bp := c.findBreakPoint(max(start+1, end-window), end, cfg); bp > start {
				end = bp
			}
		}
		spans = append(spans, [2]int{start, end})
		if end >= c.runes {
			break
		}

		next := end - cfg.MaxOverlap
		if next <= start {
			next = end
		}
		start = next
	}

	chunks := make([]domain.Chunk, len(spans))
	for i, s := range spans {
		bs, be := c.offsets[s[0]], c.offsets[s[1]]
		chunks[i] = domain.Chunk{
			Content: content[bs:be],
			Metadata: domain.ChunkMetadata{
				ByteStart:   bs,
				ByteEnd:     be,
				ChunkIndex:  i,
				TotalChunks: len(spans),
			},
		}
		chunks[i].Metadata.FirstPage, chunks[i].Metadata.LastPage = pageRange(boundaries, bs, be)
	}
	return chunks, nil
}

// cutter indexes content by rune so every cut lands on a code point boundary.
type cutter struct {
	content string
	// offsets[i] is the byte offset of rune i; offsets[runes] == len(content).
	offsets []int
	runes   int
}

func newCutter(content string) *cutter {
	offsets := make([]int, 0, utf8.RuneCountInString(content)+1)
	for i := range content {
		offsets = append(offsets, i)
	}
	n := len(offsets)
	offsets = append(offsets, len(content))
	return &cutter{content: content, offsets: offsets, runes: n}
}

// findBreakPoint returns the rune index to cut at within [from, maxEnd],
// preferring paragraph, then sentence, then whitespace boundaries. It
// returns maxEnd when none is found.
func (c *cutter) findBreakPoint(from, maxEnd int, cfg domain.ChunkingConfig) int {
	if from >= maxEnd {
		return maxEnd
	}
	bs := c.offsets[from]
	search := c.content[bs:c.offsets[maxEnd]]

	if cfg.RespectParagraphs {
		if idx := strings.LastIndex(search, "\n\n"); idx != -1 {
			return c.runeAt(bs + idx + 2)
		}
	}

	if cfg.RespectSentences {
		best := -1
		for _, ender := range sentenceEnders {
			if idx := strings.LastIndex(search, ender); idx != -1 {
				best = max(best, idx+len(ender))
			}
		}
		if best > 0 {
			return c.runeAt(bs + best)
		}
	}

	if idx := strings.LastIndexFunc(search, unicode.IsSpace); idx != -1 {
		_, size := utf8.DecodeRuneInString(search[idx:])
		return c.runeAt(bs + idx + size)
	}
	return maxEnd
}

// runeAt maps a byte offset on a rune boundary back to its rune index.
func (c *cutter) runeAt(byteOffset int) int {
	lo, hi := 0, c.runes
	for lo < hi {
		mid := (lo + hi) / 2
		if c.offsets[mid] < byteOffset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// pageRange returns the lowest and highest page whose range intersects
// [start, end).
func pageRange(boundaries []domain.PageBoundary, start, end int) (*int, *int) {
	first, last := 0, 0
	for _, b := range boundaries {
		if b.ByteStart >= end || b.ByteEnd <= start {
			continue
		}
		if first == 0 || b.PageNumber < first {
			first = b.PageNumber
		}
		last = max(last, b.PageNumber)
	}
	if first == 0 {
		return nil, nil
	}
	return domain.IntPtr(first), domain.IntPtr(last)
}
