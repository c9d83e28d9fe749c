//go:build tesseract

package tesseract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-extract/internal/extractors"
)

// Available reports whether the binary was built with Tesseract.
const Available = true

// ProcessImage recognises text in one image with a dedicated client.
func (b *Backend) ProcessImage(ctx context.Context, image []byte, req driven.OcrRequest) (*driven.OcrRawResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lang, tc := resolve(req)
	if !b.supports(lang) {
		return nil, domain.NewValidationError(fmt.Sprintf("unsupported tesseract language %q", lang))
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		return nil, domain.NewOCRError("failed to set language", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(tc.PSM)); err != nil {
		return nil, domain.NewOCRError("failed to set page segmentation mode", err)
	}
	if tc.CharWhitelist != "" {
		if err := client.SetWhitelist(tc.CharWhitelist); err != nil {
			return nil, domain.NewOCRError("failed to set whitelist", err)
		}
	}
	if err := client.SetVariable("preserve_interword_spaces", boolVar(tc.PreserveSpaces)); err != nil {
		return nil, domain.NewOCRError("failed to set preserve_interword_spaces", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, domain.NewOCRError("failed to load image", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, domain.NewOCRError("tesseract recognition failed", err)
	}

	out := &driven.OcrRawResult{Content: strings.TrimSpace(text)}

	if req.Config != nil && req.Config.ElementConfig != nil && req.Config.ElementConfig.IncludeElements {
		elements, err := b.elements(client, req.PageNumber)
		if err != nil {
			return nil, err
		}
		out.Elements = elements
	}

	if tc.EnableTableDetection {
		if cells := tableFromLines(out.Content); len(cells) > 1 {
			out.Tables = []domain.Table{{Cells: cells, Markdown: extractors.TableMarkdown(cells), PageNumber: req.PageNumber}}
		}
	}

	out.Metadata = metadata(lang, tc, len(out.Tables))
	return out, nil
}

// elements returns line and word boxes. Words are linked to the line whose
// box contains them.
func (b *Backend) elements(client *gosseract.Client, page int) ([]domain.OcrElement, error) {
	lines, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, domain.NewOCRError("failed to read line boxes", err)
	}
	words, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, domain.NewOCRError("failed to read word boxes", err)
	}

	elements := make([]domain.OcrElement, 0, len(lines)+len(words))
	for i, l := range lines {
		elements = append(elements, boxElement(l, domain.OcrLevelLine, page, "line-"+strconv.Itoa(i), ""))
	}
	for i, w := range words {
		parent := ""
		for j, l := range lines {
			if w.Box.In(l.Box) {
				parent = "line-" + strconv.Itoa(j)
				break
			}
		}
		elements = append(elements, boxElement(w, domain.OcrLevelWord, page, "word-"+strconv.Itoa(i), parent))
	}
	return elements, nil
}

func boxElement(box gosseract.BoundingBox, level domain.OcrLevel, page int, id, parent string) domain.OcrElement {
	return domain.OcrElement{
		ElementID: id,
		Text:      strings.TrimSpace(box.Word),
		Geometry: domain.OcrGeometry{
			Type:   domain.GeometryRectangle,
			Left:   float64(box.Box.Min.X),
			Top:    float64(box.Box.Min.Y),
			Width:  float64(box.Box.Dx()),
			Height: float64(box.Box.Dy()),
		},
		Confidence: domain.OcrConfidence{Recognition: box.Confidence / 100},
		Level:      level,
		PageNumber: page,
		ParentID:   parent,
	}
}

// tableFromLines splits lines on runs of two or more spaces, keeping the
// rows that agree with the first row's column count.
func tableFromLines(text string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		cols := splitColumns(line)
		if len(cols) < 2 {
			continue
		}
		if len(rows) > 0 && len(cols) != len(rows[0]) {
			continue
		}
		rows = append(rows, cols)
	}
	return rows
}

func splitColumns(line string) []string {
	var cols []string
	for _, part := range strings.Split(strings.TrimSpace(line), "  ") {
		if p := strings.TrimSpace(part); p != "" {
			cols = append(cols, p)
		}
	}
	return cols
}

func boolVar(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
