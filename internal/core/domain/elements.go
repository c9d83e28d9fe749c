package domain

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"maps"

	"golang.org/x/crypto/blake2b"
)

// ElementType is the semantic type of an Element.
type ElementType string

const (
	ElementTitle         ElementType = "title"
	ElementNarrativeText ElementType = "narrative_text"
	ElementHeading       ElementType = "heading"
	ElementListItem      ElementType = "list_item"
	ElementTable         ElementType = "table"
	ElementImage         ElementType = "image"
	ElementPageBreak     ElementType = "page_break"
	ElementCodeBlock     ElementType = "code_block"
	ElementBlockQuote    ElementType = "block_quote"
	ElementFooter        ElementType = "footer"
	ElementHeader        ElementType = "header"
)

// BoundingBox is an axis-aligned box in page coordinates.
type BoundingBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// ElementMetadata positions an element within its document.
type ElementMetadata struct {
	PageNumber   *int              `json:"page_number,omitempty"`
	Filename     *string           `json:"filename,omitempty"`
	Coordinates  *BoundingBox      `json:"coordinates,omitempty"`
	ElementIndex *int              `json:"element_index,omitempty"`
	ParentID     string            `json:"parent_id,omitempty"`
	Additional   map[string]string `json:"additional,omitempty"`
}

// Element is a semantic unit of the document used by the element-based result format.
type Element struct {
	ElementID   string          `json:"element_id"`
	ElementType ElementType     `json:"element_type"`
	Text        string          `json:"text"`
	Metadata    ElementMetadata `json:"metadata"`
}

func (e Element) clone() Element {
	out := e
	out.Metadata.PageNumber = cloneIntPtr(e.Metadata.PageNumber)
	out.Metadata.Filename = cloneStringPtr(e.Metadata.Filename)
	out.Metadata.ElementIndex = cloneIntPtr(e.Metadata.ElementIndex)
	if e.Metadata.Coordinates != nil {
		bb := *e.Metadata.Coordinates
		out.Metadata.Coordinates = &bb
	}
	out.Metadata.Additional = maps.Clone(e.Metadata.Additional)
	return out
}

// NewElementID derives a deterministic id from an element's content and position.
func NewElementID(elementType ElementType, text string, page, index int) string {
	h, _ := blake2b.New(16, nil)
	var buf [8]byte
	h.Write([]byte(elementType))
	h.Write([]byte{0})
	h.Write([]byte(text))
	h.Write([]byte{0})
	binary.BigEndian.PutUint64(buf[:], uint64(page))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(index))
	h.Write(buf[:])
	return hex.EncodeToString(h.Sum(nil))
}

// OcrLevel is the granularity of an OCR element.
type OcrLevel string

const (
	OcrLevelWord  OcrLevel = "word"
	OcrLevelLine  OcrLevel = "line"
	OcrLevelBlock OcrLevel = "block"
	OcrLevelPage  OcrLevel = "page"
)

// Rank orders levels from finest (word) to coarsest (page).
func (l OcrLevel) Rank() int {
	switch l {
	case OcrLevelPage:
		return 3
	case OcrLevelBlock:
		return 2
	case OcrLevelLine:
		return 1
	default:
		return 0
	}
}

// Valid reports whether l is a known level.
func (l OcrLevel) Valid() bool {
	switch l {
	case OcrLevelWord, OcrLevelLine, OcrLevelBlock, OcrLevelPage:
		return true
	}
	return false
}

// GeometryType distinguishes rectangle from quadrilateral geometry.
type GeometryType string

const (
	GeometryRectangle     GeometryType = "rectangle"
	GeometryQuadrilateral GeometryType = "quadrilateral"
)

// OcrGeometry is the bounding geometry of an OCR element. Rectangles use
// Left/Top/Width/Height; quadrilaterals use four Points.
type OcrGeometry struct {
	Type   GeometryType `json:"type"`
	Left   float64      `json:"left,omitempty"`
	Top    float64      `json:"top,omitempty"`
	Width  float64      `json:"width,omitempty"`
	Height float64      `json:"height,omitempty"`
	Points [][2]float64 `json:"points,omitempty"`
}

// OcrConfidence holds detection and recognition scores in [0, 1].
type OcrConfidence struct {
	Detection   *float64 `json:"detection,omitempty"`
	Recognition float64  `json:"recognition"`
}

// OcrRotation is the detected rotation of an element.
type OcrRotation struct {
	AngleDegrees float64  `json:"angle_degrees"`
	Confidence   *float64 `json:"confidence,omitempty"`
}

// OcrElement is a recognized text unit with geometry and confidence.
// ParentID references the ElementID of another element in the same result.
type OcrElement struct {
	ElementID       string                     `json:"element_id,omitempty"`
	Text            string                     `json:"text"`
	Geometry        OcrGeometry                `json:"geometry"`
	Confidence      OcrConfidence              `json:"confidence"`
	Level           OcrLevel                   `json:"level"`
	Rotation        *OcrRotation               `json:"rotation,omitempty"`
	PageNumber      int                        `json:"page_number"`
	ParentID        string                     `json:"parent_id,omitempty"`
	BackendMetadata map[string]json.RawMessage `json:"backend_metadata,omitempty"`
}

func cloneOcrElements(elements []OcrElement) []OcrElement {
	if elements == nil {
		return nil
	}
	out := make([]OcrElement, len(elements))
	for i, e := range elements {
		c := e
		c.Geometry.Points = cloneSlice(e.Geometry.Points)
		if e.Confidence.Detection != nil {
			d := *e.Confidence.Detection
			c.Confidence.Detection = &d
		}
		if e.Rotation != nil {
			rot := *e.Rotation
			if e.Rotation.Confidence != nil {
				rc := *e.Rotation.Confidence
				rot.Confidence = &rc
			}
			c.Rotation = &rot
		}
		if e.BackendMetadata != nil {
			c.BackendMetadata = make(map[string]json.RawMessage, len(e.BackendMetadata))
			for k, v := range e.BackendMetadata {
				c.BackendMetadata[k] = cloneSlice(v)
			}
		}
		out[i] = c
	}
	return out
}
