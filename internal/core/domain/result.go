package domain

// ExtractionResult is the output of extracting one document.
// Optional collections are nil when the feature did not run.
type ExtractionResult struct {
	Content           string           `json:"content"`
	MimeType          string           `json:"mime_type"`
	Metadata          Metadata         `json:"metadata"`
	Tables            []Table          `json:"tables"`
	DetectedLanguages []string         `json:"detected_languages,omitempty"`
	Chunks            []Chunk          `json:"chunks,omitempty"`
	Images            []ExtractedImage `json:"images,omitempty"`
	Pages             []PageContent    `json:"pages,omitempty"`
	Keywords          []Keyword        `json:"keywords,omitempty"`
	Elements          []Element        `json:"elements,omitempty"`
	OcrElements       []OcrElement     `json:"ocr_elements,omitempty"`
}

// Table is a detected table. Cells are row-major.
type Table struct {
	Cells      [][]string `json:"cells"`
	Markdown   string     `json:"markdown"`
	PageNumber int        `json:"page_number"`
}

// Chunk is a byte-ranged slice of the final content.
type Chunk struct {
	Content   string        `json:"content"`
	Embedding []float32     `json:"embedding,omitempty"`
	Metadata  ChunkMetadata `json:"metadata"`
}

// ChunkMetadata locates a chunk within the content it was cut from.
// ByteStart and ByteEnd are UTF-8 boundaries of the final content.
type ChunkMetadata struct {
	ByteStart   int  `json:"byte_start"`
	ByteEnd     int  `json:"byte_end"`
	TokenCount  *int `json:"token_count,omitempty"`
	ChunkIndex  int  `json:"chunk_index"`
	TotalChunks int  `json:"total_chunks"`
	FirstPage   *int `json:"first_page,omitempty"`
	LastPage    *int `json:"last_page,omitempty"`
}

// ExtractedImage is an image found inside a document. OcrResult, when set,
// is owned by the image and never points back to the containing result.
type ExtractedImage struct {
	Data             []byte            `json:"data"`
	Format           string            `json:"format"`
	ImageIndex       int               `json:"image_index"`
	PageNumber       *int              `json:"page_number,omitempty"`
	Width            *int              `json:"width,omitempty"`
	Height           *int              `json:"height,omitempty"`
	Colorspace       *string           `json:"colorspace,omitempty"`
	BitsPerComponent *int              `json:"bits_per_component,omitempty"`
	IsMask           bool              `json:"is_mask"`
	Description      *string           `json:"description,omitempty"`
	OcrResult        *ExtractionResult `json:"ocr_result,omitempty"`
}

// PageContent is the content of a single page, slide or sheet.
type PageContent struct {
	PageNumber int              `json:"page_number"`
	Content    string           `json:"content"`
	Tables     []Table          `json:"tables"`
	Images     []ExtractedImage `json:"images"`
}

// Keyword is an extracted keyword or keyphrase.
type Keyword struct {
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	Algorithm string  `json:"algorithm"`
	Positions []int   `json:"positions,omitempty"`
}

// CacheStats summarises the result cache.
type CacheStats struct {
	TotalEntries   uint64 `json:"total_entries"`
	TotalSizeBytes uint64 `json:"total_size_bytes"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}

// Clone returns a deep copy of the result.
func (r *ExtractionResult) Clone() *ExtractionResult {
	if r == nil {
		return nil
	}
	out := &ExtractionResult{
		Content:           r.Content,
		MimeType:          r.MimeType,
		Metadata:          r.Metadata.Clone(),
		Tables:            cloneTables(r.Tables),
		DetectedLanguages: cloneSlice(r.DetectedLanguages),
		Images:            cloneImages(r.Images),
		OcrElements:       cloneOcrElements(r.OcrElements),
	}
	if r.Chunks != nil {
		out.Chunks = make([]Chunk, len(r.Chunks))
		for i, c := range r.Chunks {
			out.Chunks[i] = Chunk{
				Content:   c.Content,
				Embedding: cloneSlice(c.Embedding),
				Metadata: ChunkMetadata{
					ByteStart:   c.Metadata.ByteStart,
					ByteEnd:     c.Metadata.ByteEnd,
					TokenCount:  cloneIntPtr(c.Metadata.TokenCount),
					ChunkIndex:  c.Metadata.ChunkIndex,
					TotalChunks: c.Metadata.TotalChunks,
					FirstPage:   cloneIntPtr(c.Metadata.FirstPage),
					LastPage:    cloneIntPtr(c.Metadata.LastPage),
				},
			}
		}
	}
	if r.Pages != nil {
		out.Pages = make([]PageContent, len(r.Pages))
		for i, p := range r.Pages {
			out.Pages[i] = PageContent{
				PageNumber: p.PageNumber,
				Content:    p.Content,
				Tables:     cloneTables(p.Tables),
				Images:     cloneImages(p.Images),
			}
		}
	}
	if r.Keywords != nil {
		out.Keywords = make([]Keyword, len(r.Keywords))
		for i, k := range r.Keywords {
			k.Positions = cloneSlice(k.Positions)
			out.Keywords[i] = k
		}
	}
	if r.Elements != nil {
		out.Elements = make([]Element, len(r.Elements))
		for i, e := range r.Elements {
			out.Elements[i] = e.clone()
		}
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTables(tables []Table) []Table {
	if tables == nil {
		return nil
	}
	out := make([]Table, len(tables))
	for i, t := range tables {
		cells := make([][]string, len(t.Cells))
		for j, row := range t.Cells {
			cells[j] = cloneSlice(row)
		}
		out[i] = Table{Cells: cells, Markdown: t.Markdown, PageNumber: t.PageNumber}
	}
	return out
}

func cloneImages(images []ExtractedImage) []ExtractedImage {
	if images == nil {
		return nil
	}
	out := make([]ExtractedImage, len(images))
	for i, img := range images {
		out[i] = ExtractedImage{
			Data:             cloneSlice(img.Data),
			Format:           img.Format,
			ImageIndex:       img.ImageIndex,
			PageNumber:       cloneIntPtr(img.PageNumber),
			Width:            cloneIntPtr(img.Width),
			Height:           cloneIntPtr(img.Height),
			Colorspace:       cloneStringPtr(img.Colorspace),
			BitsPerComponent: cloneIntPtr(img.BitsPerComponent),
			IsMask:           img.IsMask,
			Description:      cloneStringPtr(img.Description),
			OcrResult:        img.OcrResult.Clone(),
		}
	}
	return out
}
