package domain

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"strings"
	"sync"
)

// FormatType discriminates the format-specific metadata variant.
type FormatType string

const (
	FormatPDF     FormatType = "pdf"
	FormatExcel   FormatType = "excel"
	FormatEmail   FormatType = "email"
	FormatPptx    FormatType = "pptx"
	FormatArchive FormatType = "archive"
	FormatImage   FormatType = "image"
	FormatXML     FormatType = "xml"
	FormatText    FormatType = "text"
	FormatHTML    FormatType = "html"
	FormatOCR     FormatType = "ocr"
)

// FormatMetadata is implemented by each format-specific metadata variant.
type FormatMetadata interface {
	FormatType() FormatType
}

// Metadata holds fields common to all formats plus at most one format variant.
// It serializes to a single flat JSON object with a format_type discriminator.
type Metadata struct {
	Title              *string                     `json:"title,omitempty"`
	Subject            *string                     `json:"subject,omitempty"`
	Authors            []string                    `json:"authors,omitempty"`
	Keywords           []string                    `json:"keywords,omitempty"`
	Language           *string                     `json:"language,omitempty"`
	Date               *string                     `json:"date,omitempty"`
	CreatedAt          *string                     `json:"created_at,omitempty"`
	ModifiedAt         *string                     `json:"modified_at,omitempty"`
	CreatedBy          *string                     `json:"created_by,omitempty"`
	ModifiedBy         *string                     `json:"modified_by,omitempty"`
	Pages              *PageStructure              `json:"pages,omitempty"`
	ImagePreprocessing *ImagePreprocessingMetadata `json:"image_preprocessing,omitempty"`
	Error              *ErrorMetadata              `json:"error,omitempty"`

	// Format is the active variant, nil when the format carries no extra fields.
	Format FormatMetadata `json:"-"`

	// Additional holds keys outside the common and variant fields.
	Additional map[string]any `json:"-"`
}

// ErrorMetadata describes a failed document in batch results.
type ErrorMetadata struct {
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
}

// PageUnitType names what a "page" is for a format.
type PageUnitType string

const (
	PageUnitPage  PageUnitType = "page"
	PageUnitSlide PageUnitType = "slide"
	PageUnitSheet PageUnitType = "sheet"
)

// PageStructure describes the paging of a document.
type PageStructure struct {
	TotalCount int            `json:"total_count"`
	UnitType   PageUnitType   `json:"unit_type"`
	Boundaries []PageBoundary `json:"boundaries,omitempty"`
}

// PageBoundary is the byte range [ByteStart, ByteEnd) of a page in the content.
type PageBoundary struct {
	ByteStart  int `json:"byte_start"`
	ByteEnd    int `json:"byte_end"`
	PageNumber int `json:"page_number"`
}

// ImagePreprocessingMetadata records what OCR preprocessing did to an image.
type ImagePreprocessingMetadata struct {
	OriginalDimensions [2]int     `json:"original_dimensions"`
	OriginalDPI        [2]float64 `json:"original_dpi"`
	TargetDPI          int        `json:"target_dpi"`
	ScaleFactor        float64    `json:"scale_factor"`
	AutoAdjusted       bool       `json:"auto_adjusted"`
	FinalDPI           int        `json:"final_dpi"`
	NewDimensions      *[2]int    `json:"new_dimensions,omitempty"`
	ResampleMethod     string     `json:"resample_method"`
	DimensionClamped   bool       `json:"dimension_clamped"`
	CalculatedDPI      *int       `json:"calculated_dpi,omitempty"`
	SkippedResize      bool       `json:"skipped_resize"`
	ResizeError        *string    `json:"resize_error,omitempty"`
}

// PdfMetadata is the pdf variant.
type PdfMetadata struct {
	PdfVersion  *string `json:"pdf_version,omitempty"`
	Producer    *string `json:"producer,omitempty"`
	IsEncrypted *bool   `json:"is_encrypted,omitempty"`
	Width       *int    `json:"width,omitempty"`
	Height      *int    `json:"height,omitempty"`
	PageCount   *int    `json:"page_count,omitempty"`
}

// ExcelMetadata is the excel variant.
type ExcelMetadata struct {
	SheetCount int      `json:"sheet_count"`
	SheetNames []string `json:"sheet_names"`
}

// EmailMetadata is the email variant.
type EmailMetadata struct {
	FromEmail   *string  `json:"from_email,omitempty"`
	FromName    *string  `json:"from_name,omitempty"`
	ToEmails    []string `json:"to_emails"`
	CcEmails    []string `json:"cc_emails"`
	BccEmails   []string `json:"bcc_emails"`
	MessageID   *string  `json:"message_id,omitempty"`
	Attachments []string `json:"attachments"`
}

// PptxMetadata is the pptx variant.
type PptxMetadata struct {
	SlideCount int      `json:"slide_count"`
	SlideNames []string `json:"slide_names"`
}

// ArchiveMetadata is the archive variant.
type ArchiveMetadata struct {
	Format         string   `json:"format"`
	FileCount      int      `json:"file_count"`
	FileList       []string `json:"file_list"`
	TotalSize      int64    `json:"total_size"`
	CompressedSize *int64   `json:"compressed_size,omitempty"`
}

// ImageMetadata is the image variant.
type ImageMetadata struct {
	Width  int               `json:"width"`
	Height int               `json:"height"`
	Format string            `json:"format"`
	EXIF   map[string]string `json:"exif,omitempty"`
}

// XMLMetadata is the xml variant.
type XMLMetadata struct {
	ElementCount   int      `json:"element_count"`
	UniqueElements []string `json:"unique_elements"`
}

// TextMetadata is the text variant, shared by plain text and markdown.
type TextMetadata struct {
	LineCount      int         `json:"line_count"`
	WordCount      int         `json:"word_count"`
	CharacterCount int         `json:"character_count"`
	Headers        []string    `json:"headers,omitempty"`
	Links          [][2]string `json:"links,omitempty"`
	CodeBlocks     [][2]string `json:"code_blocks,omitempty"`
}

// HeaderMetadata is a heading found in an HTML document.
type HeaderMetadata struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id,omitempty"`
}

// LinkMetadata is a hyperlink found in an HTML document.
type LinkMetadata struct {
	Href     string `json:"href"`
	Text     string `json:"text"`
	Title    string `json:"title,omitempty"`
	LinkType string `json:"link_type"`
}

// HTMLImageMetadata is an image reference found in an HTML document.
type HTMLImageMetadata struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

// HTMLMetadata is the html variant. Title, keywords, author and language are
// reported in the common fields.
type HTMLMetadata struct {
	Description   *string             `json:"description,omitempty"`
	CanonicalURL  *string             `json:"canonical_url,omitempty"`
	BaseHref      *string             `json:"base_href,omitempty"`
	TextDirection *string             `json:"text_direction,omitempty"`
	OpenGraph     map[string]string   `json:"open_graph,omitempty"`
	TwitterCard   map[string]string   `json:"twitter_card,omitempty"`
	MetaTags      map[string]string   `json:"meta_tags,omitempty"`
	Headers       []HeaderMetadata    `json:"headers,omitempty"`
	Links         []LinkMetadata      `json:"links,omitempty"`
	Images        []HTMLImageMetadata `json:"images,omitempty"`
}

// OcrMetadata is the ocr variant.
type OcrMetadata struct {
	Language     string `json:"language"`
	PSM          int    `json:"psm"`
	OutputFormat string `json:"output_format"`
	TableCount   int    `json:"table_count"`
	Backend      string `json:"backend,omitempty"`
}

func (*PdfMetadata) FormatType() FormatType { return FormatPDF }
func (*ExcelMetadata) FormatType() FormatType { return FormatExcel }
func (*EmailMetadata) FormatType() FormatType { return FormatEmail }
func (*PptxMetadata) FormatType() FormatType { return FormatPptx }
func (*ArchiveMetadata) FormatType() FormatType { return FormatArchive }
func (*ImageMetadata) FormatType() FormatType { return FormatImage }
func (*XMLMetadata) FormatType() FormatType { return FormatXML }
func (*TextMetadata) FormatType() FormatType { return FormatText }
func (*HTMLMetadata) FormatType() FormatType { return FormatHTML }
func (*OcrMetadata) FormatType() FormatType { return FormatOCR }

func newFormatMetadata(t FormatType) (FormatMetadata, error) {
	switch t {
	case FormatPDF:
		return &PdfMetadata{}, nil
	case FormatExcel:
		return &ExcelMetadata{}, nil
	case FormatEmail:
		return &EmailMetadata{}, nil
	case FormatPptx:
		return &PptxMetadata{}, nil
	case FormatArchive:
		return &ArchiveMetadata{}, nil
	case FormatImage:
		return &ImageMetadata{}, nil
	case FormatXML:
		return &XMLMetadata{}, nil
	case FormatText:
		return &TextMetadata{}, nil
	case FormatHTML:
		return &HTMLMetadata{}, nil
	case FormatOCR:
		return &OcrMetadata{}, nil
	}
	return nil, fmt.Errorf("unknown format_type %q", t)
}

const formatTypeKey = "format_type"

// commonMetadata has the JSON shape of the common fields only.
type commonMetadata struct {
	Title              *string                     `json:"title,omitempty"`
	Subject            *string                     `json:"subject,omitempty"`
	Authors            []string                    `json:"authors,omitempty"`
	Keywords           []string                    `json:"keywords,omitempty"`
	Language           *string                     `json:"language,omitempty"`
	Date               *string                     `json:"date,omitempty"`
	CreatedAt          *string                     `json:"created_at,omitempty"`
	ModifiedAt         *string                     `json:"modified_at,omitempty"`
	CreatedBy          *string                     `json:"created_by,omitempty"`
	ModifiedBy         *string                     `json:"modified_by,omitempty"`
	Pages              *PageStructure              `json:"pages,omitempty"`
	ImagePreprocessing *ImagePreprocessingMetadata `json:"image_preprocessing,omitempty"`
	Error              *ErrorMetadata              `json:"error,omitempty"`
}

func (m *Metadata) common() commonMetadata {
	return commonMetadata{
		Title: m.Title, Subject: m.Subject, Authors: m.Authors, Keywords: m.Keywords,
		Language: m.Language, Date: m.Date, CreatedAt: m.CreatedAt, ModifiedAt: m.ModifiedAt,
		CreatedBy: m.CreatedBy, ModifiedBy: m.ModifiedBy, Pages: m.Pages,
		ImagePreprocessing: m.ImagePreprocessing, Error: m.Error,
	}
}

func (m *Metadata) setCommon(c commonMetadata) {
	m.Title, m.Subject, m.Authors, m.Keywords = c.Title, c.Subject, c.Authors, c.Keywords
	m.Language, m.Date, m.CreatedAt, m.ModifiedAt = c.Language, c.Date, c.CreatedAt, c.ModifiedAt
	m.CreatedBy, m.ModifiedBy, m.Pages = c.CreatedBy, c.ModifiedBy, c.Pages
	m.ImagePreprocessing, m.Error = c.ImagePreprocessing, c.Error
}

// MarshalJSON flattens the common fields, the active variant and Additional
// into one object. Known fields win over Additional keys of the same name.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Additional)+8)
	for k, v := range m.Additional {
		out[k] = v
	}
	if err := mergeJSONObject(out, m.common()); err != nil {
		return nil, err
	}
	if m.Format != nil {
		if err := mergeJSONObject(out, m.Format); err != nil {
			return nil, err
		}
		out[formatTypeKey] = m.Format.FormatType()
	}
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON. Keys that belong to neither the common
// fields nor the variant are kept in Additional.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var c commonMetadata
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	*m = Metadata{}
	m.setCommon(c)

	known := jsonFieldNames(reflect.TypeOf(c))
	if ftRaw, ok := raw[formatTypeKey]; ok {
		var ft FormatType
		if err := json.Unmarshal(ftRaw, &ft); err != nil {
			return fmt.Errorf("decode format_type: %w", err)
		}
		variant, err := newFormatMetadata(ft)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, variant); err != nil {
			return fmt.Errorf("decode %s metadata: %w", ft, err)
		}
		m.Format = variant
		variantFields := jsonFieldNames(reflect.TypeOf(variant).Elem())
		known = maps.Clone(known)
		maps.Copy(known, variantFields)
	}

	for k, v := range raw {
		if k == formatTypeKey {
			continue
		}
		if _, ok := known[k]; ok {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("decode metadata key %q: %w", k, err)
		}
		if m.Additional == nil {
			m.Additional = make(map[string]any)
		}
		m.Additional[k] = val
	}
	return nil
}

// SetAdditional stores a value under key in Additional.
func (m *Metadata) SetAdditional(key string, value any) {
	if m.Additional == nil {
		m.Additional = make(map[string]any)
	}
	m.Additional[key] = value
}

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	out := Metadata{}
	c := m.common()
	c.Title = cloneStringPtr(c.Title)
	c.Subject = cloneStringPtr(c.Subject)
	c.Authors = cloneSlice(c.Authors)
	c.Keywords = cloneSlice(c.Keywords)
	c.Language = cloneStringPtr(c.Language)
	c.Date = cloneStringPtr(c.Date)
	c.CreatedAt = cloneStringPtr(c.CreatedAt)
	c.ModifiedAt = cloneStringPtr(c.ModifiedAt)
	c.CreatedBy = cloneStringPtr(c.CreatedBy)
	c.ModifiedBy = cloneStringPtr(c.ModifiedBy)
	if c.Pages != nil {
		p := *c.Pages
		p.Boundaries = cloneSlice(p.Boundaries)
		c.Pages = &p
	}
	if c.ImagePreprocessing != nil {
		ip := *c.ImagePreprocessing
		if ip.NewDimensions != nil {
			d := *ip.NewDimensions
			ip.NewDimensions = &d
		}
		ip.CalculatedDPI = cloneIntPtr(ip.CalculatedDPI)
		ip.ResizeError = cloneStringPtr(ip.ResizeError)
		c.ImagePreprocessing = &ip
	}
	if c.Error != nil {
		e := *c.Error
		c.Error = &e
	}
	out.setCommon(c)
	out.Format = cloneFormat(m.Format)
	if m.Additional != nil {
		out.Additional = make(map[string]any, len(m.Additional))
		for k, v := range m.Additional {
			out.Additional[k] = cloneAny(v)
		}
	}
	return out
}

// cloneFormat deep-copies a variant through its own JSON encoding, which
// preserves the concrete field types.
func cloneFormat(f FormatMetadata) FormatMetadata {
	if f == nil {
		return nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		return f
	}
	out, err := newFormatMetadata(f.FormatType())
	if err != nil {
		return f
	}
	if err := json.Unmarshal(data, out); err != nil {
		return f
	}
	return out
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = cloneAny(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = cloneAny(vv)
		}
		return out
	case []string:
		return cloneSlice(t)
	default:
		return v
	}
}

func mergeJSONObject(dst map[string]any, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for k, raw := range fields {
		dst[k] = raw
	}
	return nil
}

var fieldNameCache sync.Map

// jsonFieldNames returns the JSON keys declared by a struct type's tags.
func jsonFieldNames(t reflect.Type) map[string]struct{} {
	if cached, ok := fieldNameCache.Load(t); ok {
		return cached.(map[string]struct{})
	}
	names := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		names[name] = struct{}{}
	}
	fieldNameCache.Store(t, names)
	return names
}
