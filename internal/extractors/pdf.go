package extractors

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

var _ driven.DocumentExtractor = (*PDFExtractor)(nil)

// PDFExtractor reads PDF text layers page by page using pdfcpu.
type PDFExtractor struct{}

func (e *PDFExtractor) Name() string { return "pdf" }

func (e *PDFExtractor) SupportedMimeTypes() []string {
	return []string{"application/pdf"}
}

func (e *PDFExtractor) Priority() int {
	return 50 // Format-specific
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
	var opts domain.PdfConfig
	if cfg != nil && cfg.PdfOptions != nil {
		opts = *cfg.PdfOptions
	} else {
		opts = domain.DefaultPdfConfig()
	}

	pdfCtx, err := readPDF(data, opts.Passwords)
	if err != nil {
		return nil, err
	}

	var (
		sb         strings.Builder
		pages      = make([]domain.PageContent, 0, pdfCtx.PageCount)
		boundaries = make([]domain.PageBoundary, 0, pdfCtx.PageCount)
		images     []domain.ExtractedImage
		ocrInputs  []driven.OCRInput
		hasText    bool
	)

	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := extractPageText(pdfCtx, pageNr)
		if text != "" {
			hasText = true
		}

		if pageNr > 1 {
			sb.WriteString(domain.PageSeparator)
		}
		start := sb.Len()
		sb.WriteString(text)
		boundaries = append(boundaries, domain.PageBoundary{
			ByteStart:  start,
			ByteEnd:    sb.Len(),
			PageNumber: pageNr,
		})

		page := domain.PageContent{PageNumber: pageNr, Content: text, Tables: []domain.Table{}}
		if opts.ExtractImages || text == "" {
			pageImages := extractPageImages(pdfCtx, pageNr, len(images))
			if opts.ExtractImages {
				images = append(images, pageImages...)
				page.Images = pageImages
			}
			if text == "" {
				for _, img := range pageImages {
					ocrInputs = append(ocrInputs, driven.OCRInput{
						Data:       img.Data,
						MimeType:   imageMimeType(img.Format),
						PageNumber: pageNr,
					})
				}
			}
		}
		pages = append(pages, page)
	}

	meta := domain.Metadata{
		Pages: &domain.PageStructure{
			TotalCount: pdfCtx.PageCount,
			UnitType:   domain.PageUnitPage,
			Boundaries: boundaries,
		},
	}
	pdfMeta := &domain.PdfMetadata{PageCount: domain.IntPtr(pdfCtx.PageCount)}
	if opts.ExtractMetadata {
		applyInfoDict(pdfCtx.XRefTable, &meta, pdfMeta)
		if dims, err := pdfCtx.PageDims(); err == nil && len(dims) > 0 {
			pdfMeta.Width = domain.IntPtr(int(dims[0].Width))
			pdfMeta.Height = domain.IntPtr(int(dims[0].Height))
		}
	}
	meta.Format = pdfMeta

	result := &domain.ExtractionResult{
		Content:  sb.String(),
		MimeType: mimeType,
		Metadata: meta,
		Tables:   []domain.Table{},
		Images:   images,
		Pages:    pages,
	}

	ext := &driven.Extraction{Result: result}
	if !hasText && pdfCtx.PageCount > 0 {
		ext.NeedsOCR = true
		ext.OCRInputs = ocrInputs
		if len(ext.OCRInputs) == 0 {
			ext.OCRInputs = []driven.OCRInput{{Data: data, MimeType: "application/pdf", PageNumber: 1}}
		}
	}
	return ext, nil
}

// readPDF parses and validates data, trying each password in turn when the
// document is encrypted.
func readPDF(data []byte, passwords []string) (*model.Context, error) {
	candidates := append([]string{""}, passwords...)

	var lastErr error
	for _, pw := range candidates {
		conf := model.NewDefaultConfiguration()
		if pw != "" {
			conf.UserPW = pw
			conf.OwnerPW = pw
		}
		pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
		if err == nil {
			return pdfCtx, nil
		}
		lastErr = err
	}
	return nil, domain.NewParsingError("pdfcpu read", lastErr)
}

// applyInfoDict reads the info dictionary. It takes the XRefTable because
// model.Context also embeds a Configuration with colliding field names.
func applyInfoDict(xref *model.XRefTable, meta *domain.Metadata, pdfMeta *domain.PdfMetadata) {
	if v := xref.Title; v != "" {
		meta.Title = domain.StringPtr(v)
	}
	if v := xref.Subject; v != "" {
		meta.Subject = domain.StringPtr(v)
	}
	if v := xref.Author; v != "" {
		meta.Authors = []string{v}
	}
	if v := xref.Keywords; v != "" {
		for _, kw := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' }) {
			if kw = strings.TrimSpace(kw); kw != "" {
				meta.Keywords = append(meta.Keywords, kw)
			}
		}
	}
	if v := xref.Creator; v != "" {
		meta.CreatedBy = domain.StringPtr(v)
	}
	if v := xref.CreationDate; v != "" {
		meta.CreatedAt = domain.StringPtr(v)
	}
	if v := xref.ModDate; v != "" {
		meta.ModifiedAt = domain.StringPtr(v)
	}
	if v := xref.Producer; v != "" {
		pdfMeta.Producer = domain.StringPtr(v)
	}

	encrypted := xref.Encrypt != nil
	pdfMeta.IsEncrypted = &encrypted
	if xref.HeaderVersion != nil || xref.RootVersion != nil {
		version := xref.Version().String()
		pdfMeta.PdfVersion = &version
	}
}

// extractPageImages returns the images of a page, numbered from firstIndex.
func extractPageImages(pdfCtx *model.Context, pageNr, firstIndex int) []domain.ExtractedImage {
	found, err := pdfcpu.ExtractPageImages(pdfCtx, pageNr, false)
	if err != nil || len(found) == 0 {
		return nil
	}

	objNrs := make([]int, 0, len(found))
	for nr := range found {
		objNrs = append(objNrs, nr)
	}
	sort.Ints(objNrs)

	images := make([]domain.ExtractedImage, 0, len(found))
	for _, nr := range objNrs {
		img := found[nr]
		if img.Reader == nil {
			continue
		}
		raw, err := io.ReadAll(img.Reader)
		if err != nil || len(raw) == 0 {
			continue
		}
		out := domain.ExtractedImage{
			Data:       raw,
			Format:     img.FileType,
			ImageIndex: firstIndex + len(images),
			PageNumber: domain.IntPtr(pageNr),
			IsMask:     img.IsImgMask,
		}
		if img.Width > 0 {
			out.Width = domain.IntPtr(img.Width)
		}
		if img.Height > 0 {
			out.Height = domain.IntPtr(img.Height)
		}
		if img.Cs != "" {
			out.Colorspace = domain.StringPtr(img.Cs)
		}
		if img.Bpc > 0 {
			out.BitsPerComponent = domain.IntPtr(img.Bpc)
		}
		images = append(images, out)
	}
	return images
}

func imageMimeType(format string) string {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "tif", "tiff":
		return "image/tiff"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	default:
		return "image/" + strings.ToLower(format)
	}
}

// extractPageText extracts text from a single PDF page via its content stream.
func extractPageText(pdfCtx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromContentStream(data)
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// textFromContentStream parses content stream text operators.
func textFromContentStream(data []byte) string {
	var sb strings.Builder
	newline := func() {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
	}

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")), bytes.HasSuffix(line, []byte(`"`)):
			newline()
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.Equal(line, []byte("T*")), bytes.Equal(line, []byte("ET")):
			newline()
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		}
	}

	return cleanPDFText(sb.String())
}

// decodePDFString handles PDF literal string escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			// Octal escape (e.g. \040 for space).
			if raw[i] < '0' || raw[i] > '7' {
				sb.WriteByte(raw[i])
				continue
			}
			val := int(raw[i] - '0')
			for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return strings.ToValidUTF8(sb.String(), "\uFFFD")
}

// cleanPDFText collapses horizontal whitespace per line and drops blank lines.
func cleanPDFText(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.FieldsFunc(line, func(r rune) bool {
			return unicode.IsSpace(r) || !unicode.IsPrint(r)
		}), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
