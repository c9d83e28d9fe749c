package extractors

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// buildTextPDF writes a minimal uncompressed PDF with one page per text.
func buildTextPDF(pages ...string) []byte {
	n := len(pages)
	// Objects: 1 catalog, 2 page tree, then a page and content pair per page,
	// then the font.
	fontObj := 3 + 2*n
	offsets := make([]int, fontObj+1)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, n)
	for i := range pages {
		kids[i] = strconv.Itoa(3+2*i) + " 0 R"
	}
	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [" + strings.Join(kids, " ") + "] /Count " + strconv.Itoa(n) + " >>\nendobj\n")

	for i, text := range pages {
		pageObj, contentObj := 3+2*i, 4+2*i

		offsets[pageObj] = b.Len()
		b.WriteString(strconv.Itoa(pageObj) + " 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents " +
			strconv.Itoa(contentObj) + " 0 R /Resources << /Font << /F1 " + strconv.Itoa(fontObj) + " 0 R >> >> >>\nendobj\n")

		stream := "BT\n/F1 12 Tf\n72 720 Td\nET"
		if text != "" {
			escaped := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(text)
			stream = "BT\n/F1 12 Tf\n72 720 Td\n(" + escaped + ") Tj\nET"
		}
		offsets[contentObj] = b.Len()
		b.WriteString(strconv.Itoa(contentObj) + " 0 obj\n<< /Length " + strconv.Itoa(len(stream)) + " >>\nstream\n")
		b.WriteString(stream)
		b.WriteString("\nendstream\nendobj\n")
	}

	offsets[fontObj] = b.Len()
	b.WriteString(strconv.Itoa(fontObj) + " 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefOffset := b.Len()
	b.WriteString("xref\n0 " + strconv.Itoa(fontObj+1) + "\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= fontObj; i++ {
		off := strconv.Itoa(offsets[i])
		b.WriteString(strings.Repeat("0", 10-len(off)) + off + " 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size " + strconv.Itoa(fontObj+1) + " /Root 1 0 R >>\nstartxref\n")
	b.WriteString(strconv.Itoa(xrefOffset))
	b.WriteString("\n%%EOF\n")

	return []byte(b.String())
}

func TestPDFExtractor_Pages(t *testing.T) {
	texts := make([]string, 10)
	for i := range texts {
		texts[i] = "Page number " + strconv.Itoa(i+1) + " text"
	}

	e := &PDFExtractor{}
	ext, err := e.Extract(context.Background(), buildTextPDF(texts...), "application/pdf", domain.DefaultExtractionConfig())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	r := ext.Result

	if ext.NeedsOCR {
		t.Error("PDF with a text layer must not need OCR")
	}
	if len(r.Pages) != 10 {
		t.Fatalf("expected 10 pages, got %d", len(r.Pages))
	}
	for i, p := range r.Pages {
		if p.PageNumber != i+1 {
			t.Errorf("expected page %d, got %d", i+1, p.PageNumber)
		}
	}

	if r.Metadata.Pages == nil || r.Metadata.Pages.TotalCount != 10 {
		t.Fatalf("expected page structure with 10 pages, got %+v", r.Metadata.Pages)
	}
	for i, b := range r.Metadata.Pages.Boundaries {
		if got := r.Content[b.ByteStart:b.ByteEnd]; got != r.Pages[i].Content {
			t.Errorf("page %d boundary selects %q, page content is %q", i+1, got, r.Pages[i].Content)
		}
	}
	if !strings.Contains(r.Content, "Page number 7 text") {
		t.Errorf("expected page text in content, got %q", r.Content)
	}

	pdfMeta, ok := r.Metadata.Format.(*domain.PdfMetadata)
	if !ok {
		t.Fatalf("expected pdf metadata, got %T", r.Metadata.Format)
	}
	if pdfMeta.PageCount == nil || *pdfMeta.PageCount != 10 {
		t.Errorf("expected page_count 10, got %v", pdfMeta.PageCount)
	}
}

func TestPDFExtractor_NoTextNeedsOCR(t *testing.T) {
	data := buildTextPDF("")

	e := &PDFExtractor{}
	ext, err := e.Extract(context.Background(), data, "application/pdf", nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !ext.NeedsOCR {
		t.Fatal("expected PDF without text to need OCR")
	}
	if len(ext.OCRInputs) != 1 || ext.OCRInputs[0].MimeType != "application/pdf" {
		t.Errorf("expected whole document as OCR input, got %+v", ext.OCRInputs)
	}
}

func TestPDFExtractor_Invalid(t *testing.T) {
	e := &PDFExtractor{}
	_, err := e.Extract(context.Background(), []byte("not a pdf"), "application/pdf", nil)
	if !errors.Is(err, domain.ErrParsing) {
		t.Errorf("expected parsing error, got %v", err)
	}
}

func TestTextFromContentStream(t *testing.T) {
	stream := []byte("BT\n72 720 Td\n(Hello) Tj\n10 0 Td\n[(Wor) -20 (ld)] TJ\nT*\n(Next \\(line\\)) Tj\nET")
	got := textFromContentStream(stream)
	want := "Hello World\nNext (line)"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`a\nb`, "a\nb"},
		{`\101\102`, "AB"},
		{`\\x`, `\x`},
	}
	for _, tt := range tests {
		if got := decodePDFString([]byte(tt.in)); got != tt.want {
			t.Errorf("decodePDFString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplyInfoDict(t *testing.T) {
	v := model.V17
	xref := &model.XRefTable{
		Title:         "Annual Report",
		Author:        "Finance",
		Keywords:      "budget; review, ",
		CreationDate:  "D:20240101120000Z",
		Producer:      "pdfgen",
		HeaderVersion: &v,
	}

	var meta domain.Metadata
	pdfMeta := &domain.PdfMetadata{}
	applyInfoDict(xref, &meta, pdfMeta)

	if meta.Title == nil || *meta.Title != "Annual Report" {
		t.Errorf("unexpected title %v", meta.Title)
	}
	if len(meta.Authors) != 1 || meta.Authors[0] != "Finance" {
		t.Errorf("unexpected authors %v", meta.Authors)
	}
	if len(meta.Keywords) != 2 || meta.Keywords[0] != "budget" || meta.Keywords[1] != "review" {
		t.Errorf("unexpected keywords %v", meta.Keywords)
	}
	if meta.CreatedAt == nil || *meta.CreatedAt != "D:20240101120000Z" {
		t.Errorf("expected creation date from the info dict, got %v", meta.CreatedAt)
	}
	if pdfMeta.PdfVersion == nil || *pdfMeta.PdfVersion != "1.7" {
		t.Errorf("expected version 1.7, got %v", pdfMeta.PdfVersion)
	}
	if pdfMeta.IsEncrypted == nil || *pdfMeta.IsEncrypted {
		t.Errorf("expected unencrypted, got %v", pdfMeta.IsEncrypted)
	}
}
