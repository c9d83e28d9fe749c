package domain

import (
	"encoding/json"
	"testing"
)

func TestMetadataMarshalFlattensVariant(t *testing.T) {
	m := Metadata{
		Title:    StringPtr("Report"),
		Language: StringPtr("en"),
		Format: &PdfMetadata{
			PdfVersion: StringPtr("1.7"),
			PageCount:  IntPtr(10),
		},
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if flat["format_type"] != "pdf" {
		t.Errorf("expected format_type pdf, got %v", flat["format_type"])
	}
	if flat["title"] != "Report" {
		t.Errorf("expected title at top level, got %v", flat["title"])
	}
	if flat["pdf_version"] != "1.7" {
		t.Errorf("expected pdf_version at top level, got %v", flat["pdf_version"])
	}
	if flat["page_count"] != float64(10) {
		t.Errorf("expected page_count 10, got %v", flat["page_count"])
	}
	if _, ok := flat["sheet_count"]; ok {
		t.Error("fields of other variants must be absent")
	}
	if _, ok := flat["producer"]; ok {
		t.Error("unset optional variant fields must be absent, not null")
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	in := Metadata{
		Subject: StringPtr("Quarterly"),
		Pages: &PageStructure{
			TotalCount: 2,
			UnitType:   PageUnitPage,
			Boundaries: []PageBoundary{{ByteStart: 0, ByteEnd: 5, PageNumber: 1}, {ByteStart: 5, ByteEnd: 9, PageNumber: 2}},
		},
		Format: &TextMetadata{LineCount: 3, WordCount: 7, CharacterCount: 40, Headers: []string{"Intro"}},
	}
	in.SetAdditional("quality_score", 0.9)

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out Metadata
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	text, ok := out.Format.(*TextMetadata)
	if !ok {
		t.Fatalf("expected *TextMetadata, got %T", out.Format)
	}
	if text.WordCount != 7 || text.LineCount != 3 || text.CharacterCount != 40 {
		t.Errorf("unexpected text metadata %+v", text)
	}
	if out.Subject == nil || *out.Subject != "Quarterly" {
		t.Errorf("expected subject to round trip")
	}
	if out.Pages == nil || len(out.Pages.Boundaries) != 2 {
		t.Fatalf("expected page boundaries to round trip")
	}
	if out.Additional["quality_score"] != 0.9 {
		t.Errorf("expected quality_score in Additional, got %v", out.Additional["quality_score"])
	}
	if _, ok := out.Additional["word_count"]; ok {
		t.Error("variant fields must not leak into Additional")
	}
	if _, ok := out.Additional["format_type"]; ok {
		t.Error("format_type must not leak into Additional")
	}
}

func TestMetadataUnknownKeysKeptWithoutVariant(t *testing.T) {
	var m Metadata
	if err := json.Unmarshal([]byte(`{"title":"x","custom":{"a":1}}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Format != nil {
		t.Errorf("expected no variant, got %T", m.Format)
	}
	custom, ok := m.Additional["custom"].(map[string]any)
	if !ok || custom["a"] != float64(1) {
		t.Errorf("expected custom key in Additional, got %v", m.Additional["custom"])
	}
}

func TestMetadataUnknownFormatType(t *testing.T) {
	var m Metadata
	if err := json.Unmarshal([]byte(`{"format_type":"spreadsheet3000"}`), &m); err == nil {
		t.Error("expected error for unknown format_type")
	}
}

func TestMetadataKnownFieldsWinOverAdditional(t *testing.T) {
	m := Metadata{Title: StringPtr("real")}
	m.SetAdditional("title", "shadow")

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var flat map[string]any
	_ = json.Unmarshal(data, &flat)
	if flat["title"] != "real" {
		t.Errorf("expected declared field to win, got %v", flat["title"])
	}
}

func TestMetadataCloneIsDeep(t *testing.T) {
	m := Metadata{
		Authors: []string{"a"},
		Pages:   &PageStructure{TotalCount: 1, Boundaries: []PageBoundary{{0, 4, 1}}},
		Format:  &HTMLMetadata{OpenGraph: map[string]string{"og:title": "t"}},
	}
	m.SetAdditional("tags", []any{"x"})

	c := m.Clone()
	c.Authors[0] = "b"
	c.Pages.Boundaries[0].ByteEnd = 99
	c.Format.(*HTMLMetadata).OpenGraph["og:title"] = "changed"
	c.Additional["tags"].([]any)[0] = "y"

	if m.Authors[0] != "a" {
		t.Error("authors shared with clone")
	}
	if m.Pages.Boundaries[0].ByteEnd != 4 {
		t.Error("page boundaries shared with clone")
	}
	if m.Format.(*HTMLMetadata).OpenGraph["og:title"] != "t" {
		t.Error("variant shared with clone")
	}
	if m.Additional["tags"].([]any)[0] != "x" {
		t.Error("additional values shared with clone")
	}
}

func TestAllFormatVariantsDecode(t *testing.T) {
	for _, ft := range []FormatType{FormatPDF, FormatExcel, FormatEmail, FormatPptx, FormatArchive,
		FormatImage, FormatXML, FormatText, FormatHTML, FormatOCR} {
		t.Run(string(ft), func(t *testing.T) {
			var m Metadata
			if err := json.Unmarshal([]byte(`{"format_type":"`+string(ft)+`"}`), &m); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if m.Format == nil || m.Format.FormatType() != ft {
				t.Errorf("expected variant %s, got %v", ft, m.Format)
			}
		})
	}
}
