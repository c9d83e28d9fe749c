package extractors

import (
	"context"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

var _ driven.DocumentExtractor = (*HTMLExtractor)(nil)

// HTMLExtractor converts HTML documents to markdown and collects head metadata.
type HTMLExtractor struct {
	policy      *bluemonday.Policy
	mdConverter *converter.Converter
}

// NewHTMLExtractor creates an HTMLExtractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{
		policy: bluemonday.UGCPolicy(),
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (e *HTMLExtractor) Name() string { return "html" }

func (e *HTMLExtractor) SupportedMimeTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (e *HTMLExtractor) Priority() int {
	return 50 // Format-specific
}

func (e *HTMLExtractor) Extract(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
	raw := decodeText(data)

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, domain.NewParsingError("invalid html", err)
	}

	meta, tables := collectHTMLMetadata(doc)

	sanitized := e.policy.Sanitize(raw)
	content, err := e.mdConverter.ConvertString(sanitized)
	if err != nil {
		return nil, domain.NewParsingError("html to markdown conversion failed", err)
	}

	return &driven.Extraction{Result: &domain.ExtractionResult{
		Content:  normalizeText(content),
		MimeType: mimeType,
		Metadata: meta,
		Tables:   tables,
	}}, nil
}

func collectHTMLMetadata(doc *html.Node) (domain.Metadata, []domain.Table) {
	var meta domain.Metadata
	hm := &domain.HTMLMetadata{}
	tables := []domain.Table{}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Html:
				if lang := attr(n, "lang"); lang != "" {
					meta.Language = domain.StringPtr(lang)
				}
				if dir := attr(n, "dir"); dir != "" {
					hm.TextDirection = domain.StringPtr(dir)
				}
			case atom.Title:
				if meta.Title == nil {
					if title := nodeText(n); title != "" {
						meta.Title = domain.StringPtr(title)
					}
				}
			case atom.Base:
				if href := attr(n, "href"); href != "" {
					hm.BaseHref = domain.StringPtr(href)
				}
			case atom.Link:
				if strings.EqualFold(attr(n, "rel"), "canonical") {
					if href := attr(n, "href"); href != "" {
						hm.CanonicalURL = domain.StringPtr(href)
					}
				}
			case atom.Meta:
				collectMetaTag(n, &meta, hm)
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				if text := nodeText(n); text != "" {
					hm.Headers = append(hm.Headers, domain.HeaderMetadata{
						Level: int(n.Data[1] - '0'),
						Text:  text,
						ID:    attr(n, "id"),
					})
				}
			case atom.A:
				if href := attr(n, "href"); href != "" {
					hm.Links = append(hm.Links, domain.LinkMetadata{
						Href:     href,
						Text:     nodeText(n),
						Title:    attr(n, "title"),
						LinkType: linkType(href),
					})
				}
			case atom.Img:
				if src := attr(n, "src"); src != "" {
					hm.Images = append(hm.Images, domain.HTMLImageMetadata{Src: src, Alt: attr(n, "alt")})
				}
			case atom.Table:
				if cells := tableCells(n); len(cells) > 0 {
					tables = append(tables, domain.Table{
						Cells:      cells,
						Markdown:   TableMarkdown(cells),
						PageNumber: 1,
					})
				}
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	meta.Format = hm
	return meta, tables
}

func collectMetaTag(n *html.Node, meta *domain.Metadata, hm *domain.HTMLMetadata) {
	content := strings.TrimSpace(attr(n, "content"))
	if content == "" {
		return
	}
	name := strings.ToLower(attr(n, "name"))
	if name == "" {
		name = strings.ToLower(attr(n, "property"))
	}
	if name == "" {
		return
	}

	switch {
	case name == "description":
		hm.Description = domain.StringPtr(content)
	case name == "keywords":
		for _, kw := range strings.Split(content, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				meta.Keywords = append(meta.Keywords, kw)
			}
		}
	case name == "author":
		meta.Authors = append(meta.Authors, content)
	case strings.HasPrefix(name, "og:"):
		if hm.OpenGraph == nil {
			hm.OpenGraph = make(map[string]string)
		}
		hm.OpenGraph[name] = content
	case strings.HasPrefix(name, "twitter:"):
		if hm.TwitterCard == nil {
			hm.TwitterCard = make(map[string]string)
		}
		hm.TwitterCard[name] = content
	default:
		if hm.MetaTags == nil {
			hm.MetaTags = make(map[string]string)
		}
		hm.MetaTags[name] = content
	}
}

func tableCells(tableNode *html.Node) [][]string {
	var cells [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
					row = append(row, nodeText(c))
				}
			}
			if len(row) > 0 {
				cells = append(cells, row)
			}
			return
		}
		// Nested tables are reported on their own.
		if n != tableNode && n.Type == html.ElementNode && n.DataAtom == atom.Table {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(tableNode)
	return cells
}

func linkType(href string) string {
	lower := strings.ToLower(href)
	switch {
	case strings.HasPrefix(lower, "#"):
		return "anchor"
	case strings.HasPrefix(lower, "mailto:"):
		return "email"
	case strings.HasPrefix(lower, "tel:"):
		return "phone"
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "//"):
		return "external"
	default:
		return "internal"
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// nodeText returns the whitespace-collapsed text beneath n.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
