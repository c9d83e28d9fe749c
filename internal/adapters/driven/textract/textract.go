// Package textract provides an OCR backend backed by Amazon Textract.
package textract

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-extract/internal/extractors"
)

// Verify interface compliance
var _ driven.OcrBackend = (*Backend)(nil)

// BackendName is the registry name of this backend.
const BackendName = "textract"

// Textract detects these languages without a language hint.
var supportedLanguages = []string{"eng", "spa", "deu", "fra", "ita", "por"}

// API is the subset of the Textract client the backend calls.
type API interface {
	DetectDocumentText(ctx context.Context, in *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
	AnalyzeDocument(ctx context.Context, in *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

// Config holds Textract connection settings. Empty keys fall back to the
// default AWS credential chain.
type Config struct {
	Region    string
	AccessKey string
	SecretKey string
}

// Backend sends images to Textract. The AWS client is safe for concurrent use.
type Backend struct {
	client API
}

// New creates a backend from AWS configuration.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	return NewWithClient(textract.NewFromConfig(awsCfg)), nil
}

// NewWithClient creates a backend around an existing client.
func NewWithClient(client API) *Backend {
	return &Backend{client: client}
}

func (b *Backend) Name() string { return BackendName }

func (b *Backend) SupportedLanguages() []string {
	out := make([]string, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

// ProcessImage runs text detection, or table analysis when table detection
// is enabled in the Tesseract-compatible options.
func (b *Backend) ProcessImage(ctx context.Context, image []byte, req driven.OcrRequest) (*driven.OcrRawResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lang := req.Language
	if lang == "" && req.Config != nil {
		lang = req.Config.Language
	}
	if lang == "" {
		lang = "eng"
	}
	if !supported(lang) {
		return nil, domain.NewValidationError(fmt.Sprintf("unsupported textract language %q", lang))
	}

	doc := &types.Document{Bytes: image}
	var blocks []types.Block
	if wantTables(req.Config) {
		out, err := b.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
			Document:     doc,
			FeatureTypes: []types.FeatureType{types.FeatureTypeTables},
		})
		if err != nil {
			return nil, b.wrap(ctx, err)
		}
		blocks = out.Blocks
	} else {
		out, err := b.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{Document: doc})
		if err != nil {
			return nil, b.wrap(ctx, err)
		}
		blocks = out.Blocks
	}

	page := req.PageNumber
	if page == 0 {
		page = 1
	}

	result := &driven.OcrRawResult{
		Content:  lineText(blocks),
		Elements: elements(blocks, page),
		Tables:   tables(blocks, page),
	}
	result.Metadata = &domain.OcrMetadata{
		Language:     lang,
		OutputFormat: "text",
		TableCount:   len(result.Tables),
		Backend:      BackendName,
	}
	return result, nil
}

func (b *Backend) wrap(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return domain.NewOCRError("textract request failed", err)
}

func supported(lang string) bool {
	for _, l := range supportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

func wantTables(cfg *domain.OcrConfig) bool {
	return cfg != nil && cfg.TesseractConfig != nil && cfg.TesseractConfig.EnableTableDetection
}

// lineText joins LINE blocks in response order.
func lineText(blocks []types.Block) string {
	var lines []string
	for _, block := range blocks {
		if block.BlockType == types.BlockTypeLine && block.Text != nil {
			lines = append(lines, *block.Text)
		}
	}
	return strings.Join(lines, "\n")
}

// elements converts LINE and WORD blocks. Words keep their line as parent.
func elements(blocks []types.Block, page int) []domain.OcrElement {
	parents := make(map[string]string)
	for _, block := range blocks {
		if block.BlockType != types.BlockTypeLine || block.Id == nil {
			continue
		}
		for _, id := range childIDs(block) {
			parents[id] = *block.Id
		}
	}

	var out []domain.OcrElement
	for _, block := range blocks {
		var level domain.OcrLevel
		switch block.BlockType {
		case types.BlockTypeLine:
			level = domain.OcrLevelLine
		case types.BlockTypeWord:
			level = domain.OcrLevelWord
		default:
			continue
		}

		el := domain.OcrElement{
			Text:       aws.ToString(block.Text),
			Geometry:   geometry(block.Geometry),
			Confidence: domain.OcrConfidence{Recognition: float64(aws.ToFloat32(block.Confidence)) / 100},
			Level:      level,
			PageNumber: page,
		}
		if block.Id != nil {
			el.ElementID = *block.Id
			el.ParentID = parents[*block.Id]
		}
		out = append(out, el)
	}
	return out
}

// geometry prefers the polygon when Textract returns four points.
func geometry(g *types.Geometry) domain.OcrGeometry {
	if g == nil {
		return domain.OcrGeometry{Type: domain.GeometryRectangle}
	}
	if len(g.Polygon) == 4 {
		points := make([][2]float64, len(g.Polygon))
		for i, p := range g.Polygon {
			points[i] = [2]float64{float64(p.X), float64(p.Y)}
		}
		return domain.OcrGeometry{Type: domain.GeometryQuadrilateral, Points: points}
	}
	if g.BoundingBox == nil {
		return domain.OcrGeometry{Type: domain.GeometryRectangle}
	}
	return domain.OcrGeometry{
		Type:   domain.GeometryRectangle,
		Left:   float64(g.BoundingBox.Left),
		Top:    float64(g.BoundingBox.Top),
		Width:  float64(g.BoundingBox.Width),
		Height: float64(g.BoundingBox.Height),
	}
}

// tables rebuilds TABLE blocks from their CELL children.
func tables(blocks []types.Block, page int) []domain.Table {
	byID := make(map[string]types.Block, len(blocks))
	for _, block := range blocks {
		if block.Id != nil {
			byID[*block.Id] = block
		}
	}

	var out []domain.Table
	for _, block := range blocks {
		if block.BlockType != types.BlockTypeTable {
			continue
		}

		type cell struct {
			row, col int
			text     string
		}
		var cells []cell
		rows, cols := 0, 0
		for _, id := range childIDs(block) {
			c, ok := byID[id]
			if !ok || c.BlockType != types.BlockTypeCell {
				continue
			}
			r := int(aws.ToInt32(c.RowIndex))
			col := int(aws.ToInt32(c.ColumnIndex))
			if r < 1 || col < 1 {
				continue
			}
			cells = append(cells, cell{row: r, col: col, text: cellText(c, byID)})
			rows = max(rows, r)
			cols = max(cols, col)
		}
		if rows == 0 {
			continue
		}

		grid := make([][]string, rows)
		for i := range grid {
			grid[i] = make([]string, cols)
		}
		sort.Slice(cells, func(i, j int) bool {
			if cells[i].row != cells[j].row {
				return cells[i].row < cells[j].row
			}
			return cells[i].col < cells[j].col
		})
		for _, c := range cells {
			grid[c.row-1][c.col-1] = c.text
		}
		out = append(out, domain.Table{Cells: grid, Markdown: extractors.TableMarkdown(grid), PageNumber: page})
	}
	return out
}

func cellText(cell types.Block, byID map[string]types.Block) string {
	var words []string
	for _, id := range childIDs(cell) {
		if w, ok := byID[id]; ok && w.BlockType == types.BlockTypeWord && w.Text != nil {
			words = append(words, *w.Text)
		}
	}
	return strings.Join(words, " ")
}

func childIDs(block types.Block) []string {
	var ids []string
	for _, rel := range block.Relationships {
		if rel.Type == types.RelationshipTypeChild {
			ids = append(ids, rel.Ids...)
		}
	}
	return ids
}
