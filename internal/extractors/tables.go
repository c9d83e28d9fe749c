package extractors

import (
	"strings"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// TableMarkdown renders row-major cells as a GitHub-flavoured markdown table.
// The first row is the header.
func TableMarkdown(cells [][]string) string {
	if len(cells) == 0 {
		return ""
	}
	width := 0
	for _, row := range cells {
		width = max(width, len(row))
	}
	if width == 0 {
		return ""
	}

	var sb strings.Builder
	writeRow := func(row []string) {
		sb.WriteByte('|')
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(row) {
				cell = strings.ReplaceAll(strings.TrimSpace(row[i]), "|", `\|`)
				cell = strings.ReplaceAll(cell, "\n", " ")
			}
			sb.WriteString(" ")
			sb.WriteString(cell)
			sb.WriteString(" |")
		}
		sb.WriteByte('\n')
	}

	writeRow(cells[0])
	sb.WriteByte('|')
	for i := 0; i < width; i++ {
		sb.WriteString(" --- |")
	}
	sb.WriteByte('\n')
	for _, row := range cells[1:] {
		writeRow(row)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// parseMarkdownTables finds pipe tables in markdown content.
func parseMarkdownTables(content string) []domain.Table {
	tables := []domain.Table{}
	lines := strings.Split(content, "\n")

	for i := 0; i+1 < len(lines); i++ {
		header := strings.TrimSpace(lines[i])
		sep := strings.TrimSpace(lines[i+1])
		if !isPipeRow(header) || !isSeparatorRow(sep) {
			continue
		}

		cells := [][]string{splitPipeRow(header)}
		j := i + 2
		for ; j < len(lines); j++ {
			row := strings.TrimSpace(lines[j])
			if !isPipeRow(row) {
				break
			}
			cells = append(cells, splitPipeRow(row))
		}
		tables = append(tables, domain.Table{
			Cells:      cells,
			Markdown:   TableMarkdown(cells),
			PageNumber: 1,
		})
		i = j - 1
	}
	return tables
}

func isPipeRow(line string) bool {
	return strings.HasPrefix(line, "|") && strings.Count(line, "|") >= 2
}

func isSeparatorRow(line string) bool {
	if !isPipeRow(line) {
		return false
	}
	for _, cell := range splitPipeRow(line) {
		cell = strings.Trim(cell, ": ")
		if cell == "" || strings.Trim(cell, "-") != "" {
			return false
		}
	}
	return true
}

func splitPipeRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
