package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/models"
)

// ErrNothingToExport is returned when the active table has no rows
var ErrNothingToExport = errors.New("nothing to export")

// ExportFormat represents supported export formats
type ExportFormat string

const (
	FormatCSV   ExportFormat = "csv"
	FormatJSON  ExportFormat = "json"
	FormatExcel ExportFormat = "xlsx"
)

// ParseFormat resolves a format name, defaulting to CSV
func ParseFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatExcel:
		return FormatExcel, nil
	}
	return "", fmt.Errorf("unsupported export format: %s", s)
}

// ContentType returns the MIME type written for format
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Document is a table ready for export or print together with its headings
type Document struct {
	Title     string
	Institute string
	// Filters is the one-line filter summary printed under the title
	Filters  string
	BaseName string
	Table    models.Table
}

// FileName returns the download name for format
func (d Document) FileName(format ExportFormat) string {
	return fmt.Sprintf("%s.%s", d.BaseName, format)
}

// ExportResult contains export operation results
type ExportResult struct {
	Format   ExportFormat  `json:"format"`
	RowCount int           `json:"row_count"`
	Duration time.Duration `json:"duration"`
	FileName string        `json:"file_name"`
}

// Exporter writes report tables in various formats
type Exporter struct{}

// NewExporter creates a new exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export writes every row of the document's table. Nothing is written for
// an empty table.
func (e *Exporter) Export(writer io.Writer, format ExportFormat, doc Document) (*ExportResult, error) {
	if doc.Table.Len() == 0 {
		return nil, ErrNothingToExport
	}

	start := time.Now()
	var err error
	switch format {
	case FormatCSV:
		err = e.exportCSV(writer, doc.Table)
	case FormatJSON:
		err = e.exportJSON(writer, doc.Table)
	case FormatExcel:
		err = e.exportExcel(writer, doc)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}

	result := &ExportResult{
		Format:   format,
		RowCount: doc.Table.Len(),
		Duration: time.Since(start),
		FileName: doc.FileName(format),
	}
	log.Info().
		Str("file", result.FileName).
		Int("rows", result.RowCount).
		Dur("duration", result.Duration).
		Msg("Report exported")
	return result, nil
}

// CSV renders the table the way the report screens download it: a plain
// header line, then every data cell double-quoted
func CSV(table models.Table) string {
	lines := make([]string, 0, table.Len()+1)
	lines = append(lines, strings.Join(table.Columns, ","))
	for _, row := range table.Rows {
		cells := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			cells[i] = `"` + strings.ReplaceAll(CellText(row.Values[col]), `"`, `""`) + `"`
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n")
}

// CellText renders a cell value; absent values render empty
func CellText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02")
	}
	return fmt.Sprint(v)
}

func (e *Exporter) exportCSV(writer io.Writer, table models.Table) error {
	_, err := io.WriteString(writer, CSV(table))
	return err
}

func (e *Exporter) exportJSON(writer io.Writer, table models.Table) error {
	rows := make([]models.ReportRow, len(table.Rows))
	for i, r := range table.Rows {
		rows[i] = r.Values
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	return encoder.Encode(map[string]interface{}{
		"columns":  table.Columns,
		"rows":     rows,
		"count":    len(rows),
		"exported": time.Now(),
	})
}

func (e *Exporter) exportExcel(writer io.Writer, doc Document) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := sheetName(doc.Title)
	index, err := file.NewSheet(sheet)
	if err != nil {
		return err
	}
	file.SetActiveSheet(index)
	if sheet != "Sheet1" {
		if err := file.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 12,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#F1F3F5"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 2},
		},
	})
	if err != nil {
		return err
	}

	table := doc.Table
	for col, header := range table.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := file.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return err
		}
		colName, _ := excelize.ColumnNumberToName(col + 1)
		if err := file.SetColWidth(sheet, colName, colName, 20); err != nil {
			return err
		}
	}

	for r, row := range table.Rows {
		for col, name := range table.Columns {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(sheet, cell, CellText(row.Values[name])); err != nil {
				return err
			}
		}
	}

	last, err := excelize.CoordinatesToCellName(len(table.Columns), table.Len()+1)
	if err != nil {
		return err
	}
	if err := file.AutoFilter(sheet, "A1:"+last, nil); err != nil {
		return err
	}

	return file.Write(writer)
}

// sheetName trims a title to the 31 characters a worksheet name allows
func sheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '-'
		}
		return r
	}, title)
	if name == "" {
		return "Sheet1"
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}
