package export

import (
	"html/template"
	"io"
	"strings"
)

var printTemplate = template.Must(template.New("print").Funcs(template.FuncMap{
	"cell": CellText,
}).Parse(`<html>
  <head>
    <title>{{.Title}}</title>
    <style>
      body { font-family: Arial, sans-serif; padding: 16px; }
      h1 { margin: 0 0 4px 0; font-size: 18px; }
      h2 { margin: 0 0 12px 0; font-size: 14px; color: #555; }
      table { border-collapse: collapse; width: 100%; font-size: 12px; }
      th { padding: 8px; border: 1px solid #ccc; background: #f1f3f5; text-align: left; }
      td { padding: 6px; border: 1px solid #ccc; }
    </style>
  </head>
  <body>
    {{- if .Institute}}
    <div style="font-weight:bold; margin-bottom:4px;">{{.Institute}}</div>
    {{- end}}
    <h1>{{.Title}}</h1>
    <h2>{{.Filters}}</h2>
    <table>
      <thead><tr>{{range .Table.Columns}}<th>{{.}}</th>{{end}}</tr></thead>
      <tbody>
      {{- $cols := .Table.Columns}}
      {{- range .Table.Rows}}
        <tr>{{$row := .Values}}{{range $cols}}<td>{{cell (index $row .)}}</td>{{end}}</tr>
      {{- end}}
      </tbody>
    </table>
  </body>
</html>
`))

// FilterSummary joins the non-empty filter labels into the printed subtitle,
// e.g. "Branch: ALL | Product: Gold Loan | Date: From 2024-01-01"
func FilterSummary(branch, product, dateRange string) string {
	parts := []string{"Branch: " + branch}
	if product != "" {
		parts = append(parts, "Product: "+product)
	}
	if dateRange != "" {
		parts = append(parts, "Date: "+dateRange)
	}
	return strings.Join(parts, " | ")
}

// Print writes a print-ready HTML page of the document. Values are escaped.
func (e *Exporter) Print(writer io.Writer, doc Document) error {
	if doc.Table.Len() == 0 {
		return ErrNothingToExport
	}
	return printTemplate.Execute(writer, doc)
}
