package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/export"
)

func exportFormat(r *http.Request) (export.ExportFormat, error) {
	return export.ParseFormat(r.URL.Query().Get("format"))
}

// GetExportFormats returns the supported export formats
func GetExportFormats(w http.ResponseWriter, r *http.Request) {
	formats := []map[string]string{
		{"format": string(export.FormatCSV), "name": "CSV", "content_type": export.FormatCSV.ContentType()},
		{"format": string(export.FormatExcel), "name": "Excel", "content_type": export.FormatExcel.ContentType()},
		{"format": string(export.FormatJSON), "name": "JSON", "content_type": export.FormatJSON.ContentType()},
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"formats": formats,
	})
}

// Export downloads the full active-level table of the session
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	format, err := exportFormat(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Buffer so a failed export never sends a partial file
	var buf bytes.Buffer
	result, err := h.exporter.Export(&buf, format, s.Document())
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	w.Header().Set("X-Export-Rows", strconv.Itoa(result.RowCount))
	w.Header().Set("X-Export-Duration", result.Duration.String())
	w.Write(buf.Bytes())
}

// Print returns a print-ready HTML page of the active-level table
func (h *ReportHandler) Print(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.Print(&buf, s.Document()); err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
