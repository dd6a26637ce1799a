// Package export writes a ship's analysed document register as CSV or XLSX.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fleetdocs/internal/domain"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a requested format. Empty selects XLSX.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidInput, s)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Write exports records grouped by category, in category order. Categories
// without records are left out.
func Write(w io.Writer, format Format, shipID string, records map[domain.Category][]domain.AnalysisRecord) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, records)
	case FormatXLSX:
		return writeXLSX(w, shipID, records)
	}
	return fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidInput, format)
}

var leadingColumns = []string{"File Name", "Status"}

var trailingColumns = []string{"Confidence", "Processing Method", "Upload Status", "Notes", "Analysed At"}

// Columns returns the header row for a category.
func Columns(schema domain.Schema) []string {
	cols := make([]string, 0, len(leadingColumns)+len(schema.Fields)+len(trailingColumns))
	cols = append(cols, leadingColumns...)
	for _, f := range schema.Fields {
		cols = append(cols, FieldHeader(f.Name))
	}
	return append(cols, trailingColumns...)
}

// FieldHeader turns a field name into a column title: "cert_no" becomes
// "Cert No" and "imo_number" becomes "IMO Number".
func FieldHeader(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		switch {
		case w == "imo":
			words[i] = "IMO"
		case w != "":
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// recordToRow fills metadata columns always and field columns only when the
// stored fields decode.
func recordToRow(schema domain.Schema, rec *domain.AnalysisRecord) []string {
	row := make([]string, 0, len(leadingColumns)+len(schema.Fields)+len(trailingColumns))
	row = append(row, rec.FileName, string(rec.Status))

	fields, err := rec.FieldMap()
	for _, f := range schema.Fields {
		if err != nil {
			row = append(row, "")
			continue
		}
		row = append(row, fields.Get(f.Name))
	}

	return append(row,
		strconv.FormatFloat(rec.Confidence, 'f', 2, 64),
		string(rec.ProcessingMethod),
		string(rec.UploadStatus),
		formatNotes(rec.Notes),
		formatTime(rec.CreatedAt),
	)
}

func formatNotes(raw json.RawMessage) string {
	var notes []string
	if len(raw) == 0 || json.Unmarshal(raw, &notes) != nil {
		return ""
	}
	return strings.Join(notes, "; ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "ship"
	}
	return s
}

// BuildFilename returns {ship}_documents_{YYYY-MM-DD}.{ext}.
func BuildFilename(shipID string, format Format, now time.Time) string {
	return fmt.Sprintf("%s_documents_%s.%s", SanitizeFilename(shipID), now.Format("2006-01-02"), format)
}
