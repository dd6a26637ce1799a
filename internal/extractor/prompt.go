package extractor

import (
	"fmt"
	"strings"

	"fleetdocs/internal/domain"
)

// BuildFieldPrompt returns the extraction prompt for a category, embedding
// the analysed document text.
func BuildFieldPrompt(schema domain.Schema, summary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a maritime document data extraction assistant. The text below was recognised from a %s.\n", schema.Label)
	b.WriteString("Extract the following fields and return them as a single flat JSON object.\n\n")
	b.WriteString("FIELDS:\n")
	for _, f := range schema.Fields {
		fmt.Fprintf(&b, "- %s: %s", f.Name, f.Description)
		switch f.Kind {
		case domain.FieldDate:
			b.WriteString(" (date, format DD/MM/YYYY)")
		case domain.FieldIssuer:
			b.WriteString(" (full organisation name as printed)")
		}
		b.WriteString("\n")
	}
	b.WriteString(`
IMPORTANT INSTRUCTIONS:
- Use exactly the field names above as JSON keys. Include every key.
- Use an empty string for any field that is not present in the text. Do not guess.
- If a date appears both in words and as a bracketed numeric date, e.g. "14th February 1983 (14/02/1983)", use the bracketed one.
- Return ONLY valid JSON with no markdown formatting, no code fences and no explanation.

DOCUMENT TEXT:
`)
	b.WriteString(summary)
	b.WriteString("\n")
	return b.String()
}
