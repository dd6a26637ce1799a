package domain

import "fmt"

// FieldKind drives post-extraction normalization.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldDate   FieldKind = "date"
	FieldIssuer FieldKind = "issuer"
)

// FieldSpec describes one extractable field.
type FieldSpec struct {
	Name        string    `json:"name"`
	Kind        FieldKind `json:"kind"`
	Description string    `json:"description"`
}

// Schema is the ordered field list extracted for a document category.
type Schema struct {
	Category     Category    `json:"category"`
	Label        string      `json:"label"`
	PrimaryField string      `json:"primary_field"`
	Fields       []FieldSpec `json:"fields"`
}

// FieldNames returns the schema's field names in order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// NewFieldMap returns an empty FieldMap covering every schema field.
func (s Schema) NewFieldMap() *FieldMap {
	return NewFieldMap(s.FieldNames()...)
}

// FieldsOfKind returns the names of fields with the given kind.
func (s Schema) FieldsOfKind(kind FieldKind) []string {
	var out []string
	for _, f := range s.Fields {
		if f.Kind == kind {
			out = append(out, f.Name)
		}
	}
	return out
}

func specText(name, desc string) FieldSpec { return FieldSpec{Name: name, Kind: FieldText, Description: desc} }
func specDate(name, desc string) FieldSpec { return FieldSpec{Name: name, Kind: FieldDate, Description: desc} }
func specIssuer(name, desc string) FieldSpec { return FieldSpec{Name: name, Kind: FieldIssuer, Description: desc} }

var schemas = map[Category]Schema{
	CategoryCertificate: {
		Category:     CategoryCertificate,
		Label:        "Ship Certificate",
		PrimaryField: "cert_name",
		Fields: []FieldSpec{
			specText("cert_name", "Full title of the certificate"),
			specText("cert_type", "Full Term, Interim, Provisional, Short Term or Conditional"),
			specText("cert_no", "Certificate number"),
			specIssuer("issued_by", "Organisation that issued the certificate"),
			specDate("issue_date", "Date of issue"),
			specDate("valid_date", "Expiry date"),
			specDate("last_endorse", "Date of the most recent annual endorsement"),
			specDate("next_survey", "Due date of the next survey"),
			specText("ship_name", "Name of the ship"),
			specText("imo_number", "IMO number of the ship"),
		},
	},
	CategoryTestReport: {
		Category:     CategoryTestReport,
		Label:        "Test Report",
		PrimaryField: "test_report_name",
		Fields: []FieldSpec{
			specText("test_report_name", "Title of the test report"),
			specText("report_form", "Form identifier printed on the report"),
			specText("test_report_no", "Report number"),
			specIssuer("issued_by", "Company or authority that issued the report"),
			specDate("issued_date", "Date the report was issued"),
			specDate("valid_date", "Date until which the test remains valid"),
			specText("note", "Remarks or conditions noted on the report"),
		},
	},
	CategorySurveyReport: {
		Category:     CategorySurveyReport,
		Label:        "Survey Report",
		PrimaryField: "survey_report_name",
		Fields: []FieldSpec{
			specText("survey_report_name", "Title of the survey report"),
			specText("report_form", "Form identifier printed on the report"),
			specText("survey_report_no", "Report number"),
			specIssuer("issued_by", "Classification society or authority"),
			specDate("issued_date", "Date the report was issued"),
			specText("ship_name", "Name of the ship"),
			specText("ship_imo", "IMO number of the ship"),
			specText("surveyor_name", "Name of the attending surveyor"),
			specText("note", "Findings or recommendations"),
		},
	},
	CategoryDrawingManual: {
		Category:     CategoryDrawingManual,
		Label:        "Drawing / Manual",
		PrimaryField: "document_name",
		Fields: []FieldSpec{
			specText("document_name", "Title of the drawing or manual"),
			specText("document_no", "Drawing or document number"),
			specIssuer("approved_by", "Organisation that approved the drawing"),
			specDate("approved_date", "Approval date"),
			specText("note", "Revision or remarks"),
		},
	},
	CategoryApprovalDocument: {
		Category:     CategoryApprovalDocument,
		Label:        "Approval Document",
		PrimaryField: "approval_document_name",
		Fields: []FieldSpec{
			specText("approval_document_name", "Title of the approval document"),
			specText("approval_document_no", "Approval number"),
			specIssuer("approved_by", "Approving organisation"),
			specDate("approved_date", "Approval date"),
			specText("note", "Scope or conditions of approval"),
		},
	},
	CategoryAuditReport: {
		Category:     CategoryAuditReport,
		Label:        "Audit Report",
		PrimaryField: "audit_report_name",
		Fields: []FieldSpec{
			specText("audit_report_name", "Title of the audit report"),
			specText("audit_type", "ISM, ISPS, MLC or internal"),
			specText("report_form", "Form identifier printed on the report"),
			specText("audit_report_no", "Report number"),
			specIssuer("issued_by", "Auditing organisation"),
			specDate("audit_date", "Date of the audit"),
			specText("auditor_name", "Name of the lead auditor"),
			specText("ship_name", "Name of the ship"),
			specText("ship_imo", "IMO number of the ship"),
			specText("note", "Non-conformities or observations"),
		},
	},
}

var categoryOrder = []Category{
	CategoryCertificate,
	CategoryTestReport,
	CategorySurveyReport,
	CategoryDrawingManual,
	CategoryApprovalDocument,
	CategoryAuditReport,
}

// Categories returns every supported category in display order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := schemas[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// SchemaFor returns the field schema of a category.
func SchemaFor(c Category) (Schema, error) {
	s, ok := schemas[c]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	fields := make([]FieldSpec, len(s.Fields))
	copy(fields, s.Fields)
	s.Fields = fields
	return s, nil
}
