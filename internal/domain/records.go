package domain

import (
	"encoding/json"
	"fmt"
)

// Record is the typed view of a category's extracted fields.
type Record interface {
	Category() Category
}

// IssuerHolder is implemented by records carrying issuing or approving
// organisation names.
type IssuerHolder interface {
	IssuerFields() []*string
}

// DateHolder is implemented by records carrying date fields.
type DateHolder interface {
	DateFields() []*string
}

type CertificateFields struct {
	CertName    string `json:"cert_name"`
	CertType    string `json:"cert_type"`
	CertNo      string `json:"cert_no"`
	IssuedBy    string `json:"issued_by"`
	IssueDate   string `json:"issue_date"`
	ValidDate   string `json:"valid_date"`
	LastEndorse string `json:"last_endorse"`
	NextSurvey  string `json:"next_survey"`
	ShipName    string `json:"ship_name"`
	IMONumber   string `json:"imo_number"`
}

func (*CertificateFields) Category() Category { return CategoryCertificate }

func (r *CertificateFields) IssuerFields() []*string { return []*string{&r.IssuedBy} }

func (r *CertificateFields) DateFields() []*string {
	return []*string{&r.IssueDate, &r.ValidDate, &r.LastEndorse, &r.NextSurvey}
}

type TestReportFields struct {
	TestReportName string `json:"test_report_name"`
	ReportForm     string `json:"report_form"`
	TestReportNo   string `json:"test_report_no"`
	IssuedBy       string `json:"issued_by"`
	IssuedDate     string `json:"issued_date"`
	ValidDate      string `json:"valid_date"`
	Note           string `json:"note"`
}

func (*TestReportFields) Category() Category { return CategoryTestReport }

func (r *TestReportFields) IssuerFields() []*string { return []*string{&r.IssuedBy} }

func (r *TestReportFields) DateFields() []*string { return []*string{&r.IssuedDate, &r.ValidDate} }

type SurveyReportFields struct {
	SurveyReportName string `json:"survey_report_name"`
	ReportForm       string `json:"report_form"`
	SurveyReportNo   string `json:"survey_report_no"`
	IssuedBy         string `json:"issued_by"`
	IssuedDate       string `json:"issued_date"`
	ShipName         string `json:"ship_name"`
	ShipIMO          string `json:"ship_imo"`
	SurveyorName     string `json:"surveyor_name"`
	Note             string `json:"note"`
}

func (*SurveyReportFields) Category() Category { return CategorySurveyReport }

func (r *SurveyReportFields) IssuerFields() []*string { return []*string{&r.IssuedBy} }

func (r *SurveyReportFields) DateFields() []*string { return []*string{&r.IssuedDate} }

type DrawingManualFields struct {
	DocumentName string `json:"document_name"`
	DocumentNo   string `json:"document_no"`
	ApprovedBy   string `json:"approved_by"`
	ApprovedDate string `json:"approved_date"`
	Note         string `json:"note"`
}

func (*DrawingManualFields) Category() Category { return CategoryDrawingManual }

func (r *DrawingManualFields) IssuerFields() []*string { return []*string{&r.ApprovedBy} }

func (r *DrawingManualFields) DateFields() []*string { return []*string{&r.ApprovedDate} }

type ApprovalDocumentFields struct {
	ApprovalDocumentName string `json:"approval_document_name"`
	ApprovalDocumentNo   string `json:"approval_document_no"`
	ApprovedBy           string `json:"approved_by"`
	ApprovedDate         string `json:"approved_date"`
	Note                 string `json:"note"`
}

func (*ApprovalDocumentFields) Category() Category { return CategoryApprovalDocument }

func (r *ApprovalDocumentFields) IssuerFields() []*string { return []*string{&r.ApprovedBy} }

func (r *ApprovalDocumentFields) DateFields() []*string { return []*string{&r.ApprovedDate} }

type AuditReportFields struct {
	AuditReportName string `json:"audit_report_name"`
	AuditType       string `json:"audit_type"`
	ReportForm      string `json:"report_form"`
	AuditReportNo   string `json:"audit_report_no"`
	IssuedBy        string `json:"issued_by"`
	AuditDate       string `json:"audit_date"`
	AuditorName     string `json:"auditor_name"`
	ShipName        string `json:"ship_name"`
	ShipIMO         string `json:"ship_imo"`
	Note            string `json:"note"`
}

func (*AuditReportFields) Category() Category { return CategoryAuditReport }

func (r *AuditReportFields) IssuerFields() []*string { return []*string{&r.IssuedBy} }

func (r *AuditReportFields) DateFields() []*string { return []*string{&r.AuditDate} }

// NewRecord returns an empty typed record for a category.
func NewRecord(c Category) (Record, error) {
	switch c {
	case CategoryCertificate:
		return &CertificateFields{}, nil
	case CategoryTestReport:
		return &TestReportFields{}, nil
	case CategorySurveyReport:
		return &SurveyReportFields{}, nil
	case CategoryDrawingManual:
		return &DrawingManualFields{}, nil
	case CategoryApprovalDocument:
		return &ApprovalDocumentFields{}, nil
	case CategoryAuditReport:
		return &AuditReportFields{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
}

// DecodeRecord converts a FieldMap into the category's typed record.
func DecodeRecord(c Category, fm *FieldMap) (Record, error) {
	rec, err := NewRecord(c)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(fm.Map())
	if err != nil {
		return nil, fmt.Errorf("encoding fields: %w", err)
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decoding %s record: %w", c, err)
	}
	return rec, nil
}

// ApplyRecord writes the typed record's values back into fm. Fields the
// schema does not know about are ignored.
func ApplyRecord(rec Record, fm *FieldMap) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding %s record: %w", rec.Category(), err)
	}
	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("decoding %s record: %w", rec.Category(), err)
	}
	for _, name := range fm.Names() {
		if v, ok := values[name]; ok {
			fm.Set(name, v)
		}
	}
	return nil
}
