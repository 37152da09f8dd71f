package domain

import "time"

// StudentInfo identifies the candidate. Nil fields were not present in the source.
type StudentInfo struct {
	Name               *string `json:"name"`
	RollNumber         *string `json:"roll_number"`
	RegistrationNumber *string `json:"registration_number"`
	DateOfBirth        *string `json:"date_of_birth"`
}

// ExamInfo describes where and when the marksheet was issued.
type ExamInfo struct {
	IssueDate  *string `json:"issue_date"`
	IssuePlace *string `json:"issue_place"`
}

// SubjectRecord is one subject row in document order. SubjectName is always set.
type SubjectRecord struct {
	SubjectName   string   `json:"subject_name"`
	MarksObtained *float64 `json:"marks_obtained"`
	MaximumMarks  *float64 `json:"maximum_marks"`
	Grade         *string  `json:"grade"`
	Result        *string  `json:"result"`
}

// OverallResult holds the aggregate result as printed on the marksheet.
type OverallResult struct {
	TotalMarks   *float64 `json:"total_marks"`
	MaximumMarks *float64 `json:"maximum_marks"`
	Percentage   *float64 `json:"percentage"`
	Grade        *string  `json:"grade"`
	ResultStatus *string  `json:"result_status"`
}

// StructuredRecord is the canonical extraction output. All sections are always
// present; a partial record has nil fields, never missing sections.
type StructuredRecord struct {
	StudentInfo     StudentInfo     `json:"student_info"`
	ExamInfo        ExamInfo        `json:"exam_info"`
	Subjects        []SubjectRecord `json:"subjects"`
	OverallResult   OverallResult   `json:"overall_result"`
	ModelConfidence float64         `json:"llm_confidence"`
}

// NewStructuredRecord returns an empty record with a non-nil subject list.
func NewStructuredRecord() *StructuredRecord {
	return &StructuredRecord{Subjects: []SubjectRecord{}}
}

// ConfidenceScore is the completeness-based confidence attached to a response.
type ConfidenceScore struct {
	OverallConfidence float64            `json:"overall_confidence"`
	FieldConfidence   map[string]float64 `json:"field_confidence"`
}

// ExtractionMeta records how a response was produced.
type ExtractionMeta struct {
	RequestID   string       `json:"request_id"`
	Source      RecordSource `json:"source"`
	Stage       string       `json:"stage"`
	Attempts    int          `json:"attempts"`
	FileName    string       `json:"file_name"`
	FileType    FileType     `json:"file_type"`
	TextLength  int          `json:"text_length"`
	ProcessedAt time.Time    `json:"processed_at"`
}

// MarksheetResponse is the payload returned to callers.
type MarksheetResponse struct {
	StudentInfo   StudentInfo     `json:"student_info"`
	ExamInfo      ExamInfo        `json:"exam_info"`
	Subjects      []SubjectRecord `json:"subjects"`
	OverallResult OverallResult   `json:"overall_result"`
	Confidence    ConfidenceScore `json:"confidence"`
	Extraction    ExtractionMeta  `json:"extraction"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 { return &f }
