package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"marksheet/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// subjectColumns defines the header row of the subject table.
var subjectColumns = []string{
	"Subject",
	"Marks Obtained",
	"Maximum Marks",
	"Grade",
	"Result",
}

// WriteCSV writes resp as CSV: a BOM, the subject table with one row per
// subject, a blank separator row, then a two-column summary section.
func WriteCSV(w io.Writer, resp *domain.MarksheetResponse) error {
	if _, err := w.Write(BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(subjectColumns); err != nil {
		return err
	}
	for i := range resp.Subjects {
		if err := cw.Write(subjectRow(&resp.Subjects[i])); err != nil {
			return err
		}
	}

	// Separator row keeps the summary readable when opened in a spreadsheet.
	if err := cw.Write([]string{""}); err != nil {
		return err
	}
	if err := cw.Write([]string{"Field", "Value"}); err != nil {
		return err
	}
	for _, kv := range summaryRows(resp) {
		if err := cw.Write([]string{kv[0], kv[1]}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func subjectRow(s *domain.SubjectRecord) []string {
	return []string{
		s.SubjectName,
		formatNumber(s.MarksObtained),
		formatNumber(s.MaximumMarks),
		formatText(s.Grade),
		formatText(s.Result),
	}
}

// summaryRows flattens the non-tabular parts of a response into label/value pairs.
func summaryRows(resp *domain.MarksheetResponse) [][2]string {
	return [][2]string{
		{"Name", formatText(resp.StudentInfo.Name)},
		{"Roll Number", formatText(resp.StudentInfo.RollNumber)},
		{"Registration Number", formatText(resp.StudentInfo.RegistrationNumber)},
		{"Date of Birth", formatText(resp.StudentInfo.DateOfBirth)},
		{"Issue Date", formatText(resp.ExamInfo.IssueDate)},
		{"Issue Place", formatText(resp.ExamInfo.IssuePlace)},
		{"Total Marks", formatNumber(resp.OverallResult.TotalMarks)},
		{"Maximum Marks", formatNumber(resp.OverallResult.MaximumMarks)},
		{"Percentage", formatNumber(resp.OverallResult.Percentage)},
		{"Grade", formatText(resp.OverallResult.Grade)},
		{"Result Status", formatText(resp.OverallResult.ResultStatus)},
		{"Overall Confidence", strconv.FormatFloat(resp.Confidence.OverallConfidence, 'f', 2, 64)},
		{"Source", string(resp.Extraction.Source)},
		{"Request ID", resp.Extraction.RequestID},
	}
}

func formatText(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatNumber(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for the Content-Disposition header.
// Format: {sanitized_document_name}_{YYYY-MM-DD}.{ext}. The document's own
// extension is dropped; an empty name becomes "marksheet".
func BuildFilename(documentName, ext string) string {
	base := documentName
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	sanitized := SanitizeFilename(base)
	if sanitized == "" {
		sanitized = "marksheet"
	}
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
