package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"marksheet/internal/domain"
)

// Sheet names used by WriteXLSX.
const (
	SheetStudent  = "Student"
	SheetSubjects = "Subjects"
	SheetResult   = "Result"
)

// WriteXLSX writes resp as an XLSX workbook with three sheets: student and
// exam details, the subject table, and the overall result with confidence.
func WriteXLSX(w io.Writer, resp *domain.MarksheetResponse) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// The default workbook starts with "Sheet1"; reuse it for the first sheet.
	if err := f.SetSheetName(f.GetSheetName(0), SheetStudent); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetSubjects, SheetResult} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	student := [][]interface{}{
		{"Field", "Value"},
		{"Name", cellText(resp.StudentInfo.Name)},
		{"Roll Number", cellText(resp.StudentInfo.RollNumber)},
		{"Registration Number", cellText(resp.StudentInfo.RegistrationNumber)},
		{"Date of Birth", cellText(resp.StudentInfo.DateOfBirth)},
		{"Issue Date", cellText(resp.ExamInfo.IssueDate)},
		{"Issue Place", cellText(resp.ExamInfo.IssuePlace)},
	}
	if err := writeRows(f, SheetStudent, student); err != nil {
		return err
	}

	subjects := make([][]interface{}, 0, len(resp.Subjects)+1)
	header := make([]interface{}, len(subjectColumns))
	for i, c := range subjectColumns {
		header[i] = c
	}
	subjects = append(subjects, header)
	for i := range resp.Subjects {
		s := &resp.Subjects[i]
		subjects = append(subjects, []interface{}{
			s.SubjectName,
			cellNumber(s.MarksObtained),
			cellNumber(s.MaximumMarks),
			cellText(s.Grade),
			cellText(s.Result),
		})
	}
	if err := writeRows(f, SheetSubjects, subjects); err != nil {
		return err
	}

	result := [][]interface{}{
		{"Field", "Value"},
		{"Total Marks", cellNumber(resp.OverallResult.TotalMarks)},
		{"Maximum Marks", cellNumber(resp.OverallResult.MaximumMarks)},
		{"Percentage", cellNumber(resp.OverallResult.Percentage)},
		{"Grade", cellText(resp.OverallResult.Grade)},
		{"Result Status", cellText(resp.OverallResult.ResultStatus)},
		{"Overall Confidence", resp.Confidence.OverallConfidence},
		{"Source", string(resp.Extraction.Source)},
		{"Request ID", resp.Extraction.RequestID},
	}
	if err := writeRows(f, SheetResult, result); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// cellText returns nil for absent values so the cell stays empty.
func cellText(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func cellNumber(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
