// Package confidence scores how complete an extracted marksheet record is.
package confidence

import (
	"math"

	"marksheet/internal/domain"
)

// Weights for the overall score. The overall_result section is reported per
// section but does not contribute.
const (
	StudentWeight = 0.4
	SubjectWeight = 0.4
	ModelWeight   = 0.2
)

// Section keys in ConfidenceScore.FieldConfidence.
const (
	SectionStudent  = "student_info"
	SectionSubjects = "subjects"
	SectionOverall  = "overall_result"
)

// Score combines field completeness with the model's self-reported confidence.
// All values are rounded to two decimals.
func Score(record *domain.StructuredRecord) domain.ConfidenceScore {
	student := StudentCompleteness(record.StudentInfo)
	subjects := SubjectsCompleteness(record.Subjects)
	overall := OverallCompleteness(record.OverallResult)

	total := StudentWeight*student + SubjectWeight*subjects + ModelWeight*clamp(record.ModelConfidence)

	return domain.ConfidenceScore{
		OverallConfidence: round2(total),
		FieldConfidence: map[string]float64{
			SectionStudent:  round2(student),
			SectionSubjects: round2(subjects),
			SectionOverall:  round2(overall),
		},
	}
}

// StudentCompleteness is the fraction of identity fields present.
func StudentCompleteness(s domain.StudentInfo) float64 {
	return completeness(
		present(s.Name),
		present(s.RollNumber),
		present(s.RegistrationNumber),
		present(s.DateOfBirth),
	)
}

// SubjectsCompleteness averages name, marks and grade presence over all
// subjects. No subjects scores 0.
func SubjectsCompleteness(subjects []domain.SubjectRecord) float64 {
	if len(subjects) == 0 {
		return 0
	}
	var sum float64
	for _, s := range subjects {
		sum += completeness(s.SubjectName != "", s.MarksObtained != nil, present(s.Grade))
	}
	return sum / float64(len(subjects))
}

// OverallCompleteness is the fraction of aggregate result fields present.
func OverallCompleteness(o domain.OverallResult) float64 {
	return completeness(
		o.TotalMarks != nil,
		o.Percentage != nil,
		present(o.Grade),
		present(o.ResultStatus),
	)
}

func present(s *string) bool {
	return s != nil && *s != ""
}

func completeness(fields ...bool) float64 {
	if len(fields) == 0 {
		return 0
	}
	n := 0
	for _, ok := range fields {
		if ok {
			n++
		}
	}
	return float64(n) / float64(len(fields))
}

func clamp(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
