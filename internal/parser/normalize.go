package parser

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"marksheet/internal/domain"
)

var (
	studentFields = []string{"name", "roll_number", "registration_number", "date_of_birth"}
	examFields    = []string{"issue_date", "issue_place"}

	subjectTextFields   = []string{"grade", "result"}
	subjectNumberFields = []string{"marks_obtained", "maximum_marks"}

	overallTextFields   = []string{"grade", "result_status"}
	overallNumberFields = []string{"total_marks", "maximum_marks", "percentage"}
)

// blankMarkers are values models emit for an absent field.
var blankMarkers = map[string]bool{
	"":     true,
	"null": true,
	"none": true,
	"n/a":  true,
	"na":   true,
	"-":    true,
	"--":   true,
}

// NormalizeRecord turns a recovered JSON object into a StructuredRecord.
//
// Missing sections are defaulted, scalar values are coerced to their field types
// (numeric text such as "432/500" or "86.5%" becomes a number, blank markers
// become unset), unknown keys are dropped, and subjects without a name are
// removed. A section that is not an object, or a result that still fails the
// record schema, is rejected with domain.ErrInvalidRecordShape.
func NormalizeRecord(m map[string]any) (*domain.StructuredRecord, error) {
	FillDefaults(m)

	student, err := normalizeSection(m, "student_info", studentFields, nil)
	if err != nil {
		return nil, err
	}
	exam, err := normalizeSection(m, "exam_info", examFields, nil)
	if err != nil {
		return nil, err
	}
	overall, err := normalizeSection(m, "overall_result", overallTextFields, overallNumberFields)
	if err != nil {
		return nil, err
	}
	subjects, err := normalizeSubjects(m["subjects"])
	if err != nil {
		return nil, err
	}

	doc := map[string]any{
		"student_info":   student,
		"exam_info":      exam,
		"subjects":       subjects,
		"overall_result": overall,
		"llm_confidence": normalizeConfidence(m["llm_confidence"]),
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding normalized record: %w", err)
	}
	if err := validateRecord(data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecordShape, err)
	}

	record := domain.NewStructuredRecord()
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecordShape, err)
	}
	if record.Subjects == nil {
		record.Subjects = []domain.SubjectRecord{}
	}
	return record, nil
}

func normalizeSection(m map[string]any, key string, textFields, numberFields []string) (map[string]any, error) {
	section, ok := m[key].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, not an object", domain.ErrInvalidRecordShape, key, m[key])
	}
	return normalizeFields(section, key, textFields, numberFields)
}

func normalizeFields(src map[string]any, path string, textFields, numberFields []string) (map[string]any, error) {
	out := make(map[string]any, len(textFields)+len(numberFields))
	for _, f := range textFields {
		v, err := coerceText(src[f])
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", domain.ErrInvalidRecordShape, path, f, err)
		}
		out[f] = v
	}
	for _, f := range numberFields {
		v, err := coerceNumber(src[f])
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", domain.ErrInvalidRecordShape, path, f, err)
		}
		out[f] = v
	}
	return out, nil
}

func normalizeSubjects(v any) ([]any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: subjects is %T, not an array", domain.ErrInvalidRecordShape, v)
	}

	subjects := make([]any, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, err := coerceText(entry["subject_name"])
		if err != nil || name == nil {
			continue
		}
		fields, err := normalizeFields(entry, fmt.Sprintf("subjects[%d]", i), subjectTextFields, subjectNumberFields)
		if err != nil {
			return nil, err
		}
		fields["subject_name"] = name
		subjects = append(subjects, fields)
	}
	return subjects, nil
}

// coerceText returns nil for blank markers, the trimmed string otherwise.
// Numbers are formatted without trailing zeros.
func coerceText(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		s := strings.TrimSpace(t)
		if blankMarkers[strings.ToLower(s)] {
			return nil, nil
		}
		return s, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return nil, fmt.Errorf("unexpected %T", v)
	}
}

// coerceNumber accepts numbers and numeric text. "432/500" yields 432, "86.5%"
// yields 86.5, and text that is not numeric (for example "AB" for absent)
// yields nil.
func coerceNumber(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case float64:
		if t < 0 {
			return nil, nil
		}
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if i := strings.Index(s, "/"); i >= 0 {
			s = strings.TrimSpace(s[:i])
		}
		s = strings.TrimSuffix(s, "%")
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, nil
		}
		return f, nil
	case bool:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected %T", v)
	}
}

// normalizeConfidence clamps the model's self-reported confidence into [0,1].
// Values that are not numeric at all fall back to DefaultModelConfidence.
func normalizeConfidence(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil {
			return DefaultModelConfidence
		}
		f = parsed
	default:
		return DefaultModelConfidence
	}
	switch {
	case math.IsNaN(f):
		return DefaultModelConfidence
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
