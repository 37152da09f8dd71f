package parser

import (
	"regexp"
	"strconv"
	"strings"

	"marksheet/internal/domain"
)

// FallbackConfidence is the model confidence stamped on every fallback record,
// however many fields matched.
const FallbackConfidence = 0.05

// Labels are matched case-insensitively. The captured name must still begin
// with a capital letter, so the case-folding is scoped to the label only.
var (
	reName       = regexp.MustCompile(`(?m)\b(?i:name)[ \t]*[:\-]?[ \t]*([A-Z][A-Za-z. ]{2,79})`)
	reRollNumber = regexp.MustCompile(`(?mi)\broll[ \t]*(?:number|no\.?)?[ \t]*[:\-]?[ \t]*([A-Z0-9][A-Z0-9\-]*)`)
	reDOBShort   = regexp.MustCompile(`(?mi)\bDOB[ \t]*[:\-]?[ \t]*(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})\b`)
	reDOBLong    = regexp.MustCompile(`(?mi)\bdate[ \t]+of[ \t]+birth[ \t]*[:\-]?[ \t]*(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})\b`)
	reTotal      = regexp.MustCompile(`(?mi)\btotal[ \t]*(?:marks)?[ \t]*[:\-]?[ \t]*(\d{1,4})\b`)
	rePercentage = regexp.MustCompile(`(?mi)\bpercentage[ \t]*[:\-]?[ \t]*(\d{1,3}(?:\.\d+)?)`)
)

// ExtractFallback pulls a handful of high-confidence fields straight from the
// OCR text without a model call. It never fails; with no matches it returns an
// empty record. Every field is searched independently and the first match wins.
func ExtractFallback(rawText string) *domain.StructuredRecord {
	record := domain.NewStructuredRecord()
	record.ModelConfidence = FallbackConfidence

	if name := firstMatch(reName, rawText); name != "" {
		record.StudentInfo.Name = domain.StringPtr(name)
	}
	if roll := firstMatch(reRollNumber, rawText); roll != "" {
		record.StudentInfo.RollNumber = domain.StringPtr(roll)
	}

	dob := firstMatch(reDOBShort, rawText)
	if dob == "" {
		dob = firstMatch(reDOBLong, rawText)
	}
	if dob != "" {
		record.StudentInfo.DateOfBirth = domain.StringPtr(dob)
	}

	if total := firstMatch(reTotal, rawText); isDigits(total) {
		if v, err := strconv.ParseFloat(total, 64); err == nil {
			record.OverallResult.TotalMarks = domain.Float64Ptr(v)
		}
	}
	if pct := firstMatch(rePercentage, rawText); pct != "" {
		if v, err := strconv.ParseFloat(pct, 64); err == nil {
			record.OverallResult.Percentage = domain.Float64Ptr(v)
		}
	}

	return record
}

func firstMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
