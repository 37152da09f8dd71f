package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RecordSchemaExample is the JSON shape shown to the model. Keys must match
// domain.StructuredRecord.
const RecordSchemaExample = `{
  "student_info": {
    "name": "",
    "roll_number": "",
    "registration_number": "",
    "date_of_birth": ""
  },
  "exam_info": {
    "issue_date": "",
    "issue_place": ""
  },
  "subjects": [
    {
      "subject_name": "",
      "marks_obtained": 0,
      "maximum_marks": 0,
      "grade": "",
      "result": ""
    }
  ],
  "overall_result": {
    "total_marks": 0,
    "maximum_marks": 0,
    "percentage": 0,
    "grade": "",
    "result_status": ""
  },
  "llm_confidence": 0.0
}`

// RecordJSONSchema returns the JSON Schema a normalized record must satisfy.
func RecordJSONSchema() map[string]any {
	str := map[string]any{"type": []any{"string", "null"}}
	num := map[string]any{"type": []any{"number", "null"}, "minimum": 0}

	return map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": []any{"student_info", "exam_info", "subjects", "overall_result", "llm_confidence"},
		"properties": map[string]any{
			"student_info": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":                str,
					"roll_number":         str,
					"registration_number": str,
					"date_of_birth":       str,
				},
			},
			"exam_info": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"issue_date":  str,
					"issue_place": str,
				},
			},
			"subjects": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"subject_name"},
					"properties": map[string]any{
						"subject_name":   map[string]any{"type": "string", "minLength": 1},
						"marks_obtained": num,
						"maximum_marks":  num,
						"grade":          str,
						"result":         str,
					},
				},
			},
			"overall_result": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"total_marks":   num,
					"maximum_marks": num,
					"percentage":    num,
					"grade":         str,
					"result_status": str,
				},
			},
			"llm_confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		},
	}
}

var (
	recordSchemaOnce sync.Once
	recordSchema     *jsonschema.Schema
	recordSchemaErr  error
)

func compiledRecordSchema() (*jsonschema.Schema, error) {
	recordSchemaOnce.Do(func() {
		b, err := json.Marshal(RecordJSONSchema())
		if err != nil {
			recordSchemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("marksheet.json", bytes.NewReader(b)); err != nil {
			recordSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		recordSchema, recordSchemaErr = compiler.Compile("marksheet.json")
	})
	return recordSchema, recordSchemaErr
}

// validateRecord checks a JSON-encoded document against RecordJSONSchema.
func validateRecord(data []byte) error {
	schema, err := compiledRecordSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	return schema.Validate(v)
}
