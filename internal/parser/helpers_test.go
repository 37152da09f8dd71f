package parser_test

const validRecordJSON = `{
  "student_info": {"name": "Jane A. Doe", "roll_number": "45B", "registration_number": null, "date_of_birth": "12/05/2004"},
  "exam_info": {"issue_date": "2022-06-30", "issue_place": null},
  "subjects": [
    {"subject_name": "Mathematics", "marks_obtained": 95, "maximum_marks": 100, "grade": "A1", "result": "PASS"},
    {"subject_name": "English", "marks_obtained": 88, "maximum_marks": 100, "grade": "A2", "result": "PASS"}
  ],
  "overall_result": {"total_marks": 432, "maximum_marks": 500, "percentage": 86.5, "grade": "A", "result_status": "PASS"},
  "llm_confidence": 0.92
}`

const janeDoeText = "Name: Jane A. Doe\nRoll No: 45B\nDOB: 12/05/2004\nTotal Marks: 432\nPercentage: 86.5"
