package parser

import "strings"

const rawTextHeader = "Raw OCR Text:"

// BuildExtractionPrompt returns the first-attempt instructions for a marksheet.
func BuildExtractionPrompt() string {
	return `You are given raw OCR text extracted from an academic marksheet. Extract the data into the following JSON structure.

RULES:
- Use only information explicitly present in the text. Do NOT guess missing values.
- If a field is not found, set it to null.
- Do NOT calculate totals or percentages. Copy them only if they are printed.
- Numbers must be plain JSON numbers: write 432 for "432/500" and 86.5 for "86.5%".
- "subjects" is an array with one object per subject, in the order they appear.
- "llm_confidence" is required: your own estimate between 0 and 1 of how reliable this extraction is.

Return ONLY valid JSON with no markdown formatting, no code fences and no explanation.

` + RecordSchemaExample
}

// BuildCorrectionPrompt returns the instructions for the second attempt, sent
// after the first response could not be used.
func BuildCorrectionPrompt() string {
	return `Your previous response was not valid JSON. Return ONLY the JSON object, nothing else.

Extract the marksheet data from the raw OCR text below into exactly this structure, using null for any field that is not present:

` + RecordSchemaExample
}

// BuildFinalCorrectionPrompt asks the model to pull the conforming JSON object
// out of its own earlier output.
func BuildFinalCorrectionPrompt(previousOutput string) string {
	var b strings.Builder
	b.WriteString("The text between the markers below is an earlier response to a marksheet extraction request. ")
	b.WriteString("It was supposed to be a single JSON object but could not be parsed.\n\n")
	b.WriteString("Extract ONLY the JSON object that matches this structure and return it with no other text. ")
	b.WriteString("Use the raw OCR text that follows to fill anything the earlier response lost; use null where the data is absent.\n\n")
	b.WriteString(RecordSchemaExample)
	b.WriteString("\n\n--- EARLIER RESPONSE ---\n")
	b.WriteString(previousOutput)
	b.WriteString("\n--- END EARLIER RESPONSE ---")
	return b.String()
}

// RawTextMessage labels the OCR text for the user turn. Providers with a
// separate system prompt send this as the whole user message.
func RawTextMessage(rawText string) string {
	return rawTextHeader + "\n" + rawText
}

// ComposeMessage joins instructions and OCR text into a single user message for
// providers that take one text block.
func ComposeMessage(prompt, rawText string) string {
	return prompt + "\n\n" + RawTextMessage(rawText)
}
