package port

import "context"

// ModelInvoker sends an instruction prompt plus raw OCR text to a language model
// and returns the model's raw text output. Implementations are stateless per call
// and safe for concurrent use.
type ModelInvoker interface {
	Invoke(ctx context.Context, prompt, rawText string) (string, error)
}
