package parser

import (
	"context"
	"log"
	"time"

	"marksheet/internal/domain"
	"marksheet/internal/port"
)

// Stage is a state of the extraction protocol.
type Stage string

const (
	StageAttempt1        Stage = "attempt_1"
	StageAttempt2        Stage = "attempt_2"
	StageFinalCorrection Stage = "final_correction"
	StageFallback        Stage = "fallback"
	StageDone            Stage = "done"
)

// DefaultRetryDelay is the pause between the first and second attempt.
const DefaultRetryDelay = 600 * time.Millisecond

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	// outcomeRetryable means another model attempt follows.
	outcomeRetryable
	// outcomeExhausted means the model path is finished and the fallback runs next.
	outcomeExhausted
)

type stageOutcome struct {
	kind   outcomeKind
	record *domain.StructuredRecord
	output string
	err    error
}

// AttemptLog records one model invocation.
type AttemptLog struct {
	Stage            Stage         `json:"stage"`
	Duration         time.Duration `json:"duration"`
	InvocationFailed bool          `json:"invocation_failed"`
	Error            string        `json:"error,omitempty"`
}

// Result is the outcome of one extraction run. Record is never nil.
type Result struct {
	Record   *domain.StructuredRecord
	Source   domain.RecordSource
	Stage    Stage
	Attempts []AttemptLog
}

// Orchestrator turns OCR text into a StructuredRecord with at most three model
// invocations, falling back to pattern extraction when all of them fail.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	invoker    port.ModelInvoker
	retryDelay time.Duration
	sleep      func(time.Duration)
}

// NewOrchestrator creates an Orchestrator. A zero retryDelay uses DefaultRetryDelay.
func NewOrchestrator(invoker port.ModelInvoker, retryDelay time.Duration) *Orchestrator {
	return NewOrchestratorWithSleep(invoker, retryDelay, time.Sleep)
}

// NewOrchestratorWithSleep creates an Orchestrator with a custom sleep function (for testing).
func NewOrchestratorWithSleep(invoker port.ModelInvoker, retryDelay time.Duration, sleep func(time.Duration)) *Orchestrator {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Orchestrator{
		invoker:    invoker,
		retryDelay: retryDelay,
		sleep:      sleep,
	}
}

// Extract runs the attempt sequence for rawText. It never fails: total
// exhaustion of the model path yields the fallback record.
func (o *Orchestrator) Extract(ctx context.Context, rawText string) *Result {
	res := &Result{}
	stage := StageAttempt1
	var previousOutput string

	for stage != StageDone {
		if stage == StageFallback {
			res.Record = ExtractFallback(rawText)
			res.Source = domain.RecordSourceFallback
			res.Stage = StageFallback
			stage = StageDone
			continue
		}

		out := o.runStage(ctx, stage, o.promptFor(stage, previousOutput), rawText, res)
		if out.kind == outcomeSuccess {
			res.Record = out.record
			res.Source = domain.RecordSourceModel
			res.Stage = stage
			stage = StageDone
			continue
		}

		if out.output != "" {
			previousOutput = out.output
		}
		next := nextStage(stage, out.kind)
		if stage == StageAttempt1 && next == StageAttempt2 {
			o.sleep(o.retryDelay)
		}
		stage = next
	}

	return res
}

func (o *Orchestrator) promptFor(stage Stage, previousOutput string) string {
	switch stage {
	case StageAttempt2:
		return BuildCorrectionPrompt()
	case StageFinalCorrection:
		return BuildFinalCorrectionPrompt(previousOutput)
	default:
		return BuildExtractionPrompt()
	}
}

// runStage performs one invocation plus recovery. Invocation errors and
// recovery errors are both reported as a failed outcome; only the log differs.
func (o *Orchestrator) runStage(ctx context.Context, stage Stage, prompt, rawText string, res *Result) stageOutcome {
	failed := failureKind(stage)
	start := time.Now()

	output, err := o.invoker.Invoke(ctx, prompt, rawText)
	if err != nil {
		res.Attempts = append(res.Attempts, AttemptLog{
			Stage:            stage,
			Duration:         time.Since(start),
			InvocationFailed: true,
			Error:            err.Error(),
		})
		log.Printf("parser.Orchestrator: %s invocation failed: %v", stage, err)
		return stageOutcome{kind: failed, err: err}
	}

	record, err := recoverRecord(output)
	entry := AttemptLog{Stage: stage, Duration: time.Since(start)}
	if err != nil {
		entry.Error = err.Error()
		res.Attempts = append(res.Attempts, entry)
		log.Printf("parser.Orchestrator: %s output rejected: %v", stage, err)
		return stageOutcome{kind: failed, output: output, err: err}
	}
	res.Attempts = append(res.Attempts, entry)
	return stageOutcome{kind: outcomeSuccess, record: record, output: output}
}

func recoverRecord(output string) (*domain.StructuredRecord, error) {
	obj, err := RecoverJSON(output)
	if err != nil {
		return nil, err
	}
	return NormalizeRecord(obj)
}

func failureKind(stage Stage) outcomeKind {
	if stage == StageFinalCorrection {
		return outcomeExhausted
	}
	return outcomeRetryable
}

func nextStage(current Stage, kind outcomeKind) Stage {
	if kind == outcomeSuccess {
		return StageDone
	}
	if kind == outcomeExhausted {
		return StageFallback
	}
	switch current {
	case StageAttempt1:
		return StageAttempt2
	case StageAttempt2:
		return StageFinalCorrection
	default:
		return StageFallback
	}
}
