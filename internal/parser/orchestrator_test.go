package parser_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"marksheet/internal/domain"
	"marksheet/internal/parser"
	"marksheet/mocks"
)

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
}

func newTestOrchestrator(inv *mocks.MockModelInvoker) (*parser.Orchestrator, *sleepRecorder) {
	rec := &sleepRecorder{}
	return parser.NewOrchestratorWithSleep(inv, 0, rec.sleep), rec
}

func promptOfCall(inv *mocks.MockModelInvoker, i int) string {
	return inv.Calls[i].Arguments.String(1)
}

func TestOrchestrator_FirstAttemptFencedSuccess(t *testing.T) {
	inv := new(mocks.MockModelInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything, janeDoeText).
		Return("```json\n"+validRecordJSON+"\n```", nil).Once()

	o, rec := newTestOrchestrator(inv)
	res := o.Extract(context.Background(), janeDoeText)

	require.NotNil(t, res.Record)
	assert.Equal(t, domain.RecordSourceModel, res.Source)
	assert.Equal(t, parser.StageAttempt1, res.Stage)
	assert.Equal(t, "Jane A. Doe", *res.Record.StudentInfo.Name)
	assert.Len(t, res.Record.Subjects, 2)
	assert.Len(t, res.Attempts, 1)
	assert.Empty(t, rec.delays)
	inv.AssertNumberOfCalls(t, "Invoke", 1)
	assert.Equal(t, parser.BuildExtractionPrompt(), promptOfCall(inv, 0))
}

func TestOrchestrator_SecondAttemptSucceeds(t *testing.T) {
	inv := new(mocks.MockModelInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return("I could not read the document.", nil).Once()
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(validRecordJSON, nil).Once()

	o, rec := newTestOrchestrator(inv)
	res := o.Extract(context.Background(), janeDoeText)

	assert.Equal(t, domain.RecordSourceModel, res.Source)
	assert.Equal(t, parser.StageAttempt2, res.Stage)
	assert.Equal(t, []time.Duration{parser.DefaultRetryDelay}, rec.delays)
	inv.AssertNumberOfCalls(t, "Invoke", 2)
	assert.Equal(t, parser.BuildCorrectionPrompt(), promptOfCall(inv, 1))
	assert.Contains(t, promptOfCall(inv, 1), "not valid JSON")

	require.Len(t, res.Attempts, 2)
	assert.False(t, res.Attempts[0].InvocationFailed)
	assert.NotEmpty(t, res.Attempts[0].Error)
	assert.Empty(t, res.Attempts[1].Error)
}

func TestOrchestrator_FinalCorrectionEchoesPreviousOutput(t *testing.T) {
	inv := new(mocks.MockModelInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return("garbage one", nil).Once()
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return("garbage two {\"student_info\": ", nil).Once()
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(validRecordJSON, nil).Once()

	o, rec := newTestOrchestrator(inv)
	res := o.Extract(context.Background(), janeDoeText)

	assert.Equal(t, domain.RecordSourceModel, res.Source)
	assert.Equal(t, parser.StageFinalCorrection, res.Stage)
	assert.Len(t, rec.delays, 1)
	inv.AssertNumberOfCalls(t, "Invoke", 3)

	final := promptOfCall(inv, 2)
	assert.Contains(t, final, "garbage two {\"student_info\": ")
	assert.NotContains(t, final, "garbage one")
	assert.Equal(t, janeDoeText, inv.Calls[2].Arguments.String(2))
}

func TestOrchestrator_FinalCorrectionUsesLastOutputAfterInvocationError(t *testing.T) {
	inv := new(mocks.MockModelInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return("garbage one", nil).Once()
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).
		Return("", parser.NewModelUnavailableError("gemini", 503, errors.New("overloaded"))).Once()
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(validRecordJSON, nil).Once()

	o, _ := newTestOrchestrator(inv)
	res := o.Extract(context.Background(), janeDoeText)

	assert.Equal(t, parser.StageFinalCorrection, res.Stage)
	assert.Contains(t, promptOfCall(inv, 2), "garbage one")
	assert.True(t, res.Attempts[1].InvocationFailed)
}

func TestOrchestrator_AllModelUnavailableFallsBack(t *testing.T) {
	inv := new(mocks.MockModelInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).
		Return("", parser.NewModelUnavailableError("gemini", 0, errors.New("connection refused")))

	o, rec := newTestOrchestrator(inv)
	res := o.Extract(context.Background(), janeDoeText)

	assert.Equal(t, domain.RecordSourceFallback, res.Source)
	assert.Equal(t, parser.StageFallback, res.Stage)
	assert.Equal(t, parser.ExtractFallback(janeDoeText), res.Record)
	assert.Equal(t, parser.FallbackConfidence, res.Record.ModelConfidence)
	assert.Len(t, rec.delays, 1)
	inv.AssertNumberOfCalls(t, "Invoke", 3)

	require.Len(t, res.Attempts, 3)
	for _, a := range res.Attempts {
		assert.True(t, a.InvocationFailed)
	}
	assert.Equal(t, parser.StageFinalCorrection, res.Attempts[2].Stage)
}

func TestOrchestrator_NeverMoreThanThreeInvocations(t *testing.T) {
	outputs := []struct {
		out string
		err error
	}{
		{"no json", nil},
		{"", errors.New("transport")},
		{`{"student_info": "not an object"}`, nil},
		{`[1, 2, 3]`, nil},
		{"", parser.NewRateLimitError("gemini", errors.New("429"), 1)},
	}

	for _, first := range outputs {
		for _, rest := range outputs {
			inv := new(mocks.MockModelInvoker)
			inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(first.out, first.err).Once()
			inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(rest.out, rest.err)

			o, rec := newTestOrchestrator(inv)
			res := o.Extract(context.Background(), "Percentage: 55")

			inv.AssertNumberOfCalls(t, "Invoke", 3)
			assert.Len(t, rec.delays, 1)
			assert.Equal(t, domain.RecordSourceFallback, res.Source)
			assert.Equal(t, 55.0, *res.Record.OverallResult.Percentage)
		}
	}
}

func TestOrchestrator_InvalidShapeConsumesAttempt(t *testing.T) {
	inv := new(mocks.MockModelInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(`{"subjects": "Math, Physics"}`, nil).Once()
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(validRecordJSON, nil).Once()

	o, _ := newTestOrchestrator(inv)
	res := o.Extract(context.Background(), janeDoeText)

	assert.Equal(t, parser.StageAttempt2, res.Stage)
	assert.Contains(t, res.Attempts[0].Error, domain.ErrInvalidRecordShape.Error())
}

func TestOrchestrator_CustomRetryDelay(t *testing.T) {
	inv := new(mocks.MockModelInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return("nope", nil).Once()
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(validRecordJSON, nil).Once()

	rec := &sleepRecorder{}
	o := parser.NewOrchestratorWithSleep(inv, 25*time.Millisecond, rec.sleep)
	o.Extract(context.Background(), janeDoeText)

	assert.Equal(t, []time.Duration{25 * time.Millisecond}, rec.delays)
}

func TestOrchestrator_MissingSectionsDefaulted(t *testing.T) {
	inv := new(mocks.MockModelInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"student_info": {"name": "Jane"}}`, nil).Once()

	o, _ := newTestOrchestrator(inv)
	res := o.Extract(context.Background(), janeDoeText)

	assert.Equal(t, parser.StageAttempt1, res.Stage)
	assert.Equal(t, "Jane", *res.Record.StudentInfo.Name)
	assert.NotNil(t, res.Record.Subjects)
	assert.Equal(t, parser.DefaultModelConfidence, res.Record.ModelConfidence)
}

func TestOrchestrator_ConcurrentRequests(t *testing.T) {
	inv := new(mocks.MockModelInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything, mock.MatchedBy(func(s string) bool {
		return strings.HasPrefix(s, "ok")
	})).Return(validRecordJSON, nil)
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("down"))

	o := parser.NewOrchestratorWithSleep(inv, 0, func(time.Duration) {})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				res := o.Extract(context.Background(), "ok document")
				assert.Equal(t, domain.RecordSourceModel, res.Source)
				return
			}
			res := o.Extract(context.Background(), "Name: Jane A. Doe")
			assert.Equal(t, domain.RecordSourceFallback, res.Source)
			assert.Equal(t, "Jane A. Doe", *res.Record.StudentInfo.Name)
		}(i)
	}
	wg.Wait()
}
