package parser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"marksheet/internal/port"
)

// circuitState tracks rate-limit backoff for a single provider.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FailoverInvoker routes each invocation to the first provider whose circuit is
// closed. It makes exactly one provider call per Invoke, so the orchestrator's
// attempt budget still bounds the number of model calls per request. A 429
// opens that provider's circuit for the Retry-After window.
// It implements port.ModelInvoker.
type FailoverInvoker struct {
	invokers []port.ModelInvoker
	circuits []*circuitState
	names    []string
	now      func() time.Time
}

// NewFailoverInvoker creates a FailoverInvoker from an ordered list of invokers and their names.
func NewFailoverInvoker(invokers []port.ModelInvoker, names []string) *FailoverInvoker {
	circuits := make([]*circuitState, len(invokers))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FailoverInvoker{
		invokers: invokers,
		circuits: circuits,
		names:    names,
		now:      time.Now,
	}
}

func (f *FailoverInvoker) Invoke(ctx context.Context, prompt, rawText string) (string, error) {
	now := f.now()
	var earliestReset time.Time

	for i, inv := range f.invokers {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			log.Printf("parser.FailoverInvoker: skipping %s (circuit open until %s)", f.names[i], resetAt.Format(time.RFC3339))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := inv.Invoke(ctx, prompt, rawText)
		if err != nil {
			log.Printf("parser.FailoverInvoker: %s failed: %v", f.names[i], err)
			var rlErr *RateLimitError
			if errors.As(err, &rlErr) {
				f.circuits[i].open(now.Add(rlErr.RetryAfter))
			}
		}
		return out, err
	}

	// All providers were skipped due to open circuits
	retryAfter := earliestReset.Sub(now)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return "", NewRateLimitError("all", fmt.Errorf("all model providers rate limited"), int(retryAfter.Seconds()))
}
