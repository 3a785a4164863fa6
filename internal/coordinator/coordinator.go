package coordinator

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNoCalls is returned by Run for an empty batch.
var ErrNoCalls = errors.New("no calls in batch")

// Evaluator runs one named cell function.
type Evaluator interface {
	Evaluate(ctx context.Context, name string, args []string) any
}

// Call is one function invocation in a batch.
type Call struct {
	ID       string   `json:"id,omitempty"`
	Function string   `json:"function"`
	Args     []string `json:"args,omitempty"`
}

// Result is the cell value produced for a Call.
type Result struct {
	ID       string `json:"id"`
	Function string `json:"function"`
	Value    any    `json:"value"`
}

// Coordinator evaluates batches of calls concurrently
type Coordinator struct {
	evaluator Evaluator
	log       zerolog.Logger
}

// New creates a new Coordinator that evaluates calls with e
func New(e Evaluator, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		evaluator: e,
		log:       log.With().Str("component", "coordinator").Logger(),
	}
}

type indexed struct {
	pos    int
	result Result
}

// Run evaluates all calls concurrently and returns their results in input
// order. Each call runs in its own goroutine and sends its result to a
// shared channel. Calls without an ID are assigned one.
func (c *Coordinator) Run(ctx context.Context, calls []Call) ([]Result, error) {
	if len(calls) == 0 {
		return nil, ErrNoCalls
	}

	resultChan := make(chan indexed, len(calls))
	var wg sync.WaitGroup

	for i, call := range calls {
		if call.ID == "" {
			call.ID = uuid.NewString()
		}
		wg.Add(1)
		go func(pos int, call Call) {
			defer wg.Done()
			resultChan <- indexed{
				pos: pos,
				result: Result{
					ID:       call.ID,
					Function: call.Function,
					Value:    c.evaluator.Evaluate(ctx, call.Function, call.Args),
				},
			}
		}(i, call)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]Result, len(calls))
	for r := range resultChan {
		results[r.pos] = r.result
		c.log.Debug().Str("id", r.result.ID).Str("function", r.result.Function).Msg("call evaluated")
	}
	return results, nil
}
