// Package inferencetest provides a deterministic network stand-in.
package inferencetest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chess-vn/maia/internal/inference"
	"github.com/chess-vn/maia/internal/vocab"
	"gorgonia.org/tensor"
)

var ErrClosed = errors.New("engine closed")

// Engine answers every call with caller supplied numbers and records what
// it was asked.
type Engine struct {
	// Logits returns the policy logits of batch item i keyed by UCI move.
	// Moves outside the vocabulary are ignored, others default to zero.
	Logits func(i int) map[string]float32
	// Value returns the raw value of batch item i.
	Value func(i int) float32
	// Outputs, when set, is returned verbatim instead of computed outputs.
	Outputs map[string]*tensor.Dense
	// Err, when set, fails every call.
	Err error

	mu     sync.Mutex
	calls  int
	last   map[string]*tensor.Dense
	closed bool
}

func (e *Engine) Run(inputs map[string]*tensor.Dense) (map[string]*tensor.Dense, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	e.calls++
	e.last = inputs
	if e.Err != nil {
		return nil, e.Err
	}
	if e.Outputs != nil {
		return e.Outputs, nil
	}

	boards, ok := inputs[inference.InputBoards]
	if !ok {
		return nil, fmt.Errorf("%w: %s", inference.ErrMissingInput, inference.InputBoards)
	}
	for _, name := range inference.InputNames {
		if _, ok := inputs[name]; !ok {
			return nil, fmt.Errorf("%w: %s", inference.ErrMissingInput, name)
		}
	}
	batch := boards.Shape()[0]
	width := vocab.Size()

	policy := make([]float32, batch*width)
	value := make([]float32, batch)
	for i := 0; i < batch; i++ {
		if e.Logits != nil {
			for uci, logit := range e.Logits(i) {
				if idx, ok := vocab.Lookup(uci); ok {
					policy[i*width+idx] = logit
				}
			}
		}
		if e.Value != nil {
			value[i] = e.Value(i)
		}
	}
	return map[string]*tensor.Dense{
		inference.OutputPolicy: tensor.New(tensor.WithShape(batch, width), tensor.WithBacking(policy)),
		inference.OutputValue:  tensor.New(tensor.WithShape(batch), tensor.WithBacking(value)),
	}, nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// Calls reports how many times Run was invoked.
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// LastInputs returns the inputs of the most recent call.
func (e *Engine) LastInputs() map[string]*tensor.Dense {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
