// Package inference defines the boundary with the network runtime: named
// tensors in, named tensors out.
package inference

import (
	"errors"

	"gorgonia.org/tensor"
)

// Tensor names of the Maia2 graph.
const (
	InputBoards  = "boards"
	InputEloSelf = "elo_self"
	InputEloOppo = "elo_oppo"

	OutputPolicy = "logits_maia"
	OutputValue  = "logits_value"
)

var (
	InputNames  = []string{InputBoards, InputEloSelf, InputEloOppo}
	OutputNames = []string{OutputPolicy, OutputValue}
)

var ErrMissingInput = errors.New("missing input tensor")

// Engine runs one forward pass. Implementations are not required to be
// safe for concurrent use.
type Engine interface {
	Run(inputs map[string]*tensor.Dense) (map[string]*tensor.Dense, error)
	Close() error
}

// Float32s returns the backing data of a float32 tensor.
func Float32s(t *tensor.Dense) ([]float32, bool) {
	if t == nil {
		return nil, false
	}
	data, ok := t.Data().([]float32)
	return data, ok
}

// Int64s returns the backing data of an int64 tensor.
func Int64s(t *tensor.Dense) ([]int64, bool) {
	if t == nil {
		return nil, false
	}
	data, ok := t.Data().([]int64)
	return data, ok
}

// Int64Vector wraps a slice as a rank one tensor without copying.
func Int64Vector(data []int64) *tensor.Dense {
	return tensor.New(tensor.WithShape(len(data)), tensor.WithBacking(data))
}
