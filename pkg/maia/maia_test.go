package maia

import (
	"errors"
	"testing"

	"github.com/chess-vn/maia/internal/inference"
	"github.com/chess-vn/maia/internal/inference/inferencetest"
	"github.com/chess-vn/maia/internal/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

const (
	startFEN  = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	afterE4   = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	kingsOnly = "8/8/8/8/8/8/8/4K3 w - - 0 1"
)

func setups(t *testing.T, fens ...string) []Setup {
	t.Helper()
	out := make([]Setup, len(fens))
	for i, fen := range fens {
		s, err := ParseFEN(fen)
		require.NoError(t, err, fen)
		out[i] = s
	}
	return out
}

func TestEvaluateBatchEndToEnd(t *testing.T) {
	stub := &inferencetest.Engine{
		Logits: func(i int) map[string]float32 {
			if i == 0 {
				return map[string]float32{"e2e4": 3, "d2d4": 2}
			}
			return map[string]float32{"e2e4": 5, "g1f3": 4}
		},
		Value: func(i int) float32 { return float32(i) * 0.5 },
	}
	ev := NewFromEngine(stub)

	results, err := ev.EvaluateBatch(setups(t, startFEN, afterE4), []int{1500, 900}, []int{2100, 1150})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, stub.Calls())

	inputs := stub.LastInputs()
	assert.Equal(t, []int{2, 18, 8, 8}, []int(inputs[inference.InputBoards].Shape()))
	self, _ := inference.Int64s(inputs[inference.InputEloSelf])
	oppo, _ := inference.Int64s(inputs[inference.InputEloOppo])
	assert.Equal(t, []int64{5, 0}, self)
	assert.Equal(t, []int64{10, 1}, oppo)

	white := results[0]
	require.Len(t, white.Policy, 20)
	assert.Equal(t, "e2e4", white.Policy[0].Uci)
	assert.Equal(t, "d2d4", white.Policy[1].Uci)
	assert.Equal(t, float32(0.5), white.Value)

	// The second position was mirrored for the network; moves come back
	// from Black's side of the real board.
	black := results[1]
	require.Len(t, black.Policy, 20)
	assert.Equal(t, "e7e5", black.Policy[0].Uci)
	assert.Equal(t, "g8f6", black.Policy[1].Uci)
	assert.InDelta(t, 0.25, black.Value, 1e-6)

	for _, r := range results {
		var sum float32
		for _, m := range r.Policy {
			sum += m.Probability
		}
		assert.InDelta(t, 1, sum, 1e-5)
	}
}

func TestEvaluateFEN(t *testing.T) {
	stub := &inferencetest.Engine{
		Logits: func(int) map[string]float32 { return map[string]float32{"g1f3": 1} },
	}
	ev := NewFromEngine(stub)

	result, err := ev.EvaluateFEN(startFEN, 1600, 1600)
	require.NoError(t, err)
	assert.Equal(t, "g1f3", result.Policy[0].Uci)
	assert.Equal(t, 1, stub.Calls())

	_, err = ev.EvaluateFEN("not a fen", 1600, 1600)
	assert.ErrorIs(t, err, ErrInvalidFen)
	assert.Equal(t, 1, stub.Calls())
}

func TestEvaluateBatchShapeMismatch(t *testing.T) {
	stub := &inferencetest.Engine{}
	ev := NewFromEngine(stub)

	cases := map[string]struct {
		fens       []string
		self, oppo []int
	}{
		"self vs oppo":      {[]string{startFEN}, []int{1500}, []int{1500, 1600}},
		"ratings vs boards": {[]string{startFEN, afterE4}, []int{1500}, []int{1500}},
		"no ratings":        {[]string{startFEN}, nil, nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ev.EvaluateBatch(setups(t, tc.fens...), tc.self, tc.oppo)
			assert.ErrorIs(t, err, ErrShapeMismatch)
		})
	}
	assert.Zero(t, stub.Calls())
}

func TestEvaluateBatchEmpty(t *testing.T) {
	stub := &inferencetest.Engine{}
	results, err := NewFromEngine(stub).EvaluateBatch(nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, stub.Calls())
}

func TestEvaluateBatchInvalidPosition(t *testing.T) {
	stub := &inferencetest.Engine{}
	_, err := NewFromEngine(stub).EvaluateBatch(setups(t, startFEN, kingsOnly), []int{1500, 1500}, []int{1500, 1500})
	assert.ErrorIs(t, err, ErrInvalidPosition)
	assert.Zero(t, stub.Calls())
}

func TestEvaluateBatchInferenceFailure(t *testing.T) {
	boom := errors.New("device lost")
	ev := NewFromEngine(&inferencetest.Engine{Err: boom})

	_, err := ev.EvaluateFEN(startFEN, 1500, 1500)
	assert.ErrorIs(t, err, ErrInference)
	assert.ErrorIs(t, err, boom)
}

func TestEvaluateBatchBadOutputs(t *testing.T) {
	width := vocab.Size()
	policy := func(shape ...int) *tensor.Dense {
		size := 1
		for _, d := range shape {
			size *= d
		}
		return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(make([]float32, size)))
	}

	cases := map[string]map[string]*tensor.Dense{
		"missing policy": {
			inference.OutputValue: policy(1),
		},
		"missing value": {
			inference.OutputPolicy: policy(1, width),
		},
		"narrow policy": {
			inference.OutputPolicy: policy(1, width-1),
			inference.OutputValue:  policy(1),
		},
		"batch too large": {
			inference.OutputPolicy: policy(2, width),
			inference.OutputValue:  policy(2),
		},
		"float64 policy": {
			inference.OutputPolicy: tensor.New(tensor.WithShape(1, width), tensor.WithBacking(make([]float64, width))),
			inference.OutputValue:  policy(1),
		},
	}
	for name, outputs := range cases {
		t.Run(name, func(t *testing.T) {
			ev := NewFromEngine(&inferencetest.Engine{Outputs: outputs})
			_, err := ev.EvaluateFEN(startFEN, 1500, 1500)
			assert.ErrorIs(t, err, ErrShapeMismatch)
		})
	}
}

func TestEvaluateAcceptsColumnValue(t *testing.T) {
	width := vocab.Size()
	ev := NewFromEngine(&inferencetest.Engine{Outputs: map[string]*tensor.Dense{
		inference.OutputPolicy: tensor.New(tensor.WithShape(1, width), tensor.WithBacking(make([]float32, width))),
		inference.OutputValue:  tensor.New(tensor.WithShape(1, 1), tensor.WithBacking([]float32{1})),
	}})
	result, err := ev.EvaluateFEN(startFEN, 1500, 1500)
	require.NoError(t, err)
	assert.Equal(t, float32(1), result.Value)
}

func TestClose(t *testing.T) {
	stub := &inferencetest.Engine{}
	ev := NewFromEngine(stub)
	require.NoError(t, ev.Close())
	assert.True(t, stub.Closed())
	require.NoError(t, ev.Close())

	_, err := ev.EvaluateFEN(startFEN, 1500, 1500)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, err, ErrInference)
}
