// Package maia evaluates chess positions with the Maia2 network: a sorted
// move probability list and a win probability for the side to move, as a
// player of a given rating facing an opponent of a given rating.
package maia

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chess-vn/maia/internal/decoding"
	"github.com/chess-vn/maia/internal/domains/entities"
	"github.com/chess-vn/maia/internal/elo"
	"github.com/chess-vn/maia/internal/encoding"
	"github.com/chess-vn/maia/internal/inference"
	"github.com/chess-vn/maia/internal/rules"
	"github.com/chess-vn/maia/internal/vocab"
	"github.com/chess-vn/maia/pkg/logging"
	"go.uber.org/zap"
	"gorgonia.org/tensor"
)

type (
	Setup            = rules.Setup
	EvaluationResult = entities.Evaluation
	MoveProbability  = entities.MoveProbability
	Engine           = inference.Engine
	Option           = inference.Option
)

var (
	ErrInvalidFen      = rules.ErrInvalidFen
	ErrInvalidPosition = rules.ErrInvalidPosition
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrInference       = errors.New("inference failed")
	ErrClosed          = errors.New("evaluator closed")
)

var (
	WithLibraryPath    = inference.WithLibraryPath
	WithIntraOpThreads = inference.WithIntraOpThreads
)

// ParseFEN reads a position. The move counters may be omitted.
func ParseFEN(fen string) (Setup, error) {
	return rules.ParseFEN(fen)
}

// Evaluator owns one inference session. It is safe for concurrent use;
// calls into the session are serialized.
type Evaluator struct {
	mu     sync.Mutex
	engine Engine
}

func NewFromFile(modelPath string, opts ...Option) (*Evaluator, error) {
	engine, err := inference.NewOnnxEngine(modelPath, withVocab(opts)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", modelPath, err)
	}
	return NewFromEngine(engine), nil
}

func NewFromMemory(model []byte, opts ...Option) (*Evaluator, error) {
	engine, err := inference.NewOnnxEngineFromBytes(model, withVocab(opts)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	return NewFromEngine(engine), nil
}

// NewFromEngine adopts an already configured engine.
func NewFromEngine(engine Engine) *Evaluator {
	return &Evaluator{engine: engine}
}

func withVocab(opts []Option) []Option {
	return append([]Option{inference.WithPolicySize(vocab.Size())}, opts...)
}

// EvaluateFEN evaluates a single position for the side to move rated
// eloSelf against an opponent rated eloOppo.
func (e *Evaluator) EvaluateFEN(fen string, eloSelf, eloOppo int) (EvaluationResult, error) {
	setup, err := rules.ParseFEN(fen)
	if err != nil {
		return EvaluationResult{}, err
	}
	results, err := e.EvaluateBatch([]Setup{setup}, []int{eloSelf}, []int{eloOppo})
	if err != nil {
		return EvaluationResult{}, err
	}
	return results[0], nil
}

// EvaluateBatch evaluates all setups in one engine call. The rating slices
// must be as long as setups. Results follow input order; either every
// item succeeds or the call fails.
func (e *Evaluator) EvaluateBatch(setups []Setup, elosSelf, elosOppo []int) ([]EvaluationResult, error) {
	n := len(setups)
	if len(elosSelf) != n || len(elosOppo) != n {
		return nil, fmt.Errorf("%w: %d positions, %d self ratings, %d opponent ratings",
			ErrShapeMismatch, n, len(elosSelf), len(elosOppo))
	}
	if n == 0 {
		return []EvaluationResult{}, nil
	}
	start := time.Now()

	batch, err := encoding.Encode(setups)
	if err != nil {
		return nil, err
	}
	outputs, err := e.run(map[string]*tensor.Dense{
		inference.InputBoards:  batch.Boards,
		inference.InputEloSelf: inference.Int64Vector(elo.Bucketize(elosSelf)),
		inference.InputEloOppo: inference.Int64Vector(elo.Bucketize(elosOppo)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}
	policy, values, err := unpack(outputs, n)
	if err != nil {
		return nil, err
	}

	width := vocab.Size()
	results := make([]EvaluationResult, n)
	for i := range results {
		results[i] = decoding.Decode(
			policy[i*width:(i+1)*width],
			values[i],
			batch.Positions[i],
			batch.Mirrored[i],
		)
	}
	logging.Debug("evaluated batch",
		zap.Int("size", n),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

func (e *Evaluator) run(inputs map[string]*tensor.Dense) (map[string]*tensor.Dense, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.engine == nil {
		return nil, ErrClosed
	}
	return e.engine.Run(inputs)
}

// unpack checks the engine outputs against a batch of n and returns the
// flat policy rows and values.
func unpack(outputs map[string]*tensor.Dense, n int) ([]float32, []float32, error) {
	width := vocab.Size()

	p, ok := outputs[inference.OutputPolicy]
	if !ok || p == nil {
		return nil, nil, fmt.Errorf("%w: missing output %s", ErrShapeMismatch, inference.OutputPolicy)
	}
	if shape := p.Shape(); len(shape) != 2 || shape[0] != n || shape[1] != width {
		return nil, nil, fmt.Errorf("%w: %s has shape %v, want (%d, %d)",
			ErrShapeMismatch, inference.OutputPolicy, shape, n, width)
	}
	policy, ok := inference.Float32s(p)
	if !ok || len(policy) != n*width {
		return nil, nil, fmt.Errorf("%w: %s has dtype %v", ErrShapeMismatch, inference.OutputPolicy, p.Dtype())
	}

	v, ok := outputs[inference.OutputValue]
	if !ok || v == nil {
		return nil, nil, fmt.Errorf("%w: missing output %s", ErrShapeMismatch, inference.OutputValue)
	}
	// Some exports keep a trailing unit axis on the value head.
	shape := v.Shape()
	if !(len(shape) == 1 && shape[0] == n) && !(len(shape) == 2 && shape[0] == n && shape[1] == 1) {
		return nil, nil, fmt.Errorf("%w: %s has shape %v, want (%d)",
			ErrShapeMismatch, inference.OutputValue, shape, n)
	}
	values, ok := inference.Float32s(v)
	if !ok || len(values) != n {
		return nil, nil, fmt.Errorf("%w: %s has dtype %v", ErrShapeMismatch, inference.OutputValue, v.Dtype())
	}
	return policy, values, nil
}

// Close releases the session. Further evaluations fail with ErrClosed.
func (e *Evaluator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.engine == nil {
		return nil
	}
	err := e.engine.Close()
	e.engine = nil
	return err
}
