package maia

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const DefaultChunkSize = 64

var ErrEmptyPool = errors.New("pool has no evaluators")

// Pool spreads work over several evaluators, one session each.
type Pool struct {
	idle       chan *Evaluator
	evaluators []*Evaluator
	chunkSize  int
}

// NewPool takes ownership of evaluators. A non-positive chunkSize selects
// DefaultChunkSize.
func NewPool(evaluators []*Evaluator, chunkSize int) *Pool {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	p := &Pool{
		idle:       make(chan *Evaluator, len(evaluators)),
		evaluators: evaluators,
		chunkSize:  chunkSize,
	}
	for _, e := range evaluators {
		p.idle <- e
	}
	return p
}

// NewPoolFromFile opens workers sessions on the same model file.
func NewPoolFromFile(modelPath string, workers, chunkSize int, opts ...Option) (*Pool, error) {
	if workers <= 0 {
		workers = 1
	}
	evaluators := make([]*Evaluator, 0, workers)
	for i := 0; i < workers; i++ {
		e, err := NewFromFile(modelPath, opts...)
		if err != nil {
			for _, opened := range evaluators {
				opened.Close()
			}
			return nil, err
		}
		evaluators = append(evaluators, e)
	}
	return NewPool(evaluators, chunkSize), nil
}

func (p *Pool) Size() int {
	return len(p.evaluators)
}

func (p *Pool) acquire(ctx context.Context) (*Evaluator, error) {
	if len(p.evaluators) == 0 {
		return nil, ErrEmptyPool
	}
	select {
	case e := <-p.idle:
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) release(e *Evaluator) {
	p.idle <- e
}

// EvaluateFEN evaluates one position on the next free evaluator.
func (p *Pool) EvaluateFEN(ctx context.Context, fen string, eloSelf, eloOppo int) (EvaluationResult, error) {
	e, err := p.acquire(ctx)
	if err != nil {
		return EvaluationResult{}, err
	}
	defer p.release(e)
	return e.EvaluateFEN(fen, eloSelf, eloOppo)
}

// EvaluateChunked splits the batch into chunks evaluated concurrently.
// Results follow input order. Any failing chunk fails the whole call.
func (p *Pool) EvaluateChunked(ctx context.Context, setups []Setup, elosSelf, elosOppo []int) ([]EvaluationResult, error) {
	n := len(setups)
	if len(elosSelf) != n || len(elosOppo) != n {
		return nil, fmt.Errorf("%w: %d positions, %d self ratings, %d opponent ratings",
			ErrShapeMismatch, n, len(elosSelf), len(elosOppo))
	}
	results := make([]EvaluationResult, n)
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += p.chunkSize {
		end := min(start+p.chunkSize, n)
		g.Go(func() error {
			e, err := p.acquire(ctx)
			if err != nil {
				return err
			}
			defer p.release(e)
			out, err := e.EvaluateBatch(setups[start:end], elosSelf[start:end], elosOppo[start:end])
			if err != nil {
				return fmt.Errorf("positions %d..%d: %w", start, end-1, err)
			}
			copy(results[start:end], out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pool) Close() error {
	var errs []error
	for _, e := range p.evaluators {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
