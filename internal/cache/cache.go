// Package cache stores evaluations keyed by position and rating categories.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/chess-vn/maia/internal/domains/entities"
)

var ErrMiss = errors.New("cache miss")

type Key struct {
	Fen     string
	EloSelf int64
	EloOppo int64
}

func KeyOf(eval entities.PositionEvaluation) Key {
	return Key{Fen: eval.Fen, EloSelf: eval.EloSelf, EloOppo: eval.EloOppo}
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%d|%d", k.Fen, k.EloSelf, k.EloOppo)
}

// Store is implemented by every cache backend. GetEvaluation reports a
// miss with an error matching ErrMiss.
type Store interface {
	GetEvaluation(ctx context.Context, key Key) (entities.PositionEvaluation, error)
	PutEvaluation(ctx context.Context, eval entities.PositionEvaluation) error
	Close() error
}

// Nop never hits.
type Nop struct{}

func (Nop) GetEvaluation(context.Context, Key) (entities.PositionEvaluation, error) {
	return entities.PositionEvaluation{}, ErrMiss
}

func (Nop) PutEvaluation(context.Context, entities.PositionEvaluation) error { return nil }

func (Nop) Close() error { return nil }
