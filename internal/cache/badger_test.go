package cache

import (
	"context"
	"testing"
	"time"

	"github.com/chess-vn/maia/internal/domains/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(fen string, self, oppo int64) entities.PositionEvaluation {
	return entities.PositionEvaluation{
		Fen:     fen,
		EloSelf: self,
		EloOppo: oppo,
		Evaluation: entities.Evaluation{
			Policy: []entities.MoveProbability{{Uci: "e2e4", Probability: 0.6}, {Uci: "d2d4", Probability: 0.4}},
			Value:  0.55,
		},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	store, err := NewBadgerStore("", time.Hour)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	eval := sample("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", 5, 6)
	require.NoError(t, store.PutEvaluation(ctx, eval))

	got, err := store.GetEvaluation(ctx, KeyOf(eval))
	require.NoError(t, err)
	assert.Equal(t, eval, got)

	// Other rating categories are separate entries.
	_, err = store.GetEvaluation(ctx, Key{Fen: eval.Fen, EloSelf: 5, EloOppo: 7})
	assert.ErrorIs(t, err, ErrMiss)
}

func TestBadgerStorePersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	eval := sample("8/8/8/8/8/8/8/K6k w - - 0 1", 0, 10)

	store, err := NewBadgerStore(dir, 0)
	require.NoError(t, err)
	require.NoError(t, store.PutEvaluation(ctx, eval))
	require.NoError(t, store.Close())

	store, err = NewBadgerStore(dir, 0)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.GetEvaluation(ctx, KeyOf(eval))
	require.NoError(t, err)
	assert.Equal(t, eval.Evaluation, got.Evaluation)
}

func TestNop(t *testing.T) {
	var store Store = Nop{}
	require.NoError(t, store.PutEvaluation(context.Background(), sample("x", 1, 1)))
	_, err := store.GetEvaluation(context.Background(), Key{Fen: "x", EloSelf: 1, EloOppo: 1})
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, store.Close())
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "8/8/8/8/8/8/8/K6k w - - 0 1|3|10", Key{"8/8/8/8/8/8/8/K6k w - - 0 1", 3, 10}.String())
}
