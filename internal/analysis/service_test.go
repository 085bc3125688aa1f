package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chess-vn/maia/internal/cache"
	"github.com/chess-vn/maia/internal/domains/entities"
	"github.com/chess-vn/maia/internal/inference"
	"github.com/chess-vn/maia/internal/inference/inferencetest"
	"github.com/chess-vn/maia/internal/rules"
	"github.com/chess-vn/maia/pkg/maia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	afterE4  = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
)

func newTestService(t *testing.T, store cache.Store) (*Service, *inferencetest.Engine) {
	t.Helper()
	stub := &inferencetest.Engine{
		Logits: func(int) map[string]float32 { return map[string]float32{"e2e4": 2} },
		Value:  func(int) float32 { return 0.2 },
	}
	pool := maia.NewPool([]*maia.Evaluator{maia.NewFromEngine(stub)}, 64)
	t.Cleanup(func() { pool.Close() })
	return NewService(pool, store, 1500), stub
}

func newBadger(t *testing.T) *cache.BadgerStore {
	t.Helper()
	store, err := cache.NewBadgerStore("", time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEvaluateFENCachesByCategory(t *testing.T) {
	svc, stub := newTestService(t, newBadger(t))
	ctx := context.Background()

	first, err := svc.EvaluateFEN(ctx, Request{Fen: startFEN, EloSelf: 1510, EloOppo: 1720})
	require.NoError(t, err)
	assert.Equal(t, "e2e4", first.Evaluation.Policy[0].Uci)
	assert.Equal(t, int64(5), first.EloSelf)
	assert.Equal(t, int64(7), first.EloOppo)
	assert.Equal(t, 1, stub.Calls())

	// Same categories hit the cache.
	second, err := svc.EvaluateFEN(ctx, Request{Fen: startFEN, EloSelf: 1590, EloOppo: 1701})
	require.NoError(t, err)
	assert.Equal(t, 1, stub.Calls())
	assert.Equal(t, first.Evaluation, second.Evaluation)

	_, err = svc.EvaluateFEN(ctx, Request{Fen: startFEN, EloSelf: 1610, EloOppo: 1720})
	require.NoError(t, err)
	assert.Equal(t, 2, stub.Calls())
}

func TestEvaluateFENsDeduplicates(t *testing.T) {
	svc, stub := newTestService(t, nil)

	evals, err := svc.EvaluateFENs(context.Background(), []Request{
		{Fen: startFEN, EloSelf: 1500, EloOppo: 1500},
		{Fen: afterE4, EloSelf: 1500, EloOppo: 1500},
		{Fen: startFEN, EloSelf: 1500, EloOppo: 1500},
	})
	require.NoError(t, err)
	require.Len(t, evals, 3)
	assert.Equal(t, 1, stub.Calls())
	assert.Equal(t, []int{2, 18, 8, 8}, []int(stub.LastInputs()[inference.InputBoards].Shape()))

	assert.Equal(t, evals[0], evals[2])
	assert.Equal(t, "e2e4", evals[0].Evaluation.Policy[0].Uci)
	assert.Equal(t, "e7e5", evals[1].Evaluation.Policy[0].Uci)
	assert.InDelta(t, 0.6, evals[0].Evaluation.Value, 1e-6)
	assert.InDelta(t, 0.4, evals[1].Evaluation.Value, 1e-6)
}

func TestEvaluateFENIgnoresMoveCounters(t *testing.T) {
	svc, stub := newTestService(t, newBadger(t))
	ctx := context.Background()
	later := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 4 3"

	first, err := svc.EvaluateFEN(ctx, Request{Fen: startFEN, EloSelf: 1500, EloOppo: 1500})
	require.NoError(t, err)
	second, err := svc.EvaluateFEN(ctx, Request{Fen: later, EloSelf: 1500, EloOppo: 1500})
	require.NoError(t, err)

	assert.Equal(t, 1, stub.Calls())
	assert.Equal(t, first.Evaluation, second.Evaluation)
	assert.Equal(t, startFEN, first.Fen)
	assert.Equal(t, later, second.Fen)

	evals, err := svc.EvaluateFENs(ctx, []Request{
		{Fen: afterE4, EloSelf: 1500, EloOppo: 1500},
		{Fen: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 2 9", EloSelf: 1500, EloOppo: 1500},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stub.Calls())
	assert.Equal(t, evals[0].Evaluation, evals[1].Evaluation)
}

func TestEvaluateFENsRejectsBadInput(t *testing.T) {
	svc, stub := newTestService(t, nil)
	_, err := svc.EvaluateFENs(context.Background(), []Request{
		{Fen: startFEN},
		{Fen: "rnbqkbnr/pppppppp w"},
	})
	assert.ErrorIs(t, err, rules.ErrInvalidFen)
	assert.Zero(t, stub.Calls())
}

type brokenStore struct {
	puts int
}

func (s *brokenStore) GetEvaluation(context.Context, cache.Key) (entities.PositionEvaluation, error) {
	return entities.PositionEvaluation{}, errors.New("connection reset")
}

func (s *brokenStore) PutEvaluation(context.Context, entities.PositionEvaluation) error {
	s.puts++
	return errors.New("connection reset")
}

func (s *brokenStore) Close() error { return nil }

func TestEvaluateSurvivesCacheFailures(t *testing.T) {
	store := &brokenStore{}
	svc, stub := newTestService(t, store)

	eval, err := svc.EvaluateFEN(context.Background(), Request{Fen: startFEN, EloSelf: 1500, EloOppo: 1500})
	require.NoError(t, err)
	assert.NotEmpty(t, eval.Evaluation.Policy)
	assert.Equal(t, 1, stub.Calls())
	assert.Equal(t, 1, store.puts)
}

const scholarsMate = `[Event "Casual"]
[WhiteElo "1620"]
[BlackElo "1480"]
[Result "1-0"]

1. e4 e5 2. Bc4 Nc6 3. Qh5 Nf6 4. Qxf7# 1-0
`

func TestReviewGames(t *testing.T) {
	svc, stub := newTestService(t, nil)

	reviews, err := svc.ReviewGames(context.Background(), strings.NewReader(scholarsMate))
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	review := reviews[0]
	assert.Equal(t, "1620", review.Tags["WhiteElo"])
	require.Len(t, review.Plies, 8)

	assert.Equal(t, 0, review.Plies[0].Ply)
	assert.Equal(t, "e2e4", review.Plies[0].Move)
	assert.Equal(t, "e2e4", review.Plies[0].Evaluation.Policy[0].Uci)
	assert.Equal(t, "e7e5", review.Plies[1].Move)

	mate := review.Plies[7]
	assert.Empty(t, mate.Move)
	assert.Empty(t, mate.Evaluation.Policy)

	assert.Equal(t, 1, stub.Calls())
	self, _ := inference.Int64s(stub.LastInputs()[inference.InputEloSelf])
	oppo, _ := inference.Int64s(stub.LastInputs()[inference.InputEloOppo])
	assert.Equal(t, []int64{6, 4, 6, 4, 6, 4, 6, 4}, self)
	assert.Equal(t, []int64{4, 6, 4, 6, 4, 6, 4, 6}, oppo)
}

func TestReviewGamesDefaultElo(t *testing.T) {
	svc, stub := newTestService(t, nil)

	_, err := svc.ReviewGames(context.Background(), strings.NewReader("[Result \"*\"]\n\n1. e4 *\n"))
	require.NoError(t, err)
	self, _ := inference.Int64s(stub.LastInputs()[inference.InputEloSelf])
	assert.Equal(t, []int64{5, 5}, self)
}
