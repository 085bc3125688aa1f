// Package analysis evaluates positions and games on top of an evaluator
// pool, caching results per position and rating categories.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/chess-vn/maia/internal/cache"
	"github.com/chess-vn/maia/internal/domains/entities"
	"github.com/chess-vn/maia/internal/elo"
	"github.com/chess-vn/maia/internal/rules"
	"github.com/chess-vn/maia/pkg/logging"
	"github.com/chess-vn/maia/pkg/pgn"
	"github.com/notnil/chess"
	"go.uber.org/zap"
)

// Evaluator is satisfied by *maia.Pool.
type Evaluator interface {
	EvaluateChunked(ctx context.Context, setups []rules.Setup, elosSelf, elosOppo []int) ([]entities.Evaluation, error)
}

type Request struct {
	Fen     string
	EloSelf int
	EloOppo int
}

type Service struct {
	evaluator  Evaluator
	store      cache.Store
	defaultElo int
	now        func() time.Time
}

// NewService wires an evaluator to a cache. A nil store disables caching.
// defaultElo rates players of reviewed games without a rating tag.
func NewService(evaluator Evaluator, store cache.Store, defaultElo int) *Service {
	if store == nil {
		store = cache.Nop{}
	}
	return &Service{
		evaluator:  evaluator,
		store:      store,
		defaultElo: defaultElo,
		now:        time.Now,
	}
}

func (s *Service) EvaluateFEN(ctx context.Context, req Request) (entities.PositionEvaluation, error) {
	evals, err := s.EvaluateFENs(ctx, []Request{req})
	if err != nil {
		return entities.PositionEvaluation{}, err
	}
	return evals[0], nil
}

// EvaluateFENs answers cached positions from the store and evaluates the
// rest in a single chunked batch.
func (s *Service) EvaluateFENs(ctx context.Context, reqs []Request) ([]entities.PositionEvaluation, error) {
	results := make([]entities.PositionEvaluation, len(reqs))
	fens := make([]string, len(reqs))
	pending := make(map[cache.Key][]int)

	var (
		keys     []cache.Key
		setups   []rules.Setup
		elosSelf []int
		elosOppo []int
	)
	for i, req := range reqs {
		setup, err := rules.ParseFEN(req.Fen)
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		fens[i] = setup.FEN()
		key := cache.Key{
			Fen:     setup.EPD(),
			EloSelf: elo.Category(req.EloSelf),
			EloOppo: elo.Category(req.EloOppo),
		}
		if idx, ok := pending[key]; ok {
			pending[key] = append(idx, i)
			continue
		}

		cached, err := s.store.GetEvaluation(ctx, key)
		if err == nil {
			results[i] = cached
			continue
		}
		if !errors.Is(err, cache.ErrMiss) {
			logging.Warn("failed to read cached evaluation", zap.String("fen", key.Fen), zap.Error(err))
		}
		pending[key] = []int{i}
		keys = append(keys, key)
		setups = append(setups, setup)
		elosSelf = append(elosSelf, req.EloSelf)
		elosOppo = append(elosOppo, req.EloOppo)
	}
	if len(setups) == 0 {
		return withFens(results, fens), nil
	}

	evals, err := s.evaluator.EvaluateChunked(ctx, setups, elosSelf, elosOppo)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for j, key := range keys {
		eval := entities.PositionEvaluation{
			Fen:        key.Fen,
			EloSelf:    key.EloSelf,
			EloOppo:    key.EloOppo,
			Evaluation: evals[j],
			CreatedAt:  now,
		}
		for _, i := range pending[key] {
			results[i] = eval
		}
		if err := s.store.PutEvaluation(ctx, eval); err != nil {
			logging.Warn("failed to cache evaluation", zap.String("fen", key.Fen), zap.Error(err))
		}
	}
	logging.Debug("evaluated positions",
		zap.Int("requested", len(reqs)),
		zap.Int("evaluated", len(keys)),
	)
	return withFens(results, fens), nil
}

// withFens reports each result under the position as requested; the cache
// shares entries between positions that differ only in move counters.
func withFens(results []entities.PositionEvaluation, fens []string) []entities.PositionEvaluation {
	for i := range results {
		results[i].Fen = fens[i]
	}
	return results
}

// ReviewGames evaluates every position of every game in r. The side to
// move is rated by its WhiteElo or BlackElo tag.
func (s *Service) ReviewGames(ctx context.Context, r io.Reader) ([]entities.GameReview, error) {
	games, err := pgn.Parse(r)
	if err != nil {
		return nil, err
	}

	var reqs []Request
	for _, game := range games {
		white := s.rating(game.Tags, "WhiteElo")
		black := s.rating(game.Tags, "BlackElo")
		for _, p := range game.Positions {
			setup, err := rules.ParseFEN(p.Fen)
			if err != nil {
				return nil, err
			}
			req := Request{Fen: p.Fen, EloSelf: white, EloOppo: black}
			if setup.Turn == chess.Black {
				req.EloSelf, req.EloOppo = black, white
			}
			reqs = append(reqs, req)
		}
	}
	evals, err := s.EvaluateFENs(ctx, reqs)
	if err != nil {
		return nil, err
	}

	reviews := make([]entities.GameReview, len(games))
	next := 0
	for g, game := range games {
		reviews[g] = entities.GameReview{
			Tags:  game.Tags,
			Plies: make([]entities.PlyEvaluation, len(game.Positions)),
		}
		for ply, p := range game.Positions {
			reviews[g].Plies[ply] = entities.PlyEvaluation{
				Ply:        ply,
				Fen:        p.Fen,
				Move:       p.Move,
				Evaluation: evals[next].Evaluation,
			}
			next++
		}
	}
	return reviews, nil
}

func (s *Service) rating(tags map[string]string, name string) int {
	if v, err := strconv.Atoi(tags[name]); err == nil && v > 0 {
		return v
	}
	return s.defaultElo
}
