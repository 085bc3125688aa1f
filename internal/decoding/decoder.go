// Package decoding turns raw network outputs into move probabilities and a
// win probability for the real side to move.
package decoding

import (
	"math"
	"sort"

	"github.com/chess-vn/maia/internal/domains/entities"
	"github.com/chess-vn/maia/internal/rules"
	"github.com/chess-vn/maia/internal/vocab"
	"github.com/chess-vn/maia/pkg/logging"
	"github.com/chewxy/math32"
	"github.com/notnil/chess"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Value maps a raw value output in [-1, 1] onto a win probability in
// [0, 1]. Mirrored positions were scored for the other colour, so the
// result is flipped back. A NaN output carries no information and maps to
// an even 0.5.
func Value(raw float32, mirrored bool) float32 {
	if math32.IsNaN(raw) {
		return 0.5
	}
	v := math32.Max(0, math32.Min(1, raw/2+0.5))
	if mirrored {
		v = 1 - v
	}
	return v
}

type candidate struct {
	uci   string
	index int
}

// Decode scores the legal moves of pos with logits, the policy row of one
// batch item. pos is the position the network saw; when mirrored is set
// moves are reported back in the original orientation. Legal moves absent
// from the vocabulary are left out.
func Decode(logits []float32, raw float32, pos *chess.Position, mirrored bool) entities.Evaluation {
	eval := entities.Evaluation{
		Policy: []entities.MoveProbability{},
		Value:  Value(raw, mirrored),
	}

	legal := rules.LegalMoves(pos)
	candidates := make([]candidate, 0, len(legal))
	for _, uci := range legal {
		i, ok := vocab.Lookup(uci)
		if !ok || i >= len(logits) {
			logging.Debug("legal move outside vocabulary", zap.String("uci", uci))
			continue
		}
		if mirrored {
			uci = vocab.Mirror(uci)
		}
		candidates = append(candidates, candidate{uci: uci, index: i})
	}
	if len(candidates) == 0 {
		return eval
	}

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = float64(logits[c.index])
	}
	softmax(scores)

	eval.Policy = make([]entities.MoveProbability, len(candidates))
	for i, c := range candidates {
		eval.Policy[i] = entities.MoveProbability{Uci: c.uci, Probability: float32(scores[i])}
	}
	sort.SliceStable(eval.Policy, func(i, j int) bool {
		return eval.Policy[i].Probability > eval.Policy[j].Probability
	})
	return eval
}

func softmax(x []float64) {
	floats.AddConst(-floats.Max(x), x)
	for i := range x {
		x[i] = math.Exp(x[i])
	}
	floats.Scale(1/floats.Sum(x), x)
}
