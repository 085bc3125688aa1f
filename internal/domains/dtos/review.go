package dtos

import (
	"github.com/chess-vn/maia/internal/domains/entities"
)

type ReviewRequest struct {
	Pgn string `json:"pgn"`
}

type PlyResponse struct {
	Ply    int                       `json:"ply"`
	Fen    string                    `json:"fen"`
	Move   string                    `json:"move,omitempty"`
	Policy []MoveProbabilityResponse `json:"policy"`
	Value  float32                   `json:"value"`
}

type GameReviewResponse struct {
	Tags  map[string]string `json:"tags"`
	Plies []PlyResponse     `json:"plies"`
}

type ReviewResponse struct {
	Games []GameReviewResponse `json:"games"`
}

func ReviewResponseFromEntities(reviews []entities.GameReview) ReviewResponse {
	v := ReviewResponse{
		Games: make([]GameReviewResponse, 0, len(reviews)),
	}
	for _, review := range reviews {
		game := GameReviewResponse{
			Tags:  review.Tags,
			Plies: make([]PlyResponse, 0, len(review.Plies)),
		}
		for _, ply := range review.Plies {
			game.Plies = append(game.Plies, PlyResponse{
				Ply:    ply.Ply,
				Fen:    ply.Fen,
				Move:   ply.Move,
				Policy: PolicyResponseFromEntity(ply.Evaluation.Policy),
				Value:  ply.Evaluation.Value,
			})
		}
		v.Games = append(v.Games, game)
	}
	return v
}
