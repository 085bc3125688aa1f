package dtos

import (
	"github.com/chess-vn/maia/internal/domains/entities"
)

type EvaluationRequest struct {
	Fen     string `json:"fen"`
	EloSelf int    `json:"eloSelf"`
	EloOppo int    `json:"eloOppo"`
}

type BatchEvaluationRequest struct {
	Positions []EvaluationRequest `json:"positions"`
}

type MoveProbabilityResponse struct {
	Uci         string  `json:"uci"`
	Probability float32 `json:"probability"`
}

type EvaluationResponse struct {
	Fen     string                    `json:"fen"`
	EloSelf int64                     `json:"eloSelf"`
	EloOppo int64                     `json:"eloOppo"`
	Policy  []MoveProbabilityResponse `json:"policy"`
	Value   float32                   `json:"value"`
}

type BatchEvaluationResponse struct {
	Evaluations []EvaluationResponse `json:"evaluations"`
}

func PolicyResponseFromEntity(policy []entities.MoveProbability) []MoveProbabilityResponse {
	v := make([]MoveProbabilityResponse, 0, len(policy))
	for _, m := range policy {
		v = append(v, MoveProbabilityResponse{
			Uci:         m.Uci,
			Probability: m.Probability,
		})
	}
	return v
}

func EvaluationResponseFromEntity(eval entities.PositionEvaluation) EvaluationResponse {
	return EvaluationResponse{
		Fen:     eval.Fen,
		EloSelf: eval.EloSelf,
		EloOppo: eval.EloOppo,
		Policy:  PolicyResponseFromEntity(eval.Evaluation.Policy),
		Value:   eval.Evaluation.Value,
	}
}

func BatchEvaluationResponseFromEntities(evals []entities.PositionEvaluation) BatchEvaluationResponse {
	v := BatchEvaluationResponse{
		Evaluations: make([]EvaluationResponse, 0, len(evals)),
	}
	for _, eval := range evals {
		v.Evaluations = append(v.Evaluations, EvaluationResponseFromEntity(eval))
	}
	return v
}
