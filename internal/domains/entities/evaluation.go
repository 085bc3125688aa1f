package entities

import "time"

type MoveProbability struct {
	Uci         string  `json:"uci" dynamodbav:"Uci"`
	Probability float32 `json:"probability" dynamodbav:"Probability"`
}

// Evaluation is the network's view of one position from the side to move.
// Policy is sorted by descending probability. Value is the expected score
// of the side to move in [0, 1].
type Evaluation struct {
	Policy []MoveProbability `json:"policy" dynamodbav:"Policy"`
	Value  float32           `json:"value" dynamodbav:"Value"`
}

// PositionEvaluation is an evaluation bound to the position and rating
// categories that produced it.
type PositionEvaluation struct {
	Fen        string     `json:"fen" dynamodbav:"Fen"`
	EloSelf    int64      `json:"eloSelf" dynamodbav:"EloSelf"`
	EloOppo    int64      `json:"eloOppo" dynamodbav:"EloOppo"`
	Evaluation Evaluation `json:"evaluation" dynamodbav:"Evaluation"`
	CreatedAt  time.Time  `json:"createdAt" dynamodbav:"CreatedAt"`
}

// PlyEvaluation is one position of a reviewed game.
type PlyEvaluation struct {
	Ply        int
	Fen        string
	Move       string
	Evaluation Evaluation
}

type GameReview struct {
	Tags  map[string]string
	Plies []PlyEvaluation
}
