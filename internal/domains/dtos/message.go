package dtos

// Actions carried by websocket messages.
const (
	ActionEvaluate = "evaluate"
	ActionReview   = "review"
)

// SocketRequest is one websocket message. Fen and the ratings apply to
// evaluate, Pgn to review.
type SocketRequest struct {
	Id      string `json:"id"`
	Action  string `json:"action"`
	Fen     string `json:"fen,omitempty"`
	EloSelf int    `json:"eloSelf,omitempty"`
	EloOppo int    `json:"eloOppo,omitempty"`
	Pgn     string `json:"pgn,omitempty"`
}

type SocketResponse struct {
	Id         string              `json:"id"`
	Evaluation *EvaluationResponse `json:"evaluation,omitempty"`
	Review     *ReviewResponse     `json:"review,omitempty"`
	Error      string              `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestId string `json:"requestId,omitempty"`
}
