package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/chess-vn/maia/internal/domains/dtos"
	"github.com/chess-vn/maia/pkg/logging"
	"go.uber.org/zap"
)

// handleSocket answers one response per request message, in order, until
// the client goes away.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBodyBytes)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			logging.Info("connection closed",
				zap.String("remote_address", conn.RemoteAddr().String()),
				zap.Error(err),
			)
			return
		}
		resp := HandleMessage(r.Context(), s.analyzer, message)
		if err := conn.WriteJSON(resp); err != nil {
			logging.Error("failed to write message", zap.Error(err))
			return
		}
	}
}

// HandleMessage runs a single websocket request. Failures are reported in
// the response rather than returned.
func HandleMessage(ctx context.Context, analyzer Analyzer, message []byte) dtos.SocketResponse {
	var req dtos.SocketRequest
	if err := json.Unmarshal(message, &req); err != nil {
		return dtos.SocketResponse{Error: fmt.Errorf("%w: %w", ErrBadRequest, err).Error()}
	}

	resp := dtos.SocketResponse{Id: req.Id}
	switch req.Action {
	case dtos.ActionEvaluate:
		eval, err := analyzer.EvaluateFEN(ctx, requestFromDto(dtos.EvaluationRequest{
			Fen:     req.Fen,
			EloSelf: req.EloSelf,
			EloOppo: req.EloOppo,
		}))
		if err != nil {
			resp.Error = err.Error()
			break
		}
		v := dtos.EvaluationResponseFromEntity(eval)
		resp.Evaluation = &v
	case dtos.ActionReview:
		reviews, err := analyzer.ReviewGames(ctx, strings.NewReader(req.Pgn))
		if err != nil {
			resp.Error = err.Error()
			break
		}
		v := dtos.ReviewResponseFromEntities(reviews)
		resp.Review = &v
	default:
		resp.Error = fmt.Errorf("%w %q", ErrUnknownAction, req.Action).Error()
	}
	return resp
}
