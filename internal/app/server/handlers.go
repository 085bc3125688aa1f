package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/chess-vn/maia/internal/analysis"
	"github.com/chess-vn/maia/internal/domains/dtos"
	"github.com/chess-vn/maia/pkg/logging"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req dtos.EvaluationRequest
	if err := decodeJson(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	eval, err := s.analyzer.EvaluateFEN(r.Context(), requestFromDto(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJson(w, http.StatusOK, dtos.EvaluationResponseFromEntity(eval))
}

func (s *Server) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var req dtos.BatchEvaluationRequest
	if err := decodeJson(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.Positions) > s.config.MaxBatchSize {
		writeError(w, r, fmt.Errorf("%w: %d positions, limit is %d",
			ErrBatchTooLarge, len(req.Positions), s.config.MaxBatchSize))
		return
	}
	reqs := make([]analysis.Request, 0, len(req.Positions))
	for _, p := range req.Positions {
		reqs = append(reqs, requestFromDto(p))
	}
	evals, err := s.analyzer.EvaluateFENs(r.Context(), reqs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJson(w, http.StatusOK, dtos.BatchEvaluationResponseFromEntities(evals))
}

// handleReview takes either a JSON body or the PGN text itself.
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var pgnText io.Reader
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req dtos.ReviewRequest
		if err := decodeJson(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		pgnText = strings.NewReader(req.Pgn)
	} else {
		pgnText = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	}

	reviews, err := s.analyzer.ReviewGames(r.Context(), pgnText)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJson(w, http.StatusOK, dtos.ReviewResponseFromEntities(reviews))
}

func requestFromDto(req dtos.EvaluationRequest) analysis.Request {
	return analysis.Request{
		Fen:     req.Fen,
		EloSelf: req.EloSelf,
		EloOppo: req.EloOppo,
	}
}

func decodeJson(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func writeJson(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	id := requestId(r.Context())
	if status >= http.StatusInternalServerError {
		logging.Error("request failed", zap.String("request_id", id), zap.Error(err))
	}
	writeJson(w, status, dtos.ErrorResponse{Error: err.Error(), RequestId: id})
}
