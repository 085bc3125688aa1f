package server

import (
	"errors"
	"net/http"

	"github.com/chess-vn/maia/pkg/maia"
	"github.com/chess-vn/maia/pkg/pgn"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrBadRequest    = errors.New("bad request")
	ErrBatchTooLarge = errors.New("batch too large")
	ErrUnknownAction = errors.New("unknown action")
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrBatchTooLarge),
		errors.Is(err, ErrUnknownAction),
		errors.Is(err, maia.ErrInvalidFen),
		errors.Is(err, maia.ErrInvalidPosition),
		errors.Is(err, pgn.ErrMalformed),
		errors.Is(err, pgn.ErrIllegalMove):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
