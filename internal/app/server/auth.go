package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/chess-vn/maia/pkg/logging"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

func (s *Server) withAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.AuthSecret == "" {
			next(w, r)
			return
		}
		userId, err := s.auth(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		logging.Debug("authenticated",
			zap.String("request_id", requestId(r.Context())),
			zap.String("user_id", userId),
		)
		next(w, r)
	})
}

// auth validates the bearer token and returns its subject. Browsers cannot
// set headers on websocket handshakes, so a token query parameter is
// accepted too.
func (s *Server) auth(r *http.Request) (string, error) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "", fmt.Errorf("%w: no token", ErrUnauthorized)
	}

	validToken, err := s.validateJwt(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	userId, err := validToken.Claims.GetSubject()
	if err != nil || userId == "" {
		return "", fmt.Errorf("%w: user id not found", ErrUnauthorized)
	}
	return userId, nil
}

func (s *Server) validateJwt(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(
		tokenString,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(s.config.AuthSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
}
