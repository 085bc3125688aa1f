package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/chess-vn/maia/internal/analysis"
	"github.com/chess-vn/maia/internal/domains/entities"
	"github.com/chess-vn/maia/pkg/logging"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const DefaultMaxBatchSize = 1024

// Analyzer is satisfied by *analysis.Service.
type Analyzer interface {
	EvaluateFEN(ctx context.Context, req analysis.Request) (entities.PositionEvaluation, error)
	EvaluateFENs(ctx context.Context, reqs []analysis.Request) ([]entities.PositionEvaluation, error)
	ReviewGames(ctx context.Context, r io.Reader) ([]entities.GameReview, error)
}

type Config struct {
	Port string
	// AuthSecret enables HS256 bearer token checks when set.
	AuthSecret   string
	MaxBatchSize int
}

type Server struct {
	address  string
	upgrader websocket.Upgrader
	config   Config
	analyzer Analyzer
	handler  http.Handler
}

func NewServer(cfg Config, analyzer Analyzer) *Server {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	s := &Server{
		address: "0.0.0.0:" + cfg.Port,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		config:   cfg,
		analyzer: analyzer,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("POST /evaluate", s.withAuth(s.handleEvaluate))
	mux.Handle("POST /evaluate/batch", s.withAuth(s.handleEvaluateBatch))
	mux.Handle("POST /review", s.withAuth(s.handleReview))
	mux.Handle("GET /ws", s.withAuth(s.handleSocket))
	s.handler = withRequestId(mux)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logging.Info("server started", zap.String("port", s.config.Port))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type requestIdKey struct{}

func requestId(ctx context.Context) string {
	id, _ := ctx.Value(requestIdKey{}).(string)
	return id
}

func withRequestId(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIdKey{}, id)))
		logging.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// Hijack lets websocket upgrades through the recorder.
func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rec.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
