// Package server exposes the trained agent over HTTP: a move API for
// interactive collaborators and a websocket feed streaming exhibition
// games against the optimal opponent.
//
// The server holds a read-only view of the table loaded at startup; it
// never learns.
package server

import (
	"log/slog"
	"math/rand"
	"net/http"
	"sync"

	"github.com/kaifkh20/ttoe-rl/qtable"
)

// Server holds shared state for HTTP handlers.
type Server struct {
	table  qtable.Table
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Server serving moves from table. seed fixes the rng
// used for unseen-state fallbacks, so a given table and seed replay
// identically.
func New(table qtable.Table, logger *slog.Logger, seed int64) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		table:  table,
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// RegisterRoutes sets up all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/move", s.handleMove)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/ws/watch", s.handleWatch)
}
