package server

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kaifkh20/ttoe-rl/game"
	"github.com/kaifkh20/ttoe-rl/minimax"
	"github.com/kaifkh20/ttoe-rl/policy"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Spectating is read-only and the payload is public; accept any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WatchFrame is one ply of a streamed exhibition game.
type WatchFrame struct {
	Game   int    `json:"game"`
	Turn   int    `json:"turn"`
	By     string `json:"by"`
	Move   int    `json:"move"`
	Board  string `json:"board"`
	Done   bool   `json:"done"`
	Winner string `json:"winner,omitempty"`
	Draw   bool   `json:"draw,omitempty"`
}

// handleWatch streams exhibition games (greedy agent as X vs the
// optimal opponent as O, or vs random with ?opponent=random) until the
// client disconnects.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	useRandom := r.URL.Query().Get("opponent") == "random"
	delay := 400 * time.Millisecond
	if d, err := time.ParseDuration(r.URL.Query().Get("delay")); err == nil && d >= 0 && d <= 5*time.Second {
		delay = d
	}

	s.logger.Info("spectator connected", "remote", r.RemoteAddr, "random_opponent", useRandom)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for gameNum := 0; ; gameNum++ {
		if err := s.streamGame(conn, rng, gameNum, useRandom, delay); err != nil {
			s.logger.Info("spectator disconnected", "remote", r.RemoteAddr, "err", err)
			return
		}
	}
}

func (s *Server) streamGame(conn *websocket.Conn, rng *rand.Rand, gameNum int, useRandom bool, delay time.Duration) error {
	var b game.Board
	mover := game.X
	for turn := 0; ; turn++ {
		moves := b.LegalMoves()
		var move int
		if mover == game.X {
			s.mu.Lock()
			move = policy.ChooseGreedy(s.rng, s.table, b.StateKey(game.X), moves)
			s.mu.Unlock()
		} else if useRandom {
			move = moves[rng.Intn(len(moves))]
		} else {
			var ok bool
			if move, ok = minimax.BestMove(&b); !ok {
				move = moves[rng.Intn(len(moves))]
			}
		}
		b.MustApply(move, mover)

		frame := WatchFrame{
			Game:  gameNum,
			Turn:  turn,
			By:    mover.String(),
			Move:  move,
			Board: boardString(&b),
		}
		if winner, ok := b.Winner(); ok {
			frame.Done = true
			frame.Winner = winner.String()
		} else if b.IsFull() {
			frame.Done = true
			frame.Draw = true
		}

		if err := conn.WriteJSON(frame); err != nil {
			return err
		}
		if frame.Done {
			time.Sleep(3 * delay)
			return nil
		}
		time.Sleep(delay)
		mover = mover.Other()
	}
}
