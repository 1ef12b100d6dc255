package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kaifkh20/ttoe-rl/game"
	"github.com/kaifkh20/ttoe-rl/policy"
)

// MoveRequest asks the agent for its move on a position.
//
// Board is the 9-character cell encoding ('X', 'O' or ' '), row-major
// from the top-left. Role is the side the agent answers for and
// defaults to "X".
type MoveRequest struct {
	Board string `json:"board"`
	Role  string `json:"role,omitempty"`
}

// MoveResponse carries the chosen cell and the terminal outcome, if
// any, after the move is applied. Move is -1 when the position was
// already terminal: not an error, there is simply no move.
type MoveResponse struct {
	Move     int    `json:"move"`
	Board    string `json:"board"`
	GameOver bool   `json:"game_over"`
	Winner   string `json:"winner,omitempty"`
	Draw     bool   `json:"draw,omitempty"`
}

type StatsResponse struct {
	States        int     `json:"states"`
	BoardPatterns int     `json:"board_patterns"`
	Coverage      float64 `json:"coverage"`
}

// reachableBoards is the number of distinct legal tic-tac-toe
// positions, used for coverage reporting.
const reachableBoards = 5478

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("decode request: %v", err), http.StatusBadRequest)
		return
	}

	b, err := parseBoard(req.Board)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	role, err := parseRole(req.Role)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := MoveResponse{Move: -1, Board: req.Board}

	if winner, ok := b.Winner(); ok {
		resp.GameOver = true
		resp.Winner = winner.String()
		writeJSON(w, resp)
		return
	}
	if b.IsFull() {
		resp.GameOver = true
		resp.Draw = true
		writeJSON(w, resp)
		return
	}

	moves := b.LegalMoves()
	s.mu.Lock()
	move := policy.ChooseGreedy(s.rng, s.table, b.StateKey(role), moves)
	s.mu.Unlock()
	b.MustApply(move, role)

	resp.Move = move
	resp.Board = boardString(&b)
	if winner, ok := b.Winner(); ok {
		resp.GameOver = true
		resp.Winner = winner.String()
	} else if b.IsFull() {
		resp.GameOver = true
		resp.Draw = true
	}

	s.logger.Info("move served", "role", role.String(), "move", move, "game_over", resp.GameOver)
	writeJSON(w, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET required", http.StatusMethodNotAllowed)
		return
	}
	patterns := s.table.BoardPatterns()
	writeJSON(w, StatsResponse{
		States:        s.table.States(),
		BoardPatterns: patterns,
		Coverage:      float64(patterns) / reachableBoards,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func parseBoard(cells string) (game.Board, error) {
	var b game.Board
	if len(cells) != 9 {
		return b, fmt.Errorf("board must be 9 characters, got %d", len(cells))
	}
	var xs, os int
	for i := 0; i < 9; i++ {
		switch cells[i] {
		case 'X':
			b[i] = game.X
			xs++
		case 'O':
			b[i] = game.O
			os++
		case ' ', '.', '_':
			b[i] = game.None
		default:
			return b, fmt.Errorf("bad cell %q at index %d", cells[i], i)
		}
	}
	// X always moves first: counts differ by at most one.
	if xs != os && xs != os+1 {
		return b, fmt.Errorf("unreachable position: %d X vs %d O", xs, os)
	}
	return b, nil
}

func parseRole(role string) (game.Player, error) {
	switch role {
	case "", "X", "x":
		return game.X, nil
	case "O", "o":
		return game.O, nil
	}
	return game.None, fmt.Errorf("role must be X or O, got %q", role)
}

func boardString(b *game.Board) string {
	var buf [9]byte
	for i, p := range b {
		buf[i] = p.Symbol()
	}
	return string(buf[:])
}
