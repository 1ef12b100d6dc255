// Package minimax implements the exhaustive optimal opponent.
//
// Tic-tac-toe has at most 9! move sequences so the full game tree is
// searched with no pruning. The maximizing side is O (the opponent
// role); X is minimizing. Terminal scores carry a 0.01-per-ply shaping
// term so the search prefers faster wins and slower losses.
package minimax

import "github.com/kaifkh20/ttoe-rl/game"

const depthShaping = 0.01

// Score evaluates b with the game tree fully expanded. When maximizing,
// O is to move. depth is the number of plies already played below the
// search root and feeds the shaping term.
//
// Speculative placements are always undone before returning, so the
// caller's board is untouched.
func Score(b *game.Board, maximizing bool, depth int) float64 {
	if w, ok := b.Winner(); ok {
		if w == game.O {
			return 1 - depthShaping*float64(depth)
		}
		return -1 + depthShaping*float64(depth)
	}
	if b.IsFull() {
		return 0
	}

	if maximizing {
		best := -999.0
		for _, m := range b.LegalMoves() {
			b.MustApply(m, game.O)
			if s := Score(b, false, depth+1); s > best {
				best = s
			}
			b.Clear(m)
		}
		return best
	}

	best := 999.0
	for _, m := range b.LegalMoves() {
		b.MustApply(m, game.X)
		if s := Score(b, true, depth+1); s < best {
			best = s
		}
		b.Clear(m)
	}
	return best
}

// BestMove returns the game-theoretically optimal cell for O on b.
// Ties are broken in favor of the first move seen in ascending cell
// order: the incumbent is only replaced on strict improvement.
// ok is false when the board has no legal move.
func BestMove(b *game.Board) (move int, ok bool) {
	best := -999.0
	move = -1
	for _, m := range b.LegalMoves() {
		b.MustApply(m, game.O)
		s := Score(b, false, 0)
		b.Clear(m)
		if s > best {
			best = s
			move = m
		}
	}
	return move, move >= 0
}
