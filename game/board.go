// Package game defines the core tic-tac-toe board model.
//
// These types represent the minimal state needed for rules evaluation,
// search and Q-table lookups. A Board is a plain value type so episode
// loops and minimax can copy or mutate-and-undo it cheaply.
package game

import "fmt"

// Player is the occupant of a cell.
type Player uint8

const (
	None Player = iota
	X
	O
)

// Symbol returns the single-character encoding used in state keys and
// board rendering: ' ' for an empty cell, 'X' and 'O' otherwise.
func (p Player) Symbol() byte {
	switch p {
	case X:
		return 'X'
	case O:
		return 'O'
	}
	return ' '
}

// Other returns the opposing player. Other(None) is None.
func (p Player) Other() Player {
	switch p {
	case X:
		return O
	case O:
		return X
	}
	return None
}

func (p Player) String() string {
	return string(p.Symbol())
}

// Board is a 3x3 grid in row-major order, cell 0 top-left, cell 8
// bottom-right. X always moves first.
type Board [9]Player

// winLines are the 8 winning triples: 3 rows, 3 columns, 2 diagonals.
var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Winner returns the player occupying a complete line, if any.
// A full board with no line is a draw; callers check IsFull separately.
func (b *Board) Winner() (Player, bool) {
	for _, line := range winLines {
		p := b[line[0]]
		if p != None && p == b[line[1]] && p == b[line[2]] {
			return p, true
		}
	}
	return None, false
}

// LegalMoves returns the indices of all empty cells in ascending order.
// The ordering is part of the contract: deterministic tie-breaking in
// greedy action selection depends on it.
func (b *Board) LegalMoves() []int {
	moves := make([]int, 0, 9)
	for i, p := range b {
		if p == None {
			moves = append(moves, i)
		}
	}
	return moves
}

// IsFull reports whether no empty cell remains.
func (b *Board) IsFull() bool {
	for _, p := range b {
		if p == None {
			return false
		}
	}
	return true
}

// Apply places p at idx. Placing on an occupied cell is a contract
// violation by the caller (legal moves are always enumerated first) and
// returns an error rather than corrupting the position.
func (b *Board) Apply(idx int, p Player) error {
	if idx < 0 || idx > 8 {
		return fmt.Errorf("cell index %d out of range", idx)
	}
	if b[idx] != None {
		return fmt.Errorf("cell %d already occupied by %s", idx, b[idx])
	}
	b[idx] = p
	return nil
}

// MustApply is Apply for call sites that have just enumerated legal
// moves; an occupied cell there is an internal invariant failure.
func (b *Board) MustApply(idx int, p Player) {
	if err := b.Apply(idx, p); err != nil {
		panic(err)
	}
}

// Clear empties idx. Used by minimax to undo a speculative placement.
func (b *Board) Clear(idx int) {
	b[idx] = None
}

// StateKey returns the role-aware Q-table lookup key: the 9 cell symbols
// followed by the symbol of the side to act. Two boards with identical
// cells and role always produce the same key.
//
// Tables built with this encoding are not compatible with board-only
// (9-character) keys.
func (b *Board) StateKey(role Player) string {
	var buf [10]byte
	for i, p := range b {
		buf[i] = p.Symbol()
	}
	buf[9] = role.Symbol()
	return string(buf[:])
}

// String renders the board as three lines for logs and test failures.
func (b *Board) String() string {
	var buf [17]byte
	n := 0
	for i, p := range b {
		buf[n] = p.Symbol()
		if buf[n] == ' ' {
			buf[n] = '.'
		}
		n++
		if i%3 == 2 {
			if i < 8 {
				buf[n] = '\n'
				n++
			}
		} else {
			buf[n] = ' '
			n++
		}
	}
	return string(buf[:n])
}
