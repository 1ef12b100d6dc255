package game

import "testing"

func boardFromString(t *testing.T, s string) Board {
	t.Helper()
	if len(s) != 9 {
		t.Fatalf("board string must have 9 cells, got %d", len(s))
	}
	var b Board
	for i := 0; i < 9; i++ {
		switch s[i] {
		case 'X':
			b[i] = X
		case 'O':
			b[i] = O
		case ' ', '.':
			b[i] = None
		default:
			t.Fatalf("bad cell %q at %d", s[i], i)
		}
	}
	return b
}

func TestWinner(t *testing.T) {
	cases := []struct {
		name  string
		cells string
		want  Player
		ok    bool
	}{
		{"empty", "         ", None, false},
		{"top row X", "XXX OO   ", X, true},
		{"middle column O", "XO XOX O ", O, true},
		{"main diagonal X", "XO OX   X", X, true},
		{"anti diagonal O", "XXO O OX ", O, true},
		{"full draw", "XOXXOOOXX", None, false},
		{"in progress", "XO  X    ", None, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := boardFromString(t, tc.cells)
			got, ok := b.Winner()
			if got != tc.want || ok != tc.ok {
				t.Errorf("Winner() = (%s, %v), want (%s, %v)\n%s", got, ok, tc.want, tc.ok, b.String())
			}
		})
	}
}

func TestLegalMovesAscending(t *testing.T) {
	b := boardFromString(t, "X O  X  O")
	moves := b.LegalMoves()
	want := []int{1, 3, 4, 6, 7}
	if len(moves) != len(want) {
		t.Fatalf("LegalMoves() = %v, want %v", moves, want)
	}
	for i := range want {
		if moves[i] != want[i] {
			t.Fatalf("LegalMoves() = %v, want %v", moves, want)
		}
	}
}

func TestApplyOccupied(t *testing.T) {
	var b Board
	if err := b.Apply(4, X); err != nil {
		t.Fatalf("Apply on empty cell: %v", err)
	}
	if err := b.Apply(4, O); err == nil {
		t.Fatal("Apply on occupied cell succeeded")
	}
	if err := b.Apply(9, O); err == nil {
		t.Fatal("Apply out of range succeeded")
	}
	// Failed placement must not have modified the board.
	if b[4] != X {
		t.Fatalf("cell 4 = %s after failed Apply, want X", b[4])
	}
}

func TestStateKeyRoleAware(t *testing.T) {
	b := boardFromString(t, "X   O    ")
	keyX := b.StateKey(X)
	keyO := b.StateKey(O)
	if keyX == keyO {
		t.Fatal("role-aware keys for different roles are equal")
	}
	if len(keyX) != 10 {
		t.Fatalf("state key length = %d, want 10", len(keyX))
	}
	if keyX[:9] != "X   O    " {
		t.Fatalf("key board prefix = %q", keyX[:9])
	}
	if keyX[9] != 'X' || keyO[9] != 'O' {
		t.Fatalf("role suffixes = %q, %q", keyX[9], keyO[9])
	}

	same := boardFromString(t, "X   O    ")
	if same.StateKey(X) != keyX {
		t.Fatal("identical boards produced different keys")
	}
}

// enumerate walks every reachable position from b with mover to act,
// stopping at terminal positions, and records each distinct board once.
func enumerate(b *Board, mover Player, seen map[Board]bool, xWins, oWins, draws *int) {
	if seen[*b] {
		return
	}
	seen[*b] = true

	if w, ok := b.Winner(); ok {
		switch w {
		case X:
			*xWins++
		case O:
			*oWins++
		}
		return
	}
	if b.IsFull() {
		*draws++
		return
	}
	for _, m := range b.LegalMoves() {
		b.MustApply(m, mover)
		enumerate(b, mover.Other(), seen, xWins, oWins, draws)
		b.Clear(m)
	}
}

// The reachable state space of tic-tac-toe is known exactly: 5478
// distinct positions, of which 626 are X wins, 316 are O wins and 16
// are full-board draws.
func TestReachableStateCounts(t *testing.T) {
	var b Board
	seen := make(map[Board]bool, 6000)
	var xWins, oWins, draws int
	enumerate(&b, X, seen, &xWins, &oWins, &draws)

	if len(seen) != 5478 {
		t.Errorf("reachable positions = %d, want 5478", len(seen))
	}
	if xWins != 626 {
		t.Errorf("X-win positions = %d, want 626", xWins)
	}
	if oWins != 316 {
		t.Errorf("O-win positions = %d, want 316", oWins)
	}
	if draws != 16 {
		t.Errorf("draw positions = %d, want 16", draws)
	}
}

// No reachable position may have complete lines for both players.
func TestNoDoubleWinner(t *testing.T) {
	var b Board
	seen := make(map[Board]bool, 6000)
	var xw, ow, d int
	enumerate(&b, X, seen, &xw, &ow, &d)

	for pos := range seen {
		var xLines, oLines int
		for _, line := range winLines {
			p := pos[line[0]]
			if p != None && p == pos[line[1]] && p == pos[line[2]] {
				if p == X {
					xLines++
				} else {
					oLines++
				}
			}
		}
		if xLines > 0 && oLines > 0 {
			t.Fatalf("reachable position with wins for both players:\n%s", pos.String())
		}
	}
}
