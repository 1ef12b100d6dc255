// Package evaluate measures a frozen policy against benchmark
// opponents.
//
// The agent plays X with the pure greedy selector and no value updates
// are applied: the table is a read-only view. Runs are deterministic
// for a given seed, so repeated evaluations of the same table yield
// identical counts.
package evaluate

import (
	"fmt"
	"math/rand"

	"github.com/kaifkh20/ttoe-rl/game"
	"github.com/kaifkh20/ttoe-rl/minimax"
	"github.com/kaifkh20/ttoe-rl/policy"
	"github.com/kaifkh20/ttoe-rl/qtable"
)

// OpponentKind selects the benchmark opponent playing O.
type OpponentKind string

const (
	OpponentRandom  OpponentKind = "random"
	OpponentOptimal OpponentKind = "optimal"
)

// Report aggregates game outcomes from the agent's perspective.
type Report struct {
	Opponent OpponentKind
	Games    int
	Wins     int
	Losses   int
	Draws    int
}

func (r Report) WinRate() float64  { return rate(r.Wins, r.Games) }
func (r Report) LossRate() float64 { return rate(r.Losses, r.Games) }
func (r Report) DrawRate() float64 { return rate(r.Draws, r.Games) }

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func (r Report) String() string {
	return fmt.Sprintf("vs %s: %d games, %d wins (%.2f%%), %d losses (%.2f%%), %d draws (%.2f%%)",
		r.Opponent, r.Games,
		r.Wins, r.WinRate()*100,
		r.Losses, r.LossRate()*100,
		r.Draws, r.DrawRate()*100)
}

// Run plays the given number of complete games of the greedy policy against the
// given opponent and tallies the outcomes. The table is never
// mutated.
func Run(table qtable.Table, kind OpponentKind, games int, seed int64) (Report, error) {
	if kind != OpponentRandom && kind != OpponentOptimal {
		return Report{}, fmt.Errorf("unknown opponent kind %q", kind)
	}

	rng := rand.New(rand.NewSource(seed))
	report := Report{Opponent: kind, Games: games}

	for g := 0; g < games; g++ {
		switch playOne(table, kind, rng) {
		case game.X:
			report.Wins++
		case game.O:
			report.Losses++
		default:
			report.Draws++
		}
	}
	return report, nil
}

// playOne returns the winner of a single game, or None on a draw.
func playOne(table qtable.Table, kind OpponentKind, rng *rand.Rand) game.Player {
	var b game.Board
	for {
		// Agent (X).
		moves := b.LegalMoves()
		action := policy.ChooseGreedy(rng, table, b.StateKey(game.X), moves)
		b.MustApply(action, game.X)
		if w, ok := b.Winner(); ok {
			return w
		}
		if b.IsFull() {
			return game.None
		}

		// Opponent (O).
		moves = b.LegalMoves()
		var reply int
		if kind == OpponentOptimal {
			var ok bool
			if reply, ok = minimax.BestMove(&b); !ok {
				reply = moves[rng.Intn(len(moves))]
			}
		} else {
			reply = moves[rng.Intn(len(moves))]
		}
		b.MustApply(reply, game.O)
		if w, ok := b.Winner(); ok {
			return w
		}
		if b.IsFull() {
			return game.None
		}
	}
}
