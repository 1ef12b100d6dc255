// Package policy selects moves from a Q-table.
//
// Two selectors exist: an epsilon-greedy one for training and a pure
// greedy one for evaluation and interactive play. Both take the rng
// explicitly so callers control seeding and reproducibility.
package policy

import (
	"math/rand"

	"github.com/kaifkh20/ttoe-rl/qtable"
)

// ChooseTraining picks a move epsilon-greedily: with probability
// epsilon a uniformly random legal move, otherwise the highest-valued
// legal move with ties broken uniformly at random among the maxima.
// The random tie-break avoids a deterministic bias toward low cell
// indices while values are still mostly 0.
//
// moves must be non-empty.
func ChooseTraining(rng *rand.Rand, t qtable.Table, state string, moves []int, epsilon float64) int {
	if rng.Float64() < epsilon {
		return moves[rng.Intn(len(moves))]
	}

	best := make([]int, 0, len(moves))
	bestV := 0.0
	for i, m := range moves {
		v := t.Get(state, m)
		switch {
		case i == 0 || v > bestV:
			bestV = v
			best = append(best[:0], m)
		case v == bestV:
			best = append(best, m)
		}
	}
	return best[rng.Intn(len(best))]
}

// ChooseGreedy picks the highest-valued legal move, first at maximum
// in ascending cell order. The deterministic tie-break keeps repeated
// evaluation runs reproducible.
//
// For a state the table has never seen, every action reads 0.0 and a
// pure max would silently pick the lowest index; a uniformly random
// legal move is returned instead so evaluation baselines stay
// unbiased.
//
// moves must be non-empty.
func ChooseGreedy(rng *rand.Rand, t qtable.Table, state string, moves []int) int {
	if _, seen := t[state]; !seen {
		return moves[rng.Intn(len(moves))]
	}

	best := moves[0]
	bestV := t.Get(state, best)
	for _, m := range moves[1:] {
		if v := t.Get(state, m); v > bestV {
			bestV = v
			best = m
		}
	}
	return best
}
