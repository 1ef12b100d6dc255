package policy

import (
	"math/rand"
	"testing"

	"github.com/kaifkh20/ttoe-rl/qtable"
)

const state = "    X    O"

func TestChooseTrainingExploits(t *testing.T) {
	tab := qtable.New()
	tab[state] = map[int]float64{2: 0.5, 6: 3.0, 8: -1.0}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		if m := ChooseTraining(rng, tab, state, []int{2, 6, 8}, 0); m != 6 {
			t.Fatalf("epsilon=0 picked %d, want 6", m)
		}
	}
}

func TestChooseTrainingExplores(t *testing.T) {
	tab := qtable.New()
	tab[state] = map[int]float64{2: 5.0}

	rng := rand.New(rand.NewSource(2))
	picked := make(map[int]int)
	for i := 0; i < 2000; i++ {
		picked[ChooseTraining(rng, tab, state, []int{2, 6, 8}, 1.0)]++
	}
	// epsilon=1 must ignore values entirely.
	for _, m := range []int{2, 6, 8} {
		if picked[m] < 500 {
			t.Fatalf("epsilon=1 distribution skewed: %v", picked)
		}
	}
}

func TestChooseTrainingUniformTieBreak(t *testing.T) {
	tab := qtable.New()
	tab[state] = map[int]float64{2: 1.0, 6: 1.0, 8: 0.0}

	rng := rand.New(rand.NewSource(3))
	picked := make(map[int]int)
	for i := 0; i < 2000; i++ {
		picked[ChooseTraining(rng, tab, state, []int{2, 6, 8}, 0)]++
	}
	if picked[8] != 0 {
		t.Fatalf("picked dominated move 8: %v", picked)
	}
	if picked[2] < 700 || picked[6] < 700 {
		t.Fatalf("tie-break not uniform between 2 and 6: %v", picked)
	}
}

func TestChooseGreedyFirstAtMaximum(t *testing.T) {
	tab := qtable.New()
	tab[state] = map[int]float64{2: 1.0, 6: 1.0}

	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 50; i++ {
		if m := ChooseGreedy(rng, tab, state, []int{2, 6, 8}); m != 2 {
			t.Fatalf("greedy tie-break picked %d, want first maximum 2", m)
		}
	}
}

func TestChooseGreedyUnseenStateFallsBackToRandom(t *testing.T) {
	tab := qtable.New()
	rng := rand.New(rand.NewSource(5))
	picked := make(map[int]int)
	for i := 0; i < 2000; i++ {
		picked[ChooseGreedy(rng, tab, "unseen key", []int{0, 4, 8})]++
	}
	for _, m := range []int{0, 4, 8} {
		if picked[m] < 500 {
			t.Fatalf("unseen-state fallback skewed: %v", picked)
		}
	}
}

func TestChooseGreedyUnseenActionDefaultsToZero(t *testing.T) {
	tab := qtable.New()
	// State seen, but only action 8 learned and it is negative; the
	// unlearned actions read 0.0 and win.
	tab[state] = map[int]float64{8: -2.0}

	rng := rand.New(rand.NewSource(6))
	if m := ChooseGreedy(rng, tab, state, []int{2, 6, 8}); m != 2 {
		t.Fatalf("greedy = %d, want 2 (first 0.0-default action)", m)
	}
}
