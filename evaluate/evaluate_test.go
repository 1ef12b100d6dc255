package evaluate

import (
	"context"
	"math/rand"
	"testing"

	"github.com/kaifkh20/ttoe-rl/qtable"
	"github.com/kaifkh20/ttoe-rl/trainer"
)

func TestRunCountsSumToGames(t *testing.T) {
	rep, err := Run(qtable.New(), OpponentRandom, 500, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Wins+rep.Losses+rep.Draws != rep.Games {
		t.Fatalf("counts %d+%d+%d do not sum to %d", rep.Wins, rep.Losses, rep.Draws, rep.Games)
	}
}

func TestRunRejectsUnknownOpponent(t *testing.T) {
	if _, err := Run(qtable.New(), "mcts", 10, 1); err == nil {
		t.Fatal("Run accepted unknown opponent kind")
	}
}

// Same table, same seed, same opponent: identical aggregate counts.
func TestRunIdempotent(t *testing.T) {
	tab := trainedTable(t, 2000)

	for _, kind := range []OpponentKind{OpponentRandom, OpponentOptimal} {
		games := 300
		if kind == OpponentOptimal {
			games = 30
		}
		a, err := Run(tab, kind, games, 99)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		b, err := Run(tab, kind, games, 99)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if a != b {
			t.Fatalf("non-deterministic evaluation vs %s: %+v vs %+v", kind, a, b)
		}
	}
}

func TestRunNeverMutatesTable(t *testing.T) {
	tab := trainedTable(t, 500)

	type entry struct {
		state  string
		action int
	}
	before := make(map[entry]float64)
	for s, actions := range tab {
		for a, v := range actions {
			before[entry{s, a}] = v
		}
	}

	if _, err := Run(tab, OpponentRandom, 500, 3); err != nil {
		t.Fatalf("Run: %v", err)
	}

	count := 0
	for s, actions := range tab {
		for a, v := range actions {
			count++
			if before[entry{s, a}] != v {
				t.Fatalf("table entry (%q, %d) changed during evaluation", s, a)
			}
		}
	}
	if count != len(before) {
		t.Fatalf("table grew from %d to %d entries during evaluation", len(before), count)
	}
}

// A briefly trained agent must clearly beat a random opponent.
func TestTrainedAgentBeatsRandom(t *testing.T) {
	tab := trainedTable(t, 20000)

	rep, err := Run(tab, OpponentRandom, 1000, 5)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.WinRate() < 0.6 {
		t.Fatalf("trained agent win rate vs random = %.2f, want >= 0.60 (%s)", rep.WinRate(), rep)
	}
}

func trainedTable(t *testing.T, episodes int) qtable.Table {
	t.Helper()
	tr := trainer.New(trainer.DefaultConfig(), qtable.New(), rand.New(rand.NewSource(17)))
	_, err := tr.Run(context.Background(),
		[]trainer.Phase{{Mode: trainer.ModeRandom, Episodes: episodes}},
		trainer.RunOptions{})
	if err != nil {
		t.Fatalf("training: %v", err)
	}
	return tr.Table()
}
