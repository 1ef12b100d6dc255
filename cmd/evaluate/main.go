// Package main evaluates a trained agent against benchmark opponents
// and reports win/loss/draw rates plus state-space coverage.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/kaifkh20/ttoe-rl/evaluate"
	"github.com/kaifkh20/ttoe-rl/qtable"
)

const reachableBoards = 5478

func main() {
	tablePath := flag.String("table", "qtable.parquet", "Path of the persisted Q-table")
	randomGames := flag.Int("random-games", 100_000, "Games against the random opponent")
	optimalGames := flag.Int("optimal-games", 1_000, "Games against the optimal opponent")
	seed := flag.Int64("seed", 1, "RNG seed for reproducible runs")
	flag.Parse()

	table, err := qtable.Load(*tablePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Q-table %s not found. Train the agent first (cmd/train).\n", *tablePath)
			os.Exit(1)
		}
		if errors.Is(err, qtable.ErrCorrupt) {
			fmt.Fprintf(os.Stderr, "Q-table %s is unreadable (%v). Re-train the agent (cmd/train).\n", *tablePath, err)
			os.Exit(1)
		}
		log.Fatalf("Failed to load Q-table %s: %v", *tablePath, err)
	}
	log.Printf("Loaded Q-table with %d states from %s", table.States(), *tablePath)

	vsRandom, err := evaluate.Run(table, evaluate.OpponentRandom, *randomGames, *seed)
	if err != nil {
		log.Fatalf("Evaluation vs random failed: %v", err)
	}
	log.Print(vsRandom)

	vsOptimal, err := evaluate.Run(table, evaluate.OpponentOptimal, *optimalGames, *seed)
	if err != nil {
		log.Fatalf("Evaluation vs optimal failed: %v", err)
	}
	log.Print(vsOptimal)

	fmt.Println()
	fmt.Printf("%-10s %-12s %-12s %-12s\n", "Opponent", "Win rate", "Loss rate", "Draw rate")
	for _, r := range []evaluate.Report{vsRandom, vsOptimal} {
		fmt.Printf("%-10s %-11.2f%% %-11.2f%% %-11.2f%%\n",
			r.Opponent, r.WinRate()*100, r.LossRate()*100, r.DrawRate()*100)
	}

	patterns := table.BoardPatterns()
	fmt.Println()
	fmt.Printf("State-space coverage: %d role-aware states, %d/%d board patterns (%.2f%%)\n",
		table.States(), patterns, reachableBoards, float64(patterns)/reachableBoards*100)

	switch {
	case vsOptimal.LossRate() == 0 && vsRandom.WinRate() > 0.9:
		fmt.Println("Level: expert (never loses to optimal, dominates random)")
	case vsOptimal.DrawRate() > 0.8:
		fmt.Println("Level: strong (mostly draws against optimal)")
	case vsOptimal.DrawRate() > 0.5:
		fmt.Println("Level: intermediate (avoids many losses against optimal)")
	default:
		fmt.Println("Level: beginner (keep training; self-play helps)")
	}
}
