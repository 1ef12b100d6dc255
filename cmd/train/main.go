// Package main trains the tic-tac-toe Q-learning agent.
//
// Training runs a curriculum of phases (random, self-play, minimax
// opponents), shows a live TUI dashboard, and persists the learned
// table on completion or interrupt.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kaifkh20/ttoe-rl/qtable"
	"github.com/kaifkh20/ttoe-rl/store"
	"github.com/kaifkh20/ttoe-rl/trainer"
)

type runResult struct {
	stats trainer.RunStats
	err   error
}

type model struct {
	updates chan trainer.ProgressUpdate
	done    chan runResult
	cancel  context.CancelFunc

	startTime time.Time
	current   trainer.ProgressUpdate
	recent    []string
	finished  bool
	result    runResult
}

func initialModel(updates chan trainer.ProgressUpdate, done chan runResult, cancel context.CancelFunc) model {
	return model{
		updates:   updates,
		done:      done,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*250, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForUpdate(updates chan trainer.ProgressUpdate, done chan runResult) tea.Cmd {
	return func() tea.Msg {
		select {
		case u := <-updates:
			return u
		case r := <-done:
			return r
		}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates, m.done), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.cancel()
			return m, nil
		}
	case tickMsg:
		if m.finished {
			return m, tea.Quit
		}
		return m, tickCmd()
	case trainer.ProgressUpdate:
		m.current = msg
		line := fmt.Sprintf("[%s] ep %d/%d | states %d | eps %.4f",
			msg.Phase, msg.PhaseEpisode, msg.PhaseTotal, msg.States, msg.Epsilon)
		m.recent = append([]string{line}, m.recent...)
		if len(m.recent) > 10 {
			m.recent = m.recent[:10]
		}
		return m, waitForUpdate(m.updates, m.done)
	case runResult:
		m.finished = true
		m.result = msg
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	stats := m.current.Stats
	epsPerSec := 0.0
	if duration.Seconds() >= 1 {
		epsPerSec = float64(stats.Episodes) / duration.Seconds()
	}

	s := "Q-learning trainer\n\n"
	s += fmt.Sprintf("Phase:         %s (%d/%d)\n", m.current.Phase, m.current.PhaseEpisode, m.current.PhaseTotal)
	s += fmt.Sprintf("Episodes:      %d\n", stats.Episodes)
	s += fmt.Sprintf("W/L/D:         %d/%d/%d\n", stats.Wins, stats.Losses, stats.Draws)
	s += fmt.Sprintf("Q states:      %d\n", m.current.States)
	s += fmt.Sprintf("Epsilon:       %.4f\n", m.current.Epsilon)
	s += fmt.Sprintf("Duration:      %s\n", duration.Round(time.Second))
	s += fmt.Sprintf("Episodes/sec:  %.0f\n\n", epsPerSec)

	s += "Recent progress:\n"
	for _, line := range m.recent {
		s += line + "\n"
	}
	s += "\nPress q to stop and save.\n"
	return s
}

func main() {
	tablePath := flag.String("table", "qtable.parquet", "Path of the persisted Q-table")
	archiveDir := flag.String("archive-dir", "", "If set, write per-episode parquet archives to this directory")
	randomEps := flag.Int("random", 300_000, "Episodes against the random opponent")
	selfplayEps := flag.Int("selfplay", 500_000, "Self-play episodes")
	minimaxEps := flag.Int("minimax", 5_000, "Episodes against the optimal opponent")
	alpha := flag.Float64("alpha", 0.3, "Learning rate")
	gamma := flag.Float64("gamma", 0.9, "Discount factor")
	epsilon := flag.Float64("epsilon", 0.7, "Starting exploration rate")
	epsilonMin := flag.Float64("epsilon-min", 0.01, "Exploration rate floor")
	decay := flag.Float64("decay", 0.9997, "Exploration decay per episode")
	progressEvery := flag.Int("progress-every", 5000, "Episodes between progress updates")
	seed := flag.Int64("seed", 0, "RNG seed (0 means time-based)")
	noTUI := flag.Bool("no-tui", false, "Plain log progress instead of the dashboard")
	flag.Parse()

	table, err := qtable.LoadOrEmpty(*tablePath)
	if err != nil {
		log.Fatalf("Failed to load Q-table %s: %v", *tablePath, err)
	}
	if table.States() > 0 {
		log.Printf("Loaded Q-table with %d states from %s", table.States(), *tablePath)
	} else {
		log.Printf("No Q-table at %s, starting fresh", *tablePath)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	cfg := trainer.DefaultConfig()
	cfg.Alpha = *alpha
	cfg.Gamma = *gamma
	cfg.Epsilon = *epsilon
	cfg.EpsilonMin = *epsilonMin
	cfg.EpsilonDecay = *decay

	tr := trainer.New(cfg, table, rand.New(rand.NewSource(*seed)))

	phases := make([]trainer.Phase, 0, 3)
	for _, p := range []trainer.Phase{
		{Mode: trainer.ModeRandom, Episodes: *randomEps},
		{Mode: trainer.ModeSelf, Episodes: *selfplayEps},
		{Mode: trainer.ModeMinimax, Episodes: *minimaxEps},
	} {
		if p.Episodes > 0 {
			phases = append(phases, p)
		}
	}
	if len(phases) == 0 {
		log.Fatal("Nothing to do: all phase episode counts are 0")
	}

	var archive *store.BatchWriter
	if *archiveDir != "" {
		archive, err = store.NewBatchWriter(*archiveDir)
		if err != nil {
			log.Fatalf("Failed to open episode archive: %v", err)
		}
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	opts := trainer.RunOptions{ProgressEvery: *progressEvery, Archive: archive}

	var stats trainer.RunStats
	var runErr error
	if *noTUI {
		opts.OnProgress = func(u trainer.ProgressUpdate) {
			log.Printf("[%s] Ep %d/%d | Q-size: %d | eps=%.4f",
				u.Phase, u.PhaseEpisode, u.PhaseTotal, u.States, u.Epsilon)
		}
		stats, runErr = tr.Run(ctx, phases, opts)
	} else {
		updates := make(chan trainer.ProgressUpdate, 64)
		done := make(chan runResult, 1)
		opts.OnProgress = func(u trainer.ProgressUpdate) {
			select {
			case updates <- u:
			default: // dashboard is behind; drop rather than stall training
			}
		}

		go func() {
			s, err := tr.Run(ctx, phases, opts)
			done <- runResult{stats: s, err: err}
		}()

		p := tea.NewProgram(initialModel(updates, done, cancel))
		finalModel, teaErr := p.Run()
		if teaErr != nil {
			log.Fatalf("Dashboard failed: %v", teaErr)
		}
		if m, ok := finalModel.(model); ok && m.finished {
			stats, runErr = m.result.stats, m.result.err
		} else {
			// Dashboard exited first; wait for the trainer to stop.
			cancel()
			r := <-done
			stats, runErr = r.stats, r.err
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Fatalf("Training failed: %v", runErr)
	}
	if errors.Is(runErr, context.Canceled) {
		log.Printf("Training interrupted after %d episodes, saving progress", stats.Episodes)
	}

	if archive != nil {
		path, rows, err := archive.Finalize()
		if err != nil {
			log.Printf("Failed to finalize episode archive: %v", err)
		} else if rows > 0 {
			log.Printf("Episode archive: %d rows -> %s", rows, path)
		}
	}

	if err := table.Save(*tablePath); err != nil {
		log.Fatalf("Failed to save Q-table: %v", err)
	}

	log.Printf("TRAINING COMPLETE | episodes: %d | W/L/D: %d/%d/%d | Q states: %d | final eps=%.4f | saved %s",
		stats.Episodes, stats.Wins, stats.Losses, stats.Draws, table.States(), tr.Epsilon(), *tablePath)
}
