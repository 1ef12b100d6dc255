// Package trainer runs Q-learning episodes and owns the mutable
// learning state: the value table and the exploration rate.
//
// Episodes alternate the agent (X, always first) with an opponent
// chosen per training mode. Terminal rewards are propagated backward
// over the episode history with same-role chained bootstrapping, and
// epsilon decays geometrically toward a floor after every episode.
package trainer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/kaifkh20/ttoe-rl/game"
	"github.com/kaifkh20/ttoe-rl/minimax"
	"github.com/kaifkh20/ttoe-rl/policy"
	"github.com/kaifkh20/ttoe-rl/qtable"
	"github.com/kaifkh20/ttoe-rl/store"
)

// Mode selects the opponent playing O during training.
type Mode string

const (
	// ModeRandom plays O as a uniform random legal move.
	ModeRandom Mode = "random"
	// ModeSelf plays O with the same epsilon-greedy policy as X,
	// learning both roles through role-aware state keys.
	ModeSelf Mode = "selfplay"
	// ModeMinimax plays O with the exhaustive optimal opponent.
	ModeMinimax Mode = "minimax"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeRandom, ModeSelf, ModeMinimax:
		return true
	}
	return false
}

// Config holds the hyperparameters of one training run. They are fixed
// for the run's lifetime; only the exploration rate itself moves.
type Config struct {
	Alpha float64 // learning rate
	Gamma float64 // discount factor

	Epsilon      float64 // starting exploration rate
	EpsilonMin   float64 // decay floor
	EpsilonDecay float64 // geometric decay per episode, in (0,1)

	WinReward   float64 // terminal reward for the winning role
	LossReward  float64 // terminal reward for the losing role
	DrawReward  float64 // terminal reward for both roles on a draw
	StepPenalty float64 // reward for each surviving non-terminal move
}

// DefaultConfig returns the tuning the agent was originally trained
// with.
func DefaultConfig() Config {
	return Config{
		Alpha:        0.3,
		Gamma:        0.9,
		Epsilon:      0.7,
		EpsilonMin:   0.01,
		EpsilonDecay: 0.9997,
		WinReward:    10,
		LossReward:   -10,
		DrawReward:   0,
		StepPenalty:  -0.01,
	}
}

// Phase is one stage of a training schedule.
type Phase struct {
	Mode     Mode
	Episodes int
}

// DefaultSchedule is the full curriculum: bootstrap against a random
// opponent, refine by self-play, then harden against optimal play.
func DefaultSchedule() []Phase {
	return []Phase{
		{Mode: ModeRandom, Episodes: 300_000},
		{Mode: ModeSelf, Episodes: 500_000},
		{Mode: ModeMinimax, Episodes: 5_000},
	}
}

// Outcome summarizes one completed episode.
type Outcome struct {
	Winner game.Player // None on a draw
	Moves  []int32     // full ply sequence in play order
}

// Trainer is the sole mutator of its table during training.
type Trainer struct {
	cfg     Config
	table   qtable.Table
	rng     *rand.Rand
	epsilon float64
}

func New(cfg Config, table qtable.Table, rng *rand.Rand) *Trainer {
	return &Trainer{
		cfg:     cfg,
		table:   table,
		rng:     rng,
		epsilon: cfg.Epsilon,
	}
}

func (t *Trainer) Table() qtable.Table { return t.table }
func (t *Trainer) Epsilon() float64    { return t.epsilon }

// step is one decision recorded in the episode history: who moved,
// from which state, which cell, and which moves were legal there. The
// legal-move set is kept so a later backward pass can bootstrap from
// this position.
type step struct {
	role   game.Player
	state  string
	action int
	moves  []int
}

// RunEpisode plays a single game from the empty board and applies all
// value updates for it.
func (t *Trainer) RunEpisode(mode Mode) Outcome {
	var b game.Board
	history := make([]step, 0, 9)
	plies := make([]int32, 0, 9)

	for {
		// Agent (X).
		stateX := b.StateKey(game.X)
		movesX := b.LegalMoves()
		actionX := policy.ChooseTraining(t.rng, t.table, stateX, movesX, t.epsilon)
		b.MustApply(actionX, game.X)
		history = append(history, step{role: game.X, state: stateX, action: actionX, moves: movesX})
		plies = append(plies, int32(actionX))

		if winner, done := t.finish(&b, history); done {
			t.decayEpsilon()
			return Outcome{Winner: winner, Moves: plies}
		}

		// Opponent (O).
		stateO := b.StateKey(game.O)
		movesO := b.LegalMoves()
		var actionO int
		switch mode {
		case ModeMinimax:
			var ok bool
			if actionO, ok = minimax.BestMove(&b); !ok {
				actionO = movesO[t.rng.Intn(len(movesO))]
			}
		case ModeSelf:
			actionO = policy.ChooseTraining(t.rng, t.table, stateO, movesO, t.epsilon)
		default:
			actionO = movesO[t.rng.Intn(len(movesO))]
		}
		b.MustApply(actionO, game.O)
		history = append(history, step{role: game.O, state: stateO, action: actionO, moves: movesO})
		plies = append(plies, int32(actionO))

		if winner, done := t.finish(&b, history); done {
			t.decayEpsilon()
			return Outcome{Winner: winner, Moves: plies}
		}

		// Both sides survived the round: nudge their latest moves with
		// the step penalty, bootstrapped from the position they now
		// face. Only the most recent move of each role is touched.
		moves := b.LegalMoves()
		t.table.Update(stateX, actionX, t.cfg.StepPenalty, b.StateKey(game.X), moves, t.cfg.Alpha, t.cfg.Gamma)
		t.table.Update(stateO, actionO, t.cfg.StepPenalty, b.StateKey(game.O), moves, t.cfg.Alpha, t.cfg.Gamma)
	}
}

// finish checks for a terminal position and, if reached, propagates
// the terminal reward backward through the whole history. Later
// entries are updated first so each earlier entry bootstraps from the
// freshly updated value of the same role's next position.
func (t *Trainer) finish(b *game.Board, history []step) (game.Player, bool) {
	winner, won := b.Winner()
	if !won && !b.IsFull() {
		return game.None, false
	}

	// nextByRole tracks, walking backward, the most recently seen
	// (state, moves) for each role: the chained next position.
	nextByRole := map[game.Player]*step{}
	for i := len(history) - 1; i >= 0; i-- {
		s := &history[i]

		reward := t.cfg.DrawReward
		if won {
			if s.role == winner {
				reward = t.cfg.WinReward
			} else {
				reward = t.cfg.LossReward
			}
		}

		next := nextByRole[s.role]
		if next == nil {
			// Last move of this role: terminal transition.
			t.table.Update(s.state, s.action, reward, "", nil, t.cfg.Alpha, t.cfg.Gamma)
		} else {
			t.table.Update(s.state, s.action, reward, next.state, next.moves, t.cfg.Alpha, t.cfg.Gamma)
		}
		nextByRole[s.role] = s
	}

	return winner, true
}

func (t *Trainer) decayEpsilon() {
	t.epsilon *= t.cfg.EpsilonDecay
	if t.epsilon < t.cfg.EpsilonMin {
		t.epsilon = t.cfg.EpsilonMin
	}
}

// RunStats aggregates outcomes across a run, from the agent's (X)
// perspective.
type RunStats struct {
	Episodes int64
	Wins     int64
	Losses   int64
	Draws    int64
}

// ProgressUpdate is delivered to the progress hook every
// ProgressEvery episodes and at the end of each phase.
type ProgressUpdate struct {
	Phase        Mode
	PhaseEpisode int
	PhaseTotal   int
	Epsilon      float64
	States       int
	Stats        RunStats
}

// RunOptions configures a full training run.
type RunOptions struct {
	// OnProgress, when set, receives periodic updates.
	OnProgress func(ProgressUpdate)
	// ProgressEvery is the update interval in episodes (default 5000).
	ProgressEvery int
	// Archive, when set, receives one EpisodeRow per completed game.
	Archive *store.BatchWriter
}

// Run executes phases in order. A cancelled context stops between
// episodes and returns the stats so far with the context's error; the
// table keeps all updates applied up to that point.
func (t *Trainer) Run(ctx context.Context, phases []Phase, opts RunOptions) (RunStats, error) {
	every := opts.ProgressEvery
	if every <= 0 {
		every = 5000
	}

	var stats RunStats
	runID := time.Now().UnixNano()

	for _, phase := range phases {
		if !phase.Mode.Valid() {
			return stats, fmt.Errorf("unknown training mode %q", phase.Mode)
		}

		for ep := 0; ep < phase.Episodes; ep++ {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			default:
			}

			epsilonBefore := t.epsilon
			out := t.RunEpisode(phase.Mode)

			stats.Episodes++
			winner := "D"
			switch out.Winner {
			case game.X:
				stats.Wins++
				winner = "X"
			case game.O:
				stats.Losses++
				winner = "O"
			default:
				stats.Draws++
			}

			if opts.Archive != nil {
				row := store.EpisodeRow{
					GameID:  fmt.Sprintf("episode_%d_%d", runID, stats.Episodes),
					Phase:   string(phase.Mode),
					Episode: stats.Episodes,
					Moves:   out.Moves,
					Winner:  winner,
					Steps:   int32(len(out.Moves)),
					Epsilon: epsilonBefore,
				}
				if err := opts.Archive.WriteRows([]store.EpisodeRow{row}); err != nil {
					return stats, fmt.Errorf("archive episode: %w", err)
				}
			}

			if opts.OnProgress != nil && ((ep+1)%every == 0 || ep+1 == phase.Episodes) {
				opts.OnProgress(ProgressUpdate{
					Phase:        phase.Mode,
					PhaseEpisode: ep + 1,
					PhaseTotal:   phase.Episodes,
					Epsilon:      t.epsilon,
					States:       t.table.States(),
					Stats:        stats,
				})
			}
		}
	}

	return stats, nil
}
