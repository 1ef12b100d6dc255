// Package main is an interactive game against the agent.
//
// The human plays O and moves first; the agent plays X and keeps
// learning from every finished game, saving its table after each one.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kaifkh20/ttoe-rl/game"
	"github.com/kaifkh20/ttoe-rl/policy"
	"github.com/kaifkh20/ttoe-rl/qtable"
)

// memoryEntry is one agent decision of the current game, kept so the
// outcome can be propagated backward once the game ends.
type memoryEntry struct {
	state  string
	action int
	moves  []int
}

type scores struct {
	human, agent, draws int
}

type model struct {
	table     qtable.Table
	tablePath string
	rng       *rand.Rand

	alpha   float64
	gamma   float64
	epsilon float64

	board    game.Board
	cursor   int
	memory   []memoryEntry
	gameOver bool
	status   string
	scores   scores
}

func newModel(table qtable.Table, tablePath string, rng *rand.Rand, alpha, gamma, epsilon float64) model {
	return model{
		table:     table,
		tablePath: tablePath,
		rng:       rng,
		alpha:     alpha,
		gamma:     gamma,
		epsilon:   epsilon,
		cursor:    4,
		status:    "Your turn (O). Arrows or 1-9 to aim, enter to place.",
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n":
		m.board = game.Board{}
		m.memory = nil
		m.gameOver = false
		m.status = "Your turn (O). Arrows or 1-9 to aim, enter to place."
		return m, nil
	case "up", "k":
		if m.cursor >= 3 {
			m.cursor -= 3
		}
		return m, nil
	case "down", "j":
		if m.cursor <= 5 {
			m.cursor += 3
		}
		return m, nil
	case "left", "h":
		if m.cursor%3 > 0 {
			m.cursor--
		}
		return m, nil
	case "right", "l":
		if m.cursor%3 < 2 {
			m.cursor++
		}
		return m, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.cursor = int(key.String()[0] - '1')
		return m, nil
	case "enter", " ":
		return m.place(), nil
	}
	return m, nil
}

func (m model) place() model {
	if m.gameOver || m.board[m.cursor] != game.None {
		return m
	}

	m.board.MustApply(m.cursor, game.O)
	if m.checkEnd() {
		return m
	}

	// Agent reply.
	state := m.board.StateKey(game.X)
	moves := m.board.LegalMoves()
	action := policy.ChooseTraining(m.rng, m.table, state, moves, m.epsilon)
	m.memory = append(m.memory, memoryEntry{state: state, action: action, moves: moves})
	m.board.MustApply(action, game.X)
	if m.checkEnd() {
		return m
	}

	m.status = "Your turn (O)."
	return m
}

// checkEnd detects a terminal position, runs the backward learning
// pass and persists the table. Reports whether the game ended.
func (m *model) checkEnd() bool {
	winner, won := m.board.Winner()
	if !won && !m.board.IsFull() {
		return false
	}

	var reward float64
	switch {
	case won && winner == game.X:
		reward = 1
		m.scores.agent++
		m.status = "Agent wins. n for a new game, q to quit."
	case won && winner == game.O:
		reward = -1
		m.scores.human++
		m.status = "You win! n for a new game, q to quit."
	default:
		m.scores.draws++
		m.status = "Draw. n for a new game, q to quit."
	}

	// Only the final transition carries the outcome; earlier moves
	// chain through the bootstrapped values.
	for i := len(m.memory) - 1; i >= 0; i-- {
		e := m.memory[i]
		if i == len(m.memory)-1 {
			m.table.Update(e.state, e.action, reward, "", nil, m.alpha, m.gamma)
			continue
		}
		next := m.memory[i+1]
		m.table.Update(e.state, e.action, 0, next.state, next.moves, m.alpha, m.gamma)
	}

	m.gameOver = true
	if err := m.table.Save(m.tablePath); err != nil {
		m.status = fmt.Sprintf("Failed to save table: %v", err)
	}
	return true
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString("Tic-tac-toe — you are O, the agent is X\n\n")

	for row := 0; row < 3; row++ {
		b.WriteString("  ")
		for col := 0; col < 3; col++ {
			i := row*3 + col
			cell := m.board[i].Symbol()
			if cell == ' ' {
				cell = '.'
			}
			if i == m.cursor && !m.gameOver {
				fmt.Fprintf(&b, "[%c]", cell)
			} else {
				fmt.Fprintf(&b, " %c ", cell)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n%s\n", m.status)
	fmt.Fprintf(&b, "\nScore  you %d | agent %d | draws %d", m.scores.human, m.scores.agent, m.scores.draws)
	fmt.Fprintf(&b, "\nQ states: %d\n", m.table.States())
	return b.String()
}

func main() {
	tablePath := flag.String("table", "qtable.parquet", "Path of the persisted Q-table")
	alpha := flag.Float64("alpha", 0.5, "Learning rate for live games")
	gamma := flag.Float64("gamma", 0.9, "Discount factor")
	epsilon := flag.Float64("epsilon", 0.2, "Exploration rate for live games")
	flag.Parse()

	table, err := qtable.LoadOrEmpty(*tablePath)
	if err != nil {
		log.Fatalf("Failed to load Q-table %s: %v", *tablePath, err)
	}
	if table.States() > 0 {
		log.Printf("Loaded Q-table with %d states", table.States())
	} else {
		log.Print("No Q-table found, the agent starts untrained")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	p := tea.NewProgram(newModel(table, *tablePath, rng, *alpha, *gamma, *epsilon))
	if _, err := p.Run(); err != nil {
		log.Fatalf("TUI failed: %v", err)
	}

	if err := table.Save(*tablePath); err != nil {
		log.Fatalf("Failed to save Q-table: %v", err)
	}
	log.Printf("Saved Q-table with %d states to %s", table.States(), *tablePath)
}
