// Package qtable holds the learned action-value table and its
// persistence.
//
// The table is a lazy dictionary-of-dictionaries: state key -> action
// index -> value. Missing entries read as 0.0 and the read path never
// allocates, so evaluation can share a table without mutating it.
package qtable

// Table maps role-aware state keys to per-action value estimates.
type Table map[string]map[int]float64

// New returns an empty table.
func New() Table {
	return make(Table)
}

// Get returns the stored value for (state, action), or 0.0 when either
// level is absent. It never creates entries.
func (t Table) Get(state string, action int) float64 {
	return t[state][action]
}

// MaxValue returns the greatest stored value among moves in state.
// With no moves it returns 0.0, the terminal bootstrap.
func (t Table) MaxValue(state string, moves []int) float64 {
	best := 0.0
	for i, m := range moves {
		v := t.Get(state, m)
		if i == 0 || v > best {
			best = v
		}
	}
	return best
}

// Update applies the one-step temporal-difference rule
//
//	Q[s][a] += alpha * (reward + gamma*max_a' Q[s'][a'] - Q[s][a])
//
// creating the (state, action) entry at 0.0 if absent. nextMoves empty
// means a terminal transition: only the reward propagates.
func (t Table) Update(state string, action int, reward float64, nextState string, nextMoves []int, alpha, gamma float64) {
	actions := t[state]
	if actions == nil {
		actions = make(map[int]float64, 4)
		t[state] = actions
	}
	current := actions[action]
	future := t.MaxValue(nextState, nextMoves)
	actions[action] = current + alpha*(reward+gamma*future-current)
}

// States returns the number of distinct state keys.
func (t Table) States() int {
	return len(t)
}

// BoardPatterns counts distinct board patterns ignoring the role
// suffix. Useful against the 5478 reachable-position total when
// reporting state-space coverage.
func (t Table) BoardPatterns() int {
	boards := make(map[string]struct{}, len(t))
	for k := range t {
		if len(k) >= 9 {
			boards[k[:9]] = struct{}{}
		}
	}
	return len(boards)
}
