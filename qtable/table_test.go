package qtable

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaultsToZero(t *testing.T) {
	tab := New()
	if v := tab.Get("         X", 4); v != 0 {
		t.Fatalf("Get on empty table = %v, want 0", v)
	}
	if len(tab) != 0 {
		t.Fatal("Get created entries")
	}
}

// Q=0, reward=10, terminal next state, alpha=0.5 gives exactly 5.0.
func TestUpdateTerminal(t *testing.T) {
	tab := New()
	tab.Update("    X    O", 0, 10, "", nil, 0.5, 0.9)
	if v := tab.Get("    X    O", 0); v != 5.0 {
		t.Fatalf("Q after terminal update = %v, want 5.0", v)
	}
}

func TestUpdateBootstrapsFromNextState(t *testing.T) {
	tab := New()
	tab["next"] = map[int]float64{1: 2.0, 3: 8.0}

	// Q <- 0 + 0.5*(1 + 0.9*8 - 0) = 4.1
	tab.Update("cur", 4, 1, "next", []int{1, 3}, 0.5, 0.9)
	if v := tab.Get("cur", 4); math.Abs(v-4.1) > 1e-12 {
		t.Fatalf("Q after bootstrapped update = %v, want 4.1", v)
	}
}

func TestMaxValueNegativeEntries(t *testing.T) {
	tab := New()
	tab["s"] = map[int]float64{0: -3, 5: -1}
	if v := tab.MaxValue("s", []int{0, 5}); v != -1 {
		t.Fatalf("MaxValue = %v, want -1", v)
	}
	if v := tab.MaxValue("s", nil); v != 0 {
		t.Fatalf("MaxValue with no moves = %v, want 0", v)
	}
}

func TestBoardPatterns(t *testing.T) {
	tab := New()
	tab.Update("X        X", 1, 1, "", nil, 0.5, 0.9)
	tab.Update("X        O", 2, 1, "", nil, 0.5, 0.9)
	tab.Update("XO       X", 3, 1, "", nil, 0.5, 0.9)
	if got := tab.BoardPatterns(); got != 2 {
		t.Fatalf("BoardPatterns = %d, want 2", got)
	}
	if got := tab.States(); got != 3 {
		t.Fatalf("States = %d, want 3", got)
	}
}

func tablesEqual(a, b Table) bool {
	if len(a) != len(b) {
		return false
	}
	for state, actions := range a {
		other, ok := b[state]
		if !ok || len(other) != len(actions) {
			return false
		}
		for action, value := range actions {
			if other[action] != value {
				return false
			}
		}
	}
	return true
}

func TestSaveLoadRoundTrip(t *testing.T) {
	tab := New()
	tab.Update("    X    O", 0, 10, "", nil, 0.3, 0.9)
	tab.Update("    X    O", 8, -10, "", nil, 0.3, 0.9)
	tab.Update("X   O    X", 4, -0.01, "    X    O", []int{0, 8}, 0.3, 0.9)

	path := filepath.Join(t.TempDir(), "qtable.parquet")
	if err := tab.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !tablesEqual(tab, loaded) {
		t.Fatalf("round trip mismatch: saved %v, loaded %v", tab, loaded)
	}

	// Saving the loaded table again must preserve equality.
	path2 := filepath.Join(t.TempDir(), "qtable2.parquet")
	if err := loaded.Save(path2); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	again, err := Load(path2)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if !tablesEqual(loaded, again) {
		t.Fatal("second round trip mismatch")
	}
}

func TestSaveLoadEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	if err := New().Save(path); err != nil {
		t.Fatalf("Save empty: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("loaded %d states from empty table", len(loaded))
	}
}

func TestLoadOrEmptyMissingFile(t *testing.T) {
	tab, err := LoadOrEmpty(filepath.Join(t.TempDir(), "nope.parquet"))
	if err != nil {
		t.Fatalf("LoadOrEmpty: %v", err)
	}
	if tab == nil || len(tab) != 0 {
		t.Fatalf("LoadOrEmpty = %v, want fresh empty table", tab)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.parquet")
	if err := os.WriteFile(path, []byte("not a parquet file at all"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load accepted garbage bytes")
	}
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Load error = %v, want ErrCorrupt", err)
	}
}

func TestLoadOrEmptyCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.parquet")
	if err := os.WriteFile(path, []byte("not a parquet file at all"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	tab, err := LoadOrEmpty(path)
	if err != nil {
		t.Fatalf("LoadOrEmpty: %v", err)
	}
	if tab == nil || len(tab) != 0 {
		t.Fatalf("LoadOrEmpty = %v, want fresh empty table", tab)
	}
}

func TestLoadTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full.parquet")
	tab := New()
	tab.Update("XO       X", 4, 10, "", nil, 0.3, 0.9)
	if err := tab.Save(full); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	cut := filepath.Join(dir, "cut.parquet")
	if err := os.WriteFile(cut, data[:len(data)/2], 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(cut); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Load error = %v, want ErrCorrupt", err)
	}
}
