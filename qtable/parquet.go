package qtable

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// ValueRow is one (state, action, value) entry of the persisted table.
// State is dictionary-encoded: each state key repeats once per learned
// action.
type ValueRow struct {
	State  string  `parquet:"state,dict"`
	Action int32   `parquet:"action"`
	Value  float64 `parquet:"value"`
}

// Save writes the whole table to path as a zstd-compressed parquet
// file. The write goes to a temp file and is renamed atomically, so an
// interrupted save leaves the previous snapshot intact.
//
// Rows are emitted in sorted (state, action) order. The ordering
// carries no meaning; it just keeps snapshots of equal tables
// byte-comparable.
func (t Table) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create table dir: %w", err)
		}
	}

	rows := make([]ValueRow, 0, len(t)*4)
	for state, actions := range t {
		for action, value := range actions {
			rows = append(rows, ValueRow{State: state, Action: int32(action), Value: value})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].State != rows[j].State {
			return rows[i].State < rows[j].State
		}
		return rows[i].Action < rows[j].Action
	})

	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "qtable_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write qtable parquet: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename qtable parquet: %w", err)
	}
	return nil
}

// ErrCorrupt marks a table file that exists but cannot be decoded.
// Training callers recover from it with a fresh table; evaluation
// callers report it and stop.
var ErrCorrupt = errors.New("corrupt qtable file")

// Load reads a table previously written by Save. A file that cannot be
// decoded yields an error wrapping ErrCorrupt; the parquet reader
// panics on malformed input, so decoding is hedged with a recover.
func Load(path string) (t Table, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("%w %s: %v", ErrCorrupt, path, r)
		}
	}()

	reader := parquet.NewGenericReader[ValueRow](f)
	defer reader.Close()

	t = New()
	buf := make([]ValueRow, 1024)
	for {
		n, readErr := reader.Read(buf)
		for i := 0; i < n; i++ {
			row := &buf[i]
			actions := t[row.State]
			if actions == nil {
				actions = make(map[int]float64, 4)
				t[row.State] = actions
			}
			actions[int(row.Action)] = row.Value
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w %s: %v", ErrCorrupt, path, readErr)
		}
	}
	return t, nil
}

// LoadOrEmpty loads path, substituting a fresh empty table when the
// file is missing or corrupt. Training starts cold in either case;
// only genuine I/O errors (permissions and the like) are reported.
func LoadOrEmpty(path string) (Table, error) {
	t, err := Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		if errors.Is(err, ErrCorrupt) {
			log.Printf("Discarding unreadable Q-table: %v", err)
			return New(), nil
		}
		return nil, err
	}
	return t, nil
}
