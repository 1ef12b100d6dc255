// Package store persists training episode archives as parquet shards.
//
// Episodes are append-only analysis data, separate from the learned
// Q-table snapshot: one row per completed game, optimized for
// compression with dictionary-encoded phase and winner columns.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// EpisodeRow is a single completed training game.
//
// Moves is the full ply sequence in play order (cell indices 0-8,
// X first). Winner is "X", "O" or "D" for a draw. Epsilon records the
// exploration rate in effect when the episode started.
type EpisodeRow struct {
	GameID  string  `parquet:"game_id,dict"`
	Phase   string  `parquet:"phase,dict"`
	Episode int64   `parquet:"episode"`
	Moves   []int32 `parquet:"moves"`
	Winner  string  `parquet:"winner,dict"`
	Steps   int32   `parquet:"steps"`
	Epsilon float64 `parquet:"epsilon"`
}

// ReadEpisodes loads every row of one archive shard.
func ReadEpisodes(path string) ([]EpisodeRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := parquet.NewGenericReader[EpisodeRow](f)
	defer reader.Close()

	out := make([]EpisodeRow, 0, 1024)
	buf := make([]EpisodeRow, 512)
	for {
		n, readErr := reader.Read(buf)
		out = append(out, buf[:n]...)
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read episode parquet: %w", readErr)
		}
	}
	return out, nil
}
