// Package main serves the trained agent over HTTP: a JSON move API
// and a websocket feed of live exhibition games.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/kaifkh20/ttoe-rl/logging"
	"github.com/kaifkh20/ttoe-rl/qtable"
	"github.com/kaifkh20/ttoe-rl/server"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	tablePath := flag.String("table", "qtable.parquet", "Path of the persisted Q-table")
	seed := flag.Int64("seed", 0, "RNG seed for unseen-state fallbacks (0 means time-based)")
	flag.Parse()

	logger := slog.New(logging.NewPrettyJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

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
		logger.Error("failed to load Q-table", "path", *tablePath, "err", err)
		os.Exit(1)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	mux := http.NewServeMux()
	server.New(table, logger, *seed).RegisterRoutes(mux)

	logger.Info("agent server listening",
		"addr", *addr,
		"table", *tablePath,
		"states", table.States(),
		"board_patterns", table.BoardPatterns())

	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
