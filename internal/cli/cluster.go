package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/soloq/internal/bus"
	"github.com/roach88/soloq/internal/coord"
	"github.com/roach88/soloq/internal/election"
	"github.com/roach88/soloq/internal/envelope"
	"github.com/roach88/soloq/internal/storage"
)

// startupTimeout bounds the wait for the elected leader to finish
// initializing the database and announce itself.
const startupTimeout = 10 * time.Second

// startCluster wires n workers to a fresh bus and lock registry over the
// database at dbPath, waits for the leadership announcement, and returns
// the workers plus a shutdown function.
func startCluster(ctx context.Context, dbPath string, n int) ([]*coord.Worker, func(), error) {
	b := bus.NewInMemory()
	registry := election.NewRegistry()
	opener := storage.NewSQLite(dbPath)

	tap, err := b.Subscribe()
	if err != nil {
		return nil, nil, fmt.Errorf("subscribe to bus: %w", err)
	}
	defer tap.Close()

	announced := make(chan string, 1)
	go func() {
		for frame := range tap.C() {
			msg, err := envelope.Decode(frame)
			if err != nil || msg.Type != envelope.KindNewLeader {
				continue
			}
			announced <- msg.LeaderID
			return
		}
	}()

	workers := make([]*coord.Worker, 0, n)
	shutdown := func() {
		for i := len(workers) - 1; i >= 0; i-- {
			workers[i].Close()
		}
	}

	for i := 0; i < n; i++ {
		w := coord.New(b, registry, opener, coord.WithLogger(slog.Default()))
		if err := w.Start(ctx); err != nil {
			shutdown()
			return nil, nil, fmt.Errorf("start worker %d: %w", i, err)
		}
		workers = append(workers, w)
	}

	select {
	case leader := <-announced:
		slog.Info("cluster ready", "workers", n, "leader", leader)
	case <-time.After(startupTimeout):
		shutdown()
		return nil, nil, fmt.Errorf("no leader announced within %v", startupTimeout)
	case <-ctx.Done():
		shutdown()
		return nil, nil, ctx.Err()
	}

	return workers, shutdown, nil
}
