package snapshot

import (
	"time"

	"github.com/cuemby/statekeep/pkg/log"
	"github.com/rs/zerolog"
)

// Flusher is satisfied by the instance registry: FlushDirty persists
// every instance whose stateVersion has changed since its last flush.
type Flusher interface {
	FlushDirty() error
}

// Worker periodically calls FlushDirty on a fixed interval. An interval
// of 0 disables the ticker entirely — the caller is then responsible
// for flushing explicitly (e.g. only on shutdown).
type Worker struct {
	interval time.Duration
	flusher  Flusher
	logger   zerolog.Logger
	stopCh   chan struct{}
}

// NewWorker returns a Worker that calls flusher.FlushDirty every interval.
func NewWorker(interval time.Duration, flusher Flusher) *Worker {
	return &Worker{
		interval: interval,
		flusher:  flusher,
		logger:   log.WithComponent("snapshot"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the flush loop in its own goroutine. A zero interval
// makes Start a no-op.
func (w *Worker) Start() {
	if w.interval <= 0 {
		return
	}
	go w.run()
}

// Stop stops the flush loop. Safe to call even if Start was a no-op.
func (w *Worker) Stop() {
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
}

func (w *Worker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.flusher.FlushDirty(); err != nil {
				w.logger.Error().Err(err).Msg("periodic snapshot flush failed")
			}
		case <-w.stopCh:
			return
		}
	}
}
