package runner

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ytsift/ytsift/pkg/core"
)

// Supervisor serializes runs for one active view: starting a new run cancels
// the previous run's outstanding work and guarantees that only the most
// recently requested run ever publishes. Stale runs finish (or abort) and
// their results are discarded silently.
type Supervisor struct {
	runner     *Runner
	generation atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSupervisor wraps a runner.
func NewSupervisor(r *Runner) *Supervisor {
	return &Supervisor{runner: r}
}

// Start launches the run in the background and returns immediately; the
// caller's thread never blocks on upstream fetches. publish is invoked
// exactly once from the run's goroutine unless a newer run supersedes this
// one first.
func (s *Supervisor) Start(ctx context.Context, req *core.RunRequest, apiKeys []string, publish func(*core.RunResult, error)) {
	// The increment has to happen under the same lock as the cancel swap:
	// otherwise a racing older Start could cancel this run's context while
	// this run still holds the newest generation.
	s.mu.Lock()
	gen := s.generation.Add(1)
	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer cancel()
		result, err := s.runner.Run(runCtx, req, apiKeys)
		// A newer generation owns the view now; drop this outcome.
		if s.generation.Load() != gen {
			return
		}
		publish(result, err)
	}()
}

// Stop cancels any in-flight run without starting a new one.
func (s *Supervisor) Stop() {
	s.generation.Add(1)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}
