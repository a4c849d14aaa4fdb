package scanner

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRunInProgress is returned when a batch pass is already active.
var ErrRunInProgress = errors.New("scan run already in progress")

// Summary reports the outcome of one batch pass.
type Summary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Processed  int       `json:"processed"`
	Skipped    int       `json:"skipped"`
	Rejected   int       `json:"rejected"`
	Errors     []string  `json:"errors,omitempty"`
}

// runState guards single-flight execution and accumulates counters for the
// run in progress.
type runState struct {
	mu      sync.Mutex
	running bool
	cur     Summary
}

func (r *runState) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	r.cur = Summary{StartedAt: time.Now()}
	return true
}

func (r *runState) end() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

func (r *runState) finish() {
	r.mu.Lock()
	r.cur.FinishedAt = time.Now()
	r.mu.Unlock()
}

func (r *runState) fail(err error) {
	r.mu.Lock()
	r.cur.FinishedAt = time.Now()
	r.cur.Errors = append(r.cur.Errors, err.Error())
	r.mu.Unlock()
}

func (r *runState) incProcessed() {
	r.mu.Lock()
	r.cur.Processed++
	r.mu.Unlock()
}

func (r *runState) incRejected() {
	r.mu.Lock()
	r.cur.Rejected++
	r.mu.Unlock()
}

func (r *runState) addSkipped(n int) {
	r.mu.Lock()
	r.cur.Skipped += n
	r.mu.Unlock()
}

func (r *runState) addError(msg string) {
	r.mu.Lock()
	r.cur.Errors = append(r.cur.Errors, msg)
	r.mu.Unlock()
}

func (r *runState) last() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := r.cur
	sum.Errors = append([]string(nil), r.cur.Errors...)
	return sum
}

func (r *runState) active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Watch runs batch passes on the given interval until the context is
// cancelled. A pass already triggered elsewhere simply makes the tick a
// no-op.
func (s *Scanner) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
				s.log.Error("scheduled scan pass failed", "error", err)
			}
		}
	}
}
