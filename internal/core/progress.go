package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// progressRetention is how long a finished run's last snapshot stays
// available to late subscribers.
const progressRetention = 5 * time.Minute

// ProgressHub fans progress snapshots out to in-process subscribers.
type ProgressHub struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*progressRun
}

type progressRun struct {
	last      ImportProgress
	listeners []chan ImportProgress
	done      bool
}

// NewProgressHub creates an empty hub.
func NewProgressHub() *ProgressHub {
	return &ProgressHub{runs: make(map[uuid.UUID]*progressRun)}
}

// Subscribe returns a channel of snapshots for a run, starting with the most
// recent one. The channel is closed when the run finishes or cancel is called.
// ok is false when the hub has no record of the run.
func (h *ProgressHub) Subscribe(jobID uuid.UUID) (updates <-chan ImportProgress, cancel func(), ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	run, exists := h.runs[jobID]
	if !exists {
		return nil, func() {}, false
	}

	ch := make(chan ImportProgress, 16)
	ch <- run.last
	if run.done {
		close(ch)
		return ch, func() {}, true
	}
	run.listeners = append(run.listeners, ch)

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, l := range run.listeners {
				if l == ch {
					run.listeners = append(run.listeners[:i], run.listeners[i+1:]...)
					close(ch)
					return
				}
			}
		})
	}
	return ch, cancel, true
}

// Publish records a snapshot and forwards it to subscribers.
// Slow subscribers miss intermediate snapshots rather than block the import,
// but always receive the newest one.
func (h *ProgressHub) Publish(p ImportProgress) {
	h.mu.Lock()
	defer h.mu.Unlock()

	run, exists := h.runs[p.JobID]
	if !exists {
		run = &progressRun{}
		h.runs[p.JobID] = run
	}
	if run.done {
		return
	}
	run.last = p

	for _, l := range run.listeners {
		offer(l, p)
	}

	if p.Done() {
		run.done = true
		for _, l := range run.listeners {
			close(l)
		}
		run.listeners = nil
		time.AfterFunc(progressRetention, func() { h.forget(p.JobID) })
	}
}

// offer sends p without blocking, discarding the oldest buffered snapshots
// until it fits. Only Publish sends on l, and it holds the hub lock.
func offer(l chan ImportProgress, p ImportProgress) {
	for {
		select {
		case l <- p:
			return
		default:
		}
		select {
		case <-l:
		default:
		}
	}
}

// Last returns the most recent snapshot of a run.
func (h *ProgressHub) Last(jobID uuid.UUID) (ImportProgress, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	run, ok := h.runs[jobID]
	if !ok {
		return ImportProgress{}, false
	}
	return run.last, true
}

func (h *ProgressHub) forget(jobID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.runs, jobID)
}
