package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/academia/internal/core"
)

const (
	progressPollInterval = 500 * time.Millisecond
	heartbeatInterval    = 15 * time.Second
)

// handleImportProgress streams progress via Server-Sent Events.
//
// Events are "progress" with an ImportProgress payload and a final
// "complete". The event id is the progress percentage; a reconnecting
// client sending Last-Event-ID (or ?lastEventId=) skips events it has
// already seen.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	job, err := s.service.GetJob(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, fmt.Errorf("streaming not supported"))
		return
	}

	lastEventID := -1
	raw := r.Header.Get("Last-Event-ID")
	if raw == "" {
		raw = r.URL.Query().Get("lastEventId")
	}
	if n, err := strconv.Atoi(raw); err == nil {
		lastEventID = n
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	send := func(p core.ImportProgress) {
		pct := p.Percent()
		if pct <= lastEventID && !p.Done() {
			return
		}
		lastEventID = pct
		data, _ := json.Marshal(p)
		fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", pct, data)
		flusher.Flush()
	}
	complete := func() {
		fmt.Fprint(w, "event: complete\ndata: {}\n\n")
		flusher.Flush()
	}

	// A finished job has nothing left to stream.
	if job.Status.Terminal() {
		if p, ok := s.service.LastProgress(id); ok {
			send(p)
		} else {
			send(snapshotOf(job))
		}
		complete()
		return
	}

	updates, cancel, err := s.followProgress(r.Context(), id)
	if err != nil {
		return
	}
	defer cancel()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case p, ok := <-updates:
			if !ok {
				complete()
				return
			}
			send(p)
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// followProgress returns the in-process stream of a run, falling back to
// the remote follower when another process runs it. For a job that has not
// started yet it waits until a stream appears or ctx is done.
func (s *Server) followProgress(ctx context.Context, id uuid.UUID) (<-chan core.ImportProgress, func(), error) {
	if ch, cancel, ok := s.service.SubscribeProgress(id); ok {
		return ch, cancel, nil
	}

	if s.remote != nil {
		rctx, cancel := context.WithCancel(ctx)
		ch, err := s.remote.Subscribe(rctx, id)
		if err != nil {
			cancel()
			return nil, nil, err
		}
		// The snapshot covers updates published before we subscribed.
		if p, ok, err := s.remote.Snapshot(ctx, id); err == nil && ok {
			return prepend(rctx, p, ch), cancel, nil
		}
		return ch, cancel, nil
	}

	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-ticker.C:
			if ch, cancel, ok := s.service.SubscribeProgress(id); ok {
				return ch, cancel, nil
			}
		}
	}
}

// prepend emits first, then everything from rest. It stops after a
// terminal snapshot.
func prepend(ctx context.Context, first core.ImportProgress, rest <-chan core.ImportProgress) <-chan core.ImportProgress {
	out := make(chan core.ImportProgress, 16)
	go func() {
		defer close(out)
		out <- first
		if first.Done() {
			return
		}
		for p := range rest {
			select {
			case out <- p:
			case <-ctx.Done():
				return
			}
			if p.Done() {
				return
			}
		}
	}()
	return out
}

// snapshotOf rebuilds a progress snapshot from a stored job.
func snapshotOf(job core.ImportJob) core.ImportProgress {
	p := core.ImportProgress{
		JobID:      job.ID,
		Kind:       job.Kind,
		Total:      job.TotalRecords,
		Current:    job.ProcessedRecords,
		Successful: job.SuccessfulRecords,
		Failed:     job.FailedRecords,
		Error:      job.ErrorMessage,
	}
	switch job.Status {
	case core.StatusCompleted:
		p.Phase = core.PhaseComplete
	case core.StatusFailed:
		p.Phase = core.PhaseFailed
	case core.StatusProcessing:
		p.Phase = core.PhaseProcessing
	default:
		p.Phase = core.PhaseStarting
	}
	return p
}
