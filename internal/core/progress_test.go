package core

import (
	"testing"

	"github.com/google/uuid"
)

func TestProgressHub_UnknownRun(t *testing.T) {
	hub := NewProgressHub()
	if _, _, ok := hub.Subscribe(uuid.New()); ok {
		t.Error("Subscribe on unknown run returned ok")
	}
	if _, ok := hub.Last(uuid.New()); ok {
		t.Error("Last on unknown run returned ok")
	}
}

func TestProgressHub_SubscribeAndFinish(t *testing.T) {
	hub := NewProgressHub()
	id := uuid.New()

	hub.Publish(ImportProgress{JobID: id, Phase: PhaseStarting})
	ch, cancel, ok := hub.Subscribe(id)
	if !ok {
		t.Fatal("Subscribe returned !ok")
	}
	defer cancel()

	if p := <-ch; p.Phase != PhaseStarting {
		t.Errorf("first snapshot phase = %s, want starting", p.Phase)
	}

	hub.Publish(ImportProgress{JobID: id, Phase: PhaseProcessing, Total: 4, Current: 2})
	hub.Publish(ImportProgress{JobID: id, Phase: PhaseComplete, Total: 4, Current: 4})

	var got []ImportProgress
	for p := range ch {
		got = append(got, p)
	}
	if len(got) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(got))
	}
	if got[0].Percent() != 50 || got[1].Percent() != 100 {
		t.Errorf("percents = %d,%d", got[0].Percent(), got[1].Percent())
	}

	// Snapshots after completion are ignored.
	hub.Publish(ImportProgress{JobID: id, Phase: PhaseProcessing})
	last, ok := hub.Last(id)
	if !ok || last.Phase != PhaseComplete {
		t.Errorf("Last = %+v, %v", last, ok)
	}

	// A late subscriber gets the final snapshot and a closed channel.
	late, _, ok := hub.Subscribe(id)
	if !ok {
		t.Fatal("late Subscribe returned !ok")
	}
	if p := <-late; !p.Done() {
		t.Errorf("late snapshot = %+v, want done", p)
	}
	if _, open := <-late; open {
		t.Error("late channel not closed")
	}
}

func TestProgressHub_Cancel(t *testing.T) {
	hub := NewProgressHub()
	id := uuid.New()
	hub.Publish(ImportProgress{JobID: id, Phase: PhaseStarting})

	ch, cancel, _ := hub.Subscribe(id)
	<-ch
	cancel()
	cancel()

	if _, open := <-ch; open {
		t.Error("channel not closed after cancel")
	}
	// Publishing after cancel must not panic on the closed channel.
	hub.Publish(ImportProgress{JobID: id, Phase: PhaseComplete})
}

func TestImportProgress_Percent(t *testing.T) {
	tests := []struct {
		p    ImportProgress
		want int
	}{
		{ImportProgress{Phase: PhaseStarting}, 0},
		{ImportProgress{Phase: PhaseProcessing, Total: 3, Current: 1}, 33},
		{ImportProgress{Phase: PhaseComplete}, 100},
		{ImportProgress{Phase: PhaseFailed}, 0},
	}
	for _, tt := range tests {
		if got := tt.p.Percent(); got != tt.want {
			t.Errorf("Percent(%+v) = %d, want %d", tt.p, got, tt.want)
		}
	}
}

func TestProgressHub_SlowSubscriberGetsFinalSnapshot(t *testing.T) {
	hub := NewProgressHub()
	id := uuid.New()

	hub.Publish(ImportProgress{JobID: id, Phase: PhaseStarting, Total: 100})
	ch, cancel, ok := hub.Subscribe(id)
	if !ok {
		t.Fatal("Subscribe returned !ok")
	}
	defer cancel()

	// Nobody reads until the run is over, so the buffer overflows.
	for i := 1; i < 100; i++ {
		hub.Publish(ImportProgress{JobID: id, Phase: PhaseProcessing, Total: 100, Current: i})
	}
	hub.Publish(ImportProgress{JobID: id, Phase: PhaseComplete, Total: 100, Current: 100, Successful: 97, Failed: 3})

	var last ImportProgress
	n := 0
	for p := range ch {
		last = p
		n++
	}
	if n > cap(ch) {
		t.Errorf("received %d snapshots, more than the buffer of %d", n, cap(ch))
	}
	if !last.Done() || last.Current != 100 || last.Successful != 97 || last.Failed != 3 {
		t.Errorf("last snapshot = %+v, want the completed run", last)
	}
}
