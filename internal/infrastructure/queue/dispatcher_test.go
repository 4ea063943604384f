package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

type recordingService struct {
	mu   sync.Mutex
	seen map[string][]int
	done chan struct{}
	want int
	n    int
}

func newRecordingService(want int) *recordingService {
	return &recordingService{seen: make(map[string][]int), done: make(chan struct{}), want: want}
}

func (s *recordingService) Process(_ context.Context, ev domain.CallEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[ev.ExternalCallID] = append(s.seen[ev.ExternalCallID], ev.Seq)
	s.n++
	if s.n == s.want {
		close(s.done)
	}
	if ev.Seq < 0 {
		return fmt.Errorf("bad seq")
	}
	return nil
}

type countingObserver struct {
	mu        sync.Mutex
	enqueued  int
	processed int
	failed    int
}

func (o *countingObserver) Enqueued(int) {
	o.mu.Lock()
	o.enqueued++
	o.mu.Unlock()
}

func (o *countingObserver) Processed(_ int, err error) {
	o.mu.Lock()
	o.processed++
	if err != nil {
		o.failed++
	}
	o.mu.Unlock()
}

func TestDispatcher_PerCallOrdering(t *testing.T) {
	const calls, perCall = 20, 25
	svc := newRecordingService(calls * perCall)
	obs := &countingObserver{}
	d := NewDispatcher(4, svc, obs, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	var events []domain.CallEvent
	for seq := 1; seq <= perCall; seq++ {
		for c := 0; c < calls; c++ {
			events = append(events, domain.CallEvent{ExternalCallID: fmt.Sprintf("call-%d", c), Seq: seq})
		}
	}
	d.EnqueueBatch(events)

	select {
	case <-svc.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for events")
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	for id, seqs := range svc.seen {
		if len(seqs) != perCall {
			t.Fatalf("%s: got %d events, want %d", id, len(seqs), perCall)
		}
		for i := 1; i < len(seqs); i++ {
			if seqs[i] < seqs[i-1] {
				t.Fatalf("%s processed out of order: %v", id, seqs)
			}
		}
	}

	cancel()
	d.Wait()
	if obs.enqueued != calls*perCall || obs.processed != calls*perCall {
		t.Fatalf("observer saw %d enqueued / %d processed", obs.enqueued, obs.processed)
	}
}

func TestDispatcher_ErrorsDoNotStopWorker(t *testing.T) {
	svc := newRecordingService(2)
	obs := &countingObserver{}
	d := NewDispatcher(1, svc, obs, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(domain.CallEvent{ExternalCallID: "c", Seq: -1})
	d.Enqueue(domain.CallEvent{ExternalCallID: "c", Seq: 2})

	select {
	case <-svc.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker stopped after an error")
	}
	cancel()
	d.Wait()
	if obs.failed != 1 {
		t.Fatalf("expected one failure, got %d", obs.failed)
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(0, newRecordingService(0), nil, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected default worker count")
	}
	for _, id := range []string{"a", "call-123", "ÿ-unicode"} {
		first := d.shardIndex(id)
		if first < 0 || first >= len(d.workers) {
			t.Fatalf("shard out of range: %d", first)
		}
		if d.shardIndex(id) != first {
			t.Fatalf("shard index not stable for %q", id)
		}
	}
}

func TestDispatcher_TryEnqueueFull(t *testing.T) {
	d := NewDispatcher(1, newRecordingService(0), nil, zerolog.Nop())
	for i := 0; i < channelBuffer; i++ {
		if err := d.TryEnqueue(domain.CallEvent{ExternalCallID: "c"}); err != nil {
			t.Fatalf("unexpected error at %d: %v", i, err)
		}
	}
	if err := d.TryEnqueue(domain.CallEvent{ExternalCallID: "c"}); err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}
