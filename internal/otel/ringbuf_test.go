package otel

import (
	"sync"
	"testing"
)

func TestPushAndSnapshot(t *testing.T) {
	r := NewRingBuffer(8)
	for i := 0; i < 5; i++ {
		r.Push(Event{Kind: KindFetchStart, Count: i})
	}

	snap := r.Snapshot()
	if len(snap) != 5 {
		t.Fatalf("expected 5 events, got %d", len(snap))
	}
	for i, e := range snap {
		if e.Count != i {
			t.Errorf("snap[%d].Count=%d, want %d", i, e.Count, i)
		}
	}
}

func TestWrapAroundKeepsNewest(t *testing.T) {
	r := NewRingBuffer(4)
	for i := 0; i < 10; i++ {
		r.Push(Event{Count: i})
	}

	snap := r.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 events, got %d", len(snap))
	}
	for i, e := range snap {
		if want := i + 6; e.Count != want {
			t.Errorf("snap[%d].Count=%d, want %d", i, e.Count, want)
		}
	}
	if r.Len() != 4 || r.Cap() != 4 {
		t.Errorf("Len/Cap = %d/%d, want 4/4", r.Len(), r.Cap())
	}
}

func TestLast(t *testing.T) {
	r := NewRingBuffer(4)
	for i := 0; i < 6; i++ {
		r.Push(Event{Count: i})
	}

	tests := []struct {
		n     int
		first int
		size  int
	}{
		{n: 2, first: 4, size: 2},
		{n: 4, first: 2, size: 4},
		{n: 10, first: 2, size: 4},
	}
	for _, tc := range tests {
		got := r.Last(tc.n)
		if len(got) != tc.size {
			t.Errorf("Last(%d) len=%d, want %d", tc.n, len(got), tc.size)
			continue
		}
		if got[0].Count != tc.first {
			t.Errorf("Last(%d)[0].Count=%d, want %d", tc.n, got[0].Count, tc.first)
		}
	}
	if r.Last(0) != nil {
		t.Error("Last(0) should be nil")
	}
}

func TestEmptyRing(t *testing.T) {
	r := NewRingBuffer(0)
	if r.Cap() != DefaultRingSize {
		t.Errorf("Cap() = %d, want %d", r.Cap(), DefaultRingSize)
	}
	if len(r.Snapshot()) != 0 || len(r.Last(3)) != 0 || r.Len() != 0 {
		t.Error("empty ring should have no events")
	}
}

func TestStats(t *testing.T) {
	r := NewRingBuffer(16)
	r.Push(Event{Kind: KindFetchStart})
	r.Push(Event{Kind: KindFetchComplete})
	r.Push(Event{Kind: KindFetchStart})
	r.Push(Event{Kind: KindFetchStale})

	stats := r.Stats()
	if stats[KindFetchStart] != 2 || stats[KindFetchComplete] != 1 || stats[KindFetchStale] != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestPushCopiesExtra(t *testing.T) {
	r := NewRingBuffer(2)
	extra := map[string]any{"page": 1}
	r.Push(Event{Extra: extra})
	extra["page"] = 2

	if got := r.Snapshot()[0].Extra["page"]; got != 1 {
		t.Errorf("Extra aliased caller map: got %v", got)
	}
}

func TestConcurrentPush(t *testing.T) {
	r := NewRingBuffer(64)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Push(Event{Kind: KindKeyPress})
				_ = r.Last(5)
			}
		}()
	}
	wg.Wait()
	if r.Len() != 64 {
		t.Errorf("Len() = %d, want 64", r.Len())
	}
}
