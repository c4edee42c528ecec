package audio

import "testing"

func chunkOf(v int16) Chunk {
	return Chunk{v, v}
}

func TestRingBounded(t *testing.T) {
	r := NewRing(15)
	for i := 0; i < 100; i++ {
		r.Push(chunkOf(int16(i)))
		if r.Len() > 15 {
			t.Fatalf("ring grew to %d after %d pushes", r.Len(), i+1)
		}
	}
	if r.Len() != 15 {
		t.Fatalf("ring len = %d, want 15", r.Len())
	}
}

func TestRingSnapshotOrder(t *testing.T) {
	r := NewRing(3)
	for i := 0; i < 5; i++ {
		r.Push(chunkOf(int16(i)))
	}
	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot len = %d, want 3", len(snap))
	}
	// Oldest surviving chunk first.
	for i, want := range []int16{2, 3, 4} {
		if snap[i][0] != want {
			t.Errorf("snapshot[%d] = %d, want %d", i, snap[i][0], want)
		}
	}
}

func TestRingSnapshotPartiallyFilled(t *testing.T) {
	r := NewRing(10)
	r.Push(chunkOf(7))
	snap := r.Snapshot()
	if len(snap) != 1 || snap[0][0] != 7 {
		t.Fatalf("snapshot = %v, want single chunk of 7s", snap)
	}
}

func TestRingSnapshotIsCopy(t *testing.T) {
	r := NewRing(2)
	r.Push(chunkOf(1))
	snap := r.Snapshot()
	r.Push(chunkOf(2))
	r.Push(chunkOf(3))
	if len(snap) != 1 || snap[0][0] != 1 {
		t.Fatalf("snapshot changed after later pushes: %v", snap)
	}
}
