// Author: momentics <momentics@gmail.com>

package ring

import (
	"testing"

	"github.com/momentics/gammacore/api"
)

func pushN(r *RawRing, n int, startSeq uint32) {
	for i := 0; i < n; i++ {
		r.Push(api.SampleRecord{RDTSequence: startSeq + uint32(i)})
	}
}

func TestRawRing_HoldsMinNCap(t *testing.T) {
	r := NewRawRing(100)
	pushN(r, 50, 1)
	if r.Len() != 50 {
		t.Fatalf("Len() = %d, want 50", r.Len())
	}
	pushN(r, 100, 51)
	if r.Len() != 100 {
		t.Fatalf("Len() = %d, want 100 (capacity)", r.Len())
	}
	if r.Overwrites() != 50 {
		t.Fatalf("Overwrites() = %d, want 50", r.Overwrites())
	}
}

func TestRawRing_ReceptionOrderAndMonotonicSequence(t *testing.T) {
	r := NewRawRing(1000)
	pushN(r, 1000, 1)
	snap := r.SnapshotLast(1000)
	if len(snap) != 1000 {
		t.Fatalf("snapshot len = %d, want 1000", len(snap))
	}
	for i, s := range snap {
		want := uint32(i + 1)
		if s.RDTSequence != want {
			t.Fatalf("snap[%d].RDTSequence = %d, want %d", i, s.RDTSequence, want)
		}
	}
}

func TestRawRing_DrainSinceAdvancesCursor(t *testing.T) {
	r := NewRawRing(100)
	cur := r.Cursor()
	pushN(r, 10, 1)
	batch1, cur := r.DrainSince(cur)
	if len(batch1) != 10 {
		t.Fatalf("batch1 len = %d, want 10", len(batch1))
	}
	pushN(r, 5, 11)
	batch2, cur := r.DrainSince(cur)
	if len(batch2) != 5 {
		t.Fatalf("batch2 len = %d, want 5", len(batch2))
	}
	if batch2[0].RDTSequence != 11 {
		t.Fatalf("batch2[0].RDTSequence = %d, want 11", batch2[0].RDTSequence)
	}
	empty, _ := r.DrainSince(cur)
	if len(empty) != 0 {
		t.Fatalf("expected no new entries, got %d", len(empty))
	}
}

func TestRawRing_DrainSinceClampsToCapacityOnFallBehind(t *testing.T) {
	r := NewRawRing(50)
	cur := r.Cursor()
	pushN(r, 200, 1)
	batch, newCur := r.DrainSince(cur)
	if len(batch) != 50 {
		t.Fatalf("len(batch) = %d, want 50 (clamped to capacity)", len(batch))
	}
	if newCur != 200 {
		t.Fatalf("newCur = %d, want 200", newCur)
	}
	if batch[0].RDTSequence != 151 {
		t.Fatalf("batch[0].RDTSequence = %d, want 151 (oldest surviving)", batch[0].RDTSequence)
	}
}
