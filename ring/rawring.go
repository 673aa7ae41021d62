// File: ring/rawring.go
// Package ring implements the fixed-capacity raw sample ring buffer: a
// single-producer/single-consumer circular store with overwrite-on-full
// semantics and O(k) snapshot reads of the last k entries.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ring

import (
	"sync"

	"github.com/momentics/gammacore/api"
)

// DefaultCapacity is C_raw from spec §3.
const DefaultCapacity = 60000

// RawRing is the receiver's single-producer store of decoded samples.
// Writes are performed exclusively by the UDP receiver goroutine; reads
// (drains and snapshots) are performed by the processing stage and the
// control thread. Per spec §5, the lock held on every access guards only
// pointer advancement and the snapshot copy — never I/O.
type RawRing struct {
	mu         sync.Mutex
	buf        []api.SampleRecord
	cap        int
	writeIdx   int
	count      int
	overwrites uint64
	written    uint64 // monotonic count of all Push calls ever made
}

// NewRawRing allocates a ring of the given fixed capacity.
func NewRawRing(capacity int) *RawRing {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &RawRing{
		buf: make([]api.SampleRecord, capacity),
		cap: capacity,
	}
}

// Push appends one sample. When the ring is full, the oldest entry is
// overwritten atomically (under the same lock) and Overwrites is
// incremented.
func (r *RawRing) Push(s api.SampleRecord) {
	r.mu.Lock()
	r.buf[r.writeIdx] = s
	r.writeIdx = (r.writeIdx + 1) % r.cap
	if r.count < r.cap {
		r.count++
	} else {
		r.overwrites++
	}
	r.written++
	r.mu.Unlock()
}

// Len returns the number of valid entries currently stored (<= Cap()).
func (r *RawRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the fixed capacity.
func (r *RawRing) Cap() int { return r.cap }

// Overwrites returns the monotonic count of entries dropped due to the
// ring being full, for observability.
func (r *RawRing) Overwrites() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overwrites
}

// SnapshotLast returns a copy of the last n entries (or fewer, if the ring
// holds fewer than n) in reception order, oldest first.
func (r *RawRing) SnapshotLast(n int) []api.SampleRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > r.count {
		n = r.count
	}
	out := make([]api.SampleRecord, n)
	start := (r.writeIdx - n + r.cap) % r.cap
	for i := 0; i < n; i++ {
		out[i] = r.buf[(start+i)%r.cap]
	}
	return out
}

// DrainSince returns every sample pushed after cursor (the written-count
// returned by a prior call), in reception order, along with the new
// cursor value. If the consumer has fallen behind by more than Cap()
// entries, only the most recent Cap() entries are returned — the rest
// were overwritten — and the cursor still advances to the ring's current
// written count so the caller does not re-request evicted data.
func (r *RawRing) DrainSince(cursor uint64) ([]api.SampleRecord, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := r.written - cursor
	if pending == 0 {
		return nil, r.written
	}
	if pending > uint64(r.cap) {
		pending = uint64(r.cap)
	}
	n := int(pending)
	out := make([]api.SampleRecord, n)
	start := (r.writeIdx - n + r.cap) % r.cap
	for i := 0; i < n; i++ {
		out[i] = r.buf[(start+i)%r.cap]
	}
	return out, r.written
}

// Cursor returns the current written-count, for a new consumer to start
// draining only samples pushed from this point forward.
func (r *RawRing) Cursor() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}
