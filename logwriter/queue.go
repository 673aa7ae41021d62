// File: logwriter/queue.go
// Package logwriter implements the async, batching, rotating file writer:
// the bounded producer/consumer queue plus the consumer goroutine that
// drains it, serializes rows, and manages rotation.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Queue is the bounded MPSC writer queue from spec §3: capacity Q
// (default 1000), drop-on-overflow, drops counted and never blocked.

package logwriter

import "github.com/momentics/gammacore/api"

// Queue is a bounded, non-blocking producer/consumer queue of processed
// SampleRecords.
type Queue struct {
	ch chan api.SampleRecord
}

// DefaultQueueCapacity is Q from spec §3.
const DefaultQueueCapacity = 1000

// NewQueue allocates a queue with the given fixed capacity.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{ch: make(chan api.SampleRecord, capacity)}
}

// Enqueue attempts to add one record; returns false (never blocks) if the
// queue is full.
func (q *Queue) Enqueue(s api.SampleRecord) bool {
	select {
	case q.ch <- s:
		return true
	default:
		return false
	}
}

// DrainBatch pulls up to max records currently available, without
// blocking for more once the queue is momentarily empty.
func (q *Queue) DrainBatch(max int) []api.SampleRecord {
	out := make([]api.SampleRecord, 0, max)
	for len(out) < max {
		select {
		case s := <-q.ch:
			out = append(out, s)
		default:
			return out
		}
	}
	return out
}

// Chan exposes the underlying channel for select-based consumer loops
// that want to block until at least one item is available.
func (q *Queue) Chan() <-chan api.SampleRecord { return q.ch }
