// File: process/stage.go
// Author: momentics <momentics@gmail.com>
//
// The processing stage: single consumer of the raw ring, single producer
// for both the visualization buffer and the writer queue. Fan-out is
// deterministic (spec §4.4): the in-memory visualization buffer is
// updated first (cannot fail), then the writer enqueue is attempted
// (may drop under backpressure) — a dedicated counter distinguishes
// writer-backpressure drops from codec-error drops.

package process

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/gammacore/api"
	"github.com/momentics/gammacore/ring"
	"github.com/momentics/gammacore/vizbuf"
)

// WriterSink is the subset of the async file writer's queue the
// processing stage needs: a non-blocking, droppable enqueue.
type WriterSink interface {
	Enqueue(s api.SampleRecord) bool
}

// Stage drains the raw ring, converts counts to SI units, optionally
// filters, and fans out to the visualization buffer and writer queue.
type Stage struct {
	rawRing  *ring.RawRing
	cursor   uint64
	viz      *vizbuf.Buffer
	writerMu sync.RWMutex
	writer   WriterSink

	cal      atomic.Value // api.CalibrationInfo
	softZero atomic.Value // SoftZeroOffsets
	filter   *SixChannelFilter // nil when filtering disabled

	writerDropped atomic.Uint64
	appDropped    atomic.Uint64
}

// NewStage wires a processing stage over the given raw ring,
// visualization buffer, and writer sink.
func NewStage(rawRing *ring.RawRing, viz *vizbuf.Buffer, writer WriterSink) *Stage {
	s := &Stage{rawRing: rawRing, viz: viz, writer: writer}
	s.cursor = rawRing.Cursor()
	s.cal.Store(api.CalibrationInfo{})
	s.softZero.Store(SoftZeroOffsets{})
	return s
}

// SetCalibration installs new calibration. Per spec §5, this must only be
// called while streaming is paused or not yet started.
func (s *Stage) SetCalibration(c api.CalibrationInfo) { s.cal.Store(c) }

// Calibration returns the currently installed calibration.
func (s *Stage) Calibration() api.CalibrationInfo { return s.cal.Load().(api.CalibrationInfo) }

// SetFilter installs (or, with nil, disables) the low-pass filter. Must
// only be called outside Streaming.
func (s *Stage) SetFilter(f *SixChannelFilter) { s.filter = f }

// SetWriterSink swaps the writer sink, e.g. when a recording session
// starts or stops. Safe to call concurrently with Drain.
func (s *Stage) SetWriterSink(w WriterSink) {
	s.writerMu.Lock()
	s.writer = w
	s.writerMu.Unlock()
}

// SnapshotSoftZero captures the given raw counts as the new soft-zero
// offsets, swapped in atomically for the streaming drain loop to observe.
func (s *Stage) SnapshotSoftZero(counts [6]int32) { s.softZero.Store(newSoftZero(counts)) }

// ClearSoftZero disables soft-zero subtraction.
func (s *Stage) ClearSoftZero() { s.softZero.Store(SoftZeroOffsets{}) }

// ResetFilterState clears filter delay state so a restarted stream does
// not inherit transients from the previous one. The supervisor does not
// call it: it builds a new Stage and filter, with zero state, on every
// Connect.
func (s *Stage) ResetFilterState() {
	if s.filter != nil {
		s.filter.Reset()
	}
}

// WriterDropped returns the count of samples dropped due to writer
// backpressure.
func (s *Stage) WriterDropped() uint64 { return s.writerDropped.Load() }

// Drain pulls every sample pushed to the raw ring since the last Drain
// call, converts and fans each out, and returns how many were processed.
func (s *Stage) Drain() int {
	samples, newCursor := s.rawRing.DrainSince(s.cursor)
	s.cursor = newCursor
	for i := range samples {
		s.processOne(&samples[i])
	}
	return len(samples)
}

func (s *Stage) processOne(rec *api.SampleRecord) {
	cal := s.Calibration()
	if cal.CPF == 0 || cal.CPT == 0 {
		// No calibration installed yet: the sample is skipped entirely
		// (not buffered for visualization, not handed to the writer),
		// which also avoids a division by zero.
		return
	}

	softZero := s.softZero.Load().(SoftZeroOffsets)
	adjusted := softZero.Apply(rec.Counts)
	forceN, torqueNm := ConvertCounts(adjusted, cal)

	vals := [6]float64{forceN[0], forceN[1], forceN[2], torqueNm[0], torqueNm[1], torqueNm[2]}
	if s.filter != nil {
		vals = s.filter.Apply(vals)
	}

	rec.ForceN = [3]float64{vals[0], vals[1], vals[2]}
	rec.TorqueNm = [3]float64{vals[3], vals[4], vals[5]}

	s.viz.Insert(rec.TMonoNs, vals)

	s.writerMu.RLock()
	writer := s.writer
	s.writerMu.RUnlock()
	if !writer.Enqueue(*rec) {
		s.writerDropped.Add(1)
	}
}
