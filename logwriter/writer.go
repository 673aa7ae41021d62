// File: logwriter/writer.go
// Author: momentics <momentics@gmail.com>
//
// Writer is the async, batching, rotating log file writer of spec §4.6.
// A single consumer goroutine drains the bounded Queue in batches,
// serializes rows through encoding/csv, and rotates parts by size or
// age. Enqueue never blocks the processing stage; once the queue is
// full, samples are dropped and counted rather than backing up the
// pipeline.

package logwriter

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"

	"github.com/momentics/gammacore/api"
	"github.com/momentics/gammacore/gammaconfig"
	"github.com/momentics/gammacore/obslog"
	"github.com/momentics/gammacore/stats"
)

const bufferSize = 64 * 1024

// Writer owns one recording session: a queue, a consumer goroutine, and
// the currently open part file.
type Writer struct {
	cfg    gammaconfig.LoggingConfig
	meta   SessionMeta
	queue  *Queue
	reg    *stats.Registry
	policy rotationPolicy
	epoch  time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	lastErr error

	part          int
	openedAt      time.Time
	file          *os.File
	buf           *bufio.Writer
	counting      *countingWriter
	reportedBytes int64
	decimateN     int

	// stopped mirrors spec §7's write-error propagation policy: a write
	// failure that survives one retry at the batch boundary, or any
	// rotation (new-part-open) failure, stops the writer without
	// touching the receive path. rotationFailed distinguishes which of
	// the two tripped it, since only repeated *rotation* failures are an
	// unrecoverable (ErrorFatal-worthy) condition — the supervisor tracks
	// that across recording-session attempts via RotationFailed().
	stopped        atomic.Bool
	rotationFailed atomic.Bool
}

// NewWriter constructs a Writer for one recording session. epoch is the
// wall-clock instant corresponding to t_mono_ns == 0, used to render
// absolute timestamps.
func NewWriter(cfg gammaconfig.LoggingConfig, meta SessionMeta, reg *stats.Registry, epoch time.Time) *Writer {
	if meta.SessionID == "" {
		meta.SessionID = xid.New().String()
	}
	q := NewQueue(cfg.QueueCapacity)
	return &Writer{
		cfg:    cfg,
		meta:   meta,
		queue:  q,
		reg:    reg,
		policy: newRotationPolicy(cfg.RotationEnabled, cfg.RotationSizeBytes, cfg.RotationTimeMinutes),
		epoch:  epoch,
	}
}

// Enqueue hands one sample to the writer; returns false if the queue is
// full, in which case the caller must count it as a writer-dropped sample.
func (w *Writer) Enqueue(s api.SampleRecord) bool {
	if w.stopped.Load() {
		return false
	}
	w.decimateN++
	if w.cfg.DecimationFactor > 1 && (w.decimateN%w.cfg.DecimationFactor) != 0 {
		return true
	}
	return w.queue.Enqueue(s)
}

// Start opens the first part and launches the consumer goroutine.
func (w *Writer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if err := os.MkdirAll(w.cfg.OutputDir, 0o755); err != nil {
		return api.IODirectoryNotWritable(err)
	}
	w.part = 1
	if err := w.openPartLocked(); err != nil {
		return err
	}
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true
	go w.run()
	return nil
}

// Stop flushes and closes the active part, then waits for the consumer
// goroutine to exit.
func (w *Writer) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false
	return w.closePartLocked()
}

// LastError returns the most recent IO error observed by the consumer
// goroutine, or nil.
func (w *Writer) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Stopped reports whether the writer has stopped accepting further
// samples after a write or rotation failure survived its retry. The
// supervisor polls this to stop recording and surface an actionable
// error while streaming continues, per spec §7.
func (w *Writer) Stopped() bool { return w.stopped.Load() }

// RotationFailed reports whether the writer stopped specifically because
// a new part could not be opened, as opposed to a plain write failure.
// The supervisor counts consecutive occurrences of this across
// recording-session attempts to detect spec §7's "two consecutive
// rotation failures" ErrorFatal condition.
func (w *Writer) RotationFailed() bool { return w.rotationFailed.Load() }

func (w *Writer) run() {
	defer close(w.doneCh)
	interval := time.Duration(w.cfg.FlushIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	batchSize := w.cfg.BatchSize
	if batchSize < 1 {
		batchSize = 100
	}

	for {
		if w.stopped.Load() {
			return
		}
		select {
		case <-w.stopCh:
			w.drainAndFlush(batchSize)
			return
		case <-ticker.C:
			w.drainAndFlush(batchSize)
		case s := <-w.queue.Chan():
			batch := append([]api.SampleRecord{s}, w.queue.DrainBatch(batchSize-1)...)
			w.writeBatch(batch)
		}
	}
}

func (w *Writer) drainAndFlush(batchSize int) {
	for {
		if w.stopped.Load() {
			return
		}
		batch := w.queue.DrainBatch(batchSize)
		if len(batch) == 0 {
			return
		}
		w.writeBatch(batch)
	}
}

func (w *Writer) writeBatch(batch []api.SampleRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.policy.shouldRotate(w.counting.n, w.openedAt, now()) {
		if err := w.rotateLocked(); err != nil {
			// spec §7: opening the new part stops streaming writes
			// immediately; the receive path is unaffected.
			w.recordErr(err)
			w.rotationFailed.Store(true)
			w.stopped.Store(true)
			return
		}
	}

	if err := w.writeOnceLocked(batch); err != nil {
		// spec §7: I/O write errors are retried once at the batch
		// boundary before giving up.
		if err = w.writeOnceLocked(batch); err != nil {
			w.recordErr(err)
			w.stopped.Store(true)
			return
		}
	}
}

// writeOnceLocked serializes and flushes one batch. Caller holds w.mu.
func (w *Writer) writeOnceLocked(batch []api.SampleRecord) error {
	cw := newCSVWriter(w.counting, w.cfg.Format)
	if err := WriteRows(cw, batch, w.meta.Units, w.epoch); err != nil {
		return api.IOWriteFailed(err)
	}
	if err := w.buf.Flush(); err != nil {
		return api.IOWriteFailed(err)
	}
	if w.reg != nil {
		delta := w.counting.n - w.reportedBytes
		if delta > 0 {
			w.reg.AddBytesWritten(uint64(delta))
		}
	}
	w.reportedBytes = w.counting.n
	return nil
}

func (w *Writer) openPartLocked() error {
	name := BuildFilename(w.cfg.FilenamePrefix, w.meta.StartedAt, w.part, FileExtension(w.cfg.Format))
	path := filepath.Join(w.cfg.OutputDir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return api.IODirectoryNotWritable(err)
	}
	w.file = f
	w.buf = bufio.NewWriterSize(f, bufferSize)
	w.counting = &countingWriter{w: w.buf}
	w.openedAt = now()
	w.reportedBytes = 0

	if err := WritePreamble(w.counting, w.cfg.Format); err != nil {
		return api.IOWriteFailed(err)
	}
	if err := WriteHeader(w.counting, w.meta, w.part, w.cfg.Format); err != nil {
		return api.IOWriteFailed(err)
	}
	cw := newCSVWriter(w.counting, w.cfg.Format)
	if err := WriteHeaderRow(cw, w.meta.Units); err != nil {
		return api.IOWriteFailed(err)
	}
	cw.Flush()
	return w.buf.Flush()
}

func (w *Writer) closePartLocked() error {
	if w.file == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		return api.IOWriteFailed(err)
	}
	if err := w.file.Close(); err != nil {
		return api.IOCloseFailed(err)
	}
	w.file = nil
	return nil
}

func (w *Writer) rotateLocked() error {
	if err := w.closePartLocked(); err != nil {
		return api.IORotationFailed(err)
	}
	w.part++
	if err := w.openPartLocked(); err != nil {
		return api.IORotationFailed(err)
	}
	if w.reg != nil {
		w.reg.IncRotationCount()
	}
	return nil
}

func (w *Writer) recordErr(err error) {
	w.lastErr = err
	obslog.Component("logwriter").WithError(err).Error(fmt.Sprintf("session %s part %d", w.meta.SessionID, w.part))
}

func now() time.Time { return time.Now() }
