// Package supervisor wires the UDP receiver, processing stage, tiered
// visualization buffer, async file writer, calibration resolver, and
// command channel into the single state machine spec §4.8 describes.
// It is the sole mutator of calibration, soft-zero offsets, filter
// coefficients, and format selection. Calibration, filter, and format
// change only while Streaming is paused or not yet started; soft-zero
// offsets are replaced by Bias while streaming, through an atomic
// snapshot swap on the processing stage.
// Author: momentics <momentics@gmail.com>
package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/momentics/gammacore/acquire"
	"github.com/momentics/gammacore/api"
	"github.com/momentics/gammacore/calib"
	"github.com/momentics/gammacore/cmdchannel"
	"github.com/momentics/gammacore/gammaconfig"
	"github.com/momentics/gammacore/internal/concurrency"
	"github.com/momentics/gammacore/logwriter"
	"github.com/momentics/gammacore/obslog"
	"github.com/momentics/gammacore/process"
	"github.com/momentics/gammacore/ring"
	"github.com/momentics/gammacore/stats"
	"github.com/momentics/gammacore/vizbuf"
	"github.com/momentics/gammacore/wire"
)

// reconnectMaxDelay bounds the exponential backoff between auto-reconnect
// attempts, per spec §4.8.
const reconnectMaxDelay = 30 * time.Second

// Supervisor owns the connection state machine and every subsystem it
// drives.
type Supervisor struct {
	cfg *gammaconfig.Config
	reg *stats.Registry

	mu        sync.RWMutex
	state     State
	recording RecordingState
	lastErr   error

	rawRing  *ring.RawRing
	viz      *vizbuf.Buffer
	stage    *process.Stage
	receiver *acquire.Receiver
	writer   *logwriter.Writer
	resolver *calib.Resolver
	channel  *cmdchannel.Channel
	executor *concurrency.Executor

	cancelStream context.CancelFunc
	streamDone   chan struct{}

	ip string

	reportedWriterDropped uint64
	reportedOverwrites    uint64

	// consecutiveRotationFailures counts rotation failures across
	// successive StartRecording attempts (a single Writer stops itself on
	// its first one, so the "two consecutive" condition of spec §7 is
	// necessarily a cross-attempt, supervisor-level count). Reset to 0
	// when a recording session ends without a rotation failure: a
	// StopRecording call, or a writer stop caused by a plain write error.
	consecutiveRotationFailures int
}

// New constructs a Supervisor in state Disconnected.
func New(cfg *gammaconfig.Config, reg *stats.Registry) *Supervisor {
	if cfg == nil {
		cfg = gammaconfig.Default()
	}
	if reg == nil {
		reg = stats.NewRegistry()
	}
	s := &Supervisor{
		cfg:      cfg,
		reg:      reg,
		state:    StateDisconnected,
		recording: RecordingIdle,
		rawRing:  ring.NewRawRing(cfg.RawRingCapacity),
		viz:      vizbuf.NewBuffer(),
		resolver: calib.NewResolver(cfg.Connection.ConnectTimeout, cfg.Connection.ConnectTimeout),
		executor: concurrency.NewExecutor(2),
	}
	return s
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// RecordingState returns the current recording state.
func (s *Supervisor) RecordingState() RecordingState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recording
}

func (s *Supervisor) setState(next State) error {
	if !canTransition(s.state, next) {
		return fmt.Errorf("supervisor: invalid transition %s -> %s", s.state, next)
	}
	obslog.Component("supervisor").WithField("from", s.state).WithField("to", next).Info("state transition")
	s.state = next
	return nil
}

// Connect drives Disconnected -> Connecting -> Calibrating -> Streaming.
// It resolves calibration (HTTP-then-TCP fallback) and starts the
// receiver and processing stage; any failure lands in ErrorRecoverable
// or ErrorFatal, matching spec §4.8.
func (s *Supervisor) Connect(ctx context.Context, ip string) error {
	s.mu.Lock()
	if err := s.setState(StateConnecting); err != nil {
		s.mu.Unlock()
		return err
	}
	s.ip = ip
	s.mu.Unlock()

	udpAddr := fmt.Sprintf("%s:%d", ip, s.cfg.Connection.UDPPort)
	endpoint := udpAddr
	tcpAddr := fmt.Sprintf("%s:%d", ip, s.cfg.Connection.TCPPort)
	httpURL := fmt.Sprintf("http://%s:%d/calibration", ip, s.cfg.Connection.HTTPPort)

	s.mu.Lock()
	s.channel = cmdchannel.NewChannel(udpAddr, tcpAddr, s.cfg.Connection.ConnectTimeout)
	if err := s.setState(StateCalibrating); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.resolver.InvalidateIfDifferentEndpoint(endpoint)
	cal, err := s.resolver.Resolve(ctx, endpoint, httpURL, tcpAddr)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.setState(StateErrorRecoverable)
		s.mu.Unlock()
		s.maybeAutoReconnect(ip)
		return err
	}

	writerSink := &discardSink{}
	s.mu.Lock()
	s.stage = process.NewStage(s.rawRing, s.viz, writerSink)
	s.stage.SetCalibration(cal)
	if s.cfg.Filtering.Enabled {
		s.stage.SetFilter(process.NewSixChannelFilter(s.cfg.Filtering.CutoffHz, 1000))
	}
	s.mu.Unlock()

	receiver, err := acquire.NewReceiver(udpAddr, s.rawRing, s.reg)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.setState(StateErrorRecoverable)
		s.mu.Unlock()
		s.maybeAutoReconnect(ip)
		return err
	}
	if err := receiver.Start(); err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.setState(StateErrorRecoverable)
		s.mu.Unlock()
		s.maybeAutoReconnect(ip)
		return err
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.mu.Lock()
	s.receiver = receiver
	s.cancelStream = cancel
	s.streamDone = done
	if err := s.setState(StateStreaming); err != nil {
		s.mu.Unlock()
		cancel()
		return err
	}
	s.mu.Unlock()

	go s.runStreaming(streamCtx, done)
	return nil
}

func (s *Supervisor) runStreaming(ctx context.Context, done chan struct{}) {
	defer close(done)
	drainTicker := time.NewTicker(5 * time.Millisecond)
	defer drainTicker.Stop()

	recvDone := make(chan error, 1)
	go func() { recvDone <- s.receiver.Run(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-recvDone:
			if err != nil {
				s.mu.Lock()
				s.lastErr = err
				s.setState(StateErrorRecoverable)
				ip := s.ip
				s.mu.Unlock()
				s.maybeAutoReconnect(ip)
			}
			return
		case <-drainTicker.C:
			s.mu.RLock()
			stage := s.stage
			s.mu.RUnlock()
			if stage != nil {
				stage.Drain()
			}
			s.pollWriterHealth()
		}
	}
}

// pollWriterHealth implements the writer-error -> supervisor signal path
// of spec §4.6/§7: a stopped writer ends the recording session (streaming
// itself continues). If the stop was caused by a rotation failure and the
// previous recording attempt also stopped on a rotation failure, two
// consecutive rotation failures have now occurred and the whole connection
// escalates to ErrorFatal, per spec §7.
func (s *Supervisor) pollWriterHealth() {
	s.mu.Lock()
	writer := s.writer
	if writer == nil {
		s.mu.Unlock()
		return
	}
	if !writer.Stopped() {
		s.mu.Unlock()
		return
	}
	s.lastErr = writer.LastError()
	s.writer = nil
	s.recording = RecordingIdle
	if s.stage != nil {
		s.stage.SetWriterSink(&discardSink{})
	}
	if writer.RotationFailed() {
		s.consecutiveRotationFailures++
		if s.consecutiveRotationFailures >= 2 {
			s.setState(StateErrorFatal)
			s.mu.Unlock()
			writer.Stop()
			return
		}
	} else {
		s.consecutiveRotationFailures = 0
	}
	s.mu.Unlock()
	writer.Stop()
}

// Disconnect stops the receiver and writer and returns to Disconnected.
func (s *Supervisor) Disconnect() error {
	s.mu.Lock()
	cancel := s.cancelStream
	receiver := s.receiver
	done := s.streamDone
	writer := s.writer
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			s.mu.Lock()
			s.setState(StateErrorFatal)
			s.mu.Unlock()
			return fmt.Errorf("supervisor: stop join timeout exceeded")
		}
	}
	if receiver != nil {
		receiver.Stop()
		receiver.Close()
	}
	if writer != nil {
		writer.Stop()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.receiver = nil
	s.writer = nil
	s.recording = RecordingIdle
	return s.setState(StateDisconnected)
}

func (s *Supervisor) maybeAutoReconnect(ip string) {
	if !s.cfg.Connection.AutoReconnect {
		return
	}
	s.executor.Submit(func() {
		delay := time.Second
		for {
			time.Sleep(delay)
			s.mu.RLock()
			state := s.state
			s.mu.RUnlock()
			if state != StateErrorRecoverable {
				return
			}
			if err := s.Connect(context.Background(), ip); err == nil {
				return
			}
			delay *= 2
			if delay > reconnectMaxDelay {
				delay = reconnectMaxDelay
			}
		}
	})
}

// Bias issues a tare/zero command per the configured bias mode.
func (s *Supervisor) Bias(ctx context.Context) error {
	s.mu.RLock()
	channel, stage, mode := s.channel, s.stage, s.cfg.Bias.Mode
	s.mu.RUnlock()
	if channel == nil {
		return api.CalUnavailable(fmt.Errorf("not connected"))
	}
	if mode == gammaconfig.BiasModeSoft {
		if stage == nil {
			return api.CalBiasFailed(fmt.Errorf("no active stage"))
		}
		last := s.rawRing.SnapshotLast(1)
		if len(last) == 0 {
			return api.CalBiasFailed(fmt.Errorf("no samples to bias from"))
		}
		stage.SnapshotSoftZero(last[0].Counts)
		return nil
	}
	return channel.Bias(ctx)
}

// SetToolTransform writes the tool-frame transform via the TCP command
// channel.
func (s *Supervisor) SetToolTransform(ctx context.Context, t wire.ToolTransform) error {
	s.mu.RLock()
	channel := s.channel
	s.mu.RUnlock()
	if channel == nil {
		return api.CalUnavailable(fmt.Errorf("not connected"))
	}
	return channel.SetToolTransform(ctx, t)
}

// SetCalibrationOverride installs an operator-supplied calibration,
// bypassing the resolver. Only valid while not Streaming.
func (s *Supervisor) SetCalibrationOverride(info api.CalibrationInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStreaming {
		return fmt.Errorf("supervisor: cannot override calibration while streaming")
	}
	if s.stage != nil {
		s.stage.SetCalibration(info)
	}
	return nil
}

// StartRecording opens a new logwriter session if currently Streaming.
func (s *Supervisor) StartRecording(meta logwriter.SessionMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStreaming {
		return fmt.Errorf("supervisor: recording requires Streaming state")
	}
	if s.recording == RecordingRecording {
		return nil
	}
	// The receiver stamps TMonoNs with time.Now().UnixNano(), so
	// t_mono_ns == 0 corresponds to the Unix epoch.
	w := logwriter.NewWriter(s.cfg.Logging, meta, s.reg, time.Unix(0, 0))
	if err := w.Start(); err != nil {
		return err
	}
	s.writer = w
	s.stage.SetWriterSink(w)
	s.recording = RecordingRecording
	return nil
}

// StopRecording closes the active logwriter session.
func (s *Supervisor) StopRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording != RecordingRecording {
		return nil
	}
	err := s.writer.Stop()
	s.stage.SetWriterSink(&discardSink{})
	s.writer = nil
	s.recording = RecordingIdle
	s.consecutiveRotationFailures = 0
	return err
}

// SnapshotStats returns a point-in-time view of every counter spec §7
// requires be surfaced continuously.
func (s *Supervisor) SnapshotStats() api.Stats {
	s.mu.Lock()
	fillPct := float64(s.rawRing.Len()) / float64(s.rawRing.Cap()) * 100
	if overwrites := s.rawRing.Overwrites(); overwrites > s.reportedOverwrites {
		delta := overwrites - s.reportedOverwrites
		s.reg.AddRawRingOverwrites(delta)
		// app-dropped tracks the same condition spec.md §7 names
		// separately: the processing stage fell behind the raw ring and
		// the oldest unconsumed samples were overwritten.
		s.reg.AddAppDropped(delta)
		s.reportedOverwrites = overwrites
	}
	if s.stage != nil {
		if dropped := s.stage.WriterDropped(); dropped > s.reportedWriterDropped {
			s.reg.AddWriterDropped(dropped - s.reportedWriterDropped)
			s.reportedWriterDropped = dropped
		}
	}
	s.mu.Unlock()
	return s.reg.Snapshot(0, fillPct)
}

// GetSeries returns the downsampled series for rendering, per spec's
// get_series(window_sec, channels, point_budget) operation.
func (s *Supervisor) GetSeries(windowSec float64, channels []int, pointBudget int) []vizbuf.Series {
	return s.viz.GetSeries(windowSec, channels, pointBudget)
}

// LastError returns the most recent error observed by the state machine.
func (s *Supervisor) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Close releases background resources; call once the supervisor is no
// longer needed.
func (s *Supervisor) Close() {
	s.executor.Close()
}

// discardSink is the writer sink used while no recording is active; it
// always accepts and drops, matching spec's requirement that the
// processing stage never blocks on writer backpressure.
type discardSink struct{}

func (discardSink) Enqueue(api.SampleRecord) bool { return true }
