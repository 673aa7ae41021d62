// Author: momentics <momentics@gmail.com>

package acquire

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/momentics/gammacore/api"
	"github.com/momentics/gammacore/wire"
)

type recordingSink struct {
	samples []api.SampleRecord
}

func (s *recordingSink) Push(rec api.SampleRecord) {
	s.samples = append(s.samples, rec)
}

// fixtureSensor answers a start-infinite request by streaming the given
// sequences once, each carrying counts, to whatever address sent the
// request.
func fixtureSensor(t *testing.T, sequences []uint32, counts [6]int32) (addr string, stop func()) {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		buf := make([]byte, 64)
		_, raddr, err := pc.ReadFrom(buf) // start-infinite request
		if err != nil {
			return
		}
		for _, seq := range sequences {
			frame := wire.ResponseFrame{RDTSequence: seq, FTSequence: seq, Counts: counts}
			pc.WriteTo(wire.EncodeResponse(frame), raddr)
			time.Sleep(time.Millisecond)
		}
		close(done)
	}()
	return pc.LocalAddr().String(), func() { <-done; pc.Close() }
}

func TestReceiver_S1LoopbackNoLoss(t *testing.T) {
	seqs := make([]uint32, 10000)
	for i := range seqs {
		seqs[i] = uint32(i + 1)
	}
	counts := [6]int32{1000, -1000, 5000, 100, -100, 50}
	addr, stop := fixtureSensor(t, seqs, counts)
	defer stop()

	sink := &recordingSink{}
	r, err := NewReceiver(addr, sink, nil)
	if err != nil {
		t.Fatalf("NewReceiver failed: %v", err)
	}
	defer r.Close()
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- r.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		if r.PacketsReceived() >= 10000 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out; received=%d", r.PacketsReceived())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-runDone

	if r.PacketsLost() != 0 {
		t.Errorf("PacketsLost() = %d, want 0", r.PacketsLost())
	}
	if len(sink.samples) != 10000 {
		t.Fatalf("sink received %d samples, want 10000", len(sink.samples))
	}
}

func TestReceiver_S2GapDetection(t *testing.T) {
	addr, stop := fixtureSensor(t, []uint32{1, 2, 3, 7, 8}, [6]int32{})
	defer stop()

	sink := &recordingSink{}
	r, err := NewReceiver(addr, sink, nil)
	if err != nil {
		t.Fatalf("NewReceiver failed: %v", err)
	}
	defer r.Close()
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	runDone := make(chan error, 1)
	go func() { runDone <- r.Run(ctx) }()

	deadline := time.After(time.Second)
	for {
		if r.PacketsReceived() >= 5 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out; received=%d", r.PacketsReceived())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-runDone

	if r.PacketsReceived() != 5 {
		t.Errorf("PacketsReceived() = %d, want 5", r.PacketsReceived())
	}
	if r.PacketsLost() != 3 {
		t.Errorf("PacketsLost() = %d, want 3", r.PacketsLost())
	}
}
