// Author: momentics <momentics@gmail.com>

package stats

import "testing"

func TestRegistry_SnapshotReflectsCounters(t *testing.T) {
	r := NewRegistry()
	r.IncPacketsReceived()
	r.IncPacketsReceived()
	r.AddPacketsLost(3)
	r.IncAppDropped()
	r.AddWriterDropped(2)
	r.IncCodecErrors()
	r.AddBytesWritten(1024)
	r.IncRotationCount()

	snap := r.Snapshot(1000, 42.5)
	if snap.PacketsReceived != 2 {
		t.Errorf("PacketsReceived = %d, want 2", snap.PacketsReceived)
	}
	if snap.PacketsLost != 3 {
		t.Errorf("PacketsLost = %d, want 3", snap.PacketsLost)
	}
	if snap.AppDropped != 1 {
		t.Errorf("AppDropped = %d, want 1", snap.AppDropped)
	}
	if snap.WriterDropped != 2 {
		t.Errorf("WriterDropped = %d, want 2", snap.WriterDropped)
	}
	if snap.CodecErrors != 1 {
		t.Errorf("CodecErrors = %d, want 1", snap.CodecErrors)
	}
	if snap.BytesWritten != 1024 {
		t.Errorf("BytesWritten = %d, want 1024", snap.BytesWritten)
	}
	if snap.RotationCount != 1 {
		t.Errorf("RotationCount = %d, want 1", snap.RotationCount)
	}
	if snap.SamplesPerSecond != 1000 {
		t.Errorf("SamplesPerSecond = %v, want 1000", snap.SamplesPerSecond)
	}
}

func TestRegistry_HandlerServesMetrics(t *testing.T) {
	r := NewRegistry()
	r.IncPacketsReceived()
	if r.Handler() == nil {
		t.Fatal("Handler() returned nil")
	}
}
