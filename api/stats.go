// File: api/stats.go
// Author: momentics <momentics@gmail.com>
//
// Point-in-time statistics snapshot, mirroring every counter spec.md §7
// requires be exposed continuously.

package api

// Stats is a snapshot of the counters the supervisor exposes via
// snapshot_stats().
type Stats struct {
	PacketsReceived   uint64
	PacketsLost       uint64
	SamplesPerSecond  float64
	RawRingFillPct    float64
	RawRingOverwrites uint64
	AppDropped        uint64
	WriterDropped     uint64
	CodecErrors       uint64
	BytesWritten      uint64
	RotationCount     uint64
}
