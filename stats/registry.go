// Package stats exposes every counter spec §7 requires be surfaced
// continuously. Each counter is kept twice, as an atomic read by
// snapshot_stats() and as a Prometheus counter for an optional external
// scrape endpoint; every Add/Inc method updates both together.
// Author: momentics <momentics@gmail.com>
package stats

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/momentics/gammacore/api"
)

// Registry owns the atomic counters and their Prometheus collectors.
type Registry struct {
	packetsReceived   atomic.Uint64
	packetsLost       atomic.Uint64
	rawRingOverwrites atomic.Uint64
	appDropped        atomic.Uint64
	writerDropped     atomic.Uint64
	codecErrors       atomic.Uint64
	bytesWritten      atomic.Uint64
	rotationCount     atomic.Uint64

	reg *prometheus.Registry

	cPacketsReceived   prometheus.Counter
	cPacketsLost       prometheus.Counter
	cRawRingOverwrites prometheus.Counter
	cAppDropped        prometheus.Counter
	cWriterDropped     prometheus.Counter
	cCodecErrors       prometheus.Counter
	cBytesWritten      prometheus.Counter
	cRotationCount     prometheus.Counter
}

// NewRegistry builds and registers every counter named in spec §7.
func NewRegistry() *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}

	r.cPacketsReceived = r.counter("gammacore_packets_received_total", "RDT datagrams accepted by the receiver.")
	r.cPacketsLost = r.counter("gammacore_packets_lost_total", "Sequence-gap-attributed lost datagrams.")
	r.cRawRingOverwrites = r.counter("gammacore_raw_ring_overwrites_total", "Raw ring entries evicted by overwrite-on-full.")
	r.cAppDropped = r.counter("gammacore_app_dropped_total", "Samples dropped by the receiver due to downstream backpressure.")
	r.cWriterDropped = r.counter("gammacore_writer_dropped_total", "Samples dropped due to writer-queue backpressure.")
	r.cCodecErrors = r.counter("gammacore_codec_errors_total", "Malformed datagrams rejected by the wire codec.")
	r.cBytesWritten = r.counter("gammacore_bytes_written_total", "Bytes flushed to the active log file.")
	r.cRotationCount = r.counter("gammacore_rotation_total", "Log file rotations performed.")

	return r
}

func (r *Registry) counter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	r.reg.MustRegister(c)
	return c
}

// Handler returns an http.Handler exposing every registered collector for
// external scraping; the core itself never starts an HTTP server, it only
// offers this for the external GUI/CLI collaborator to mount.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) IncPacketsReceived() { r.packetsReceived.Add(1); r.cPacketsReceived.Inc() }

func (r *Registry) AddPacketsLost(n uint64) {
	r.packetsLost.Add(n)
	r.cPacketsLost.Add(float64(n))
}

func (r *Registry) AddRawRingOverwrites(n uint64) {
	r.rawRingOverwrites.Add(n)
	r.cRawRingOverwrites.Add(float64(n))
}

func (r *Registry) IncAppDropped() { r.appDropped.Add(1); r.cAppDropped.Inc() }

// AddAppDropped adds n samples dropped because the processing stage fell
// behind the raw ring and the oldest unconsumed entries were overwritten
// — the condition RawRing.Overwrites() tracks.
func (r *Registry) AddAppDropped(n uint64) {
	r.appDropped.Add(n)
	r.cAppDropped.Add(float64(n))
}

func (r *Registry) AddWriterDropped(n uint64) {
	r.writerDropped.Add(n)
	r.cWriterDropped.Add(float64(n))
}

func (r *Registry) IncCodecErrors() { r.codecErrors.Add(1); r.cCodecErrors.Inc() }

func (r *Registry) AddBytesWritten(n uint64) {
	r.bytesWritten.Add(n)
	r.cBytesWritten.Add(float64(n))
}

func (r *Registry) IncRotationCount() { r.rotationCount.Add(1); r.cRotationCount.Inc() }

// Snapshot returns a point-in-time copy of every counter, for
// snapshot_stats().
func (r *Registry) Snapshot(samplesPerSecond, rawRingFillPct float64) api.Stats {
	return api.Stats{
		PacketsReceived:   r.packetsReceived.Load(),
		PacketsLost:       r.packetsLost.Load(),
		SamplesPerSecond:  samplesPerSecond,
		RawRingFillPct:    rawRingFillPct,
		RawRingOverwrites: r.rawRingOverwrites.Load(),
		AppDropped:        r.appDropped.Load(),
		WriterDropped:     r.writerDropped.Load(),
		CodecErrors:       r.codecErrors.Load(),
		BytesWritten:      r.bytesWritten.Load(),
		RotationCount:     r.rotationCount.Load(),
	}
}
