// File: acquire/receiver.go
// Author: momentics <momentics@gmail.com>
//
// Receiver is the single-threaded UDP datagram loop of spec §4.2: a
// bounded 100ms read deadline makes shutdown cooperative, and sequence
// gaps are attributed to packet loss via modular arithmetic. Every
// valid datagram is handed to the sink; decimation (thinning the
// logged rate only) is a logging-layer concern applied downstream by
// the writer, not here.

package acquire

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/momentics/gammacore/api"
	"github.com/momentics/gammacore/obslog"
	"github.com/momentics/gammacore/stats"
	"github.com/momentics/gammacore/wire"
)

// readTimeout bounds each recv call so the stop signal is checked
// cooperatively rather than blocking forever.
const readTimeout = 100 * time.Millisecond

// Sink receives decoded samples; satisfied by *ring.RawRing.
type Sink interface {
	Push(s api.SampleRecord)
}

// Receiver owns the UDP socket for one streaming session.
type Receiver struct {
	conn *net.UDPConn
	sink Sink
	reg  *stats.Registry

	hasLast bool
	lastSeq uint32

	packetsReceived atomic.Uint64
	packetsLost     atomic.Uint64
	codecErrors     atomic.Uint64
}

// NewReceiver dials the sensor's UDP streaming port and tunes the socket
// buffer. The caller must call Run to start receiving.
func NewReceiver(remoteAddr string, sink Sink, reg *stats.Registry) (*Receiver, error) {
	raddr, err := net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		return nil, api.NetConnectRefused(err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, api.NetConnectRefused(err)
	}
	if err := TuneRcvBuf(conn, DefaultRcvBufBytes); err != nil {
		obslog.Component("acquire").WithError(err).Debug("SO_RCVBUF tuning failed, continuing with kernel default")
	}
	return &Receiver{conn: conn, sink: sink, reg: reg}, nil
}

// Close releases the UDP socket.
func (r *Receiver) Close() error {
	return r.conn.Close()
}

// Start sends the start-infinite-streaming request.
func (r *Receiver) Start() error {
	if _, err := r.conn.Write(wire.StartInfiniteRequest()); err != nil {
		return api.NetSocket(err)
	}
	return nil
}

// Stop sends the stop-streaming request; the receive loop itself is
// stopped by cancelling ctx passed to Run.
func (r *Receiver) Stop() error {
	if _, err := r.conn.Write(wire.StopRequest()); err != nil {
		return api.NetSocket(err)
	}
	return nil
}

// Run executes the receive loop until ctx is cancelled. It returns nil
// on a clean stop, or a NET category error if the socket itself fails.
func (r *Receiver) Run(ctx context.Context) error {
	buf := make([]byte, 4096)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		r.conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, err := r.conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return api.NetDisconnected(err)
		}

		frame, err := wire.DecodeResponse(buf[:n])
		if err != nil {
			// Never log from the hot path (spec.md §4.2/§4.10); the
			// codec-error counter is the signal, surfaced via
			// CodecErrors()/stats and narrated by the supervisor.
			r.codecErrors.Add(1)
			if r.reg != nil {
				r.reg.IncCodecErrors()
			}
			continue
		}

		r.accountSequence(frame.RDTSequence)
		r.packetsReceived.Add(1)
		if r.reg != nil {
			r.reg.IncPacketsReceived()
		}

		sample := frame.ToSampleRecord(time.Now().UnixNano())
		r.sink.Push(sample)
	}
}

// accountSequence attributes any gap between the expected and received
// rdt_sequence to packet loss, taking the modular difference so a
// uint32 wraparound is handled correctly.
func (r *Receiver) accountSequence(seq uint32) {
	if !r.hasLast {
		r.hasLast = true
		r.lastSeq = seq
		return
	}
	expected := r.lastSeq + 1
	gap := seq - expected // modulo 2^32 by construction
	if gap != 0 {
		r.packetsLost.Add(uint64(gap))
		if r.reg != nil {
			r.reg.AddPacketsLost(uint64(gap))
		}
	}
	r.lastSeq = seq
}

// PacketsReceived returns the count of decoded, accounted-for datagrams.
func (r *Receiver) PacketsReceived() uint64 { return r.packetsReceived.Load() }

// PacketsLost returns the cumulative sequence-gap-attributed loss count.
func (r *Receiver) PacketsLost() uint64 { return r.packetsLost.Load() }

// CodecErrors returns the count of malformed datagrams dropped.
func (r *Receiver) CodecErrors() uint64 { return r.codecErrors.Load() }
