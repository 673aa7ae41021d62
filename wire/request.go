// File: wire/request.go
// Package wire implements the fixed-layout big-endian wire codec for the
// sensor's UDP/TCP request and response datagrams.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wire

import "encoding/binary"

// RDT request/response constants, per spec §4.1 and §6.
const (
	RequestHeader = 0x1234

	CmdStopStreaming  uint16 = 0x0000
	CmdStartInfinite  uint16 = 0x0002
	CmdBias           uint16 = 0x0042

	RequestLen  = 8
	ResponseLen = 36
)

// Request is the 8-byte UDP request datagram: header, command, sample
// count (0 = infinite/no-op for bias).
type Request struct {
	Command     uint16
	SampleCount uint32
}

// EncodeRequest serializes a Request to its fixed 8-byte wire form.
func EncodeRequest(r Request) []byte {
	buf := make([]byte, RequestLen)
	binary.BigEndian.PutUint16(buf[0:2], RequestHeader)
	binary.BigEndian.PutUint16(buf[2:4], r.Command)
	binary.BigEndian.PutUint32(buf[4:8], r.SampleCount)
	return buf
}

// DecodeRequest parses an 8-byte request datagram. Present mainly for
// round-trip testing and for the simulator, which must decode what the
// core sends.
func DecodeRequest(raw []byte) (Request, error) {
	if len(raw) != RequestLen {
		return Request{}, ProtoLengthError(len(raw), RequestLen)
	}
	return Request{
		Command:     binary.BigEndian.Uint16(raw[2:4]),
		SampleCount: binary.BigEndian.Uint32(raw[4:8]),
	}, nil
}

// StartInfiniteRequest builds the start-streaming request sent once the
// receiver's socket is bound.
func StartInfiniteRequest() []byte {
	return EncodeRequest(Request{Command: CmdStartInfinite, SampleCount: 0})
}

// StopRequest builds the stop-streaming request.
func StopRequest() []byte {
	return EncodeRequest(Request{Command: CmdStopStreaming, SampleCount: 0})
}

// BiasRequest builds the UDP bias (tare) request. It has no response.
func BiasRequest() []byte {
	return EncodeRequest(Request{Command: CmdBias, SampleCount: 0})
}
