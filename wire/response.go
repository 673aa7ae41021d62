// File: wire/response.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Decodes the 36-byte RDT response frame into its six channel counts plus
// sequence/status fields. Any length other than exactly 36 bytes is
// rejected with a malformed-packet error; callers (the UDP receiver) count
// the error and drop the datagram without aborting their loop.

package wire

import (
	"encoding/binary"

	"github.com/momentics/gammacore/api"
)

// ResponseFrame mirrors the 36-byte RDT response: two sequence numbers, a
// status word, and six signed 32-bit channel counts in order Fx..Tz.
type ResponseFrame struct {
	RDTSequence uint32
	FTSequence  uint32
	Status      uint32
	Counts      [6]int32
}

// DecodeResponse parses a 36-byte response datagram. Returns
// api.ProtoWrongLength if len(raw) != 36.
func DecodeResponse(raw []byte) (ResponseFrame, error) {
	if len(raw) != ResponseLen {
		return ResponseFrame{}, api.ProtoWrongLength(ProtoLengthError(len(raw), ResponseLen))
	}
	var f ResponseFrame
	f.RDTSequence = binary.BigEndian.Uint32(raw[0:4])
	f.FTSequence = binary.BigEndian.Uint32(raw[4:8])
	f.Status = binary.BigEndian.Uint32(raw[8:12])
	off := 12
	for i := 0; i < 6; i++ {
		f.Counts[i] = int32(binary.BigEndian.Uint32(raw[off : off+4]))
		off += 4
	}
	return f, nil
}

// EncodeResponse serializes a ResponseFrame to its 36-byte wire form.
// Used by the simulator to emit fixture datagrams.
func EncodeResponse(f ResponseFrame) []byte {
	buf := make([]byte, ResponseLen)
	binary.BigEndian.PutUint32(buf[0:4], f.RDTSequence)
	binary.BigEndian.PutUint32(buf[4:8], f.FTSequence)
	binary.BigEndian.PutUint32(buf[8:12], f.Status)
	off := 12
	for i := 0; i < 6; i++ {
		binary.BigEndian.PutUint32(buf[off:off+4], uint32(f.Counts[i]))
		off += 4
	}
	return buf
}

// ToSampleRecord stamps the decoded frame with a reception timestamp,
// producing the immutable record the raw ring stores.
func (f ResponseFrame) ToSampleRecord(tMonoNs int64) api.SampleRecord {
	return api.SampleRecord{
		TMonoNs:     tMonoNs,
		RDTSequence: f.RDTSequence,
		FTSequence:  f.FTSequence,
		Status:      f.Status,
		Counts:      f.Counts,
	}
}
