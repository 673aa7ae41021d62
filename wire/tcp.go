// File: wire/tcp.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TCP command-channel frames: READCALINFO request/response, WRITETRANSFORM
// request, and the READFT bias-fallback request. All fixed-layout,
// big-endian, per spec §4.1.

package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/momentics/gammacore/api"
)

const (
	TCPCalRequestLen  = 20
	TCPCalResponseLen = 24
	TCPTransformLen   = 20
	TCPBiasLen        = 20

	cmdReadCalInfo     byte = 0x01
	cmdWriteTransform  byte = 0x02
	cmdReadFT          byte = 0x00

	DistanceUnitsMM uint8 = 3
	AngleUnitsDeg   uint8 = 1
)

// CalInfoRequest builds the 20-byte READCALINFO request: command byte
// followed by 19 zero bytes.
func CalInfoRequest() []byte {
	buf := make([]byte, TCPCalRequestLen)
	buf[0] = cmdReadCalInfo
	return buf
}

// CalInfoResponse mirrors the 24-byte READCALINFO reply.
type CalInfoResponse struct {
	ForceUnitCode  uint8
	TorqueUnitCode uint8
	CPF            uint32
	CPT            uint32
	ScaleFactors   [6]uint16
}

// DecodeCalInfoResponse parses the 24-byte calibration reply.
func DecodeCalInfoResponse(raw []byte) (CalInfoResponse, error) {
	if len(raw) != TCPCalResponseLen {
		return CalInfoResponse{}, api.ProtoWrongLength(ProtoLengthError(len(raw), TCPCalResponseLen))
	}
	header := binary.BigEndian.Uint16(raw[0:2])
	if header != RequestHeader {
		return CalInfoResponse{}, api.ProtoUnexpectedResponse(
			fmt.Errorf("unexpected header %#04x, want %#04x", header, RequestHeader))
	}
	var r CalInfoResponse
	r.ForceUnitCode = raw[2]
	r.TorqueUnitCode = raw[3]
	r.CPF = binary.BigEndian.Uint32(raw[4:8])
	r.CPT = binary.BigEndian.Uint32(raw[8:12])
	off := 12
	for i := 0; i < 6; i++ {
		r.ScaleFactors[i] = binary.BigEndian.Uint16(raw[off : off+2])
		off += 2
	}
	return r, nil
}

// EncodeCalInfoResponse serializes a CalInfoResponse; used by the
// simulator to answer READCALINFO.
func EncodeCalInfoResponse(r CalInfoResponse) []byte {
	buf := make([]byte, TCPCalResponseLen)
	binary.BigEndian.PutUint16(buf[0:2], RequestHeader)
	buf[2] = r.ForceUnitCode
	buf[3] = r.TorqueUnitCode
	binary.BigEndian.PutUint32(buf[4:8], r.CPF)
	binary.BigEndian.PutUint32(buf[8:12], r.CPT)
	off := 12
	for i := 0; i < 6; i++ {
		binary.BigEndian.PutUint16(buf[off:off+2], r.ScaleFactors[i])
		off += 2
	}
	return buf
}

// ToCalibrationInfo converts the raw TCP reply into the domain
// CalibrationInfo, counts-per-force / counts-per-torque as floats.
func (r CalInfoResponse) ToCalibrationInfo() api.CalibrationInfo {
	return api.CalibrationInfo{
		CPF:            float64(r.CPF),
		CPT:            float64(r.CPT),
		ForceUnitCode:  r.ForceUnitCode,
		TorqueUnitCode: r.TorqueUnitCode,
	}
}

// ToolTransform is the six-axis transform applied at the sensor: distances
// in millimeters, rotations in degrees.
type ToolTransform struct {
	DX, DY, DZ float64
	RX, RY, RZ float64
}

// TransformRequest builds the 20-byte WRITETRANSFORM request: command
// byte, distance-units code (mm), angle-units code (degrees), six signed
// int16 values scaled by 100, then 5 reserved zero bytes.
func TransformRequest(t ToolTransform) []byte {
	buf := make([]byte, TCPTransformLen)
	buf[0] = cmdWriteTransform
	buf[1] = DistanceUnitsMM
	buf[2] = AngleUnitsDeg
	vals := [6]float64{t.DX, t.DY, t.DZ, t.RX, t.RY, t.RZ}
	off := 3
	for _, v := range vals {
		binary.BigEndian.PutUint16(buf[off:off+2], uint16(int16(v*100)))
		off += 2
	}
	// remaining 5 bytes stay zero (reserved).
	return buf
}

// DecodeTransformRequest parses a WRITETRANSFORM request back into engineering
// units; used by the simulator and by round-trip tests.
func DecodeTransformRequest(raw []byte) (ToolTransform, error) {
	if len(raw) != TCPTransformLen {
		return ToolTransform{}, api.ProtoWrongLength(ProtoLengthError(len(raw), TCPTransformLen))
	}
	var vals [6]float64
	off := 3
	for i := 0; i < 6; i++ {
		vals[i] = float64(int16(binary.BigEndian.Uint16(raw[off:off+2]))) / 100
		off += 2
	}
	return ToolTransform{DX: vals[0], DY: vals[1], DZ: vals[2], RX: vals[3], RY: vals[4], RZ: vals[5]}, nil
}

// BiasFallbackRequest builds the READFT-form bias fallback: command 0x00,
// 15 zero bytes, uint16 MCEnable=0, uint16 sysCommands with bit 0 set.
func BiasFallbackRequest() []byte {
	buf := make([]byte, TCPBiasLen)
	buf[0] = cmdReadFT
	// bytes 1..15 stay zero.
	binary.BigEndian.PutUint16(buf[16:18], 0) // MCEnable
	binary.BigEndian.PutUint16(buf[18:20], 1) // sysCommands bit 0
	return buf
}
