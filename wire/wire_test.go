// Author: momentics <momentics@gmail.com>

package wire

import (
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	cases := []Request{
		{Command: CmdStartInfinite, SampleCount: 0},
		{Command: CmdStopStreaming, SampleCount: 0},
		{Command: CmdBias, SampleCount: 0},
		{Command: CmdStartInfinite, SampleCount: 12345},
	}
	for _, want := range cases {
		raw := EncodeRequest(want)
		if len(raw) != RequestLen {
			t.Fatalf("EncodeRequest length = %d, want %d", len(raw), RequestLen)
		}
		got, err := DecodeRequest(raw)
		if err != nil {
			t.Fatalf("DecodeRequest: %v", err)
		}
		if got != want {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestResponseRoundTrip(t *testing.T) {
	want := ResponseFrame{
		RDTSequence: 42,
		FTSequence:  42,
		Status:      0,
		Counts:      [6]int32{1000, -1000, 5000, 100, -100, 50},
	}
	raw := EncodeResponse(want)
	if len(raw) != ResponseLen {
		t.Fatalf("EncodeResponse length = %d, want %d", len(raw), ResponseLen)
	}
	got, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestDecodeResponseRejectsWrongLength(t *testing.T) {
	for _, n := range []int{0, 1, 35, 37, 100} {
		_, err := DecodeResponse(make([]byte, n))
		if err == nil {
			t.Errorf("DecodeResponse(len=%d): expected error, got nil", n)
		}
	}
}

func TestCalInfoResponseRoundTrip(t *testing.T) {
	want := CalInfoResponse{
		ForceUnitCode:  1,
		TorqueUnitCode: 2,
		CPF:            1000000,
		CPT:            1000000,
		ScaleFactors:   [6]uint16{1, 2, 3, 4, 5, 6},
	}
	raw := EncodeCalInfoResponse(want)
	if len(raw) != TCPCalResponseLen {
		t.Fatalf("EncodeCalInfoResponse length = %d, want %d", len(raw), TCPCalResponseLen)
	}
	got, err := DecodeCalInfoResponse(raw)
	if err != nil {
		t.Fatalf("DecodeCalInfoResponse: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestTransformRequestRoundTrip(t *testing.T) {
	want := ToolTransform{DX: 10.5, DY: -5.25, DZ: 0, RX: 90, RY: -45, RZ: 180}
	raw := TransformRequest(want)
	if len(raw) != TCPTransformLen {
		t.Fatalf("TransformRequest length = %d, want %d", len(raw), TCPTransformLen)
	}
	if raw[1] != DistanceUnitsMM || raw[2] != AngleUnitsDeg {
		t.Fatalf("unexpected units codes: %d %d", raw[1], raw[2])
	}
	got, err := DecodeTransformRequest(raw)
	if err != nil {
		t.Fatalf("DecodeTransformRequest: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestBiasFallbackRequestShape(t *testing.T) {
	raw := BiasFallbackRequest()
	if len(raw) != TCPBiasLen {
		t.Fatalf("len = %d, want %d", len(raw), TCPBiasLen)
	}
	if raw[0] != 0x00 {
		t.Errorf("command byte = %#x, want 0x00", raw[0])
	}
	for i := 1; i < 16; i++ {
		if raw[i] != 0 {
			t.Errorf("byte %d = %#x, want 0", i, raw[i])
		}
	}
	if raw[16] != 0 || raw[17] != 0 {
		t.Errorf("MCEnable bytes not zero")
	}
	if raw[18] != 0 || raw[19] != 1 {
		t.Errorf("sysCommands bytes = %d %d, want bit 0 set", raw[18], raw[19])
	}
}

func TestDecodeCalibrationXML(t *testing.T) {
	body := []byte(`<calibration><counts_per_force>1000000</counts_per_force><counts_per_torque>1000000</counts_per_torque><serial>FT12345</serial><unrelated_field>ignored</unrelated_field></calibration>`)
	info, err := DecodeCalibrationXML(body)
	if err != nil {
		t.Fatalf("DecodeCalibrationXML: %v", err)
	}
	if info.CPF != 1000000 || info.CPT != 1000000 {
		t.Errorf("got cpf=%v cpt=%v", info.CPF, info.CPT)
	}
	if info.Serial != "FT12345" {
		t.Errorf("got serial=%q", info.Serial)
	}
}

func TestDecodeCalibrationXMLMissingField(t *testing.T) {
	body := []byte(`<calibration><counts_per_force>1000000</counts_per_force></calibration>`)
	if _, err := DecodeCalibrationXML(body); err == nil {
		t.Fatal("expected error for missing counts_per_torque")
	}
}

func TestDecodeCalibrationXMLMalformed(t *testing.T) {
	if _, err := DecodeCalibrationXML([]byte(`not xml`)); err == nil {
		t.Fatal("expected parse error")
	}
}
