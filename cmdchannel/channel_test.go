// Author: momentics <momentics@gmail.com>

package cmdchannel

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/momentics/gammacore/wire"
)

func TestChannel_BiasUDP(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	received := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			return
		}
		received <- buf[:n]
	}()

	ch := NewChannel(pc.LocalAddr().String(), "127.0.0.1:1", time.Second)
	if err := ch.Bias(context.Background()); err != nil {
		t.Fatalf("Bias() failed: %v", err)
	}

	select {
	case raw := <-received:
		req, err := wire.DecodeRequest(raw)
		if err != nil {
			t.Fatalf("DecodeRequest failed: %v", err)
		}
		if req.Command != wire.CmdBias {
			t.Errorf("Command = %#x, want CmdBias", req.Command)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for UDP bias datagram")
	}
}

func TestChannel_SetToolTransform(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	var gotTransform wire.ToolTransform
	done := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		raw := make([]byte, wire.TCPTransformLen)
		conn.Read(raw)
		gotTransform, _ = wire.DecodeTransformRequest(raw)
		close(done)
	}()

	ch := NewChannel("127.0.0.1:1", ln.Addr().String(), time.Second)
	want := wire.ToolTransform{DX: 10, DY: -5, DZ: 2.5, RX: 90, RY: 0, RZ: -45}
	if err := ch.SetToolTransform(context.Background(), want); err != nil {
		t.Fatalf("SetToolTransform() failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for TCP transform request")
	}
	if gotTransform != want {
		t.Errorf("got %+v, want %+v", gotTransform, want)
	}
}

func TestChannel_ReadCalibration(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		req := make([]byte, wire.TCPCalRequestLen)
		conn.Read(req)
		conn.Write(wire.EncodeCalInfoResponse(wire.CalInfoResponse{CPF: 123456, CPT: 654321}))
	}()

	ch := NewChannel("127.0.0.1:1", ln.Addr().String(), time.Second)
	cal, err := ch.ReadCalibration(context.Background())
	if err != nil {
		t.Fatalf("ReadCalibration() failed: %v", err)
	}
	if cal.CPF != 123456 || cal.CPT != 654321 {
		t.Errorf("got CPF=%v CPT=%v, want 123456/654321", cal.CPF, cal.CPT)
	}
}
