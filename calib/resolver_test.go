// Author: momentics <momentics@gmail.com>

package calib

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/momentics/gammacore/wire"
)

// fakeTCPCalServer accepts one connection, reads the READCALINFO request,
// and replies with a fixed calibration response.
func fakeTCPCalServer(t *testing.T, cpf, cpt uint32) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		req := make([]byte, wire.TCPCalRequestLen)
		if _, err := conn.Read(req); err != nil {
			return
		}
		resp := wire.EncodeCalInfoResponse(wire.CalInfoResponse{CPF: cpf, CPT: cpt})
		conn.Write(resp)
	}()
	return ln.Addr().String(), func() { ln.Close() }
}

func TestResolver_S5HTTPFailsTCPFallback(t *testing.T) {
	httpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer httpSrv.Close()

	tcpAddr, stop := fakeTCPCalServer(t, 500000, 800000)
	defer stop()

	r := NewResolver(500*time.Millisecond, 2*time.Second)
	cal, err := r.Resolve(context.Background(), "sensor-1", httpSrv.URL, tcpAddr)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if cal.CPF != 500000 {
		t.Errorf("CPF = %v, want 500000", cal.CPF)
	}
	if cal.CPT != 800000 {
		t.Errorf("CPT = %v, want 800000", cal.CPT)
	}
}

func TestResolver_CachesPerEndpoint(t *testing.T) {
	calls := 0
	httpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`<calibration><counts_per_force>1000</counts_per_force><counts_per_torque>2000</counts_per_torque></calibration>`))
	}))
	defer httpSrv.Close()

	r := NewResolver(time.Second, time.Second)
	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), "sensor-1", httpSrv.URL, "unused:0"); err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("HTTP called %d times, want 1 (cached)", calls)
	}
}

func TestResolver_InvalidateOnDifferentEndpoint(t *testing.T) {
	httpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<calibration><counts_per_force>1000</counts_per_force><counts_per_torque>2000</counts_per_torque></calibration>`))
	}))
	defer httpSrv.Close()

	r := NewResolver(time.Second, time.Second)
	if _, err := r.Resolve(context.Background(), "sensor-1", httpSrv.URL, "unused:0"); err != nil {
		t.Fatal(err)
	}
	r.InvalidateIfDifferentEndpoint("sensor-2")
	r.mu.Lock()
	cached := r.cached
	r.mu.Unlock()
	if cached != nil {
		t.Errorf("expected cache cleared after endpoint change")
	}
}
