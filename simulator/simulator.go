// Package simulator stands in for the ATI NETrs "Gamma" sensor itself:
// an in-process UDP streaming endpoint, TCP command endpoint, and HTTP
// calibration endpoint implementing the fixed external contract of
// spec §6. It exists so the core can be exercised end-to-end without
// hardware, and backs the supervisor's end-to-end tests.
// Author: momentics <momentics@gmail.com>
package simulator

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/gammacore/wire"
)

// Sample is one synthetic datagram the simulator will emit once
// streaming starts.
type Sample struct {
	RDTSequence uint32
	FTSequence  uint32
	Status      uint32
	Counts      [6]int32
}

// Sensor runs the three endpoints on loopback ports chosen by the OS.
type Sensor struct {
	udpConn  *net.UDPConn
	tcpLn    net.Listener
	httpSrv  *http.Server
	httpLn   net.Listener

	mu             sync.Mutex
	streaming      bool
	samples        []Sample
	rateHz         float64
	httpFailStatus int

	biasCount  atomic.Uint32
	transform  wire.ToolTransform
	calInfo    wire.CalInfoResponse
	httpCalXML []byte

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewSensor starts all three endpoints on ephemeral loopback ports.
func NewSensor() (*Sensor, error) {
	udpConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		return nil, err
	}
	tcpLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		udpConn.Close()
		return nil, err
	}
	httpLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		udpConn.Close()
		tcpLn.Close()
		return nil, err
	}

	s := &Sensor{
		udpConn: udpConn,
		tcpLn:   tcpLn,
		httpLn:  httpLn,
		rateHz:  1000,
		stopCh:  make(chan struct{}),
		calInfo: wire.CalInfoResponse{ForceUnitCode: 0, TorqueUnitCode: 0, CPF: 1000000, CPT: 1000000},
	}
	s.httpCalXML = []byte(`<calibration><counts_per_force>1000000</counts_per_force><counts_per_torque>1000000</counts_per_torque><serial>SIM-0001</serial><firmware>9.9.9</firmware></calibration>`)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHTTPCal)
	s.httpSrv = &http.Server{Handler: mux}

	s.wg.Add(2)
	go s.runUDP()
	go func() {
		defer s.wg.Done()
		s.httpSrv.Serve(s.httpLn)
	}()
	go s.acceptTCP()

	return s, nil
}

// UDPAddr returns the sensor's streaming UDP address.
func (s *Sensor) UDPAddr() string { return s.udpConn.LocalAddr().String() }

// TCPAddr returns the sensor's command TCP address.
func (s *Sensor) TCPAddr() string { return s.tcpLn.Addr().String() }

// HTTPURL returns the sensor's calibration document URL.
func (s *Sensor) HTTPURL() string { return fmt.Sprintf("http://%s/calibration", s.httpLn.Addr().String()) }

// SetSamples installs the fixed sequence of samples to stream once a
// start-infinite request arrives.
func (s *Sensor) SetSamples(samples []Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = samples
}

// SetHTTPFailure makes the HTTP calibration endpoint return the given
// status code instead of a valid document, for fallback scenario tests.
func (s *Sensor) SetHTTPFailure(statusCode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.httpFailStatus = statusCode
}

// SetCalibration overrides the TCP READCALINFO reply.
func (s *Sensor) SetCalibration(cpf, cpt uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calInfo.CPF = cpf
	s.calInfo.CPT = cpt
}

// BiasCount returns how many bias commands (UDP or TCP) were received.
func (s *Sensor) BiasCount() uint32 { return s.biasCount.Load() }

// Transform returns the last WRITETRANSFORM value received.
func (s *Sensor) Transform() wire.ToolTransform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transform
}

// Close shuts down all three endpoints.
func (s *Sensor) Close() {
	close(s.stopCh)
	s.udpConn.Close()
	s.tcpLn.Close()
	s.httpSrv.Close()
	s.wg.Wait()
}

func (s *Sensor) handleHTTPCal(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	failStatus := s.httpFailStatus
	body := s.httpCalXML
	s.mu.Unlock()

	if failStatus != 0 {
		w.WriteHeader(failStatus)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Write(body)
}

func (s *Sensor) runUDP() {
	defer s.wg.Done()
	buf := make([]byte, 64)
	for {
		s.udpConn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, raddr, err := s.udpConn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					continue
				}
				return
			}
		}
		req, err := wire.DecodeRequest(buf[:n])
		if err != nil {
			continue
		}
		switch req.Command {
		case wire.CmdStartInfinite:
			go s.streamTo(raddr)
		case wire.CmdStopStreaming:
			s.mu.Lock()
			s.streaming = false
			s.mu.Unlock()
		case wire.CmdBias:
			s.biasCount.Add(1)
		}
	}
}

func (s *Sensor) streamTo(raddr *net.UDPAddr) {
	s.mu.Lock()
	if s.streaming {
		s.mu.Unlock()
		return
	}
	s.streaming = true
	samples := s.samples
	rate := s.rateHz
	s.mu.Unlock()

	interval := time.Duration(float64(time.Second) / rate)
	for _, samp := range samples {
		s.mu.Lock()
		streaming := s.streaming
		s.mu.Unlock()
		if !streaming {
			return
		}
		frame := wire.ResponseFrame{
			RDTSequence: samp.RDTSequence,
			FTSequence:  samp.FTSequence,
			Status:      samp.Status,
			Counts:      samp.Counts,
		}
		s.udpConn.WriteToUDP(wire.EncodeResponse(frame), raddr)
		time.Sleep(interval)
	}
}

func (s *Sensor) acceptTCP() {
	for {
		conn, err := s.tcpLn.Accept()
		if err != nil {
			return
		}
		go s.handleTCPConn(conn)
	}
}

func (s *Sensor) handleTCPConn(conn net.Conn) {
	defer conn.Close()
	buf := make([]byte, 20)
	if _, err := conn.Read(buf); err != nil {
		return
	}
	switch buf[0] {
	case 0x01: // READCALINFO
		s.mu.Lock()
		resp := s.calInfo
		s.mu.Unlock()
		conn.Write(wire.EncodeCalInfoResponse(resp))
	case 0x02: // WRITETRANSFORM
		t, err := wire.DecodeTransformRequest(buf)
		if err == nil {
			s.mu.Lock()
			s.transform = t
			s.mu.Unlock()
		}
	case 0x00: // READFT bias fallback
		s.biasCount.Add(1)
	}
}
