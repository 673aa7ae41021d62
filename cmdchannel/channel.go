// File: cmdchannel/channel.go
// Author: momentics <momentics@gmail.com>
//
// Channel issues the three command-channel operations spec §4.7 names:
// bias (UDP primary, TCP fallback), write-tool-transform (TCP), and
// calibration read (TCP fallback, used when the HTTP path in calib is
// unavailable). Every call is bounded by a per-connection timeout; none
// blocks the receive path, since these run on the calling (control)
// goroutine, never from the acquisition loop.

package cmdchannel

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/momentics/gammacore/api"
	"github.com/momentics/gammacore/wire"
)

// Channel addresses one sensor's UDP and TCP command endpoints.
type Channel struct {
	udpAddr string
	tcpAddr string
	timeout time.Duration
}

// NewChannel constructs a command channel bound to a sensor's UDP bias
// port and TCP command port.
func NewChannel(udpAddr, tcpAddr string, timeout time.Duration) *Channel {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Channel{udpAddr: udpAddr, tcpAddr: tcpAddr, timeout: timeout}
}

// Bias issues a tare/zero command. It tries the UDP bias datagram first
// (fire-and-forget, no response); if the UDP send itself fails, it falls
// back to the TCP READFT bias form.
func (c *Channel) Bias(ctx context.Context) error {
	if err := c.biasUDP(ctx); err == nil {
		return nil
	}
	return c.biasTCP(ctx)
}

func (c *Channel) biasUDP(ctx context.Context) error {
	conn, err := net.Dial("udp", c.udpAddr)
	if err != nil {
		return api.NetSocket(err)
	}
	defer conn.Close()
	conn.SetWriteDeadline(deadlineFrom(ctx, c.timeout))
	if _, err := conn.Write(wire.BiasRequest()); err != nil {
		return api.CalBiasFailed(err)
	}
	return nil
}

func (c *Channel) biasTCP(ctx context.Context) error {
	conn, err := c.dialTCP(ctx)
	if err != nil {
		return api.CalBiasFailed(err)
	}
	defer conn.Close()
	if _, err := conn.Write(wire.BiasFallbackRequest()); err != nil {
		return api.CalBiasFailed(err)
	}
	return nil
}

// SetToolTransform issues the WRITETRANSFORM TCP command.
func (c *Channel) SetToolTransform(ctx context.Context, t wire.ToolTransform) error {
	conn, err := c.dialTCP(ctx)
	if err != nil {
		return api.CalTCPFailed(err)
	}
	defer conn.Close()
	if _, err := conn.Write(wire.TransformRequest(t)); err != nil {
		return api.CalTCPFailed(err)
	}
	return nil
}

// ReadCalibration issues the READCALINFO TCP command, used as the
// fallback when the HTTP calibration path is unavailable.
func (c *Channel) ReadCalibration(ctx context.Context) (api.CalibrationInfo, error) {
	conn, err := c.dialTCP(ctx)
	if err != nil {
		return api.CalibrationInfo{}, api.CalTCPFailed(err)
	}
	defer conn.Close()

	if _, err := conn.Write(wire.CalInfoRequest()); err != nil {
		return api.CalibrationInfo{}, api.CalTCPFailed(err)
	}
	raw := make([]byte, wire.TCPCalResponseLen)
	if _, err := io.ReadFull(conn, raw); err != nil {
		return api.CalibrationInfo{}, api.CalTCPFailed(err)
	}
	resp, err := wire.DecodeCalInfoResponse(raw)
	if err != nil {
		return api.CalibrationInfo{}, err
	}
	return resp.ToCalibrationInfo(), nil
}

func (c *Channel) dialTCP(ctx context.Context) (net.Conn, error) {
	dctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	var d net.Dialer
	conn, err := d.DialContext(dctx, "tcp", c.tcpAddr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := dctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	return conn, nil
}

func deadlineFrom(ctx context.Context, timeout time.Duration) time.Time {
	if deadline, ok := ctx.Deadline(); ok {
		return deadline
	}
	return time.Now().Add(timeout)
}
