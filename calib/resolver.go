// File: calib/resolver.go
// Author: momentics <momentics@gmail.com>
//
// Resolver obtains counts-per-force/counts-per-torque with HTTP-then-TCP
// fallback, per spec §4.3, §5 scenario S5: any HTTP failure category —
// connect refused, timeout, non-2xx, XML parse failure, missing
// required field — falls back to TCP. If both fail, CalUnavailable is
// returned for the supervisor to surface as ErrorFatal/ErrorRecoverable.
// Results are cached per endpoint address and invalidated on reconnect
// to a different endpoint.

package calib

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/momentics/gammacore/api"
	"github.com/momentics/gammacore/obslog"
	"github.com/momentics/gammacore/wire"
)

// Resolver resolves and caches calibration info per sensor endpoint.
type Resolver struct {
	httpTimeout time.Duration
	tcpTimeout  time.Duration

	mu       sync.Mutex
	endpoint string
	cached   *api.CalibrationInfo
}

// NewResolver constructs a resolver with the given HTTP/TCP request
// timeouts.
func NewResolver(httpTimeout, tcpTimeout time.Duration) *Resolver {
	if httpTimeout <= 0 {
		httpTimeout = 2 * time.Second
	}
	if tcpTimeout <= 0 {
		tcpTimeout = 2 * time.Second
	}
	return &Resolver{httpTimeout: httpTimeout, tcpTimeout: tcpTimeout}
}

// InvalidateIfDifferentEndpoint clears the cache when the sensor address
// changes, per spec §4.3's endpoint-keyed cache.
func (r *Resolver) InvalidateIfDifferentEndpoint(endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.endpoint != endpoint {
		r.endpoint = endpoint
		r.cached = nil
	}
}

// Resolve returns the cached calibration for endpoint if present;
// otherwise it tries HTTP then TCP and caches the result.
func (r *Resolver) Resolve(ctx context.Context, endpoint string, httpURL string, tcpAddr string) (api.CalibrationInfo, error) {
	r.mu.Lock()
	if r.endpoint == endpoint && r.cached != nil {
		cal := *r.cached
		r.mu.Unlock()
		return cal, nil
	}
	r.mu.Unlock()

	log := obslog.Component("calib")

	cal, httpErr := r.resolveHTTP(ctx, httpURL)
	if httpErr != nil {
		log.WithError(httpErr).Warn("HTTP calibration failed, falling back to TCP")
		var tcpErr error
		cal, tcpErr = r.resolveTCP(ctx, tcpAddr)
		if tcpErr != nil {
			log.WithError(tcpErr).Error("TCP calibration fallback also failed")
			return api.CalibrationInfo{}, api.CalUnavailable(fmt.Errorf("http: %w; tcp: %v", httpErr, tcpErr))
		}
	}

	r.mu.Lock()
	r.endpoint = endpoint
	c := cal
	r.cached = &c
	r.mu.Unlock()
	return cal, nil
}

func (r *Resolver) resolveHTTP(ctx context.Context, url string) (api.CalibrationInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.httpTimeout)
	defer cancel()

	client := &http.Client{
		Timeout: r.httpTimeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return api.CalibrationInfo{}, api.CalHTTPFailed(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return api.CalibrationInfo{}, api.CalHTTPFailed(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return api.CalibrationInfo{}, api.CalHTTPFailed(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return api.CalibrationInfo{}, api.CalHTTPFailed(err)
	}
	info, err := wire.DecodeCalibrationXML(body)
	if err != nil {
		return api.CalibrationInfo{}, api.CalHTTPFailed(err)
	}
	return info, nil
}

func (r *Resolver) resolveTCP(ctx context.Context, addr string) (api.CalibrationInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.tcpTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return api.CalibrationInfo{}, api.CalTCPFailed(err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	conn.SetDeadline(deadline)

	if _, err := conn.Write(wire.CalInfoRequest()); err != nil {
		return api.CalibrationInfo{}, api.CalTCPFailed(err)
	}
	raw := make([]byte, wire.TCPCalResponseLen)
	if _, err := io.ReadFull(conn, raw); err != nil {
		return api.CalibrationInfo{}, api.CalTCPFailed(err)
	}
	resp, err := wire.DecodeCalInfoResponse(raw)
	if err != nil {
		return api.CalibrationInfo{}, api.CalTCPFailed(err)
	}
	return resp.ToCalibrationInfo(), nil
}
