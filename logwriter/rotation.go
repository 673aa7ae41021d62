// File: logwriter/rotation.go
// Author: momentics <momentics@gmail.com>
//
// Rotation policy: a part closes and the next one opens when its byte
// count exceeds rotation_size or its age exceeds rotation_time, per
// spec §4.6. Each new part repeats the full metadata header and column
// row, so any single part is independently readable.

package logwriter

import (
	"io"
	"time"
)

// countingWriter tracks bytes written through it, for rotation-size
// checks and the bytes_written stat.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// rotationPolicy decides whether the active part should roll over.
type rotationPolicy struct {
	enabled    bool
	maxBytes   int64
	maxAge     time.Duration
}

func newRotationPolicy(enabled bool, maxBytes int64, maxAgeMinutes int) rotationPolicy {
	return rotationPolicy{
		enabled:  enabled,
		maxBytes: maxBytes,
		maxAge:   time.Duration(maxAgeMinutes) * time.Minute,
	}
}

// shouldRotate reports whether the part opened at openedAt with
// bytesWritten so far should be closed and rolled over.
func (p rotationPolicy) shouldRotate(bytesWritten int64, openedAt, now time.Time) bool {
	if !p.enabled {
		return false
	}
	if p.maxBytes > 0 && bytesWritten >= p.maxBytes {
		return true
	}
	if p.maxAge > 0 && now.Sub(openedAt) >= p.maxAge {
		return true
	}
	return false
}
