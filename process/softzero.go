// File: process/softzero.go
// Author: momentics <momentics@gmail.com>
//
// Soft-zero (local tare) offsets, subtracted before calibration
// conversion when soft-zero mode is active. spec §3 requires these be
// "updated atomically by the bias operation": SoftZeroOffsets is an
// immutable value swapped wholesale via atomic.Value on Stage, the same
// pattern used for calibration, since the bias operation runs on a
// different goroutine than the streaming drain loop that reads it.

package process

// SoftZeroOffsets holds the six raw-count offsets subtracted from each
// incoming sample before conversion. Immutable once constructed.
type SoftZeroOffsets struct {
	Active  bool
	Offsets [6]int32
}

// newSoftZero builds an active offset snapshot from the given raw counts.
func newSoftZero(counts [6]int32) SoftZeroOffsets {
	return SoftZeroOffsets{Active: true, Offsets: counts}
}

// Apply subtracts the active offsets from the given raw counts, returning
// the adjusted counts. If soft-zero is inactive, counts pass through
// unchanged.
func (s SoftZeroOffsets) Apply(counts [6]int32) [6]int32 {
	if !s.Active {
		return counts
	}
	var out [6]int32
	for i := range counts {
		out[i] = counts[i] - s.Offsets[i]
	}
	return out
}
