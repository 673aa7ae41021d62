// File: vizbuf/buffer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Buffer is the top-level visualization store: the raw tier plus three
// progressively coarser downsample tiers, written exclusively by the
// processing stage and read under a short-held lock by the control
// thread (spec §5).

package vizbuf

import "sync"

// Tier geometry, per spec §4.5. The raw tier uses a 1ns "span" so that
// every distinct incoming timestamp gets its own bucket: real samples are
// at least ~1ms apart, so this reduces exactly to "one bucket per
// sample" without a separate code path.
const (
	rawSpanNs = 1
	t1SpanNs  = 100 * 1e6    // 100 ms
	t2SpanNs  = 10 * 1e9     // 10 s
	t3SpanNs  = 100 * 1e9    // 100 s

	RawCapacity = 60000 // 60s @ 1kHz
	T1Capacity  = 36000 // 1h of 100ms buckets
	T2Capacity  = 8640  // 24h of 10s buckets
	T3Capacity  = 6048  // 7d of 100s buckets
)

// TierName identifies one of the four tiers.
type TierName string

const (
	TierRaw TierName = "raw"
	TierT1  TierName = "t1"
	TierT2  TierName = "t2"
	TierT3  TierName = "t3"
)

// DefaultPointBudget is the default point budget per channel from spec §4.5.
const DefaultPointBudget = 10000

// Buffer holds the four tiers and the latest timestamp seen.
type Buffer struct {
	mu      sync.RWMutex
	tiers   [4]*tier
	lastNs  int64
}

// NewBuffer allocates a Buffer with the tier geometry from spec §4.5.
func NewBuffer() *Buffer {
	return &Buffer{
		tiers: [4]*tier{
			newTier(string(TierRaw), rawSpanNs, RawCapacity),
			newTier(string(TierT1), t1SpanNs, T1Capacity),
			newTier(string(TierT2), t2SpanNs, T2Capacity),
			newTier(string(TierT3), t3SpanNs, T3Capacity),
		},
	}
}

// Insert folds one converted sample's six channel values (three force,
// three torque, in SI units) into every tier.
func (b *Buffer) Insert(tMonoNs int64, vals [6]float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tiers {
		t.insert(tMonoNs, vals)
	}
	if tMonoNs > b.lastNs {
		b.lastNs = tMonoNs
	}
}

// Series is one (min,max) pair sequence for a single requested channel.
type Series struct {
	Channel int
	Points  []Point
}

// Point is one bucket's min/max extent for a single channel.
type Point struct {
	TMonoNs int64
	Min     float32
	Max     float32
}

// GetSeries implements the read contract of spec §4.5: given a window
// [t_now-W, t_now] and a point budget P, select the smallest (finest)
// tier whose actual bucket count intersecting the window does not exceed
// P, then return every such bucket's (min,max) pair for each requested
// channel.
func (b *Buffer) GetSeries(windowSec float64, channels []int, pointBudget int) []Series {
	if pointBudget <= 0 {
		pointBudget = DefaultPointBudget
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	toNs := b.lastNs
	fromNs := toNs - int64(windowSec*1e9)

	var chosen []TierBucket
	for _, t := range b.tiers {
		buckets := t.inWindow(fromNs, toNs)
		if len(buckets) <= pointBudget {
			chosen = buckets
			break
		}
		chosen = buckets // fall through to coarsest tier if none fit
	}

	out := make([]Series, len(channels))
	for i, ch := range channels {
		pts := make([]Point, len(chosen))
		for j, bkt := range chosen {
			pts[j] = Point{TMonoNs: bkt.StartNs, Min: bkt.Min[ch], Max: bkt.Max[ch]}
		}
		out[i] = Series{Channel: ch, Points: pts}
	}
	return out
}

// SelectedTier reports which tier GetSeries would choose for the given
// window and budget, for testing and diagnostics.
func (b *Buffer) SelectedTier(windowSec float64, pointBudget int) TierName {
	if pointBudget <= 0 {
		pointBudget = DefaultPointBudget
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	toNs := b.lastNs
	fromNs := toNs - int64(windowSec*1e9)

	var last TierName
	for _, t := range b.tiers {
		buckets := t.inWindow(fromNs, toNs)
		last = TierName(t.name)
		if len(buckets) <= pointBudget {
			return last
		}
	}
	return last
}
