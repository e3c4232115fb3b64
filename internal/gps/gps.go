// Package gps tracks the latest position fix reported by the receiver and
// decides whether it is usable. The wire format downstream has no "unknown
// location" representation, so a stale or absent fix is silently replaced
// by a configured fallback coordinate.
package gps

import (
	"sync"
	"time"
)

// Fix is one hardware-reported position.
type Fix struct {
	Lat   float64
	Lng   float64
	At    time.Time // when the fix was received locally
	Valid bool      // receiver reported an actual fix (RMC status A / GGA quality > 0)
}

// Source yields the most recent fix. Implementations must be safe for
// concurrent use; the serial drain goroutine writes while the snapshot
// handler reads.
type Source interface {
	LastFix() Fix
}

// StaticSource always returns the same fix. Used for bench setups and tests.
type StaticSource struct {
	mu  sync.Mutex
	fix Fix
}

func (s *StaticSource) Set(f Fix) {
	s.mu.Lock()
	s.fix = f
	s.mu.Unlock()
}

func (s *StaticSource) LastFix() Fix {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fix
}

// DefaultMaxFixAge is the freshness bound: fixes older than this are
// treated as absent.
const DefaultMaxFixAge = 2000 * time.Millisecond

// Validator resolves the position to report: the live fix when valid and
// fresh, the fallback coordinate otherwise. Read-only; it never mutates
// the source.
type Validator struct {
	Source      Source
	FallbackLat float64
	FallbackLng float64
	MaxAge      time.Duration // zero means DefaultMaxFixAge
}

// Resolve returns the coordinates to publish and whether they came from a
// real fix. Callers downstream are never told which one they got; the
// boolean exists for local metrics only.
func (v *Validator) Resolve(now time.Time) (lat, lng float64, valid bool) {
	maxAge := v.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxFixAge
	}
	if v.Source != nil {
		f := v.Source.LastFix()
		if f.Valid && now.Sub(f.At) < maxAge {
			return f.Lat, f.Lng, true
		}
	}
	return v.FallbackLat, v.FallbackLng, false
}

// FixAge returns the age of the current fix, or a negative duration when
// no fix was ever received.
func (v *Validator) FixAge(now time.Time) time.Duration {
	if v.Source == nil {
		return -1
	}
	f := v.Source.LastFix()
	if f.At.IsZero() {
		return -1
	}
	return now.Sub(f.At)
}
