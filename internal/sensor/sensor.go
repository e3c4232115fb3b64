// Package sensor reads the raw flame-intensity sample. Readings are
// 12-bit ADC values; the interpretation (lower = stronger flame) lives in
// the severity package.
package sensor

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/5TUM8L3/vigia-fogo/internal/severity"
)

// Reader produces one intensity sample per call. A failed read is the
// node's only unrecoverable fault path and surfaces as HTTP 500 upstream.
type Reader interface {
	Read() (int, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func() (int, error)

func (f ReaderFunc) Read() (int, error) { return f() }

// FileReader samples an IIO sysfs channel, e.g.
// /sys/bus/iio/devices/iio:device0/in_voltage0_raw.
type FileReader struct {
	Path string
}

func (r *FileReader) Read() (int, error) {
	b, err := os.ReadFile(r.Path)
	if err != nil {
		return 0, fmt.Errorf("sensor: read %s: %w", r.Path, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, fmt.Errorf("sensor: parse %s: %w", r.Path, err)
	}
	if v < severity.MinReading {
		v = severity.MinReading
	}
	if v > severity.MaxReading {
		v = severity.MaxReading
	}
	return v, nil
}

// Simulated cycles through a fixed script of readings. With an empty
// script it reports a calm sensor. Used by `sensord -simulate` and tests.
type Simulated struct {
	Script []int

	mu   sync.Mutex
	next int
}

func (s *Simulated) Read() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Script) == 0 {
		return severity.MaxReading, nil
	}
	v := s.Script[s.next%len(s.Script)]
	s.next++
	return v, nil
}
