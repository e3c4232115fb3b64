package gps

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/adrianmo/go-nmea"
)

// Reader drains NMEA 0183 sentences from a serial stream and keeps the
// most recent position. Only RMC and GGA sentences carry a position;
// other sentence types are skipped without error.
type Reader struct {
	mu   sync.Mutex
	last Fix
	now  func() time.Time
}

func NewReader() *Reader {
	return &Reader{now: time.Now}
}

// LastFix implements Source.
func (r *Reader) LastFix() Fix {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Run consumes sentences until the stream ends or ctx is cancelled.
// Garbled lines are dropped; a dead receiver is not an error here, the
// Validator just falls back once the last fix goes stale.
func (r *Reader) Run(ctx context.Context, src io.Reader) error {
	sc := bufio.NewScanner(src)
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		fix, ok := parseSentence(strings.TrimSpace(sc.Text()), r.now())
		if !ok {
			continue
		}
		r.mu.Lock()
		r.last = fix
		r.mu.Unlock()
	}
	return sc.Err()
}

// parseSentence extracts a fix from one NMEA sentence. The boolean is
// false for sentences that fail framing or checksum validation, carry an
// out-of-range coordinate, or are of a type without a position. A
// well-formed RMC with status V (void) returns an invalid Fix with
// ok=true so that the fix age keeps advancing.
func parseSentence(line string, now time.Time) (Fix, bool) {
	s, err := nmea.Parse(line)
	if err != nil {
		return Fix{}, false
	}
	switch m := s.(type) {
	case nmea.RMC:
		if m.Validity != nmea.ValidRMC {
			return Fix{At: now, Valid: false}, true
		}
		return Fix{Lat: m.Latitude, Lng: m.Longitude, At: now, Valid: true}, true
	case nmea.GGA:
		if m.FixQuality == nmea.Invalid {
			return Fix{At: now, Valid: false}, true
		}
		return Fix{Lat: m.Latitude, Lng: m.Longitude, At: now, Valid: true}, true
	}
	return Fix{}, false
}
