// Package snapshot defines the producer's current-state report and its
// wire codec. The snapshot is the only thing that crosses the network:
// one severity, one position, one local wall-clock timestamp.
package snapshot

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/5TUM8L3/vigia-fogo/internal/severity"
)

// TimeLayout is the wire timestamp format: local wall clock, minute
// precision, no timezone.
const TimeLayout = "2006-01-02 15:04"

// Snapshot is one complete producer report.
type Snapshot struct {
	Severity   severity.Level
	ObservedAt time.Time
	Lat        float64
	Lng        float64
}

// coord serializes with exactly six decimal places, as the protocol
// requires.
type coord float64

func (c coord) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(c), 'f', 6, 64), nil
}

func (c *coord) UnmarshalJSON(b []byte) error {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*c = coord(f)
	return nil
}

type wireSnapshot struct {
	Severity  string `json:"severity"`
	Time      string `json:"time"`
	Latitude  coord  `json:"latitude"`
	Longitude coord  `json:"longitude"`
}

// Encode renders the wire body for GET /fire-alert.
func Encode(s Snapshot) ([]byte, error) {
	return json.Marshal(wireSnapshot{
		Severity:  s.Severity.String(),
		Time:      s.ObservedAt.Format(TimeLayout),
		Latitude:  coord(s.Lat),
		Longitude: coord(s.Lng),
	})
}

// Decode parses a wire body. Malformed JSON is an error (the tick is
// discarded), but a bad timestamp is not: the protocol's clock field is
// best-effort, so an unparseable time is replaced by now. An unrecognized
// severity string is ranked lowest rather than rejected.
func Decode(body []byte, now time.Time) (Snapshot, error) {
	var w wireSnapshot
	if err := json.Unmarshal(body, &w); err != nil {
		return Snapshot{}, err
	}
	level, ok := severity.Parse(w.Severity)
	if !ok {
		level = severity.Low
	}
	return Snapshot{
		Severity:   level,
		ObservedAt: parseWireTime(w.Time, now),
		Lat:        float64(w.Latitude),
		Lng:        float64(w.Longitude),
	}, nil
}

func parseWireTime(s string, now time.Time) time.Time {
	for _, layout := range []string{TimeLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return now
}
