// Package severity classifies raw flame-sensor readings into discrete
// alert levels. The IR flame sensor reports a lower ADC value the stronger
// the flame, so lower readings map to more severe levels.
package severity

import "strings"

// Level is the severity of a detection, ordered by urgency:
// Extreme > High > Moderate > Low > None.
type Level int

const (
	None Level = iota
	Low
	Moderate
	High
	Extreme
)

// String returns the upper-case wire form ("EXTREME", ..., "NONE").
func (l Level) String() string {
	switch l {
	case Extreme:
		return "EXTREME"
	case High:
		return "HIGH"
	case Moderate:
		return "MODERATE"
	case Low:
		return "LOW"
	default:
		return "NONE"
	}
}

// Key returns the lower-case form used for notification profiles and labels.
func (l Level) Key() string {
	return strings.ToLower(l.String())
}

// MoreUrgentThan reports whether l outranks other.
func (l Level) MoreUrgentThan(other Level) bool {
	return l > other
}

// Parse maps a wire severity string to a Level, case-insensitively.
// The second return is false when the string is not one of the five levels.
func Parse(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EXTREME":
		return Extreme, true
	case "HIGH":
		return High, true
	case "MODERATE":
		return Moderate, true
	case "LOW":
		return Low, true
	case "NONE":
		return None, true
	}
	return None, false
}

// MinReading and MaxReading bound the ADC sample range.
const (
	MinReading = 0
	MaxReading = 4095
)

// Thresholds are the upper bounds (exclusive) of each severity band.
// They are configuration, not constants, so units can be recalibrated in
// the field without a rebuild.
type Thresholds struct {
	Extreme  int `yaml:"extreme"`
	High     int `yaml:"high"`
	Moderate int `yaml:"moderate"`
	Low      int `yaml:"low"`
}

// DefaultThresholds match the stock IR sensor calibration.
var DefaultThresholds = Thresholds{
	Extreme:  500,
	High:     1000,
	Moderate: 2000,
	Low:      3000,
}

// Classify maps one reading to exactly one Level. A value equal to a band
// bound belongs to the next-less-severe band (500 is HIGH, not EXTREME).
func (t Thresholds) Classify(reading int) Level {
	switch {
	case reading < t.Extreme:
		return Extreme
	case reading < t.High:
		return High
	case reading < t.Moderate:
		return Moderate
	case reading < t.Low:
		return Low
	default:
		return None
	}
}

// Valid reports whether the bands are strictly increasing.
func (t Thresholds) Valid() bool {
	return 0 < t.Extreme && t.Extreme < t.High && t.High < t.Moderate && t.Moderate < t.Low
}
