package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/5TUM8L3/vigia-fogo/internal/severity"
	"github.com/5TUM8L3/vigia-fogo/internal/snapshot"
)

// ProximityDeg is the identity tolerance: detections whose coordinates
// differ by less than this on both axes (about 11 m) are the same fire.
const ProximityDeg = 0.0001

// Notifier receives each newly admitted alert exactly once.
type Notifier interface {
	Notify(a Alert)
}

// Deduper decides whether a snapshot is a new event, a repeat of the
// previous tick, or a continuation of an alert already on record.
type Deduper struct {
	store    *Store
	notifier Notifier
	tol      float64

	// newID is swappable for tests
	newID func() string

	mu     sync.Mutex
	lastFP string
}

func NewDeduper(store *Store, notifier Notifier) *Deduper {
	return &Deduper{
		store:    store,
		notifier: notifier,
		tol:      ProximityDeg,
		newID:    uuid.NewString,
	}
}

// fingerprint keys one snapshot at wire precision. It only suppresses
// reprocessing of an unchanged reading on consecutive ticks; it is not
// alert identity.
func fingerprint(s snapshot.Snapshot) string {
	return fmt.Sprintf("%s|%.6f|%.6f|%s",
		s.Severity, s.Lat, s.Lng, s.ObservedAt.Format(snapshot.TimeLayout))
}

// Process runs one snapshot through the dedup rules. Calls are serialized;
// the poller's non-overlapping ticks and the manual test alert both queue
// on the same mutex.
func (d *Deduper) Process(s snapshot.Snapshot) {
	if s.Severity == severity.None {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	fp := fingerprint(s)
	if fp == d.lastFP {
		return
	}
	d.lastFP = fp

	if d.store.activeNear(s.Lat, s.Lng, d.tol) {
		// continuation of a known fire: no new record, no re-notification
		return
	}

	a := Alert{
		ID:              d.newID(),
		Severity:        s.Severity,
		Lat:             s.Lat,
		Lng:             s.Lng,
		FirstObservedAt: s.ObservedAt,
		Status:          StatusActive,
	}
	d.store.InsertActive(a)
	if d.notifier != nil {
		d.notifier.Notify(a)
	}
}

// ProcessAt is Process for callers that build synthetic snapshots (the
// tray's test alert) and want the first-observed time pinned.
func (d *Deduper) ProcessAt(level severity.Level, lat, lng float64, at time.Time) {
	d.Process(snapshot.Snapshot{Severity: level, ObservedAt: at, Lat: lat, Lng: lng})
}
