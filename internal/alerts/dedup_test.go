package alerts

import (
	"fmt"
	"testing"
	"time"

	"github.com/5TUM8L3/vigia-fogo/internal/severity"
	"github.com/5TUM8L3/vigia-fogo/internal/snapshot"
)

type recordingNotifier struct {
	notified []Alert
}

func (r *recordingNotifier) Notify(a Alert) {
	r.notified = append(r.notified, a)
}

func newTestDeduper() (*Deduper, *Store, *recordingNotifier) {
	store := NewStore()
	rec := &recordingNotifier{}
	d := NewDeduper(store, rec)
	n := 0
	d.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	return d, store, rec
}

func snap(level severity.Level, lat, lng float64, ts string) snapshot.Snapshot {
	at, err := time.ParseInLocation(snapshot.TimeLayout, ts, time.Local)
	if err != nil {
		panic(err)
	}
	return snapshot.Snapshot{Severity: level, ObservedAt: at, Lat: lat, Lng: lng}
}

func TestIdenticalSnapshotIsIdempotent(t *testing.T) {
	d, store, rec := newTestDeduper()
	s := snap(severity.High, 16.615, 120.316, "2026-01-22 21:35")
	d.Process(s)
	d.Process(s)
	if got := len(store.All()); got != 1 {
		t.Fatalf("two identical snapshots produced %d alerts, want 1", got)
	}
	if len(rec.notified) != 1 {
		t.Errorf("notified %d times, want exactly 1", len(rec.notified))
	}
}

func TestProximityMerge(t *testing.T) {
	d, store, rec := newTestDeduper()
	d.Process(snap(severity.High, 16.615, 120.316, "2026-01-22 21:35"))
	// different severity and time, coordinates within 0.0001° on both axes
	d.Process(snap(severity.Extreme, 16.61505, 120.31605, "2026-01-22 21:36"))
	if got := len(store.All()); got != 1 {
		t.Fatalf("nearby snapshots produced %d alerts, want 1", got)
	}
	if len(rec.notified) != 1 {
		t.Errorf("continuation must not re-notify; notified %d times", len(rec.notified))
	}
}

func TestSpatialSeparation(t *testing.T) {
	d, store, _ := newTestDeduper()
	d.Process(snap(severity.High, 16.615, 120.316, "2026-01-22 21:35"))
	d.Process(snap(severity.High, 16.6153, 120.316, "2026-01-22 21:36"))
	all := store.All()
	if len(all) != 2 {
		t.Fatalf("separated snapshots produced %d alerts, want 2", len(all))
	}
	if all[0].ID == all[1].ID {
		t.Error("distinct alerts must have distinct ids")
	}
}

func TestNoneNeverTouchesStore(t *testing.T) {
	d, store, rec := newTestDeduper()
	d.Process(snap(severity.High, 16.615, 120.316, "2026-01-22 21:35"))
	d.Process(snap(severity.None, 16.615, 120.316, "2026-01-22 21:36"))
	d.Process(snap(severity.None, 0, 0, "2026-01-22 21:37"))
	all := store.All()
	if len(all) != 1 || all[0].Status != StatusActive {
		t.Fatalf("NONE snapshots must not create or mutate alerts: %+v", all)
	}
	if len(rec.notified) != 1 {
		t.Errorf("notified %d times, want 1", len(rec.notified))
	}
}

// the end-to-end scenario from the protocol notes: one fire reported on
// two consecutive ticks yields one ACTIVE alert and one notification.
func TestSingleFireTwoTicks(t *testing.T) {
	d, store, rec := newTestDeduper()
	s := snap(severity.High, 16.615, 120.316, "2026-01-22 21:35")
	d.Process(s)
	d.Process(s)

	active := store.Active()
	if len(active) != 1 {
		t.Fatalf("Active = %d alerts, want 1", len(active))
	}
	a := active[0]
	if a.Severity.Key() != "high" {
		t.Errorf("severity key = %s, want high", a.Severity.Key())
	}
	if a.Lat != 16.615 || a.Lng != 120.316 {
		t.Errorf("location = %v, %v", a.Lat, a.Lng)
	}
	if !a.FirstObservedAt.Equal(s.ObservedAt) {
		t.Errorf("FirstObservedAt = %v, want %v", a.FirstObservedAt, s.ObservedAt)
	}
	if len(rec.notified) != 1 || rec.notified[0].Severity != severity.High {
		t.Errorf("dispatcher calls = %+v, want one HIGH", rec.notified)
	}
}

func TestFingerprintChangesReachProximityRule(t *testing.T) {
	d, store, _ := newTestDeduper()
	d.Process(snap(severity.High, 16.615, 120.316, "2026-01-22 21:35"))
	// severity flaps but the fire is the same spot: still one alert
	d.Process(snap(severity.Moderate, 16.615, 120.316, "2026-01-22 21:36"))
	d.Process(snap(severity.High, 16.615, 120.316, "2026-01-22 21:37"))
	if got := len(store.All()); got != 1 {
		t.Fatalf("got %d alerts, want 1", got)
	}
}

func TestResolvedSiteBecomesNewAlert(t *testing.T) {
	d, store, rec := newTestDeduper()
	d.Process(snap(severity.High, 16.615, 120.316, "2026-01-22 21:35"))
	store.Resolve(store.All()[0].ID)
	d.Process(snap(severity.High, 16.615, 120.316, "2026-01-22 22:10"))
	if got := len(store.All()); got != 2 {
		t.Fatalf("re-detection after resolve produced %d alerts, want 2", got)
	}
	if len(rec.notified) != 2 {
		t.Errorf("notified %d times, want 2", len(rec.notified))
	}
}

func TestProcessAt(t *testing.T) {
	d, store, _ := newTestDeduper()
	at := time.Date(2026, 1, 22, 21, 35, 0, 0, time.Local)
	d.ProcessAt(severity.Extreme, 39.8, -8.1, at)
	all := store.All()
	if len(all) != 1 || !all[0].FirstObservedAt.Equal(at) {
		t.Fatalf("ProcessAt result: %+v", all)
	}
}
