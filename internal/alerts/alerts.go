// Package alerts turns the stream of polled snapshots into a deduplicated
// set of alert records with an active/resolved lifecycle. The sensor has
// no notion of a named event (every poll reports only current state), so
// alert identity is reconstructed on this side by spatial co-location.
package alerts

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/5TUM8L3/vigia-fogo/internal/severity"
)

// Status of an alert. RESOLVED is terminal; a later detection at the same
// site becomes a new alert.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusResolved Status = "RESOLVED"
)

// Alert is one discrete fire event as reconstructed by the monitor.
type Alert struct {
	ID              string
	Severity        severity.Level
	Lat             float64
	Lng             float64
	FirstObservedAt time.Time
	Status          Status
}

var (
	alertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vigia_monitor_alerts_created_total",
		Help: "Alerts admitted by the deduplicator, by severity",
	}, []string{"severity"})
	activeAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vigia_monitor_active_alerts",
		Help: "Alerts currently in ACTIVE state",
	})
)

// Store holds the session's alerts, most recent first. It is the single
// mutable shared state of the monitor; every writer (poll ticks, the
// manual test alert) goes through its mutex.
type Store struct {
	mu     sync.Mutex
	alerts []Alert // head = most recent
}

func NewStore() *Store {
	return &Store{}
}

// InsertActive places a new alert at the head of the list.
func (s *Store) InsertActive(a Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.Status = StatusActive
	s.alerts = append([]Alert{a}, s.alerts...)
	alertsCreated.WithLabelValues(a.Severity.Key()).Inc()
	activeAlerts.Inc()
}

// Resolve marks an alert resolved. The record keeps its place, identity
// and history; only the status changes. Returns false when the id is
// unknown or the alert was already resolved.
func (s *Store) Resolve(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			if s.alerts[i].Status == StatusResolved {
				return false
			}
			s.alerts[i].Status = StatusResolved
			activeAlerts.Dec()
			return true
		}
	}
	return false
}

// Active returns a copy of the alerts still in ACTIVE state, most recent
// first.
func (s *Store) Active() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if a.Status == StatusActive {
			out = append(out, a)
		}
	}
	return out
}

// All returns a copy of every alert of the session, most recent first.
func (s *Store) All() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// ActiveCount is Active() without the allocation, for gauges and tooltips.
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.alerts {
		if a.Status == StatusActive {
			n++
		}
	}
	return n
}

// activeNear reports whether an ACTIVE alert lies within tol degrees of
// the given position on both axes.
func (s *Store) activeNear(lat, lng, tol float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alerts {
		if a.Status != StatusActive {
			continue
		}
		if absf(a.Lat-lat) < tol && absf(a.Lng-lng) < tol {
			return true
		}
	}
	return false
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
