// Package sensornode composes the flame reader, the severity classifier
// and the position validator into the node's single read endpoint. The
// snapshot is the node's entire externally visible state; there is no
// session, no history, no push.
package sensornode

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/5TUM8L3/vigia-fogo/internal/gps"
	"github.com/5TUM8L3/vigia-fogo/internal/sensor"
	"github.com/5TUM8L3/vigia-fogo/internal/severity"
	"github.com/5TUM8L3/vigia-fogo/internal/snapshot"
)

var (
	flameIntensity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vigia_sensor_flame_intensity",
		Help: "Last raw ADC reading (lower = stronger flame)",
	})
	severityBand = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vigia_sensor_severity",
		Help: "1 for the currently classified severity band",
	}, []string{"level"})
	gpsFixValid = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vigia_sensor_gps_fix_valid",
		Help: "1 when the reported position is a live fix, 0 when it is the fallback",
	})
	gpsFixAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vigia_sensor_gps_fix_age_seconds",
		Help: "Age of the most recent fix; negative when none was ever received",
	})
	snapshotRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vigia_sensor_snapshot_requests_total",
		Help: "GET /fire-alert requests by status code",
	}, []string{"code"})
)

// Node builds snapshots on demand.
type Node struct {
	Flame      sensor.Reader
	GPS        *gps.Validator
	Thresholds severity.Thresholds
	Now        func() time.Time // nil means time.Now

	mu sync.Mutex
}

// BuildSnapshot runs one sample-classify-locate-stamp cycle. Cycles are
// serialized; the node answers one request at a time, and the severity
// band gauge is never observably empty between Reset and Set. It does no
// retries; the only failure is a hardware read fault, which the handler
// maps to HTTP 500.
func (n *Node) BuildSnapshot() (snapshot.Snapshot, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	reading, err := n.Flame.Read()
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	level := n.Thresholds.Classify(reading)
	at := now()
	lat, lng, valid := n.GPS.Resolve(at)

	flameIntensity.Set(float64(reading))
	severityBand.Reset()
	severityBand.WithLabelValues(level.Key()).Set(1)
	if valid {
		gpsFixValid.Set(1)
	} else {
		gpsFixValid.Set(0)
	}
	gpsFixAge.Set(n.GPS.FixAge(at).Seconds())

	return snapshot.Snapshot{Severity: level, ObservedAt: at, Lat: lat, Lng: lng}, nil
}

// Router exposes the wire endpoint plus the usual operational routes.
func (n *Node) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/fire-alert", n.handleFireAlert)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (n *Node) handleFireAlert(w http.ResponseWriter, r *http.Request) {
	s, err := n.BuildSnapshot()
	if err != nil {
		snapshotRequests.WithLabelValues("500").Inc()
		http.Error(w, "sensor fault", http.StatusInternalServerError)
		return
	}
	body, err := snapshot.Encode(s)
	if err != nil {
		snapshotRequests.WithLabelValues("500").Inc()
		http.Error(w, "encode fault", http.StatusInternalServerError)
		return
	}
	snapshotRequests.WithLabelValues("200").Inc()
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
