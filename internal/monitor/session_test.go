package monitor

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/5TUM8L3/vigia-fogo/internal/config"
	"github.com/5TUM8L3/vigia-fogo/internal/severity"
)

func fireServer(t *testing.T, hits *atomic.Int64, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fire-alert" {
			http.NotFound(w, r)
			return
		}
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func testConfig(addr string) config.Monitor {
	cfg := config.DefaultMonitor()
	cfg.SensorAddr = addr
	cfg.PollInterval = 10 * time.Millisecond
	cfg.FetchTimeout = 200 * time.Millisecond
	cfg.NtfyTopic = "" // empty topic: dispatcher stays quiet in tests
	return cfg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not reached in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSessionEndToEnd(t *testing.T) {
	srv := fireServer(t, nil, `{"severity":"HIGH","time":"2026-01-22 21:35","latitude":16.615000,"longitude":120.316000}`)
	defer srv.Close()

	s := NewSession(testConfig(srv.URL), "")
	s.Start()
	defer s.Stop()

	waitFor(t, func() bool { return s.Store().ActiveCount() == 1 })
	// identical snapshots on later ticks must not add alerts
	time.Sleep(50 * time.Millisecond)
	if got := len(s.Store().All()); got != 1 {
		t.Errorf("store has %d alerts, want 1", got)
	}
	a := s.Store().All()[0]
	if a.Severity != severity.High || a.Lat != 16.615 {
		t.Errorf("alert = %+v", a)
	}
	st := s.Status()
	if !st.Running || !st.LastPollOK || st.ActiveAlerts != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestSessionSetTargetSwitchesAtomically(t *testing.T) {
	var hitsA, hitsB atomic.Int64
	none := `{"severity":"NONE","time":"2026-01-22 21:35","latitude":0.000000,"longitude":0.000000}`
	srvA := fireServer(t, &hitsA, none)
	defer srvA.Close()
	srvB := fireServer(t, &hitsB, none)
	defer srvB.Close()

	s := NewSession(testConfig(srvA.URL), "")
	s.Start()
	defer s.Stop()
	waitFor(t, func() bool { return hitsA.Load() > 2 })

	if err := s.SetTarget(srvB.URL); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	settled := hitsA.Load()
	waitFor(t, func() bool { return hitsB.Load() > 2 })
	if hitsA.Load() != settled {
		t.Errorf("old target polled after switch: %d -> %d", settled, hitsA.Load())
	}
	if got := s.Status().SensorAddr; got != srvB.URL {
		t.Errorf("SensorAddr = %s", got)
	}
}

func TestSessionSetTargetPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.yaml")
	s := NewSession(testConfig("127.0.0.1:9"), path)
	if err := s.SetTarget("10.1.2.3:8180"); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	got, err := config.LoadMonitor(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.SensorAddr != "10.1.2.3:8180" {
		t.Errorf("persisted SensorAddr = %s", got.SensorAddr)
	}
	// session was never started; retargeting must not start it
	if s.Status().Running {
		t.Error("SetTarget started a stopped session")
	}
}

func TestSessionSetTargetRejectsEmpty(t *testing.T) {
	s := NewSession(testConfig("127.0.0.1:9"), "")
	if err := s.SetTarget(""); err == nil {
		t.Error("empty address should be rejected")
	}
}

func TestSessionTestAlert(t *testing.T) {
	s := NewSession(testConfig("127.0.0.1:9"), "")
	s.TriggerTestAlert()
	s.TriggerTestAlert()
	if got := len(s.Store().All()); got != 2 {
		t.Errorf("two test shots produced %d alerts, want 2", got)
	}
	for _, a := range s.Store().All() {
		if a.Severity != severity.Extreme {
			t.Errorf("test alert severity = %v", a.Severity)
		}
	}
}

func TestSessionStopIdempotent(t *testing.T) {
	srv := fireServer(t, nil, `{"severity":"NONE","time":"x","latitude":0.000000,"longitude":0.000000}`)
	defer srv.Close()
	s := NewSession(testConfig(srv.URL), "")
	s.Start()
	s.Stop()
	s.Stop()
	if s.Status().Running {
		t.Error("Running after Stop")
	}
}
