// Package monitor owns the consumer-side pipeline: poller, deduplicator,
// lifecycle store and dispatcher, tied together in one Session with an
// explicit start/stop/retarget lifecycle instead of package-level timer
// handles.
package monitor

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/5TUM8L3/vigia-fogo/internal/alerts"
	"github.com/5TUM8L3/vigia-fogo/internal/config"
	"github.com/5TUM8L3/vigia-fogo/internal/notify"
	"github.com/5TUM8L3/vigia-fogo/internal/poller"
	"github.com/5TUM8L3/vigia-fogo/internal/severity"
)

// Session is the monitoring client's top-level state.
type Session struct {
	mu         sync.Mutex
	cfg        config.Monitor
	cfgPath    string // empty disables persistence
	store      *alerts.Store
	deduper    *alerts.Deduper
	dispatcher *notify.Dispatcher
	poll       *poller.Poller
	running    bool
	testShots  int
}

// Status is a read-only view for the tray tooltip and health surfaces.
type Status struct {
	Running      bool
	LastPollOK   bool
	ActiveAlerts int
	SensorAddr   string
}

// NewSession wires the pipeline for the given configuration. cfgPath may
// be empty when the caller does not want address changes persisted.
func NewSession(cfg config.Monitor, cfgPath string) *Session {
	store := alerts.NewStore()
	dispatcher := notify.NewDispatcher(cfg.NtfyURL, cfg.NtfyTopic)
	deduper := alerts.NewDeduper(store, dispatcher)
	return &Session{
		cfg:        cfg,
		cfgPath:    cfgPath,
		store:      store,
		deduper:    deduper,
		dispatcher: dispatcher,
		poll:       poller.NewWith(cfg.SnapshotURL(), deduper.Process, cfg.PollInterval, cfg.FetchTimeout),
	}
}

// Start begins polling the sensor node. Starting an already running
// session replaces the schedule rather than doubling it.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poll.Start()
	s.running = true
}

// Stop halts polling. Idempotent; alerts of the session are kept.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poll.Stop()
	s.running = false
}

// SetTarget switches the sensor address. The old schedule is fully
// stopped before the new one starts, so no tick from the old target is
// processed after the switch. The address is persisted when a config
// path was given.
func (s *Session) SetTarget(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.cfg
	cfg.SensorAddr = addr
	if err := cfg.Validate(); err != nil {
		return err
	}
	wasRunning := s.running
	s.poll.Stop()
	s.cfg = cfg
	s.poll = poller.NewWith(cfg.SnapshotURL(), s.deduper.Process, cfg.PollInterval, cfg.FetchTimeout)
	if wasRunning {
		s.poll.Start()
	}
	if s.cfgPath != "" {
		if err := config.SaveMonitor(s.cfgPath, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "config save:", err)
		}
	}
	return nil
}

// TriggerTestAlert injects a synthetic extreme detection. It goes through
// the same deduplicator as polled snapshots, so it queues behind any
// in-flight tick. Each shot is placed slightly apart so repeated presses
// each produce a visible alert.
func (s *Session) TriggerTestAlert() {
	s.mu.Lock()
	shot := s.testShots
	s.testShots++
	s.mu.Unlock()
	lng := -8.1 + float64(shot)*0.001
	s.deduper.ProcessAt(severity.Extreme, 39.8, lng, time.Now())
}

// Store exposes the alert list for presentation.
func (s *Session) Store() *alerts.Store {
	return s.store
}

// Dispatcher exposes the notifier, e.g. for the startup test message.
func (s *Session) Dispatcher() *notify.Dispatcher {
	return s.dispatcher
}

func (s *Session) Status() Status {
	s.mu.Lock()
	running := s.running
	addr := s.cfg.SensorAddr
	poll := s.poll
	s.mu.Unlock()
	return Status{
		Running:      running,
		LastPollOK:   poll.LastOK(),
		ActiveAlerts: s.store.ActiveCount(),
		SensorAddr:   addr,
	}
}
