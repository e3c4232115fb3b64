// Package poller fetches the sensor node's snapshot on a fixed cadence.
// Failures of any kind are expected during normal operation (node reboot,
// wifi drop) and are skipped silently; the loop itself never dies.
package poller

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/5TUM8L3/vigia-fogo/internal/snapshot"
)

const (
	// DefaultInterval is the poll cadence.
	DefaultInterval = 1000 * time.Millisecond
	// DefaultTimeout bounds one fetch so a dead node cannot stall the loop.
	DefaultTimeout = 2000 * time.Millisecond

	maxBodyBytes = 64 << 10
)

var (
	pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vigia_monitor_polls_total",
		Help: "Snapshot fetch attempts by result",
	}, []string{"result"})
	lastPollSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vigia_monitor_last_poll_success",
		Help: "1 when the most recent poll decoded a snapshot, else 0",
	})
)

func debugf(format string, a ...any) {
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") || os.Getenv("DEBUG") != "" {
		fmt.Printf("[debug] "+format+"\n", a...)
	}
}

// Poller drives one fetch-then-process cycle per tick. The sink runs to
// completion inside the tick, so ticks never overlap; a tick that falls
// due while the previous one is still processing is dropped by the ticker.
type Poller struct {
	url      string
	sink     func(snapshot.Snapshot)
	client   *http.Client
	interval time.Duration

	lastOK atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a poller for the given snapshot URL. The sink is invoked on
// every successfully decoded snapshot, from the poll goroutine.
func New(url string, sink func(snapshot.Snapshot)) *Poller {
	return NewWith(url, sink, DefaultInterval, DefaultTimeout)
}

// NewWith exists for tests that need a faster cadence.
func NewWith(url string, sink func(snapshot.Snapshot), interval, timeout time.Duration) *Poller {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: timeout, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: timeout,
	}
	return &Poller{
		url:      url,
		sink:     sink,
		client:   &http.Client{Timeout: timeout, Transport: tr},
		interval: interval,
	}
}

// Start begins polling. A schedule that is already running is replaced,
// never doubled: the old loop is stopped and drained first.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
}

// Stop halts polling and waits for any in-flight tick to finish. It is
// idempotent and leaves no pending tick behind.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil
	// release the kept-alive socket to the node; a retargeted session
	// must not hold the old node's connection open
	p.client.CloseIdleConnections()
}

// Running reports whether a poll schedule is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// LastOK reports whether the most recent completed poll succeeded.
func (p *Poller) LastOK() bool {
	return p.lastOK.Load()
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce performs one timeout-bounded fetch. Every failure mode
// (refused, timeout, HTTP 500, malformed body) takes the same path:
// discard and wait for the next tick. No retry, no backoff, no state.
func (p *Poller) pollOnce(ctx context.Context) {
	s, err := p.fetch(ctx)
	if err != nil {
		debugf("poll: %v", err)
		pollsTotal.WithLabelValues("error").Inc()
		p.lastOK.Store(false)
		lastPollSuccess.Set(0)
		return
	}
	pollsTotal.WithLabelValues("ok").Inc()
	p.lastOK.Store(true)
	lastPollSuccess.Set(1)
	p.sink(s)
}

func (p *Poller) fetch(ctx context.Context) (snapshot.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, p.client.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", p.url, nil)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return snapshot.Snapshot{}, fmt.Errorf("http %d GET %s", resp.StatusCode, p.url)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	return snapshot.Decode(body, time.Now())
}
