// Package notify turns newly admitted alerts into ntfy requests. Delivery
// is fire-and-forget: a failed post is written to stderr and dropped.
package notify

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/5TUM8L3/vigia-fogo/internal/alerts"
	"github.com/5TUM8L3/vigia-fogo/internal/severity"
)

// Profile is the notification shape for one severity.
type Profile struct {
	Title    string
	Tags     string
	Priority int // ntfy: 5 = max/urgent, 3 = default, 1 = min
}

// ProfileFor covers every severity; anything it does not recognise gets
// the low profile rather than crashing the dispatch path.
func ProfileFor(l severity.Level) Profile {
	switch l {
	case severity.Extreme:
		return Profile{Title: "Fogo EXTREMO detetado", Tags: "fire,rotating_light,sos", Priority: 5}
	case severity.High:
		return Profile{Title: "Fogo de severidade ALTA", Tags: "fire,rotating_light", Priority: 4}
	case severity.Moderate:
		return Profile{Title: "Fogo de severidade MODERADA", Tags: "fire", Priority: 3}
	case severity.Low:
		return Profile{Title: "Possível foco de incêndio", Tags: "fire", Priority: 2}
	default:
		return Profile{Title: "Possível foco de incêndio", Tags: "fire", Priority: 2}
	}
}

// remove diacritics; header values must stay Latin-1 safe
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	res, _, _ := transform.String(t, s)
	return res
}

func mapsURL(lat, lng float64) string {
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%f,%f", lat, lng)
}

// Dispatcher posts one ntfy notification per new alert, header mode, the
// same way the incident monitor does.
type Dispatcher struct {
	Client *http.Client
	URL    string // e.g. https://ntfy.sh
	Topic  string
	DryRun bool // log instead of posting
}

func NewDispatcher(url, topic string) *Dispatcher {
	return &Dispatcher{
		Client: &http.Client{Timeout: 10 * time.Second},
		URL:    url,
		Topic:  topic,
	}
}

// Notify implements alerts.Notifier.
func (d *Dispatcher) Notify(a alerts.Alert) {
	p := ProfileFor(a.Severity)
	body := fmt.Sprintf("Severidade: %s\nLocal: %.6f, %.6f\nPrimeira observação: %s\nMapa: %s",
		a.Severity, a.Lat, a.Lng,
		a.FirstObservedAt.Format("02-01 15:04"),
		mapsURL(a.Lat, a.Lng))
	d.post(p.Title, body, p.Tags, p.Priority, mapsURL(a.Lat, a.Lng))
}

// Startup sends the optional low-priority "monitor started" note.
func (d *Dispatcher) Startup() {
	d.post("Monitor de fogo iniciado", time.Now().Format(time.RFC3339), "white_check_mark", 3, "")
}

func (d *Dispatcher) post(title, body, tags string, priority int, clickURL string) {
	if strings.TrimSpace(d.Topic) == "" {
		return
	}
	if d.DryRun {
		fmt.Printf("[dry-run ntfy] %s\n%s\n", title, body)
		return
	}
	endpoint := strings.TrimRight(d.URL, "/") + "/" + d.Topic
	req, err := http.NewRequest("POST", endpoint, strings.NewReader(body))
	if err != nil {
		fmt.Fprintln(os.Stderr, "ntfy erro:", err)
		return
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", stripAccents(title))
	req.Header.Set("Tags", tags)
	req.Header.Set("Priority", strconv.Itoa(priority))
	if clickURL != "" {
		req.Header.Set("Click", clickURL)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ntfy erro:", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "ntfy HTTP %d\n", resp.StatusCode)
	}
}
