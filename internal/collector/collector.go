// Package collector is the client-side half of the analytics pipeline: it
// accumulates behavioral events, enforces opt-in consent, and delivers
// batches to the collect endpoint with a debounce timer and
// prepend-on-failure retry.
package collector

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	consentKey = "analytics_consent"
	sessionKey = "analytics_session"

	defaultFlushInterval = 5 * time.Second
	defaultSiteID        = "websies"
)

type Event struct {
	Name      string         `json:"name"`
	Path      string         `json:"path"`
	Timestamp int64          `json:"timestamp"`
	Referrer  string         `json:"referrer,omitempty"`
	Props     map[string]any `json:"props,omitempty"`
}

type Batch struct {
	Events    []Event `json:"events"`
	SessionID string  `json:"sessionId"`
	SiteID    string  `json:"siteId"`
}

type Config struct {
	SiteID        string
	FlushInterval time.Duration
	// MaxBuffered bounds the retry buffer; oldest events are dropped past
	// the cap. 0 keeps the buffer unbounded.
	MaxBuffered int
	Transport   Transport
	// Consent must be durable across restarts; Session only for the session.
	Consent Store
	Session Store
	Logger  *zap.Logger
}

// Collector is one instance per session context. Construct it at session
// start and pass it to call sites; there is no package-level singleton.
type Collector struct {
	mu      sync.Mutex
	buffer  []Event
	timer   *time.Timer
	consent bool
	page    Page

	sessionID     string
	siteID        string
	flushInterval time.Duration
	maxBuffered   int
	transport     Transport
	consentStore  Store
	logger        *zap.Logger
}

// Page is what the app shell last reported about the active document.
type Page struct {
	Path     string
	Title    string
	Referrer string
}

func New(cfg Config) *Collector {
	if cfg.SiteID == "" {
		cfg.SiteID = defaultSiteID
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	if cfg.Consent == nil {
		cfg.Consent = NewMemStore()
	}
	if cfg.Session == nil {
		cfg.Session = NewMemStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	c := &Collector{
		sessionID:     getOrCreateSessionID(cfg.Session),
		siteID:        cfg.SiteID,
		flushInterval: cfg.FlushInterval,
		maxBuffered:   cfg.MaxBuffered,
		transport:     cfg.Transport,
		consentStore:  cfg.Consent,
		logger:        cfg.Logger,
	}

	stored, _ := cfg.Consent.Get(consentKey)
	c.consent = stored == "true"

	return c
}

func getOrCreateSessionID(session Store) string {
	if id, ok := session.Get(sessionKey); ok && id != "" {
		return id
	}
	id := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), randomSuffix(9))
	session.Set(sessionKey, id)
	return id
}

const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = suffixAlphabet[rand.Intn(len(suffixAlphabet))]
	}
	return string(b)
}

// SessionID is stable for the lifetime of the session store.
func (c *Collector) SessionID() string {
	return c.sessionID
}

// SetConsent flips the opt-in flag and persists it for future sessions.
// Calling it twice with the same value is a no-op the second time.
func (c *Collector) SetConsent(granted bool) {
	c.mu.Lock()
	c.consent = granted
	c.mu.Unlock()
	c.consentStore.Set(consentKey, strconv.FormatBool(granted))
}

// VisitPage tells the collector the active route. A page view fires only
// when the path actually changed, so re-renders of the same route stay
// silent.
func (c *Collector) VisitPage(path, title, referrer string) {
	c.mu.Lock()
	previous := c.page.Path
	c.page = Page{Path: path, Title: title, Referrer: referrer}
	c.mu.Unlock()

	if previous != "" && previous != path {
		c.PageView()
	}
}

// Track buffers an event and arms the flush timer. Without consent it does
// nothing at all.
func (c *Collector) Track(name string, props map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.consent {
		return
	}

	c.buffer = append(c.buffer, Event{
		Name:      name,
		Path:      c.page.Path,
		Timestamp: time.Now().UnixMilli(),
		Referrer:  c.page.Referrer,
		Props:     props,
	})

	if c.maxBuffered > 0 && len(c.buffer) > c.maxBuffered {
		dropped := len(c.buffer) - c.maxBuffered
		c.buffer = c.buffer[dropped:]
		c.logger.Warn("buffer cap reached, dropping oldest events", zap.Int("dropped", dropped))
	}

	c.scheduleFlushLocked()
}

func (c *Collector) PageView() {
	c.mu.Lock()
	title := c.page.Title
	c.mu.Unlock()

	c.Track("page_view", map[string]any{"title": title})
}

// scheduleFlushLocked arms a one-shot timer unless one is already pending,
// debouncing a burst of Track calls into a single batch.
func (c *Collector) scheduleFlushLocked() {
	if c.timer != nil {
		return
	}
	c.timer = time.AfterFunc(c.flushInterval, func() {
		if err := c.Flush(context.Background()); err != nil {
			c.logger.Warn("scheduled flush failed, events re-queued", zap.Error(err))
		}
	})
}

// Flush snapshots and clears the buffer, then delivers the batch. On
// transport failure the snapshot is prepended back ahead of anything
// tracked during the round-trip; retry happens only on the next flush
// trigger, never from here.
func (c *Collector) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return nil
	}
	snapshot := c.buffer
	c.buffer = nil
	c.mu.Unlock()

	batch := Batch{
		Events:    snapshot,
		SessionID: c.sessionID,
		SiteID:    c.siteID,
	}

	if err := c.transport.Send(ctx, batch); err != nil {
		c.mu.Lock()
		c.buffer = append(append(make([]Event, 0, len(snapshot)+len(c.buffer)), snapshot...), c.buffer...)
		c.mu.Unlock()
		return err
	}

	c.logger.Debug("batch delivered", zap.Int("events", len(snapshot)))
	return nil
}

// Close is the unload hook: one last best-effort flush.
func (c *Collector) Close(ctx context.Context) error {
	return c.Flush(ctx)
}

// Pending reports how many events are waiting for delivery.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}
