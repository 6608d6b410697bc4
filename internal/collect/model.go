package collect

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	MaxEventNameLen = 50
	MaxPathLen      = 200
	MaxBatchEvents  = 10
)

// IncomingEvent is a single behavioral observation as the browser sends it.
// Timestamp is client-assigned milliseconds since epoch.
type IncomingEvent struct {
	Name      string         `json:"name"`
	Path      string         `json:"path"`
	Timestamp int64          `json:"timestamp"`
	Referrer  string         `json:"referrer,omitempty"`
	Props     map[string]any `json:"props,omitempty"`
}

// Batch is one flush unit from the collector. SessionID and SiteID are
// batch-level: every event in the batch belongs to them.
type Batch struct {
	Events    []IncomingEvent `json:"events"`
	SessionID string          `json:"sessionId"`
	SiteID    string          `json:"siteId"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks the batch against the wire limits. maxEvents is the
// configured batch cap; zero falls back to MaxBatchEvents. An empty event
// name passes: only the length is capped.
func (b *Batch) Validate(maxEvents int) []FieldError {
	if maxEvents <= 0 {
		maxEvents = MaxBatchEvents
	}

	var errs []FieldError

	if len(b.Events) == 0 {
		errs = append(errs, FieldError{"events", "required and must contain at least one item"})
	} else if len(b.Events) > maxEvents {
		errs = append(errs, FieldError{"events", fmt.Sprintf("max %d items", maxEvents)})
	} else {
		for i, ev := range b.Events {
			prefix := fmt.Sprintf("events[%d]", i)
			if len(ev.Name) > MaxEventNameLen {
				errs = append(errs, FieldError{prefix + ".name", fmt.Sprintf("max length %d", MaxEventNameLen)})
			}
			if len(ev.Path) > MaxPathLen {
				errs = append(errs, FieldError{prefix + ".path", fmt.Sprintf("max length %d", MaxPathLen)})
			}
			if ev.Timestamp <= 0 {
				errs = append(errs, FieldError{prefix + ".timestamp", "required epoch milliseconds"})
			}
		}
	}

	if b.SessionID == "" {
		errs = append(errs, FieldError{"sessionId", "required"})
	}
	if b.SiteID == "" {
		errs = append(errs, FieldError{"siteId", "required"})
	}

	return errs
}

// PersistedEvent is the row written to analytics_events. CreatedAt comes
// from the client timestamp, not the server receive time. The raw
// user-agent never appears here, only its truncated hash.
type PersistedEvent struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	SiteID    string          `db:"site_id" json:"site_id"`
	SessionID string          `db:"session_id" json:"session_id"`
	EventName string          `db:"event_name" json:"event_name"`
	Path      string          `db:"path" json:"path"`
	Referrer  *string         `db:"referrer" json:"referrer,omitempty"`
	Country   string          `db:"country" json:"country"`
	UAHash    string          `db:"ua_hash" json:"ua_hash"`
	Props     json.RawMessage `db:"props" json:"props"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

type SessionRecord struct {
	SessionID string    `db:"session_id" json:"session_id"`
	SiteID    string    `db:"site_id" json:"site_id"`
	Country   string    `db:"country" json:"country"`
	LastSeen  time.Time `db:"last_seen" json:"last_seen"`
}

func newPersistedEvent(b *Batch, ev IncomingEvent, country, uaHash string) *PersistedEvent {
	props := json.RawMessage(`{}`)
	if ev.Props != nil {
		if raw, err := json.Marshal(ev.Props); err == nil {
			props = raw
		}
	}

	var referrer *string
	if ev.Referrer != "" {
		r := ev.Referrer
		referrer = &r
	}

	return &PersistedEvent{
		ID:        uuid.New(),
		SiteID:    b.SiteID,
		SessionID: b.SessionID,
		EventName: ev.Name,
		Path:      ev.Path,
		Referrer:  referrer,
		Country:   country,
		UAHash:    uaHash,
		Props:     props,
		CreatedAt: time.UnixMilli(ev.Timestamp).UTC(),
	}
}
