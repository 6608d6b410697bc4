package rollup

import "time"

// Rollup is one hourly aggregate per site and event name.
type Rollup struct {
	ID             int       `db:"id" json:"id"`
	Date           time.Time `db:"date" json:"date"`
	Hour           int       `db:"hour" json:"hour"`
	SiteID         string    `db:"site_id" json:"site_id"`
	EventName      string    `db:"event_name" json:"event_name"`
	TotalEvents    int64     `db:"total_events" json:"total_events"`
	UniqueSessions int64     `db:"unique_sessions" json:"unique_sessions"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

func NewRollup(date time.Time, hour int, siteID, eventName string) *Rollup {
	return &Rollup{
		Date:      date.Truncate(24 * time.Hour),
		Hour:      hour,
		SiteID:    siteID,
		EventName: eventName,
		UpdatedAt: time.Now().UTC(),
	}
}

// EventMessage is the shape the collect service publishes to Kafka
// (a subset of the persisted event row).
type EventMessage struct {
	SiteID    string    `json:"site_id"`
	SessionID string    `json:"session_id"`
	EventName string    `json:"event_name"`
	Path      string    `json:"path"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}
