package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entities that can be parked in the buffer.
const (
	EntityEvent = "event"
	EntityVisit = "visit"
)

// Priorities sort ascending, so scored events drain before anonymous visits.
const (
	PriorityEvent = 2
	PriorityVisit = 4
)

// Item is a write that could not reach Postgres and waits for replay.
type Item struct {
	ID          string          `json:"id"`
	WorkspaceID string          `json:"workspace_id"`
	Entity      string          `json:"entity"`
	Data        json.RawMessage `json:"data"`
	Priority    int             `json:"priority"`
	Retries     int             `json:"retries"`
	LastError   string          `json:"last_error,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`

	bucketKey []byte
}

// Stats summarises both buckets for the readiness endpoint.
type Stats struct {
	Pending int `json:"pending"`
	Dead    int `json:"dead"`
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > 5 {
		i.Priority = 3
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now().UTC()
	}
}
