// Package events fans job changes out to Server-Sent Events subscribers.
package events

import (
	"encoding/json"
	"time"
)

// Job change event types.
const (
	TypePing       = "ping"
	TypeJobCreated = "job.created"
	TypeJobUpdated = "job.updated"
	TypeJobDeleted = "job.deleted"

	TypeNotificationTapped = "notification.tapped"
)

// Event is the envelope every message on the feed is wrapped in.
type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MakeEvent encodes an envelope. data is marshalled as-is; nil omits it.
func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
