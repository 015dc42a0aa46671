package internal

import (
	"encoding/json"
	"time"
)

// Status is a participant's presence state as seen by everyone else.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// event names exchanged over the websocket, both directions.
const (
	EventJoin         = "join"
	EventSendMessage  = "send-message"
	EventMarkInactive = "mark-inactive"
	EventMarkActive   = "mark-active"
	EventRosterUpdate = "roster-update"
	EventMessage      = "message"
)

// Envelope is the json frame both sides exchange. Only the fields relevant
// to the event are populated; Data is kept raw so the server can relay a
// message payload byte-for-byte without re-encoding it.
type Envelope struct {
	Event  string          `json:"event"`
	Name   string          `json:"name,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Roster Roster          `json:"roster,omitempty"`
}

// PresenceRecord is the per-connection state the registry tracks. The name
// is set once at join and never changes; only the status flips.
type PresenceRecord struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// Roster maps connection id to presence record. A fresh copy is broadcast
// to every participant whenever the registry changes.
type Roster map[string]PresenceRecord

// ChatMessage is the payload clients put in a send-message frame. The server
// never constructs or inspects one of these; it exists so the client and the
// tests can speak the same dialect. Attachment is a pointer so an absent
// attachment serializes as null rather than disappearing.
type ChatMessage struct {
	Author     string    `json:"author"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sentAt"`
	Attachment *string   `json:"attachment"`
}
