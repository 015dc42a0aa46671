package internal

import (
	"encoding/json"
	"log"
)

// the hub fans events out to every connected session. It is the single
// control loop of the server: registrations, removals, and broadcasts are
// applied strictly in the order they arrive on its channels, so every
// client observes the same event order.
type Hub struct {
	sessions   map[*session]bool
	register   chan *session
	unregister chan *session
	broadcast  chan []byte
}

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[*session]bool),
		register:   make(chan *session),
		unregister: make(chan *session),
		broadcast:  make(chan []byte, 256),
	}
}

// Run processes hub events until the process exits. Call it in its own
// goroutine before accepting connections.
func (hub *Hub) Run() {
	for {
		select {
		case sess := <-hub.register:
			hub.sessions[sess] = true
		case sess := <-hub.unregister:
			if _, exists := hub.sessions[sess]; exists {
				delete(hub.sessions, sess)
				close(sess.send)
			}
		case frame := <-hub.broadcast:
			// Fan out to every connected session. If a session's send buffer
			// is full we drop that connection rather than stall the loop;
			// delivery is best-effort and a disconnected client never gets
			// the missed frame replayed.
			for sess := range hub.sessions {
				select {
				case sess.send <- frame:
				default:
					close(sess.send)
					delete(hub.sessions, sess)
				}
			}
		}
	}
}

// RosterChanged satisfies RosterNotifier: every registry mutation lands here
// as a fresh snapshot which is pushed to all sessions.
func (hub *Hub) RosterChanged(roster Roster) {
	frame, err := json.Marshal(Envelope{Event: EventRosterUpdate, Roster: roster})
	if err != nil {
		log.Printf("encode roster update: %v", err)
		return
	}
	hub.broadcast <- frame
}

// Relay forwards a chat payload to every session, including the sender's.
// The payload bytes are embedded untouched; the hub never validates that
// the sender holds a registry record.
func (hub *Hub) Relay(payload json.RawMessage) {
	frame, err := json.Marshal(Envelope{Event: EventMessage, Data: payload})
	if err != nil {
		log.Printf("encode message relay: %v", err)
		return
	}
	hub.broadcast <- frame
}
