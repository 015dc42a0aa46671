package internal

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 8192
)

// a session wraps one live websocket connection on the server side. Its
// connection id is assigned at upgrade time and never reused while the
// session is alive.
type session struct {
	connID   string
	conn     *websocket.Conn
	send     chan []byte
	hub      *Hub
	registry *Registry
	metrics  *Metrics
}

func newSession(connID string, conn *websocket.Conn, hub *Hub, registry *Registry, metrics *Metrics) *session {
	return &session{
		connID:   connID,
		conn:     conn,
		send:     make(chan []byte, 256),
		hub:      hub,
		registry: registry,
		metrics:  metrics,
	}
}

func (sess *session) readPump() {
	defer func() {
		sess.hub.unregister <- sess
		sess.registry.Remove(sess.connID)
		sess.conn.Close()
		sess.metrics.DecConn()
	}()
	sess.conn.SetReadLimit(maxMsgSize)
	_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, payload, err := sess.conn.ReadMessage()
		if err != nil {
			// normal close or read error; the deferred cleanup removes the
			// presence record and broadcasts the shrunken roster.
			break
		}
		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			continue
		}
		sess.handleEvent(env)
	}
}

func (sess *session) handleEvent(env Envelope) {
	switch env.Event {
	case EventJoin:
		if _, err := sess.registry.Join(sess.connID, env.Name); err != nil {
			// duplicate join from the same connection; the first one stands.
			return
		}
		sess.metrics.IncJoin()
	case EventSendMessage:
		// relayed verbatim to everyone, sender included. No check that the
		// sender ever joined: a message racing its own disconnect is still
		// delivered to the remaining participants.
		sess.hub.Relay(env.Data)
		sess.metrics.IncMessage()
	case EventMarkInactive:
		sess.registry.SetStatus(sess.connID, StatusInactive)
	case EventMarkActive:
		sess.registry.SetStatus(sess.connID, StatusActive)
	}
}

func (sess *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sess.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-sess.send:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sess.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sess.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
