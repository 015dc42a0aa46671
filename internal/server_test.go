package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"huddle/internal/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "huddle.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	server := NewServer(store, t.TempDir(), 10*1024*1024)
	go server.Hub().Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/join", server.ServeWS)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, server
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/join"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, env Envelope) {
	t.Helper()
	payload, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write envelope: %v", err)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read envelope: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func readRoster(t *testing.T, conn *websocket.Conn) Roster {
	t.Helper()
	env := readEnvelope(t, conn)
	if env.Event != EventRosterUpdate {
		t.Fatalf("expected roster-update, got %q", env.Event)
	}
	return env.Roster
}

func rosterNames(roster Roster) map[string]Status {
	names := make(map[string]Status, len(roster))
	for _, record := range roster {
		names[record.Name] = record.Status
	}
	return names
}

func TestJoinBroadcastsGrowingRoster(t *testing.T) {
	ts, _ := newTestServer(t)

	alice := dialWS(t, ts)
	sendEnvelope(t, alice, Envelope{Event: EventJoin, Name: "Alice"})
	roster := readRoster(t, alice)
	if len(roster) != 1 || rosterNames(roster)["Alice"] != StatusActive {
		t.Fatalf("expected {Alice: active}, got %+v", roster)
	}

	bob := dialWS(t, ts)
	sendEnvelope(t, bob, Envelope{Event: EventJoin, Name: "Bob"})

	// both participants see the two-strong roster, in join order.
	for _, conn := range []*websocket.Conn{alice, bob} {
		roster = readRoster(t, conn)
		names := rosterNames(roster)
		if len(roster) != 2 || names["Alice"] != StatusActive || names["Bob"] != StatusActive {
			t.Fatalf("expected {Alice: active, Bob: active}, got %+v", roster)
		}
	}
}

func TestMessageRelayedVerbatimToEveryoneIncludingSender(t *testing.T) {
	ts, _ := newTestServer(t)

	alice := dialWS(t, ts)
	sendEnvelope(t, alice, Envelope{Event: EventJoin, Name: "Alice"})
	readRoster(t, alice)

	bob := dialWS(t, ts)
	sendEnvelope(t, bob, Envelope{Event: EventJoin, Name: "Bob"})
	readRoster(t, alice)
	readRoster(t, bob)

	payload := json.RawMessage(`{"author":"Alice","body":"hi","sentAt":"2026-03-14T12:00:00Z","attachment":null}`)
	sendEnvelope(t, alice, Envelope{Event: EventSendMessage, Data: payload})

	for _, conn := range []*websocket.Conn{alice, bob} {
		env := readEnvelope(t, conn)
		if env.Event != EventMessage {
			t.Fatalf("expected message event, got %q", env.Event)
		}
		if !bytes.Equal(env.Data, payload) {
			t.Fatalf("payload modified in transit:\nwant %s\ngot  %s", payload, env.Data)
		}
		var chat ChatMessage
		if err := json.Unmarshal(env.Data, &chat); err != nil {
			t.Fatalf("decode relayed payload: %v", err)
		}
		if chat.Author != "Alice" || chat.Body != "hi" || chat.Attachment != nil {
			t.Fatalf("unexpected relayed message: %+v", chat)
		}
	}
}

func TestStatusFlipBroadcastsRoster(t *testing.T) {
	ts, _ := newTestServer(t)

	alice := dialWS(t, ts)
	sendEnvelope(t, alice, Envelope{Event: EventJoin, Name: "Alice"})
	readRoster(t, alice)

	bob := dialWS(t, ts)
	sendEnvelope(t, bob, Envelope{Event: EventJoin, Name: "Bob"})
	readRoster(t, alice)
	readRoster(t, bob)

	// Alice's ui loses focus.
	sendEnvelope(t, alice, Envelope{Event: EventMarkInactive})
	for _, conn := range []*websocket.Conn{alice, bob} {
		names := rosterNames(readRoster(t, conn))
		if names["Alice"] != StatusInactive || names["Bob"] != StatusActive {
			t.Fatalf("expected {Alice: inactive, Bob: active}, got %+v", names)
		}
	}

	// and regains it.
	sendEnvelope(t, alice, Envelope{Event: EventMarkActive})
	for _, conn := range []*websocket.Conn{alice, bob} {
		names := rosterNames(readRoster(t, conn))
		if names["Alice"] != StatusActive {
			t.Fatalf("expected Alice active again, got %+v", names)
		}
	}
}

func TestDisconnectShrinksRoster(t *testing.T) {
	ts, server := newTestServer(t)

	alice := dialWS(t, ts)
	sendEnvelope(t, alice, Envelope{Event: EventJoin, Name: "Alice"})
	readRoster(t, alice)

	bob := dialWS(t, ts)
	sendEnvelope(t, bob, Envelope{Event: EventJoin, Name: "Bob"})
	readRoster(t, alice)
	readRoster(t, bob)

	_ = bob.Close()

	names := rosterNames(readRoster(t, alice))
	if len(names) != 1 || names["Alice"] != StatusActive {
		t.Fatalf("expected {Alice: active} after Bob left, got %+v", names)
	}

	deadline := time.Now().Add(3 * time.Second)
	for server.Registry().Size() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if size := server.Registry().Size(); size != 1 {
		t.Fatalf("registry should track the remaining connection, got size %d", size)
	}
}

func TestMessageRelayDoesNotRequireJoin(t *testing.T) {
	ts, _ := newTestServer(t)

	alice := dialWS(t, ts)
	sendEnvelope(t, alice, Envelope{Event: EventJoin, Name: "Alice"})
	readRoster(t, alice)

	// ghost never joins, yet its message still reaches the room. The server
	// deliberately skips any sender-membership check.
	ghost := dialWS(t, ts)
	payload := json.RawMessage(`{"author":"Ghost","body":"boo","sentAt":"2026-03-14T12:00:00Z","attachment":null}`)
	sendEnvelope(t, ghost, Envelope{Event: EventSendMessage, Data: payload})

	env := readEnvelope(t, alice)
	if env.Event != EventMessage {
		t.Fatalf("expected message event, got %q", env.Event)
	}
	if !bytes.Equal(env.Data, payload) {
		t.Fatalf("ghost payload modified in transit: %s", env.Data)
	}
}

func TestStaleStatusChangeAfterDisconnectIsSilent(t *testing.T) {
	ts, server := newTestServer(t)

	alice := dialWS(t, ts)
	sendEnvelope(t, alice, Envelope{Event: EventJoin, Name: "Alice"})
	readRoster(t, alice)

	bob := dialWS(t, ts)
	sendEnvelope(t, bob, Envelope{Event: EventJoin, Name: "Bob"})
	readRoster(t, alice)
	readRoster(t, bob)

	_ = bob.Close()
	readRoster(t, alice)

	deadline := time.Now().Add(3 * time.Second)
	for server.Registry().Size() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	// a status change for the removed connection must not broadcast; the
	// next frame Alice sees is a relayed message, not a roster update.
	server.Registry().SetStatus("no-such-connection", StatusInactive)

	payload := json.RawMessage(`{"author":"Alice","body":"still here","sentAt":"2026-03-14T12:00:00Z","attachment":null}`)
	sendEnvelope(t, alice, Envelope{Event: EventSendMessage, Data: payload})
	env := readEnvelope(t, alice)
	if env.Event != EventMessage {
		t.Fatalf("stale status change leaked a broadcast: got %q frame", env.Event)
	}
}
