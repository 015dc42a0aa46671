package internal

import "strings"

// Phase is the client's own lifecycle within one session. It exists so the
// ui cannot reach states like "inactive but never joined": the only paths
// are NotJoined → Active ⇄ Inactive → Disconnected, and Disconnected is
// terminal. A new session starts over at NotJoined.
type Phase int

const (
	PhaseNotJoined Phase = iota
	PhaseActive
	PhaseInactive
	PhaseDisconnected
)

func (p Phase) String() string {
	switch p {
	case PhaseNotJoined:
		return "not-joined"
	case PhaseActive:
		return "active"
	case PhaseInactive:
		return "inactive"
	case PhaseDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// PresenceMachine drives which presence events the client emits. Each
// transition method returns true when the caller must send the matching
// event to the server; a false return means nothing changed and nothing
// should be sent.
type PresenceMachine struct {
	phase Phase
	name  string
}

func NewPresenceMachine() *PresenceMachine {
	return &PresenceMachine{phase: PhaseNotJoined}
}

func (m *PresenceMachine) Phase() Phase { return m.phase }

// Name returns the display name fixed at join time, empty before joining.
func (m *PresenceMachine) Name() string { return m.name }

// Join moves NotJoined to Active when the trimmed name is non-empty. The
// name is fixed for the rest of the session.
func (m *PresenceMachine) Join(name string) bool {
	name = strings.TrimSpace(name)
	if m.phase != PhaseNotJoined || name == "" {
		return false
	}
	m.phase = PhaseActive
	m.name = name
	return true
}

// Blur marks the participant inactive when the ui loses focus.
func (m *PresenceMachine) Blur() bool {
	if m.phase != PhaseActive {
		return false
	}
	m.phase = PhaseInactive
	return true
}

// Focus is the inverse of Blur.
func (m *PresenceMachine) Focus() bool {
	if m.phase != PhaseInactive {
		return false
	}
	m.phase = PhaseActive
	return true
}

// Disconnect ends the session for either joined state. There is no way
// back; reconnecting means a fresh machine.
func (m *PresenceMachine) Disconnect() {
	if m.phase == PhaseActive || m.phase == PhaseInactive {
		m.phase = PhaseDisconnected
	}
}

// CanSend reports whether sending a chat message is permitted: any joined
// state qualifies, focused or not.
func (m *PresenceMachine) CanSend() bool {
	return m.phase == PhaseActive || m.phase == PhaseInactive
}
