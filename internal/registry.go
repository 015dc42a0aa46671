package internal

import (
	"errors"
	"sync"
)

// ErrAlreadyJoined is returned when a connection id that already holds a
// presence record tries to join a second time.
var ErrAlreadyJoined = errors.New("connection already joined")

// RosterNotifier receives a fresh roster snapshot after every successful
// registry mutation. The registry knows nothing about connections or
// websockets; fanout is the notifier's problem.
type RosterNotifier interface {
	RosterChanged(Roster)
}

// Registry is the authoritative map of live connections to presence records.
// State is memory-only and lost on restart. The hub's event goroutines are
// the only mutators in production wiring, but the lock keeps snapshots safe
// to take from HTTP handlers as well.
type Registry struct {
	mu       sync.RWMutex
	records  map[string]PresenceRecord
	notifier RosterNotifier
}

func NewRegistry(notifier RosterNotifier) *Registry {
	return &Registry{
		records:  make(map[string]PresenceRecord),
		notifier: notifier,
	}
}

// Join inserts an active presence record for the connection. It fails only
// when the connection id already holds a record. Display names are not
// required to be unique; two connections may share one.
func (r *Registry) Join(connID, name string) (PresenceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[connID]; exists {
		return PresenceRecord{}, ErrAlreadyJoined
	}
	record := PresenceRecord{Name: name, Status: StatusActive}
	r.records[connID] = record
	r.notifyLocked()
	return record, nil
}

// SetStatus flips the record's status. A status change for a connection with
// no record is silently absorbed: it is the benign race with a disconnect
// that just removed the record, not an error.
func (r *Registry) SetStatus(connID string, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, exists := r.records[connID]
	if !exists {
		return
	}
	record.Status = status
	r.records[connID] = record
	r.notifyLocked()
}

// Remove deletes the record if present. Idempotent; removing a connection
// that never joined (or was already removed) does nothing and notifies
// nobody.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[connID]; !exists {
		return
	}
	delete(r.records, connID)
	r.notifyLocked()
}

// Snapshot returns a copy of the current roster. Later registry mutations
// never reach into a snapshot that has already been handed out.
func (r *Registry) Snapshot() Roster {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Size reports how many connections have joined and not yet disconnected.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *Registry) snapshotLocked() Roster {
	roster := make(Roster, len(r.records))
	for id, record := range r.records {
		roster[id] = record
	}
	return roster
}

// notifyLocked is called with the write lock held so that roster broadcasts
// leave the registry in the same order the mutations were applied.
func (r *Registry) notifyLocked() {
	if r.notifier == nil {
		return
	}
	r.notifier.RosterChanged(r.snapshotLocked())
}
