package internal

import (
	"errors"
	"testing"
)

// fakeNotifier records every roster broadcast in order.
type fakeNotifier struct {
	rosters []Roster
}

func (f *fakeNotifier) RosterChanged(roster Roster) {
	f.rosters = append(f.rosters, roster)
}

func (f *fakeNotifier) last(t *testing.T) Roster {
	t.Helper()
	if len(f.rosters) == 0 {
		t.Fatal("expected at least one roster broadcast")
	}
	return f.rosters[len(f.rosters)-1]
}

func TestRegistrySizeTracksJoinsAndRemovals(t *testing.T) {
	registry := NewRegistry(nil)

	if _, err := registry.Join("a", "Alice"); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if _, err := registry.Join("b", "Bob"); err != nil {
		t.Fatalf("join b: %v", err)
	}
	if registry.Size() != 2 {
		t.Fatalf("expected size 2, got %d", registry.Size())
	}

	registry.Remove("a")
	if registry.Size() != 1 {
		t.Fatalf("expected size 1 after removal, got %d", registry.Size())
	}
	registry.Remove("a") // idempotent
	registry.Remove("never-joined")
	if registry.Size() != 1 {
		t.Fatalf("stale removals must not change size, got %d", registry.Size())
	}
	registry.Remove("b")
	if registry.Size() != 0 {
		t.Fatalf("expected empty registry, got %d", registry.Size())
	}
}

func TestRegistryDuplicateJoinFails(t *testing.T) {
	registry := NewRegistry(nil)
	if _, err := registry.Join("a", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := registry.Join("a", "Mallory"); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}
	if record := registry.Snapshot()["a"]; record.Name != "Alice" {
		t.Fatalf("failed join must not touch the record, got %+v", record)
	}
}

func TestRegistrySharedDisplayNamesAllowed(t *testing.T) {
	registry := NewRegistry(nil)
	if _, err := registry.Join("a", "Alice"); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if _, err := registry.Join("b", "Alice"); err != nil {
		t.Fatalf("two connections may share a display name: %v", err)
	}
}

func TestRegistryStaleStatusChangeIsSilent(t *testing.T) {
	notifier := &fakeNotifier{}
	registry := NewRegistry(notifier)

	registry.SetStatus("ghost", StatusInactive)
	if len(notifier.rosters) != 0 {
		t.Fatalf("a stale status change must not broadcast, got %d broadcasts", len(notifier.rosters))
	}
	if registry.Size() != 0 {
		t.Fatalf("a stale status change must not mutate the registry")
	}
}

func TestRegistryStatusFlipBroadcasts(t *testing.T) {
	notifier := &fakeNotifier{}
	registry := NewRegistry(notifier)

	registry.Join("a", "Alice")
	registry.Join("b", "Bob")
	registry.SetStatus("a", StatusInactive)

	roster := notifier.last(t)
	if roster["a"].Status != StatusInactive || roster["b"].Status != StatusActive {
		t.Fatalf("unexpected roster after flip: %+v", roster)
	}

	registry.SetStatus("a", StatusActive)
	roster = notifier.last(t)
	if roster["a"].Status != StatusActive {
		t.Fatalf("expected a back to active, got %+v", roster)
	}
	if len(notifier.rosters) != 4 {
		t.Fatalf("expected one broadcast per mutation, got %d", len(notifier.rosters))
	}
}

func TestRegistrySnapshotIsolation(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Join("a", "Alice")

	snapshot := registry.Snapshot()
	registry.SetStatus("a", StatusInactive)
	registry.Join("b", "Bob")

	if snapshot["a"].Status != StatusActive {
		t.Fatalf("mutations leaked into a delivered snapshot: %+v", snapshot["a"])
	}
	if _, present := snapshot["b"]; present {
		t.Fatal("later joins must not appear in earlier snapshots")
	}
}

func TestRegistryBroadcastOrderMatchesMutations(t *testing.T) {
	notifier := &fakeNotifier{}
	registry := NewRegistry(notifier)

	registry.Join("a", "Alice")
	registry.Join("b", "Bob")
	registry.Remove("b")

	if len(notifier.rosters) != 3 {
		t.Fatalf("expected 3 broadcasts, got %d", len(notifier.rosters))
	}
	if len(notifier.rosters[0]) != 1 || len(notifier.rosters[1]) != 2 || len(notifier.rosters[2]) != 1 {
		t.Fatalf("roster sizes out of order: %d, %d, %d",
			len(notifier.rosters[0]), len(notifier.rosters[1]), len(notifier.rosters[2]))
	}
	if _, present := notifier.rosters[2]["b"]; present {
		t.Fatal("final roster should not contain the removed connection")
	}
}
