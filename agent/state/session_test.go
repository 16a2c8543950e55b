package state

import (
	"context"
	"testing"
	"time"
)

func TestMergePendingScopedToIntent(t *testing.T) {
	t.Parallel()

	st := NewSessionState("s1", time.Now())
	st.MergePending("create_ticket", map[string]string{"device": "Dell XPS 13"})
	st.MergePending("create_ticket", map[string]string{"issue": "won't boot"})

	slots := st.PendingFor("create_ticket")
	if slots["device"] != "Dell XPS 13" || slots["issue"] != "won't boot" {
		t.Fatalf("pending slots not merged: %#v", slots)
	}
}

func TestMergePendingDiscardsOtherIntent(t *testing.T) {
	t.Parallel()

	st := NewSessionState("s1", time.Now())
	st.MergePending("create_ticket", map[string]string{"device": "printer"})
	st.MergePending("check_status", map[string]string{"ticket_id": "TICKET-1001"})

	if got := st.PendingFor("create_ticket"); got != nil {
		t.Fatalf("stale pending slots leaked across intents: %#v", got)
	}
	if got := st.PendingFor("check_status"); got["ticket_id"] != "TICKET-1001" {
		t.Fatalf("pending slots missing for new intent: %#v", got)
	}
}

func TestDowngradeIsSticky(t *testing.T) {
	t.Parallel()

	st := NewSessionState("s1", time.Now())
	if st.LastMode() != ModeRemote {
		t.Fatalf("new session mode = %q, want remote", st.LastMode())
	}
	st.Downgrade()
	if st.LastMode() != ModeLocalFallback {
		t.Fatalf("mode after downgrade = %q", st.LastMode())
	}
}

func TestValidateRejectsUnscopedPending(t *testing.T) {
	t.Parallel()

	st := NewSessionState("s1", time.Now())
	st.Pending = &PendingSlots{Slots: map[string]string{"device": "x"}}
	if err := st.Validate(); err == nil {
		t.Fatal("Validate() accepted pending slots without an intent")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewMemoryStore(8)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	ctx := context.Background()

	st := NewSessionState("s1", time.Now())
	st.AppendTurn("hi", "hello", "unknown", time.Now())
	if err := store.Save(ctx, st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// mutating the saved pointer must not affect the stored copy
	st.History[0].Response = "mutated"

	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.History[0].Response != "hello" {
		t.Fatalf("stored state shares memory with caller: %q", loaded.History[0].Response)
	}
}

func TestMemoryStoreEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	store, err := NewMemoryStore(2)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	ctx := context.Background()
	now := time.Now()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(ctx, NewSessionState(id, now)); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	if _, err := store.Load(ctx, "a"); err != ErrStateNotFound {
		t.Fatalf("Load(a) error = %v, want ErrStateNotFound", err)
	}
	if _, err := store.Load(ctx, "c"); err != nil {
		t.Fatalf("Load(c) error = %v", err)
	}
}
