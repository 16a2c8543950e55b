package router

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/tanpawarit/servicedesk/agent/agents/handlers"
	"github.com/tanpawarit/servicedesk/agent/classify"
	contractx "github.com/tanpawarit/servicedesk/agent/contract"
	statex "github.com/tanpawarit/servicedesk/agent/state"
	storex "github.com/tanpawarit/servicedesk/agent/store"
	"github.com/tanpawarit/servicedesk/agent/tool"
)

type fakeRemote struct {
	mu    sync.Mutex
	res   contractx.ClassifyResult
	err   error
	calls int
}

func (f *fakeRemote) Classify(_ context.Context, _ contractx.ClassifyRequest) (contractx.ClassifyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return contractx.ClassifyResult{}, f.err
	}
	return f.res, nil
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func writeInventoryFile(t *testing.T, dir string, items []storex.InventoryItem) string {
	t.Helper()
	path := filepath.Join(dir, "inventory.json")
	raw, err := json.Marshal(items)
	if err != nil {
		t.Fatalf("marshal inventory: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write inventory: %v", err)
	}
	return path
}

// newTestRouter wires a router over real stores in a temp dir and the real
// rule classifier, with an optional fake remote classifier on top.
func newTestRouter(t *testing.T, remote contractx.Classifier) (*Router, *storex.TicketStore) {
	t.Helper()

	dir := t.TempDir()
	tickets, err := storex.OpenTicketStore(filepath.Join(dir, "tickets.json"))
	if err != nil {
		t.Fatalf("OpenTicketStore: %v", err)
	}
	inventory, err := storex.OpenInventoryIndex(writeInventoryFile(t, dir, []storex.InventoryItem{
		{SKU: "LT-100", Brand: "Dell", Model: "XPS 13", Quantity: 4, Price: 1299.99},
		{SKU: "PR-200", Brand: "HP", Model: "LaserJet 2000", Quantity: 2, Price: 349.00},
	}))
	if err != nil {
		t.Fatalf("OpenInventoryIndex: %v", err)
	}

	gateway, err := tool.NewRegistry(tickets, inventory)
	if err != nil {
		t.Fatalf("tool.NewRegistry: %v", err)
	}
	registry, err := handlers.NewRegistry(gateway)
	if err != nil {
		t.Fatalf("handlers.NewRegistry: %v", err)
	}
	sessions, err := statex.NewMemoryStore(0)
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}

	r, err := New(sessions, remote, classify.NewRuleClassifier(), registry)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, tickets
}

func TestRouteRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, nil)
	ctx := context.Background()

	if _, err := r.Route(ctx, "", "hello"); err != ErrInvalidSession {
		t.Fatalf("err = %v, want ErrInvalidSession", err)
	}
	if _, err := r.Route(ctx, "sess-1", "   "); err != ErrInvalidMessage {
		t.Fatalf("err = %v, want ErrInvalidMessage", err)
	}
}

func TestRouteIntakeThenStatus(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, nil)
	ctx := context.Background()

	reply, err := r.Route(ctx, "sess-1", "I need a repair")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if !strings.Contains(reply.Text, "Which device") {
		t.Fatalf("turn 1 = %q", reply.Text)
	}

	reply, err = r.Route(ctx, "sess-1", "Dell XPS 13")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if !strings.Contains(reply.Text, "describe the problem") {
		t.Fatalf("turn 2 = %q", reply.Text)
	}

	reply, err = r.Route(ctx, "sess-1", "it will not boot past the logo")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if !strings.Contains(reply.Text, "TICKET-1001") {
		t.Fatalf("turn 3 = %q", reply.Text)
	}

	reply, err = r.Route(ctx, "sess-1", "what's the status of ticket 1001")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if !strings.Contains(reply.Text, "TICKET-1001") || !strings.Contains(reply.Text, "open") {
		t.Fatalf("status turn = %q", reply.Text)
	}
}

func TestRouteInventoryLookupReportsQuantity(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, nil)

	reply, err := r.Route(context.Background(), "sess-1", "do you have the Dell XPS 13 in stock")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if !strings.Contains(reply.Text, "4 in stock at $1299.99") {
		t.Fatalf("reply = %q", reply.Text)
	}
}

func TestRouteUnknownIntentClarifiesWithoutTools(t *testing.T) {
	t.Parallel()

	r, tickets := newTestRouter(t, nil)

	reply, err := r.Route(context.Background(), "sess-1", "asdkjf qwoeiru")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if !strings.Contains(reply.Text, "repair ticket") {
		t.Fatalf("reply = %q", reply.Text)
	}
	if tickets.Len() != 0 {
		t.Fatalf("no ticket should be created, have %d", tickets.Len())
	}
}

func TestRouteStickyFallbackAfterBackendFailure(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{err: fmt.Errorf("%w: connection refused", contractx.ErrBackendUnavailable)}
	r, _ := newTestRouter(t, remote)
	ctx := context.Background()

	reply, err := r.Route(ctx, "sess-1", "do you have any HP printers in stock")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if reply.Mode != statex.ModeLocalFallback {
		t.Fatalf("mode = %s, want local_fallback", reply.Mode)
	}
	if !strings.Contains(reply.Text, "LaserJet") {
		t.Fatalf("rule fallback should still answer, got %q", reply.Text)
	}

	before := remote.callCount()
	reply, err = r.Route(ctx, "sess-1", "status of TICKET-1001")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if remote.callCount() != before {
		t.Fatal("remote must not be retried once the session is downgraded")
	}
	if reply.Mode != statex.ModeLocalFallback {
		t.Fatalf("mode = %s after downgrade", reply.Mode)
	}
}

func TestRouteRemoteClassifierDrivesDispatch(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{res: contractx.ClassifyResult{
		Intent: contractx.IntentInventoryLookup,
		Slots:  map[string]string{contractx.SlotQuery: "dell xps"},
	}}
	r, _ := newTestRouter(t, remote)

	reply, err := r.Route(context.Background(), "sess-1", "got any of those thin dell laptops left?")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if reply.Mode != statex.ModeRemote {
		t.Fatalf("mode = %s, want remote", reply.Mode)
	}
	if !strings.Contains(reply.Text, "XPS 13") {
		t.Fatalf("reply = %q", reply.Text)
	}
}

func TestRouteSessionsAreIndependent(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{err: fmt.Errorf("%w: 503", contractx.ErrBackendUnavailable)}
	r, _ := newTestRouter(t, remote)
	ctx := context.Background()

	reply, err := r.Route(ctx, "sess-a", "price of the dell xps")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if reply.Mode != statex.ModeLocalFallback {
		t.Fatalf("sess-a mode = %s", reply.Mode)
	}

	// A fresh session still tries the remote classifier.
	remote.mu.Lock()
	remote.err = nil
	remote.res = contractx.ClassifyResult{Intent: contractx.IntentTroubleshoot}
	remote.mu.Unlock()

	reply, err = r.Route(ctx, "sess-b", "my laptop won't turn on")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if reply.Mode != statex.ModeRemote {
		t.Fatalf("sess-b mode = %s, want remote", reply.Mode)
	}
}

func TestRouteSerializesSameSession(t *testing.T) {
	t.Parallel()

	r, tickets := newTestRouter(t, nil)
	ctx := context.Background()

	const turns = 8
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := fmt.Sprintf("create a ticket for my printer, it is broken in way %d", i)
			if _, err := r.Route(ctx, "sess-1", msg); err != nil {
				t.Errorf("Route: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// Each turn carries device+issue, so every turn commits exactly one ticket.
	if tickets.Len() != turns {
		t.Fatalf("tickets = %d, want %d", tickets.Len(), turns)
	}
}
