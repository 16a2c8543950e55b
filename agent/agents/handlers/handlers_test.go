package handlers

import (
	"context"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/servicedesk/agent/contract"
	statex "github.com/tanpawarit/servicedesk/agent/state"
	storex "github.com/tanpawarit/servicedesk/agent/store"
	"github.com/tanpawarit/servicedesk/agent/tool"
)

// fakeGateway records the last request and returns a canned result per tool.
type fakeGateway struct {
	lastReq contractx.ToolRequest
	results map[string]contractx.ToolResult
	err     error
}

func (f *fakeGateway) Execute(_ context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	f.lastReq = req
	if f.err != nil {
		return contractx.ToolResult{}, f.err
	}
	out, ok := f.results[req.Tool]
	if !ok {
		return contractx.ToolResult{Tool: req.Tool, Error: "unknown tool"}, nil
	}
	return out, nil
}

func newSession(t *testing.T) *statex.SessionState {
	t.Helper()
	return statex.NewSessionState("sess-1", time.Now())
}

func TestIntakeHandlerPromptsForMissingSlots(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	h := NewIntakeHandler(gw)
	sess := newSession(t)

	resp, err := h.Handle(context.Background(), contractx.HandleRequest{
		Message: "I need a repair",
		Session: sess,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(resp.Text, "Which device") {
		t.Fatalf("expected device prompt, got %q", resp.Text)
	}
	if sess.PendingFor(string(contractx.IntentCreateTicket)) == nil {
		t.Fatal("expected pending slots stashed for create_ticket")
	}
	if gw.lastReq.Tool != "" {
		t.Fatalf("no tool call expected, got %q", gw.lastReq.Tool)
	}
}

func TestIntakeHandlerResumesWithFollowUpMessage(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{results: map[string]contractx.ToolResult{
		tool.ToolCreateTicket: {
			Tool:   tool.ToolCreateTicket,
			Result: storex.Ticket{ID: "TICKET-1001", Device: "Dell XPS 13", Issue: "won't boot", Status: storex.TicketOpen},
		},
	}}
	h := NewIntakeHandler(gw)
	sess := newSession(t)
	sess.MergePending(string(contractx.IntentCreateTicket), map[string]string{
		contractx.SlotDevice: "Dell XPS 13",
	})

	resp, err := h.Handle(context.Background(), contractx.HandleRequest{
		Message: "it won't boot past the logo",
		Session: sess,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(resp.Text, "TICKET-1001") {
		t.Fatalf("expected ticket id in reply, got %q", resp.Text)
	}
	if got := gw.lastReq.Args["issue"]; got != "it won't boot past the logo" {
		t.Fatalf("issue slot = %q", got)
	}
	if sess.Pending != nil {
		t.Fatal("pending should be cleared after ticket creation")
	}
}

func TestIntakeHandlerKeepsPendingOnToolFailure(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{results: map[string]contractx.ToolResult{
		tool.ToolCreateTicket: {Tool: tool.ToolCreateTicket, Error: "device and issue are required"},
	}}
	h := NewIntakeHandler(gw)
	sess := newSession(t)

	resp, err := h.Handle(context.Background(), contractx.HandleRequest{
		Message: "broken printer",
		Slots: map[string]string{
			contractx.SlotDevice: "HP LaserJet",
			contractx.SlotIssue:  "paper jam",
		},
		Session: sess,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(resp.Text, "couldn't create the ticket") {
		t.Fatalf("unexpected reply %q", resp.Text)
	}
	if sess.PendingFor(string(contractx.IntentCreateTicket)) == nil {
		t.Fatal("slots should be re-stashed after a tool failure")
	}
}

func TestStatusHandlerPromptsWithoutID(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	h := NewStatusHandler(gw)
	sess := newSession(t)

	resp, err := h.Handle(context.Background(), contractx.HandleRequest{
		Message: "where is my ticket",
		Session: sess,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(resp.Text, "ticket ID") {
		t.Fatalf("expected id prompt, got %q", resp.Text)
	}
	if sess.PendingFor(string(contractx.IntentCheckStatus)) == nil {
		t.Fatal("expected pending marker for check_status")
	}
}

func TestStatusHandlerAcceptsBareDigitsFollowUp(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{results: map[string]contractx.ToolResult{
		tool.ToolGetTicketStatus: {
			Tool:   tool.ToolGetTicketStatus,
			Result: storex.Ticket{ID: "TICKET-1001", Device: "laptop", Status: storex.TicketInProgress},
		},
	}}
	h := NewStatusHandler(gw)
	sess := newSession(t)
	sess.MergePending(string(contractx.IntentCheckStatus), nil)

	resp, err := h.Handle(context.Background(), contractx.HandleRequest{
		Message: "1001",
		Session: sess,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got := gw.lastReq.Args["ticket_id"]; got != "TICKET-1001" {
		t.Fatalf("ticket_id arg = %q", got)
	}
	if !strings.Contains(resp.Text, "in_progress") {
		t.Fatalf("expected status in reply, got %q", resp.Text)
	}
	if sess.Pending != nil {
		t.Fatal("pending should be cleared after a successful lookup")
	}
}

func TestStatusHandlerUnknownTicket(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{results: map[string]contractx.ToolResult{
		tool.ToolGetTicketStatus: {Tool: tool.ToolGetTicketStatus, Error: "ticket TICKET-9999 not found"},
	}}
	h := NewStatusHandler(gw)
	sess := newSession(t)

	resp, err := h.Handle(context.Background(), contractx.HandleRequest{
		Message: "status of TICKET-9999",
		Session: sess,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(resp.Text, "TICKET-9999") || !strings.Contains(resp.Text, "double-check") {
		t.Fatalf("unexpected reply %q", resp.Text)
	}
}

func TestInventoryHandlerFormatsMatches(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{results: map[string]contractx.ToolResult{
		tool.ToolInventoryLookup: {
			Tool: tool.ToolInventoryLookup,
			Result: []storex.InventoryItem{
				{SKU: "LT-100", Brand: "Dell", Model: "XPS 13", Quantity: 4, Price: 1299.99},
			},
		},
	}}
	h := NewInventoryHandler(gw)

	resp, err := h.Handle(context.Background(), contractx.HandleRequest{
		Message: "do you have the Dell XPS 13 in stock",
		Session: newSession(t),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(resp.Text, "Dell XPS 13 (LT-100): 4 in stock at $1299.99") {
		t.Fatalf("unexpected reply %q", resp.Text)
	}
}

func TestInventoryHandlerNoMatches(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{results: map[string]contractx.ToolResult{
		tool.ToolInventoryLookup: {Tool: tool.ToolInventoryLookup, Result: []storex.InventoryItem{}},
	}}
	h := NewInventoryHandler(gw)

	resp, err := h.Handle(context.Background(), contractx.HandleRequest{
		Message: "got any fax machines",
		Session: newSession(t),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(resp.Text, "nothing matching") {
		t.Fatalf("unexpected reply %q", resp.Text)
	}
}

func TestTroubleshootHandlerMatchesSymptom(t *testing.T) {
	t.Parallel()

	h := NewTroubleshootHandler()

	resp, err := h.Handle(context.Background(), contractx.HandleRequest{
		Message: "my laptop won't turn on at all",
		Session: newSession(t),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(resp.Text, "charger") {
		t.Fatalf("expected power suggestions, got %q", resp.Text)
	}
}

func TestTroubleshootHandlerGenericFallback(t *testing.T) {
	t.Parallel()

	h := NewTroubleshootHandler()

	resp, err := h.Handle(context.Background(), contractx.HandleRequest{
		Message: "something feels off",
		Session: newSession(t),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Text != genericSuggestion {
		t.Fatalf("expected generic suggestion, got %q", resp.Text)
	}
}

func TestRegistryCoversDispatchableIntents(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(&fakeGateway{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	for _, intent := range contractx.DispatchableIntents {
		if _, ok := reg.Handler(intent); !ok {
			t.Fatalf("no handler registered for %s", intent)
		}
	}
	if _, ok := reg.Handler(contractx.IntentUnknown); ok {
		t.Fatal("unknown intent must not have a handler")
	}
}
