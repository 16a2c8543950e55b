package contract

import (
	"strings"
	"time"

	statex "github.com/tanpawarit/servicedesk/agent/state"
)

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentCreateTicket    Intent = "create_ticket"
	IntentCheckStatus     Intent = "check_status"
	IntentInventoryLookup Intent = "inventory_lookup"
	IntentTroubleshoot    Intent = "troubleshoot"
	IntentUnknown         Intent = "unknown"
)

// DispatchableIntents are the intents a handler is registered for.
// IntentUnknown is terminal for a turn and never dispatched.
var DispatchableIntents = []Intent{
	IntentCreateTicket,
	IntentCheckStatus,
	IntentInventoryLookup,
	IntentTroubleshoot,
}

func ParseIntent(raw string) (Intent, bool) {
	switch Intent(strings.ToLower(strings.TrimSpace(raw))) {
	case IntentCreateTicket:
		return IntentCreateTicket, true
	case IntentCheckStatus:
		return IntentCheckStatus, true
	case IntentInventoryLookup:
		return IntentInventoryLookup, true
	case IntentTroubleshoot:
		return IntentTroubleshoot, true
	case IntentUnknown:
		return IntentUnknown, true
	default:
		return IntentUnknown, false
	}
}

// Well-known slot names extracted by classifiers and consumed by handlers.
const (
	SlotDevice   = "device"
	SlotIssue    = "issue"
	SlotTicketID = "ticket_id"
	SlotQuery    = "query"
)

type ClassifyRequest struct {
	Message        string               `json:"message"`
	AllowedIntents []Intent             `json:"allowed_intents"`
	Session        *statex.SessionState `json:"session,omitempty"`
}

type ClassifyResult struct {
	Intent Intent            `json:"intent"`
	Slots  map[string]string `json:"slots,omitempty"`
}

type HandleRequest struct {
	Message string               `json:"message"`
	Slots   map[string]string    `json:"slots,omitempty"`
	Session *statex.SessionState `json:"session"`
	Now     time.Time            `json:"now"`
}

type HandleResponse struct {
	Text string `json:"text"`
}

type ToolRequest struct {
	Tool string            `json:"tool"`
	Args map[string]string `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
