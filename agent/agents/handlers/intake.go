package handlers

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/servicedesk/agent/contract"
	storex "github.com/tanpawarit/servicedesk/agent/store"
	"github.com/tanpawarit/servicedesk/agent/tool"
)

// intakeSlotOrder is the order slots are prompted for when missing.
var intakeSlotOrder = []string{contractx.SlotDevice, contractx.SlotIssue}

var intakePrompts = map[string]string{
	contractx.SlotDevice: "Which device is this about? A model or SKU works best (e.g. Dell XPS 13).",
	contractx.SlotIssue:  "Could you describe the problem you're seeing?",
}

// IntakeHandler runs the multi-turn repair intake flow. It gathers the
// device and issue slots across turns, stashing partials on the session,
// and creates the ticket once both are present.
type IntakeHandler struct {
	tools contractx.ToolGateway
}

var _ contractx.Handler = (*IntakeHandler)(nil)

func NewIntakeHandler(tools contractx.ToolGateway) *IntakeHandler {
	return &IntakeHandler{tools: tools}
}

func (h *IntakeHandler) Handle(ctx context.Context, req contractx.HandleRequest) (contractx.HandleResponse, error) {
	if req.Session == nil {
		return contractx.HandleResponse{}, fmt.Errorf("%w: session is required", contractx.ErrValidation)
	}

	intent := string(contractx.IntentCreateTicket)
	resumed := req.Session.PendingFor(intent) != nil
	slots := mergeSlots(req.Session.PendingFor(intent), req.Slots)

	// When we prompted for a slot last turn, the whole follow-up message is
	// the answer to the first slot still missing.
	if resumed {
		if missing := firstMissing(slots, intakeSlotOrder); missing != "" && req.Message != "" {
			if slots == nil {
				slots = map[string]string{}
			}
			slots[missing] = req.Message
		}
	}

	if missing := firstMissing(slots, intakeSlotOrder); missing != "" {
		req.Session.MergePending(intent, slots)
		return contractx.HandleResponse{Text: intakePrompts[missing]}, nil
	}

	out, err := h.tools.Execute(ctx, contractx.ToolRequest{
		Tool: tool.ToolCreateTicket,
		Args: map[string]string{
			"device": slots[contractx.SlotDevice],
			"issue":  slots[contractx.SlotIssue],
		},
	})
	if err != nil {
		return contractx.HandleResponse{}, err
	}
	if out.Error != "" {
		req.Session.MergePending(intent, slots)
		return contractx.HandleResponse{Text: "I couldn't create the ticket yet: " + out.Error}, nil
	}

	ticket, ok := out.Result.(storex.Ticket)
	if !ok {
		return contractx.HandleResponse{}, fmt.Errorf("%w: unexpected create_ticket result type %T", contractx.ErrValidation, out.Result)
	}

	req.Session.ClearPending()
	return contractx.HandleResponse{
		Text: fmt.Sprintf("Thanks — I've created repair ticket %s for your %s. We'll notify you with updates.", ticket.ID, ticket.Device),
	}, nil
}

func mergeSlots(base, overlay map[string]string) map[string]string {
	if base == nil && overlay == nil {
		return nil
	}
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func firstMissing(slots map[string]string, order []string) string {
	for _, name := range order {
		if slots[name] == "" {
			return name
		}
	}
	return ""
}
