package handlers

import (
	"context"
	"fmt"
	"regexp"

	"github.com/tanpawarit/servicedesk/agent/classify"
	contractx "github.com/tanpawarit/servicedesk/agent/contract"
	storex "github.com/tanpawarit/servicedesk/agent/store"
	"github.com/tanpawarit/servicedesk/agent/tool"
)

var bareDigitsPattern = regexp.MustCompile(`^[0-9]{2,}$`)

// StatusHandler resolves a ticket id from the slots or the raw message and
// reports the ticket's current status. A missing or unknown id is answered
// conversationally, never as an error to the caller.
type StatusHandler struct {
	tools contractx.ToolGateway
}

var _ contractx.Handler = (*StatusHandler)(nil)

func NewStatusHandler(tools contractx.ToolGateway) *StatusHandler {
	return &StatusHandler{tools: tools}
}

func (h *StatusHandler) Handle(ctx context.Context, req contractx.HandleRequest) (contractx.HandleResponse, error) {
	if req.Session == nil {
		return contractx.HandleResponse{}, fmt.Errorf("%w: session is required", contractx.ErrValidation)
	}

	intent := string(contractx.IntentCheckStatus)
	id := req.Slots[contractx.SlotTicketID]
	if id == "" {
		id = classify.ExtractTicketID(req.Message)
	}
	// A follow-up to our own prompt may be just the number.
	if id == "" && req.Session.PendingFor(intent) != nil && bareDigitsPattern.MatchString(req.Message) {
		id = "TICKET-" + req.Message
	}

	if id == "" {
		req.Session.MergePending(intent, nil)
		return contractx.HandleResponse{Text: "Please share your ticket ID (e.g. TICKET-1001) and I'll look it up."}, nil
	}

	out, err := h.tools.Execute(ctx, contractx.ToolRequest{
		Tool: tool.ToolGetTicketStatus,
		Args: map[string]string{"ticket_id": id},
	})
	if err != nil {
		return contractx.HandleResponse{}, err
	}
	if out.Error != "" {
		return contractx.HandleResponse{
			Text: fmt.Sprintf("I couldn't find a ticket with ID %s. Please double-check the ID and try again.", id),
		}, nil
	}

	ticket, ok := out.Result.(storex.Ticket)
	if !ok {
		return contractx.HandleResponse{}, fmt.Errorf("%w: unexpected get_ticket_status result type %T", contractx.ErrValidation, out.Result)
	}

	req.Session.ClearPending()
	return contractx.HandleResponse{
		Text: fmt.Sprintf("Ticket %s (%s): status is %s.", ticket.ID, ticket.Device, ticket.Status),
	}, nil
}
