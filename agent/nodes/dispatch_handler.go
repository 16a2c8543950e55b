package routernode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/servicedesk/agent/contract"
)

const clarificationReply = "I can help you create a repair ticket, check ticket status, " +
	"look up product availability, or troubleshoot a device. What would you like to do?"

// DispatchHandler runs the handler registered for the classified intent.
// An unknown intent never dispatches; the user gets a clarification reply
// and the turn still lands in history.
func DispatchHandler(
	ctx context.Context,
	in *GraphState,
	handlers contractx.Registry,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	if in.Intent == contractx.IntentUnknown {
		in.Reply = clarificationReply
		return in, nil
	}

	handler, ok := handlers.Handler(in.Intent)
	if !ok {
		return nil, fmt.Errorf("%w: no handler registered for intent %q", contractx.ErrValidation, in.Intent)
	}

	resp, err := handler.Handle(ctx, contractx.HandleRequest{
		Message: in.Text,
		Slots:   in.Slots,
		Session: in.Session,
		Now:     in.Now,
	})
	if err != nil {
		return nil, err
	}

	in.Reply = resp.Text
	return in, nil
}
