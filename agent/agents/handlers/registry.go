package handlers

import (
	"fmt"

	contractx "github.com/tanpawarit/servicedesk/agent/contract"
)

// registryImpl is the fixed intent→handler mapping. Adding an intent means
// adding one handler and one entry here.
type registryImpl struct {
	handlers map[contractx.Intent]contractx.Handler
}

var _ contractx.Registry = (*registryImpl)(nil)

func NewRegistry(tools contractx.ToolGateway) (contractx.Registry, error) {
	if tools == nil {
		return nil, fmt.Errorf("%w: tool gateway is required", contractx.ErrValidation)
	}
	return &registryImpl{
		handlers: map[contractx.Intent]contractx.Handler{
			contractx.IntentCreateTicket:    NewIntakeHandler(tools),
			contractx.IntentCheckStatus:     NewStatusHandler(tools),
			contractx.IntentInventoryLookup: NewInventoryHandler(tools),
			contractx.IntentTroubleshoot:    NewTroubleshootHandler(),
		},
	}, nil
}

func (r *registryImpl) Handler(intent contractx.Intent) (contractx.Handler, bool) {
	h, ok := r.handlers[intent]
	return h, ok
}
