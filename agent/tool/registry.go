package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/servicedesk/agent/contract"
	storex "github.com/tanpawarit/servicedesk/agent/store"
)

const (
	ToolCreateTicket    = "create_ticket"
	ToolGetTicketStatus = "get_ticket_status"
	ToolInventoryLookup = "inventory_lookup"
)

// Infos describes the registry's operations in a model-consumable form.
// The remote classifier includes them in its prompt so slot names stay
// aligned with what the executor validates.
func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolCreateTicket,
			Desc: "Create a repair ticket for a device with a described issue.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"device": {Type: schema.String, Desc: "Device model or SKU", Required: true},
				"issue":  {Type: schema.String, Desc: "Problem description", Required: true},
			}),
		},
		{
			Name: ToolGetTicketStatus,
			Desc: "Look up an existing repair ticket by its id.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"ticket_id": {Type: schema.String, Desc: "Ticket id, e.g. TICKET-1001", Required: true},
			}),
		},
		{
			Name: ToolInventoryLookup,
			Desc: "Search stock by brand, model, or SKU.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "Brand/model free text", Required: true},
			}),
		},
	}
}

// Registry exposes the stores as named, argument-validated operations.
// Handlers call tools by name only; the raw stores are never handed out.
type Registry struct {
	tickets   *storex.TicketStore
	inventory *storex.InventoryIndex
	now       func() time.Time
}

var _ contractx.ToolGateway = (*Registry)(nil)

func NewRegistry(tickets *storex.TicketStore, inventory *storex.InventoryIndex) (*Registry, error) {
	if tickets == nil {
		return nil, fmt.Errorf("%w: ticket store is required", contractx.ErrValidation)
	}
	if inventory == nil {
		return nil, fmt.Errorf("%w: inventory index is required", contractx.ErrValidation)
	}
	return &Registry{
		tickets:   tickets,
		inventory: inventory,
		now:       time.Now,
	}, nil
}

// Execute runs one tool call. Domain outcomes the user can recover from
// (missing args, unknown ticket) come back in ToolResult.Error; only store
// IO failures surface as a Go error.
func (r *Registry) Execute(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	switch req.Tool {
	case ToolCreateTicket:
		return r.executeCreateTicket(req)
	case ToolGetTicketStatus:
		return r.executeGetTicketStatus(req)
	case ToolInventoryLookup:
		return r.executeInventoryLookup(req)
	default:
		return contractx.ToolResult{
			Tool:  req.Tool,
			Error: fmt.Sprintf("tool=%s is not registered", req.Tool),
		}, nil
	}
}

func (r *Registry) executeCreateTicket(req contractx.ToolRequest) (contractx.ToolResult, error) {
	device := strings.TrimSpace(req.Args["device"])
	issue := strings.TrimSpace(req.Args["issue"])
	if device == "" {
		return contractx.ToolResult{Tool: req.Tool, Error: "device is required"}, nil
	}
	if issue == "" {
		return contractx.ToolResult{Tool: req.Tool, Error: "issue is required"}, nil
	}

	ticket, err := r.tickets.CreateTicket(device, issue, r.now())
	if err != nil {
		return contractx.ToolResult{}, err
	}
	return contractx.ToolResult{Tool: req.Tool, Result: ticket}, nil
}

func (r *Registry) executeGetTicketStatus(req contractx.ToolRequest) (contractx.ToolResult, error) {
	id := strings.TrimSpace(req.Args["ticket_id"])
	if id == "" {
		return contractx.ToolResult{Tool: req.Tool, Error: "ticket_id is required"}, nil
	}

	ticket, err := r.tickets.GetTicket(id)
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			return contractx.ToolResult{Tool: req.Tool, Error: fmt.Sprintf("ticket %s not found", id)}, nil
		}
		return contractx.ToolResult{}, err
	}
	return contractx.ToolResult{Tool: req.Tool, Result: ticket}, nil
}

func (r *Registry) executeInventoryLookup(req contractx.ToolRequest) (contractx.ToolResult, error) {
	query := strings.TrimSpace(req.Args["query"])
	if query == "" {
		return contractx.ToolResult{Tool: req.Tool, Error: "query is required"}, nil
	}
	return contractx.ToolResult{Tool: req.Tool, Result: r.inventory.Lookup(query)}, nil
}
