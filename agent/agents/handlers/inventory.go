package handlers

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/servicedesk/agent/contract"
	storex "github.com/tanpawarit/servicedesk/agent/store"
	"github.com/tanpawarit/servicedesk/agent/tool"
)

// InventoryHandler answers stock and price questions. The whole message
// doubles as the query when the classifier extracted no dedicated slot.
type InventoryHandler struct {
	tools contractx.ToolGateway
}

var _ contractx.Handler = (*InventoryHandler)(nil)

func NewInventoryHandler(tools contractx.ToolGateway) *InventoryHandler {
	return &InventoryHandler{tools: tools}
}

func (h *InventoryHandler) Handle(ctx context.Context, req contractx.HandleRequest) (contractx.HandleResponse, error) {
	query := strings.TrimSpace(req.Slots[contractx.SlotQuery])
	if query == "" {
		query = strings.TrimSpace(req.Message)
	}
	if query == "" {
		return contractx.HandleResponse{Text: "Which product are you looking for? A brand or model name helps."}, nil
	}

	out, err := h.tools.Execute(ctx, contractx.ToolRequest{
		Tool: tool.ToolInventoryLookup,
		Args: map[string]string{"query": query},
	})
	if err != nil {
		return contractx.HandleResponse{}, err
	}
	if out.Error != "" {
		return contractx.HandleResponse{Text: "Which product are you looking for? A brand or model name helps."}, nil
	}

	items, ok := out.Result.([]storex.InventoryItem)
	if !ok {
		return contractx.HandleResponse{}, fmt.Errorf("%w: unexpected inventory_lookup result type %T", contractx.ErrValidation, out.Result)
	}

	if len(items) == 0 {
		return contractx.HandleResponse{Text: "I'm sorry, nothing matching that is in stock right now."}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d matching item(s):", len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "\n- %s %s (%s): %d in stock at $%.2f", item.Brand, item.Model, item.SKU, item.Quantity, item.Price)
	}
	return contractx.HandleResponse{Text: b.String()}, nil
}
