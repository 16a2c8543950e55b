package routernode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/servicedesk/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Session == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: handler returned empty reply", contractx.ErrValidation)
	}
	return GraphOutput{Reply: reply, Mode: in.Session.LastMode()}, nil
}
