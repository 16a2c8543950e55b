package routernode

import (
	"fmt"

	contractx "github.com/tanpawarit/servicedesk/agent/contract"
)

func AppendHistory(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Session.AppendTurn(in.Text, in.Reply, string(in.Intent), in.Now)
	return in, nil
}
