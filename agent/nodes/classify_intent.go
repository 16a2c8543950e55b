package routernode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/servicedesk/agent/contract"
	statex "github.com/tanpawarit/servicedesk/agent/state"
)

// ClassifyIntent resolves the turn's intent. The remote classifier runs
// first while the session is in remote mode; a backend failure downgrades
// the session to local_fallback for good and the rule classifier takes
// over, this turn included.
func ClassifyIntent(
	ctx context.Context,
	in *GraphState,
	remote contractx.Classifier,
	rules contractx.Classifier,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	req := contractx.ClassifyRequest{
		Message:        in.Text,
		AllowedIntents: contractx.DispatchableIntents,
		Session:        in.Session,
	}

	res, err := classifyWithFallback(ctx, in.Session, remote, rules, req)
	if err != nil {
		return nil, err
	}

	// A follow-up to a slot prompt often classifies as unknown on its own
	// ("it won't boot", "1001"). Route it to the intent that asked.
	if res.Intent == contractx.IntentUnknown && in.Session.Pending != nil {
		if pending, ok := contractx.ParseIntent(in.Session.Pending.Intent); ok && pending != contractx.IntentUnknown {
			res.Intent = pending
		}
	}

	in.Intent = res.Intent
	in.Slots = res.Slots
	return in, nil
}

func classifyWithFallback(
	ctx context.Context,
	session *statex.SessionState,
	remote contractx.Classifier,
	rules contractx.Classifier,
	req contractx.ClassifyRequest,
) (contractx.ClassifyResult, error) {
	if remote != nil && session.LastMode() == statex.ModeRemote {
		res, err := remote.Classify(ctx, req)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, contractx.ErrBackendUnavailable) {
			return contractx.ClassifyResult{}, err
		}
		session.Downgrade()
	}
	return rules.Classify(ctx, req)
}
