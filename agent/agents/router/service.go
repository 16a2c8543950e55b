package router

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/servicedesk/agent/contract"
	nodex "github.com/tanpawarit/servicedesk/agent/nodes"
	statex "github.com/tanpawarit/servicedesk/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

// Reply is the outcome of one routed turn.
type Reply struct {
	Text string
	Mode statex.Mode
}

// Router owns the per-turn pipeline: load session, classify, dispatch,
// persist. Turns for the same session are serialized by a per-session lock
// that spans the whole pipeline, backend call included; different sessions
// run concurrently.
type Router struct {
	store    statex.Store
	remote   contractx.Classifier
	rules    contractx.Classifier
	handlers contractx.Registry

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	now func() time.Time
}

// New builds a Router. The remote classifier is optional; without one every
// session runs on the rule classifier from the first turn.
func New(
	store statex.Store,
	remote contractx.Classifier,
	rules contractx.Classifier,
	handlers contractx.Registry,
) (*Router, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if rules == nil {
		return nil, errors.New("rule classifier is required")
	}
	if handlers == nil {
		return nil, errors.New("handler registry is required")
	}

	r := &Router{
		store:    store,
		remote:   remote,
		rules:    rules,
		handlers: handlers,
		locks:    make(map[string]*sync.Mutex),
		now:      time.Now,
	}

	graphRunner, err := r.compileRouteGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	return r, nil
}

// Route handles one user turn. All conversational failures surface as
// natural-language text inside the reply; an error return means the request
// itself was invalid or the session could not be persisted.
func (r *Router) Route(ctx context.Context, sessionID string, text string) (Reply, error) {
	unlock := r.lockSession(sessionID)
	defer unlock()

	out, err := r.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: out.Reply, Mode: out.Mode}, nil
}

// lockSession serializes turns per session id. Lock entries are kept for
// the life of the process; the id space is bounded by the session store's
// LRU capacity so this stays small.
func (r *Router) lockSession(sessionID string) func() {
	r.locksMu.Lock()
	mu, ok := r.locks[sessionID]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[sessionID] = mu
	}
	r.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
