package contract

import "context"

// Classifier maps a free-text message onto one of the allowed intents.
// RemoteClassifier fails with ErrBackendUnavailable when the generative
// backend is unreachable or returns unusable output; RuleClassifier is
// total and never returns an error.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (ClassifyResult, error)
}

// Handler implements the per-intent conversational and tool-invocation logic.
type Handler interface {
	Handle(ctx context.Context, req HandleRequest) (HandleResponse, error)
}

// Registry resolves the handler registered for an intent.
type Registry interface {
	Handler(intent Intent) (Handler, bool)
}

// ToolGateway executes a named, schema-validated tool operation.
type ToolGateway interface {
	Execute(ctx context.Context, req ToolRequest) (ToolResult, error)
}
