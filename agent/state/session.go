package state

import (
	"errors"
	"time"
)

// Mode reports which classification path the conversation is on. The switch
// from ModeRemote to ModeLocalFallback is sticky for the rest of the session.
type Mode string

const (
	ModeRemote        Mode = "remote"
	ModeLocalFallback Mode = "local_fallback"
)

// Turn is one (message, response) exchange. History is append-only.
type Turn struct {
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Intent    string    `json:"intent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingSlots holds partially filled slot values for a single intent while
// the handler waits for more information. Scoping by intent prevents stale
// values from leaking into an unrelated flow.
type PendingSlots struct {
	Intent string            `json:"intent"`
	Slots  map[string]string `json:"slots,omitempty"`
}

// SessionState is the per-conversation mutable context. The router owns its
// lifecycle: created on the first message for a session id, mutated after
// every turn, evicted only by the store's capacity policy.
type SessionState struct {
	SessionID string        `json:"session_id"`
	Mode      Mode          `json:"mode"`
	History   []Turn        `json:"history,omitempty"`
	Pending   *PendingSlots `json:"pending,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

var (
	ErrNilSessionState = errors.New("session state is nil")
	ErrInvalidSession  = errors.New("session id is empty")
	ErrInvalidMode     = errors.New("session mode is invalid")
)

func NewSessionState(sessionID string, now time.Time) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		Mode:      ModeRemote,
		UpdatedAt: now.UTC(),
	}
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// AppendTurn records a completed exchange. History is never rewritten.
func (s *SessionState) AppendTurn(message, response, intent string, now time.Time) {
	s.History = append(s.History, Turn{
		Message:   message,
		Response:  response,
		Intent:    intent,
		CreatedAt: now.UTC(),
	})
}

// Downgrade switches the session to local fallback classification. The
// downgrade is one-way: once a backend failure is observed, the session
// stays on the rule classifier so behavior stays predictable for the user.
func (s *SessionState) Downgrade() {
	s.Mode = ModeLocalFallback
}

// MergePending stores partial slot values for an intent. Pending slots from
// a different intent are discarded first; values already gathered for the
// same intent are kept unless overwritten by a non-empty new value.
func (s *SessionState) MergePending(intent string, slots map[string]string) {
	if s.Pending == nil || s.Pending.Intent != intent {
		s.Pending = &PendingSlots{Intent: intent, Slots: make(map[string]string, len(slots))}
	}
	if s.Pending.Slots == nil {
		s.Pending.Slots = make(map[string]string, len(slots))
	}
	for k, v := range slots {
		if v != "" {
			s.Pending.Slots[k] = v
		}
	}
}

// PendingFor returns the stashed slots if they belong to the given intent.
func (s *SessionState) PendingFor(intent string) map[string]string {
	if s.Pending == nil || s.Pending.Intent != intent {
		return nil
	}
	return s.Pending.Slots
}

// ClearPending drops stashed slots after a successful tool invocation or an
// explicit cancellation.
func (s *SessionState) ClearPending() {
	s.Pending = nil
}

// LastMode returns the mode, defaulting to remote for states persisted
// before the field existed.
func (s *SessionState) LastMode() Mode {
	if s.Mode == "" {
		return ModeRemote
	}
	return s.Mode
}

func (s *SessionState) Validate() error {
	if s == nil {
		return ErrNilSessionState
	}
	if s.SessionID == "" {
		return ErrInvalidSession
	}
	switch s.LastMode() {
	case ModeRemote, ModeLocalFallback:
	default:
		return ErrInvalidMode
	}
	if s.Pending != nil && s.Pending.Intent == "" {
		return errors.New("pending slots must be scoped to an intent")
	}
	return nil
}
