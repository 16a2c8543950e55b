package state

import (
	"context"
	"errors"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

var ErrStateNotFound = errors.New("session state not found")

// Store is the persistence contract used by the router.
type Store interface {
	Load(ctx context.Context, sessionID string) (*SessionState, error)
	Save(ctx context.Context, st *SessionState) error
	Delete(ctx context.Context, sessionID string) error
}

const defaultMemoryCapacity = 1024

// MemoryStore keeps sessions in a capacity-bounded LRU cache. Eviction of
// the least recently used session is the only expiry policy; the router
// recreates an evicted session transparently on its next message.
type MemoryStore struct {
	cache *lru.Cache[string, *SessionState]
}

func NewMemoryStore(capacity int) (*MemoryStore, error) {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	cache, err := lru.New[string, *SessionState](capacity)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: cache}, nil
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*SessionState, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	st, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, ErrStateNotFound
	}
	return cloneState(st), nil
}

func (s *MemoryStore) Save(ctx context.Context, st *SessionState) error {
	if st == nil {
		return ErrNilSessionState
	}
	if err := st.Validate(); err != nil {
		return err
	}
	s.cache.Add(st.SessionID, cloneState(st))
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.cache.Remove(sessionID)
	return nil
}

// Len reports the number of live sessions, for observability.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

// cloneState guards cached state against mutation by callers that hold a
// loaded pointer across turns.
func cloneState(st *SessionState) *SessionState {
	if st == nil {
		return nil
	}
	out := *st
	if st.History != nil {
		out.History = append([]Turn(nil), st.History...)
	}
	if st.Pending != nil {
		pending := PendingSlots{Intent: st.Pending.Intent}
		if st.Pending.Slots != nil {
			pending.Slots = make(map[string]string, len(st.Pending.Slots))
			for k, v := range st.Pending.Slots {
				pending.Slots[k] = v
			}
		}
		out.Pending = &pending
	}
	return &out
}
