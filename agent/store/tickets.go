package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	contractx "github.com/tanpawarit/servicedesk/agent/contract"
)

// TicketStatus enumerates the ticket lifecycle. Transitions only move
// forward; the router only ever creates tickets as open.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

var statusOrder = map[TicketStatus]int{
	TicketOpen:       0,
	TicketInProgress: 1,
	TicketResolved:   2,
	TicketClosed:     3,
}

type Ticket struct {
	ID        string       `json:"id"`
	Device    string       `json:"device"`
	Issue     string       `json:"issue"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// AdvanceStatus moves the ticket to a later lifecycle state. Moving backward
// or to an unknown state is rejected.
func (t *Ticket) AdvanceStatus(next TicketStatus) error {
	to, ok := statusOrder[next]
	if !ok {
		return fmt.Errorf("%w: unknown ticket status %q", contractx.ErrValidation, next)
	}
	from, ok := statusOrder[t.Status]
	if !ok {
		return fmt.Errorf("%w: ticket %s has unknown status %q", contractx.ErrValidation, t.ID, t.Status)
	}
	if to < from {
		return fmt.Errorf("%w: ticket status cannot move from %q back to %q", contractx.ErrValidation, t.Status, next)
	}
	t.Status = next
	return nil
}

const ticketIDPrefix = "TICKET-"

// ticketDocument is the single persisted JSON document. NextID lives beside
// the tickets so id allocation survives restarts without scanning for a max.
type ticketDocument struct {
	NextID  int      `json:"next_id"`
	Tickets []Ticket `json:"tickets"`
}

// TicketStore is a file-backed keyed collection of repair tickets. Every
// mutation rewrites the whole document through a same-directory temp file
// and rename, so a crash mid-write leaves the previous document intact.
// The mutex makes id allocation mutually exclusive across concurrent
// CreateTicket calls; it is never held across anything but file I/O.
type TicketStore struct {
	path string

	mu  sync.Mutex
	doc ticketDocument
}

const firstTicketID = 1001

func OpenTicketStore(path string) (*TicketStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: ticket store path is empty", contractx.ErrValidation)
	}
	s := &TicketStore{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s.doc = ticketDocument{NextID: firstTicketID}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read ticket store: %v", contractx.ErrStoreIO, err)
	}

	if err := json.Unmarshal(raw, &s.doc); err != nil {
		return nil, fmt.Errorf("%w: decode ticket store: %v", contractx.ErrStoreIO, err)
	}
	if s.doc.NextID < firstTicketID {
		s.doc.NextID = firstTicketID
	}
	// ids are never reused even if the counter was lost
	for _, t := range s.doc.Tickets {
		if n, ok := parseTicketNumber(t.ID); ok && n >= s.doc.NextID {
			s.doc.NextID = n + 1
		}
	}
	return s, nil
}

// CreateTicket allocates the next id, appends the ticket as open, and
// durably commits the document before returning.
func (s *TicketStore) CreateTicket(device, issue string, now time.Time) (Ticket, error) {
	device = strings.TrimSpace(device)
	issue = strings.TrimSpace(issue)
	if device == "" {
		return Ticket{}, fmt.Errorf("%w: device is required", contractx.ErrValidation)
	}
	if issue == "" {
		return Ticket{}, fmt.Errorf("%w: issue is required", contractx.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ticket := Ticket{
		ID:        fmt.Sprintf("%s%d", ticketIDPrefix, s.doc.NextID),
		Device:    device,
		Issue:     issue,
		Status:    TicketOpen,
		CreatedAt: now.UTC(),
	}

	next := s.doc
	next.NextID++
	next.Tickets = append(append([]Ticket(nil), s.doc.Tickets...), ticket)

	if err := s.writeDocument(next); err != nil {
		return Ticket{}, err
	}
	s.doc = next
	return ticket, nil
}

// GetTicket looks a ticket up by id, case-insensitively.
func (s *TicketStore) GetTicket(id string) (Ticket, error) {
	want := strings.ToUpper(strings.TrimSpace(id))
	if want == "" {
		return Ticket{}, fmt.Errorf("%w: ticket id is required", contractx.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.doc.Tickets {
		if strings.ToUpper(t.ID) == want {
			return t, nil
		}
	}
	return Ticket{}, fmt.Errorf("%w: ticket %s", contractx.ErrNotFound, id)
}

// Len reports the number of stored tickets.
func (s *TicketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc.Tickets)
}

func (s *TicketStore) writeDocument(doc ticketDocument) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode ticket store: %v", contractx.ErrStoreIO, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create ticket store dir: %v", contractx.ErrStoreIO, err)
	}

	tmp, err := os.CreateTemp(dir, ".tickets-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp ticket file: %v", contractx.ErrStoreIO, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write ticket store: %v", contractx.ErrStoreIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: sync ticket store: %v", contractx.ErrStoreIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close ticket store: %v", contractx.ErrStoreIO, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace ticket store: %v", contractx.ErrStoreIO, err)
	}
	return nil
}

func parseTicketNumber(id string) (int, bool) {
	rest, ok := strings.CutPrefix(strings.ToUpper(strings.TrimSpace(id)), ticketIDPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	n := 0
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
