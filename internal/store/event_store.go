// Package store implements the in-memory event and request stores.
// In-memory state is the single source of truth for the process; the
// snapshot gateway only shadows it.
package store

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/setlisthq/setlist/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrActiveEventExists is returned when creating an event while another
// one is still active.
var ErrActiveEventExists = errors.New("an active event already exists")

// ErrEventNotActive is returned when submitting a request against an
// event that is unknown or no longer active.
var ErrEventNotActive = errors.New("event not found or not active")

// ErrInvalidCode is returned when a join code matches no active event.
var ErrInvalidCode = errors.New("invalid event code")

// EventStore owns all event records.
//
// Create enforces the single-active-event invariant; Update deliberately
// does not, so an operator can reactivate an ended event by hand even
// while another one is running. That asymmetry matches the observed
// behaviour of the system this replaces.
type EventStore struct {
	mu     sync.RWMutex
	events []model.Event
}

// NewEventStore constructs an empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{}
}

// Create adds a new active event. It fails without mutating state while
// another event is active. A missing code is replaced with a random
// 4-digit one; the single-active invariant makes it unique among active
// events by construction.
func (s *EventStore) Create(req model.CreateEventRequest) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.events {
		if s.events[i].Active {
			return nil, ErrActiveEventExists
		}
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Live Session"
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = fmt.Sprintf("%04d", rand.Intn(10000))
	}

	e := model.Event{
		ID:             uuid.NewString(),
		Name:           name,
		Code:           code,
		Active:         true,
		AcceptedStyles: []string{},
		CreatedAt:      time.Now().UTC(),
	}
	s.events = append(s.events, e)
	return cloneEvent(e), nil
}

// GetActive returns the currently active event, or nil when there is none.
func (s *EventStore) GetActive() *model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.events {
		if s.events[i].Active {
			return cloneEvent(s.events[i])
		}
	}
	return nil
}

// List returns all events ordered by creation time, most recent first.
func (s *EventStore) List() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, 0, len(s.events))
	for i := range s.events {
		out = append(out, *cloneEvent(s.events[i]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// GetByID returns a single event or ErrNotFound.
func (s *EventStore) GetByID(id string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.events {
		if s.events[i].ID == id {
			return cloneEvent(s.events[i]), nil
		}
	}
	return nil, ErrNotFound
}

// Update applies only the fields present in req. Setting Active=true here
// bypasses the single-active check (see the type comment).
func (s *EventStore) Update(id string, req model.UpdateEventRequest) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.events {
		if s.events[i].ID != id {
			continue
		}
		if req.Name != nil {
			s.events[i].Name = *req.Name
		}
		if req.AcceptedStyles != nil {
			s.events[i].AcceptedStyles = append([]string(nil), (*req.AcceptedStyles)...)
		}
		if req.Active != nil {
			s.events[i].Active = *req.Active
		}
		return cloneEvent(s.events[i]), nil
	}
	return nil, ErrNotFound
}

// End deactivates the event and stamps EndedAt. Calling it on an already
// ended event re-stamps EndedAt rather than erroring.
func (s *EventStore) End(id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.events {
		if s.events[i].ID != id {
			continue
		}
		now := time.Now().UTC()
		s.events[i].Active = false
		s.events[i].EndedAt = &now
		return cloneEvent(s.events[i]), nil
	}
	return nil, ErrNotFound
}

// ValidateCode matches the code against the currently active event only;
// codes of ended events never validate.
func (s *EventStore) ValidateCode(code string) (*model.CodeValidation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.events {
		if s.events[i].Active && s.events[i].Code == code {
			return &model.CodeValidation{
				EventID:   s.events[i].ID,
				EventName: s.events[i].Name,
			}, nil
		}
	}
	return nil, ErrInvalidCode
}

// IsActive reports whether the given id names a currently active event.
func (s *EventStore) IsActive(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.events {
		if s.events[i].ID == id {
			return s.events[i].Active
		}
	}
	return false
}

// Export returns a copy of all events in insertion order for snapshotting.
func (s *EventStore) Export() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, 0, len(s.events))
	for i := range s.events {
		out = append(out, *cloneEvent(s.events[i]))
	}
	return out
}

// Restore replaces the store contents with a loaded snapshot.
func (s *EventStore) Restore(events []model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make([]model.Event, 0, len(events))
	for i := range events {
		s.events = append(s.events, *cloneEvent(events[i]))
	}
}

func cloneEvent(e model.Event) *model.Event {
	c := e
	c.AcceptedStyles = append([]string(nil), e.AcceptedStyles...)
	if e.EndedAt != nil {
		t := *e.EndedAt
		c.EndedAt = &t
	}
	return &c
}
