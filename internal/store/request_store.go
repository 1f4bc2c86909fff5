package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/setlisthq/setlist/internal/model"
)

const (
	// AnonymousRequester is used when a submitter gives no display name.
	AnonymousRequester = "Anonymous"

	perEventTopTracks = 10
	globalTopTracks   = 20
)

// RequestStore owns all request records. It consults the event store only
// to gate submissions; a request keeps its event id even after the event
// ends.
type RequestStore struct {
	mu       sync.RWMutex
	requests []model.Request
	events   *EventStore
}

// NewRequestStore constructs a RequestStore backed by the given event store.
func NewRequestStore(events *EventStore) *RequestStore {
	return &RequestStore{events: events}
}

// Submit creates a pending request against an active event. Nothing is
// created when the event is unknown or inactive.
func (s *RequestStore) Submit(req model.SubmitRequest) (*model.Request, error) {
	if !s.events.IsActive(req.EventID) {
		return nil, ErrEventNotActive
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	requester := strings.TrimSpace(req.RequesterName)
	if requester == "" {
		requester = AnonymousRequester
	}

	r := model.Request{
		ID:            uuid.NewString(),
		EventID:       req.EventID,
		TrackName:     req.TrackName,
		ArtistName:    req.ArtistName,
		AlbumImage:    req.AlbumImage,
		SpotifyURI:    req.SpotifyURI,
		RequesterName: requester,
		Status:        model.StatusPending,
		RequestedAt:   time.Now().UTC(),
	}
	s.requests = append(s.requests, r)
	return cloneRequest(r), nil
}

// GetByID returns a single request or ErrNotFound.
func (s *RequestStore) GetByID(id string) (*model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.requests {
		if s.requests[i].ID == id {
			return cloneRequest(s.requests[i]), nil
		}
	}
	return nil, ErrNotFound
}

// ListForEvent returns the event's requests, most recent first. The status
// filter is a single label, the "later" alias covering all later_* labels,
// or empty for everything.
func (s *RequestStore) ListForEvent(eventID, status string) []model.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Request{}
	// Walk backwards: insertion order is request-time order.
	for i := len(s.requests) - 1; i >= 0; i-- {
		r := s.requests[i]
		if r.EventID != eventID {
			continue
		}
		if !matchesStatus(&r, status) {
			continue
		}
		out = append(out, *cloneRequest(r))
	}
	return out
}

// UpdateStatus unconditionally overwrites the status and re-stamps
// RespondedAt, even when the label repeats or is unknown. Operators are
// trusted; there is no transition graph.
func (s *RequestStore) UpdateStatus(id, status string) (*model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.requests {
		if s.requests[i].ID != id {
			continue
		}
		now := time.Now().UTC()
		s.requests[i].Status = status
		s.requests[i].RespondedAt = &now
		return cloneRequest(s.requests[i]), nil
	}
	return nil, ErrNotFound
}

// CountForEvent returns the number of requests submitted against an event.
func (s *RequestStore) CountForEvent(eventID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for i := range s.requests {
		if s.requests[i].EventID == eventID {
			n++
		}
	}
	return n
}

// StatsForEvent aggregates status counts and the event's top tracks.
func (s *RequestStore) StatsForEvent(eventID string) *model.EventStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &model.EventStats{TopTracks: []model.TrackCount{}}
	scoped := make([]model.Request, 0)
	for i := range s.requests {
		r := s.requests[i]
		if r.EventID != eventID {
			continue
		}
		scoped = append(scoped, r)
		stats.TotalRequests++
		switch {
		case r.Status == model.StatusAccepted:
			stats.AcceptedRequests++
		case r.Status == model.StatusRejected:
			stats.RejectedRequests++
		case r.IsLater():
			stats.LaterRequests++
		}
	}
	stats.TopTracks = topTracks(scoped, perEventTopTracks)
	return stats
}

// GlobalTopTracks aggregates across all events. A non-positive limit
// falls back to the default of 20.
func (s *RequestStore) GlobalTopTracks(limit int) []model.TrackCount {
	if limit <= 0 {
		limit = globalTopTracks
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return topTracks(s.requests, limit)
}

// Export returns a copy of all requests in insertion order for snapshotting.
func (s *RequestStore) Export() []model.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Request, 0, len(s.requests))
	for i := range s.requests {
		out = append(out, *cloneRequest(s.requests[i]))
	}
	return out
}

// Restore replaces the store contents with a loaded snapshot.
func (s *RequestStore) Restore(requests []model.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = make([]model.Request, 0, len(requests))
	for i := range requests {
		s.requests = append(s.requests, *cloneRequest(requests[i]))
	}
}

func matchesStatus(r *model.Request, status string) bool {
	switch status {
	case "":
		return true
	case model.StatusLater:
		return r.IsLater()
	default:
		return r.Status == status
	}
}

// topTracks groups by the case-sensitive (track, artist) pair and returns
// up to limit entries by count descending. Ties keep first-submission
// order: groups are collected in first-encounter order and the sort is
// stable.
func topTracks(requests []model.Request, limit int) []model.TrackCount {
	type key struct{ track, artist string }

	index := make(map[key]int)
	counts := []model.TrackCount{}
	for i := range requests {
		k := key{requests[i].TrackName, requests[i].ArtistName}
		if at, ok := index[k]; ok {
			counts[at].Count++
			continue
		}
		index[k] = len(counts)
		counts = append(counts, model.TrackCount{
			TrackName:  requests[i].TrackName,
			ArtistName: requests[i].ArtistName,
			Count:      1,
		})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

func cloneRequest(r model.Request) *model.Request {
	c := r
	if r.RespondedAt != nil {
		t := *r.RespondedAt
		c.RespondedAt = &t
	}
	return &c
}
