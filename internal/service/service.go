// Package service implements business logic and orchestration between
// HTTP handlers, the in-memory stores, the snapshot gateway, and the
// realtime hub. Every mutation follows the same path: validate, apply
// to the store, flush the snapshot, publish a notification.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/setlisthq/setlist/internal/model"
	"github.com/setlisthq/setlist/internal/realtime"
	"github.com/setlisthq/setlist/internal/store"
)

// Persister is the snapshot gateway contract.
type Persister interface {
	Load() (*model.Snapshot, error)
	Save(*model.Snapshot) error
}

// Publisher is the realtime fan-out contract.
type Publisher interface {
	Publish(channel, event string, payload any)
}

// TrackSearcher is the external catalog contract. Implementations never
// return errors; they degrade to fallback results.
type TrackSearcher interface {
	Search(ctx context.Context, query string) []model.TrackResult
}

// Service orchestrates all event and request operations.
type Service struct {
	events    *store.EventStore
	requests  *store.RequestStore
	snapshots Persister
	hub       Publisher
	search    TrackSearcher
	log       zerolog.Logger
}

// New constructs a Service with its collaborators.
func New(
	events *store.EventStore,
	requests *store.RequestStore,
	snapshots Persister,
	hub Publisher,
	search TrackSearcher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		events:    events,
		requests:  requests,
		snapshots: snapshots,
		hub:       hub,
		search:    search,
		log:       logger,
	}
}

// Restore loads the persisted snapshot into the stores. Called once at
// startup; an empty snapshot is a normal cold start.
func (s *Service) Restore() error {
	snap, err := s.snapshots.Load()
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	s.events.Restore(snap.Events)
	s.requests.Restore(snap.Requests)
	s.log.Info().
		Int("events", len(snap.Events)).
		Int("requests", len(snap.Requests)).
		Msg("state restored")
	return nil
}

// persist flushes the full state synchronously. Failure is logged and
// swallowed: in-memory state stays authoritative for the rest of the
// process lifetime.
func (s *Service) persist() {
	snap := &model.Snapshot{
		Events:   s.events.Export(),
		Requests: s.requests.Export(),
	}
	if err := s.snapshots.Save(snap); err != nil {
		s.log.Error().Err(err).Msg("snapshot flush failed, in-memory state unaffected")
	}
}

// withCount fills in the derived TotalRequests field.
func (s *Service) withCount(e *model.Event) *model.Event {
	if e != nil {
		e.TotalRequests = s.requests.CountForEvent(e.ID)
	}
	return e
}

// CreateEvent creates a new active event and announces it globally.
func (s *Service) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	event, err := s.events.Create(req)
	if err != nil {
		return nil, err
	}
	s.persist()
	s.hub.Publish(realtime.GlobalChannel, realtime.EventCreated, event)
	s.log.Info().Str("event_id", event.ID).Str("code", event.Code).Msg("event created")
	return event, nil
}

// ActiveEvent returns the currently active event, or nil when none is.
func (s *Service) ActiveEvent(ctx context.Context) *model.Event {
	return s.withCount(s.events.GetActive())
}

// ListEvents returns all events, most recent first, each with a freshly
// computed request count.
func (s *Service) ListEvents(ctx context.Context) []model.Event {
	events := s.events.List()
	for i := range events {
		events[i].TotalRequests = s.requests.CountForEvent(events[i].ID)
	}
	return events
}

// GetEvent returns a single event by id.
func (s *Service) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.events.GetByID(id)
	if err != nil {
		return nil, err
	}
	return s.withCount(event), nil
}

// UpdateEvent applies a partial update and notifies the event's channel.
func (s *Service) UpdateEvent(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	event, err := s.events.Update(id, req)
	if err != nil {
		return nil, err
	}
	s.persist()
	s.hub.Publish(event.ID, realtime.EventUpdated, event)
	return s.withCount(event), nil
}

// EndEvent deactivates the event and notifies its channel. Safe to call
// repeatedly; each call re-stamps EndedAt and re-broadcasts.
func (s *Service) EndEvent(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.events.End(id)
	if err != nil {
		return nil, err
	}
	s.persist()
	s.hub.Publish(event.ID, realtime.EventEnded, event)
	s.log.Info().Str("event_id", event.ID).Msg("event ended")
	return s.withCount(event), nil
}

// ValidateCode resolves a join code against the active event only.
func (s *Service) ValidateCode(ctx context.Context, code string) (*model.CodeValidation, error) {
	return s.events.ValidateCode(strings.TrimSpace(code))
}

// SubmitRequest creates a pending request against an active event and
// notifies the event's channel.
func (s *Service) SubmitRequest(ctx context.Context, req model.SubmitRequest) (*model.Request, error) {
	req.TrackName = strings.TrimSpace(req.TrackName)
	req.ArtistName = strings.TrimSpace(req.ArtistName)
	if req.TrackName == "" {
		return nil, fmt.Errorf("track_name is required")
	}
	if req.ArtistName == "" {
		return nil, fmt.Errorf("artist_name is required")
	}

	request, err := s.requests.Submit(req)
	if err != nil {
		return nil, err
	}
	s.persist()
	s.hub.Publish(request.EventID, realtime.NewRequest, request)
	s.log.Info().
		Str("request_id", request.ID).
		Str("event_id", request.EventID).
		Str("track", request.TrackName).
		Msg("request submitted")
	return request, nil
}

// GetRequest returns a single request by id.
func (s *Service) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	return s.requests.GetByID(id)
}

// ListRequests returns an event's requests, optionally filtered by a
// status label or the "later" alias.
func (s *Service) ListRequests(ctx context.Context, eventID, status string) []model.Request {
	return s.requests.ListForEvent(eventID, status)
}

// UpdateRequestStatus overwrites the status, re-stamps RespondedAt, and
// notifies the owning event's channel.
func (s *Service) UpdateRequestStatus(ctx context.Context, id, status string) (*model.Request, error) {
	request, err := s.requests.UpdateStatus(id, status)
	if err != nil {
		return nil, err
	}
	s.persist()
	s.hub.Publish(request.EventID, realtime.RequestUpdated, request)
	return request, nil
}

// EventStats aggregates status counts and top tracks for one event.
func (s *Service) EventStats(ctx context.Context, eventID string) *model.EventStats {
	return s.requests.StatsForEvent(eventID)
}

// GlobalTopTracks aggregates top tracks across all events.
func (s *Service) GlobalTopTracks(ctx context.Context, limit int) []model.TrackCount {
	return s.requests.GlobalTopTracks(limit)
}

// SearchTracks queries the external catalog; never fails, may degrade.
func (s *Service) SearchTracks(ctx context.Context, query string) []model.TrackResult {
	return s.search.Search(ctx, query)
}
